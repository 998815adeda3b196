package admin

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/2beens/gymclient/internal/apiclient"
	"github.com/2beens/gymclient/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
)

type messages struct {
	list, create, update, remove string
}

// resource is one admin collection. Every successful mutation reloads the
// list; if that reload fails the mutation still counts as done and the
// previous cache is kept until the next list.
type resource[T any] struct {
	name     string
	path     string
	messages messages

	mu    sync.RWMutex
	items []T
}

func (r *resource[T]) list(ctx context.Context, client *apiclient.Client, token string) (_ []T, err error) {
	ctx, finish := tracing.StartSpan(ctx, "admin.list-"+r.name)
	defer finish(&err)

	items, err := r.fetch(ctx, client, token)
	if err != nil {
		r.set(nil)
		return nil, err
	}
	r.set(items)
	return append([]T(nil), items...), nil
}

func (r *resource[T]) fetch(ctx context.Context, client *apiclient.Client, token string) ([]T, error) {
	var items []T
	if err := client.DoJSON(ctx, apiclient.Request{
		Method:       http.MethodGet,
		Path:         r.path,
		Token:        token,
		NoCache:      true,
		ErrorMessage: r.messages.list,
	}, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// refresh reloads the cache after a mutation the backend already accepted.
func (r *resource[T]) refresh(ctx context.Context, client *apiclient.Client, token string) {
	items, err := r.fetch(ctx, client, token)
	if err != nil {
		log.Warnf("admin: refresh %s after mutation: %s", r.name, err)
		return
	}
	r.set(items)
}

func (r *resource[T]) create(ctx context.Context, client *apiclient.Client, token string, body any) (err error) {
	ctx, finish := tracing.StartSpan(ctx, "admin.create-"+r.name)
	defer finish(&err)

	if _, err := client.Do(ctx, apiclient.Request{
		Method:       http.MethodPost,
		Path:         r.path,
		Token:        token,
		Body:         body,
		ErrorMessage: r.messages.create,
	}); err != nil {
		return err
	}
	r.refresh(ctx, client, token)
	return nil
}

func (r *resource[T]) update(ctx context.Context, client *apiclient.Client, token string, id int, body any) (err error) {
	ctx, finish := tracing.StartSpan(ctx, "admin.update-"+r.name)
	defer finish(&err)

	if _, err := client.Do(ctx, apiclient.Request{
		Method:       http.MethodPut,
		Path:         fmt.Sprintf("%s/%d", r.path, id),
		Token:        token,
		Body:         body,
		ErrorMessage: r.messages.update,
	}); err != nil {
		return err
	}
	r.refresh(ctx, client, token)
	return nil
}

func (r *resource[T]) remove(ctx context.Context, client *apiclient.Client, token string, id int) (err error) {
	ctx, finish := tracing.StartSpan(ctx, "admin.delete-"+r.name)
	defer finish(&err)

	if _, err := client.Do(ctx, apiclient.Request{
		Method:       http.MethodDelete,
		Path:         fmt.Sprintf("%s/%d", r.path, id),
		Token:        token,
		ErrorMessage: r.messages.remove,
	}); err != nil {
		return err
	}
	r.refresh(ctx, client, token)
	return nil
}

func (r *resource[T]) set(items []T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = items
}

func (r *resource[T]) cached() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]T(nil), r.items...)
}
