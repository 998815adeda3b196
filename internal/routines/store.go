// Package routines tracks the workouts the user has completed.
package routines

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/2beens/gymclient/internal/apiclient"
	"github.com/2beens/gymclient/internal/apperrors"
	"github.com/2beens/gymclient/internal/session"
	"github.com/2beens/gymclient/internal/store"
	"github.com/2beens/gymclient/internal/telemetry/tracing"
)

const maxEffortLevel = 10

type Store struct {
	client  *apiclient.Client
	session *session.Store
	status  store.Status

	mu       sync.RWMutex
	routines []CompletedRoutine
	summary  *Summary
}

func NewStore(client *apiclient.Client, sessionStore *session.Store) *Store {
	s := &Store{
		client:  client,
		session: sessionStore,
	}
	if sessionStore != nil {
		sessionStore.OnIdentityChange(s.Reset)
	}
	return s
}

func (s *Store) List(ctx context.Context) (_ []CompletedRoutine, err error) {
	ctx, finish := tracing.StartSpan(ctx, "routines.list")
	defer finish(&err)

	token, err := s.session.RequireToken()
	if err != nil {
		return nil, s.status.Fail(err)
	}
	end := s.status.Begin()
	defer func() { end(err) }()

	var routines []CompletedRoutine
	if err := s.client.DoJSON(ctx, apiclient.Request{
		Method:       http.MethodGet,
		Path:         "/RutinaCompletada",
		Token:        token,
		ErrorMessage: "Error al cargar las rutinas completadas",
	}, &routines); err != nil {
		s.mu.Lock()
		s.routines = nil
		s.mu.Unlock()
		return nil, err
	}

	s.mu.Lock()
	s.routines = routines
	s.mu.Unlock()
	return cloneAll(routines), nil
}

func (s *Store) Get(ctx context.Context, id int) (_ *CompletedRoutine, err error) {
	ctx, finish := tracing.StartSpan(ctx, "routines.get")
	defer finish(&err)

	token, err := s.session.RequireToken()
	if err != nil {
		return nil, s.status.Fail(err)
	}
	end := s.status.Begin()
	defer func() { end(err) }()

	var routine CompletedRoutine
	if err := s.client.DoJSON(ctx, apiclient.Request{
		Method:       http.MethodGet,
		Path:         fmt.Sprintf("/RutinaCompletada/%d", id),
		Token:        token,
		ErrorMessage: "Error al cargar la rutina completada",
	}, &routine); err != nil {
		return nil, err
	}
	return &routine, nil
}

func (s *Store) ByWorkout(ctx context.Context, workoutID int) (_ []CompletedRoutine, err error) {
	ctx, finish := tracing.StartSpan(ctx, "routines.by-workout")
	defer finish(&err)

	token, err := s.session.RequireToken()
	if err != nil {
		return nil, s.status.Fail(err)
	}
	end := s.status.Begin()
	defer func() { end(err) }()

	var routines []CompletedRoutine
	if err := s.client.DoJSON(ctx, apiclient.Request{
		Method:       http.MethodGet,
		Path:         fmt.Sprintf("/RutinaCompletada/Entrenamiento/%d", workoutID),
		Token:        token,
		ErrorMessage: "Error al cargar las rutinas completadas",
	}, &routines); err != nil {
		return nil, err
	}
	return routines, nil
}

// Summary fetches the aggregate; it is never served from cache since
// completing a routine changes it.
func (s *Store) Summary(ctx context.Context) (_ *Summary, err error) {
	ctx, finish := tracing.StartSpan(ctx, "routines.summary")
	defer finish(&err)

	token, err := s.session.RequireToken()
	if err != nil {
		return nil, s.status.Fail(err)
	}
	end := s.status.Begin()
	defer func() { end(err) }()

	var summary Summary
	if err := s.client.DoJSON(ctx, apiclient.Request{
		Method:       http.MethodGet,
		Path:         "/RutinaCompletada/Resumen",
		Token:        token,
		NoCache:      true,
		ErrorMessage: "Error al cargar el resumen",
	}, &summary); err != nil {
		s.mu.Lock()
		s.summary = nil
		s.mu.Unlock()
		return nil, err
	}

	s.mu.Lock()
	s.summary = &summary
	s.mu.Unlock()
	cp := summary
	return &cp, nil
}

// Complete records a finished workout and prepends it to the cached list.
func (s *Store) Complete(ctx context.Context, req CompleteRequest) (_ *CompletedRoutine, err error) {
	ctx, finish := tracing.StartSpan(ctx, "routines.complete")
	defer finish(&err)

	if req.WorkoutID <= 0 {
		return nil, s.status.Fail(apperrors.Validation("Selecciona un entrenamiento"))
	}
	if err := validateEffort(req.PerceivedEffortLevel); err != nil {
		return nil, s.status.Fail(err)
	}
	token, err := s.session.RequireToken()
	if err != nil {
		return nil, s.status.Fail(err)
	}
	end := s.status.Begin()
	defer func() { end(err) }()

	var created CompletedRoutine
	if err := s.client.DoJSON(ctx, apiclient.Request{
		Method:       http.MethodPost,
		Path:         "/RutinaCompletada",
		Token:        token,
		Body:         req,
		ErrorMessage: "Error al marcar la rutina como completada",
	}, &created); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.routines = append([]CompletedRoutine{created}, s.routines...)
	s.summary = nil
	s.mu.Unlock()
	return &created, nil
}

func (s *Store) Update(ctx context.Context, id int, req UpdateRequest) (_ *CompletedRoutine, err error) {
	ctx, finish := tracing.StartSpan(ctx, "routines.update")
	defer finish(&err)

	if err := validateEffort(req.PerceivedEffortLevel); err != nil {
		return nil, s.status.Fail(err)
	}
	token, err := s.session.RequireToken()
	if err != nil {
		return nil, s.status.Fail(err)
	}
	end := s.status.Begin()
	defer func() { end(err) }()

	var updated CompletedRoutine
	if err := s.client.DoJSON(ctx, apiclient.Request{
		Method:       http.MethodPut,
		Path:         fmt.Sprintf("/RutinaCompletada/%d", id),
		Token:        token,
		Body:         req,
		ErrorMessage: "Error al actualizar la rutina completada",
	}, &updated); err != nil {
		return nil, err
	}

	s.mu.Lock()
	for i := range s.routines {
		if s.routines[i].ID == id {
			s.routines[i] = updated
		}
	}
	s.mu.Unlock()
	return &updated, nil
}

func (s *Store) Delete(ctx context.Context, id int) (err error) {
	ctx, finish := tracing.StartSpan(ctx, "routines.delete")
	defer finish(&err)

	token, err := s.session.RequireToken()
	if err != nil {
		return s.status.Fail(err)
	}
	end := s.status.Begin()
	defer func() { end(err) }()

	if _, err := s.client.Do(ctx, apiclient.Request{
		Method:       http.MethodDelete,
		Path:         fmt.Sprintf("/RutinaCompletada/%d", id),
		Token:        token,
		ErrorMessage: "Error al eliminar la rutina completada",
	}); err != nil {
		return err
	}

	s.mu.Lock()
	kept := s.routines[:0]
	for _, r := range s.routines {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	s.routines = kept
	s.summary = nil
	s.mu.Unlock()
	return nil
}

// Cached returns the routines from the last successful List.
func (s *Store) Cached() []CompletedRoutine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.routines)
}

func (s *Store) CachedSummary() *Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.summary == nil {
		return nil
	}
	cp := *s.summary
	return &cp
}

func (s *Store) Reset() {
	s.mu.Lock()
	s.routines = nil
	s.summary = nil
	s.mu.Unlock()
	s.status.ClearError()
}

func (s *Store) Loading() bool { return s.status.Loading() }
func (s *Store) Error() string { return s.status.Error() }

func validateEffort(level *int) error {
	if level != nil && (*level < 1 || *level > maxEffortLevel) {
		return apperrors.Validation(fmt.Sprintf("El nivel de esfuerzo debe estar entre 1 y %d", maxEffortLevel))
	}
	return nil
}

func cloneAll(routines []CompletedRoutine) []CompletedRoutine {
	if routines == nil {
		return nil
	}
	out := make([]CompletedRoutine, len(routines))
	copy(out, routines)
	return out
}
