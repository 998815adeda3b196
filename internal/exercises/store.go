// Package exercises is the read-only exercise library.
package exercises

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/2beens/gymclient/internal/apiclient"
	"github.com/2beens/gymclient/internal/session"
	"github.com/2beens/gymclient/internal/store"
	"github.com/2beens/gymclient/internal/telemetry/tracing"
)

type Exercise struct {
	ID                int    `json:"ejercicioID"`
	Name              string `json:"nombre"`
	Description       string `json:"descripcion,omitempty"`
	MuscleGroup       string `json:"grupoMuscular"`
	ImageURL          string `json:"imagenURL,omitempty"`
	VideoURL          string `json:"videoURL,omitempty"`
	EquipmentRequired bool   `json:"equipamientoNecesario"`
}

type Store struct {
	client  *apiclient.Client
	session *session.Store
	status  store.Status

	mu        sync.RWMutex
	exercises []Exercise
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

func (s *Store) List(ctx context.Context) (_ []Exercise, err error) {
	ctx, finish := tracing.StartSpan(ctx, "exercises.list")
	defer finish(&err)

	end := s.status.Begin()
	defer func() { end(err) }()

	var exercises []Exercise
	if err := s.client.DoJSON(ctx, apiclient.Request{
		Method:       http.MethodGet,
		Path:         "/ejercicios",
		Token:        s.session.Token(),
		ErrorMessage: "Error cargando ejercicios",
	}, &exercises); err != nil {
		s.mu.Lock()
		s.exercises = nil
		s.mu.Unlock()
		return nil, err
	}

	s.mu.Lock()
	s.exercises = exercises
	s.mu.Unlock()
	return append([]Exercise(nil), exercises...), nil
}

func (s *Store) Get(ctx context.Context, id int) (_ *Exercise, err error) {
	ctx, finish := tracing.StartSpan(ctx, "exercises.get")
	defer finish(&err)

	end := s.status.Begin()
	defer func() { end(err) }()

	var exercise Exercise
	if err := s.client.DoJSON(ctx, apiclient.Request{
		Method:       http.MethodGet,
		Path:         fmt.Sprintf("/ejercicios/%d", id),
		Token:        s.session.Token(),
		ErrorMessage: "Error cargando ejercicio",
	}, &exercise); err != nil {
		return nil, err
	}
	return &exercise, nil
}

func (s *Store) Cached() []Exercise {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Exercise(nil), s.exercises...)
}

// ByMuscleGroup groups the cached exercises, case-insensitively, under the
// first spelling seen for each group. Groups are sorted by name.
func (s *Store) ByMuscleGroup() map[string][]Exercise {
	groups := make(map[string][]Exercise)
	names := make(map[string]string)
	for _, ex := range s.Cached() {
		key := strings.ToLower(strings.TrimSpace(ex.MuscleGroup))
		name, ok := names[key]
		if !ok {
			name = strings.TrimSpace(ex.MuscleGroup)
			names[key] = name
		}
		groups[name] = append(groups[name], ex)
	}
	for _, list := range groups {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	}
	return groups
}

func (s *Store) Reset() {
	s.mu.Lock()
	s.exercises = nil
	s.mu.Unlock()
	s.status.ClearError()
}

func (s *Store) Loading() bool { return s.status.Loading() }
func (s *Store) Error() string { return s.status.Error() }
