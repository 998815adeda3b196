// Package workouts lists and manages workout plans.
package workouts

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/2beens/gymclient/internal/apiclient"
	"github.com/2beens/gymclient/internal/apperrors"
	"github.com/2beens/gymclient/internal/session"
	"github.com/2beens/gymclient/internal/store"
	"github.com/2beens/gymclient/internal/telemetry/tracing"
)

type Store struct {
	client  *apiclient.Client
	session *session.Store
	status  store.Status

	mu       sync.RWMutex
	workouts []Workout
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

// List fetches the workouts visible to the caller. Anonymous callers only
// get public ones, so no session is required.
func (s *Store) List(ctx context.Context) (_ []Workout, err error) {
	ctx, finish := tracing.StartSpan(ctx, "workouts.list")
	defer finish(&err)

	end := s.status.Begin()
	defer func() { end(err) }()

	var workouts []Workout
	if err := s.client.DoJSON(ctx, apiclient.Request{
		Method:       http.MethodGet,
		Path:         "/Entrenamiento",
		Token:        s.session.Token(),
		ErrorMessage: "Error al cargar los entrenamientos",
	}, &workouts); err != nil {
		s.setWorkouts(nil)
		return nil, err
	}

	s.setWorkouts(workouts)
	return append([]Workout(nil), workouts...), nil
}

func (s *Store) Get(ctx context.Context, id int) (_ *Workout, err error) {
	ctx, finish := tracing.StartSpan(ctx, "workouts.get")
	defer finish(&err)

	end := s.status.Begin()
	defer func() { end(err) }()

	var workout Workout
	if err := s.client.DoJSON(ctx, apiclient.Request{
		Method:       http.MethodGet,
		Path:         fmt.Sprintf("/Entrenamiento/%d", id),
		Token:        s.session.Token(),
		ErrorMessage: "Error al cargar el entrenamiento",
	}, &workout); err != nil {
		return nil, err
	}
	return &workout, nil
}

func (s *Store) Create(ctx context.Context, req CreateRequest) (_ *Workout, err error) {
	ctx, finish := tracing.StartSpan(ctx, "workouts.create")
	defer finish(&err)

	if err := validateCreate(req); err != nil {
		return nil, s.status.Fail(err)
	}
	token, err := s.session.RequireToken()
	if err != nil {
		return nil, s.status.Fail(err)
	}
	end := s.status.Begin()
	defer func() { end(err) }()

	if req.Exercises == nil {
		req.Exercises = []ExercisePrescript{}
	}
	var created Workout
	if err := s.client.DoJSON(ctx, apiclient.Request{
		Method:       http.MethodPost,
		Path:         "/Entrenamiento",
		Token:        token,
		Body:         req,
		ErrorMessage: "Error creando entrenamiento",
	}, &created); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.workouts = append(s.workouts, created)
	s.mu.Unlock()
	return &created, nil
}

// Delete removes a workout. Only its author may do that; the backend answers
// 403 to anyone else, surfaced as apperrors.ErrAuthorization.
func (s *Store) Delete(ctx context.Context, id int) (err error) {
	ctx, finish := tracing.StartSpan(ctx, "workouts.delete")
	defer finish(&err)

	token, err := s.session.RequireToken()
	if err != nil {
		return s.status.Fail(err)
	}
	end := s.status.Begin()
	defer func() { end(err) }()

	if _, err := s.client.Do(ctx, apiclient.Request{
		Method:       http.MethodDelete,
		Path:         fmt.Sprintf("/Entrenamiento/%d", id),
		Token:        token,
		ErrorMessage: "Error al eliminar el entrenamiento",
	}); err != nil {
		return err
	}

	s.mu.Lock()
	kept := make([]Workout, 0, len(s.workouts))
	for _, w := range s.workouts {
		if w.ID != id {
			kept = append(kept, w)
		}
	}
	s.workouts = kept
	s.mu.Unlock()
	return nil
}

func (s *Store) Cached() []Workout {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Workout(nil), s.workouts...)
}

// Reset drops the cached workouts; private ones belong to the previous user.
func (s *Store) Reset() {
	s.mu.Lock()
	s.workouts = nil
	s.mu.Unlock()
	s.status.ClearError()
}

func (s *Store) Loading() bool { return s.status.Loading() }
func (s *Store) Error() string { return s.status.Error() }

func (s *Store) setWorkouts(workouts []Workout) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workouts = workouts
}

func validateCreate(req CreateRequest) error {
	switch {
	case strings.TrimSpace(req.Title) == "":
		return apperrors.Validation("El título es obligatorio")
	case req.DurationMinutes <= 0:
		return apperrors.Validation("La duración debe ser mayor que cero")
	case !req.Difficulty.Valid():
		return apperrors.Validation("La dificultad debe ser Fácil, Media o Difícil")
	}
	for _, ex := range req.Exercises {
		if ex.ExerciseID <= 0 || ex.Sets <= 0 || ex.Reps <= 0 || ex.RestSeconds < 0 {
			return apperrors.Validation("Los ejercicios del entrenamiento no son válidos")
		}
	}
	return nil
}
