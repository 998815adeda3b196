// Package admin is the back-office: dashboard stats and management of users,
// workouts and exercises. Every call requires an admin session.
package admin

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/2beens/gymclient/internal/apiclient"
	"github.com/2beens/gymclient/internal/apperrors"
	"github.com/2beens/gymclient/internal/session"
	"github.com/2beens/gymclient/internal/store"
	"github.com/2beens/gymclient/internal/telemetry/tracing"
)

const notAdminMessage = "Acceso restringido a administradores"

type Console struct {
	client  *apiclient.Client
	session *session.Store
	status  store.Status

	users     *resource[User]
	workouts  *resource[Workout]
	exercises *resource[Exercise]

	statsMu sync.RWMutex
	stats   *Stats
}

func NewConsole(client *apiclient.Client, sessionStore *session.Store) *Console {
	c := &Console{
		client:  client,
		session: sessionStore,
		users: &resource[User]{
			name: "users",
			path: "/admin/usuarios",
			messages: messages{
				list:   "Error al cargar usuarios",
				create: "Error al crear usuario",
				update: "Error al actualizar usuario",
				remove: "Error al eliminar usuario",
			},
		},
		workouts: &resource[Workout]{
			name: "workouts",
			path: "/admin/entrenamientos",
			messages: messages{
				list:   "Error al cargar entrenamientos",
				create: "Error al crear entrenamiento",
				update: "Error al actualizar entrenamiento",
				remove: "Error al eliminar entrenamiento",
			},
		},
		exercises: &resource[Exercise]{
			name: "exercises",
			path: "/admin/ejercicios",
			messages: messages{
				list:   "Error al cargar ejercicios",
				create: "Error al crear ejercicio",
				update: "Error al actualizar ejercicio",
				remove: "Error al eliminar ejercicio",
			},
		},
	}
	if sessionStore != nil {
		sessionStore.OnIdentityChange(c.Reset)
	}
	return c
}

// authorize returns the token of an admin session. A regular user gets
// ErrAuthorization without any request being sent.
func (c *Console) authorize() (string, error) {
	token, err := c.session.RequireToken()
	if err != nil {
		return "", err
	}
	if !c.session.IsAdmin() {
		return "", apperrors.Authorization(notAdminMessage)
	}
	return token, nil
}

// run guards op with the admin check and the loading/error status.
func (c *Console) run(op func(token string) error) (err error) {
	token, err := c.authorize()
	if err != nil {
		return c.status.Fail(err)
	}
	end := c.status.Begin()
	defer func() { end(err) }()
	return op(token)
}

func (c *Console) Stats(ctx context.Context) (_ *Stats, err error) {
	ctx, finish := tracing.StartSpan(ctx, "admin.stats")
	defer finish(&err)

	var stats Stats
	err = c.run(func(token string) error {
		if err := c.client.DoJSON(ctx, apiclient.Request{
			Method:       http.MethodGet,
			Path:         "/admin/dashboard",
			Token:        token,
			NoCache:      true,
			ErrorMessage: "Error al cargar estadísticas",
		}, &stats); err != nil {
			c.setStats(nil)
			return err
		}
		c.setStats(&stats)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Console) Users(ctx context.Context) (users []User, err error) {
	err = c.run(func(token string) error {
		users, err = c.users.list(ctx, c.client, token)
		return err
	})
	return users, err
}

func (c *Console) CreateUser(ctx context.Context, input UserInput) error {
	if input.Name == nil || strings.TrimSpace(*input.Name) == "" ||
		input.Email == nil || strings.TrimSpace(*input.Email) == "" ||
		input.Password == nil || *input.Password == "" {
		return c.status.Fail(apperrors.Validation("Nombre, email y contraseña son obligatorios"))
	}
	return c.run(func(token string) error {
		return c.users.create(ctx, c.client, token, input)
	})
}

func (c *Console) UpdateUser(ctx context.Context, id int, input UserInput) error {
	return c.run(func(token string) error {
		return c.users.update(ctx, c.client, token, id, input)
	})
}

// DeleteUser removes a user account. Deleting the account of the session
// user is refused locally.
func (c *Console) DeleteUser(ctx context.Context, id int) error {
	if current := c.session.User(); current != nil && current.ID == id {
		return c.status.Fail(apperrors.Policy("No puedes eliminar tu propia cuenta"))
	}
	return c.run(func(token string) error {
		return c.users.remove(ctx, c.client, token, id)
	})
}

func (c *Console) Workouts(ctx context.Context) (workouts []Workout, err error) {
	err = c.run(func(token string) error {
		workouts, err = c.workouts.list(ctx, c.client, token)
		return err
	})
	return workouts, err
}

func (c *Console) CreateWorkout(ctx context.Context, input WorkoutInput) error {
	if input.Title == nil || strings.TrimSpace(*input.Title) == "" {
		return c.status.Fail(apperrors.Validation("El título es obligatorio"))
	}
	return c.run(func(token string) error {
		return c.workouts.create(ctx, c.client, token, input)
	})
}

func (c *Console) UpdateWorkout(ctx context.Context, id int, input WorkoutInput) error {
	return c.run(func(token string) error {
		return c.workouts.update(ctx, c.client, token, id, input)
	})
}

func (c *Console) DeleteWorkout(ctx context.Context, id int) error {
	return c.run(func(token string) error {
		return c.workouts.remove(ctx, c.client, token, id)
	})
}

func (c *Console) Exercises(ctx context.Context) (exercises []Exercise, err error) {
	err = c.run(func(token string) error {
		exercises, err = c.exercises.list(ctx, c.client, token)
		return err
	})
	return exercises, err
}

func (c *Console) CreateExercise(ctx context.Context, input ExerciseInput) error {
	if input.Name == nil || strings.TrimSpace(*input.Name) == "" {
		return c.status.Fail(apperrors.Validation("El nombre es obligatorio"))
	}
	return c.run(func(token string) error {
		return c.exercises.create(ctx, c.client, token, input)
	})
}

func (c *Console) UpdateExercise(ctx context.Context, id int, input ExerciseInput) error {
	return c.run(func(token string) error {
		return c.exercises.update(ctx, c.client, token, id, input)
	})
}

func (c *Console) DeleteExercise(ctx context.Context, id int) error {
	return c.run(func(token string) error {
		return c.exercises.remove(ctx, c.client, token, id)
	})
}

func (c *Console) CachedStats() *Stats {
	c.statsMu.RLock()
	defer c.statsMu.RUnlock()
	if c.stats == nil {
		return nil
	}
	cp := *c.stats
	return &cp
}

func (c *Console) CachedUsers() []User         { return c.users.cached() }
func (c *Console) CachedWorkouts() []Workout   { return c.workouts.cached() }
func (c *Console) CachedExercises() []Exercise { return c.exercises.cached() }

// Reset drops everything loaded under the previous admin session.
func (c *Console) Reset() {
	c.setStats(nil)
	c.users.set(nil)
	c.workouts.set(nil)
	c.exercises.set(nil)
	c.status.ClearError()
}

func (c *Console) Loading() bool { return c.status.Loading() }
func (c *Console) Error() string { return c.status.Error() }

func (c *Console) setStats(stats *Stats) {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	c.stats = stats
}
