// Package comments reads and writes workout comments.
package comments

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

	log "github.com/sirupsen/logrus"
)

type Store struct {
	client  *apiclient.Client
	session *session.Store
	status  store.Status

	mu        sync.RWMutex
	workoutID int
	comments  []Comment
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

// ByWorkout fetches the comments of a workout. Comments arriving without
// author details get them from the session user, from /Usuario/{id}, or
// fall back to a generic name; an author lookup failure never fails the list.
func (s *Store) ByWorkout(ctx context.Context, workoutID int) (_ []Comment, err error) {
	ctx, finish := tracing.StartSpan(ctx, "comments.by-workout")
	defer finish(&err)

	end := s.status.Begin()
	defer func() { end(err) }()

	comments, err := s.fetch(ctx, workoutID)
	s.mu.Lock()
	s.workoutID = workoutID
	s.comments = comments
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return append([]Comment(nil), comments...), nil
}

func (s *Store) fetch(ctx context.Context, workoutID int) ([]Comment, error) {
	token := s.session.Token()

	var comments []Comment
	if err := s.client.DoJSON(ctx, apiclient.Request{
		Method:       http.MethodGet,
		Path:         fmt.Sprintf("/Comentario/entrenamiento/%d", workoutID),
		Token:        token,
		ErrorMessage: "Error cargando comentarios",
	}, &comments); err != nil {
		return nil, err
	}

	current := s.session.User()
	looked := make(map[int]*Author)
	for i := range comments {
		c := &comments[i]
		if c.Author != nil && c.Author.Name != "" {
			continue
		}
		if c.UserID == nil {
			c.Author = &Author{Name: unknownAuthorName}
			continue
		}
		userID := *c.UserID
		if current != nil && current.ID == userID {
			c.Author = &Author{Name: current.Name, Surname: current.Surname}
			continue
		}
		author, ok := looked[userID]
		if !ok {
			author = s.lookupAuthor(ctx, token, userID)
			looked[userID] = author
		}
		cp := *author
		c.Author = &cp
	}
	return comments, nil
}

func (s *Store) lookupAuthor(ctx context.Context, token string, userID int) *Author {
	var author Author
	if err := s.client.DoJSON(ctx, apiclient.Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/Usuario/%d", userID),
		Token:  token,
	}, &author); err != nil {
		log.Debugf("comments: author %d lookup failed: %s", userID, err)
		return &Author{Name: unknownAuthorName}
	}
	if author.Name == "" {
		author.Name = unknownAuthorName
	}
	author.Email = ""
	return &author
}

// Add posts a comment as the session user and reloads the workout's comments.
func (s *Store) Add(ctx context.Context, workoutID int, content string, rating int) (err error) {
	ctx, finish := tracing.StartSpan(ctx, "comments.add")
	defer finish(&err)

	if err := validate(&content, &rating); err != nil {
		return s.status.Fail(err)
	}
	token, err := s.session.RequireToken()
	if err != nil {
		return s.status.Fail(err)
	}
	user := s.session.User()
	if user == nil {
		return s.status.Fail(apperrors.Authentication("No autorizado"))
	}
	end := s.status.Begin()
	defer func() { end(err) }()

	if _, err := s.client.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   "/Comentario",
		Token:  token,
		Body: NewComment{
			WorkoutID: workoutID,
			UserID:    user.ID,
			Content:   strings.TrimSpace(content),
			Rating:    rating,
		},
		ErrorMessage: "Error al añadir comentario",
	}); err != nil {
		return err
	}

	comments, err := s.fetch(ctx, workoutID)
	s.mu.Lock()
	s.workoutID = workoutID
	s.comments = comments
	s.mu.Unlock()
	return err
}

// Update changes the content and/or rating of a comment. At least one of the
// two must be set.
func (s *Store) Update(ctx context.Context, id int, update CommentUpdate) (err error) {
	ctx, finish := tracing.StartSpan(ctx, "comments.update")
	defer finish(&err)

	if update.Content == nil && update.Rating == nil {
		return s.status.Fail(apperrors.Validation("No hay cambios que guardar"))
	}
	if err := validate(update.Content, update.Rating); err != nil {
		return s.status.Fail(err)
	}
	if update.Content != nil {
		content := strings.TrimSpace(*update.Content)
		update.Content = &content
	}
	token, err := s.session.RequireToken()
	if err != nil {
		return s.status.Fail(err)
	}
	end := s.status.Begin()
	defer func() { end(err) }()

	if _, err := s.client.Do(ctx, apiclient.Request{
		Method:       http.MethodPut,
		Path:         fmt.Sprintf("/Comentario/%d", id),
		Token:        token,
		Body:         update,
		ErrorMessage: "Error al actualizar comentario",
	}); err != nil {
		return err
	}

	s.mu.Lock()
	for i := range s.comments {
		if s.comments[i].ID != id {
			continue
		}
		if update.Content != nil {
			s.comments[i].Content = *update.Content
		}
		if update.Rating != nil {
			s.comments[i].Rating = *update.Rating
		}
	}
	s.mu.Unlock()
	return nil
}

func (s *Store) Delete(ctx context.Context, id int) (err error) {
	ctx, finish := tracing.StartSpan(ctx, "comments.delete")
	defer finish(&err)

	if id <= 0 {
		return s.status.Fail(apperrors.Validation("ID de comentario inválido"))
	}
	token, err := s.session.RequireToken()
	if err != nil {
		return s.status.Fail(err)
	}
	end := s.status.Begin()
	defer func() { end(err) }()

	if _, err := s.client.Do(ctx, apiclient.Request{
		Method: http.MethodDelete,
		Path:   fmt.Sprintf("/Comentario/%d", id),
		Token:  token,
	}); err != nil {
		return apperrors.WithFallbackMessage(err, fmt.Sprintf("Error al eliminar comentario (%d)", apperrors.StatusOf(err)))
	}

	s.mu.Lock()
	kept := make([]Comment, 0, len(s.comments))
	for _, c := range s.comments {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.comments = kept
	s.mu.Unlock()
	return nil
}

// Cached returns the comments of the last workout loaded.
func (s *Store) Cached() (workoutID int, comments []Comment) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.workoutID, append([]Comment(nil), s.comments...)
}

// AverageRating of the cached comments, 0 when there are none.
func (s *Store) AverageRating() float64 {
	_, comments := s.Cached()
	if len(comments) == 0 {
		return 0
	}
	total := 0
	for _, c := range comments {
		total += c.Rating
	}
	return float64(total) / float64(len(comments))
}

// Reset drops the cached comments and the authors resolved for them.
func (s *Store) Reset() {
	s.mu.Lock()
	s.workoutID = 0
	s.comments = nil
	s.mu.Unlock()
	s.status.ClearError()
}

func (s *Store) Loading() bool { return s.status.Loading() }
func (s *Store) Error() string { return s.status.Error() }

func validate(content *string, rating *int) error {
	if content != nil && strings.TrimSpace(*content) == "" {
		return apperrors.Validation("El comentario no puede estar vacío")
	}
	if rating != nil && (*rating < MinRating || *rating > MaxRating) {
		return apperrors.Validation(fmt.Sprintf("La calificación debe estar entre %d y %d", MinRating, MaxRating))
	}
	return nil
}
