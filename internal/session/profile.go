package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/2beens/gymclient/internal/apiclient"
	"github.com/2beens/gymclient/internal/apperrors"
	"github.com/2beens/gymclient/internal/telemetry/tracing"
)

const (
	MaxPhotoBytes = 5 * 1024 * 1024

	photoFieldName = "file"
)

var allowedPhotoTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// UpdateProfile sends the changed fields and merges the result into the
// current user. Accounts linked to Google cannot change email or password.
func (s *Store) UpdateProfile(ctx context.Context, update ProfileUpdate) (_ *User, err error) {
	ctx, finish := tracing.StartSpan(ctx, "session.update-profile")
	defer finish(&err)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	user, token, err := s.current()
	if err != nil {
		return nil, s.status.Fail(err)
	}
	if s.IsOAuthLinked() {
		if update.Email != nil {
			return nil, s.status.Fail(apperrors.Policy(
				"Las cuentas vinculadas a Google no pueden cambiar su correo electrónico directamente"))
		}
		if update.changesPassword() {
			return nil, s.status.Fail(apperrors.Policy(
				"Las cuentas vinculadas a Google no pueden cambiar su contraseña directamente"))
		}
	}

	end := s.status.Begin()
	defer func() { end(err) }()

	res, err := s.client.Do(ctx, apiclient.Request{
		Method:       http.MethodPut,
		Path:         fmt.Sprintf("/usuario/%d", user.ID),
		Token:        token,
		Body:         update,
		ErrorMessage: "Error al actualizar el perfil",
	})
	if err != nil {
		return nil, err
	}

	merged := mergeProfile(user, update, res.Data)
	s.replaceUser(ctx, merged)
	return merged.clone(), nil
}

// mergeProfile patches the supplied fields, then lets the user object echoed
// by the backend, if any, override them field by field.
func mergeProfile(user *User, update ProfileUpdate, echoed json.RawMessage) *User {
	merged := user.clone()
	if update.Name != nil {
		merged.Name = *update.Name
	}
	if update.Surname != nil {
		merged.Surname = *update.Surname
	}
	if update.Email != nil {
		merged.Email = *update.Email
	}
	if update.Age != nil {
		age := *update.Age
		merged.Age = &age
	}
	if update.Weight != nil {
		weight := *update.Weight
		merged.Weight = &weight
	}
	if update.Height != nil {
		height := *update.Height
		merged.Height = &height
	}

	if !bytes.HasPrefix(bytes.TrimSpace(echoed), []byte("{")) {
		return merged
	}
	withEcho := merged.clone()
	if err := json.Unmarshal(echoed, withEcho); err != nil || withEcho.ID != user.ID {
		// not a user object, or someone else's
		return merged
	}
	return withEcho
}

// UpdateProfilePhoto uploads a new profile photo and returns its URL.
func (s *Store) UpdateProfilePhoto(ctx context.Context, photo PhotoFile) (_ string, err error) {
	ctx, finish := tracing.StartSpan(ctx, "session.update-profile-photo")
	defer finish(&err)

	contentType, err := validatePhoto(photo)
	if err != nil {
		return "", s.status.Fail(err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	user, token, err := s.current()
	if err != nil {
		return "", s.status.Fail(err)
	}

	end := s.status.Begin()
	defer func() { end(err) }()

	res, err := s.client.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/usuario/%d/foto", user.ID),
		Token:  token,
		Upload: &apiclient.Upload{
			FieldName:   photoFieldName,
			FileName:    filepath.Base(photo.Name),
			ContentType: contentType,
			Content:     bytes.NewReader(photo.Data),
		},
		ErrorMessage: "Error al actualizar la foto de perfil",
	})
	if err != nil {
		return "", err
	}

	photoURL, err := decodePhotoURL(res)
	if err != nil {
		return "", apperrors.WithFallbackMessage(err, "Error al actualizar la foto de perfil")
	}

	updated := user.clone()
	updated.PhotoURL = &photoURL
	s.replaceUser(ctx, updated)
	return photoURL, nil
}

func (s *Store) RemoveProfilePhoto(ctx context.Context) (err error) {
	ctx, finish := tracing.StartSpan(ctx, "session.remove-profile-photo")
	defer finish(&err)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	user, token, err := s.current()
	if err != nil {
		return s.status.Fail(err)
	}

	end := s.status.Begin()
	defer func() { end(err) }()

	if _, err := s.client.Do(ctx, apiclient.Request{
		Method:       http.MethodDelete,
		Path:         fmt.Sprintf("/usuario/%d/foto", user.ID),
		Token:        token,
		ErrorMessage: "Error al eliminar la foto de perfil",
	}); err != nil {
		return err
	}

	updated := user.clone()
	updated.PhotoURL = nil
	s.replaceUser(ctx, updated)
	return nil
}

// FetchProfile reloads the current user from the backend.
func (s *Store) FetchProfile(ctx context.Context) (_ *User, err error) {
	ctx, finish := tracing.StartSpan(ctx, "session.fetch-profile")
	defer finish(&err)

	token, err := s.RequireToken()
	if err != nil {
		return nil, s.status.Fail(err)
	}

	end := s.status.Begin()
	defer func() { end(err) }()

	var user User
	if err := s.client.DoJSON(ctx, apiclient.Request{
		Method:       http.MethodGet,
		Path:         "/usuario/profile",
		Token:        token,
		NoCache:      true,
		ErrorMessage: "Error al obtener el perfil",
	}, &user); err != nil {
		return nil, err
	}

	s.replaceUser(ctx, &user)
	return user.clone(), nil
}

// current returns a copy of the user and the token, or an authentication
// error when there is no session.
func (s *Store) current() (*User, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" || s.user == nil {
		return nil, "", apperrors.Authentication(notAuthorizedMessage)
	}
	return s.user.clone(), s.token, nil
}

// replaceUser swaps the in-memory user unless the session ended meanwhile.
func (s *Store) replaceUser(ctx context.Context, user *User) {
	s.mu.Lock()
	if s.token == "" {
		s.mu.Unlock()
		return
	}
	s.user = user.clone()
	s.mu.Unlock()

	s.persistUser(ctx, user)
}

func validatePhoto(photo PhotoFile) (string, error) {
	if len(photo.Data) == 0 {
		return "", apperrors.Validation("Selecciona una imagen")
	}
	if len(photo.Data) > MaxPhotoBytes {
		return "", apperrors.Validation("La imagen no puede superar los 5 MB")
	}

	contentType := photo.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(photo.Name)))
	}
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = mediaType
	}
	if !allowedPhotoTypes[contentType] {
		return "", apperrors.Validation("Formato de imagen no permitido. Usa JPG, PNG, GIF o WEBP")
	}
	return contentType, nil
}

// decodePhotoURL accepts the URL as the payload itself or as a field of it.
func decodePhotoURL(res *apiclient.Result) (string, error) {
	var photoURL string
	if err := res.Decode(&photoURL); err == nil && photoURL != "" {
		return photoURL, nil
	}

	var obj struct {
		PhotoURL string `json:"fotoPerfilURL"`
		URL      string `json:"url"`
	}
	if err := res.Decode(&obj); err != nil {
		return "", err
	}
	if obj.PhotoURL != "" {
		return obj.PhotoURL, nil
	}
	if obj.URL != "" {
		return obj.URL, nil
	}
	return "", apperrors.New(apperrors.ErrRemote, "")
}
