package session

import (
	"github.com/2beens/gymclient/internal/apiclient"
)

type AuthMethod string

const (
	AuthCredentials AuthMethod = "credentials"
	AuthGoogle      AuthMethod = "google"
	// written by older clients, read as google
	authGoogleLegacy AuthMethod = "oauth-google"
)

type State string

const (
	StateAnonymous      State = "anonymous"
	StateAuthenticating State = "authenticating"
	StateAuthenticated  State = "authenticated"
	// StateExpired is entered at start when the stored JWT is past its exp.
	StateExpired State = "expired"
)

type User struct {
	ID               int            `json:"usuarioID"`
	Name             string         `json:"nombre"`
	Surname          string         `json:"apellido"`
	Email            string         `json:"email"`
	RegistrationDate apiclient.Date `json:"fechaRegistro"`
	Active           bool           `json:"estaActivo"`
	Admin            bool           `json:"esAdmin"`
	Age              *int           `json:"edad,omitempty"`
	Weight           *float64       `json:"peso,omitempty"`
	Height           *float64       `json:"altura,omitempty"`
	PhotoURL         *string        `json:"fotoPerfilURL"`
}

func (u *User) FullName() string {
	if u.Surname == "" {
		return u.Name
	}
	return u.Name + " " + u.Surname
}

func (u *User) clone() *User {
	if u == nil {
		return nil
	}
	cp := *u
	if u.Age != nil {
		age := *u.Age
		cp.Age = &age
	}
	if u.Weight != nil {
		weight := *u.Weight
		cp.Weight = &weight
	}
	if u.Height != nil {
		height := *u.Height
		cp.Height = &height
	}
	if u.PhotoURL != nil {
		photoURL := *u.PhotoURL
		cp.PhotoURL = &photoURL
	}
	return &cp
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterData struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"nombre"`
	Surname  string `json:"apellido"`
}

// ProfileUpdate holds the fields to change; nil and empty fields are left
// untouched.
type ProfileUpdate struct {
	Name            *string  `json:"nombre,omitempty"`
	Surname         *string  `json:"apellido,omitempty"`
	Email           *string  `json:"email,omitempty"`
	Age             *int     `json:"edad,omitempty"`
	Weight          *float64 `json:"peso,omitempty"`
	Height          *float64 `json:"altura,omitempty"`
	CurrentPassword string   `json:"currentPassword,omitempty"`
	NewPassword     string   `json:"newPassword,omitempty"`
}

func (p ProfileUpdate) changesPassword() bool {
	return p.CurrentPassword != "" || p.NewPassword != ""
}

type PhotoFile struct {
	Name string
	// ContentType is guessed from Name when empty.
	ContentType string
	Data        []byte
}

type ResetPasswordData struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type LoginResult struct {
	User    *User
	IsAdmin bool
}

// authPayload covers {user, token}, with or without a data envelope.
type authPayload struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}
