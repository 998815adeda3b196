package admin

import (
	"github.com/2beens/gymclient/internal/apiclient"
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
	PhotoURL         *string        `json:"fotoPerfilURL,omitempty"`
}

// UserInput is sent on create and update; nil fields are left out.
type UserInput struct {
	Name     *string  `json:"nombre,omitempty"`
	Surname  *string  `json:"apellido,omitempty"`
	Email    *string  `json:"email,omitempty"`
	Password *string  `json:"password,omitempty"`
	Admin    *bool    `json:"esAdmin,omitempty"`
	Active   *bool    `json:"estaActivo,omitempty"`
	Age      *int     `json:"edad,omitempty"`
	Weight   *float64 `json:"peso,omitempty"`
	Height   *float64 `json:"altura,omitempty"`
}

type Workout struct {
	ID              int            `json:"entrenamientoID"`
	Title           string         `json:"titulo"`
	Description     string         `json:"descripcion"`
	DurationMinutes int            `json:"duracionMinutos"`
	Difficulty      string         `json:"dificultad"`
	ImageURL        string         `json:"imagenURL,omitempty"`
	CreatedAt       apiclient.Date `json:"fechaCreacion"`
	Public          bool           `json:"publico"`
	AuthorID        *int           `json:"autorID,omitempty"`
}

type WorkoutInput struct {
	Title           *string `json:"titulo,omitempty"`
	Description     *string `json:"descripcion,omitempty"`
	DurationMinutes *int    `json:"duracionMinutos,omitempty"`
	Difficulty      *string `json:"dificultad,omitempty"`
	ImageURL        *string `json:"imagenURL,omitempty"`
	Public          *bool   `json:"publico,omitempty"`
	AuthorID        *int    `json:"autorID,omitempty"`
}

type Exercise struct {
	ID                int    `json:"ejercicioID"`
	Name              string `json:"nombre"`
	Description       string `json:"descripcion,omitempty"`
	MuscleGroup       string `json:"grupoMuscular,omitempty"`
	ImageURL          string `json:"imagenURL,omitempty"`
	VideoURL          string `json:"videoURL,omitempty"`
	EquipmentRequired bool   `json:"equipamientoNecesario"`
}

type ExerciseInput struct {
	Name              *string `json:"nombre,omitempty"`
	Description       *string `json:"descripcion,omitempty"`
	MuscleGroup       *string `json:"grupoMuscular,omitempty"`
	ImageURL          *string `json:"imagenURL,omitempty"`
	VideoURL          *string `json:"videoURL,omitempty"`
	EquipmentRequired *bool   `json:"equipamientoNecesario,omitempty"`
}

type Stats struct {
	TotalUsers           int `json:"totalUsuarios"`
	ActiveUsers          int `json:"usuariosActivos"`
	TotalAdmins          int `json:"totalAdministradores"`
	TotalExercises       int `json:"totalEjercicios"`
	TotalWorkouts        int `json:"totalEntrenamientos"`
	PublicWorkouts       int `json:"entrenamientosPublicos"`
	UsersRegisteredToday int `json:"usuariosRegistradosHoy"`
	UsersRegisteredMonth int `json:"usuariosRegistradosEsteMes"`
}
