package comments

import (
	"github.com/2beens/gymclient/internal/apiclient"
)

const (
	MinRating = 1
	MaxRating = 5

	unknownAuthorName = "Usuario"
)

type Comment struct {
	ID        int            `json:"comentarioID"`
	WorkoutID int            `json:"entrenamientoID"`
	UserID    *int           `json:"usuarioID"`
	Content   string         `json:"contenido"`
	Rating    int            `json:"calificacion"`
	CreatedAt apiclient.Date `json:"fechaComentario"`
	Author    *Author        `json:"usuario,omitempty"`
}

type Author struct {
	Name    string `json:"nombre"`
	Surname string `json:"apellido"`
	Email   string `json:"email,omitempty"`
}

func (a Author) FullName() string {
	if a.Surname == "" {
		return a.Name
	}
	return a.Name + " " + a.Surname
}

type NewComment struct {
	WorkoutID int    `json:"entrenamientoID"`
	UserID    int    `json:"usuarioID"`
	Content   string `json:"contenido"`
	Rating    int    `json:"calificacion"`
}

type CommentUpdate struct {
	Content *string `json:"contenido,omitempty"`
	Rating  *int    `json:"calificacion,omitempty"`
}
