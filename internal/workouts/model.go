package workouts

import (
	"github.com/2beens/gymclient/internal/apiclient"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "Fácil"
	DifficultyMedium Difficulty = "Media"
	DifficultyHard   Difficulty = "Difícil"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

type Workout struct {
	ID              int               `json:"entrenamientoID"`
	Title           string            `json:"titulo"`
	Description     string            `json:"descripcion,omitempty"`
	DurationMinutes int               `json:"duracionMinutos"`
	Difficulty      Difficulty        `json:"dificultad"`
	CreatedAt       apiclient.Date    `json:"fechaCreacion"`
	Public          bool              `json:"publico"`
	AuthorID        *int              `json:"autorID,omitempty"`
	Exercises       []WorkoutExercise `json:"ejercicios,omitempty"`
}

// WorkoutExercise is an exercise as prescribed inside a workout.
type WorkoutExercise struct {
	ExerciseID  int    `json:"ejercicioID"`
	Name        string `json:"nombre"`
	Description string `json:"descripcion,omitempty"`
	Sets        int    `json:"series"`
	Reps        int    `json:"repeticiones"`
	RestSeconds int    `json:"descansoSegundos"`
	Notes       string `json:"notas,omitempty"`
}

type CreateRequest struct {
	Title           string              `json:"titulo"`
	Description     string              `json:"descripcion,omitempty"`
	DurationMinutes int                 `json:"duracionMinutos"`
	Difficulty      Difficulty          `json:"dificultad"`
	Public          bool                `json:"publico"`
	Exercises       []ExercisePrescript `json:"ejercicios"`
}

type ExercisePrescript struct {
	ExerciseID  int    `json:"ejercicioID"`
	Sets        int    `json:"series"`
	Reps        int    `json:"repeticiones"`
	RestSeconds int    `json:"descansoSegundos"`
	Notes       string `json:"notas,omitempty"`
}
