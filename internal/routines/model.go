package routines

import (
	"github.com/2beens/gymclient/internal/apiclient"
)

type CompletedRoutine struct {
	ID                   int            `json:"rutinaCompletadaID"`
	UserID               int            `json:"usuarioID"`
	WorkoutID            int            `json:"entrenamientoID"`
	CompletedAt          apiclient.Date `json:"fechaCompletada"`
	Notes                string         `json:"notas,omitempty"`
	DurationMinutes      *int           `json:"duracionMinutos,omitempty"`
	EstimatedCalories    *int           `json:"caloriasEstimadas,omitempty"`
	PerceivedEffortLevel *int           `json:"nivelEsfuerzoPercibido,omitempty"`
	WorkoutName          string         `json:"nombreEntrenamiento,omitempty"`
	WorkoutDifficulty    string         `json:"dificultadEntrenamiento,omitempty"`
}

type CompleteRequest struct {
	WorkoutID            int             `json:"entrenamientoID"`
	CompletedAt          *apiclient.Date `json:"fechaCompletada,omitempty"`
	Notes                string          `json:"notas,omitempty"`
	DurationMinutes      *int            `json:"duracionMinutos,omitempty"`
	EstimatedCalories    *int            `json:"caloriasEstimadas,omitempty"`
	PerceivedEffortLevel *int            `json:"nivelEsfuerzoPercibido,omitempty"`
}

type UpdateRequest struct {
	CompletedAt          *apiclient.Date `json:"fechaCompletada,omitempty"`
	Notes                *string         `json:"notas,omitempty"`
	DurationMinutes      *int            `json:"duracionMinutos,omitempty"`
	EstimatedCalories    *int            `json:"caloriasEstimadas,omitempty"`
	PerceivedEffortLevel *int            `json:"nivelEsfuerzoPercibido,omitempty"`
}

// Summary is the per-user aggregate; LastWeek feeds the client-side rank.
type Summary struct {
	Total                  int     `json:"totalRutinasCompletadas"`
	LastWeek               int     `json:"rutinasUltimaSemana"`
	LastMonth              int     `json:"rutinasUltimoMes"`
	AverageEffort          float64 `json:"promedioEsfuerzo"`
	TotalCalories          int     `json:"caloriasTotales"`
	TotalMinutes           int     `json:"minutosTotales"`
	MostRepeatedWorkoutID  *int    `json:"entrenamientoIDMasRepetido,omitempty"`
	MostRepeatedWorkout    string  `json:"nombreEntrenamientoMasRepetido,omitempty"`
	MostRepeatedWorkoutRun int     `json:"vecesCompletado,omitempty"`
}
