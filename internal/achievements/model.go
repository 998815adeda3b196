package achievements

import (
	"github.com/2beens/gymclient/internal/apiclient"
)

// Achievement is a catalog entry.
type Achievement struct {
	ID              int    `json:"logroID"`
	Name            string `json:"nombre"`
	Description     string `json:"descripcion"`
	Icon            string `json:"icono"`
	Color           string `json:"color"`
	ExperienceValue int    `json:"experiencia"`
	Category        string `json:"categoria"`
	TargetValue     int    `json:"valorMeta"`
	IsSecret        bool   `json:"secreto"`
}

// UserAchievement is a catalog entry with the user's progress on it.
type UserAchievement struct {
	Achievement
	IsUnlocked      bool            `json:"desbloqueado"`
	UnlockedDate    *apiclient.Date `json:"fechaDesbloqueo,omitempty"`
	CurrentProgress int             `json:"progresoActual"`
}

// CategoryGroup holds the achievements of one category in fetch order.
type CategoryGroup struct {
	Category     string
	Achievements []UserAchievement
}
