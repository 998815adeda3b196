package measurements

import (
	"github.com/2beens/gymclient/internal/apiclient"
)

type Measurement struct {
	ID                 int            `json:"medicionID"`
	UserID             int            `json:"usuarioID"`
	Date               apiclient.Date `json:"fecha"`
	Weight             *float64       `json:"peso,omitempty"`
	Height             *float64       `json:"altura,omitempty"`
	BMI                *float64       `json:"imc,omitempty"`
	BodyFatPercent     *float64       `json:"porcentajeGrasa,omitempty"`
	ArmCircumference   *float64       `json:"circunferenciaBrazo,omitempty"`
	ChestCircumference *float64       `json:"circunferenciaPecho,omitempty"`
	WaistCircumference *float64       `json:"circunferenciaCintura,omitempty"`
	ThighCircumference *float64       `json:"circunferenciaMuslo,omitempty"`
	Notes              string         `json:"notas,omitempty"`
}

// Values are the measured fields shared by create and update.
type Values struct {
	Date               *apiclient.Date `json:"fecha,omitempty"`
	Weight             *float64        `json:"peso,omitempty"`
	Height             *float64        `json:"altura,omitempty"`
	BodyFatPercent     *float64        `json:"porcentajeGrasa,omitempty"`
	ArmCircumference   *float64        `json:"circunferenciaBrazo,omitempty"`
	ChestCircumference *float64        `json:"circunferenciaPecho,omitempty"`
	WaistCircumference *float64        `json:"circunferenciaCintura,omitempty"`
	ThighCircumference *float64        `json:"circunferenciaMuslo,omitempty"`
	Notes              string          `json:"notas,omitempty"`
}

type createRequest struct {
	UserID int `json:"usuarioID"`
	Values
}

// MonthlySummary holds the averages of one calendar month.
type MonthlySummary struct {
	Year       int      `json:"anio"`
	Month      int      `json:"mes"`
	AvgWeight  *float64 `json:"pesoPromedio,omitempty"`
	AvgBMI     *float64 `json:"imcPromedio,omitempty"`
	AvgBodyFat *float64 `json:"grasaPromedio,omitempty"`
	AvgWaist   *float64 `json:"cinturaPromedio,omitempty"`
}

// ComputeBMI returns weight / height^2 with height in centimeters, or nil
// when either is missing or not positive.
func ComputeBMI(weightKg, heightCm *float64) *float64 {
	if weightKg == nil || heightCm == nil || *weightKg <= 0 || *heightCm <= 0 {
		return nil
	}
	meters := *heightCm / 100
	bmi := *weightKg / (meters * meters)
	return &bmi
}
