package rank

// Band is one entry of the static rank catalog; a user falls in the band
// whose [MinDays, MaxDays] range holds their distinct training days this week.
type Band struct {
	ID          int
	Name        string
	Description string
	Icon        string
	Color       string
	MinDays     int
	MaxDays     int
}

var catalog = []Band{
	{
		ID:          1,
		Name:        "Principiante",
		Description: "Estás empezando tu camino fitness. ¡El primer paso es el más importante!",
		Icon:        "mdi-run",
		Color:       "#9E9E9E",
		MinDays:     0,
		MaxDays:     1,
	},
	{
		ID:          2,
		Name:        "Constante",
		Description: "Empiezas a crear un hábito saludable entrenando regularmente.",
		Icon:        "mdi-trending-up",
		Color:       "#8BC34A",
		MinDays:     2,
		MaxDays:     2,
	},
	{
		ID:          3,
		Name:        "Comprometido",
		Description: "Tu compromiso con el entrenamiento es evidente. ¡Sigue así!",
		Icon:        "mdi-arm-flex",
		Color:       "#4CAF50",
		MinDays:     3,
		MaxDays:     3,
	},
	{
		ID:          4,
		Name:        "Dedicado",
		Description: "Entrenas más de la mitad de la semana. ¡Tu dedicación es admirable!",
		Icon:        "mdi-weight-lifter",
		Color:       "#2196F3",
		MinDays:     4,
		MaxDays:     4,
	},
	{
		ID:          5,
		Name:        "Disciplinado",
		Description: "5 días a la semana. ¡Tu disciplina está construyendo resultados increíbles!",
		Icon:        "mdi-medal",
		Color:       "#FF9800",
		MinDays:     5,
		MaxDays:     5,
	},
	{
		ID:          6,
		Name:        "Atleta",
		Description: "Entrenas casi todos los días. ¡Eres un verdadero atleta!",
		Icon:        "mdi-trophy",
		Color:       "#F44336",
		MinDays:     6,
		MaxDays:     6,
	},
	{
		ID:          7,
		Name:        "Élite",
		Description: "¡Entrenas todos los días! Tu dedicación te coloca en la élite fitness.",
		Icon:        "mdi-crown",
		Color:       "#E91E63",
		MinDays:     7,
		MaxDays:     7,
	},
}

// Catalog returns a copy of the built-in bands, lowest first.
func Catalog() []Band {
	out := make([]Band, len(catalog))
	copy(out, catalog)
	return out
}

func ByID(id int) (Band, bool) {
	for _, b := range catalog {
		if b.ID == id {
			return b, true
		}
	}
	return Band{}, false
}
