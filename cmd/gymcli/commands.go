package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/2beens/gymclient/internal/achievements"
	"github.com/2beens/gymclient/internal/app"
	"github.com/2beens/gymclient/internal/apperrors"
	"github.com/2beens/gymclient/internal/session"
	"github.com/2beens/gymclient/internal/storage"

	log "github.com/sirupsen/logrus"
)

var errUsage = errors.New("usage")

// promptFunc reads a secret from the user; label is shown first.
type promptFunc func(label string) (string, error)

type cli struct {
	app    *app.App
	out    io.Writer
	prompt promptFunc
}

type command struct {
	usage string
	run   func(ctx context.Context, c *cli, args []string) error
}

var commands = map[string]command{
	"login":          {"login <email> [-remember]", cmdLogin},
	"google-login":   {"google-login <idToken>", cmdGoogleLogin},
	"register":       {"register <email> <nombre> <apellido>", cmdRegister},
	"logout":         {"logout", cmdLogout},
	"whoami":         {"whoami", cmdWhoami},
	"password-reset": {"password-reset <email>", cmdPasswordReset},
	"rank":           {"rank", cmdRank},
	"achievements":   {"achievements [recent N|available|verify]", cmdAchievements},
	"workouts":       {"workouts", cmdWorkouts},
	"exercises":      {"exercises", cmdExercises},
	"routines":       {"routines [summary]", cmdRoutines},
	"measurements":   {"measurements", cmdMeasurements},
	"photo":          {"photo <file> | photo -remove", cmdPhoto},
	"admin":          {"admin stats", cmdAdmin},
}

func usage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(w, "usage: gymcli [-env dev] [-config ./config.toml] <command> [args]")
	fmt.Fprintln(w, "commands:")
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", commands[name].usage)
	}
}

// run restores the stored session and executes one command.
func (c *cli) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return errUsage
	}

	c.app.Session.Init(ctx)

	err := cmd.run(ctx, c, args[1:])
	if errors.Is(err, errUsage) {
		return fmt.Errorf("%w: gymcli %s", errUsage, cmd.usage)
	}
	return err
}

func cmdLogin(ctx context.Context, c *cli, args []string) error {
	var (
		email    string
		remember bool
	)
	for _, arg := range args {
		switch arg {
		case "-remember", "--remember":
			remember = true
		default:
			email = arg
		}
	}
	if email == "" {
		return errUsage
	}
	password, err := c.prompt("Contraseña: ")
	if err != nil {
		return err
	}

	res, err := c.app.Session.Login(ctx, session.Credentials{Email: email, Password: password}, remember)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Bienvenido, %s\n", res.User.FullName())
	if res.IsAdmin {
		fmt.Fprintln(c.out, "Sesión de administrador")
	}
	c.warnIfNotKept()
	return nil
}

func cmdGoogleLogin(ctx context.Context, c *cli, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	res, err := c.app.Session.OAuthLogin(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Bienvenido, %s (Google)\n", res.User.FullName())
	c.warnIfNotKept()
	return nil
}

func cmdRegister(ctx context.Context, c *cli, args []string) error {
	if len(args) != 3 {
		return errUsage
	}
	password, err := c.prompt("Contraseña: ")
	if err != nil {
		return err
	}
	res, err := c.app.Session.Register(ctx, session.RegisterData{
		Email:    args[0],
		Name:     args[1],
		Surname:  args[2],
		Password: password,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Cuenta creada para %s\n", res.User.Email)
	c.warnIfNotKept()
	return nil
}

// warnIfNotKept tells the user when the new session ends with this process,
// i.e. it only lives in the in-memory tier.
func (c *cli) warnIfNotKept() {
	if c.app.Session.ActiveTier() == storage.MemoryTierName {
		log.Warnln("la sesión no se conservará al terminar el comando")
	}
}

func cmdLogout(_ context.Context, c *cli, _ []string) error {
	c.app.Session.Logout()
	fmt.Fprintln(c.out, "Sesión cerrada")
	return nil
}

func cmdWhoami(_ context.Context, c *cli, _ []string) error {
	user := c.app.Session.User()
	if user == nil {
		if c.app.Session.State() == session.StateExpired {
			fmt.Fprintln(c.out, "La sesión ha expirado")
			return nil
		}
		fmt.Fprintln(c.out, "No hay sesión iniciada")
		return nil
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Usuario:\t%s (#%d)\n", user.FullName(), user.ID)
	fmt.Fprintf(tw, "Email:\t%s\n", user.Email)
	fmt.Fprintf(tw, "Administrador:\t%t\n", user.Admin)
	method := "credenciales"
	if c.app.Session.IsOAuthLinked() {
		method = "Google"
	}
	fmt.Fprintf(tw, "Acceso:\t%s\n", method)
	fmt.Fprintf(tw, "Almacenada en:\t%s\n", c.app.Session.ActiveTier())
	return tw.Flush()
}

func cmdPasswordReset(ctx context.Context, c *cli, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	message, err := c.app.Session.RequestPasswordReset(ctx, args[0])
	if err != nil {
		return err
	}
	if message == "" {
		message = "Revisa tu correo para continuar"
	}
	fmt.Fprintln(c.out, message)
	return nil
}

func cmdRank(ctx context.Context, c *cli, _ []string) error {
	r, err := c.app.Rank.Rank(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s %s\n", r.Icon, r.RankName)
	fmt.Fprintf(c.out, "Días entrenados esta semana (semana %d): %d\n", r.CurrentWeekNumber, r.DistinctDaysThisWeek)
	if r.DaysToNextRank > 0 {
		fmt.Fprintf(c.out, "Faltan %d días para el siguiente rango (%.0f%%)\n", r.DaysToNextRank, r.ProgressPercentToNext)
	} else {
		fmt.Fprintln(c.out, "Rango máximo alcanzado")
	}
	return nil
}

func cmdAchievements(ctx context.Context, c *cli, args []string) error {
	tracker := c.app.Achievements
	sub := ""
	if len(args) > 0 {
		sub = args[0]
	}

	switch sub {
	case "":
		list, err := tracker.FetchUserAchievements(ctx)
		if err != nil {
			return err
		}
		for _, group := range achievements.GroupByCategory(list) {
			fmt.Fprintf(c.out, "%s\n", group.Category)
			for _, a := range group.Achievements {
				mark := " "
				if a.IsUnlocked {
					mark = "x"
				}
				fmt.Fprintf(c.out, "  [%s] %s (%d/%d, %d XP)\n", mark, a.Name, a.CurrentProgress, a.TargetValue, a.ExperienceValue)
			}
		}
		fmt.Fprintf(c.out, "Experiencia: %d XP, completado %d%%\n",
			achievements.TotalExperience(list), achievements.CompletionPercentage(list))
	case "recent":
		count := 0
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n <= 0 {
				return errUsage
			}
			count = n
		}
		list, err := tracker.FetchRecent(ctx, count)
		if err != nil {
			return err
		}
		for _, a := range list {
			date := ""
			if a.UnlockedDate != nil && !a.UnlockedDate.IsZero() {
				date = a.UnlockedDate.Format("2006-01-02")
			}
			fmt.Fprintf(c.out, "%s %s %s\n", date, a.Icon, a.Name)
		}
	case "available":
		list, err := tracker.FetchAvailable(ctx)
		if err != nil {
			return err
		}
		for _, a := range list {
			if a.IsSecret {
				fmt.Fprintf(c.out, "??? (%s)\n", a.Category)
				continue
			}
			fmt.Fprintf(c.out, "%s: %s\n", a.Name, a.Description)
		}
	case "verify":
		if err := tracker.VerifyAchievements(ctx); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Logros verificados, %d desbloqueados recientemente\n", len(tracker.Recent()))
	default:
		return errUsage
	}
	return nil
}

func cmdWorkouts(ctx context.Context, c *cli, _ []string) error {
	list, err := c.app.Workouts.List(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTÍTULO\tDIFICULTAD\tMINUTOS\tEJERCICIOS")
	for _, w := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\n", w.ID, w.Title, w.Difficulty, w.DurationMinutes, len(w.Exercises))
	}
	return tw.Flush()
}

func cmdExercises(ctx context.Context, c *cli, _ []string) error {
	if _, err := c.app.Exercises.List(ctx); err != nil {
		return err
	}
	groups := c.app.Exercises.ByMuscleGroup()
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(c.out, "%s\n", name)
		for _, ex := range groups[name] {
			fmt.Fprintf(c.out, "  #%d %s\n", ex.ID, ex.Name)
		}
	}
	return nil
}

func cmdRoutines(ctx context.Context, c *cli, args []string) error {
	if len(args) > 0 && args[0] == "summary" {
		s, err := c.app.Routines.Summary(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "Total:\t%d\n", s.Total)
		fmt.Fprintf(tw, "Última semana:\t%d\n", s.LastWeek)
		fmt.Fprintf(tw, "Último mes:\t%d\n", s.LastMonth)
		fmt.Fprintf(tw, "Esfuerzo medio:\t%.1f\n", s.AverageEffort)
		fmt.Fprintf(tw, "Calorías:\t%d\n", s.TotalCalories)
		fmt.Fprintf(tw, "Minutos:\t%d\n", s.TotalMinutes)
		if s.MostRepeatedWorkout != "" {
			fmt.Fprintf(tw, "Favorito:\t%s (%d veces)\n", s.MostRepeatedWorkout, s.MostRepeatedWorkoutRun)
		}
		return tw.Flush()
	}
	if len(args) > 0 {
		return errUsage
	}

	list, err := c.app.Routines.List(ctx)
	if err != nil {
		return err
	}
	for _, r := range list {
		fmt.Fprintf(c.out, "%s  %s\n", r.CompletedAt.Format("2006-01-02 15:04"), r.WorkoutName)
	}
	return nil
}

func cmdMeasurements(ctx context.Context, c *cli, _ []string) error {
	list, err := c.app.Measurements.List(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FECHA\tPESO\tIMC\tGRASA %")
	for _, m := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.Date.Format("2006-01-02"), num(m.Weight), num(m.BMI), num(m.BodyFatPercent))
	}
	return tw.Flush()
}

func cmdPhoto(ctx context.Context, c *cli, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	if args[0] == "-remove" {
		if err := c.app.Session.RemoveProfilePhoto(ctx); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "Foto de perfil eliminada")
		return nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return apperrors.Validation(fmt.Sprintf("No se pudo leer %s", args[0]))
	}
	photoURL, err := c.app.Session.UpdateProfilePhoto(ctx, session.PhotoFile{
		Name: filepath.Base(args[0]),
		Data: data,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, photoURL)
	return nil
}

func cmdAdmin(ctx context.Context, c *cli, args []string) error {
	if len(args) != 1 || args[0] != "stats" {
		return errUsage
	}
	s, err := c.app.Admin.Stats(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Usuarios:\t%d (%d activos, %d admins)\n", s.TotalUsers, s.ActiveUsers, s.TotalAdmins)
	fmt.Fprintf(tw, "Registrados hoy / este mes:\t%d / %d\n", s.UsersRegisteredToday, s.UsersRegisteredMonth)
	fmt.Fprintf(tw, "Entrenamientos:\t%d (%d públicos)\n", s.TotalWorkouts, s.PublicWorkouts)
	fmt.Fprintf(tw, "Ejercicios:\t%d\n", s.TotalExercises)
	return tw.Flush()
}

func num(v *float64) string {
	if v == nil {
		return "-"
	}
	return strings.TrimSuffix(strings.TrimRight(strconv.FormatFloat(*v, 'f', 1, 64), "0"), ".")
}
