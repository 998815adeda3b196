// Package measurements tracks the user's body measurements.
package measurements

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/2beens/gymclient/internal/apiclient"
	"github.com/2beens/gymclient/internal/apperrors"
	"github.com/2beens/gymclient/internal/session"
	"github.com/2beens/gymclient/internal/store"
	"github.com/2beens/gymclient/internal/telemetry/tracing"
)

type Store struct {
	client  *apiclient.Client
	session *session.Store
	status  store.Status

	mu           sync.RWMutex
	measurements []Measurement
	summary      []MonthlySummary
}

func NewStore(client *apiclient.Client, sessionStore *session.Store) *Store {
	s := &Store{
		client:  client,
		session: sessionStore,
	}
	if sessionStore != nil {
		sessionStore.OnIdentityChange(s.Reset)
	}
	return s
}

func (s *Store) List(ctx context.Context) (_ []Measurement, err error) {
	ctx, finish := tracing.StartSpan(ctx, "measurements.list")
	defer finish(&err)

	token, err := s.session.RequireToken()
	if err != nil {
		return nil, s.status.Fail(err)
	}
	end := s.status.Begin()
	defer func() { end(err) }()

	var list []Measurement
	if err := s.client.DoJSON(ctx, apiclient.Request{
		Method:       http.MethodGet,
		Path:         "/Medicion",
		Token:        token,
		ErrorMessage: "Error al cargar mediciones",
	}, &list); err != nil {
		s.mu.Lock()
		s.measurements = nil
		s.mu.Unlock()
		return nil, err
	}
	for i := range list {
		fillBMI(&list[i])
	}

	s.mu.Lock()
	s.measurements = list
	s.mu.Unlock()
	return append([]Measurement(nil), list...), nil
}

// Summary returns monthly averages, used for progress charts.
func (s *Store) Summary(ctx context.Context) (_ []MonthlySummary, err error) {
	ctx, finish := tracing.StartSpan(ctx, "measurements.summary")
	defer finish(&err)

	token, err := s.session.RequireToken()
	if err != nil {
		return nil, s.status.Fail(err)
	}
	end := s.status.Begin()
	defer func() { end(err) }()

	var summary []MonthlySummary
	if err := s.client.DoJSON(ctx, apiclient.Request{
		Method:       http.MethodGet,
		Path:         "/Medicion/Resumen",
		Token:        token,
		NoCache:      true,
		ErrorMessage: "Error al cargar resumen de mediciones",
	}, &summary); err != nil {
		s.mu.Lock()
		s.summary = nil
		s.mu.Unlock()
		return nil, err
	}

	s.mu.Lock()
	s.summary = summary
	s.mu.Unlock()
	return append([]MonthlySummary(nil), summary...), nil
}

func (s *Store) Get(ctx context.Context, id int) (_ *Measurement, err error) {
	ctx, finish := tracing.StartSpan(ctx, "measurements.get")
	defer finish(&err)

	token, err := s.session.RequireToken()
	if err != nil {
		return nil, s.status.Fail(err)
	}
	end := s.status.Begin()
	defer func() { end(err) }()

	var m Measurement
	if err := s.client.DoJSON(ctx, apiclient.Request{
		Method:       http.MethodGet,
		Path:         fmt.Sprintf("/Medicion/%d", id),
		Token:        token,
		ErrorMessage: "Error al cargar medición",
	}, &m); err != nil {
		return nil, err
	}
	fillBMI(&m)
	return &m, nil
}

// Create records a measurement for the session user; the new entry goes
// first in the cached list.
func (s *Store) Create(ctx context.Context, values Values) (_ *Measurement, err error) {
	ctx, finish := tracing.StartSpan(ctx, "measurements.create")
	defer finish(&err)

	if err := validate(values); err != nil {
		return nil, s.status.Fail(err)
	}
	token, err := s.session.RequireToken()
	if err != nil {
		return nil, s.status.Fail(err)
	}
	user := s.session.User()
	if user == nil {
		return nil, s.status.Fail(apperrors.Authentication("No autorizado"))
	}
	end := s.status.Begin()
	defer func() { end(err) }()

	var created Measurement
	if err := s.client.DoJSON(ctx, apiclient.Request{
		Method:       http.MethodPost,
		Path:         "/Medicion",
		Token:        token,
		Body:         createRequest{UserID: user.ID, Values: values},
		ErrorMessage: "Error al crear medición",
	}, &created); err != nil {
		return nil, err
	}
	fillBMI(&created)

	s.mu.Lock()
	s.measurements = append([]Measurement{created}, s.measurements...)
	s.summary = nil
	s.mu.Unlock()
	return &created, nil
}

func (s *Store) Update(ctx context.Context, id int, values Values) (_ *Measurement, err error) {
	ctx, finish := tracing.StartSpan(ctx, "measurements.update")
	defer finish(&err)

	if err := validate(values); err != nil {
		return nil, s.status.Fail(err)
	}
	token, err := s.session.RequireToken()
	if err != nil {
		return nil, s.status.Fail(err)
	}
	end := s.status.Begin()
	defer func() { end(err) }()

	var updated Measurement
	if err := s.client.DoJSON(ctx, apiclient.Request{
		Method:       http.MethodPut,
		Path:         fmt.Sprintf("/Medicion/%d", id),
		Token:        token,
		Body:         values,
		ErrorMessage: "Error al actualizar medición",
	}, &updated); err != nil {
		return nil, err
	}
	fillBMI(&updated)

	s.mu.Lock()
	for i := range s.measurements {
		if s.measurements[i].ID == id {
			s.measurements[i] = updated
		}
	}
	s.summary = nil
	s.mu.Unlock()
	return &updated, nil
}

func (s *Store) Delete(ctx context.Context, id int) (err error) {
	ctx, finish := tracing.StartSpan(ctx, "measurements.delete")
	defer finish(&err)

	token, err := s.session.RequireToken()
	if err != nil {
		return s.status.Fail(err)
	}
	end := s.status.Begin()
	defer func() { end(err) }()

	if _, err := s.client.Do(ctx, apiclient.Request{
		Method:       http.MethodDelete,
		Path:         fmt.Sprintf("/Medicion/%d", id),
		Token:        token,
		ErrorMessage: "Error al eliminar medición",
	}); err != nil {
		return err
	}

	s.mu.Lock()
	kept := make([]Measurement, 0, len(s.measurements))
	for _, m := range s.measurements {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	s.measurements = kept
	s.summary = nil
	s.mu.Unlock()
	return nil
}

func (s *Store) Cached() []Measurement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Measurement(nil), s.measurements...)
}

func (s *Store) CachedSummary() []MonthlySummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]MonthlySummary(nil), s.summary...)
}

func (s *Store) Reset() {
	s.mu.Lock()
	s.measurements = nil
	s.summary = nil
	s.mu.Unlock()
	s.status.ClearError()
}

func (s *Store) Loading() bool { return s.status.Loading() }
func (s *Store) Error() string { return s.status.Error() }

func fillBMI(m *Measurement) {
	if m.BMI == nil {
		m.BMI = ComputeBMI(m.Weight, m.Height)
	}
}

func validate(v Values) error {
	fields := []*float64{
		v.Weight, v.Height, v.BodyFatPercent,
		v.ArmCircumference, v.ChestCircumference, v.WaistCircumference, v.ThighCircumference,
	}
	set := 0
	for _, f := range fields {
		if f == nil {
			continue
		}
		if *f <= 0 {
			return apperrors.Validation("Las medidas deben ser valores positivos")
		}
		set++
	}
	if set == 0 {
		return apperrors.Validation("Introduce al menos una medida")
	}
	if v.BodyFatPercent != nil && *v.BodyFatPercent >= 100 {
		return apperrors.Validation("El porcentaje de grasa debe ser menor que 100")
	}
	return nil
}
