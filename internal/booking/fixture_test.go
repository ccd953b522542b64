package booking

import (
	"context"
	"database/sql"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"hospital-app-server/internal/clock"
	"hospital-app-server/internal/models"
	"hospital-app-server/internal/scheduling"
	"hospital-app-server/internal/testutil"
)

// Thursday 2026-10-15, 10:00 UTC.
var testNow = time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)

type fixture struct {
	db        *gorm.DB
	store     *scheduling.Store
	ledger    *Ledger
	validator *Validator
	lifecycle *Lifecycle
	doctor    *models.User
	patient   *models.User
	applied   []uint
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	log := zerolog.New(io.Discard)

	f := &fixture{
		db:      db,
		store:   scheduling.NewStore(db),
		ledger:  NewLedger(db, sql.LevelDefault),
		doctor:  testutil.CreateDoctor(t, db),
		patient: testutil.CreateUser(t, db, models.RolePatient),
	}
	f.validator = NewValidator(f.store, f.ledger, Options{
		Clock:          clock.Fixed(testNow),
		Location:       time.UTC,
		MaxAdvanceDays: 90,
	}, log)
	f.lifecycle = NewLifecycle(f.ledger, func(_ context.Context, appt *models.Appointment) {
		f.applied = append(f.applied, appt.ID)
	}, log)

	// Monday 09:00-17:00.
	testutil.CreateWindow(t, db, f.doctor.ID, 0, testutil.MustTime(t, "09:00"), testutil.MustTime(t, "17:00"))
	return f
}

func (f *fixture) request(t *testing.T, date, at string) Request {
	return Request{
		PatientID: f.patient.ID,
		DoctorID:  f.doctor.ID,
		Date:      testutil.MustDate(t, date),
		Time:      testutil.MustTime(t, at),
	}
}

func (f *fixture) book(t *testing.T, date, at string) *models.Appointment {
	t.Helper()
	appt, err := f.validator.Book(context.Background(), f.request(t, date, at))
	require.NoError(t, err)
	return appt
}

func (f *fixture) doctorActor() Actor {
	return Actor{UserID: f.doctor.ID, Role: models.RoleDoctor}
}

func (f *fixture) patientActor() Actor {
	return Actor{UserID: f.patient.ID, Role: models.RolePatient}
}
