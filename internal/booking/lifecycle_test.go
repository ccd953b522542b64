package booking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hospital-app-server/internal/apperr"
	"hospital-app-server/internal/models"
	"hospital-app-server/internal/testutil"
)

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(models.StatusPending, models.StatusConfirmed))
	assert.True(t, CanTransition(models.StatusPending, models.StatusCancelled))
	assert.True(t, CanTransition(models.StatusConfirmed, models.StatusCancelled))
	assert.True(t, CanTransition(models.StatusConfirmed, models.StatusCompleted))

	assert.False(t, CanTransition(models.StatusPending, models.StatusCompleted))
	assert.False(t, CanTransition(models.StatusConfirmed, models.StatusPending))
	for _, to := range []models.AppointmentStatus{models.StatusPending, models.StatusConfirmed, models.StatusCancelled, models.StatusCompleted} {
		assert.False(t, CanTransition(models.StatusCancelled, to))
		assert.False(t, CanTransition(models.StatusCompleted, to))
	}
}

func TestApproveLinksDoctorAndPatient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt := f.book(t, "2026-10-19", "09:00")

	approved, err := f.lifecycle.Approve(ctx, f.doctorActor(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, approved.Status)
	assert.Equal(t, []uint{appt.ID}, f.applied)

	patients, err := f.ledger.PatientsOf(ctx, f.doctor.ID)
	require.NoError(t, err)
	require.Len(t, patients, 1)
	assert.Equal(t, f.patient.ID, patients[0].ID)

	// A second approval fails and does not duplicate the link.
	_, err = f.lifecycle.Approve(ctx, f.doctorActor(), appt.ID)
	assert.True(t, apperr.IsIllegalTransition(err))

	second := f.book(t, "2026-10-19", "10:00")
	_, err = f.lifecycle.Approve(ctx, f.doctorActor(), second.ID)
	require.NoError(t, err)
	patients, err = f.ledger.PatientsOf(ctx, f.doctor.ID)
	require.NoError(t, err)
	assert.Len(t, patients, 1)
}

func TestOnlyOwningDoctorMayApprove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt := f.book(t, "2026-10-19", "09:00")
	stranger := testutil.CreateDoctor(t, f.db)

	_, err := f.lifecycle.Approve(ctx, Actor{UserID: stranger.ID, Role: models.RoleDoctor}, appt.ID)
	assert.True(t, apperr.IsPermissionDenied(err))

	_, err = f.lifecycle.Approve(ctx, f.patientActor(), appt.ID)
	assert.True(t, apperr.IsPermissionDenied(err))

	stored, err := f.ledger.Get(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Empty(t, f.applied)
}

func TestPatientCancelsOwnAppointment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt := f.book(t, "2026-10-19", "09:00")

	other := testutil.CreateUser(t, f.db, models.RolePatient)
	_, err := f.lifecycle.Cancel(ctx, Actor{UserID: other.ID, Role: models.RolePatient}, appt.ID, "")
	assert.True(t, apperr.IsPermissionDenied(err))

	cancelled, err := f.lifecycle.Cancel(ctx, f.patientActor(), appt.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.Nil(t, cancelled.ActiveSlot)
}

func TestDoctorCancelsWithMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt := f.book(t, "2026-10-19", "09:00")
	_, err := f.lifecycle.Approve(ctx, f.doctorActor(), appt.ID)
	require.NoError(t, err)

	_, err = f.lifecycle.Cancel(ctx, f.doctorActor(), appt.ID, "Please rebook next week.")
	require.NoError(t, err)

	stored, err := f.ledger.Get(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, stored.Status)
	assert.Equal(t, "Please rebook next week.", stored.DoctorMessage)
}

func TestPatientMayNotLeaveDoctorMessage(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t, "2026-10-19", "09:00")

	_, err := f.lifecycle.Cancel(context.Background(), f.patientActor(), appt.ID, "hello")
	assert.True(t, apperr.IsPermissionDenied(err))
}

func TestCompleteRequiresConfirmed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt := f.book(t, "2026-10-19", "09:00")

	_, err := f.lifecycle.Complete(ctx, f.doctorActor(), appt.ID)
	assert.True(t, apperr.IsIllegalTransition(err))

	_, err = f.lifecycle.Approve(ctx, f.doctorActor(), appt.ID)
	require.NoError(t, err)
	completed, err := f.lifecycle.Complete(ctx, f.doctorActor(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, completed.Status)
}

func TestTerminalAppointmentsCannotChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	done := f.book(t, "2026-10-19", "09:00")
	_, err := f.lifecycle.Approve(ctx, f.doctorActor(), done.ID)
	require.NoError(t, err)
	_, err = f.lifecycle.Complete(ctx, f.doctorActor(), done.ID)
	require.NoError(t, err)

	cancelled := f.book(t, "2026-10-19", "10:00")
	_, err = f.lifecycle.Cancel(ctx, f.patientActor(), cancelled.ID, "")
	require.NoError(t, err)

	all := []models.AppointmentStatus{models.StatusPending, models.StatusConfirmed, models.StatusCancelled, models.StatusCompleted}
	for _, id := range []uint{done.ID, cancelled.ID} {
		for _, to := range all {
			_, err := f.lifecycle.Transition(ctx, f.doctorActor(), id, to, Change{})
			assert.True(t, apperr.IsIllegalTransition(err), "appointment %d to %s", id, to)
		}
	}

	// Patients get the same answer for their own terminal appointment.
	_, err = f.lifecycle.Cancel(ctx, f.patientActor(), cancelled.ID, "")
	assert.True(t, apperr.IsIllegalTransition(err))
}

func TestAdminMayOnlyCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := Actor{UserID: testutil.CreateUser(t, f.db, models.RoleAdmin).ID, Role: models.RoleAdmin}
	appt := f.book(t, "2026-10-19", "09:00")

	_, err := f.lifecycle.Approve(ctx, admin, appt.ID)
	assert.True(t, apperr.IsPermissionDenied(err))

	_, err = f.lifecycle.Cancel(ctx, admin, appt.ID, "")
	require.NoError(t, err)
}

func TestLabAttendantCannotTransition(t *testing.T) {
	f := newFixture(t)
	lab := Actor{UserID: testutil.CreateUser(t, f.db, models.RoleLabAttendant).ID, Role: models.RoleLabAttendant}
	appt := f.book(t, "2026-10-19", "09:00")

	_, err := f.lifecycle.Cancel(context.Background(), lab, appt.ID, "")
	assert.True(t, apperr.IsPermissionDenied(err))
}

func TestTransitionUnknownAppointment(t *testing.T) {
	f := newFixture(t)
	_, err := f.lifecycle.Approve(context.Background(), f.doctorActor(), 9999)
	assert.True(t, apperr.IsNotFound(err))
}
