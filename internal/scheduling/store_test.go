package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hospital-app-server/internal/apperr"
	"hospital-app-server/internal/models"
	"hospital-app-server/internal/testutil"
)

func TestUpsertWeeklyWindowReplacesSameDay(t *testing.T) {
	db := testutil.NewDB(t)
	doctor := testutil.CreateDoctor(t, db)
	store := NewStore(db)
	ctx := context.Background()

	first, err := store.UpsertWeeklyWindow(ctx, doctor.ID, WindowInput{
		DayOfWeek: 2, StartTime: testutil.MustTime(t, "09:00"), EndTime: testutil.MustTime(t, "17:00"), IsAvailable: true,
	})
	require.NoError(t, err)

	second, err := store.UpsertWeeklyWindow(ctx, doctor.ID, WindowInput{
		DayOfWeek: 2, StartTime: testutil.MustTime(t, "10:00"), EndTime: testutil.MustTime(t, "14:00"), IsAvailable: false,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	windows, err := store.ListWeeklyWindows(ctx, doctor.ID)
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, "10:00", windows[0].StartTime.String())
	assert.False(t, windows[0].IsAvailable)

	available, err := store.AvailableWindowFor(ctx, doctor.ID, 2)
	require.NoError(t, err)
	assert.Nil(t, available)

	window, err := store.WindowFor(ctx, doctor.ID, 2)
	require.NoError(t, err)
	require.NotNil(t, window)
	assert.Equal(t, "14:00", window.EndTime.String())
}

func TestUpsertWeeklyWindowValidation(t *testing.T) {
	db := testutil.NewDB(t)
	store := NewStore(db)
	ctx := context.Background()

	_, err := store.UpsertWeeklyWindow(ctx, 1, WindowInput{
		DayOfWeek: 7, StartTime: testutil.MustTime(t, "09:00"), EndTime: testutil.MustTime(t, "10:00"),
	})
	v, ok := apperr.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "day_of_week", v.Field)

	_, err = store.UpsertWeeklyWindow(ctx, 1, WindowInput{
		DayOfWeek: 1, StartTime: testutil.MustTime(t, "10:00"), EndTime: testutil.MustTime(t, "10:00"),
	})
	assert.True(t, apperr.IsValidation(err))
}

func TestDeleteWeeklyWindowRequiresOwnership(t *testing.T) {
	db := testutil.NewDB(t)
	owner := testutil.CreateDoctor(t, db)
	other := testutil.CreateDoctor(t, db)
	window := testutil.CreateWindow(t, db, owner.ID, 0, testutil.MustTime(t, "09:00"), testutil.MustTime(t, "12:00"))
	store := NewStore(db)
	ctx := context.Background()

	assert.True(t, apperr.IsNotFound(store.DeleteWeeklyWindow(ctx, other.ID, window.ID)))
	require.NoError(t, store.DeleteWeeklyWindow(ctx, owner.ID, window.ID))
	assert.True(t, apperr.IsNotFound(store.DeleteWeeklyWindow(ctx, owner.ID, window.ID)))
}

func TestTimeOffQueries(t *testing.T) {
	db := testutil.NewDB(t)
	doctor := testutil.CreateDoctor(t, db)
	store := NewStore(db)
	ctx := context.Background()
	loc := time.FixedZone("clinic", -5*60*60)

	past, err := store.AddTimeOff(ctx, doctor.ID, TimeOffInput{
		StartAt: time.Date(2026, 9, 1, 0, 0, 0, 0, loc),
		EndAt:   time.Date(2026, 9, 2, 0, 0, 0, 0, loc),
	})
	require.NoError(t, err)
	assert.Equal(t, time.UTC, past.StartAt.Location())

	_, err = store.AddTimeOff(ctx, doctor.ID, TimeOffInput{
		StartAt: time.Date(2026, 10, 20, 9, 0, 0, 0, loc),
		EndAt:   time.Date(2026, 10, 20, 12, 0, 0, 0, loc),
		Reason:  "Surgery",
	})
	require.NoError(t, err)

	now := time.Date(2026, 10, 15, 8, 0, 0, 0, loc)
	active, err := store.ListActiveTimeOff(ctx, doctor.ID, now)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Surgery", active[0].Reason)

	covered, err := store.TimeOffCovering(ctx, doctor.ID, time.Date(2026, 10, 20, 12, 0, 0, 0, loc))
	require.NoError(t, err)
	assert.True(t, covered, "end is inclusive")

	covered, err = store.TimeOffCovering(ctx, doctor.ID, time.Date(2026, 10, 20, 12, 1, 0, 0, loc))
	require.NoError(t, err)
	assert.False(t, covered)

	overlapping, err := store.TimeOffOverlapping(ctx, doctor.ID,
		time.Date(2026, 10, 20, 11, 0, 0, 0, loc), time.Date(2026, 10, 20, 17, 0, 0, 0, loc))
	require.NoError(t, err)
	assert.Len(t, overlapping, 1)

	_, err = store.AddTimeOff(ctx, doctor.ID, TimeOffInput{StartAt: now, EndAt: now.Add(-time.Hour)})
	assert.True(t, apperr.IsValidation(err))

	_, err = store.AddTimeOff(ctx, doctor.ID, TimeOffInput{StartAt: now, EndAt: now})
	assert.True(t, apperr.IsValidation(err), "zero-length interval")

	all, err := store.ListActiveTimeOff(ctx, doctor.ID, now)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestDoctorProfileLookup(t *testing.T) {
	db := testutil.NewDB(t)
	doctor := testutil.CreateDoctor(t, db)
	bare := testutil.CreateUser(t, db, models.RoleDoctor)
	patient := testutil.CreateUser(t, db, models.RolePatient)
	store := NewStore(db)
	ctx := context.Background()

	profile, err := store.DoctorProfile(ctx, doctor.ID)
	require.NoError(t, err)
	assert.Equal(t, doctor.Email, profile.User.Email)

	_, err = store.DoctorProfile(ctx, bare.ID)
	assert.True(t, apperr.IsNotFound(err))
	_, err = store.DoctorProfile(ctx, patient.ID)
	assert.True(t, apperr.IsNotFound(err))

	doctors, err := store.ListDoctors(ctx)
	require.NoError(t, err)
	assert.Len(t, doctors, 1)
}
