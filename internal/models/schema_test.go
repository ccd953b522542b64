package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hospital-app-server/internal/models"
	"hospital-app-server/internal/testutil"
)

func TestDeletingDoctorRemovesOwnedRows(t *testing.T) {
	db := testutil.NewDB(t)
	doctor := testutil.CreateDoctor(t, db)
	patient := testutil.CreateUser(t, db, models.RolePatient)

	testutil.CreateWindow(t, db, doctor.ID, 0, testutil.MustTime(t, "09:00"), testutil.MustTime(t, "17:00"))
	require.NoError(t, db.Create(&models.TimeOffInterval{
		DoctorID: doctor.ID,
		StartAt:  time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC),
		EndAt:    time.Date(2026, 10, 19, 13, 0, 0, 0, time.UTC),
	}).Error)
	require.NoError(t, db.Create(&models.Appointment{
		PatientID: patient.ID,
		DoctorID:  doctor.ID,
		Date:      testutil.MustDate(t, "2026-10-19"),
		Time:      testutil.MustTime(t, "09:00"),
	}).Error)
	require.NoError(t, db.Create(&models.DoctorPatient{DoctorID: doctor.ID, PatientID: patient.ID}).Error)

	require.NoError(t, db.Delete(&models.User{}, doctor.ID).Error)

	for _, model := range []any{
		&models.DoctorProfile{},
		&models.WeeklyAvailabilityWindow{},
		&models.TimeOffInterval{},
		&models.Appointment{},
		&models.DoctorPatient{},
	} {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		assert.Zero(t, n, "%T rows left after deleting the doctor", model)
	}

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.Equal(t, int64(1), users)
}

func TestDeletingPatientRemovesTheirAppointments(t *testing.T) {
	db := testutil.NewDB(t)
	doctor := testutil.CreateDoctor(t, db)
	patient := testutil.CreateUser(t, db, models.RolePatient)
	require.NoError(t, db.Create(&models.Appointment{
		PatientID: patient.ID,
		DoctorID:  doctor.ID,
		Date:      testutil.MustDate(t, "2026-10-19"),
		Time:      testutil.MustTime(t, "09:00"),
	}).Error)

	require.NoError(t, db.Delete(&models.User{}, patient.ID).Error)

	var n int64
	require.NoError(t, db.Model(&models.Appointment{}).Count(&n).Error)
	assert.Zero(t, n)

	var profiles int64
	require.NoError(t, db.Model(&models.DoctorProfile{}).Count(&profiles).Error)
	assert.Equal(t, int64(1), profiles)
}

func TestAppointmentRequiresExistingUsers(t *testing.T) {
	db := testutil.NewDB(t)
	doctor := testutil.CreateDoctor(t, db)

	err := db.Create(&models.Appointment{
		PatientID: doctor.ID + 1000,
		DoctorID:  doctor.ID,
		Date:      testutil.MustDate(t, "2026-10-19"),
		Time:      testutil.MustTime(t, "09:00"),
	}).Error
	assert.Error(t, err)
}
