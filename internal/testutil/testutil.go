// Package testutil provides an in-memory database and fixtures for tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"hospital-app-server/internal/models"
)

var seq atomic.Int64

// NewDB opens a migrated in-memory sqlite database private to t. The pool is
// pinned to one connection because every connection to ":memory:" sees its
// own empty database.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := models.InitDB(models.DatabaseConfig{
		Driver:      "sqlite",
		DSN:         ":memory:",
		AutoMigrate: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

// CreateUser inserts a user with a unique email.
func CreateUser(t testing.TB, db *gorm.DB, role models.Role) *models.User {
	t.Helper()
	n := seq.Add(1)
	user := &models.User{
		Email:     fmt.Sprintf("%s-%d@hospital.test", role.String(), n),
		FirstName: role.String(),
		LastName:  fmt.Sprintf("%d", n),
		Role:      role,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateDoctor inserts a DOCTOR user together with a doctor profile.
func CreateDoctor(t testing.TB, db *gorm.DB) *models.User {
	t.Helper()
	user := CreateUser(t, db, models.RoleDoctor)
	profile := &models.DoctorProfile{
		UserID:            user.ID,
		Specialization:    "Cardiology",
		LicenseNumber:     fmt.Sprintf("LIC-%d", user.ID),
		YearsOfExperience: 10,
	}
	require.NoError(t, db.Create(profile).Error)
	user.DoctorProfile = profile
	return user
}

// CreateWindow inserts an available weekly window.
func CreateWindow(t testing.TB, db *gorm.DB, doctorID uint, day int, start, end models.TimeOfDay) *models.WeeklyAvailabilityWindow {
	t.Helper()
	window := &models.WeeklyAvailabilityWindow{
		DoctorID:    doctorID,
		DayOfWeek:   day,
		StartTime:   start,
		EndTime:     end,
		IsAvailable: true,
	}
	require.NoError(t, db.Create(window).Error)
	return window
}

// MustDate parses a YYYY-MM-DD literal.
func MustDate(t testing.TB, s string) models.Date {
	t.Helper()
	d, err := models.ParseDate(s)
	require.NoError(t, err)
	return d
}

// MustTime parses an HH:MM literal.
func MustTime(t testing.TB, s string) models.TimeOfDay {
	t.Helper()
	tod, err := models.ParseTimeOfDay(s)
	require.NoError(t, err)
	return tod
}
