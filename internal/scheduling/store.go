package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"hospital-app-server/internal/apperr"
	"hospital-app-server/internal/models"
)

// Store persists doctors' weekly windows and time-off intervals.
type Store struct {
	db *gorm.DB
}

// NewStore creates a Store on db.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithTx returns a Store bound to an open transaction.
func (s *Store) WithTx(tx *gorm.DB) *Store {
	return &Store{db: tx}
}

// WindowInput describes a weekly window to create or replace.
type WindowInput struct {
	DayOfWeek   int
	StartTime   models.TimeOfDay
	EndTime     models.TimeOfDay
	IsAvailable bool
}

// Validate checks the day range and the start/end ordering.
func (in WindowInput) Validate() error {
	if in.DayOfWeek < 0 || in.DayOfWeek > 6 {
		return apperr.InvalidField("day_of_week", "invalid_day", "Day of week must be between 0 (Monday) and 6 (Sunday).")
	}
	if !in.StartTime.Valid() || !in.EndTime.Valid() {
		return apperr.Validation("invalid_time", "Start and end time must be valid times of day.")
	}
	if in.StartTime >= in.EndTime {
		return apperr.Validation("invalid_window", "Start time must be before end time.")
	}
	return nil
}

// UpsertWeeklyWindow creates the doctor's window for the weekday or
// replaces the existing one.
func (s *Store) UpsertWeeklyWindow(ctx context.Context, doctorID uint, in WindowInput) (*models.WeeklyAvailabilityWindow, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var window models.WeeklyAvailabilityWindow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("doctor_id = ? AND day_of_week = ?", doctorID, in.DayOfWeek).First(&window).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			window = models.WeeklyAvailabilityWindow{DoctorID: doctorID, DayOfWeek: in.DayOfWeek}
		case err != nil:
			return err
		}
		window.StartTime = in.StartTime
		window.EndTime = in.EndTime
		window.IsAvailable = in.IsAvailable
		return tx.Save(&window).Error
	})
	if err != nil {
		return nil, fmt.Errorf("upsert weekly window: %w", err)
	}
	return &window, nil
}

// ListWeeklyWindows returns the doctor's windows ordered by weekday.
func (s *Store) ListWeeklyWindows(ctx context.Context, doctorID uint) ([]models.WeeklyAvailabilityWindow, error) {
	var windows []models.WeeklyAvailabilityWindow
	err := s.db.WithContext(ctx).
		Where("doctor_id = ?", doctorID).
		Order("day_of_week").
		Find(&windows).Error
	return windows, err
}

// DeleteWeeklyWindow removes one of the doctor's own windows.
func (s *Store) DeleteWeeklyWindow(ctx context.Context, doctorID, windowID uint) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND doctor_id = ?", windowID, doctorID).
		Delete(&models.WeeklyAvailabilityWindow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("schedule entry")
	}
	return nil
}

// AvailableWindowFor returns the doctor's window for the weekday if it is
// marked available, or nil.
func (s *Store) AvailableWindowFor(ctx context.Context, doctorID uint, dayOfWeek int) (*models.WeeklyAvailabilityWindow, error) {
	return s.windowFor(ctx, doctorID, dayOfWeek, true)
}

// WindowFor returns the doctor's window for the weekday regardless of
// availability, or nil.
func (s *Store) WindowFor(ctx context.Context, doctorID uint, dayOfWeek int) (*models.WeeklyAvailabilityWindow, error) {
	return s.windowFor(ctx, doctorID, dayOfWeek, false)
}

func (s *Store) windowFor(ctx context.Context, doctorID uint, dayOfWeek int, onlyAvailable bool) (*models.WeeklyAvailabilityWindow, error) {
	q := s.db.WithContext(ctx).Where("doctor_id = ? AND day_of_week = ?", doctorID, dayOfWeek)
	if onlyAvailable {
		q = q.Where("is_available = ?", true)
	}

	var window models.WeeklyAvailabilityWindow
	err := q.First(&window).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &window, nil
}

// TimeOffInput describes a time-off interval to record.
type TimeOffInput struct {
	StartAt time.Time
	EndAt   time.Time
	Reason  string
}

// AddTimeOff records a time-off interval. Instants are stored in UTC.
func (s *Store) AddTimeOff(ctx context.Context, doctorID uint, in TimeOffInput) (*models.TimeOffInterval, error) {
	if in.StartAt.IsZero() || in.EndAt.IsZero() {
		return nil, apperr.Validation("invalid_time_off", "Start and end of the time off are required.")
	}
	if !in.EndAt.After(in.StartAt) {
		return nil, apperr.Validation("invalid_time_off", "End of the time off must be after its start.")
	}

	interval := &models.TimeOffInterval{
		DoctorID: doctorID,
		StartAt:  in.StartAt.UTC(),
		EndAt:    in.EndAt.UTC(),
		Reason:   in.Reason,
	}
	if err := s.db.WithContext(ctx).Create(interval).Error; err != nil {
		return nil, fmt.Errorf("add time off: %w", err)
	}
	return interval, nil
}

// ListActiveTimeOff returns intervals that have not ended before now,
// earliest first.
func (s *Store) ListActiveTimeOff(ctx context.Context, doctorID uint, now time.Time) ([]models.TimeOffInterval, error) {
	var intervals []models.TimeOffInterval
	err := s.db.WithContext(ctx).
		Where("doctor_id = ? AND end_at >= ?", doctorID, now.UTC()).
		Order("start_at").
		Find(&intervals).Error
	return intervals, err
}

// TimeOffOverlapping returns intervals intersecting [from, to].
func (s *Store) TimeOffOverlapping(ctx context.Context, doctorID uint, from, to time.Time) ([]models.TimeOffInterval, error) {
	var intervals []models.TimeOffInterval
	err := s.db.WithContext(ctx).
		Where("doctor_id = ? AND start_at <= ? AND end_at >= ?", doctorID, to.UTC(), from.UTC()).
		Order("start_at").
		Find(&intervals).Error
	return intervals, err
}

// TimeOffCovering reports whether any interval contains at.
func (s *Store) TimeOffCovering(ctx context.Context, doctorID uint, at time.Time) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.TimeOffInterval{}).
		Where("doctor_id = ? AND start_at <= ? AND end_at >= ?", doctorID, at.UTC(), at.UTC()).
		Count(&count).Error
	return count > 0, err
}

// DoctorProfile returns the profile of a DOCTOR-role user.
func (s *Store) DoctorProfile(ctx context.Context, userID uint) (*models.DoctorProfile, error) {
	var profile models.DoctorProfile
	err := s.db.WithContext(ctx).
		Joins("JOIN users ON users.id = doctor_profiles.user_id").
		Where("doctor_profiles.user_id = ? AND users.role = ?", userID, models.RoleDoctor).
		Preload("User").
		First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("doctor")
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// ListDoctors returns every DOCTOR-role user with a profile, by name.
func (s *Store) ListDoctors(ctx context.Context) ([]models.DoctorProfile, error) {
	var profiles []models.DoctorProfile
	err := s.db.WithContext(ctx).
		Joins("JOIN users ON users.id = doctor_profiles.user_id").
		Where("users.role = ?", models.RoleDoctor).
		Order("users.last_name, users.first_name").
		Preload("User").
		Find(&profiles).Error
	return profiles, err
}
