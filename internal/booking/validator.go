package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"hospital-app-server/internal/apperr"
	"hospital-app-server/internal/clock"
	"hospital-app-server/internal/metrics"
	"hospital-app-server/internal/models"
	"hospital-app-server/internal/scheduling"
)

// Rejection codes, also used as metric labels.
const (
	RejectPast           = "past"
	RejectTooFarAhead    = "too_far_ahead"
	RejectDoctorProfile  = "doctor_profile"
	RejectTimeOff        = "time_off"
	RejectNotWorkingDay  = "not_working_day"
	RejectDayUnavailable = "day_unavailable"
	RejectOutsideHours   = "outside_hours"
	RejectDoubleBooking  = "double_booking"
)

const (
	msgPast          = "You cannot book appointments in the past."
	msgTooFarAhead   = "Appointments can only be booked up to %d days in advance."
	msgDoctorProfile = "The selected user does not have a valid doctor profile."
	msgTimeOff       = "The doctor has scheduled time off and is not available at the selected date and time."
	msgNotWorkingDay = "The doctor does not work on this day."
	msgUnavailable   = "The doctor is unavailable from %s to %s on this day."
	msgOutsideHours  = "The selected time is outside the doctor's working hours (%s to %s)."
	msgDoubleBooking = "The doctor already has an appointment at this time. Please select another slot."
)

// Request is a patient's request for one slot.
type Request struct {
	PatientID uint
	DoctorID  uint
	Date      models.Date
	Time      models.TimeOfDay
	Notes     string
}

// Validator decides whether a booking request may be accepted and records
// accepted ones in the ledger.
type Validator struct {
	store          *scheduling.Store
	ledger         *Ledger
	clock          clock.Clock
	loc            *time.Location
	maxAdvanceDays int
	log            zerolog.Logger
}

// Options configures a Validator. A zero MaxAdvanceDays disables the
// booking horizon.
type Options struct {
	Clock          clock.Clock
	Location       *time.Location
	MaxAdvanceDays int
}

// NewValidator wires a Validator.
func NewValidator(store *scheduling.Store, ledger *Ledger, opts Options, log zerolog.Logger) *Validator {
	if opts.Clock == nil {
		opts.Clock = clock.System{}
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Validator{
		store:          store,
		ledger:         ledger,
		clock:          opts.Clock,
		loc:            opts.Location,
		maxAdvanceDays: opts.MaxAdvanceDays,
		log:            log.With().Str("component", "booking").Logger(),
	}
}

// Validate runs every rule without writing anything.
func (v *Validator) Validate(ctx context.Context, req Request) error {
	return v.check(ctx, v.store, v.ledger, req)
}

// Book validates req and, if it passes, creates a PENDING appointment. The
// schedule checks and the insert share one transaction.
func (v *Validator) Book(ctx context.Context, req Request) (*models.Appointment, error) {
	var appt *models.Appointment
	err := v.ledger.InTx(ctx, func(tx *gorm.DB) error {
		ledger := v.ledger.WithTx(tx)
		if err := v.check(ctx, v.store.WithTx(tx), ledger, req); err != nil {
			return err
		}
		created, err := ledger.Create(ctx, NewAppointment(req))
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.Validation(RejectDoubleBooking, msgDoubleBooking)
		}
		if err != nil {
			return err
		}
		appt = created
		return nil
	})
	if err != nil {
		if verr, ok := apperr.AsValidation(err); ok {
			metrics.IncBookingRejected(verr.Code)
			v.log.Info().
				Uint("patient_id", req.PatientID).
				Uint("doctor_id", req.DoctorID).
				Str("reason", verr.Code).
				Msg("booking rejected")
			return nil, err
		}
		return nil, fmt.Errorf("book appointment: %w", err)
	}

	metrics.IncBookingCreated()
	v.log.Info().
		Uint("appointment_id", appt.ID).
		Uint("patient_id", appt.PatientID).
		Uint("doctor_id", appt.DoctorID).
		Str("date", models.FormatDate(appt.Date)).
		Str("time", appt.Time.String()).
		Msg("appointment booked")
	return appt, nil
}

// check applies the rules in order and stops at the first failure.
func (v *Validator) check(ctx context.Context, store *scheduling.Store, ledger *Ledger, req Request) error {
	at := req.Time.On(time.Time(req.Date), v.loc)

	if err := v.checkHorizon(at); err != nil {
		return err
	}
	if err := checkDoctor(ctx, store, req.DoctorID); err != nil {
		return err
	}
	if err := checkTimeOff(ctx, store, req.DoctorID, at); err != nil {
		return err
	}
	if err := checkWeeklyWindow(ctx, store, req); err != nil {
		return err
	}
	return checkDoubleBooking(ctx, ledger, req)
}

func (v *Validator) checkHorizon(at time.Time) error {
	now := v.clock.Now().In(v.loc)
	if at.Before(now) {
		return apperr.Validation(RejectPast, msgPast)
	}
	if v.maxAdvanceDays > 0 {
		today := models.DateOf(now)
		last := time.Time(today).AddDate(0, 0, v.maxAdvanceDays)
		if time.Time(models.DateOf(at)).After(last) {
			return apperr.Validation(RejectTooFarAhead, fmt.Sprintf(msgTooFarAhead, v.maxAdvanceDays))
		}
	}
	return nil
}

func checkDoctor(ctx context.Context, store *scheduling.Store, doctorID uint) error {
	_, err := store.DoctorProfile(ctx, doctorID)
	if apperr.IsNotFound(err) {
		return apperr.InvalidField("doctor_id", RejectDoctorProfile, msgDoctorProfile)
	}
	return err
}

func checkTimeOff(ctx context.Context, store *scheduling.Store, doctorID uint, at time.Time) error {
	covered, err := store.TimeOffCovering(ctx, doctorID, at)
	if err != nil {
		return err
	}
	if covered {
		return apperr.Validation(RejectTimeOff, msgTimeOff)
	}
	return nil
}

func checkWeeklyWindow(ctx context.Context, store *scheduling.Store, req Request) error {
	window, err := store.WindowFor(ctx, req.DoctorID, models.Weekday(req.Date))
	if err != nil {
		return err
	}
	switch {
	case window == nil:
		return apperr.Validation(RejectNotWorkingDay, msgNotWorkingDay)
	case !window.IsAvailable:
		return apperr.Validation(RejectDayUnavailable,
			fmt.Sprintf(msgUnavailable, window.StartTime.Clock12(), window.EndTime.Clock12()))
	case !window.Fits(req.Time, scheduling.SlotLength):
		return apperr.Validation(RejectOutsideHours,
			fmt.Sprintf(msgOutsideHours, window.StartTime.Clock12(), window.EndTime.Clock12()))
	}
	return nil
}

func checkDoubleBooking(ctx context.Context, ledger *Ledger, req Request) error {
	conflicts, err := ledger.FindConflicting(ctx, req.DoctorID, req.Date, req.Time)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return apperr.Validation(RejectDoubleBooking, msgDoubleBooking)
	}
	return nil
}
