package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"hospital-app-server/internal/apperr"
	"hospital-app-server/internal/models"
)

// Ledger is the durable record of appointments.
type Ledger struct {
	db        *gorm.DB
	isolation sql.IsolationLevel
}

// NewLedger creates a Ledger. isolation applies to transactions opened by InTx.
func NewLedger(db *gorm.DB, isolation sql.IsolationLevel) *Ledger {
	return &Ledger{db: db, isolation: isolation}
}

// WithTx returns a Ledger bound to an open transaction.
func (l *Ledger) WithTx(tx *gorm.DB) *Ledger {
	return &Ledger{db: tx, isolation: l.isolation}
}

// InTx runs fn in one transaction. Inside fn, use only tx.
func (l *Ledger) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return l.db.WithContext(ctx).Transaction(fn, &sql.TxOptions{Isolation: l.isolation})
}

// NewAppointment is the data needed to create a PENDING appointment.
type NewAppointment struct {
	PatientID uint
	DoctorID  uint
	Date      models.Date
	Time      models.TimeOfDay
	Notes     string
}

// Create inserts a PENDING appointment. A live appointment already holding
// the slot makes it fail with gorm.ErrDuplicatedKey.
func (l *Ledger) Create(ctx context.Context, in NewAppointment) (*models.Appointment, error) {
	appt := &models.Appointment{
		PatientID: in.PatientID,
		DoctorID:  in.DoctorID,
		Date:      in.Date,
		Time:      in.Time,
		Status:    models.StatusPending,
		Notes:     in.Notes,
	}
	if err := l.db.WithContext(ctx).Create(appt).Error; err != nil {
		return nil, err
	}
	return appt, nil
}

// FindConflicting returns the doctor's appointments on the slot whose status
// is in statuses, defaulting to PENDING and CONFIRMED.
func (l *Ledger) FindConflicting(ctx context.Context, doctorID uint, date models.Date, at models.TimeOfDay, statuses ...models.AppointmentStatus) ([]models.Appointment, error) {
	if len(statuses) == 0 {
		statuses = models.ActiveStatuses
	}
	var appts []models.Appointment
	err := l.db.WithContext(ctx).
		Where("doctor_id = ? AND appointment_date = ? AND appointment_time = ? AND status IN ?", doctorID, date, at, statuses).
		Find(&appts).Error
	return appts, err
}

// BookedTimes returns the start times of every appointment the doctor has on
// date, whatever its status.
func (l *Ledger) BookedTimes(ctx context.Context, doctorID uint, date models.Date) ([]models.TimeOfDay, error) {
	var times []models.TimeOfDay
	err := l.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("doctor_id = ? AND appointment_date = ?", doctorID, date).
		Order("appointment_time").
		Pluck("appointment_time", &times).Error
	return times, err
}

// Get loads an appointment with its patient and doctor.
func (l *Ledger) Get(ctx context.Context, id uint) (*models.Appointment, error) {
	var appt models.Appointment
	err := l.db.WithContext(ctx).
		Preload("Patient").
		Preload("Doctor").
		First(&appt, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("appointment")
	}
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

// SetStatus moves appt to status, persisting its Notes and DoctorMessage in
// the same write. The update only applies if the stored status still equals
// appt.Status.
func (l *Ledger) SetStatus(ctx context.Context, appt *models.Appointment, status models.AppointmentStatus) error {
	if appt.Status.IsTerminal() {
		return apperr.IllegalTransition(appt.Status, status)
	}

	activeSlot := appt.ActiveSlotFor(status)
	res := l.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("id = ? AND status = ?", appt.ID, appt.Status).
		Updates(map[string]any{
			"status":         status,
			"active_slot":    activeSlot,
			"notes":          appt.Notes,
			"doctor_message": appt.DoctorMessage,
		})
	if res.Error != nil {
		return fmt.Errorf("set appointment status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.IllegalTransition(appt.Status, status)
	}

	appt.Status = status
	appt.ActiveSlot = activeSlot
	return nil
}

// Scope restricts listings to what the viewer may see.
type Scope struct {
	UserID uint
	Role   models.Role
}

// Filter narrows a listing. Zero fields do not filter.
type Filter struct {
	DateFrom *models.Date
	DateTo   *models.Date
	Status   models.AppointmentStatus
}

// Validate rejects a date range that ends before it starts.
func (f Filter) Validate() error {
	if f.DateFrom != nil && f.DateTo != nil && models.FormatDate(*f.DateFrom) > models.FormatDate(*f.DateTo) {
		return apperr.InvalidField("date_to", "invalid_range", "End date must be after start date.")
	}
	return nil
}

func (l *Ledger) scoped(ctx context.Context, scope Scope) (*gorm.DB, error) {
	q := l.db.WithContext(ctx).Model(&models.Appointment{})
	switch scope.Role {
	case models.RolePatient:
		return q.Where("patient_id = ?", scope.UserID), nil
	case models.RoleDoctor:
		return q.Where("doctor_id = ?", scope.UserID), nil
	case models.RoleAdmin:
		return q, nil
	case models.RoleLabAttendant:
		return nil, apperr.PermissionDenied("You do not have permission to view appointments.")
	default:
		return nil, apperr.PermissionDenied("Unknown role.")
	}
}

// List returns the appointments visible to scope that match filter, ordered
// by date then time.
func (l *Ledger) List(ctx context.Context, scope Scope, filter Filter) ([]models.Appointment, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	q, err := l.scoped(ctx, scope)
	if err != nil {
		return nil, err
	}
	if filter.DateFrom != nil {
		q = q.Where("appointment_date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		q = q.Where("appointment_date <= ?", *filter.DateTo)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var appts []models.Appointment
	err = q.Preload("Patient").
		Preload("Doctor").
		Order("appointment_date, appointment_time").
		Find(&appts).Error
	return appts, err
}

// OnDate returns the doctor's live appointments on date, by time.
func (l *Ledger) OnDate(ctx context.Context, doctorID uint, date models.Date) ([]models.Appointment, error) {
	var appts []models.Appointment
	err := l.db.WithContext(ctx).
		Where("doctor_id = ? AND appointment_date = ? AND status IN ?", doctorID, date, models.ActiveStatuses).
		Preload("Patient").
		Order("appointment_time").
		Find(&appts).Error
	return appts, err
}

// Upcoming returns the doctor's live appointments on or after from, by date
// then time.
func (l *Ledger) Upcoming(ctx context.Context, doctorID uint, from models.Date) ([]models.Appointment, error) {
	var appts []models.Appointment
	err := l.db.WithContext(ctx).
		Where("doctor_id = ? AND appointment_date >= ? AND status IN ?", doctorID, from, models.ActiveStatuses).
		Preload("Patient").
		Order("appointment_date, appointment_time").
		Find(&appts).Error
	return appts, err
}

// LinkDoctorPatient records the doctor-patient relationship if missing.
func (l *Ledger) LinkDoctorPatient(ctx context.Context, doctorID, patientID uint) error {
	link := models.DoctorPatient{DoctorID: doctorID, PatientID: patientID}
	return l.db.WithContext(ctx).
		Where("doctor_id = ? AND patient_id = ?", doctorID, patientID).
		FirstOrCreate(&link).Error
}

// PatientsOf returns the users linked to the doctor, by name.
func (l *Ledger) PatientsOf(ctx context.Context, doctorID uint) ([]models.User, error) {
	var patients []models.User
	err := l.db.WithContext(ctx).
		Joins("JOIN doctor_patients ON doctor_patients.patient_id = users.id").
		Where("doctor_patients.doctor_id = ?", doctorID).
		Order("users.last_name, users.first_name").
		Find(&patients).Error
	return patients, err
}
