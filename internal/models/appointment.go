package models

import (
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "PENDING"
	StatusConfirmed AppointmentStatus = "CONFIRMED"
	StatusCancelled AppointmentStatus = "CANCELLED"
	StatusCompleted AppointmentStatus = "COMPLETED"
)

// ActiveStatuses are the statuses that occupy a doctor's slot.
var ActiveStatuses = []AppointmentStatus{StatusPending, StatusConfirmed}

// ParseAppointmentStatus accepts a status name case-insensitively.
func ParseAppointmentStatus(s string) (AppointmentStatus, error) {
	status := AppointmentStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch status {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return status, nil
	}
	return "", fmt.Errorf("unknown appointment status %q", s)
}

// IsTerminal reports whether no further transition is possible.
func (s AppointmentStatus) IsTerminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// IsActive reports whether the status holds the doctor's slot.
func (s AppointmentStatus) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Appointment is a patient's booking of one slot with a doctor.
type Appointment struct {
	BaseModel
	PatientID     uint              `gorm:"index;not null" json:"patientId"`
	DoctorID      uint              `gorm:"index:idx_appointment_doctor_day;not null" json:"doctorId"`
	Date          datatypes.Date    `gorm:"column:appointment_date;index:idx_appointment_doctor_day;not null" json:"date"`
	Time          TimeOfDay         `gorm:"column:appointment_time;size:5;not null" json:"time"`
	Status        AppointmentStatus `gorm:"size:20;not null;index" json:"status"`
	Notes         string            `gorm:"type:text" json:"notes"`
	DoctorMessage string            `gorm:"type:text" json:"doctorMessage"`

	// ActiveSlot is "doctor|date|time" while the appointment is PENDING or
	// CONFIRMED and NULL otherwise. Its unique index rejects a second live
	// booking for the same slot.
	ActiveSlot *string `gorm:"size:64;uniqueIndex" json:"-"`

	// Relations
	Patient User `gorm:"foreignKey:PatientID;constraint:OnDelete:CASCADE" json:"-"`
	Doctor  User `gorm:"foreignKey:DoctorID;constraint:OnDelete:CASCADE" json:"-"`
}

// SlotKey identifies a doctor's slot independent of any appointment.
func SlotKey(doctorID uint, date datatypes.Date, t TimeOfDay) string {
	return fmt.Sprintf("%d|%s|%s", doctorID, FormatDate(date), t)
}

// ActiveSlotFor returns the ActiveSlot column value the appointment should
// carry once it is in status.
func (a *Appointment) ActiveSlotFor(status AppointmentStatus) *string {
	if !status.IsActive() {
		return nil
	}
	key := SlotKey(a.DoctorID, a.Date, a.Time)
	return &key
}

// BeforeCreate keeps ActiveSlot consistent with the initial status.
func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.Status == "" {
		a.Status = StatusPending
	}
	a.ActiveSlot = a.ActiveSlotFor(a.Status)
	return nil
}

func (s AppointmentStatus) String() string { return string(s) }
