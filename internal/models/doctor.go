package models

import (
	"time"
)

// DoctorProfile marks a DOCTOR-role user as bookable.
type DoctorProfile struct {
	BaseModel
	UserID            uint   `gorm:"uniqueIndex;not null" json:"userId"`
	Specialization    string `gorm:"size:100;not null" json:"specialization"`
	LicenseNumber     string `gorm:"uniqueIndex;size:50;not null" json:"licenseNumber"`
	YearsOfExperience int    `gorm:"not null" json:"yearsOfExperience"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// WeeklyAvailabilityWindow is a doctor's recurring working window for one
// weekday (0 = Monday). A doctor has at most one window per weekday.
type WeeklyAvailabilityWindow struct {
	BaseModel
	DoctorID    uint      `gorm:"uniqueIndex:idx_window_doctor_day;not null" json:"doctorId"`
	DayOfWeek   int       `gorm:"uniqueIndex:idx_window_doctor_day;not null" json:"dayOfWeek"`
	StartTime   TimeOfDay `gorm:"size:5;not null" json:"startTime"`
	EndTime     TimeOfDay `gorm:"size:5;not null" json:"endTime"`
	IsAvailable bool      `gorm:"not null" json:"isAvailable"`

	Doctor User `gorm:"foreignKey:DoctorID;constraint:OnDelete:CASCADE" json:"-"`
}

// Covers reports whether t falls in [StartTime, EndTime).
func (w *WeeklyAvailabilityWindow) Covers(t TimeOfDay) bool {
	return t >= w.StartTime && t < w.EndTime
}

// Fits reports whether a visit of length d starting at t ends by EndTime.
func (w *WeeklyAvailabilityWindow) Fits(t TimeOfDay, d time.Duration) bool {
	return w.Covers(t) && t.Add(d) <= w.EndTime
}

// TimeOffInterval blocks a doctor for an absolute span of time. Both ends
// are inclusive.
type TimeOffInterval struct {
	BaseModel
	DoctorID uint      `gorm:"index:idx_time_off_doctor_span;not null" json:"doctorId"`
	StartAt  time.Time `gorm:"index:idx_time_off_doctor_span;not null" json:"startAt"`
	EndAt    time.Time `gorm:"not null" json:"endAt"`
	Reason   string    `gorm:"size:255" json:"reason"`

	Doctor User `gorm:"foreignKey:DoctorID;constraint:OnDelete:CASCADE" json:"-"`
}

// Covers reports whether t lies within [StartAt, EndAt].
func (o *TimeOffInterval) Covers(t time.Time) bool {
	return !t.Before(o.StartAt) && !t.After(o.EndAt)
}

// Overlaps reports whether the interval intersects [from, to].
func (o *TimeOffInterval) Overlaps(from, to time.Time) bool {
	return !o.StartAt.After(to) && !o.EndAt.Before(from)
}

// DoctorPatient records that a doctor has accepted a patient at least once.
type DoctorPatient struct {
	BaseModel
	DoctorID  uint `gorm:"uniqueIndex:idx_doctor_patient;not null" json:"doctorId"`
	PatientID uint `gorm:"uniqueIndex:idx_doctor_patient;not null" json:"patientId"`

	Doctor  User `gorm:"foreignKey:DoctorID;constraint:OnDelete:CASCADE" json:"-"`
	Patient User `gorm:"foreignKey:PatientID;constraint:OnDelete:CASCADE" json:"-"`
}
