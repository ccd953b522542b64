package models

import (
	"strings"
	"time"
)

// User represents an account in the system. Authentication happens
// upstream; the booking core only needs identity and role.
type User struct {
	BaseModel
	Email     string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	FirstName string `gorm:"size:100" json:"firstName"`
	LastName  string `gorm:"size:100" json:"lastName"`
	Role      Role   `gorm:"size:20;not null;index" json:"role"`

	// Relations (not always preloaded)
	DoctorProfile       *DoctorProfile `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	DoctorAppointments  []Appointment  `gorm:"foreignKey:DoctorID;constraint:OnDelete:CASCADE" json:"-"`
	PatientAppointments []Appointment  `gorm:"foreignKey:PatientID;constraint:OnDelete:CASCADE" json:"-"`
}

// FullName joins first and last name, falling back to the email.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// UserSanitized represents the user data that is safe to send in API responses.
type UserSanitized struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	FullName  string    `json:"fullName"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Sanitize creates a UserSanitized struct from a User model.
func (u *User) Sanitize() UserSanitized {
	return UserSanitized{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		FullName:  u.FullName(),
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}
