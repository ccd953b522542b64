package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"hospital-app-server/internal/booking"
	"hospital-app-server/internal/middleware"
	"hospital-app-server/internal/models"
	"hospital-app-server/internal/utils"
)

// currentActor reads the authenticated user from the context, answering 401
// itself when it is missing.
func currentActor(c *gin.Context) (booking.Actor, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return booking.Actor{}, false
	}
	role, ok := middleware.GetUserRoleFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return booking.Actor{}, false
	}
	return booking.Actor{UserID: userID, Role: role}, true
}

// idParam parses a positive integer path parameter, answering 400 itself
// when it is malformed.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		utils.BadRequest(c, "Invalid "+name+" format")
		return 0, false
	}
	return uint(id), true
}

// AppointmentResponse is the JSON form of an appointment.
type AppointmentResponse struct {
	ID            uint                     `json:"id"`
	PatientID     uint                     `json:"patientId"`
	PatientName   string                   `json:"patientName,omitempty"`
	DoctorID      uint                     `json:"doctorId"`
	DoctorName    string                   `json:"doctorName,omitempty"`
	Date          string                   `json:"date"`
	Time          models.TimeOfDay         `json:"time"`
	Status        models.AppointmentStatus `json:"status"`
	Notes         string                   `json:"notes"`
	DoctorMessage string                   `json:"doctorMessage,omitempty"`
	CreatedAt     time.Time                `json:"createdAt"`
	UpdatedAt     time.Time                `json:"updatedAt"`
}

func newAppointmentResponse(a *models.Appointment) AppointmentResponse {
	resp := AppointmentResponse{
		ID:            a.ID,
		PatientID:     a.PatientID,
		DoctorID:      a.DoctorID,
		Date:          models.FormatDate(a.Date),
		Time:          a.Time,
		Status:        a.Status,
		Notes:         a.Notes,
		DoctorMessage: a.DoctorMessage,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
	if a.Patient.ID != 0 {
		resp.PatientName = a.Patient.FullName()
	}
	if a.Doctor.ID != 0 {
		resp.DoctorName = a.Doctor.FullName()
	}
	return resp
}

func newAppointmentResponses(appts []models.Appointment) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(appts))
	for i := range appts {
		out = append(out, newAppointmentResponse(&appts[i]))
	}
	return out
}
