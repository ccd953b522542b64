package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"hospital-app-server/internal/apperr"
	"hospital-app-server/internal/booking"
	"hospital-app-server/internal/clock"
	"hospital-app-server/internal/models"
	"hospital-app-server/internal/scheduling"
	"hospital-app-server/internal/utils"
)

// AppointmentHandler handles appointment related requests.
type AppointmentHandler struct {
	Validator *booking.Validator
	Lifecycle *booking.Lifecycle
	Ledger    *booking.Ledger
	Resolver  *scheduling.Resolver
	Clock     clock.Clock
	Location  *time.Location
	Log       zerolog.Logger
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(
	validator *booking.Validator,
	lifecycle *booking.Lifecycle,
	ledger *booking.Ledger,
	resolver *scheduling.Resolver,
	clk clock.Clock,
	loc *time.Location,
	log zerolog.Logger,
) *AppointmentHandler {
	return &AppointmentHandler{
		Validator: validator,
		Lifecycle: lifecycle,
		Ledger:    ledger,
		Resolver:  resolver,
		Clock:     clk,
		Location:  loc,
		Log:       log,
	}
}

// BookAppointmentRequest represents the request body for booking a slot.
type BookAppointmentRequest struct {
	DoctorID uint   `json:"doctor_id" binding:"required"`
	Date     string `json:"date" binding:"required,datetime=2006-01-02"`
	Time     string `json:"time" binding:"required,datetime=15:04"`
	Notes    string `json:"notes" binding:"max=2000"`
}

// BookAppointment lets a patient request a slot with a doctor.
func (h *AppointmentHandler) BookAppointment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req BookAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	// Both were checked by the binding tags above.
	date, _ := models.ParseDate(req.Date)
	at, _ := models.ParseTimeOfDay(req.Time)

	appt, err := h.Validator.Book(c.Request.Context(), booking.Request{
		PatientID: actor.UserID,
		DoctorID:  req.DoctorID,
		Date:      date,
		Time:      at,
		Notes:     req.Notes,
	})
	if err != nil {
		utils.RespondError(c, h.Log, err)
		return
	}
	h.Resolver.ForgetDay(c.Request.Context(), appt.DoctorID, appt.Date)

	utils.Created(c, "Appointment booked successfully. Waiting for doctor confirmation.", newAppointmentResponse(appt))
}

// ListAppointmentsQuery holds the optional listing filters.
type ListAppointmentsQuery struct {
	DateFrom string `form:"date_from" json:"date_from" binding:"omitempty,datetime=2006-01-02"`
	DateTo   string `form:"date_to" json:"date_to" binding:"omitempty,datetime=2006-01-02"`
	Status   string `form:"status" json:"status" binding:"omitempty,oneof=PENDING CONFIRMED CANCELLED COMPLETED"`
}

// ListAppointments returns the caller's appointments: a patient's own, a
// doctor's own, or every appointment for an admin.
func (h *AppointmentHandler) ListAppointments(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var q ListAppointmentsQuery
	if !utils.BindQuery(c, &q) {
		return
	}

	filter := booking.Filter{Status: models.AppointmentStatus(q.Status)}
	if q.DateFrom != "" {
		d, _ := models.ParseDate(q.DateFrom)
		filter.DateFrom = &d
	}
	if q.DateTo != "" {
		d, _ := models.ParseDate(q.DateTo)
		filter.DateTo = &d
	}

	appts, err := h.Ledger.List(c.Request.Context(), booking.Scope{UserID: actor.UserID, Role: actor.Role}, filter)
	if err != nil {
		utils.RespondError(c, h.Log, err)
		return
	}
	utils.Success(c, "Appointments fetched successfully", newAppointmentResponses(appts))
}

// GetAppointment returns one appointment to its patient, its doctor or an admin.
func (h *AppointmentHandler) GetAppointment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	appt, err := h.Ledger.Get(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, h.Log, err)
		return
	}

	involved := actor.UserID == appt.PatientID || actor.UserID == appt.DoctorID
	if actor.Role != models.RoleAdmin && !involved {
		utils.RespondError(c, h.Log, apperr.PermissionDenied("You are not authorized to view this appointment"))
		return
	}
	utils.Success(c, "Appointment fetched successfully", newAppointmentResponse(appt))
}

// CancelAppointmentRequest is the optional body of a cancellation.
type CancelAppointmentRequest struct {
	DoctorMessage string `json:"doctor_message" binding:"max=2000"`
}

// CancelAppointment cancels an appointment the caller is involved in.
func (h *AppointmentHandler) CancelAppointment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req CancelAppointmentRequest
	if c.Request.ContentLength > 0 && !utils.BindAndValidate(c, &req) {
		return
	}

	appt, err := h.Lifecycle.Cancel(c.Request.Context(), actor, id, req.DoctorMessage)
	if err != nil {
		utils.RespondError(c, h.Log, err)
		return
	}
	utils.Success(c, "Appointment cancelled successfully.", newAppointmentResponse(appt))
}

// UpdateAppointmentStatusRequest represents the request body for updating an appointment's status.
type UpdateAppointmentStatusRequest struct {
	Status        string  `json:"status" binding:"required,oneof=PENDING CONFIRMED CANCELLED COMPLETED"`
	Notes         *string `json:"notes" binding:"omitempty,max=2000"`
	DoctorMessage *string `json:"doctor_message" binding:"omitempty,max=2000"`
}

// UpdateAppointmentStatus applies any allowed transition, optionally
// replacing the notes.
func (h *AppointmentHandler) UpdateAppointmentStatus(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req UpdateAppointmentStatusRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	appt, err := h.Lifecycle.Transition(c.Request.Context(), actor, id, models.AppointmentStatus(req.Status), booking.Change{
		Notes:         req.Notes,
		DoctorMessage: req.DoctorMessage,
	})
	if err != nil {
		utils.RespondError(c, h.Log, err)
		return
	}
	utils.Success(c, "Appointment status updated successfully", newAppointmentResponse(appt))
}

// DoctorScheduleResponse lists a doctor's live appointments.
type DoctorScheduleResponse struct {
	Today                string                `json:"today"`
	TodayAppointments    []AppointmentResponse `json:"todayAppointments"`
	UpcomingAppointments []AppointmentResponse `json:"upcomingAppointments"`
}

// DoctorSchedule returns today's and upcoming PENDING or CONFIRMED
// appointments of the calling doctor.
func (h *AppointmentHandler) DoctorSchedule(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	today := models.DateOf(h.Clock.Now().In(h.Location))

	todays, err := h.Ledger.OnDate(ctx, actor.UserID, today)
	if err != nil {
		utils.RespondError(c, h.Log, err)
		return
	}
	upcoming, err := h.Ledger.Upcoming(ctx, actor.UserID, today)
	if err != nil {
		utils.RespondError(c, h.Log, err)
		return
	}

	utils.Success(c, "Schedule fetched successfully", DoctorScheduleResponse{
		Today:                models.FormatDate(today),
		TodayAppointments:    newAppointmentResponses(todays),
		UpcomingAppointments: newAppointmentResponses(upcoming),
	})
}
