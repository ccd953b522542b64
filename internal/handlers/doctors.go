package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"hospital-app-server/internal/booking"
	"hospital-app-server/internal/clock"
	"hospital-app-server/internal/models"
	"hospital-app-server/internal/scheduling"
	"hospital-app-server/internal/utils"
)

// DoctorHandler serves the doctor directory, availability and the doctor's
// own schedule management.
type DoctorHandler struct {
	Store     *scheduling.Store
	Resolver  *scheduling.Resolver
	Lifecycle *booking.Lifecycle
	Ledger    *booking.Ledger
	Clock     clock.Clock
	Location  *time.Location
	Log       zerolog.Logger
}

// NewDoctorHandler creates a new DoctorHandler.
func NewDoctorHandler(
	store *scheduling.Store,
	resolver *scheduling.Resolver,
	lifecycle *booking.Lifecycle,
	ledger *booking.Ledger,
	clk clock.Clock,
	loc *time.Location,
	log zerolog.Logger,
) *DoctorHandler {
	return &DoctorHandler{
		Store:     store,
		Resolver:  resolver,
		Lifecycle: lifecycle,
		Ledger:    ledger,
		Clock:     clk,
		Location:  loc,
		Log:       log,
	}
}

// DoctorResponse is one entry of the doctor directory.
type DoctorResponse struct {
	ID                uint   `json:"id"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	Specialization    string `json:"specialization"`
	YearsOfExperience int    `json:"yearsOfExperience"`
}

// ListDoctors returns every bookable doctor.
func (h *DoctorHandler) ListDoctors(c *gin.Context) {
	profiles, err := h.Store.ListDoctors(c.Request.Context())
	if err != nil {
		utils.RespondError(c, h.Log, err)
		return
	}

	doctors := make([]DoctorResponse, 0, len(profiles))
	for _, p := range profiles {
		doctors = append(doctors, DoctorResponse{
			ID:                p.UserID,
			Name:              p.User.FullName(),
			Email:             p.User.Email,
			Specialization:    p.Specialization,
			YearsOfExperience: p.YearsOfExperience,
		})
	}
	utils.Success(c, "Doctors fetched successfully", doctors)
}

// AvailableSlots answers {"slots": [...]} with the doctor's free start times
// on the requested date.
func (h *DoctorHandler) AvailableSlots(c *gin.Context) {
	doctorID, ok := idParam(c, "doctor_id")
	if !ok {
		return
	}

	raw := c.Query("date")
	if raw == "" {
		utils.BadRequest(c, "Missing date parameter.")
		return
	}
	date, err := models.ParseDate(raw)
	if err != nil {
		utils.BadRequest(c, "Invalid date format. Use YYYY-MM-DD.")
		return
	}

	ctx := c.Request.Context()
	if _, err := h.Store.DoctorProfile(ctx, doctorID); err != nil {
		utils.RespondError(c, h.Log, err)
		return
	}

	slots, err := h.Resolver.AvailableSlots(ctx, doctorID, date)
	if err != nil {
		utils.RespondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": slots})
}

// ApproveAppointment confirms one of the doctor's PENDING appointments.
func (h *DoctorHandler) ApproveAppointment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	appt, err := h.Lifecycle.Approve(c.Request.Context(), actor, id)
	if err != nil {
		utils.RespondError(c, h.Log, err)
		return
	}
	utils.Success(c, "Appointment confirmed successfully.", newAppointmentResponse(appt))
}

// CancelAppointment cancels one of the doctor's appointments, optionally
// leaving a message for the patient.
func (h *DoctorHandler) CancelAppointment(c *gin.Context) {
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

// CompleteAppointment marks one of the doctor's CONFIRMED appointments done.
func (h *DoctorHandler) CompleteAppointment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	appt, err := h.Lifecycle.Complete(c.Request.Context(), actor, id)
	if err != nil {
		utils.RespondError(c, h.Log, err)
		return
	}
	utils.Success(c, "Appointment marked as completed.", newAppointmentResponse(appt))
}

// ScheduleResponse is a doctor's weekly windows and upcoming time off.
type ScheduleResponse struct {
	WeeklyWindows []models.WeeklyAvailabilityWindow `json:"weeklyWindows"`
	TimeOff       []models.TimeOffInterval          `json:"timeOff"`
}

// GetSchedule returns the calling doctor's schedule.
func (h *DoctorHandler) GetSchedule(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.Store.DoctorProfile(ctx, actor.UserID); err != nil {
		utils.RespondError(c, h.Log, err)
		return
	}

	windows, err := h.Store.ListWeeklyWindows(ctx, actor.UserID)
	if err != nil {
		utils.RespondError(c, h.Log, err)
		return
	}
	timeOff, err := h.Store.ListActiveTimeOff(ctx, actor.UserID, h.Clock.Now())
	if err != nil {
		utils.RespondError(c, h.Log, err)
		return
	}

	if windows == nil {
		windows = []models.WeeklyAvailabilityWindow{}
	}
	if timeOff == nil {
		timeOff = []models.TimeOffInterval{}
	}
	utils.Success(c, "Schedule fetched successfully", ScheduleResponse{WeeklyWindows: windows, TimeOff: timeOff})
}

// UpsertWindowRequest sets the window for one weekday (0 = Monday).
type UpsertWindowRequest struct {
	DayOfWeek   *int   `json:"day_of_week" binding:"required,min=0,max=6"`
	StartTime   string `json:"start_time" binding:"required,datetime=15:04"`
	EndTime     string `json:"end_time" binding:"required,datetime=15:04"`
	IsAvailable *bool  `json:"is_available"`
}

// UpsertWindow creates or replaces the doctor's window for a weekday.
func (h *DoctorHandler) UpsertWindow(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req UpsertWindowRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	ctx := c.Request.Context()
	if _, err := h.Store.DoctorProfile(ctx, actor.UserID); err != nil {
		utils.RespondError(c, h.Log, err)
		return
	}

	start, _ := models.ParseTimeOfDay(req.StartTime)
	end, _ := models.ParseTimeOfDay(req.EndTime)
	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}

	window, err := h.Store.UpsertWeeklyWindow(ctx, actor.UserID, scheduling.WindowInput{
		DayOfWeek:   *req.DayOfWeek,
		StartTime:   start,
		EndTime:     end,
		IsAvailable: available,
	})
	if err != nil {
		utils.RespondError(c, h.Log, err)
		return
	}
	h.Resolver.ForgetDoctor(ctx, actor.UserID)

	utils.Success(c, "Schedule updated successfully.", window)
}

// DeleteWindow removes one of the doctor's weekly windows.
func (h *DoctorHandler) DeleteWindow(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.Store.DeleteWeeklyWindow(ctx, actor.UserID, id); err != nil {
		utils.RespondError(c, h.Log, err)
		return
	}
	h.Resolver.ForgetDoctor(ctx, actor.UserID)

	utils.Success(c, "Schedule entry deleted successfully.", nil)
}

// TimeOffRequest records a time-off interval. Times are RFC 3339, or
// "2006-01-02T15:04" read in the clinic time zone.
type TimeOffRequest struct {
	StartAt string `json:"start_at" binding:"required"`
	EndAt   string `json:"end_at" binding:"required"`
	Reason  string `json:"reason" binding:"max=255"`
}

func (h *DoctorHandler) parseInstant(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04", s, h.Location); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// AddTimeOff records a time-off interval for the calling doctor.
func (h *DoctorHandler) AddTimeOff(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req TimeOffRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	errs := map[string][]string{}
	start, ok := h.parseInstant(req.StartAt)
	if !ok {
		errs["start_at"] = []string{"Invalid format. Use YYYY-MM-DDTHH:MM."}
	}
	end, ok := h.parseInstant(req.EndAt)
	if !ok {
		errs["end_at"] = []string{"Invalid format. Use YYYY-MM-DDTHH:MM."}
	}
	if len(errs) > 0 {
		utils.ValidationFailed(c, errs)
		return
	}

	ctx := c.Request.Context()
	if _, err := h.Store.DoctorProfile(ctx, actor.UserID); err != nil {
		utils.RespondError(c, h.Log, err)
		return
	}

	interval, err := h.Store.AddTimeOff(ctx, actor.UserID, scheduling.TimeOffInput{
		StartAt: start,
		EndAt:   end,
		Reason:  req.Reason,
	})
	if err != nil {
		utils.RespondError(c, h.Log, err)
		return
	}
	h.Resolver.ForgetDoctor(ctx, actor.UserID)

	utils.Created(c, "Time off added successfully.", interval)
}

// ListPatients returns the patients the calling doctor has accepted.
func (h *DoctorHandler) ListPatients(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	patients, err := h.Ledger.PatientsOf(c.Request.Context(), actor.UserID)
	if err != nil {
		utils.RespondError(c, h.Log, err)
		return
	}

	out := make([]models.UserSanitized, 0, len(patients))
	for i := range patients {
		out = append(out, patients[i].Sanitize())
	}
	utils.Success(c, "Patients fetched successfully", out)
}
