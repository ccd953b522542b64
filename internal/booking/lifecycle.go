package booking

import (
	"context"
	"slices"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"hospital-app-server/internal/apperr"
	"hospital-app-server/internal/metrics"
	"hospital-app-server/internal/models"
)

// transitions lists the allowed next statuses. Terminal statuses have none.
var transitions = map[models.AppointmentStatus][]models.AppointmentStatus{
	models.StatusPending:   {models.StatusConfirmed, models.StatusCancelled},
	models.StatusConfirmed: {models.StatusCancelled, models.StatusCompleted},
}

// CanTransition reports whether from -> to is an edge of the state machine.
func CanTransition(from, to models.AppointmentStatus) bool {
	return slices.Contains(transitions[from], to)
}

// Actor is the authenticated user requesting a change.
type Actor struct {
	UserID uint
	Role   models.Role
}

// Change carries the optional text written together with a transition.
// Nil fields leave the stored value untouched.
type Change struct {
	Notes         *string
	DoctorMessage *string
}

// Lifecycle moves appointments through their status machine on behalf of
// authorized actors.
type Lifecycle struct {
	ledger  *Ledger
	onApply func(ctx context.Context, appt *models.Appointment)
	log     zerolog.Logger
}

// NewLifecycle wires a Lifecycle. onApply, if set, runs after each committed
// transition.
func NewLifecycle(ledger *Ledger, onApply func(ctx context.Context, appt *models.Appointment), log zerolog.Logger) *Lifecycle {
	return &Lifecycle{
		ledger:  ledger,
		onApply: onApply,
		log:     log.With().Str("component", "lifecycle").Logger(),
	}
}

// Approve confirms a PENDING appointment. Only its doctor may approve.
func (lc *Lifecycle) Approve(ctx context.Context, actor Actor, id uint) (*models.Appointment, error) {
	return lc.Transition(ctx, actor, id, models.StatusConfirmed, Change{})
}

// Cancel cancels a PENDING or CONFIRMED appointment. A doctor may attach a
// message for the patient.
func (lc *Lifecycle) Cancel(ctx context.Context, actor Actor, id uint, doctorMessage string) (*models.Appointment, error) {
	change := Change{}
	if doctorMessage != "" {
		change.DoctorMessage = &doctorMessage
	}
	return lc.Transition(ctx, actor, id, models.StatusCancelled, change)
}

// Complete marks a CONFIRMED appointment as done. Only its doctor may complete.
func (lc *Lifecycle) Complete(ctx context.Context, actor Actor, id uint) (*models.Appointment, error) {
	return lc.Transition(ctx, actor, id, models.StatusCompleted, Change{})
}

// Transition applies one status change. Checks run in this order: existence,
// ownership, terminal status, role permission for the target, edge validity.
func (lc *Lifecycle) Transition(ctx context.Context, actor Actor, id uint, to models.AppointmentStatus, change Change) (*models.Appointment, error) {
	var (
		appt *models.Appointment
		from models.AppointmentStatus
	)
	err := lc.ledger.InTx(ctx, func(tx *gorm.DB) error {
		ledger := lc.ledger.WithTx(tx)

		var err error
		appt, err = ledger.Get(ctx, id)
		if err != nil {
			return err
		}
		from = appt.Status

		if err := authorizeOwner(actor, appt); err != nil {
			return err
		}
		if from.IsTerminal() {
			return apperr.IllegalTransition(from, to)
		}
		if err := authorizeTarget(actor, to, change); err != nil {
			return err
		}
		if !CanTransition(from, to) {
			return apperr.IllegalTransition(from, to)
		}

		if change.Notes != nil {
			appt.Notes = *change.Notes
		}
		if change.DoctorMessage != nil {
			appt.DoctorMessage = *change.DoctorMessage
		}
		if err := ledger.SetStatus(ctx, appt, to); err != nil {
			return err
		}

		if from == models.StatusPending && to == models.StatusConfirmed {
			return ledger.LinkDoctorPatient(ctx, appt.DoctorID, appt.PatientID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.IncTransition(from.String(), to.String())
	lc.log.Info().
		Uint("appointment_id", appt.ID).
		Uint("actor_id", actor.UserID).
		Str("actor_role", actor.Role.String()).
		Str("from", from.String()).
		Str("to", to.String()).
		Msg("appointment status changed")

	if lc.onApply != nil {
		lc.onApply(ctx, appt)
	}
	return appt, nil
}

func authorizeOwner(actor Actor, appt *models.Appointment) error {
	switch actor.Role {
	case models.RoleDoctor:
		if appt.DoctorID != actor.UserID {
			return apperr.PermissionDenied("You don't have permission to modify this appointment.")
		}
	case models.RolePatient:
		if appt.PatientID != actor.UserID {
			return apperr.PermissionDenied("You don't have permission to modify this appointment.")
		}
	case models.RoleAdmin:
	case models.RoleLabAttendant:
		return apperr.PermissionDenied("Lab attendants cannot modify appointments.")
	default:
		return apperr.PermissionDenied("Unknown role.")
	}
	return nil
}

func authorizeTarget(actor Actor, to models.AppointmentStatus, change Change) error {
	switch actor.Role {
	case models.RoleDoctor:
		return nil
	case models.RolePatient:
		if to != models.StatusCancelled {
			return apperr.PermissionDenied("Patients can only cancel their appointments.")
		}
		if change.DoctorMessage != nil {
			return apperr.PermissionDenied("Only the doctor can leave a message on the appointment.")
		}
	case models.RoleAdmin:
		if to != models.StatusCancelled {
			return apperr.PermissionDenied("Administrators can only cancel appointments.")
		}
	case models.RoleLabAttendant:
		return apperr.PermissionDenied("Lab attendants cannot modify appointments.")
	default:
		return apperr.PermissionDenied("Unknown role.")
	}
	return nil
}
