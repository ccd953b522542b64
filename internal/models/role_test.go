package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleNames(t *testing.T) {
	names := make([]string, 0, len(AllRoles))
	for _, r := range AllRoles {
		names = append(names, r.String())
	}
	assert.Equal(t, []string{"PATIENT", "DOCTOR", "LAB_ATTENDANT", "ADMIN"}, names)
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("lab_attendant")
	require.NoError(t, err)
	assert.Equal(t, RoleLabAttendant, r)

	_, err = ParseRole("nurse")
	assert.Error(t, err)
}

func TestRoleRejectsZeroValue(t *testing.T) {
	var r Role
	assert.False(t, r.Valid())
	_, err := r.Value()
	assert.Error(t, err)
	_, err = json.Marshal(r)
	assert.Error(t, err)
}

func TestRoleRoundTripThroughColumn(t *testing.T) {
	v, err := RoleDoctor.Value()
	require.NoError(t, err)

	var r Role
	require.NoError(t, r.Scan(v))
	assert.Equal(t, RoleDoctor, r)
}

func TestAppointmentStatus(t *testing.T) {
	s, err := ParseAppointmentStatus("confirmed")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, s)

	_, err = ParseAppointmentStatus("RESCHEDULED")
	assert.Error(t, err)

	assert.True(t, StatusCancelled.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.True(t, StatusConfirmed.IsActive())
}

func TestActiveSlotFollowsStatus(t *testing.T) {
	date, err := ParseDate("2026-10-20")
	require.NoError(t, err)
	appt := &Appointment{DoctorID: 7, Date: date, Time: NewTimeOfDay(9, 30)}

	require.NoError(t, appt.BeforeCreate(nil))
	assert.Equal(t, StatusPending, appt.Status)
	require.NotNil(t, appt.ActiveSlot)
	assert.Equal(t, "7|2026-10-20|09:30", *appt.ActiveSlot)
	assert.Nil(t, appt.ActiveSlotFor(StatusCancelled))
}
