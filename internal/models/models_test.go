package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppointmentStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to AppointmentStatus
		ok       bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusCompleted, true},
		{StatusPending, StatusCompleted, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCancelled, StatusCancelled, false},
		{StatusCompleted, StatusCancelled, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ok, tt.from.CanTransition(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestActiveStatuses(t *testing.T) {
	assert.True(t, StatusPending.Active())
	assert.True(t, StatusConfirmed.Active())
	assert.False(t, StatusCancelled.Active())
	assert.False(t, StatusCompleted.Active())
}

func TestSplitName(t *testing.T) {
	first, last := SplitName("  Ada  Lovelace King ")
	assert.Equal(t, "Ada", first)
	assert.Equal(t, "Lovelace King", last)

	first, last = SplitName("Plato")
	assert.Equal(t, "Plato", first)
	assert.Empty(t, last)
}

func TestUserHelpers(t *testing.T) {
	u := User{FirstName: "Ada", LastName: "Lovelace"}
	assert.Equal(t, "Ada Lovelace", u.FullName())
	assert.Equal(t, "ada@example.com", NormalizeEmail(" Ada@Example.COM "))
	assert.True(t, RoleDoctor.Valid())
	assert.False(t, Role("nurse").Valid())
	assert.True(t, ValidGender(""))
	assert.False(t, ValidGender("unknown"))
	assert.True(t, RecordDiagnosis.Valid())
	assert.False(t, RecordType("x-ray").Valid())
}
