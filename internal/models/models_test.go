package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidSlot(t *testing.T) {
	assert.True(t, ValidSlot(MinSlot))
	assert.True(t, ValidSlot(7))
	assert.True(t, ValidSlot(MaxSlot))
	assert.False(t, ValidSlot(0))
	assert.False(t, ValidSlot(15))
	assert.False(t, ValidSlot(-1))
}

func TestValidDecision(t *testing.T) {
	assert.True(t, ValidDecision(StatusAccepted))
	assert.True(t, ValidDecision(StatusDeclined))
	assert.False(t, ValidDecision(StatusPending))
	assert.False(t, ValidDecision(""))
	assert.False(t, ValidDecision("Accepted"))
}

func TestSlotTime(t *testing.T) {
	assert.Equal(t, "6:30 AM - 7:30 AM", SlotTime(1))
	assert.Equal(t, "3:30 PM - 5:00 PM", SlotTime(10))
	assert.Equal(t, "8:00 PM - 9:30 PM", SlotTime(14))
	assert.Equal(t, "Unknown time range", SlotTime(0))
	assert.Equal(t, "Unknown time range", SlotTime(15))
}

func TestIsPending(t *testing.T) {
	r := &BookingRequest{Status: StatusPending}
	assert.True(t, r.IsPending())

	r.Status = StatusAccepted
	assert.False(t, r.IsPending())
}
