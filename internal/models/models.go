package models

import "time"

// Booking request statuses.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusDeclined = "declined"
)

// Slot numbers are fixed: 14 bookable ranges per day.
const (
	MinSlot = 1
	MaxSlot = 14
)

// BookingRequest is one person's ask for one slot on one date.
type BookingRequest struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	RollNo        string    `json:"rollno"`
	Email         string    `json:"email"`
	Purpose       string    `json:"purpose"`
	PlayerRollNos string    `json:"player_roll_no"`
	PlayerCount   int       `json:"no_of_players"`
	Slot          int       `json:"slot"`
	Date          string    `json:"date"` // YYYY-MM-DD in the tracked civil zone
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsPending reports whether the request is still awaiting a decision.
func (r *BookingRequest) IsPending() bool {
	return r.Status == StatusPending
}

// SlotStatusRecord is the denormalized projection of the latest status for a
// (requester, slot) combination, kept for display without re-aggregating
// booking requests. It is written in the same transaction as its paired
// BookingRequest.
type SlotStatusRecord struct {
	ID          int64     `json:"id"`
	RollNo      string    `json:"rollno"`
	Slot        int       `json:"slot"`
	Date        string    `json:"date"`
	Status      string    `json:"status"`
	RequestedAt time.Time `json:"request_time"`
}

// BanEntry blocks an identity from submitting requests.
type BanEntry struct {
	RollNo    string    `json:"rollno"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// Aggregate slot availability values, in precedence order booked > requested > available.
const (
	SlotAvailable = "available"
	SlotRequested = "requested"
	SlotBooked    = "booked"
)

// SlotAvailability is one cell of the availability grid.
type SlotAvailability struct {
	Slot   int    `json:"slot"`
	Date   string `json:"date"`
	Status string `json:"status"`
}

var slotTimes = map[int]string{
	1:  "6:30 AM - 7:30 AM",
	2:  "7:30 AM - 8:30 AM",
	3:  "8:30 AM - 9:30 AM",
	4:  "9:30 AM - 10:30 AM",
	5:  "10:30 AM - 11:30 AM",
	6:  "11:30 AM - 12:30 PM",
	7:  "12:30 PM - 1:30 PM",
	8:  "1:30 PM - 2:30 PM",
	9:  "2:30 PM - 3:30 PM",
	10: "3:30 PM - 5:00 PM",
	11: "5:00 PM - 6:00 PM",
	12: "6:00 PM - 7:00 PM",
	13: "7:00 PM - 8:00 PM",
	14: "8:00 PM - 9:30 PM",
}

// SlotTime returns the human-readable time range for a slot number.
// Used only for notification text, never for arbitration.
func SlotTime(slot int) string {
	if t, ok := slotTimes[slot]; ok {
		return t
	}
	return "Unknown time range"
}

// ValidSlot reports whether slot is within the bookable domain.
func ValidSlot(slot int) bool {
	return slot >= MinSlot && slot <= MaxSlot
}

// ValidDecision reports whether status is an allowed transition target.
func ValidDecision(status string) bool {
	return status == StatusAccepted || status == StatusDeclined
}
