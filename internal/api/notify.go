package api

import (
	"fmt"
	"time"

	"turfbook/internal/models"
)

// Notification subjects.
const (
	subjectAcknowledged = "Turf Booking Request Received"
	subjectConfirmed    = "Turf Booking Confirmation"
	subjectDeclined     = "Booking Declined"
	subjectAutoDeclined = "Booking Declined - Slot Already Booked"
)

func (s *Server) signature() string {
	sig := "Warm regards"
	if s.letters.SignatureName != "" {
		sig += ",\n" + s.letters.SignatureName
	}
	if s.letters.SignaturePhone != "" {
		sig += "\nPh: " + s.letters.SignaturePhone
	}
	return sig
}

func (s *Server) formatLocal(t time.Time) string {
	return t.In(s.cal.Location()).Format("02 Jan 2006, 3:04 PM")
}

// acknowledgementLetter confirms receipt of a new request. It is an
// acknowledgement only; the final outcome arrives in a later mail.
func (s *Server) acknowledgementLetter(r *models.BookingRequest) string {
	return fmt.Sprintf(`Greetings,

This email acknowledges your request to book the turf. Please find the details of your request below:

Name: %s
Requested Time: %s
Requested Date: %s
Request submitted at: %s

Please note that this is just an acknowledgment of your booking request. You will receive a final email confirming your booking if it is approved.

Requests are processed on a first-come-first-served basis based on submission time.

We kindly request you to await the confirmation email before making any plans regarding the turf usage.

If you have any questions or need further assistance, feel free to reach out.

%s`, r.Name, models.SlotTime(r.Slot), r.Date, s.formatLocal(r.CreatedAt), s.signature())
}

func (s *Server) confirmationLetter(r *models.BookingRequest) string {
	return fmt.Sprintf(`Greetings,

This email is to confirm your booking of the turf. Please find the booking details below:

Name: %s
Time: %s
Date: %s
Original Request Time: %s

We kindly request you to make the most of this facility while adhering to the rules and regulations that help us maintain it for everyone's enjoyment.

If you have any questions or need further assistance, feel free to reach out.

%s`, r.Name, models.SlotTime(r.Slot), r.Date, s.formatLocal(r.CreatedAt), s.signature())
}

func (s *Server) declineLetter() string {
	return fmt.Sprintf(`Greetings,

We regret to inform you that your booking request for the turf has been declined. We apologize for any inconvenience this may cause.

If you have any questions or need further clarification, feel free to reach out.

%s`, s.signature())
}

// autoDeclineLetter goes to every competitor cascaded out by an acceptance.
func (s *Server) autoDeclineLetter(winner *models.BookingRequest) string {
	return fmt.Sprintf(`Greetings,

We regret to inform you that your booking request for the turf has been declined as the slot has been allocated to an earlier request.

Slot: %d (%s)
Date: %s

We process requests on a first-come-first-served basis. Please try booking another available slot.

If you have any questions or need further clarification, feel free to reach out.

%s`, winner.Slot, models.SlotTime(winner.Slot), winner.Date, s.signature())
}
