package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"turfbook/internal/otp"
)

// OTPRequest is the request body for the OTP endpoints.
type OTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"otp,omitempty"`
}

// handleSendOTP issues a one-time code to the given address.
// POST /api/otp/send
func (s *Server) handleSendOTP(w http.ResponseWriter, r *http.Request) {
	if s.otp == nil {
		writeError(w, http.StatusServiceUnavailable, "identity verification is not configured")
		return
	}

	var req OTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	if err := s.otp.Issue(r.Context(), req.Email); err != nil {
		if errors.Is(err, otp.ErrInvalidEmail) {
			writeError(w, http.StatusBadRequest, "Invalid email address")
			return
		}
		s.log.Error().Err(err).Str("email", req.Email).Msg("OTP send failed")
		writeError(w, http.StatusInternalServerError, "Failed to send OTP email")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "OTP sent successfully"})
}

// handleVerifyOTP checks and consumes a one-time code.
// POST /api/otp/verify
func (s *Server) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	if s.otp == nil {
		writeError(w, http.StatusServiceUnavailable, "identity verification is not configured")
		return
	}

	var req OTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Code == "" {
		writeError(w, http.StatusBadRequest, "email and otp are required")
		return
	}

	if err := s.otp.Verify(r.Context(), req.Email, req.Code); err != nil {
		if errors.Is(err, otp.ErrCodeMismatch) {
			writeError(w, http.StatusBadRequest, "Invalid or expired OTP")
			return
		}
		s.log.Error().Err(err).Str("email", req.Email).Msg("OTP verify failed")
		writeError(w, http.StatusInternalServerError, "Error verifying OTP")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "OTP verified successfully"})
}
