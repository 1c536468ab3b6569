package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered EventType = "user_registered"
	EventOTPIssued      EventType = "otp_issued"
	EventSessionIssued  EventType = "session_issued"
	EventNoteCreated    EventType = "note_created"
	EventNoteDeleted    EventType = "note_deleted"
)

// Event represents a domain event emitted by services. Payloads never carry
// secrets: no OTP codes, no session tokens.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Email     string `json:"email"`
	Federated bool   `json:"federated"`
}

// OTPIssuedPayload payload.
type OTPIssuedPayload struct {
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
	Purpose   string    `json:"purpose"`
}

// SessionIssuedPayload payload.
type SessionIssuedPayload struct {
	Method    string    `json:"method"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NoteCreatedPayload payload.
type NoteCreatedPayload struct {
	NoteID string `json:"note_id"`
	Title  string `json:"title"`
}

// NoteDeletedPayload payload.
type NoteDeletedPayload struct {
	NoteID string `json:"note_id"`
}
