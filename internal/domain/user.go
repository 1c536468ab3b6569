package domain

import "time"

// User is the durable identity record, keyed by its unique email. The OTP
// code and expiry travel on the record itself; at most one live pair exists
// at a time and issuing a new code overwrites the previous one.
type User struct {
	ID          string
	Email       string
	Name        string
	DateOfBirth *time.Time
	GoogleID    *string
	OTPCode     *string
	OTPExpiry   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ClearOTP removes the live code pair after a successful verification.
func (u *User) ClearOTP() {
	u.OTPCode = nil
	u.OTPExpiry = nil
}
