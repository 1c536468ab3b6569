package domain

import "time"

// Note is a user-owned document. All mutations are owner-scoped; a note is
// never visible outside its owning user.
type Note struct {
	ID        string
	UserID    string
	Title     string
	Content   string
	CreatedAt time.Time
}
