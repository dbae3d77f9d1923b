package models

import "time"

// User is an applicant account. PasswordHash is the only field updated after
// registration.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	StudentName  string
	CreatedAt    time.Time
}
