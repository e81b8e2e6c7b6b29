package domain

import "time"

type User struct {
	ID                int64
	Email             string
	PasswordHash      string
	FirstName         string
	LastName          string
	EmailVerified     bool
	VerifyToken       string
	VerifyTokenExpiry time.Time
	CreatedAt         time.Time
}
