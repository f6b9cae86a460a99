package domain

import "time"

type User struct {
	ID              string     `json:"id"`
	Username        string     `json:"username"`
	Email           string     `json:"email"`
	PasswordHash    string     `json:"-"`
	FirstName       string     `json:"first_name,omitempty"`
	LastName        string     `json:"last_name,omitempty"`
	Bio             string     `json:"bio,omitempty"`
	ProfileImage    string     `json:"profile_image,omitempty"`
	DateOfBirth     *time.Time `json:"date_of_birth,omitempty"`
	VetProfessional bool       `json:"vet_professional"`
	CreatedAt       time.Time  `json:"created_at"`
}

// UserSummary is the only shape in which a user identity crosses the
// external boundary as an author, seller, follower or reaction actor.
// Verified always comes from the professional credential lookup, never
// from a field copied somewhere else.
type UserSummary struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	ProfileImage string `json:"profile_image,omitempty"`
	Verified     bool   `json:"verified"`
}
