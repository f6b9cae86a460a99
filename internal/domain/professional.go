package domain

import "time"

// VetProfessional is the professional credential record, at most one per
// user. The one-time code and its expiry are always set and cleared as a
// pair and never serialize to clients.
type VetProfessional struct {
	ID                      string     `json:"-"`
	UserID                  string     `json:"-"`
	ReferenceNumber         string     `json:"reference_number"`
	RCVSEmail               string     `json:"rcvs_email"`
	RegistrationDate        *time.Time `json:"registration_date,omitempty"`
	Location                string     `json:"location,omitempty"`
	FieldOfWork             string     `json:"field_of_work,omitempty"`
	Verified                bool       `json:"verified"`
	VerificationCode        string     `json:"-"`
	VerificationCodeExpires *time.Time `json:"-"`
	CreatedAt               time.Time  `json:"-"`
}

// HasCode reports whether an issued code is currently stored.
func (p VetProfessional) HasCode() bool {
	return p.VerificationCode != "" && p.VerificationCodeExpires != nil
}
