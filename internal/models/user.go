package models

import "time"

// User represents an account in the system, created lazily on the first
// authenticated request carrying an unseen external identity.
type User struct {
	ID          string    `json:"id"`
	ExternalUID string    `json:"external_uid"`
	Email       string    `json:"email"`
	DisplayName *string   `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
