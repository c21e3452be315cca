package domain

import "time"

// Caller is the authenticated service behind a request
type Caller struct {
	Subject   string    `json:"subject"`
	ExpiresAt time.Time `json:"expiresAt"`
}
