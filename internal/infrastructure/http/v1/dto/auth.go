package dto

import "time"

// DevTokenRequest asks for a signed token for an arbitrary identity.
// Only served outside production.
type DevTokenRequest struct {
	UserID string   `json:"userId" binding:"required,max=100"`
	Roles  []string `json:"roles" binding:"required,min=1,dive,oneof=admin worker"`
}

// TokenResponse carries a signed access token.
type TokenResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}
