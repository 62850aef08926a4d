package model

import (
	"strings"
	"time"
)

// DefaultRateLimit is the number of requests a key may spend per
// rate-limit window when no explicit limit is configured.
const DefaultRateLimit = 60

type APIKey struct {
	ID        int        `json:"id" gorm:"primaryKey"`
	UserID    int        `json:"user_id" gorm:"index;not null"`
	Name      string     `json:"name" gorm:"not null"`
	Key       string     `json:"key" gorm:"uniqueIndex;not null"`
	RateLimit int        `json:"rate_limit" gorm:"default:60"`
	IsActive  bool       `json:"is_active" gorm:"default:true"`
	LastUsed  *time.Time `json:"last_used"`
	CreatedAt time.Time  `json:"created_at"`
}

// Masked returns a copy safe for listing: the secret is shown in full
// only once, at creation time.
func (k APIKey) Masked() APIKey {
	if len(k.Key) > 8 {
		k.Key = k.Key[:8] + strings.Repeat("*", 4)
	}
	return k
}

type APIKeyCreate struct {
	Name      string `json:"name" binding:"required"`
	RateLimit int    `json:"rate_limit" binding:"omitempty,min=1"`
}

type APIKeyUpdate struct {
	Name      *string `json:"name"`
	RateLimit *int    `json:"rate_limit" binding:"omitempty,min=1"`
	IsActive  *bool   `json:"is_active"`
}
