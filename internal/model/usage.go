package model

// UsageEvent is an immutable record of one completed generation.
// Events are append-only; nothing in the system mutates or deletes them.
type UsageEvent struct {
	ID       int64  `json:"id" gorm:"primaryKey;autoIncrement:false"` // snowflake ID
	APIKeyID int    `json:"api_key_id" gorm:"index"`
	UserID   int    `json:"user_id" gorm:"index"`
	Tokens   int    `json:"tokens"`
	Endpoint string `json:"endpoint"`
	Time     int64  `json:"time"` // unix seconds
}

type UsageSummary struct {
	APIKeyID int   `json:"api_key_id"`
	Requests int64 `json:"requests"`
	Tokens   int64 `json:"tokens"`
}
