package task

import (
	"time"

	"llmadmin/internal/op"
)

// Init registers the background jobs. The usage buffer is small, so a
// frequent flush keeps the analytics log close to real time without making
// the hot path wait on the database.
func Init() {
	Register("usage_flush", 30*time.Second, false, op.UsageFlushTask)
}
