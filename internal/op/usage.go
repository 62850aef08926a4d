package op

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"llmadmin/internal/db"
	"llmadmin/internal/model"
	"llmadmin/internal/utils/log"
	"llmadmin/internal/utils/snowflake"
)

// Usage events are buffered in memory and written in batches; the periodic
// flush task and shutdown hook drain the buffer. Append order within a batch
// is preserved by the monotonic snowflake IDs.
const usageBatchSize = 50

var usageCache = make([]model.UsageEvent, 0, usageBatchSize)
var usageCacheLock sync.Mutex

var usageFlushLock sync.Mutex

var usageSubscribers = make(map[chan model.UsageEvent]struct{})
var usageSubscribersLock sync.RWMutex

var usageStreamTokens = make(map[string]struct{})
var usageStreamTokensLock sync.RWMutex

// UsageAdd appends one immutable usage event. The write is buffered; a full
// buffer triggers a synchronous flush.
func UsageAdd(ctx context.Context, ev model.UsageEvent) error {
	ev.ID = snowflake.GenerateID()
	go notifyUsageSubscribers(ev)

	usageCacheLock.Lock()
	usageCache = append(usageCache, ev)
	if len(usageCache) >= usageBatchSize {
		usageCacheLock.Unlock()
		return usageFlushToDB(ctx)
	}
	usageCacheLock.Unlock()
	return nil
}

func usageFlushToDB(ctx context.Context) error {
	usageFlushLock.Lock()
	defer usageFlushLock.Unlock()

	usageCacheLock.Lock()
	if len(usageCache) == 0 {
		usageCacheLock.Unlock()
		return nil
	}
	batch := make([]model.UsageEvent, len(usageCache))
	copy(batch, usageCache)
	flushedUpto := len(batch)
	usageCacheLock.Unlock()

	result := db.GetDB().WithContext(ctx).Create(&batch)
	if result.Error != nil {
		return result.Error
	}

	usageCacheLock.Lock()
	if len(usageCache) >= flushedUpto {
		usageCache = usageCache[flushedUpto:]
	} else {
		usageCache = usageCache[:0]
	}
	if len(usageCache) == 0 {
		usageCache = make([]model.UsageEvent, 0, usageBatchSize)
	}
	usageCacheLock.Unlock()

	return nil
}

// UsageFlushTask is registered with the task runner.
func UsageFlushTask() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	startTime := time.Now()
	if err := usageFlushToDB(ctx); err != nil {
		log.Errorf("usage flush task error: %v", err)
		return
	}
	log.Debugf("usage flush task finished in %s", time.Since(startTime))
}

// UsageList returns events newest first, optionally restricted to a set of
// key IDs (nil means no restriction). Pending buffered events are flushed
// first so the query sees a consistent log.
func UsageList(ctx context.Context, keyIDs []int, page, pageSize int) ([]model.UsageEvent, error) {
	if err := usageFlushToDB(ctx); err != nil {
		return nil, err
	}

	query := db.GetDB().WithContext(ctx).Model(&model.UsageEvent{})
	if keyIDs != nil {
		query = query.Where("api_key_id IN ?", keyIDs)
	}

	var events []model.UsageEvent
	offset := (page - 1) * pageSize
	if err := query.Order("id DESC").Offset(offset).Limit(pageSize).Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// UsageSummarize aggregates request and token totals per key.
func UsageSummarize(ctx context.Context, keyIDs []int) ([]model.UsageSummary, error) {
	if err := usageFlushToDB(ctx); err != nil {
		return nil, err
	}

	query := db.GetDB().WithContext(ctx).Model(&model.UsageEvent{}).
		Select("api_key_id, COUNT(*) AS requests, COALESCE(SUM(tokens), 0) AS tokens").
		Group("api_key_id")
	if keyIDs != nil {
		query = query.Where("api_key_id IN ?", keyIDs)
	}

	var summaries []model.UsageSummary
	if err := query.Scan(&summaries).Error; err != nil {
		return nil, err
	}
	return summaries, nil
}

func UsageStreamTokenCreate() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(bytes)

	usageStreamTokensLock.Lock()
	usageStreamTokens[token] = struct{}{}
	usageStreamTokensLock.Unlock()

	return token, nil
}

func UsageStreamTokenVerify(token string) bool {
	usageStreamTokensLock.RLock()
	_, ok := usageStreamTokens[token]
	usageStreamTokensLock.RUnlock()
	return ok
}

func UsageStreamTokenRevoke(token string) {
	usageStreamTokensLock.Lock()
	delete(usageStreamTokens, token)
	usageStreamTokensLock.Unlock()
}

func UsageSubscribe() chan model.UsageEvent {
	ch := make(chan model.UsageEvent, 10)
	usageSubscribersLock.Lock()
	usageSubscribers[ch] = struct{}{}
	usageSubscribersLock.Unlock()
	return ch
}

func UsageUnsubscribe(ch chan model.UsageEvent) {
	usageSubscribersLock.Lock()
	delete(usageSubscribers, ch)
	usageSubscribersLock.Unlock()
	close(ch)
}

func notifyUsageSubscribers(ev model.UsageEvent) {
	usageSubscribersLock.RLock()
	defer usageSubscribersLock.RUnlock()

	for ch := range usageSubscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}
