package op

import (
	"context"
	"fmt"
	"time"

	"llmadmin/internal/db"
	"llmadmin/internal/model"
	"llmadmin/internal/utils/cache"

	"github.com/samber/lo"
)

var apiKeyCache = cache.New[int, model.APIKey](16)

func APIKeyCreate(key *model.APIKey, ctx context.Context) error {
	if err := db.GetDB().WithContext(ctx).Create(key).Error; err != nil {
		return fmt.Errorf("failed to create API key: %w", err)
	}
	apiKeyCache.Set(key.ID, *key)
	return nil
}

func APIKeyUpdate(key *model.APIKey, ctx context.Context) error {
	existing, ok := apiKeyCache.Get(key.ID)
	if !ok {
		return fmt.Errorf("API key not found")
	}
	// The secret is assigned once and never rewritten.
	if err := db.GetDB().WithContext(ctx).Omit("key").Save(key).Error; err != nil {
		return fmt.Errorf("failed to update API key: %w", err)
	}
	key.Key = existing.Key
	apiKeyCache.Set(key.ID, *key)
	return nil
}

func APIKeyList(ctx context.Context) ([]model.APIKey, error) {
	keys := make([]model.APIKey, 0, apiKeyCache.Len())
	for _, apiKey := range apiKeyCache.GetAll() {
		keys = append(keys, apiKey)
	}
	return keys, nil
}

func APIKeyListByUser(userID int, ctx context.Context) ([]model.APIKey, error) {
	keys, err := APIKeyList(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Filter(keys, func(k model.APIKey, _ int) bool {
		return k.UserID == userID
	}), nil
}

func APIKeyGet(id int, ctx context.Context) (model.APIKey, error) {
	apiKey, ok := apiKeyCache.Get(id)
	if !ok {
		return model.APIKey{}, fmt.Errorf("API key not found")
	}
	return apiKey, nil
}

// APIKeyTouch records the last successful use of a key. Concurrent touches
// are last-write-wins; nothing stronger is needed.
func APIKeyTouch(ctx context.Context, id int, t time.Time) error {
	apiKey, ok := apiKeyCache.Get(id)
	if !ok {
		return fmt.Errorf("API key not found")
	}
	if err := db.GetDB().WithContext(ctx).Model(&model.APIKey{}).
		Where("id = ?", id).Update("last_used", t).Error; err != nil {
		return fmt.Errorf("failed to update last_used: %w", err)
	}
	apiKey.LastUsed = &t
	apiKeyCache.Set(id, apiKey)
	return nil
}

func APIKeyDelete(id int, ctx context.Context) error {
	result := db.GetDB().WithContext(ctx).Delete(&model.APIKey{ID: id})
	if result.Error != nil {
		return fmt.Errorf("failed to delete API key: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("API key not found")
	}
	apiKeyCache.Del(id)
	return nil
}

func apiKeyRefreshCache(ctx context.Context) error {
	apiKeys := []model.APIKey{}
	if err := db.GetDB().WithContext(ctx).Find(&apiKeys).Error; err != nil {
		return err
	}
	for _, apiKey := range apiKeys {
		apiKeyCache.Set(apiKey.ID, apiKey)
	}
	return nil
}
