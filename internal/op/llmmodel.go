package op

import (
	"context"
	"fmt"

	"llmadmin/internal/db"
	"llmadmin/internal/model"
	"llmadmin/internal/utils/cache"

	"github.com/samber/lo"
)

var modelCache = cache.New[int, model.LLMModel](16)

func ModelCreate(m *model.LLMModel, ctx context.Context) error {
	if err := db.GetDB().WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("failed to create model: %w", err)
	}
	modelCache.Set(m.ID, *m)
	return nil
}

func ModelUpdate(m *model.LLMModel, ctx context.Context) error {
	if _, ok := modelCache.Get(m.ID); !ok {
		return fmt.Errorf("model not found")
	}
	if err := db.GetDB().WithContext(ctx).Save(m).Error; err != nil {
		return fmt.Errorf("failed to update model: %w", err)
	}
	modelCache.Set(m.ID, *m)
	return nil
}

func ModelList(ctx context.Context) ([]model.LLMModel, error) {
	models := make([]model.LLMModel, 0, modelCache.Len())
	for _, m := range modelCache.GetAll() {
		models = append(models, m)
	}
	return models, nil
}

func ModelListActive(ctx context.Context) ([]model.LLMModel, error) {
	models, err := ModelList(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Filter(models, func(m model.LLMModel, _ int) bool {
		return m.IsActive
	}), nil
}

func ModelGet(id int, ctx context.Context) (model.LLMModel, error) {
	m, ok := modelCache.Get(id)
	if !ok {
		return model.LLMModel{}, fmt.Errorf("model not found")
	}
	return m, nil
}

func ModelDelete(id int, ctx context.Context) error {
	result := db.GetDB().WithContext(ctx).Delete(&model.LLMModel{ID: id})
	if result.Error != nil {
		return fmt.Errorf("failed to delete model: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("model not found")
	}
	modelCache.Del(id)
	return nil
}

func modelRefreshCache(ctx context.Context) error {
	models := []model.LLMModel{}
	if err := db.GetDB().WithContext(ctx).Find(&models).Error; err != nil {
		return err
	}
	for _, m := range models {
		modelCache.Set(m.ID, m)
	}
	return nil
}
