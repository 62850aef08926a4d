package op

import (
	"context"
	"fmt"

	"llmadmin/internal/db"
	"llmadmin/internal/model"
	"llmadmin/internal/utils/cache"
	"llmadmin/internal/utils/log"
)

var userCache = cache.New[int, model.User](16)
var userEmailMap = cache.New[string, int](16)

// UserInit creates the bootstrap admin account when the user table is empty.
func UserInit() error {
	if userCache.Len() > 0 {
		return nil
	}
	admin := model.User{
		Email:    "admin@example.com",
		Name:     "Administrator",
		Password: "admin123",
		Role:     model.RoleAdmin,
	}
	if err := admin.HashPassword(); err != nil {
		return err
	}
	if err := db.GetDB().Create(&admin).Error; err != nil {
		return err
	}
	userCache.Set(admin.ID, admin)
	userEmailMap.Set(admin.Email, admin.ID)
	log.Infof("initial user: admin@example.com, password: admin123")
	return nil
}

func UserCreate(user *model.User, ctx context.Context) error {
	if _, ok := userEmailMap.Get(user.Email); ok {
		return fmt.Errorf("user already exists")
	}
	if err := db.GetDB().WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	userCache.Set(user.ID, *user)
	userEmailMap.Set(user.Email, user.ID)
	return nil
}

func UserGet(id int, ctx context.Context) (model.User, error) {
	user, ok := userCache.Get(id)
	if !ok {
		return model.User{}, fmt.Errorf("user not found")
	}
	return user, nil
}

func UserGetByEmail(email string, ctx context.Context) (model.User, error) {
	id, ok := userEmailMap.Get(email)
	if !ok {
		return model.User{}, fmt.Errorf("user not found")
	}
	return UserGet(id, ctx)
}

func UserList(ctx context.Context) ([]model.User, error) {
	users := make([]model.User, 0, userCache.Len())
	for _, user := range userCache.GetAll() {
		users = append(users, user)
	}
	return users, nil
}

func UserUpdate(user *model.User, ctx context.Context) error {
	existing, ok := userCache.Get(user.ID)
	if !ok {
		return fmt.Errorf("user not found")
	}
	if err := db.GetDB().WithContext(ctx).Save(user).Error; err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if existing.Email != user.Email {
		userEmailMap.Del(existing.Email)
		userEmailMap.Set(user.Email, user.ID)
	}
	userCache.Set(user.ID, *user)
	return nil
}

func UserDelete(id int, ctx context.Context) error {
	user, ok := userCache.Get(id)
	if !ok {
		return fmt.Errorf("user not found")
	}
	// Keys go with the owner; usage events stay for audit.
	keys, err := APIKeyListByUser(id, ctx)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := APIKeyDelete(key.ID, ctx); err != nil {
			return err
		}
	}
	if err := db.GetDB().WithContext(ctx).Delete(&model.User{ID: id}).Error; err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	userCache.Del(id)
	userEmailMap.Del(user.Email)
	return nil
}

func userRefreshCache(ctx context.Context) error {
	users := []model.User{}
	if err := db.GetDB().WithContext(ctx).Find(&users).Error; err != nil {
		return err
	}
	for _, user := range users {
		userCache.Set(user.ID, user)
		userEmailMap.Set(user.Email, user.ID)
	}
	return nil
}
