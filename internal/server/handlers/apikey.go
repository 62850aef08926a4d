package handlers

import (
	"net/http"
	"strconv"

	"llmadmin/internal/model"
	"llmadmin/internal/op"
	"llmadmin/internal/server/auth"
	"llmadmin/internal/server/middleware"
	"llmadmin/internal/server/resp"
	"llmadmin/internal/server/router"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

func init() {
	router.NewGroupRouter("/api/v1/apikey").
		Use(middleware.Auth()).
		Use(middleware.RequireJSON()).
		AddRoute(
			router.NewRoute("/create", http.MethodPost).
				Handle(createAPIKey),
		).
		AddRoute(
			router.NewRoute("/list", http.MethodGet).
				Handle(listAPIKey),
		).
		AddRoute(
			router.NewRoute("/:id", http.MethodGet).
				Handle(getAPIKey),
		).
		AddRoute(
			router.NewRoute("/:id", http.MethodPut).
				Handle(updateAPIKey),
		).
		AddRoute(
			router.NewRoute("/:id", http.MethodDelete).
				Handle(deleteAPIKey),
		)
}

func createAPIKey(c *gin.Context) {
	var req model.APIKeyCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.Error(c, http.StatusBadRequest, resp.ErrValidation)
		return
	}
	rateLimit := req.RateLimit
	if rateLimit == 0 {
		rateLimit = model.DefaultRateLimit
	}
	key := model.APIKey{
		UserID:    middleware.CurrentUserID(c),
		Name:      req.Name,
		Key:       auth.GenerateAPIKey(),
		RateLimit: rateLimit,
		IsActive:  true,
	}
	if err := op.APIKeyCreate(&key, c.Request.Context()); err != nil {
		resp.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	// The only response that ever carries the full secret.
	resp.Success(c, key)
}

func listAPIKey(c *gin.Context) {
	var keys []model.APIKey
	var err error
	if middleware.IsAdmin(c) {
		keys, err = op.APIKeyList(c.Request.Context())
	} else {
		keys, err = op.APIKeyListByUser(middleware.CurrentUserID(c), c.Request.Context())
	}
	if err != nil {
		resp.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	resp.Success(c, lo.Map(keys, func(k model.APIKey, _ int) model.APIKey {
		return k.Masked()
	}))
}

func getAPIKey(c *gin.Context) {
	key, ok := ownedAPIKey(c)
	if !ok {
		return
	}
	resp.Success(c, key.Masked())
}

func updateAPIKey(c *gin.Context) {
	key, ok := ownedAPIKey(c)
	if !ok {
		return
	}
	var req model.APIKeyUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.Error(c, http.StatusBadRequest, resp.ErrValidation)
		return
	}
	if req.Name != nil {
		key.Name = *req.Name
	}
	if req.RateLimit != nil {
		key.RateLimit = *req.RateLimit
	}
	if req.IsActive != nil {
		key.IsActive = *req.IsActive
	}
	if err := op.APIKeyUpdate(&key, c.Request.Context()); err != nil {
		resp.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	resp.Success(c, key.Masked())
}

func deleteAPIKey(c *gin.Context) {
	key, ok := ownedAPIKey(c)
	if !ok {
		return
	}
	if err := op.APIKeyDelete(key.ID, c.Request.Context()); err != nil {
		resp.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	resp.Success(c, nil)
}

// ownedAPIKey resolves the :id param and enforces owner-or-admin access.
// On failure the response is already written.
func ownedAPIKey(c *gin.Context) (model.APIKey, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		resp.Error(c, http.StatusBadRequest, resp.ErrInvalidParam)
		return model.APIKey{}, false
	}
	key, err := op.APIKeyGet(id, c.Request.Context())
	if err != nil {
		resp.Error(c, http.StatusNotFound, resp.ErrResourceNotFound)
		return model.APIKey{}, false
	}
	if !middleware.IsAdmin(c) && key.UserID != middleware.CurrentUserID(c) {
		resp.Error(c, http.StatusForbidden, resp.ErrForbidden)
		return model.APIKey{}, false
	}
	return key, true
}
