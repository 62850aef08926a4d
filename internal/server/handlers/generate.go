package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"llmadmin/internal/gateway"
	"llmadmin/internal/model"
	"llmadmin/internal/op"
	"llmadmin/internal/server/middleware"
	"llmadmin/internal/server/resp"
	"llmadmin/internal/server/router"

	"github.com/gin-gonic/gin"
)

func init() {
	router.NewGroupRouter("/api/v1/llm").
		Use(middleware.Auth()).
		Use(middleware.RequireJSON()).
		AddRoute(
			router.NewRoute("/generate", http.MethodPost).
				Handle(generateText),
		).
		AddRoute(
			router.NewRoute("/models", http.MethodGet).
				Handle(listActiveModels),
		)
}

func generateText(c *gin.Context) {
	keyIDHeader := c.GetHeader("X-Api-Key-Id")
	if keyIDHeader == "" {
		resp.Error(c, http.StatusBadRequest, "API key ID is required")
		return
	}
	keyID, err := strconv.Atoi(keyIDHeader)
	if err != nil {
		resp.Error(c, http.StatusBadRequest, resp.ErrInvalidParam)
		return
	}

	var req model.GenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.Error(c, http.StatusBadRequest, resp.ErrInvalidJSON)
		return
	}

	result, err := gateway.Default().Generate(c.Request.Context(), keyID, req)
	if err != nil {
		writeGenerateError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func writeGenerateError(c *gin.Context, err error) {
	var rle *gateway.RateLimitedError
	var be *gateway.BackendError
	switch {
	case errors.Is(err, gateway.ErrInvalidRequest):
		resp.Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, gateway.ErrKeyNotFound):
		resp.Error(c, http.StatusNotFound, "API key not found")
	case errors.Is(err, gateway.ErrKeyInactive):
		resp.Error(c, http.StatusForbidden, "API key is inactive")
	case errors.As(err, &rle):
		retryAfter := int(rle.RetryAfter.Seconds())
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"code":        http.StatusTooManyRequests,
			"message":     "Rate limit exceeded",
			"retry_after": retryAfter,
		})
	case errors.As(err, &be):
		resp.Error(c, http.StatusBadGateway, "Generation failed")
	default:
		resp.Error(c, http.StatusInternalServerError, resp.ErrInternalServer)
	}
}

func listActiveModels(c *gin.Context) {
	models, err := op.ModelListActive(c.Request.Context())
	if err != nil {
		resp.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	resp.Success(c, models)
}
