package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"llmadmin/internal/model"
	"llmadmin/internal/op"
	"llmadmin/internal/server/middleware"
	"llmadmin/internal/server/resp"
	"llmadmin/internal/server/router"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

func init() {
	router.NewGroupRouter("/api/v1/usage").
		Use(middleware.Auth()).
		AddRoute(
			router.NewRoute("/list", http.MethodGet).
				Handle(listUsage),
		).
		AddRoute(
			router.NewRoute("/summary", http.MethodGet).
				Handle(summarizeUsage),
		).
		AddRoute(
			router.NewRoute("/stream-token", http.MethodGet).
				Handle(getUsageStreamToken),
		)

	router.NewGroupRouter("/api/v1/usage").
		AddRoute(
			router.NewRoute("/stream", http.MethodGet).
				Handle(streamUsage),
		)
}

// visibleKeyIDs returns the key IDs the caller may see usage for:
// nil (unrestricted) for admins, the caller's own keys otherwise.
func visibleKeyIDs(c *gin.Context) ([]int, error) {
	if middleware.IsAdmin(c) {
		return nil, nil
	}
	keys, err := op.APIKeyListByUser(middleware.CurrentUserID(c), c.Request.Context())
	if err != nil {
		return nil, err
	}
	return lo.Map(keys, func(k model.APIKey, _ int) int { return k.ID }), nil
}

func listUsage(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	keyIDs, err := visibleKeyIDs(c)
	if err != nil {
		resp.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	if keyFilter := c.Query("api_key_id"); keyFilter != "" {
		id, err := strconv.Atoi(keyFilter)
		if err != nil {
			resp.Error(c, http.StatusBadRequest, resp.ErrInvalidParam)
			return
		}
		if keyIDs != nil && !lo.Contains(keyIDs, id) {
			resp.Error(c, http.StatusForbidden, resp.ErrForbidden)
			return
		}
		keyIDs = []int{id}
	}

	events, err := op.UsageList(c.Request.Context(), keyIDs, page, pageSize)
	if err != nil {
		resp.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	resp.Success(c, events)
}

func summarizeUsage(c *gin.Context) {
	keyIDs, err := visibleKeyIDs(c)
	if err != nil {
		resp.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	summaries, err := op.UsageSummarize(c.Request.Context(), keyIDs)
	if err != nil {
		resp.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	resp.Success(c, summaries)
}

func getUsageStreamToken(c *gin.Context) {
	token, err := op.UsageStreamTokenCreate()
	if err != nil {
		resp.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	resp.Success(c, gin.H{"token": token})
}

// streamUsage pushes live usage events over SSE. EventSource cannot set an
// Authorization header, so the stream authenticates with a one-shot token
// issued to an authenticated session.
func streamUsage(c *gin.Context) {
	token := c.Query("token")
	if token == "" || !op.UsageStreamTokenVerify(token) {
		resp.Error(c, http.StatusUnauthorized, "invalid stream token")
		return
	}

	op.UsageStreamTokenRevoke(token)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	eventChan := op.UsageSubscribe()
	defer op.UsageUnsubscribe(eventChan)

	ctx := c.Request.Context()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-eventChan:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(c.Writer, "data: %s\n\n", data)
			c.Writer.Flush()
		}
	}
}
