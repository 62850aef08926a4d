package handlers

import (
	"net/http"
	"strconv"

	"llmadmin/internal/model"
	"llmadmin/internal/op"
	"llmadmin/internal/server/middleware"
	"llmadmin/internal/server/resp"
	"llmadmin/internal/server/router"

	"github.com/gin-gonic/gin"
)

func init() {
	router.NewGroupRouter("/api/v1/model").
		Use(middleware.Auth()).
		Use(middleware.RequireJSON()).
		AddRoute(
			router.NewRoute("/list", http.MethodGet).
				Handle(listModel),
		).
		AddRoute(
			router.NewRoute("/:id", http.MethodGet).
				Handle(getModel),
		).
		AddRoute(
			router.NewRoute("/create", http.MethodPost).
				Use(middleware.AdminOnly()).
				Handle(createModel),
		).
		AddRoute(
			router.NewRoute("/:id", http.MethodPut).
				Use(middleware.AdminOnly()).
				Handle(updateModel),
		).
		AddRoute(
			router.NewRoute("/:id", http.MethodDelete).
				Use(middleware.AdminOnly()).
				Handle(deleteModel),
		)
}

func listModel(c *gin.Context) {
	models, err := op.ModelList(c.Request.Context())
	if err != nil {
		resp.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	resp.Success(c, models)
}

func getModel(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		resp.Error(c, http.StatusBadRequest, resp.ErrInvalidParam)
		return
	}
	m, err := op.ModelGet(id, c.Request.Context())
	if err != nil {
		resp.Error(c, http.StatusNotFound, resp.ErrResourceNotFound)
		return
	}
	resp.Success(c, m)
}

func createModel(c *gin.Context) {
	var req model.LLMModelCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.Error(c, http.StatusBadRequest, resp.ErrValidation)
		return
	}
	m := model.LLMModel{
		Name:        req.Name,
		Version:     req.Version,
		Description: req.Description,
		IsActive:    true,
	}
	if req.IsActive != nil {
		m.IsActive = *req.IsActive
	}
	if err := op.ModelCreate(&m, c.Request.Context()); err != nil {
		resp.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	resp.Success(c, m)
}

func updateModel(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		resp.Error(c, http.StatusBadRequest, resp.ErrInvalidParam)
		return
	}
	m, err := op.ModelGet(id, c.Request.Context())
	if err != nil {
		resp.Error(c, http.StatusNotFound, resp.ErrResourceNotFound)
		return
	}
	var req model.LLMModelUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.Error(c, http.StatusBadRequest, resp.ErrValidation)
		return
	}
	if req.Name != nil {
		m.Name = *req.Name
	}
	if req.Version != nil {
		m.Version = *req.Version
	}
	if req.Description != nil {
		m.Description = *req.Description
	}
	if req.IsActive != nil {
		m.IsActive = *req.IsActive
	}
	if err := op.ModelUpdate(&m, c.Request.Context()); err != nil {
		resp.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	resp.Success(c, m)
}

func deleteModel(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		resp.Error(c, http.StatusBadRequest, resp.ErrInvalidParam)
		return
	}
	if err := op.ModelDelete(id, c.Request.Context()); err != nil {
		resp.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	resp.Success(c, nil)
}
