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
	router.NewGroupRouter("/api/v1/user").
		Use(middleware.Auth()).
		Use(middleware.RequireJSON()).
		AddRoute(
			router.NewRoute("/list", http.MethodGet).
				Use(middleware.AdminOnly()).
				Handle(listUser),
		).
		AddRoute(
			router.NewRoute("/:id", http.MethodGet).
				Handle(getUser),
		).
		AddRoute(
			router.NewRoute("/:id", http.MethodPut).
				Handle(updateUser),
		).
		AddRoute(
			router.NewRoute("/:id", http.MethodDelete).
				Use(middleware.AdminOnly()).
				Handle(deleteUser),
		)
}

func listUser(c *gin.Context) {
	users, err := op.UserList(c.Request.Context())
	if err != nil {
		resp.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	resp.Success(c, users)
}

func getUser(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		resp.Error(c, http.StatusBadRequest, resp.ErrInvalidParam)
		return
	}
	if !middleware.IsAdmin(c) && middleware.CurrentUserID(c) != id {
		resp.Error(c, http.StatusForbidden, resp.ErrForbidden)
		return
	}
	user, err := op.UserGet(id, c.Request.Context())
	if err != nil {
		resp.Error(c, http.StatusNotFound, resp.ErrResourceNotFound)
		return
	}
	resp.Success(c, user)
}

func updateUser(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		resp.Error(c, http.StatusBadRequest, resp.ErrInvalidParam)
		return
	}
	if !middleware.IsAdmin(c) && middleware.CurrentUserID(c) != id {
		resp.Error(c, http.StatusForbidden, resp.ErrForbidden)
		return
	}
	var req model.UserUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.Error(c, http.StatusBadRequest, resp.ErrValidation)
		return
	}
	user, err := op.UserGet(id, c.Request.Context())
	if err != nil {
		resp.Error(c, http.StatusNotFound, resp.ErrResourceNotFound)
		return
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Password != nil {
		user.Password = *req.Password
		if err := user.HashPassword(); err != nil {
			resp.Error(c, http.StatusInternalServerError, resp.ErrInternalServer)
			return
		}
	}
	// Only admins may grant or revoke roles.
	if req.Role != nil && middleware.IsAdmin(c) {
		user.Role = *req.Role
	}
	if err := op.UserUpdate(&user, c.Request.Context()); err != nil {
		resp.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	resp.Success(c, user)
}

func deleteUser(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		resp.Error(c, http.StatusBadRequest, resp.ErrInvalidParam)
		return
	}
	if err := op.UserDelete(id, c.Request.Context()); err != nil {
		resp.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	resp.Success(c, nil)
}
