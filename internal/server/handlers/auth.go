package handlers

import (
	"net/http"

	"llmadmin/internal/model"
	"llmadmin/internal/op"
	"llmadmin/internal/server/auth"
	"llmadmin/internal/server/middleware"
	"llmadmin/internal/server/resp"
	"llmadmin/internal/server/router"

	"github.com/gin-gonic/gin"
)

func init() {
	router.NewGroupRouter("/api/v1/auth").
		Use(middleware.RequireJSON()).
		AddRoute(
			router.NewRoute("/register", http.MethodPost).
				Handle(register),
		).
		AddRoute(
			router.NewRoute("/login", http.MethodPost).
				Handle(login),
		)
	router.NewGroupRouter("/api/v1/auth").
		Use(middleware.Auth()).
		AddRoute(
			router.NewRoute("/me", http.MethodGet).
				Handle(me),
		)
}

func register(c *gin.Context) {
	var req model.UserRegister
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.Error(c, http.StatusBadRequest, resp.ErrValidation)
		return
	}
	role := req.Role
	if role == "" {
		role = model.RoleCustomer
	}
	user := model.User{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Role:     role,
	}
	if err := user.HashPassword(); err != nil {
		resp.Error(c, http.StatusInternalServerError, resp.ErrInternalServer)
		return
	}
	if err := op.UserCreate(&user, c.Request.Context()); err != nil {
		resp.Error(c, http.StatusBadRequest, resp.ErrDuplicateResource)
		return
	}
	token, expire, err := auth.GenerateToken(user)
	if err != nil {
		resp.Error(c, http.StatusInternalServerError, resp.ErrInternalServer)
		return
	}
	resp.Success(c, model.UserLoginResponse{User: user, Token: token, ExpireAt: expire})
}

func login(c *gin.Context) {
	var req model.UserLogin
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.Error(c, http.StatusBadRequest, resp.ErrValidation)
		return
	}
	user, err := op.UserGetByEmail(req.Email, c.Request.Context())
	if err != nil {
		resp.Error(c, http.StatusUnauthorized, resp.ErrUnauthorized)
		return
	}
	if err := user.ComparePassword(req.Password); err != nil {
		resp.Error(c, http.StatusUnauthorized, resp.ErrUnauthorized)
		return
	}
	token, expire, err := auth.GenerateToken(user)
	if err != nil {
		resp.Error(c, http.StatusInternalServerError, resp.ErrInternalServer)
		return
	}
	resp.Success(c, model.UserLoginResponse{User: user, Token: token, ExpireAt: expire})
}

func me(c *gin.Context) {
	user, err := op.UserGet(middleware.CurrentUserID(c), c.Request.Context())
	if err != nil {
		resp.Error(c, http.StatusNotFound, resp.ErrResourceNotFound)
		return
	}
	resp.Success(c, user)
}
