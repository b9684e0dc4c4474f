package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/apierror"
	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/dto"
	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct{ svc service.AuthService }

func NewAuthHandler(svc service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Login POST /v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrCredencialesInvalidas) {
			c.JSON(http.StatusUnauthorized, apierror.New("Credenciales invalidas"))
			return
		}
		c.JSON(http.StatusInternalServerError, apierror.New("Error al iniciar sesion"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Refresh POST /v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Logout POST /v1/auth/logout
// Revoca el access token del header y, si viene en el body, el refresh token.
func (h *AuthHandler) Logout(c *gin.Context) {
	access := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")

	var req dto.RefreshRequest
	// Body opcional: logout sólo con el access token también es válido.
	_ = c.ShouldBindJSON(&req)

	if err := h.svc.Logout(c.Request.Context(), access, req.RefreshToken); err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al cerrar sesion"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"detail": "Sesion cerrada"})
}
