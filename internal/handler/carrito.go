package handler

import (
	"errors"
	"net/http"

	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/apierror"
	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/dto"
	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/middleware"
	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CarritoHandler struct{ svc service.CarritoService }

func NewCarritoHandler(svc service.CarritoService) *CarritoHandler {
	return &CarritoHandler{svc: svc}
}

// Listar GET /v1/carrito
func (h *CarritoHandler) Listar(c *gin.Context) {
	claims := middleware.GetClaims(c)
	resp, err := h.svc.Listar(c.Request.Context(), claims.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar el carrito"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Agregar POST /v1/carrito/items
func (h *CarritoHandler) Agregar(c *gin.Context) {
	var req dto.AgregarCarritoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.Agregar(c.Request.Context(), claims.UserID, req)
	if err != nil {
		respondCarritoError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Actualizar PUT /v1/carrito/items/:id
func (h *CarritoHandler) Actualizar(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.ActualizarCarritoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	resp, svcErr := h.svc.Actualizar(c.Request.Context(), claims.UserID, itemID, req)
	if svcErr != nil {
		respondCarritoError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Eliminar DELETE /v1/carrito/items/:id
func (h *CarritoHandler) Eliminar(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	claims := middleware.GetClaims(c)
	if svcErr := h.svc.Eliminar(c.Request.Context(), claims.UserID, itemID); svcErr != nil {
		respondCarritoError(c, svcErr)
		return
	}
	c.JSON(http.StatusNoContent, nil)
}

func respondCarritoError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProductoNoEncontrado),
		errors.Is(err, service.ErrItemCarritoNoEncontrado):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	case errors.Is(err, service.ErrStockInsuficiente):
		c.JSON(http.StatusConflict, apierror.New("Stock insuficiente"))
	default:
		c.JSON(http.StatusInternalServerError, apierror.New("Error en el carrito"))
	}
}
