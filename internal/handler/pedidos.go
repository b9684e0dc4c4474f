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

type PedidosHandler struct{ svc service.PedidoService }

func NewPedidosHandler(svc service.PedidoService) *PedidosHandler {
	return &PedidosHandler{svc: svc}
}

// esStaff distingue a la distribuidora de una farmacia cliente.
func esStaff(c *gin.Context) bool {
	claims := middleware.GetClaims(c)
	return claims.Rol != service.RolCliente
}

// Crear POST /v1/pedidos — checkout del carrito del cliente autenticado.
func (h *PedidosHandler) Crear(c *gin.Context) {
	var req dto.CrearPedidoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.Crear(c.Request.Context(), claims.UserID, req)
	if err != nil {
		respondPedidoError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Listar GET /v1/pedidos
func (h *PedidosHandler) Listar(c *gin.Context) {
	var filter dto.PedidoFilter
	if !bindQueryAndValidate(c, &filter) {
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.Listar(c.Request.Context(), claims.UserID, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar pedidos"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Obtener GET /v1/pedidos/:id
func (h *PedidosHandler) Obtener(c *gin.Context) {
	pedidoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	claims := middleware.GetClaims(c)
	resp, svcErr := h.svc.Obtener(c.Request.Context(), claims.UserID, pedidoID, esStaff(c))
	if svcErr != nil {
		respondPedidoError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Cancelar DELETE /v1/pedidos/:id
func (h *PedidosHandler) Cancelar(c *gin.Context) {
	pedidoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	claims := middleware.GetClaims(c)
	if svcErr := h.svc.Cancelar(c.Request.Context(), claims.UserID, pedidoID, esStaff(c)); svcErr != nil {
		respondPedidoError(c, svcErr)
		return
	}
	c.JSON(http.StatusNoContent, nil)
}

// CambiarEstado PATCH /v1/pedidos/:id/estado — sólo staff.
func (h *PedidosHandler) CambiarEstado(c *gin.Context) {
	pedidoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req struct {
		Estado string `json:"estado" validate:"required,oneof=confirmado enviado entregado cancelado"`
	}
	if !bindAndValidate(c, &req) {
		return
	}
	if svcErr := h.svc.CambiarEstado(c.Request.Context(), pedidoID, req.Estado); svcErr != nil {
		respondPedidoError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"estado": req.Estado})
}

// ActualizarItem PATCH /v1/pedidos/:id/items/:item_id — sólo staff.
func (h *PedidosHandler) ActualizarItem(c *gin.Context) {
	pedidoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	itemID, err := uuid.Parse(c.Param("item_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID de item invalido"))
		return
	}
	var req dto.ActualizarPedidoItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, svcErr := h.svc.ActualizarItem(c.Request.Context(), pedidoID, itemID, req)
	if svcErr != nil {
		respondPedidoError(c, svcErr)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func respondPedidoError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPedidoNoEncontrado),
		errors.Is(err, service.ErrProductoNoEncontrado):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	case errors.Is(err, service.ErrCarritoVacio):
		c.JSON(http.StatusBadRequest, apierror.New("El carrito esta vacio"))
	case errors.Is(err, service.ErrStockInsuficiente):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case errors.Is(err, service.ErrEstadoInvalido),
		errors.Is(err, service.ErrPedidoNoModificable):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, apierror.New("Error en pedidos"))
	}
}
