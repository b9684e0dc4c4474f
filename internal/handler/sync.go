package handler

import (
	"net/http"

	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/apierror"
	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/dto"
	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// SyncHandler expone el pipeline de ingesta por lotes al job de escritorio.
// Contrato uniforme: 200 con SyncOutcome aunque haya registros con error;
// 500 sólo cuando un chunk no pudo confirmarse (el job re-corre el lote,
// los upserts son idempotentes).
type SyncHandler struct{ svc service.SyncService }

func NewSyncHandler(svc service.SyncService) *SyncHandler {
	return &SyncHandler{svc: svc}
}

// Categorias POST /v1/sync/categorias
func (h *SyncHandler) Categorias(c *gin.Context) {
	var req dto.SyncCategoriasRequest
	if !bindAndValidate(c, &req) {
		return
	}
	outcome, err := h.svc.SincronizarCategorias(c.Request.Context(), req)
	respondOutcome(c, outcome, err)
}

// Productos POST /v1/sync/productos
func (h *SyncHandler) Productos(c *gin.Context) {
	var req dto.SyncProductosRequest
	if !bindAndValidate(c, &req) {
		return
	}
	outcome, err := h.svc.SincronizarProductos(c.Request.Context(), req)
	respondOutcome(c, outcome, err)
}

// ListasPrecios POST /v1/sync/listas-precios
func (h *SyncHandler) ListasPrecios(c *gin.Context) {
	var req dto.SyncListasPreciosRequest
	if !bindAndValidate(c, &req) {
		return
	}
	outcome, err := h.svc.SincronizarListasPrecios(c.Request.Context(), req)
	respondOutcome(c, outcome, err)
}

// ListaPrecioItems POST /v1/sync/listas-precios/items
func (h *SyncHandler) ListaPrecioItems(c *gin.Context) {
	var req dto.SyncListaPrecioItemsRequest
	if !bindAndValidate(c, &req) {
		return
	}
	outcome, err := h.svc.SincronizarListaPrecioItems(c.Request.Context(), req)
	respondOutcome(c, outcome, err)
}

// Clientes POST /v1/sync/clientes
func (h *SyncHandler) Clientes(c *gin.Context) {
	var req dto.SyncClientesRequest
	if !bindAndValidate(c, &req) {
		return
	}
	outcome, err := h.svc.SincronizarClientes(c.Request.Context(), req)
	respondOutcome(c, outcome, err)
}

// LimpiarCatalogo POST /v1/sync/limpieza/catalogo
func (h *SyncHandler) LimpiarCatalogo(c *gin.Context) {
	var req dto.LimpiezaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.LimpiarCatalogo(c.Request.Context(), req.Cutoff); err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error en la limpieza de catalogo"))
		return
	}
	c.JSON(http.StatusOK, dto.LimpiezaResponse{Cutoff: req.Cutoff})
}

// LimpiarClientes POST /v1/sync/limpieza/clientes
func (h *SyncHandler) LimpiarClientes(c *gin.Context) {
	var req dto.LimpiezaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.LimpiarClientes(c.Request.Context(), req.Cutoff); err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error en la limpieza de clientes"))
		return
	}
	c.JSON(http.StatusOK, dto.LimpiezaResponse{Cutoff: req.Cutoff})
}

// respondOutcome aplica el contrato de respuesta uniforme de los lotes.
func respondOutcome(c *gin.Context, outcome *dto.SyncOutcome, err error) {
	if err != nil {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("sync: fallo de persistencia en el lote")
		c.JSON(http.StatusInternalServerError, apierror.New("Error de persistencia en el lote; reintente el lote completo"))
		return
	}
	c.JSON(http.StatusOK, outcome)
}
