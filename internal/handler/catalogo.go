package handler

import (
	"errors"
	"net/http"

	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/apierror"
	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/dto"
	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/middleware"
	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

type CatalogoHandler struct{ svc service.CatalogoService }

func NewCatalogoHandler(svc service.CatalogoService) *CatalogoHandler {
	return &CatalogoHandler{svc: svc}
}

// Listar GET /v1/catalogo/productos
func (h *CatalogoHandler) Listar(c *gin.Context) {
	var filter dto.CatalogoFilter
	if !bindQueryAndValidate(c, &filter) {
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.Listar(c.Request.Context(), claims.UserID, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar el catalogo"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Obtener GET /v1/catalogo/productos/:id
func (h *CatalogoHandler) Obtener(c *gin.Context) {
	claims := middleware.GetClaims(c)
	resp, err := h.svc.Obtener(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrProductoNoEncontrado) {
			c.JSON(http.StatusNotFound, apierror.New("Producto no encontrado"))
			return
		}
		c.JSON(http.StatusInternalServerError, apierror.New("Error al obtener el producto"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Categorias GET /v1/catalogo/categorias
func (h *CatalogoHandler) Categorias(c *gin.Context) {
	resp, err := h.svc.ListarCategorias(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar categorias"))
		return
	}
	c.JSON(http.StatusOK, resp)
}
