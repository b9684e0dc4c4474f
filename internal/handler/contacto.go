package handler

import (
	"net/http"

	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/apierror"
	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/dto"
	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

type ContactoHandler struct{ svc service.ContactoService }

func NewContactoHandler(svc service.ContactoService) *ContactoHandler {
	return &ContactoHandler{svc: svc}
}

// Enviar POST /v1/contacto — formulario público (sin autenticación).
func (h *ContactoHandler) Enviar(c *gin.Context) {
	var req dto.ContactoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.Enviar(c.Request.Context(), req); err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("No se pudo enviar el mensaje"))
		return
	}
	// 202: el mensaje quedó encolado, el envío real es asíncrono.
	c.JSON(http.StatusAccepted, gin.H{"detail": "Mensaje recibido"})
}
