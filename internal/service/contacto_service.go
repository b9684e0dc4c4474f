package service

import (
	"context"
	"fmt"

	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/dto"
	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/worker"
)

// ContactoService recibe el formulario público de contacto y lo convierte en
// un correo al buzón de ventas. El envío es asíncrono: la request responde en
// cuanto el job queda encolado.
type ContactoService interface {
	Enviar(ctx context.Context, req dto.ContactoRequest) error
}

type contactoService struct {
	dispatcher    *worker.Dispatcher
	contactoEmail string
}

func NewContactoService(dispatcher *worker.Dispatcher, contactoEmail string) ContactoService {
	return &contactoService{dispatcher: dispatcher, contactoEmail: contactoEmail}
}

func (s *contactoService) Enviar(ctx context.Context, req dto.ContactoRequest) error {
	telefono := "no proporcionado"
	if req.Telefono != nil && *req.Telefono != "" {
		telefono = *req.Telefono
	}
	body := fmt.Sprintf(
		"Nuevo mensaje desde el formulario de contacto\n\nNombre: %s\nEmail: %s\nTeléfono: %s\n\n%s\n",
		req.Nombre, req.Email, telefono, req.Mensaje,
	)

	payload := worker.EmailJobPayload{
		To:      []string{s.contactoEmail},
		Subject: "Contacto web: " + req.Nombre,
		Body:    body,
		ReplyTo: req.Email,
	}
	if err := s.dispatcher.EnqueueEmail(ctx, payload); err != nil {
		return fmt.Errorf("contacto: encolar email: %w", err)
	}
	return nil
}
