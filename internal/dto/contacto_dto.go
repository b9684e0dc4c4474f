package dto

type ContactoRequest struct {
	Nombre   string  `json:"nombre" validate:"required,min=2,max=120"`
	Email    string  `json:"email" validate:"required,email"`
	Telefono *string `json:"telefono"`
	Mensaje  string  `json:"mensaje" validate:"required,min=5,max=2000"`
}
