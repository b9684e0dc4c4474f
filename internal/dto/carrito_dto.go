package dto

import "github.com/shopspring/decimal"

type AgregarCarritoRequest struct {
	ProductoID string `json:"producto_id" validate:"required"`
	Cantidad   int    `json:"cantidad" validate:"required,min=1"`
}

type ActualizarCarritoRequest struct {
	Cantidad int `json:"cantidad" validate:"required,min=1"`
}

type CarritoItemResponse struct {
	ID             string          `json:"id"`
	ProductoID     string          `json:"producto_id"`
	Nombre         string          `json:"nombre"`
	UnidadMedida   string          `json:"unidad_medida"`
	Cantidad       int             `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	StockActual    int             `json:"stock_actual"`
}

type CarritoResponse struct {
	Items []CarritoItemResponse `json:"items"`
	Total decimal.Decimal       `json:"total"`
}
