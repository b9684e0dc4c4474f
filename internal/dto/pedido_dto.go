package dto

import "github.com/shopspring/decimal"

type CrearPedidoRequest struct {
	Observaciones *string `json:"observaciones"`
}

type ActualizarPedidoItemRequest struct {
	Cantidad int `json:"cantidad" validate:"required,min=1"`
}

type PedidoItemResponse struct {
	ID             string          `json:"id"`
	ProductoID     string          `json:"producto_id"`
	Nombre         string          `json:"nombre"`
	Cantidad       int             `json:"cantidad"`
	PrecioBase     decimal.Decimal `json:"precio_base"`
	MargenPct      decimal.Decimal `json:"margen_pct"`
	IVAPct         decimal.Decimal `json:"iva_pct"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

type PedidoResponse struct {
	ID            string               `json:"id"`
	NumeroPedido  int                  `json:"numero_pedido"`
	ClienteID     string               `json:"cliente_id"`
	Estado        string               `json:"estado"`
	Subtotal      decimal.Decimal      `json:"subtotal"`
	MontoIVA      decimal.Decimal      `json:"monto_iva"`
	Total         decimal.Decimal      `json:"total"`
	Observaciones *string              `json:"observaciones"`
	Items         []PedidoItemResponse `json:"items"`
	CreatedAt     string               `json:"created_at"`
}

type PedidoListResponse struct {
	Data  []PedidoResponse `json:"data"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

type PedidoFilter struct {
	Estado string `form:"estado"`
	Page   int    `form:"page,default=1"  validate:"min=1"`
	Limit  int    `form:"limit,default=20" validate:"min=1,max=100"`
}
