package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Estados del ciclo de vida de un pedido.
const (
	PedidoPendiente  = "pendiente"
	PedidoConfirmado = "confirmado"
	PedidoEnviado    = "enviado"
	PedidoEntregado  = "entregado"
	PedidoCancelado  = "cancelado"
)

// Pedido es una orden de compra de un cliente. Los precios de cada línea se
// congelan al momento del checkout; cambios posteriores de márgenes o precios
// base no afectan pedidos existentes.
type Pedido struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	NumeroPedido  int       `gorm:"uniqueIndex;not null"`
	ClienteID     string    `gorm:"size:40;not null;index"`
	Estado        string    `gorm:"not null;default:'pendiente'"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	MontoIVA      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Observaciones *string
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Cliente *Cliente     `gorm:"foreignKey:ClienteID"`
	Items   []PedidoItem `gorm:"foreignKey:PedidoID"`
}

func (Pedido) TableName() string { return "pedidos" }

// PedidoItem es una línea de pedido con el desglose de precio congelado.
type PedidoItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PedidoID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductoID     string          `gorm:"size:40;not null"`
	NombreProducto string          `gorm:"not null"`
	Cantidad       int             `gorm:"not null"`
	PrecioBase     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	MargenPct      decimal.Decimal `gorm:"type:decimal(7,2);not null"`
	IVAPct         decimal.Decimal `gorm:"column:iva_pct;type:decimal(5,2);not null"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

func (PedidoItem) TableName() string { return "pedidos_items" }
