package model

import (
	"time"

	"github.com/google/uuid"
)

// CarritoItem es una línea del carrito de un cliente. A diferencia del
// catálogo, las líneas de carrito sí se borran físicamente.
type CarritoItem struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ClienteID  string    `gorm:"size:40;not null;uniqueIndex:idx_carrito_cliente_producto;index"`
	ProductoID string    `gorm:"size:40;not null;uniqueIndex:idx_carrito_cliente_producto"`
	Cantidad   int       `gorm:"not null;default:1"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

func (CarritoItem) TableName() string { return "carrito_items" }
