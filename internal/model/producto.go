package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Producto es un artículo del catálogo farmacéutico. Su ID es la clave del
// sistema de escritorio legado — estable entre corridas de sincronización,
// nunca autogenerada por la plataforma web.
type Producto struct {
	ID           string  `gorm:"primaryKey;size:40"`
	CodigoBarras *string `gorm:"index"`
	Nombre       string  `gorm:"index;not null"`
	Descripcion  *string
	// Descripcion2 es la descripción larga curada por el administrador.
	// La sincronización rutinaria no debe sobreescribirla.
	Descripcion2 *string         `gorm:"column:descripcion_2"`
	UnidadMedida string          `gorm:"not null;default:'pieza'"`
	PrecioBase   decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	IVAPct       decimal.Decimal `gorm:"column:iva_pct;type:decimal(5,2);not null;default:16"`
	StockActual  int             `gorm:"not null;default:0"`
	Activo       bool            `gorm:"not null;default:true"`
	CategoriaID  *uuid.UUID      `gorm:"type:uuid;index"`
	ImagenURL    *string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Categoria *Categoria `gorm:"foreignKey:CategoriaID"`
}

func (Producto) TableName() string { return "productos" }
