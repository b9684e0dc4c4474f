package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ListaPrecio es un contenedor de márgenes por producto para un nivel de
// cliente. El ID es la clave entera del sistema legado.
type ListaPrecio struct {
	ID          int    `gorm:"primaryKey;autoIncrement:false"`
	Nombre      string `gorm:"not null"`
	Descripcion *string
	Activo      bool `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (ListaPrecio) TableName() string { return "listas_precios" }

// ListaPrecioItem asigna un margen a un producto dentro de una lista.
// Identidad compuesta (lista_precio_id, producto_id). Sólo puede existir si
// la lista y el producto ya existen — invariante que aplica el pipeline de
// sincronización, no la base de datos, para tolerar desórdenes en el feed.
type ListaPrecioItem struct {
	ListaPrecioID int             `gorm:"primaryKey;autoIncrement:false"`
	ProductoID    string          `gorm:"primaryKey;size:40"`
	MargenPct     decimal.Decimal `gorm:"type:decimal(7,2);not null;default:0"`
	// PrecioFinal es el precio precalculado por el legado. Es sólo una pista
	// de reconciliación (tolerancia 1%), nunca la fuente de verdad.
	PrecioFinal *decimal.Decimal `gorm:"type:decimal(10,2)"`
	Activo      bool             `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Lista    *ListaPrecio `gorm:"foreignKey:ListaPrecioID"`
	Producto *Producto    `gorm:"foreignKey:ProductoID"`
}

func (ListaPrecioItem) TableName() string { return "listas_precios_items" }
