package dto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type CatalogoFilter struct {
	Busqueda  string `form:"q"`
	Categoria string `form:"categoria"`
	Page      int    `form:"page,default=1"  validate:"min=1"`
	Limit     int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// ProductoCatalogoResponse es un producto visto por un cliente autenticado:
// el precio final ya incluye su margen de lista y el IVA.
type ProductoCatalogoResponse struct {
	ID           string           `json:"id"`
	CodigoBarras *string          `json:"codigo_barras"`
	Nombre       string           `json:"nombre"`
	Descripcion  *string          `json:"descripcion"`
	Descripcion2 *string          `json:"descripcion_2"`
	UnidadMedida string           `json:"unidad_medida"`
	Categoria    *string          `json:"categoria"`
	ImagenURL    *string          `json:"imagen_url"`
	StockActual  int              `json:"stock_actual"`
	PrecioBase   decimal.Decimal  `json:"precio_base"`
	MargenPct    decimal.Decimal  `json:"margen_pct"`
	IVAPct       decimal.Decimal  `json:"iva_pct"`
	MontoIVA     decimal.Decimal  `json:"monto_iva"`
	PrecioFinal  decimal.Decimal  `json:"precio_final"`
}

type CatalogoListResponse struct {
	Data       []ProductoCatalogoResponse `json:"data"`
	Total      int64                      `json:"total"`
	Page       int                        `json:"page"`
	Limit      int                        `json:"limit"`
	TotalPages int                        `json:"total_pages"`
}

type CategoriaResponse struct {
	ID          uuid.UUID `json:"id"`
	Nombre      string    `json:"nombre"`
	Descripcion *string   `json:"descripcion"`
	Activo      bool      `json:"activo"`
}
