package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Registros del export legado ─────────────────────────────────────────────
// Los nombres JSON replican el export del sistema de escritorio; cambiarlos
// rompe el job de sincronización nocturno.

type SyncCategoriaRecord struct {
	Nombre      string  `json:"name" validate:"required"`
	Descripcion *string `json:"description"`
}

type SyncProductoRecord struct {
	ProductoID   string           `json:"product_id" validate:"required"`
	Nombre       string           `json:"name" validate:"required"`
	CodigoBarras *string          `json:"codebar"`
	Descripcion  *string          `json:"description"`
	Descripcion2 *string          `json:"descripcion_2"`
	UnidadMedida *string          `json:"unidad_medida"`
	PrecioBase   *decimal.Decimal `json:"base_price"`
	IVAPct       *decimal.Decimal `json:"iva_percentage"`
	Stock        *int             `json:"stock_count"`
	Activo       *bool            `json:"is_active"`
	// CategoriaNombre es la etiqueta libre del legado; se resuelve a un ID.
	// Sin resolución el producto queda sin categoría, no es un error.
	CategoriaNombre *string `json:"category_name"`
	ImagenURL       *string `json:"image_url"`
}

type SyncListaPrecioRecord struct {
	ListaPrecioID int `json:"price_list_id" validate:"required"`
	// El nombre de la lista llega bajo claves distintas según la versión del
	// export: list_name → name → se sintetiza "Lista {id}".
	ListName    *string `json:"list_name"`
	Nombre      *string `json:"name"`
	Descripcion *string `json:"description"`
	Activo      *bool   `json:"is_active"`
}

type SyncListaPrecioItemRecord struct {
	ListaPrecioID int             `json:"price_list_id" validate:"required"`
	ProductoID    string          `json:"product_id" validate:"required"`
	MargenPct     decimal.Decimal `json:"markup_percentage"`
	// PrecioFinal es la pista de reconciliación del legado, no fuente de verdad.
	PrecioFinal *decimal.Decimal `json:"final_price"`
}

type SyncClienteRecord struct {
	ClienteID      string  `json:"customer_id" validate:"required"`
	Username       string  `json:"username" validate:"required"`
	Password       string  `json:"password" validate:"required"`
	Email          *string `json:"email"`
	NombreCompleto *string `json:"full_name"`
	RazonSocial    *string `json:"business_name"`
	RFC            *string `json:"rfc"`
	ListaPrecioID  *int    `json:"price_list_id"`
	GrupoVentasID  *int    `json:"sales_group_id"`
	AgenteID       *string `json:"agent_id"`
	Direccion      *string `json:"address"`
	Ciudad         *string `json:"city"`
	Estado         *string `json:"state"`
	CodigoPostal   *string `json:"zip_code"`
	Telefono       *string `json:"phone"`
	Celular        *string `json:"mobile_phone"`
}

// ─── Lotes ───────────────────────────────────────────────────────────────────

type SyncCategoriasRequest struct {
	Records []SyncCategoriaRecord `json:"records" validate:"required"`
}

type SyncProductosRequest struct {
	Records []SyncProductoRecord `json:"records" validate:"required"`
	// PreservarDescripcion2 se activa en syncs rutinarios del legado, que no
	// traen descripción larga: la curada por el administrador se conserva.
	// La edición administrativa manda el lote sin la bandera y sí sobreescribe.
	PreservarDescripcion2 bool `json:"preserve_description_2"`
}

type SyncListasPreciosRequest struct {
	Records []SyncListaPrecioRecord `json:"records" validate:"required"`
}

type SyncListaPrecioItemsRequest struct {
	Records []SyncListaPrecioItemRecord `json:"records" validate:"required"`
}

type SyncClientesRequest struct {
	Records []SyncClienteRecord `json:"records" validate:"required"`
	// RotarPasswords re-hashea la contraseña de clientes ya existentes con la
	// que trae el export. Es el comportamiento histórico de la integración,
	// pero ahora es opt-in explícito y auditable por lote.
	RotarPasswords bool `json:"rotate_passwords"`
}

// ─── Resultado uniforme ──────────────────────────────────────────────────────

// SyncOutcome es el contrato de respuesta de todos los endpoints de lote, de
// modo que el job legado pueda construir una sola UI de reintentos y alertas.
type SyncOutcome struct {
	TotalRecibidos   int      `json:"total_received"`
	Creados          int      `json:"created"`
	Actualizados     int      `json:"updated"`
	Errores          int      `json:"errors"`
	DetalleErrores   []string `json:"error_details"`
	OrfanosFiltrados int      `json:"filtered_orphan_count,omitempty"`
}

// AgregarError registra un problema de un registro individual sin abortar el lote.
func (o *SyncOutcome) AgregarError(msg string) {
	o.Errores++
	o.DetalleErrores = append(o.DetalleErrores, msg)
}

// ─── Limpieza ────────────────────────────────────────────────────────────────

// LimpiezaRequest marca como inactivos los registros cuyo updated_at es
// anterior al corte, es decir, los que la última corrida de sync ya no tocó.
type LimpiezaRequest struct {
	Cutoff time.Time `json:"last_sync_before" validate:"required"`
}

// LimpiezaResponse devuelve el corte sin modificar (contrato de acuse).
type LimpiezaResponse struct {
	Cutoff time.Time `json:"last_sync_before"`
}
