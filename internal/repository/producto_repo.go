package repository

import (
	"context"
	"time"

	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/dto"
	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// productoUpsertColumns es la lista explícita de columnas que un sync puede
// sobreescribir. Fija en compilación a propósito: construir el set dinámicamente
// a partir de los atributos del registro terminaba incluyendo o excluyendo
// columnas en silencio cuando cambiaba la forma del export.
// created_at nunca se actualiza; descripcion_2 sólo cuando no se preserva.
var productoUpsertColumns = []string{
	"codigo_barras", "nombre", "descripcion", "unidad_medida",
	"precio_base", "iva_pct", "stock_actual", "activo",
	"categoria_id", "imagen_url", "updated_at",
}

// ProductoRepository defines the data access contract for products.
type ProductoRepository interface {
	FindByID(ctx context.Context, id string) (*model.Producto, error)
	List(ctx context.Context, filter dto.CatalogoFilter) ([]model.Producto, int64, error)
	// ExistentesPorID devuelve cuáles de los IDs dados ya están en el almacén.
	// El pipeline lo usa para contar creados vs. actualizados y para el
	// filtrado de huérfanos en items de lista.
	ExistentesPorID(ctx context.Context, ids []string) (map[string]struct{}, error)
	// UpsertBatch inserta-o-actualiza un chunk completo en un solo round-trip.
	// Cada chunk se confirma de forma independiente.
	UpsertBatch(ctx context.Context, productos []model.Producto, preservarDescripcion2 bool) error
	AjustarStockTx(tx *gorm.DB, id string, delta int) error
	DesactivarAnteriores(ctx context.Context, cutoff time.Time) (int64, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productoRepo struct{ db *gorm.DB }

func NewProductoRepository(db *gorm.DB) ProductoRepository { return &productoRepo{db: db} }

func (r *productoRepo) FindByID(ctx context.Context, id string) (*model.Producto, error) {
	var p model.Producto
	err := r.db.WithContext(ctx).Preload("Categoria").Where("id = ?", id).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productoRepo) List(ctx context.Context, filter dto.CatalogoFilter) ([]model.Producto, int64, error) {
	var productos []model.Producto
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Producto{}).Where("activo = true")

	if filter.Busqueda != "" {
		q = q.Where("nombre ILIKE ? OR codigo_barras = ?", "%"+filter.Busqueda+"%", filter.Busqueda)
	}
	if filter.Categoria != "" {
		q = q.Joins("JOIN categorias ON categorias.id = productos.categoria_id").
			Where("categorias.nombre = ?", filter.Categoria)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Categoria").Order("nombre ASC").Limit(filter.Limit).Offset(offset).Find(&productos).Error
	return productos, total, err
}

func (r *productoRepo) ExistentesPorID(ctx context.Context, ids []string) (map[string]struct{}, error) {
	existentes := make(map[string]struct{}, len(ids))
	if len(ids) == 0 {
		return existentes, nil
	}
	var encontrados []string
	err := r.db.WithContext(ctx).Model(&model.Producto{}).
		Where("id IN ?", ids).Pluck("id", &encontrados).Error
	if err != nil {
		return nil, err
	}
	for _, id := range encontrados {
		existentes[id] = struct{}{}
	}
	return existentes, nil
}

func (r *productoRepo) UpsertBatch(ctx context.Context, productos []model.Producto, preservarDescripcion2 bool) error {
	if len(productos) == 0 {
		return nil
	}
	columns := productoUpsertColumns
	if !preservarDescripcion2 {
		columns = append(append([]string{}, columns...), "descripcion_2")
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(&productos).Error
}

func (r *productoRepo) AjustarStockTx(tx *gorm.DB, id string, delta int) error {
	return tx.Model(&model.Producto{}).Where("id = ?", id).
		Update("stock_actual", gorm.Expr("stock_actual + ?", delta)).Error
}

func (r *productoRepo) DesactivarAnteriores(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Producto{}).
		Where("activo = true AND updated_at < ?", cutoff).
		Update("activo", false)
	return res.RowsAffected, res.Error
}

func (r *productoRepo) DB() *gorm.DB { return r.db }
