package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var listaUpsertColumns = []string{"nombre", "descripcion", "activo", "updated_at"}

var itemUpsertColumns = []string{"margen_pct", "precio_final", "activo", "updated_at"}

// ClaveItem identifica una fila de lista de precios por su llave compuesta.
type ClaveItem struct {
	ListaPrecioID int
	ProductoID    string
}

func (k ClaveItem) String() string { return fmt.Sprintf("%d:%s", k.ListaPrecioID, k.ProductoID) }

// ListaPrecioRepository defines the data access contract for price lists and
// their per-product markup rows.
type ListaPrecioRepository interface {
	ObtenerLista(ctx context.Context, id int) (*model.ListaPrecio, error)
	ListasExistentes(ctx context.Context, ids []int) (map[int]struct{}, error)
	UpsertListas(ctx context.Context, listas []model.ListaPrecio) error

	ObtenerItem(ctx context.Context, listaID int, productoID string) (*model.ListaPrecioItem, error)
	// ObtenerItems trae en un solo round-trip los márgenes de una lista para
	// un conjunto de productos (listado de catálogo).
	ObtenerItems(ctx context.Context, listaID int, productoIDs []string) (map[string]model.ListaPrecioItem, error)
	ItemsExistentes(ctx context.Context, claves []ClaveItem) (map[string]struct{}, error)
	UpsertItems(ctx context.Context, items []model.ListaPrecioItem) error

	DesactivarListasAnteriores(ctx context.Context, cutoff time.Time) (int64, error)
	DesactivarItemsAnteriores(ctx context.Context, cutoff time.Time) (int64, error)
}

type listaPrecioRepo struct{ db *gorm.DB }

func NewListaPrecioRepository(db *gorm.DB) ListaPrecioRepository { return &listaPrecioRepo{db: db} }

func (r *listaPrecioRepo) ObtenerLista(ctx context.Context, id int) (*model.ListaPrecio, error) {
	var l model.ListaPrecio
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *listaPrecioRepo) ListasExistentes(ctx context.Context, ids []int) (map[int]struct{}, error) {
	existentes := make(map[int]struct{}, len(ids))
	if len(ids) == 0 {
		return existentes, nil
	}
	var encontrados []int
	err := r.db.WithContext(ctx).Model(&model.ListaPrecio{}).
		Where("id IN ?", ids).Pluck("id", &encontrados).Error
	if err != nil {
		return nil, err
	}
	for _, id := range encontrados {
		existentes[id] = struct{}{}
	}
	return existentes, nil
}

func (r *listaPrecioRepo) UpsertListas(ctx context.Context, listas []model.ListaPrecio) error {
	if len(listas) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(listaUpsertColumns),
	}).Create(&listas).Error
}

func (r *listaPrecioRepo) ObtenerItem(ctx context.Context, listaID int, productoID string) (*model.ListaPrecioItem, error) {
	var item model.ListaPrecioItem
	err := r.db.WithContext(ctx).
		Where("lista_precio_id = ? AND producto_id = ? AND activo = true", listaID, productoID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *listaPrecioRepo) ObtenerItems(ctx context.Context, listaID int, productoIDs []string) (map[string]model.ListaPrecioItem, error) {
	result := make(map[string]model.ListaPrecioItem, len(productoIDs))
	if len(productoIDs) == 0 {
		return result, nil
	}
	var items []model.ListaPrecioItem
	err := r.db.WithContext(ctx).
		Where("lista_precio_id = ? AND producto_id IN ? AND activo = true", listaID, productoIDs).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		result[item.ProductoID] = item
	}
	return result, nil
}

func (r *listaPrecioRepo) ItemsExistentes(ctx context.Context, claves []ClaveItem) (map[string]struct{}, error) {
	existentes := make(map[string]struct{}, len(claves))
	if len(claves) == 0 {
		return existentes, nil
	}
	tuplas := make([][]interface{}, 0, len(claves))
	for _, k := range claves {
		tuplas = append(tuplas, []interface{}{k.ListaPrecioID, k.ProductoID})
	}
	var items []model.ListaPrecioItem
	err := r.db.WithContext(ctx).Model(&model.ListaPrecioItem{}).
		Where("(lista_precio_id, producto_id) IN ?", tuplas).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		existentes[ClaveItem{item.ListaPrecioID, item.ProductoID}.String()] = struct{}{}
	}
	return existentes, nil
}

func (r *listaPrecioRepo) UpsertItems(ctx context.Context, items []model.ListaPrecioItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "lista_precio_id"}, {Name: "producto_id"}},
		DoUpdates: clause.AssignmentColumns(itemUpsertColumns),
	}).Create(&items).Error
}

func (r *listaPrecioRepo) DesactivarListasAnteriores(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.ListaPrecio{}).
		Where("activo = true AND updated_at < ?", cutoff).
		Update("activo", false)
	return res.RowsAffected, res.Error
}

func (r *listaPrecioRepo) DesactivarItemsAnteriores(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.ListaPrecioItem{}).
		Where("activo = true AND updated_at < ?", cutoff).
		Update("activo", false)
	return res.RowsAffected, res.Error
}
