package repository

import (
	"context"

	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CarritoRepository is the data access contract for cart lines. Cart lines
// are the one place where hard deletes are allowed.
type CarritoRepository interface {
	ListarPorCliente(ctx context.Context, clienteID string) ([]model.CarritoItem, error)
	Obtener(ctx context.Context, id uuid.UUID) (*model.CarritoItem, error)
	ObtenerPorProducto(ctx context.Context, clienteID, productoID string) (*model.CarritoItem, error)
	Crear(ctx context.Context, item *model.CarritoItem) error
	ActualizarCantidad(ctx context.Context, id uuid.UUID, cantidad int) error
	Eliminar(ctx context.Context, id uuid.UUID) error
	VaciarTx(tx *gorm.DB, clienteID string) error
}

type carritoRepo struct{ db *gorm.DB }

func NewCarritoRepository(db *gorm.DB) CarritoRepository { return &carritoRepo{db: db} }

func (r *carritoRepo) ListarPorCliente(ctx context.Context, clienteID string) ([]model.CarritoItem, error) {
	var items []model.CarritoItem
	err := r.db.WithContext(ctx).Preload("Producto").
		Where("cliente_id = ?", clienteID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

func (r *carritoRepo) Obtener(ctx context.Context, id uuid.UUID) (*model.CarritoItem, error) {
	var item model.CarritoItem
	err := r.db.WithContext(ctx).Preload("Producto").First(&item, id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *carritoRepo) ObtenerPorProducto(ctx context.Context, clienteID, productoID string) (*model.CarritoItem, error) {
	var item model.CarritoItem
	err := r.db.WithContext(ctx).
		Where("cliente_id = ? AND producto_id = ?", clienteID, productoID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *carritoRepo) Crear(ctx context.Context, item *model.CarritoItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *carritoRepo) ActualizarCantidad(ctx context.Context, id uuid.UUID, cantidad int) error {
	return r.db.WithContext(ctx).Model(&model.CarritoItem{}).
		Where("id = ?", id).
		Update("cantidad", cantidad).Error
}

func (r *carritoRepo) Eliminar(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.CarritoItem{}, id).Error
}

func (r *carritoRepo) VaciarTx(tx *gorm.DB, clienteID string) error {
	return tx.Where("cliente_id = ?", clienteID).Delete(&model.CarritoItem{}).Error
}
