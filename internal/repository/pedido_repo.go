package repository

import (
	"context"

	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/dto"
	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PedidoRepository is the data access contract for orders.
type PedidoRepository interface {
	// Create persists the pedido with its items inside the given transaction.
	Create(ctx context.Context, tx *gorm.DB, p *model.Pedido) error
	// NextNumeroPedido reserva el siguiente folio consecutivo (secuencia de DB).
	NextNumeroPedido(ctx context.Context, tx *gorm.DB) (int, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Pedido, error)
	FindItem(ctx context.Context, pedidoID, itemID uuid.UUID) (*model.PedidoItem, error)
	ListByCliente(ctx context.Context, clienteID string, filter dto.PedidoFilter) ([]model.Pedido, int64, error)
	UpdateEstadoTx(tx *gorm.DB, id uuid.UUID, estado string) error
	UpdateItemTx(tx *gorm.DB, item *model.PedidoItem) error
	UpdateTotalesTx(tx *gorm.DB, p *model.Pedido) error

	DB() *gorm.DB
}

type pedidoRepo struct{ db *gorm.DB }

func NewPedidoRepository(db *gorm.DB) PedidoRepository { return &pedidoRepo{db: db} }

func (r *pedidoRepo) Create(ctx context.Context, tx *gorm.DB, p *model.Pedido) error {
	return tx.WithContext(ctx).Create(p).Error
}

func (r *pedidoRepo) NextNumeroPedido(ctx context.Context, tx *gorm.DB) (int, error) {
	var numero int
	err := tx.WithContext(ctx).Raw("SELECT nextval('pedidos_numero_seq')").Scan(&numero).Error
	return numero, err
}

func (r *pedidoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Pedido, error) {
	var p model.Pedido
	err := r.db.WithContext(ctx).Preload("Items").Preload("Cliente").First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *pedidoRepo) FindItem(ctx context.Context, pedidoID, itemID uuid.UUID) (*model.PedidoItem, error) {
	var item model.PedidoItem
	err := r.db.WithContext(ctx).
		Where("id = ? AND pedido_id = ?", itemID, pedidoID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *pedidoRepo) ListByCliente(ctx context.Context, clienteID string, filter dto.PedidoFilter) ([]model.Pedido, int64, error) {
	var pedidos []model.Pedido
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Pedido{}).Where("cliente_id = ?", clienteID)
	if filter.Estado != "" {
		q = q.Where("estado = ?", filter.Estado)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Items").Order("created_at DESC").Limit(filter.Limit).Offset(offset).Find(&pedidos).Error
	return pedidos, total, err
}

func (r *pedidoRepo) UpdateEstadoTx(tx *gorm.DB, id uuid.UUID, estado string) error {
	return tx.Model(&model.Pedido{}).Where("id = ?", id).Update("estado", estado).Error
}

func (r *pedidoRepo) UpdateItemTx(tx *gorm.DB, item *model.PedidoItem) error {
	return tx.Model(&model.PedidoItem{}).Where("id = ?", item.ID).Updates(map[string]interface{}{
		"cantidad":        item.Cantidad,
		"precio_unitario": item.PrecioUnitario,
		"subtotal":        item.Subtotal,
	}).Error
}

func (r *pedidoRepo) UpdateTotalesTx(tx *gorm.DB, p *model.Pedido) error {
	return tx.Model(&model.Pedido{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"subtotal":  p.Subtotal,
		"monto_iva": p.MontoIVA,
		"total":     p.Total,
	}).Error
}

func (r *pedidoRepo) DB() *gorm.DB { return r.db }
