package repository

import (
	"context"
	"time"

	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// clienteUpsertColumns: password_hash se agrega sólo cuando el lote pide
// rotación explícita; de lo contrario un sync jamás resetea credenciales.
var clienteUpsertColumns = []string{
	"username", "email", "nombre_completo", "activo", "updated_at",
}

var clienteInfoUpsertColumns = []string{
	"razon_social", "rfc", "lista_precio_id", "grupo_ventas_id", "agente_id",
	"direccion", "ciudad", "estado", "codigo_postal", "telefono", "celular",
	"updated_at",
}

// ClienteRepository defines the data access contract for customers and their
// commercial info rows.
type ClienteRepository interface {
	FindByID(ctx context.Context, id string) (*model.Cliente, error)
	FindByUsername(ctx context.Context, username string) (*model.Cliente, error)
	ObtenerInfo(ctx context.Context, clienteID string) (*model.ClienteInfo, error)
	ExistentesPorID(ctx context.Context, ids []string) (map[string]struct{}, error)
	// UpsertClientes inserta-o-actualiza el chunk de filas de identidad.
	// Debe ejecutarse antes de UpsertInfos para satisfacer la FK.
	UpsertClientes(ctx context.Context, clientes []model.Cliente, rotarPasswords bool) error
	UpsertInfos(ctx context.Context, infos []model.ClienteInfo) error
	DesactivarAnteriores(ctx context.Context, cutoff time.Time) (int64, error)
}

type clienteRepo struct{ db *gorm.DB }

func NewClienteRepository(db *gorm.DB) ClienteRepository { return &clienteRepo{db: db} }

func (r *clienteRepo) FindByID(ctx context.Context, id string) (*model.Cliente, error) {
	var c model.Cliente
	err := r.db.WithContext(ctx).Preload("Info").Where("id = ?", id).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *clienteRepo) FindByUsername(ctx context.Context, username string) (*model.Cliente, error) {
	var c model.Cliente
	err := r.db.WithContext(ctx).Preload("Info").Where("username = ?", username).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *clienteRepo) ObtenerInfo(ctx context.Context, clienteID string) (*model.ClienteInfo, error) {
	var info model.ClienteInfo
	err := r.db.WithContext(ctx).Where("cliente_id = ?", clienteID).First(&info).Error
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (r *clienteRepo) ExistentesPorID(ctx context.Context, ids []string) (map[string]struct{}, error) {
	existentes := make(map[string]struct{}, len(ids))
	if len(ids) == 0 {
		return existentes, nil
	}
	var encontrados []string
	err := r.db.WithContext(ctx).Model(&model.Cliente{}).
		Where("id IN ?", ids).Pluck("id", &encontrados).Error
	if err != nil {
		return nil, err
	}
	for _, id := range encontrados {
		existentes[id] = struct{}{}
	}
	return existentes, nil
}

func (r *clienteRepo) UpsertClientes(ctx context.Context, clientes []model.Cliente, rotarPasswords bool) error {
	if len(clientes) == 0 {
		return nil
	}
	columns := clienteUpsertColumns
	if rotarPasswords {
		columns = append(append([]string{}, columns...), "password_hash")
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(&clientes).Error
}

func (r *clienteRepo) UpsertInfos(ctx context.Context, infos []model.ClienteInfo) error {
	if len(infos) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cliente_id"}},
		DoUpdates: clause.AssignmentColumns(clienteInfoUpsertColumns),
	}).Create(&infos).Error
}

func (r *clienteRepo) DesactivarAnteriores(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Cliente{}).
		Where("activo = true AND updated_at < ?", cutoff).
		Update("activo", false)
	return res.RowsAffected, res.Error
}
