package repository

import (
	"context"
	"time"

	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CategoriaRepository defines the data access contract for categories.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via stubs.
type CategoriaRepository interface {
	Crear(ctx context.Context, c *model.Categoria) error
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*model.Categoria, error)
	ObtenerPorNombre(ctx context.Context, nombre string) (*model.Categoria, error)
	// ObtenerPorNombres resuelve en una sola consulta las categorías de un lote.
	ObtenerPorNombres(ctx context.Context, nombres []string) ([]model.Categoria, error)
	Listar(ctx context.Context) ([]model.Categoria, error)
	// TocarActualizacion refresca updated_at sin cambiar nada más; así la
	// categoría no es candidata a limpieza tras la corrida de sync.
	TocarActualizacion(ctx context.Context, ids []uuid.UUID) error
	DesactivarAnteriores(ctx context.Context, cutoff time.Time) (int64, error)
}

type categoriaRepo struct{ db *gorm.DB }

func NewCategoriaRepository(db *gorm.DB) CategoriaRepository { return &categoriaRepo{db: db} }

func (r *categoriaRepo) Crear(ctx context.Context, c *model.Categoria) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *categoriaRepo) ObtenerPorID(ctx context.Context, id uuid.UUID) (*model.Categoria, error) {
	var c model.Categoria
	err := r.db.WithContext(ctx).First(&c, id).Error
	return &c, err
}

func (r *categoriaRepo) ObtenerPorNombre(ctx context.Context, nombre string) (*model.Categoria, error) {
	var c model.Categoria
	err := r.db.WithContext(ctx).Where("nombre = ?", nombre).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *categoriaRepo) ObtenerPorNombres(ctx context.Context, nombres []string) ([]model.Categoria, error) {
	if len(nombres) == 0 {
		return nil, nil
	}
	var categorias []model.Categoria
	err := r.db.WithContext(ctx).Where("nombre IN ?", nombres).Find(&categorias).Error
	return categorias, err
}

func (r *categoriaRepo) Listar(ctx context.Context) ([]model.Categoria, error) {
	var categorias []model.Categoria
	err := r.db.WithContext(ctx).Where("activo = true").Order("nombre ASC").Find(&categorias).Error
	return categorias, err
}

func (r *categoriaRepo) TocarActualizacion(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&model.Categoria{}).
		Where("id IN ?", ids).
		Update("updated_at", time.Now()).Error
}

func (r *categoriaRepo) DesactivarAnteriores(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Categoria{}).
		Where("activo = true AND updated_at < ?", cutoff).
		Update("activo", false)
	return res.RowsAffected, res.Error
}
