package infra

import (
	"fmt"

	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies idempotent SQL patches that GORM
// cannot express (sequences, partial indexes).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates / updates the schema. Also used by integration tests
// against a throwaway container.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Categoria{},
		&model.Producto{},
		&model.ListaPrecio{},
		&model.ListaPrecioItem{},
		&model.Cliente{},
		&model.ClienteInfo{},
		&model.Usuario{},
		&model.CarritoItem{},
		&model.Pedido{},
		&model.PedidoItem{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot express.
// Re-running on an already-patched DB is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// gen_random_uuid() requires pgcrypto on Postgres < 13.
		{"enable pgcrypto",
			`CREATE EXTENSION IF NOT EXISTS pgcrypto`},

		// Folio consecutivo de pedidos. Una secuencia de Postgres garantiza
		// unicidad bajo checkouts concurrentes sin SELECT MAX + retry.
		{"create pedidos numero sequence",
			`CREATE SEQUENCE IF NOT EXISTS pedidos_numero_seq START 1000`},

		// El catálogo sólo consulta productos activos; índice parcial.
		{"partial index productos activos", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_productos_activos') THEN
    CREATE INDEX idx_productos_activos ON productos (nombre) WHERE activo = true;
  END IF;
END $$`},

		// La resolución de márgenes busca por lista; índice parcial sobre
		// items activos.
		{"partial index items activos", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_listas_items_activos') THEN
    CREATE INDEX idx_listas_items_activos
        ON listas_precios_items (lista_precio_id, producto_id)
        WHERE activo = true;
  END IF;
END $$`},

		// La limpieza post-sync filtra por updated_at en tablas grandes.
		{"index productos updated_at", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_productos_updated_at') THEN
    CREATE INDEX idx_productos_updated_at ON productos (updated_at);
  END IF;
END $$`},
		{"index clientes updated_at", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_clientes_updated_at') THEN
    CREATE INDEX idx_clientes_updated_at ON clientes (updated_at);
  END IF;
END $$`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("schema patch %q: %w", p.descr, err)
		}
	}
	return nil
}
