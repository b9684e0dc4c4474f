package service

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/dto"
	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/model"
	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────

// stubCategoriaRepo is an in-memory CategoriaRepository keyed by nombre.
type stubCategoriaRepo struct {
	categorias map[string]*model.Categoria
	tocadas    []uuid.UUID
}

func newStubCategoriaRepo() *stubCategoriaRepo {
	return &stubCategoriaRepo{categorias: make(map[string]*model.Categoria)}
}

func (r *stubCategoriaRepo) Crear(_ context.Context, c *model.Categoria) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.UpdatedAt = time.Now()
	r.categorias[c.Nombre] = c
	return nil
}

func (r *stubCategoriaRepo) ObtenerPorID(_ context.Context, id uuid.UUID) (*model.Categoria, error) {
	for _, c := range r.categorias {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubCategoriaRepo) ObtenerPorNombre(_ context.Context, nombre string) (*model.Categoria, error) {
	c, ok := r.categorias[nombre]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *stubCategoriaRepo) ObtenerPorNombres(_ context.Context, nombres []string) ([]model.Categoria, error) {
	out := make([]model.Categoria, 0, len(nombres))
	for _, n := range nombres {
		if c, ok := r.categorias[n]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *stubCategoriaRepo) Listar(_ context.Context) ([]model.Categoria, error) {
	out := make([]model.Categoria, 0, len(r.categorias))
	for _, c := range r.categorias {
		if c.Activo {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *stubCategoriaRepo) TocarActualizacion(_ context.Context, ids []uuid.UUID) error {
	now := time.Now()
	for _, id := range ids {
		r.tocadas = append(r.tocadas, id)
		for _, c := range r.categorias {
			if c.ID == id {
				c.UpdatedAt = now
			}
		}
	}
	return nil
}

func (r *stubCategoriaRepo) DesactivarAnteriores(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for _, c := range r.categorias {
		if c.Activo && c.UpdatedAt.Before(cutoff) {
			c.Activo = false
			n++
		}
	}
	return n, nil
}

var _ repository.CategoriaRepository = (*stubCategoriaRepo)(nil)

// stubProductoRepo is an in-memory ProductoRepository.
type stubProductoRepo struct {
	productos  map[string]*model.Producto
	batchCalls int
}

func newStubProductoRepo() *stubProductoRepo {
	return &stubProductoRepo{productos: make(map[string]*model.Producto)}
}

func (r *stubProductoRepo) FindByID(_ context.Context, id string) (*model.Producto, error) {
	p, ok := r.productos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *stubProductoRepo) List(_ context.Context, filter dto.CatalogoFilter) ([]model.Producto, int64, error) {
	out := make([]model.Producto, 0, len(r.productos))
	for _, p := range r.productos {
		if p.Activo {
			out = append(out, *p)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubProductoRepo) ExistentesPorID(_ context.Context, ids []string) (map[string]struct{}, error) {
	existentes := make(map[string]struct{})
	for _, id := range ids {
		if _, ok := r.productos[id]; ok {
			existentes[id] = struct{}{}
		}
	}
	return existentes, nil
}

func (r *stubProductoRepo) UpsertBatch(_ context.Context, productos []model.Producto, preservarDescripcion2 bool) error {
	r.batchCalls++
	now := time.Now()
	for i := range productos {
		p := productos[i]
		p.UpdatedAt = now
		if prev, ok := r.productos[p.ID]; ok && preservarDescripcion2 {
			p.Descripcion2 = prev.Descripcion2
		}
		r.productos[p.ID] = &p
	}
	return nil
}

func (r *stubProductoRepo) AjustarStockTx(_ *gorm.DB, id string, delta int) error {
	p, ok := r.productos[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if p.StockActual+delta < 0 {
		return fmt.Errorf("stock negativo para %s", id)
	}
	p.StockActual += delta
	return nil
}

func (r *stubProductoRepo) DesactivarAnteriores(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for _, p := range r.productos {
		if p.Activo && p.UpdatedAt.Before(cutoff) {
			p.Activo = false
			n++
		}
	}
	return n, nil
}

func (r *stubProductoRepo) DB() *gorm.DB { return nil }

var _ repository.ProductoRepository = (*stubProductoRepo)(nil)

// stubListaRepo is an in-memory ListaPrecioRepository; items keyed by ClaveItem.
type stubListaRepo struct {
	listas map[int]*model.ListaPrecio
	items  map[string]*model.ListaPrecioItem
}

func newStubListaRepo() *stubListaRepo {
	return &stubListaRepo{
		listas: make(map[int]*model.ListaPrecio),
		items:  make(map[string]*model.ListaPrecioItem),
	}
}

func (r *stubListaRepo) ObtenerLista(_ context.Context, id int) (*model.ListaPrecio, error) {
	l, ok := r.listas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return l, nil
}

func (r *stubListaRepo) ListasExistentes(_ context.Context, ids []int) (map[int]struct{}, error) {
	existentes := make(map[int]struct{})
	for _, id := range ids {
		if _, ok := r.listas[id]; ok {
			existentes[id] = struct{}{}
		}
	}
	return existentes, nil
}

func (r *stubListaRepo) UpsertListas(_ context.Context, listas []model.ListaPrecio) error {
	now := time.Now()
	for i := range listas {
		l := listas[i]
		l.UpdatedAt = now
		r.listas[l.ID] = &l
	}
	return nil
}

func (r *stubListaRepo) ObtenerItem(_ context.Context, listaID int, productoID string) (*model.ListaPrecioItem, error) {
	clave := repository.ClaveItem{ListaPrecioID: listaID, ProductoID: productoID}.String()
	item, ok := r.items[clave]
	if !ok || !item.Activo {
		return nil, gorm.ErrRecordNotFound
	}
	return item, nil
}

func (r *stubListaRepo) ObtenerItems(_ context.Context, listaID int, productoIDs []string) (map[string]model.ListaPrecioItem, error) {
	out := make(map[string]model.ListaPrecioItem)
	for _, pid := range productoIDs {
		clave := repository.ClaveItem{ListaPrecioID: listaID, ProductoID: pid}.String()
		if item, ok := r.items[clave]; ok && item.Activo {
			out[pid] = *item
		}
	}
	return out, nil
}

func (r *stubListaRepo) ItemsExistentes(_ context.Context, claves []repository.ClaveItem) (map[string]struct{}, error) {
	existentes := make(map[string]struct{})
	for _, k := range claves {
		if _, ok := r.items[k.String()]; ok {
			existentes[k.String()] = struct{}{}
		}
	}
	return existentes, nil
}

func (r *stubListaRepo) UpsertItems(_ context.Context, items []model.ListaPrecioItem) error {
	now := time.Now()
	for i := range items {
		item := items[i]
		item.UpdatedAt = now
		clave := repository.ClaveItem{ListaPrecioID: item.ListaPrecioID, ProductoID: item.ProductoID}.String()
		r.items[clave] = &item
	}
	return nil
}

func (r *stubListaRepo) DesactivarListasAnteriores(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for _, l := range r.listas {
		if l.Activo && l.UpdatedAt.Before(cutoff) {
			l.Activo = false
			n++
		}
	}
	return n, nil
}

func (r *stubListaRepo) DesactivarItemsAnteriores(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for _, item := range r.items {
		if item.Activo && item.UpdatedAt.Before(cutoff) {
			item.Activo = false
			n++
		}
	}
	return n, nil
}

var _ repository.ListaPrecioRepository = (*stubListaRepo)(nil)

// stubClienteRepo replica la semántica de columnas del upsert real: sin
// rotación, password_hash no se toca en filas existentes.
type stubClienteRepo struct {
	clientes map[string]*model.Cliente
	infos    map[string]*model.ClienteInfo
}

func newStubClienteRepo() *stubClienteRepo {
	return &stubClienteRepo{
		clientes: make(map[string]*model.Cliente),
		infos:    make(map[string]*model.ClienteInfo),
	}
}

func (r *stubClienteRepo) FindByID(_ context.Context, id string) (*model.Cliente, error) {
	c, ok := r.clientes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c.Info = r.infos[id]
	return c, nil
}

func (r *stubClienteRepo) FindByUsername(_ context.Context, username string) (*model.Cliente, error) {
	for _, c := range r.clientes {
		if c.Username == username {
			c.Info = r.infos[c.ID]
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubClienteRepo) ObtenerInfo(_ context.Context, clienteID string) (*model.ClienteInfo, error) {
	info, ok := r.infos[clienteID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return info, nil
}

func (r *stubClienteRepo) ExistentesPorID(_ context.Context, ids []string) (map[string]struct{}, error) {
	existentes := make(map[string]struct{})
	for _, id := range ids {
		if _, ok := r.clientes[id]; ok {
			existentes[id] = struct{}{}
		}
	}
	return existentes, nil
}

func (r *stubClienteRepo) UpsertClientes(_ context.Context, clientes []model.Cliente, rotarPasswords bool) error {
	now := time.Now()
	for i := range clientes {
		c := clientes[i]
		c.UpdatedAt = now
		if prev, ok := r.clientes[c.ID]; ok && !rotarPasswords {
			c.PasswordHash = prev.PasswordHash
		}
		r.clientes[c.ID] = &c
	}
	return nil
}

func (r *stubClienteRepo) UpsertInfos(_ context.Context, infos []model.ClienteInfo) error {
	now := time.Now()
	for i := range infos {
		info := infos[i]
		info.UpdatedAt = now
		r.infos[info.ClienteID] = &info
	}
	return nil
}

func (r *stubClienteRepo) DesactivarAnteriores(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for _, c := range r.clientes {
		if c.Activo && c.UpdatedAt.Before(cutoff) {
			c.Activo = false
			n++
		}
	}
	return n, nil
}

var _ repository.ClienteRepository = (*stubClienteRepo)(nil)

// ── Fixture ──────────────────────────────────────────────────────────────────

type syncFixture struct {
	svc        SyncService
	categorias *stubCategoriaRepo
	productos  *stubProductoRepo
	listas     *stubListaRepo
	clientes   *stubClienteRepo
}

func newSyncFixture() *syncFixture {
	f := &syncFixture{
		categorias: newStubCategoriaRepo(),
		productos:  newStubProductoRepo(),
		listas:     newStubListaRepo(),
		clientes:   newStubClienteRepo(),
	}
	f.svc = NewSyncService(f.categorias, f.productos, f.listas, f.clientes)
	return f
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }
func boolPtr(b bool) *bool    { return &b }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func productoRecord(id, nombre string) dto.SyncProductoRecord {
	return dto.SyncProductoRecord{
		ProductoID: id,
		Nombre:     nombre,
		PrecioBase: decPtr("100.00"),
		IVAPct:     decPtr("16"),
		Stock:      intPtr(10),
	}
}

// ── Categorías ────────────────────────────────────────────────────────────────

func TestSincronizarCategorias_CreaYDeduplica(t *testing.T) {
	f := newSyncFixture()

	outcome, err := f.svc.SincronizarCategorias(context.Background(), dto.SyncCategoriasRequest{
		Records: []dto.SyncCategoriaRecord{
			{Nombre: "Analgésicos"},
			{Nombre: "Analgésicos", Descripcion: strPtr("repetida en cada producto")},
			{Nombre: "Antibióticos"},
			{Nombre: ""},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 4, outcome.TotalRecibidos)
	assert.Equal(t, 2, outcome.Creados)
	assert.Equal(t, 0, outcome.Actualizados)
	assert.Equal(t, 1, outcome.Errores)
	assert.Len(t, f.categorias.categorias, 2)
}

func TestSincronizarCategorias_SegundaCorridaSoloActualiza(t *testing.T) {
	f := newSyncFixture()
	req := dto.SyncCategoriasRequest{
		Records: []dto.SyncCategoriaRecord{
			{Nombre: "Analgésicos"},
			{Nombre: "Antibióticos"},
		},
	}

	_, err := f.svc.SincronizarCategorias(context.Background(), req)
	require.NoError(t, err)

	outcome, err := f.svc.SincronizarCategorias(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 0, outcome.Creados)
	assert.Equal(t, 2, outcome.Actualizados)
	// La segunda corrida refresca updated_at para que no caigan en limpieza.
	assert.Len(t, f.categorias.tocadas, 2)
}

// ── Productos ─────────────────────────────────────────────────────────────────

func TestSincronizarProductos_EsIdempotente(t *testing.T) {
	f := newSyncFixture()
	req := dto.SyncProductosRequest{
		Records: []dto.SyncProductoRecord{
			productoRecord("MED-001", "Paracetamol 500mg"),
			productoRecord("MED-002", "Ibuprofeno 400mg"),
			productoRecord("MED-003", "Amoxicilina 250mg"),
		},
	}

	primera, err := f.svc.SincronizarProductos(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 3, primera.Creados)
	assert.Equal(t, 0, primera.Actualizados)

	segunda, err := f.svc.SincronizarProductos(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 0, segunda.Creados)
	assert.Equal(t, 3, segunda.Actualizados)
	assert.Equal(t, 0, segunda.Errores)
}

func TestSincronizarProductos_RegistroInvalidoNoAbortaElLote(t *testing.T) {
	f := newSyncFixture()

	malo := productoRecord("MED-BAD", "Stock negativo")
	malo.Stock = intPtr(-5)
	peor := productoRecord("MED-WORSE", "Base negativa")
	peor.PrecioBase = decPtr("-1.00")
	sinID := productoRecord("", "Sin identificador")

	outcome, err := f.svc.SincronizarProductos(context.Background(), dto.SyncProductosRequest{
		Records: []dto.SyncProductoRecord{
			productoRecord("MED-001", "Paracetamol 500mg"),
			malo,
			peor,
			sinID,
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.Creados)
	assert.Equal(t, 3, outcome.Errores)
	assert.Len(t, outcome.DetalleErrores, 3)
	assert.Len(t, f.productos.productos, 1)
}

func TestSincronizarProductos_DuplicadoGanaLaUltimaAparicion(t *testing.T) {
	f := newSyncFixture()

	outcome, err := f.svc.SincronizarProductos(context.Background(), dto.SyncProductosRequest{
		Records: []dto.SyncProductoRecord{
			productoRecord("MED-001", "Nombre viejo"),
			productoRecord("MED-001", "Nombre corregido"),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.Creados)
	assert.Equal(t, "Nombre corregido", f.productos.productos["MED-001"].Nombre)
}

func TestSincronizarProductos_PreservaDescripcion2(t *testing.T) {
	f := newSyncFixture()

	seed := productoRecord("MED-001", "Paracetamol 500mg")
	seed.Descripcion2 = strPtr("Ficha técnica curada por el administrador")
	_, err := f.svc.SincronizarProductos(context.Background(), dto.SyncProductosRequest{
		Records: []dto.SyncProductoRecord{seed},
	})
	require.NoError(t, err)

	// El sync rutinario no trae descripción larga; con la bandera activa la
	// curada se conserva.
	_, err = f.svc.SincronizarProductos(context.Background(), dto.SyncProductosRequest{
		Records:               []dto.SyncProductoRecord{productoRecord("MED-001", "Paracetamol 500mg")},
		PreservarDescripcion2: true,
	})
	require.NoError(t, err)
	require.NotNil(t, f.productos.productos["MED-001"].Descripcion2)
	assert.Equal(t, "Ficha técnica curada por el administrador", *f.productos.productos["MED-001"].Descripcion2)

	// Sin la bandera (edición administrativa) sí se sobreescribe.
	_, err = f.svc.SincronizarProductos(context.Background(), dto.SyncProductosRequest{
		Records: []dto.SyncProductoRecord{productoRecord("MED-001", "Paracetamol 500mg")},
	})
	require.NoError(t, err)
	assert.Nil(t, f.productos.productos["MED-001"].Descripcion2)
}

func TestSincronizarProductos_CategoriaNoResueltaQuedaSinCategoria(t *testing.T) {
	f := newSyncFixture()
	require.NoError(t, f.categorias.Crear(context.Background(), &model.Categoria{Nombre: "Analgésicos", Activo: true}))

	conCat := productoRecord("MED-001", "Paracetamol 500mg")
	conCat.CategoriaNombre = strPtr("Analgésicos")
	sinCat := productoRecord("MED-002", "Producto de etiqueta fantasma")
	sinCat.CategoriaNombre = strPtr("Etiqueta que nadie dio de alta")

	outcome, err := f.svc.SincronizarProductos(context.Background(), dto.SyncProductosRequest{
		Records: []dto.SyncProductoRecord{conCat, sinCat},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, outcome.Creados)
	assert.Equal(t, 0, outcome.Errores)
	assert.NotNil(t, f.productos.productos["MED-001"].CategoriaID)
	assert.Nil(t, f.productos.productos["MED-002"].CategoriaID)
}

func TestSincronizarProductos_DefaultsDeIVAYUnidad(t *testing.T) {
	f := newSyncFixture()

	rec := dto.SyncProductoRecord{ProductoID: "MED-001", Nombre: "Sin metadatos", PrecioBase: decPtr("50.00")}
	_, err := f.svc.SincronizarProductos(context.Background(), dto.SyncProductosRequest{
		Records: []dto.SyncProductoRecord{rec},
	})
	require.NoError(t, err)

	p := f.productos.productos["MED-001"]
	assert.True(t, p.IVAPct.Equal(decimal.NewFromInt(16)))
	assert.Equal(t, "pieza", p.UnidadMedida)
	assert.Equal(t, 0, p.StockActual)
	assert.True(t, p.Activo)
}

func TestSincronizarProductos_BajaExplicitaDesactiva(t *testing.T) {
	f := newSyncFixture()

	_, err := f.svc.SincronizarProductos(context.Background(), dto.SyncProductosRequest{
		Records: []dto.SyncProductoRecord{productoRecord("MED-001", "Paracetamol 500mg")},
	})
	require.NoError(t, err)
	require.True(t, f.productos.productos["MED-001"].Activo)

	rec := productoRecord("MED-001", "Paracetamol 500mg")
	rec.Activo = boolPtr(false)
	outcome, err := f.svc.SincronizarProductos(context.Background(), dto.SyncProductosRequest{
		Records: []dto.SyncProductoRecord{rec},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.Actualizados)
	assert.False(t, f.productos.productos["MED-001"].Activo)
}

func TestSincronizarProductos_LoteGrandeSeParteEnChunks(t *testing.T) {
	f := newSyncFixture()

	records := make([]dto.SyncProductoRecord, 0, 1500)
	for i := 0; i < 1500; i++ {
		records = append(records, productoRecord("MED-"+strconv.Itoa(i), "Producto "+strconv.Itoa(i)))
	}

	outcome, err := f.svc.SincronizarProductos(context.Background(), dto.SyncProductosRequest{Records: records})
	require.NoError(t, err)

	assert.Equal(t, 1500, outcome.Creados)
	assert.Equal(t, 2, f.productos.batchCalls)
}

// ── Listas de precios ─────────────────────────────────────────────────────────

func TestSincronizarListasPrecios_FallbackDeNombre(t *testing.T) {
	f := newSyncFixture()

	outcome, err := f.svc.SincronizarListasPrecios(context.Background(), dto.SyncListasPreciosRequest{
		Records: []dto.SyncListaPrecioRecord{
			{ListaPrecioID: 1, ListName: strPtr("Mayoristas")},
			{ListaPrecioID: 2, Nombre: strPtr("Cadenas")},
			{ListaPrecioID: 3},
			{ListaPrecioID: 0},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, outcome.Creados)
	assert.Equal(t, 1, outcome.Errores)
	assert.Equal(t, "Mayoristas", f.listas.listas[1].Nombre)
	assert.Equal(t, "Cadenas", f.listas.listas[2].Nombre)
	assert.Equal(t, "Lista 3", f.listas.listas[3].Nombre)
}

// ── Items de lista ────────────────────────────────────────────────────────────

func TestSincronizarListaPrecioItems_FiltraHuerfanosSinAbortar(t *testing.T) {
	f := newSyncFixture()
	require.NoError(t, f.listas.UpsertListas(context.Background(), []model.ListaPrecio{{ID: 1, Nombre: "Mayoristas", Activo: true}}))
	_, err := f.svc.SincronizarProductos(context.Background(), dto.SyncProductosRequest{
		Records: []dto.SyncProductoRecord{productoRecord("MED-001", "Paracetamol 500mg")},
	})
	require.NoError(t, err)

	outcome, err := f.svc.SincronizarListaPrecioItems(context.Background(), dto.SyncListaPrecioItemsRequest{
		Records: []dto.SyncListaPrecioItemRecord{
			{ListaPrecioID: 1, ProductoID: "MED-001", MargenPct: decimal.NewFromInt(25)},
			{ListaPrecioID: 1, ProductoID: "MED-FANTASMA", MargenPct: decimal.NewFromInt(10)},
			{ListaPrecioID: 99, ProductoID: "MED-001", MargenPct: decimal.NewFromInt(10)},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, outcome.TotalRecibidos)
	assert.Equal(t, 1, outcome.Creados)
	assert.Equal(t, 2, outcome.OrfanosFiltrados)
	assert.Equal(t, 0, outcome.Errores)
	assert.Len(t, f.listas.items, 1)
}

func TestSincronizarListaPrecioItems_DuplicadoGanaLaUltimaAparicion(t *testing.T) {
	f := newSyncFixture()
	require.NoError(t, f.listas.UpsertListas(context.Background(), []model.ListaPrecio{{ID: 1, Nombre: "Mayoristas", Activo: true}}))
	_, err := f.svc.SincronizarProductos(context.Background(), dto.SyncProductosRequest{
		Records: []dto.SyncProductoRecord{productoRecord("MED-001", "Paracetamol 500mg")},
	})
	require.NoError(t, err)

	outcome, err := f.svc.SincronizarListaPrecioItems(context.Background(), dto.SyncListaPrecioItemsRequest{
		Records: []dto.SyncListaPrecioItemRecord{
			{ListaPrecioID: 1, ProductoID: "MED-001", MargenPct: decimal.NewFromInt(10)},
			{ListaPrecioID: 1, ProductoID: "MED-001", MargenPct: decimal.NewFromInt(25)},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.Creados)
	clave := repository.ClaveItem{ListaPrecioID: 1, ProductoID: "MED-001"}.String()
	assert.True(t, f.listas.items[clave].MargenPct.Equal(decimal.NewFromInt(25)))
}

// ── Clientes ─────────────────────────────────────────────────────────────────

func clienteRecord(id, username, password string) dto.SyncClienteRecord {
	return dto.SyncClienteRecord{ClienteID: id, Username: username, Password: password}
}

func TestSincronizarClientes_NoRotaPasswordsPorDefecto(t *testing.T) {
	f := newSyncFixture()

	_, err := f.svc.SincronizarClientes(context.Background(), dto.SyncClientesRequest{
		Records: []dto.SyncClienteRecord{clienteRecord("CLI-001", "farmacia.centro", "secreto-original")},
	})
	require.NoError(t, err)
	hashOriginal := f.clientes.clientes["CLI-001"].PasswordHash
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(hashOriginal), []byte("secreto-original")))

	// Sync nocturno con contraseña nueva pero sin rotación: el hash no cambia.
	outcome, err := f.svc.SincronizarClientes(context.Background(), dto.SyncClientesRequest{
		Records: []dto.SyncClienteRecord{clienteRecord("CLI-001", "farmacia.centro", "otra-contraseña")},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Actualizados)
	assert.Equal(t, hashOriginal, f.clientes.clientes["CLI-001"].PasswordHash)
}

func TestSincronizarClientes_RotacionExplicitaReemplazaElHash(t *testing.T) {
	f := newSyncFixture()

	_, err := f.svc.SincronizarClientes(context.Background(), dto.SyncClientesRequest{
		Records: []dto.SyncClienteRecord{clienteRecord("CLI-001", "farmacia.centro", "secreto-original")},
	})
	require.NoError(t, err)

	_, err = f.svc.SincronizarClientes(context.Background(), dto.SyncClientesRequest{
		Records:        []dto.SyncClienteRecord{clienteRecord("CLI-001", "farmacia.centro", "rotada-2026")},
		RotarPasswords: true,
	})
	require.NoError(t, err)

	hash := f.clientes.clientes["CLI-001"].PasswordHash
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("rotada-2026")))
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("secreto-original")))
}

func TestSincronizarClientes_CamposObligatorios(t *testing.T) {
	f := newSyncFixture()

	outcome, err := f.svc.SincronizarClientes(context.Background(), dto.SyncClientesRequest{
		Records: []dto.SyncClienteRecord{
			clienteRecord("CLI-001", "farmacia.centro", "ok"),
			clienteRecord("", "sin.id", "x"),
			clienteRecord("CLI-003", "", "x"),
			clienteRecord("CLI-004", "sin.password", ""),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.Creados)
	assert.Equal(t, 3, outcome.Errores)
}

func TestSincronizarClientes_ListaInexistenteQuedaSinLista(t *testing.T) {
	f := newSyncFixture()
	require.NoError(t, f.listas.UpsertListas(context.Background(), []model.ListaPrecio{{ID: 1, Nombre: "Mayoristas", Activo: true}}))

	conLista := clienteRecord("CLI-001", "farmacia.centro", "x")
	conLista.ListaPrecioID = intPtr(1)
	sinLista := clienteRecord("CLI-002", "farmacia.norte", "x")
	sinLista.ListaPrecioID = intPtr(99)

	outcome, err := f.svc.SincronizarClientes(context.Background(), dto.SyncClientesRequest{
		Records: []dto.SyncClienteRecord{conLista, sinLista},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, outcome.Creados)
	require.NotNil(t, f.clientes.infos["CLI-001"].ListaPrecioID)
	assert.Equal(t, 1, *f.clientes.infos["CLI-001"].ListaPrecioID)
	assert.Nil(t, f.clientes.infos["CLI-002"].ListaPrecioID)
}

// ── Limpieza ─────────────────────────────────────────────────────────────────

func TestLimpiarCatalogo_DesactivaLoNoTocado(t *testing.T) {
	f := newSyncFixture()

	viejo := &model.Producto{ID: "MED-VIEJO", Nombre: "Descontinuado", Activo: true, UpdatedAt: time.Now().Add(-48 * time.Hour)}
	f.productos.productos[viejo.ID] = viejo

	_, err := f.svc.SincronizarProductos(context.Background(), dto.SyncProductosRequest{
		Records: []dto.SyncProductoRecord{productoRecord("MED-001", "Paracetamol 500mg")},
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.LimpiarCatalogo(context.Background(), time.Now().Add(-time.Hour)))

	assert.False(t, f.productos.productos["MED-VIEJO"].Activo)
	assert.True(t, f.productos.productos["MED-001"].Activo)
}

func TestLimpiarClientes_NoTocaCatalogo(t *testing.T) {
	f := newSyncFixture()

	viejoCliente := &model.Cliente{ID: "CLI-VIEJO", Username: "baja", Activo: true, UpdatedAt: time.Now().Add(-48 * time.Hour)}
	f.clientes.clientes[viejoCliente.ID] = viejoCliente
	viejoProducto := &model.Producto{ID: "MED-VIEJO", Nombre: "Sigue vivo", Activo: true, UpdatedAt: time.Now().Add(-48 * time.Hour)}
	f.productos.productos[viejoProducto.ID] = viejoProducto

	require.NoError(t, f.svc.LimpiarClientes(context.Background(), time.Now().Add(-time.Hour)))

	assert.False(t, f.clientes.clientes["CLI-VIEJO"].Activo)
	// La limpieza de clientes jamás desactiva catálogo.
	assert.True(t, f.productos.productos["MED-VIEJO"].Activo)
}
