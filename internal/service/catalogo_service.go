package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/dto"
	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/model"
	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/pricing"
	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrProductoNoEncontrado = errors.New("producto no encontrado")

// CatalogoService expone el catálogo con precios personalizados: cada
// respuesta lleva el margen de la lista del cliente autenticado ya aplicado.
// Sin lista asignada o sin item para el producto, el margen es 0 y el precio
// es base + IVA.
type CatalogoService interface {
	Listar(ctx context.Context, clienteID string, filter dto.CatalogoFilter) (*dto.CatalogoListResponse, error)
	Obtener(ctx context.Context, clienteID, productoID string) (*dto.ProductoCatalogoResponse, error)
	ListarCategorias(ctx context.Context) ([]dto.CategoriaResponse, error)

	// DesglosePara cotiza un producto para un cliente. Lo usan el carrito y
	// el checkout para congelar exactamente el mismo precio que ve el catálogo.
	DesglosePara(ctx context.Context, clienteID string, p *model.Producto) (pricing.Desglose, error)
}

type catalogoService struct {
	productoRepo  repository.ProductoRepository
	categoriaRepo repository.CategoriaRepository
	listaRepo     repository.ListaPrecioRepository
	clienteRepo   repository.ClienteRepository
	rdb           *redis.Client
	cacheTTL      time.Duration
}

// NewCatalogoService construye el servicio de catálogo. rdb puede ser nil
// (tests, o redis fuera de servicio): el precio se calcula siempre en caliente.
func NewCatalogoService(
	productoRepo repository.ProductoRepository,
	categoriaRepo repository.CategoriaRepository,
	listaRepo repository.ListaPrecioRepository,
	clienteRepo repository.ClienteRepository,
	rdb *redis.Client,
	cacheTTL time.Duration,
) CatalogoService {
	return &catalogoService{
		productoRepo:  productoRepo,
		categoriaRepo: categoriaRepo,
		listaRepo:     listaRepo,
		clienteRepo:   clienteRepo,
		rdb:           rdb,
		cacheTTL:      cacheTTL,
	}
}

func (s *catalogoService) Listar(ctx context.Context, clienteID string, filter dto.CatalogoFilter) (*dto.CatalogoListResponse, error) {
	productos, total, err := s.productoRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("catálogo: listar productos: %w", err)
	}

	listaID, err := s.resolverLista(ctx, clienteID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(productos))
	for i, p := range productos {
		ids[i] = p.ID
	}
	items, err := s.itemsDeLista(ctx, listaID, ids)
	if err != nil {
		return nil, err
	}

	data := make([]dto.ProductoCatalogoResponse, 0, len(productos))
	for i := range productos {
		p := &productos[i]
		item, ok := items[p.ID]
		var itemPtr *model.ListaPrecioItem
		if ok {
			itemPtr = &item
		}
		resp, err := s.cotizar(p, itemPtr)
		if err != nil {
			// Dato inconsistente en fila individual (IVA fuera de rango tras
			// edición manual): se omite del catálogo en vez de romper la página.
			log.Warn().Err(err).Str("producto_id", p.ID).Msg("catálogo: producto no cotizable")
			continue
		}
		data = append(data, resp)
	}

	totalPages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	return &dto.CatalogoListResponse{
		Data:       data,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
	}, nil
}

func (s *catalogoService) Obtener(ctx context.Context, clienteID, productoID string) (*dto.ProductoCatalogoResponse, error) {
	p, err := s.productoRepo.FindByID(ctx, productoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductoNoEncontrado
		}
		return nil, fmt.Errorf("catálogo: obtener producto: %w", err)
	}
	if !p.Activo {
		return nil, ErrProductoNoEncontrado
	}

	listaID, err := s.resolverLista(ctx, clienteID)
	if err != nil {
		return nil, err
	}

	if cached, ok := s.precioDesdeCache(ctx, listaID, p); ok {
		return cached, nil
	}

	var item *model.ListaPrecioItem
	if listaID != nil {
		item, err = s.listaRepo.ObtenerItem(ctx, *listaID, p.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("catálogo: obtener margen: %w", err)
		}
	}

	resp, err := s.cotizar(p, item)
	if err != nil {
		return nil, err
	}
	s.guardarPrecioEnCache(ctx, listaID, &resp)
	return &resp, nil
}

func (s *catalogoService) ListarCategorias(ctx context.Context) ([]dto.CategoriaResponse, error) {
	categorias, err := s.categoriaRepo.Listar(ctx)
	if err != nil {
		return nil, fmt.Errorf("catálogo: listar categorías: %w", err)
	}
	out := make([]dto.CategoriaResponse, len(categorias))
	for i, c := range categorias {
		out[i] = dto.CategoriaResponse{
			ID:          c.ID,
			Nombre:      c.Nombre,
			Descripcion: c.Descripcion,
			Activo:      c.Activo,
		}
	}
	return out, nil
}

func (s *catalogoService) DesglosePara(ctx context.Context, clienteID string, p *model.Producto) (pricing.Desglose, error) {
	listaID, err := s.resolverLista(ctx, clienteID)
	if err != nil {
		return pricing.Desglose{}, err
	}
	var item *model.ListaPrecioItem
	if listaID != nil {
		item, err = s.listaRepo.ObtenerItem(ctx, *listaID, p.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pricing.Desglose{}, fmt.Errorf("catálogo: obtener margen: %w", err)
		}
	}
	return desgloseProducto(p, item)
}

// resolverLista devuelve la lista de precios asignada al cliente, o nil si el
// cliente no tiene ficha comercial o no tiene lista (⇒ margen 0).
func (s *catalogoService) resolverLista(ctx context.Context, clienteID string) (*int, error) {
	info, err := s.clienteRepo.ObtenerInfo(ctx, clienteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("catálogo: resolver lista de cliente: %w", err)
	}
	return info.ListaPrecioID, nil
}

func (s *catalogoService) itemsDeLista(ctx context.Context, listaID *int, productoIDs []string) (map[string]model.ListaPrecioItem, error) {
	if listaID == nil || len(productoIDs) == 0 {
		return map[string]model.ListaPrecioItem{}, nil
	}
	items, err := s.listaRepo.ObtenerItems(ctx, *listaID, productoIDs)
	if err != nil {
		return nil, fmt.Errorf("catálogo: obtener márgenes: %w", err)
	}
	return items, nil
}

func (s *catalogoService) cotizar(p *model.Producto, item *model.ListaPrecioItem) (dto.ProductoCatalogoResponse, error) {
	d, err := desgloseProducto(p, item)
	if err != nil {
		return dto.ProductoCatalogoResponse{}, err
	}
	resp := dto.ProductoCatalogoResponse{
		ID:           p.ID,
		CodigoBarras: p.CodigoBarras,
		Nombre:       p.Nombre,
		Descripcion:  p.Descripcion,
		Descripcion2: p.Descripcion2,
		UnidadMedida: p.UnidadMedida,
		ImagenURL:    p.ImagenURL,
		StockActual:  p.StockActual,
		PrecioBase:   d.PrecioBase,
		MargenPct:    d.MargenPct,
		IVAPct:       d.IVAPct,
		MontoIVA:     d.MontoIVA,
		PrecioFinal:  d.PrecioFinal,
	}
	if p.Categoria != nil {
		resp.Categoria = &p.Categoria.Nombre
	}
	return resp, nil
}

// desgloseProducto calcula el precio de un producto con el margen del item de
// lista (si lo hay) y reconcilia contra el precio precalculado del legado.
func desgloseProducto(p *model.Producto, item *model.ListaPrecioItem) (pricing.Desglose, error) {
	margen := decimal.Zero
	var hint *decimal.Decimal
	if item != nil {
		margen = item.MargenPct
		hint = item.PrecioFinal
	}
	d, err := pricing.Calcular(p.PrecioBase, margen, p.IVAPct)
	if err != nil {
		return pricing.Desglose{}, fmt.Errorf("producto %s: %w", p.ID, err)
	}
	d.PrecioFinal = pricing.Reconciliar(d.PrecioFinal, hint)
	return d, nil
}

// ── Cache de precios ─────────────────────────────────────────────────────────
// El precio de detalle se cachea por (lista, producto) con TTL corto. Un fallo
// de redis nunca es fatal: se registra y se calcula en caliente.

type precioCacheEntry struct {
	MargenPct   decimal.Decimal `json:"margen_pct"`
	MontoIVA    decimal.Decimal `json:"monto_iva"`
	PrecioFinal decimal.Decimal `json:"precio_final"`
}

func cachePrecioKey(listaID *int, productoID string) string {
	lista := 0
	if listaID != nil {
		lista = *listaID
	}
	return fmt.Sprintf("catalogo:precio:%d:%s", lista, productoID)
}

func (s *catalogoService) precioDesdeCache(ctx context.Context, listaID *int, p *model.Producto) (*dto.ProductoCatalogoResponse, bool) {
	if s.rdb == nil {
		return nil, false
	}
	raw, err := s.rdb.Get(ctx, cachePrecioKey(listaID, p.ID)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Msg("cache de precios: lectura fallida")
		}
		return nil, false
	}
	var entry precioCacheEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, false
	}
	resp, err := s.cotizar(p, nil)
	if err != nil {
		return nil, false
	}
	resp.MargenPct = entry.MargenPct
	resp.MontoIVA = entry.MontoIVA
	resp.PrecioFinal = entry.PrecioFinal
	return &resp, true
}

func (s *catalogoService) guardarPrecioEnCache(ctx context.Context, listaID *int, resp *dto.ProductoCatalogoResponse) {
	if s.rdb == nil || s.cacheTTL <= 0 {
		return
	}
	entry := precioCacheEntry{
		MargenPct:   resp.MargenPct,
		MontoIVA:    resp.MontoIVA,
		PrecioFinal: resp.PrecioFinal,
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, cachePrecioKey(listaID, resp.ID), raw, s.cacheTTL).Err(); err != nil {
		log.Warn().Err(err).Msg("cache de precios: escritura fallida")
	}
}
