package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/dto"
	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/model"
	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrItemCarritoNoEncontrado = errors.New("item de carrito no encontrado")
	ErrStockInsuficiente       = errors.New("stock insuficiente")
)

// CarritoService mantiene el carrito de cada farmacia. Los precios que
// muestra son siempre en vivo (la misma cotización del catálogo); sólo el
// checkout los congela.
type CarritoService interface {
	Listar(ctx context.Context, clienteID string) (*dto.CarritoResponse, error)
	Agregar(ctx context.Context, clienteID string, req dto.AgregarCarritoRequest) (*dto.CarritoResponse, error)
	Actualizar(ctx context.Context, clienteID string, itemID uuid.UUID, req dto.ActualizarCarritoRequest) (*dto.CarritoResponse, error)
	Eliminar(ctx context.Context, clienteID string, itemID uuid.UUID) error
}

type carritoService struct {
	carritoRepo  repository.CarritoRepository
	productoRepo repository.ProductoRepository
	catalogo     CatalogoService
}

func NewCarritoService(
	carritoRepo repository.CarritoRepository,
	productoRepo repository.ProductoRepository,
	catalogo CatalogoService,
) CarritoService {
	return &carritoService{
		carritoRepo:  carritoRepo,
		productoRepo: productoRepo,
		catalogo:     catalogo,
	}
}

func (s *carritoService) Listar(ctx context.Context, clienteID string) (*dto.CarritoResponse, error) {
	items, err := s.carritoRepo.ListarPorCliente(ctx, clienteID)
	if err != nil {
		return nil, fmt.Errorf("carrito: listar: %w", err)
	}

	resp := &dto.CarritoResponse{Items: []dto.CarritoItemResponse{}, Total: decimal.Zero}
	for _, item := range items {
		if item.Producto == nil || !item.Producto.Activo {
			// El producto se desactivó después de agregarse; la línea se
			// conserva sin cotizar para que el cliente la retire.
			continue
		}
		d, err := s.catalogo.DesglosePara(ctx, clienteID, item.Producto)
		if err != nil {
			return nil, err
		}
		subtotal := d.PrecioFinal.Mul(decimal.NewFromInt(int64(item.Cantidad)))
		resp.Items = append(resp.Items, dto.CarritoItemResponse{
			ID:             item.ID.String(),
			ProductoID:     item.ProductoID,
			Nombre:         item.Producto.Nombre,
			UnidadMedida:   item.Producto.UnidadMedida,
			Cantidad:       item.Cantidad,
			PrecioUnitario: d.PrecioFinal,
			Subtotal:       subtotal,
			StockActual:    item.Producto.StockActual,
		})
		resp.Total = resp.Total.Add(subtotal)
	}
	return resp, nil
}

func (s *carritoService) Agregar(ctx context.Context, clienteID string, req dto.AgregarCarritoRequest) (*dto.CarritoResponse, error) {
	p, err := s.productoRepo.FindByID(ctx, req.ProductoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductoNoEncontrado
		}
		return nil, fmt.Errorf("carrito: buscar producto: %w", err)
	}
	if !p.Activo {
		return nil, ErrProductoNoEncontrado
	}

	// Si el producto ya está en el carrito se acumulan las cantidades.
	cantidad := req.Cantidad
	existing, err := s.carritoRepo.ObtenerPorProducto(ctx, clienteID, req.ProductoID)
	switch {
	case err == nil:
		cantidad += existing.Cantidad
		if cantidad > p.StockActual {
			return nil, ErrStockInsuficiente
		}
		if err := s.carritoRepo.ActualizarCantidad(ctx, existing.ID, cantidad); err != nil {
			return nil, fmt.Errorf("carrito: actualizar cantidad: %w", err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		if cantidad > p.StockActual {
			return nil, ErrStockInsuficiente
		}
		item := &model.CarritoItem{
			ClienteID:  clienteID,
			ProductoID: req.ProductoID,
			Cantidad:   cantidad,
		}
		if err := s.carritoRepo.Crear(ctx, item); err != nil {
			return nil, fmt.Errorf("carrito: crear item: %w", err)
		}
	default:
		return nil, fmt.Errorf("carrito: buscar item: %w", err)
	}

	return s.Listar(ctx, clienteID)
}

func (s *carritoService) Actualizar(ctx context.Context, clienteID string, itemID uuid.UUID, req dto.ActualizarCarritoRequest) (*dto.CarritoResponse, error) {
	item, err := s.propio(ctx, clienteID, itemID)
	if err != nil {
		return nil, err
	}
	if item.Producto != nil && req.Cantidad > item.Producto.StockActual {
		return nil, ErrStockInsuficiente
	}
	if err := s.carritoRepo.ActualizarCantidad(ctx, item.ID, req.Cantidad); err != nil {
		return nil, fmt.Errorf("carrito: actualizar cantidad: %w", err)
	}
	return s.Listar(ctx, clienteID)
}

func (s *carritoService) Eliminar(ctx context.Context, clienteID string, itemID uuid.UUID) error {
	item, err := s.propio(ctx, clienteID, itemID)
	if err != nil {
		return err
	}
	return s.carritoRepo.Eliminar(ctx, item.ID)
}

// propio valida que la línea exista y pertenezca al cliente autenticado; un
// ID ajeno responde "no encontrado", no "prohibido".
func (s *carritoService) propio(ctx context.Context, clienteID string, itemID uuid.UUID) (*model.CarritoItem, error) {
	item, err := s.carritoRepo.Obtener(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemCarritoNoEncontrado
		}
		return nil, fmt.Errorf("carrito: obtener item: %w", err)
	}
	if item.ClienteID != clienteID {
		return nil, ErrItemCarritoNoEncontrado
	}
	return item, nil
}
