package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/dto"
	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/model"
	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/pricing"
	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/repository"
	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrCarritoVacio        = errors.New("el carrito esta vacio")
	ErrPedidoNoEncontrado  = errors.New("pedido no encontrado")
	ErrEstadoInvalido      = errors.New("transicion de estado invalida")
	ErrPedidoNoModificable = errors.New("el pedido ya no admite cambios")
)

// PedidoService gestiona el ciclo de vida de los pedidos. El checkout congela
// el desglose de precio de cada línea: cambios posteriores de margen, precio
// base o IVA no afectan pedidos ya colocados.
type PedidoService interface {
	Crear(ctx context.Context, clienteID string, req dto.CrearPedidoRequest) (*dto.PedidoResponse, error)
	Listar(ctx context.Context, clienteID string, filter dto.PedidoFilter) (*dto.PedidoListResponse, error)
	Obtener(ctx context.Context, clienteID string, pedidoID uuid.UUID, esStaff bool) (*dto.PedidoResponse, error)
	Cancelar(ctx context.Context, clienteID string, pedidoID uuid.UUID, esStaff bool) error

	// CambiarEstado avanza el pedido en su ciclo de vida (sólo staff).
	CambiarEstado(ctx context.Context, pedidoID uuid.UUID, estado string) error
	// ActualizarItem ajusta la cantidad de una línea (sólo staff, pedidos aún
	// no enviados). El precio unitario congelado no se recalcula.
	ActualizarItem(ctx context.Context, pedidoID, itemID uuid.UUID, req dto.ActualizarPedidoItemRequest) (*dto.PedidoResponse, error)
}

type pedidoService struct {
	pedidoRepo   repository.PedidoRepository
	carritoRepo  repository.CarritoRepository
	productoRepo repository.ProductoRepository
	clienteRepo  repository.ClienteRepository
	catalogo     CatalogoService
	dispatcher   *worker.Dispatcher
}

func NewPedidoService(
	pedidoRepo repository.PedidoRepository,
	carritoRepo repository.CarritoRepository,
	productoRepo repository.ProductoRepository,
	clienteRepo repository.ClienteRepository,
	catalogo CatalogoService,
	dispatcher *worker.Dispatcher,
) PedidoService {
	return &pedidoService{
		pedidoRepo:   pedidoRepo,
		carritoRepo:  carritoRepo,
		productoRepo: productoRepo,
		clienteRepo:  clienteRepo,
		catalogo:     catalogo,
		dispatcher:   dispatcher,
	}
}

// ── Checkout ─────────────────────────────────────────────────────────────────
// 1. Cotizar cada línea del carrito fuera de la transacción (precio en vivo)
// 2. BEGIN TX: folio de secuencia, crear pedido+items, descontar stock, vaciar carrito
// 3. COMMIT
// 4. (async) PDF + email de confirmación vía worker

func (s *pedidoService) Crear(ctx context.Context, clienteID string, req dto.CrearPedidoRequest) (*dto.PedidoResponse, error) {
	lineas, err := s.carritoRepo.ListarPorCliente(ctx, clienteID)
	if err != nil {
		return nil, fmt.Errorf("checkout: listar carrito: %w", err)
	}
	if len(lineas) == 0 {
		return nil, ErrCarritoVacio
	}

	pedido := &model.Pedido{
		ClienteID:     clienteID,
		Estado:        model.PedidoPendiente,
		Subtotal:      decimal.Zero,
		MontoIVA:      decimal.Zero,
		Total:         decimal.Zero,
		Observaciones: req.Observaciones,
	}

	for _, linea := range lineas {
		if linea.Producto == nil || !linea.Producto.Activo {
			return nil, fmt.Errorf("%w: %s", ErrProductoNoEncontrado, linea.ProductoID)
		}
		if linea.Cantidad > linea.Producto.StockActual {
			return nil, fmt.Errorf("%w: %s", ErrStockInsuficiente, linea.Producto.Nombre)
		}
		d, err := s.catalogo.DesglosePara(ctx, clienteID, linea.Producto)
		if err != nil {
			return nil, err
		}

		cantidad := decimal.NewFromInt(int64(linea.Cantidad))
		item := model.PedidoItem{
			ProductoID:     linea.ProductoID,
			NombreProducto: linea.Producto.Nombre,
			Cantidad:       linea.Cantidad,
			PrecioBase:     d.PrecioBase,
			MargenPct:      d.MargenPct,
			IVAPct:         d.IVAPct,
			PrecioUnitario: d.PrecioFinal,
			Subtotal:       pricing.Round2(d.PrecioFinal.Mul(cantidad)),
		}
		pedido.Items = append(pedido.Items, item)

		pedido.Subtotal = pedido.Subtotal.Add(pricing.Round2(d.PrecioConMargen.Mul(cantidad)))
		pedido.MontoIVA = pedido.MontoIVA.Add(pricing.Round2(d.MontoIVA.Mul(cantidad)))
		pedido.Total = pedido.Total.Add(item.Subtotal)
	}

	err = runTx(ctx, s.pedidoRepo.DB(), func(tx *gorm.DB) error {
		numero, err := s.pedidoRepo.NextNumeroPedido(ctx, tx)
		if err != nil {
			return fmt.Errorf("checkout: folio: %w", err)
		}
		pedido.NumeroPedido = numero

		if err := s.pedidoRepo.Create(ctx, tx, pedido); err != nil {
			return fmt.Errorf("checkout: crear pedido: %w", err)
		}
		for _, item := range pedido.Items {
			// AjustarStockTx falla si el stock quedaría negativo; un checkout
			// concurrente que agotó el producto aborta toda la transacción.
			if err := s.productoRepo.AjustarStockTx(tx, item.ProductoID, -item.Cantidad); err != nil {
				return fmt.Errorf("checkout: stock de %s: %w", item.ProductoID, err)
			}
		}
		return s.carritoRepo.VaciarTx(tx, clienteID)
	})
	if err != nil {
		return nil, err
	}

	s.notificar(ctx, pedido.ID)
	return pedidoToResponse(pedido), nil
}

// notificar encola la generación de PDF + email de confirmación. Nunca es
// fatal: el pedido ya está confirmado en la base.
func (s *pedidoService) notificar(ctx context.Context, pedidoID uuid.UUID) {
	if s.dispatcher == nil {
		return
	}
	payload := worker.PedidoJobPayload{PedidoID: pedidoID.String()}
	if err := s.dispatcher.EnqueuePedido(ctx, payload); err != nil {
		log.Error().Err(err).Str("pedido_id", pedidoID.String()).
			Msg("checkout: no se pudo encolar la confirmación")
	}
}

func (s *pedidoService) Listar(ctx context.Context, clienteID string, filter dto.PedidoFilter) (*dto.PedidoListResponse, error) {
	pedidos, total, err := s.pedidoRepo.ListByCliente(ctx, clienteID, filter)
	if err != nil {
		return nil, fmt.Errorf("pedidos: listar: %w", err)
	}
	data := make([]dto.PedidoResponse, len(pedidos))
	for i := range pedidos {
		data[i] = *pedidoToResponse(&pedidos[i])
	}
	return &dto.PedidoListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *pedidoService) Obtener(ctx context.Context, clienteID string, pedidoID uuid.UUID, esStaff bool) (*dto.PedidoResponse, error) {
	p, err := s.buscar(ctx, pedidoID)
	if err != nil {
		return nil, err
	}
	if !esStaff && p.ClienteID != clienteID {
		return nil, ErrPedidoNoEncontrado
	}
	return pedidoToResponse(p), nil
}

func (s *pedidoService) Cancelar(ctx context.Context, clienteID string, pedidoID uuid.UUID, esStaff bool) error {
	p, err := s.buscar(ctx, pedidoID)
	if err != nil {
		return err
	}
	if !esStaff && p.ClienteID != clienteID {
		return ErrPedidoNoEncontrado
	}
	// El cliente sólo puede cancelar mientras el pedido no se procesa; el
	// staff también puede cancelar pedidos confirmados.
	switch p.Estado {
	case model.PedidoPendiente:
	case model.PedidoConfirmado:
		if !esStaff {
			return ErrPedidoNoModificable
		}
	default:
		return ErrPedidoNoModificable
	}

	return runTx(ctx, s.pedidoRepo.DB(), func(tx *gorm.DB) error {
		if err := s.pedidoRepo.UpdateEstadoTx(tx, p.ID, model.PedidoCancelado); err != nil {
			return fmt.Errorf("pedidos: cancelar: %w", err)
		}
		// Se devuelve el stock reservado al catálogo.
		for _, item := range p.Items {
			if err := s.productoRepo.AjustarStockTx(tx, item.ProductoID, item.Cantidad); err != nil {
				return fmt.Errorf("pedidos: devolver stock de %s: %w", item.ProductoID, err)
			}
		}
		return nil
	})
}

// transiciones válidas del ciclo de vida (desde → hacia).
var transicionesPedido = map[string][]string{
	model.PedidoPendiente:  {model.PedidoConfirmado, model.PedidoCancelado},
	model.PedidoConfirmado: {model.PedidoEnviado, model.PedidoCancelado},
	model.PedidoEnviado:    {model.PedidoEntregado},
}

func (s *pedidoService) CambiarEstado(ctx context.Context, pedidoID uuid.UUID, estado string) error {
	p, err := s.buscar(ctx, pedidoID)
	if err != nil {
		return err
	}

	permitidos := transicionesPedido[p.Estado]
	valido := false
	for _, e := range permitidos {
		if e == estado {
			valido = true
			break
		}
	}
	if !valido {
		return fmt.Errorf("%w: %s → %s", ErrEstadoInvalido, p.Estado, estado)
	}

	if estado == model.PedidoCancelado {
		return s.Cancelar(ctx, p.ClienteID, p.ID, true)
	}
	return runTx(ctx, s.pedidoRepo.DB(), func(tx *gorm.DB) error {
		return s.pedidoRepo.UpdateEstadoTx(tx, p.ID, estado)
	})
}

func (s *pedidoService) ActualizarItem(ctx context.Context, pedidoID, itemID uuid.UUID, req dto.ActualizarPedidoItemRequest) (*dto.PedidoResponse, error) {
	p, err := s.buscar(ctx, pedidoID)
	if err != nil {
		return nil, err
	}
	if p.Estado != model.PedidoPendiente && p.Estado != model.PedidoConfirmado {
		return nil, ErrPedidoNoModificable
	}

	item, err := s.pedidoRepo.FindItem(ctx, pedidoID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPedidoNoEncontrado
		}
		return nil, fmt.Errorf("pedidos: buscar item: %w", err)
	}

	delta := req.Cantidad - item.Cantidad
	item.Cantidad = req.Cantidad
	item.Subtotal = pricing.Round2(item.PrecioUnitario.Mul(decimal.NewFromInt(int64(req.Cantidad))))

	err = runTx(ctx, s.pedidoRepo.DB(), func(tx *gorm.DB) error {
		if delta != 0 {
			if err := s.productoRepo.AjustarStockTx(tx, item.ProductoID, -delta); err != nil {
				return fmt.Errorf("pedidos: ajustar stock: %w", err)
			}
		}
		if err := s.pedidoRepo.UpdateItemTx(tx, item); err != nil {
			return fmt.Errorf("pedidos: actualizar item: %w", err)
		}

		// Recalcular los totales del pedido línea por línea congelada.
		subtotal, montoIVA, total := decimal.Zero, decimal.Zero, decimal.Zero
		for i := range p.Items {
			it := &p.Items[i]
			if it.ID == item.ID {
				it = item
			}
			cantidad := decimal.NewFromInt(int64(it.Cantidad))
			conMargen := pricing.Round2(it.PrecioUnitario.Sub(ivaUnitario(it)).Mul(cantidad))
			subtotal = subtotal.Add(conMargen)
			montoIVA = montoIVA.Add(pricing.Round2(ivaUnitario(it).Mul(cantidad)))
			total = total.Add(it.Subtotal)
		}
		p.Subtotal, p.MontoIVA, p.Total = subtotal, montoIVA, total
		return s.pedidoRepo.UpdateTotalesTx(tx, p)
	})
	if err != nil {
		return nil, err
	}

	return s.Obtener(ctx, p.ClienteID, p.ID, true)
}

// ivaUnitario reconstruye el IVA por unidad desde el desglose congelado.
func ivaUnitario(item *model.PedidoItem) decimal.Decimal {
	conMargen := pricing.Round2(item.PrecioBase.Mul(decimal.NewFromInt(100).Add(item.MargenPct)).Div(decimal.NewFromInt(100)))
	return pricing.Round2(conMargen.Mul(item.IVAPct).Div(decimal.NewFromInt(100)))
}

func (s *pedidoService) buscar(ctx context.Context, pedidoID uuid.UUID) (*model.Pedido, error) {
	p, err := s.pedidoRepo.FindByID(ctx, pedidoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPedidoNoEncontrado
		}
		return nil, fmt.Errorf("pedidos: buscar: %w", err)
	}
	return p, nil
}

func pedidoToResponse(p *model.Pedido) *dto.PedidoResponse {
	items := make([]dto.PedidoItemResponse, len(p.Items))
	for i, item := range p.Items {
		items[i] = dto.PedidoItemResponse{
			ID:             item.ID.String(),
			ProductoID:     item.ProductoID,
			Nombre:         item.NombreProducto,
			Cantidad:       item.Cantidad,
			PrecioBase:     item.PrecioBase,
			MargenPct:      item.MargenPct,
			IVAPct:         item.IVAPct,
			PrecioUnitario: item.PrecioUnitario,
			Subtotal:       item.Subtotal,
		}
	}
	return &dto.PedidoResponse{
		ID:            p.ID.String(),
		NumeroPedido:  p.NumeroPedido,
		ClienteID:     p.ClienteID,
		Estado:        p.Estado,
		Subtotal:      p.Subtotal,
		MontoIVA:      p.MontoIVA,
		Total:         p.Total,
		Observaciones: p.Observaciones,
		Items:         items,
		CreatedAt:     p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
