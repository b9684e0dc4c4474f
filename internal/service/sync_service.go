package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/dto"
	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/model"
	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/pricing"
	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// syncChunkSize acota el tamaño de cada round-trip de upsert. Cada chunk se
// confirma de forma independiente: una falla en el chunk N no revierte los
// anteriores. El trade-off es explícito — progreso parcial recuperable en
// lugar de atomicidad, porque los upserts son idempotentes y re-correr el
// lote completo es seguro.
const syncChunkSize = 1000

// SyncService es el pipeline de ingesta por lotes desde el export del sistema
// de escritorio legado. Orden de procesamiento esperado del llamador:
// categorías → productos → listas → items → clientes. El endpoint de items
// tolera violaciones de ese orden filtrando referencias huérfanas en lugar de
// fallar, para que el lote siga avanzando.
type SyncService interface {
	SincronizarCategorias(ctx context.Context, req dto.SyncCategoriasRequest) (*dto.SyncOutcome, error)
	SincronizarProductos(ctx context.Context, req dto.SyncProductosRequest) (*dto.SyncOutcome, error)
	SincronizarListasPrecios(ctx context.Context, req dto.SyncListasPreciosRequest) (*dto.SyncOutcome, error)
	SincronizarListaPrecioItems(ctx context.Context, req dto.SyncListaPrecioItemsRequest) (*dto.SyncOutcome, error)
	SincronizarClientes(ctx context.Context, req dto.SyncClientesRequest) (*dto.SyncOutcome, error)

	// LimpiarCatalogo desactiva (nunca borra) productos, categorías, listas e
	// items que la última corrida de sync ya no tocó.
	LimpiarCatalogo(ctx context.Context, cutoff time.Time) error
	// LimpiarClientes es deliberadamente una operación aparte: una corrida de
	// sync de usuarios jamás debe desactivar datos de catálogo, ni viceversa.
	LimpiarClientes(ctx context.Context, cutoff time.Time) error
}

type syncService struct {
	categoriaRepo repository.CategoriaRepository
	productoRepo  repository.ProductoRepository
	listaRepo     repository.ListaPrecioRepository
	clienteRepo   repository.ClienteRepository
}

func NewSyncService(
	categoriaRepo repository.CategoriaRepository,
	productoRepo repository.ProductoRepository,
	listaRepo repository.ListaPrecioRepository,
	clienteRepo repository.ClienteRepository,
) SyncService {
	return &syncService{
		categoriaRepo: categoriaRepo,
		productoRepo:  productoRepo,
		listaRepo:     listaRepo,
		clienteRepo:   clienteRepo,
	}
}

// ── Categorías ────────────────────────────────────────────────────────────────

func (s *syncService) SincronizarCategorias(ctx context.Context, req dto.SyncCategoriasRequest) (*dto.SyncOutcome, error) {
	outcome := &dto.SyncOutcome{TotalRecibidos: len(req.Records)}

	// El legado repite la misma etiqueta de texto en cada producto; la clave
	// de conflicto es el nombre único, no un ID externo que no existe.
	vistos := make(map[string]dto.SyncCategoriaRecord, len(req.Records))
	orden := make([]string, 0, len(req.Records))
	for i, rec := range req.Records {
		if rec.Nombre == "" {
			outcome.AgregarError(fmt.Sprintf("registro %d: nombre de categoría vacío", i))
			continue
		}
		if _, ok := vistos[rec.Nombre]; !ok {
			orden = append(orden, rec.Nombre)
		}
		vistos[rec.Nombre] = rec
	}

	existentes, err := s.categoriaRepo.ObtenerPorNombres(ctx, orden)
	if err != nil {
		return outcome, fmt.Errorf("sync categorías: consultar existentes: %w", err)
	}
	porNombre := make(map[string]model.Categoria, len(existentes))
	for _, c := range existentes {
		porNombre[c.Nombre] = c
	}

	tocarIDs := make([]uuid.UUID, 0, len(existentes))
	for _, nombre := range orden {
		if c, ok := porNombre[nombre]; ok {
			// Ya existe: sólo se refresca updated_at para que no caiga en la
			// limpieza post-sync. Nada más se actualiza nunca en categorías.
			tocarIDs = append(tocarIDs, c.ID)
			outcome.Actualizados++
			continue
		}
		rec := vistos[nombre]
		nueva := &model.Categoria{Nombre: nombre, Descripcion: rec.Descripcion, Activo: true}
		if err := s.categoriaRepo.Crear(ctx, nueva); err != nil {
			return outcome, fmt.Errorf("sync categorías: crear %q: %w", nombre, err)
		}
		outcome.Creados++
	}

	if err := s.categoriaRepo.TocarActualizacion(ctx, tocarIDs); err != nil {
		return outcome, fmt.Errorf("sync categorías: refrescar updated_at: %w", err)
	}
	return outcome, nil
}

// ── Productos ─────────────────────────────────────────────────────────────────

func (s *syncService) SincronizarProductos(ctx context.Context, req dto.SyncProductosRequest) (*dto.SyncOutcome, error) {
	outcome := &dto.SyncOutcome{TotalRecibidos: len(req.Records)}

	// Resolver de una vez todas las etiquetas de categoría del lote.
	nombresCat := make([]string, 0)
	vistosCat := make(map[string]struct{})
	for _, rec := range req.Records {
		if rec.CategoriaNombre == nil || *rec.CategoriaNombre == "" {
			continue
		}
		if _, ok := vistosCat[*rec.CategoriaNombre]; !ok {
			vistosCat[*rec.CategoriaNombre] = struct{}{}
			nombresCat = append(nombresCat, *rec.CategoriaNombre)
		}
	}
	categorias, err := s.categoriaRepo.ObtenerPorNombres(ctx, nombresCat)
	if err != nil {
		return outcome, fmt.Errorf("sync productos: resolver categorías: %w", err)
	}
	catPorNombre := make(map[string]uuid.UUID, len(categorias))
	for _, c := range categorias {
		catPorNombre[c.Nombre] = c.ID
	}

	// Validar registro por registro; un registro malo se reporta y se omite,
	// nunca tumba el lote completo.
	productos := make([]model.Producto, 0, len(req.Records))
	porID := make(map[string]int, len(req.Records)) // dedupe: gana la última aparición
	for i, rec := range req.Records {
		p, err := s.validarProducto(rec, catPorNombre)
		if err != nil {
			outcome.AgregarError(fmt.Sprintf("registro %d (%s): %v", i, rec.ProductoID, err))
			continue
		}
		if idx, ok := porID[p.ID]; ok {
			productos[idx] = p
			continue
		}
		porID[p.ID] = len(productos)
		productos = append(productos, p)
	}

	for inicio := 0; inicio < len(productos); inicio += syncChunkSize {
		fin := min(inicio+syncChunkSize, len(productos))
		chunk := productos[inicio:fin]

		ids := make([]string, len(chunk))
		for i, p := range chunk {
			ids[i] = p.ID
		}
		existentes, err := s.productoRepo.ExistentesPorID(ctx, ids)
		if err != nil {
			return outcome, fmt.Errorf("sync productos: chunk %d: consultar existentes: %w", inicio/syncChunkSize, err)
		}

		if err := s.productoRepo.UpsertBatch(ctx, chunk, req.PreservarDescripcion2); err != nil {
			// Falla de commit a nivel chunk: los chunks anteriores quedan
			// confirmados; el llamador re-corre el lote completo.
			return outcome, fmt.Errorf("sync productos: chunk %d: %w", inicio/syncChunkSize, err)
		}
		outcome.Creados += len(chunk) - len(existentes)
		outcome.Actualizados += len(existentes)
	}

	return outcome, nil
}

func (s *syncService) validarProducto(rec dto.SyncProductoRecord, categorias map[string]uuid.UUID) (model.Producto, error) {
	if rec.ProductoID == "" {
		return model.Producto{}, errors.New("product_id vacío")
	}
	if rec.Nombre == "" {
		return model.Producto{}, errors.New("nombre vacío")
	}

	precioBase := decimal.Zero
	if rec.PrecioBase != nil {
		precioBase = *rec.PrecioBase
	}
	ivaPct := decimal.NewFromInt(16)
	if rec.IVAPct != nil {
		ivaPct = *rec.IVAPct
	}
	// El motor de precios valida base e IVA con las mismas reglas que usará
	// en consulta; un registro que no pasa aquí tampoco podría cotizarse.
	if _, err := pricing.Calcular(precioBase, decimal.Zero, ivaPct); err != nil {
		return model.Producto{}, err
	}

	stock := 0
	if rec.Stock != nil {
		stock = *rec.Stock
	}
	if stock < 0 {
		return model.Producto{}, errors.New("stock_count negativo")
	}

	p := model.Producto{
		ID:           rec.ProductoID,
		CodigoBarras: rec.CodigoBarras,
		Nombre:       rec.Nombre,
		Descripcion:  rec.Descripcion,
		Descripcion2: rec.Descripcion2,
		UnidadMedida: "pieza",
		PrecioBase:   pricing.Round2(precioBase),
		IVAPct:       ivaPct,
		StockActual:  stock,
		Activo:       true,
		ImagenURL:    rec.ImagenURL,
	}
	if rec.UnidadMedida != nil && *rec.UnidadMedida != "" {
		p.UnidadMedida = *rec.UnidadMedida
	}
	if rec.Activo != nil {
		p.Activo = *rec.Activo
	}
	if rec.CategoriaNombre != nil {
		// Etiqueta sin categoría correspondiente ⇒ producto sin categoría.
		// No es un error: el feed trae etiquetas que nunca se dieron de alta.
		if id, ok := categorias[*rec.CategoriaNombre]; ok {
			catID := id
			p.CategoriaID = &catID
		}
	}
	return p, nil
}

// ── Listas de precios ─────────────────────────────────────────────────────────

func (s *syncService) SincronizarListasPrecios(ctx context.Context, req dto.SyncListasPreciosRequest) (*dto.SyncOutcome, error) {
	outcome := &dto.SyncOutcome{TotalRecibidos: len(req.Records)}

	listas := make([]model.ListaPrecio, 0, len(req.Records))
	porID := make(map[int]int, len(req.Records))
	for i, rec := range req.Records {
		if rec.ListaPrecioID <= 0 {
			outcome.AgregarError(fmt.Sprintf("registro %d: price_list_id inválido", i))
			continue
		}
		l := model.ListaPrecio{
			ID:          rec.ListaPrecioID,
			Nombre:      nombreLista(rec),
			Descripcion: rec.Descripcion,
			Activo:      true,
		}
		if rec.Activo != nil {
			l.Activo = *rec.Activo
		}
		if idx, ok := porID[l.ID]; ok {
			listas[idx] = l
			continue
		}
		porID[l.ID] = len(listas)
		listas = append(listas, l)
	}

	for inicio := 0; inicio < len(listas); inicio += syncChunkSize {
		fin := min(inicio+syncChunkSize, len(listas))
		chunk := listas[inicio:fin]

		ids := make([]int, len(chunk))
		for i, l := range chunk {
			ids[i] = l.ID
		}
		existentes, err := s.listaRepo.ListasExistentes(ctx, ids)
		if err != nil {
			return outcome, fmt.Errorf("sync listas: consultar existentes: %w", err)
		}
		if err := s.listaRepo.UpsertListas(ctx, chunk); err != nil {
			return outcome, fmt.Errorf("sync listas: chunk %d: %w", inicio/syncChunkSize, err)
		}
		outcome.Creados += len(chunk) - len(existentes)
		outcome.Actualizados += len(existentes)
	}

	return outcome, nil
}

// nombreLista tolera los distintos nombres de campo que el export ha usado a
// lo largo de sus versiones: list_name → name → "Lista {id}" sintetizado.
func nombreLista(rec dto.SyncListaPrecioRecord) string {
	if rec.ListName != nil && *rec.ListName != "" {
		return *rec.ListName
	}
	if rec.Nombre != nil && *rec.Nombre != "" {
		return *rec.Nombre
	}
	return fmt.Sprintf("Lista %d", rec.ListaPrecioID)
}

// ── Items de lista (márgenes por producto) ───────────────────────────────────

func (s *syncService) SincronizarListaPrecioItems(ctx context.Context, req dto.SyncListaPrecioItemsRequest) (*dto.SyncOutcome, error) {
	outcome := &dto.SyncOutcome{TotalRecibidos: len(req.Records)}

	items := make([]model.ListaPrecioItem, 0, len(req.Records))
	porClave := make(map[string]int, len(req.Records))
	listaIDs := make([]int, 0)
	productoIDs := make([]string, 0)
	vistasListas := make(map[int]struct{})
	vistosProductos := make(map[string]struct{})

	for i, rec := range req.Records {
		if rec.ListaPrecioID <= 0 || rec.ProductoID == "" {
			outcome.AgregarError(fmt.Sprintf("registro %d: clave (price_list_id, product_id) incompleta", i))
			continue
		}
		item := model.ListaPrecioItem{
			ListaPrecioID: rec.ListaPrecioID,
			ProductoID:    rec.ProductoID,
			MargenPct:     rec.MargenPct,
			PrecioFinal:   rec.PrecioFinal,
			Activo:        true,
		}
		clave := repository.ClaveItem{ListaPrecioID: item.ListaPrecioID, ProductoID: item.ProductoID}.String()
		if idx, ok := porClave[clave]; ok {
			items[idx] = item
			continue
		}
		porClave[clave] = len(items)
		items = append(items, item)

		if _, ok := vistasListas[rec.ListaPrecioID]; !ok {
			vistasListas[rec.ListaPrecioID] = struct{}{}
			listaIDs = append(listaIDs, rec.ListaPrecioID)
		}
		if _, ok := vistosProductos[rec.ProductoID]; !ok {
			vistosProductos[rec.ProductoID] = struct{}{}
			productoIDs = append(productoIDs, rec.ProductoID)
		}
	}

	// Filtrado de huérfanos: el feed legado no retira el precio de un
	// producto cuando el producto dejó de existir aquí. Un item que
	// referencia un producto o lista ausente se descarta en silencio — pero
	// SIEMPRE contado y reportado, nunca oculto — en lugar de reventar la
	// FK y tumbar el lote.
	productosValidos, err := s.productoRepo.ExistentesPorID(ctx, productoIDs)
	if err != nil {
		return outcome, fmt.Errorf("sync items: consultar productos: %w", err)
	}
	listasValidas, err := s.listaRepo.ListasExistentes(ctx, listaIDs)
	if err != nil {
		return outcome, fmt.Errorf("sync items: consultar listas: %w", err)
	}

	validos := items[:0]
	for _, item := range items {
		_, prodOK := productosValidos[item.ProductoID]
		_, listaOK := listasValidas[item.ListaPrecioID]
		if !prodOK || !listaOK {
			outcome.OrfanosFiltrados++
			continue
		}
		validos = append(validos, item)
	}

	for inicio := 0; inicio < len(validos); inicio += syncChunkSize {
		fin := min(inicio+syncChunkSize, len(validos))
		chunk := validos[inicio:fin]

		claves := make([]repository.ClaveItem, len(chunk))
		for i, item := range chunk {
			claves[i] = repository.ClaveItem{ListaPrecioID: item.ListaPrecioID, ProductoID: item.ProductoID}
		}
		existentes, err := s.listaRepo.ItemsExistentes(ctx, claves)
		if err != nil {
			return outcome, fmt.Errorf("sync items: consultar existentes: %w", err)
		}
		if err := s.listaRepo.UpsertItems(ctx, chunk); err != nil {
			return outcome, fmt.Errorf("sync items: chunk %d: %w", inicio/syncChunkSize, err)
		}
		outcome.Creados += len(chunk) - len(existentes)
		outcome.Actualizados += len(existentes)
	}

	return outcome, nil
}

// ── Clientes ─────────────────────────────────────────────────────────────────

func (s *syncService) SincronizarClientes(ctx context.Context, req dto.SyncClientesRequest) (*dto.SyncOutcome, error) {
	outcome := &dto.SyncOutcome{TotalRecibidos: len(req.Records)}

	registros := make([]dto.SyncClienteRecord, 0, len(req.Records))
	porID := make(map[string]int, len(req.Records))
	listaIDs := make([]int, 0)
	vistasListas := make(map[int]struct{})
	for i, rec := range req.Records {
		if rec.ClienteID == "" || rec.Username == "" || rec.Password == "" {
			outcome.AgregarError(fmt.Sprintf("registro %d: customer_id, username y password son obligatorios", i))
			continue
		}
		if idx, ok := porID[rec.ClienteID]; ok {
			registros[idx] = rec
			continue
		}
		porID[rec.ClienteID] = len(registros)
		registros = append(registros, rec)
		if rec.ListaPrecioID != nil {
			if _, ok := vistasListas[*rec.ListaPrecioID]; !ok {
				vistasListas[*rec.ListaPrecioID] = struct{}{}
				listaIDs = append(listaIDs, *rec.ListaPrecioID)
			}
		}
	}

	listasValidas, err := s.listaRepo.ListasExistentes(ctx, listaIDs)
	if err != nil {
		return outcome, fmt.Errorf("sync clientes: consultar listas: %w", err)
	}

	for inicio := 0; inicio < len(registros); inicio += syncChunkSize {
		fin := min(inicio+syncChunkSize, len(registros))
		chunk := registros[inicio:fin]

		ids := make([]string, len(chunk))
		for i, rec := range chunk {
			ids[i] = rec.ClienteID
		}
		existentes, err := s.clienteRepo.ExistentesPorID(ctx, ids)
		if err != nil {
			return outcome, fmt.Errorf("sync clientes: consultar existentes: %w", err)
		}

		clientes := make([]model.Cliente, 0, len(chunk))
		infos := make([]model.ClienteInfo, 0, len(chunk))
		for _, rec := range chunk {
			_, existe := existentes[rec.ClienteID]

			c := model.Cliente{
				ID:             rec.ClienteID,
				Username:       rec.Username,
				Email:          rec.Email,
				NombreCompleto: rec.NombreCompleto,
				Activo:         true,
				// El hash de abajo sólo llega a la fila en inserción o con
				// rotación explícita; el camino de conflicto sin rotación no
				// incluye password_hash en sus columnas de asignación.
				PasswordHash: "*",
			}
			if !existe || req.RotarPasswords {
				hash, err := bcrypt.GenerateFromPassword([]byte(rec.Password), 12)
				if err != nil {
					outcome.AgregarError(fmt.Sprintf("cliente %s: hash de contraseña: %v", rec.ClienteID, err))
					continue
				}
				c.PasswordHash = string(hash)
			}

			info := model.ClienteInfo{
				ClienteID:     rec.ClienteID,
				RazonSocial:   rec.RazonSocial,
				RFC:           rec.RFC,
				GrupoVentasID: rec.GrupoVentasID,
				AgenteID:      rec.AgenteID,
				Direccion:     rec.Direccion,
				Ciudad:        rec.Ciudad,
				Estado:        rec.Estado,
				CodigoPostal:  rec.CodigoPostal,
				Telefono:      rec.Telefono,
				Celular:       rec.Celular,
			}
			// Asignación a lista inexistente ⇒ cliente sin precios
			// personalizados, no un error del lote.
			if rec.ListaPrecioID != nil {
				if _, ok := listasValidas[*rec.ListaPrecioID]; ok {
					lid := *rec.ListaPrecioID
					info.ListaPrecioID = &lid
				}
			}

			clientes = append(clientes, c)
			infos = append(infos, info)
			if existe {
				outcome.Actualizados++
			} else {
				outcome.Creados++
			}
		}

		// Cliente primero, info después: la FK de clientes_info exige que la
		// fila de identidad ya esté confirmada.
		if err := s.clienteRepo.UpsertClientes(ctx, clientes, req.RotarPasswords); err != nil {
			return outcome, fmt.Errorf("sync clientes: chunk %d: %w", inicio/syncChunkSize, err)
		}
		if err := s.clienteRepo.UpsertInfos(ctx, infos); err != nil {
			return outcome, fmt.Errorf("sync clientes: chunk %d (info): %w", inicio/syncChunkSize, err)
		}
	}

	if req.RotarPasswords {
		log.Warn().Int("clientes", len(registros)).
			Msg("sync: rotación de contraseñas aplicada al lote completo")
	}
	return outcome, nil
}

// ── Limpieza post-sync ────────────────────────────────────────────────────────

func (s *syncService) LimpiarCatalogo(ctx context.Context, cutoff time.Time) error {
	productos, err := s.productoRepo.DesactivarAnteriores(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("limpieza: productos: %w", err)
	}
	categorias, err := s.categoriaRepo.DesactivarAnteriores(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("limpieza: categorías: %w", err)
	}
	listas, err := s.listaRepo.DesactivarListasAnteriores(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("limpieza: listas: %w", err)
	}
	items, err := s.listaRepo.DesactivarItemsAnteriores(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("limpieza: items: %w", err)
	}

	log.Info().
		Time("cutoff", cutoff).
		Int64("productos", productos).
		Int64("categorias", categorias).
		Int64("listas", listas).
		Int64("items", items).
		Msg("limpieza de catálogo no sincronizado")
	return nil
}

func (s *syncService) LimpiarClientes(ctx context.Context, cutoff time.Time) error {
	clientes, err := s.clienteRepo.DesactivarAnteriores(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("limpieza: clientes: %w", err)
	}
	log.Info().Time("cutoff", cutoff).Int64("clientes", clientes).
		Msg("limpieza de clientes no sincronizados")
	return nil
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}
