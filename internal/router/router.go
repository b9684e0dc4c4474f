package router

import (
	"time"

	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/config"
	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/handler"
	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/infra"
	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/middleware"
	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/repository"
	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/service"
	"github.com/Bernardooq/farmacruz-ecomerce-sub000/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, smtpCB *infra.CircuitBreaker) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.Domain))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	revocados := infra.NewRedisRevocationStore(rdb)

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	clienteRepo := repository.NewClienteRepository(db)
	categoriaRepo := repository.NewCategoriaRepository(db)
	productoRepo := repository.NewProductoRepository(db)
	listaRepo := repository.NewListaPrecioRepository(db)
	carritoRepo := repository.NewCarritoRepository(db)
	pedidoRepo := repository.NewPedidoRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	authSvc := service.NewAuthService(usuarioRepo, clienteRepo, revocados, cfg)
	syncSvc := service.NewSyncService(categoriaRepo, productoRepo, listaRepo, clienteRepo)
	catalogoSvc := service.NewCatalogoService(productoRepo, categoriaRepo, listaRepo, clienteRepo,
		rdb, time.Duration(cfg.PrecioCacheTTLSeconds)*time.Second)
	carritoSvc := service.NewCarritoService(carritoRepo, productoRepo, catalogoSvc)
	pedidoSvc := service.NewPedidoService(pedidoRepo, carritoRepo, productoRepo, clienteRepo, catalogoSvc, dispatcher)
	contactoSvc := service.NewContactoService(dispatcher, cfg.ContactoEmail)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	syncH := handler.NewSyncHandler(syncSvc)
	catalogoH := handler.NewCatalogoHandler(catalogoSvc)
	carritoH := handler.NewCarritoHandler(carritoSvc)
	pedidosH := handler.NewPedidosHandler(pedidoSvc)
	contactoH := handler.NewContactoHandler(contactoSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, smtpCB))
	r.POST("/v1/contacto", contactoH.Enviar)

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret, revocados)
	v1 := r.Group("/v1", jwtMW)
	{
		v1.POST("/auth/logout", authH.Logout)

		// Sync — sólo el job del sistema de escritorio (rol administrador).
		// Orden esperado del job: categorías → productos → listas → items →
		// clientes; los items filtran huérfanos si el orden se viola.
		sync := v1.Group("/sync", middleware.RequireRole("administrador"))
		{
			sync.POST("/categorias", syncH.Categorias)
			sync.POST("/productos", syncH.Productos)
			sync.POST("/listas-precios", syncH.ListasPrecios)
			sync.POST("/listas-precios/items", syncH.ListaPrecioItems)
			sync.POST("/clientes", syncH.Clientes)
			sync.POST("/limpieza/catalogo", syncH.LimpiarCatalogo)
			sync.POST("/limpieza/clientes", syncH.LimpiarClientes)
		}

		// Catálogo — cualquier usuario autenticado; el precio que devuelve
		// depende de la lista del cliente que pregunta.
		catalogo := v1.Group("/catalogo")
		{
			catalogo.GET("/productos", catalogoH.Listar)
			catalogo.GET("/productos/:id", catalogoH.Obtener)
			catalogo.GET("/categorias", catalogoH.Categorias)
		}

		// Carrito y checkout — sólo farmacias cliente.
		carrito := v1.Group("/carrito", middleware.RequireRole(service.RolCliente))
		{
			carrito.GET("", carritoH.Listar)
			carrito.POST("/items", carritoH.Agregar)
			carrito.PUT("/items/:id", carritoH.Actualizar)
			carrito.DELETE("/items/:id", carritoH.Eliminar)
		}

		v1.POST("/pedidos", middleware.RequireRole(service.RolCliente), pedidosH.Crear)
		v1.GET("/pedidos", pedidosH.Listar)
		v1.GET("/pedidos/:id", pedidosH.Obtener)
		v1.DELETE("/pedidos/:id", pedidosH.Cancelar)
		v1.PATCH("/pedidos/:id/estado", middleware.RequireRole("administrador", "ventas"), pedidosH.CambiarEstado)
		v1.PATCH("/pedidos/:id/items/:item_id", middleware.RequireRole("administrador", "ventas"), pedidosH.ActualizarItem)
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
