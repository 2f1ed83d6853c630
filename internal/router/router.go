package router

import (
	"time"

	"github.com/VictorVasquezZT2005/FerreTrack-sub000/internal/config"
	"github.com/VictorVasquezZT2005/FerreTrack-sub000/internal/handler"
	"github.com/VictorVasquezZT2005/FerreTrack-sub000/internal/infra"
	"github.com/VictorVasquezZT2005/FerreTrack-sub000/internal/middleware"
	"github.com/VictorVasquezZT2005/FerreTrack-sub000/internal/repository"
	"github.com/VictorVasquezZT2005/FerreTrack-sub000/internal/service"
	"github.com/VictorVasquezZT2005/FerreTrack-sub000/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine plus the
// worker handlers for the async pool.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*gin.Engine, map[string]worker.Handler) {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	mailer := infra.NewMailer(cfg)
	dispatcher := worker.NewDispatcher(rdb)

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	productoRepo := repository.NewProductoRepository(db)
	ventaRepo := repository.NewVentaRepository(db)
	clienteRepo := repository.NewClienteRepository(db)
	proveedorRepo := repository.NewProveedorRepository(db)
	movimientoStockRepo := repository.NewMovimientoStockRepository(db)
	categoriaRepo := repository.NewCategoriaRepository(db)
	auditoriaRepo := repository.NewAuditoriaRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	auditoriaSvc := service.NewAuditoriaService(auditoriaRepo)
	authSvc := service.NewAuthService(usuarioRepo, cfg)
	productoSvc := service.NewProductoService(productoRepo, categoriaRepo, movimientoStockRepo, usuarioRepo, auditoriaSvc, rdb)
	inventarioSvc := service.NewInventarioService(productoRepo, movimientoStockRepo)
	clienteSvc := service.NewClienteService(clienteRepo, usuarioRepo, auditoriaSvc)
	proveedorSvc := service.NewProveedorService(proveedorRepo)
	categoriaSvc := service.NewCategoriaService(categoriaRepo)
	ventaSvc := service.NewVentaService(
		ventaRepo, productoRepo, clienteRepo, usuarioRepo, movimientoStockRepo,
		auditoriaSvc, dispatcher, cfg.VentaCommitTimeout(), cfg.VentaMaxReintentos,
	)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usuariosH := handler.NewUsuariosHandler(authSvc)
	productosH := handler.NewProductosHandler(productoSvc)
	inventarioH := handler.NewInventarioHandler(inventarioSvc)
	ventasH := handler.NewVentasHandler(ventaSvc)
	clientesH := handler.NewClientesHandler(clienteSvc)
	proveedoresH := handler.NewProveedoresHandler(proveedorSvc)
	categoriasH := handler.NewCategoriasHandler(categoriaSvc)
	consultaH := handler.NewConsultaPreciosHandler(productoRepo, rdb)

	// ── Worker handlers (consumed by cmd/server's pool) ──────────────────────
	reciboW := worker.NewReciboWorker(ventaRepo, dispatcher, rdb, cfg.PDFStoragePath)
	emailW := worker.NewEmailWorker(mailer)
	workerHandlers := map[string]worker.Handler{
		"recibo": reciboW.Process,
		"email":  emailW.Process,
	}

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Price check — no auth required
	r.GET("/v1/precio/:codigo", consultaH.GetPrecioPorCodigo)

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: vendedor, administrador — declared per-endpoint
		ventas := v1.Group("/ventas", middleware.RequireRole("vendedor", "administrador"))
		{
			ventas.POST("", ventasH.CrearVenta)
			ventas.GET("", ventasH.ListarVentas)
			ventas.GET("/:id", ventasH.ObtenerVenta)
			ventas.PATCH("/:id", ventasH.ActualizarVenta)
			ventas.DELETE("/:id", ventasH.EliminarVenta)
		}

		// Products — everyone authenticated reads, administrador writes
		v1.GET("/productos", middleware.RequireRole("vendedor", "administrador"), productosH.Listar)
		v1.GET("/productos/:id", middleware.RequireRole("vendedor", "administrador"), productosH.Obtener)
		v1.PATCH("/productos/:id/stock", middleware.RequireRole("administrador"), productosH.AjustarStock)
		prods := v1.Group("/productos", middleware.RequireRole("administrador"))
		{
			prods.POST("", productosH.Crear)
			prods.PUT("/:id", productosH.Actualizar)
			prods.DELETE("/:id", productosH.Eliminar)
		}

		inv := v1.Group("/inventario", middleware.RequireRole("vendedor", "administrador"))
		{
			inv.GET("/alertas", inventarioH.Alertas)
			inv.GET("/movimientos/:id", inventarioH.Movimientos)
		}

		clientes := v1.Group("/clientes", middleware.RequireRole("vendedor", "administrador"))
		{
			clientes.POST("", clientesH.Crear)
			clientes.GET("", clientesH.Listar)
			clientes.GET("/:id", clientesH.Obtener)
			clientes.PUT("/:id", clientesH.Actualizar)
			clientes.DELETE("/:id", clientesH.Eliminar)
		}

		prov := v1.Group("/proveedores", middleware.RequireRole("administrador"))
		{
			prov.POST("", proveedoresH.Crear)
			prov.GET("", proveedoresH.Listar)
			prov.GET("/:id", proveedoresH.Obtener)
			prov.PUT("/:id", proveedoresH.Actualizar)
			prov.DELETE("/:id", proveedoresH.Desactivar)
		}

		// Categorías — administrador writes, all authenticated read
		v1.GET("/categorias", middleware.RequireRole("vendedor", "administrador"), categoriasH.Listar)
		categorias := v1.Group("/categorias", middleware.RequireRole("administrador"))
		{
			categorias.POST("", categoriasH.Crear)
			categorias.PUT("/:id", categoriasH.Actualizar)
			categorias.DELETE("/:id", categoriasH.Eliminar)
		}

		usuarios := v1.Group("/usuarios", middleware.RequireRole("administrador"))
		{
			usuarios.POST("", usuariosH.Crear)
			usuarios.GET("", usuariosH.Listar)
			usuarios.PUT("/:id", usuariosH.Actualizar)
			usuarios.DELETE("/:id", usuariosH.Desactivar)
			usuarios.PATCH("/:id/reactivar", usuariosH.Reactivar)
		}
	}

	return r, workerHandlers
}
