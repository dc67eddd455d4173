package router

import (
	"time"

	"erppsi/internal/config"
	"erppsi/internal/handler"
	"erppsi/internal/infra"
	"erppsi/internal/middleware"
	"erppsi/internal/plantilla"
	"erppsi/internal/repository"
	"erppsi/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Infra carries the collaborators built in the composition root.
type Infra struct {
	Motor       service.MotorRender
	Breaker     *infra.CircuitBreaker // nil unless the remote renderer is used
	Almacen     service.AlmacenArtefactos
	Estampador  service.EstampadorFirma
	Catalogo    *plantilla.Catalogo
	Despachador service.DespachadorFirmas // nil disables post-signature jobs
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, in Infra) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler(!cfg.IsProduction()))
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	contratoRepo := repository.NewContratoRepository(db)
	clienteRepo := repository.NewClienteRepository(db)
	servicioRepo := repository.NewServicioRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	contratoSvc := service.NewContratoService(db, contratoRepo, clienteRepo, servicioRepo, service.ContratoServiceConfig{
		Empresa: plantilla.Empresa{
			Nombre:    cfg.EmpresaNombre,
			NIT:       cfg.EmpresaNIT,
			Direccion: cfg.EmpresaDireccion,
			Telefono:  cfg.EmpresaTelefono,
			Email:     cfg.EmpresaEmail,
		},
		BaseURL:     cfg.PublicBaseURL,
		Catalogo:    in.Catalogo,
		Motor:       in.Motor,
		Estampador:  in.Estampador,
		Almacen:     in.Almacen,
		Despachador: in.Despachador,
	})

	// ── Handlers ─────────────────────────────────────────────────────────────
	contratosH := handler.NewContratosHandler(contratoSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	var cmd redis.Cmdable
	if rdb != nil {
		cmd = rdb
	}
	r.GET("/health", handler.Health(db, cmd, in.Breaker))

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: asesor, supervisor, administrador; declared per-endpoint
		todos := middleware.RequireRole(middleware.RolAsesor, middleware.RolSupervisor, middleware.RolAdministrador)
		contratos := v1.Group("/contracts/:id", todos)
		{
			contratos.GET("/pdf", contratosH.PDF)
			contratos.GET("/open-for-signing", contratosH.AbrirParaFirma)
			contratos.POST("/sign", middleware.SignRateLimiter(10, time.Minute), contratosH.Firmar)
			contratos.GET("/download-pdf", contratosH.DescargarPDF)
			contratos.GET("/verify-pdf", contratosH.VerificarPDF)
		}
		// Signature audit record, supervisor or administrador
		v1.GET("/contracts/:id/signature",
			middleware.RequireRole(middleware.RolSupervisor, middleware.RolAdministrador),
			contratosH.EventoFirma)
	}

	// Swagger UI, only enabled outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
