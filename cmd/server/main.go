package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"erppsi/internal/config"
	"erppsi/internal/infra"
	"erppsi/internal/plantilla"
	"erppsi/internal/router"
	"erppsi/internal/service"
	"erppsi/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// @title        ERP PSI · Contratos API
// @version      1.0
// @description  Generación, firma digital y verificación de contratos de servicio.
// @BasePath     /
// @securityDefinitions.apikey BearerAuth
// @in           header
// @name         Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: dev pretty, prod JSON
	zerolog.TimeFieldFormat = time.RFC3339
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	if err := infra.RunMigrations(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	almacen, err := infra.NewAlmacen(cfg.PDFStoragePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to prepare PDF storage")
	}

	catalogo := plantilla.CatalogoDefault()
	if cfg.ClausulasPath != "" {
		if catalogo, err = plantilla.CargarCatalogo(cfg.ClausulasPath); err != nil {
			log.Fatal().Err(err).Str("path", cfg.ClausulasPath).Msg("failed to load clause catalogue")
		}
	}

	var (
		motor   service.MotorRender
		breaker *infra.CircuitBreaker
	)
	switch cfg.RenderEngine {
	case "chromium":
		breaker = infra.NewCircuitBreaker(infra.DefaultCBConfig("chromium"))
		motor = infra.NewChromiumEngine(cfg.ChromiumURL, breaker)
	default:
		motor = infra.NewFPDFEngine()
	}
	log.Info().Str("engine", cfg.RenderEngine).Str("storage", almacen.Raiz()).Msg("contract renderer ready")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis only carries post-signature jobs; without it signing still works.
	in := router.Infra{
		Motor:      motor,
		Breaker:    breaker,
		Almacen:    almacen,
		Estampador: infra.NewEstampador(),
		Catalogo:   catalogo,
	}
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = infra.NewRedis(cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, post-signature jobs disabled")
			rdb = nil
		}
	}
	if rdb != nil {
		in.Despachador = worker.NewDispatcher(rdb)

		espejo, err := infra.NewEspejoMinio(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to configure minio")
		}
		var mirror worker.Espejo
		if espejo != nil {
			if err := espejo.EnsureBucket(ctx); err != nil {
				log.Fatal().Err(err).Str("bucket", cfg.MinioBucket).Msg("failed to prepare minio bucket")
			}
			mirror = espejo
		}

		// Worker handlers are wired here (composition root) so that the pool
		// has full access to all infrastructure dependencies.
		handlers := map[string]worker.Processor{
			worker.JobContratoFirmado: worker.NewContratoFirmadoWorker(almacen, mirror, infra.NewMailer(cfg), cfg.EmpresaNombre),
		}
		worker.StartWorkerPool(ctx, rdb, cfg.WorkerPoolSize, handlers)
	}

	r := router.New(cfg, db, rdb, in)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // remote rendering can take seconds
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("contratos service listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
