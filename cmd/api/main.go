package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/contabilidad-core/internal/bootstrap"
	httpRouter "github.com/jhoicas/contabilidad-core/internal/interfaces/http"
	"github.com/jhoicas/contabilidad-core/pkg/config"
	"github.com/jhoicas/contabilidad-core/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Ledger.Store).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es obligatorio")
	}

	ctx := context.Background()
	storage, err := bootstrap.OpenStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("almacén contable")
	}
	defer storage.Close()

	svc, err := bootstrap.NewServices(cfg.Ledger, storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("configuración contable")
	}

	if cfg.Ledger.ChartFile != "" {
		created, err := bootstrap.LoadChart(ctx, svc.Chart, svc.Settings.Codes, cfg.Ledger.ChartFile)
		if err != nil {
			log.Fatal().Err(err).Msg("carga del plan de cuentas")
		}
		log.Info().Int("created", created).Str("file", cfg.Ledger.ChartFile).Msg("plan de cuentas listo")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Contabilidad API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Chart:       svc.Chart,
		Calendar:    svc.Calendar,
		Provisioner: svc.Provisioner,
		Engine:      svc.Engine,
		Rules:       svc.Rules,
		Ledger:      svc.Ledger,
		Codes:       svc.Settings.Codes,
		JWTSecret:   cfg.JWT.Secret,
		Log:         log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
