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

	appanalytics "github.com/tu-usuario/biblioteca-api/internal/application/analytics"
	"github.com/tu-usuario/biblioteca-api/internal/application/auth"
	applending "github.com/tu-usuario/biblioteca-api/internal/application/lending"
	"github.com/tu-usuario/biblioteca-api/internal/application/usecase"
	"github.com/tu-usuario/biblioteca-api/internal/domain/lending"
	"github.com/tu-usuario/biblioteca-api/internal/infrastructure/postgres"
	httpRouter "github.com/tu-usuario/biblioteca-api/internal/interfaces/http"
	"github.com/tu-usuario/biblioteca-api/pkg/config"
	"github.com/tu-usuario/biblioteca-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	userRepo := postgres.NewUserRepository(pool)
	bookRepo := postgres.NewBookRepository(pool)
	recordRepo := postgres.NewBorrowRecordRepository(pool)
	dashboardRepo := postgres.NewDashboardRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	policy := lending.Policy{
		LoanDays:          cfg.Lending.LoanDays,
		MaxRenewals:       cfg.Lending.MaxRenewals,
		StockRetries:      cfg.Lending.StockRetries,
		AllowRenewOverdue: cfg.Lending.AllowRenewOverdue,
	}

	authUC := auth.NewUseCase(userRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	bookUC := usecase.NewBookUseCase(bookRepo, recordRepo)
	userUC := usecase.NewUserUseCase(userRepo)
	recordUC := usecase.NewRecordUseCase(recordRepo, bookRepo, userRepo, policy)
	dashboardUC := appanalytics.NewDashboardUseCase(dashboardRepo)
	lendingUC := applending.NewUseCase(
		bookRepo,
		recordRepo,
		userRepo,
		applending.NewReaderEligibility(userRepo),
		txRunner,
		policy,
	)

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
		Title:    "Biblioteca API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:      authUC,
		BookUC:      bookUC,
		UserUC:      userUC,
		RecordUC:    recordUC,
		LendingUC:   lendingUC,
		DashboardUC: dashboardUC,
		JWTSecret:   cfg.JWT.Secret,
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
