// Command api sirve la API HTTP de parcelle y fatturazione elettronica.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/swaggo/swag"

	"github.com/jhoicas/psicofattura/docs"
	"github.com/jhoicas/psicofattura/internal/application/auth"
	"github.com/jhoicas/psicofattura/internal/application/billing"
	"github.com/jhoicas/psicofattura/internal/infrastructure/archive"
	"github.com/jhoicas/psicofattura/internal/infrastructure/aruba"
	"github.com/jhoicas/psicofattura/internal/infrastructure/fatturapa"
	infrapdf "github.com/jhoicas/psicofattura/internal/infrastructure/pdf"
	"github.com/jhoicas/psicofattura/internal/infrastructure/postgres"
	"github.com/jhoicas/psicofattura/internal/infrastructure/ratelimit"
	"github.com/jhoicas/psicofattura/internal/infrastructure/xlsx"
	httpRouter "github.com/jhoicas/psicofattura/internal/interfaces/http"
	"github.com/jhoicas/psicofattura/migrations"
	"github.com/jhoicas/psicofattura/pkg/config"
	"github.com/jhoicas/psicofattura/pkg/logger"
)

// @title                       Psicofattura API
// @version                     1.0
// @description                 Gestión de parcelle de consulta psicológica y fatturazione elettronica FatturaPA.
// @BasePath                    /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
// @description                 Bearer <token>
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Bool("fatturazione_elettronica", cfg.EInvoicing.Enabled).
		Str("aruba_env", cfg.EInvoicing.Environment).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	applied, err := postgres.Migrate(ctx, pool, migrations.FS)
	if err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}
	if len(applied) > 0 {
		log.Info().Strs("migrations", applied).Msg("migraciones aplicadas")
	}

	userRepo := postgres.NewUserRepository(pool)
	psychologistRepo := postgres.NewPsychologistRepository(pool)
	patientRepo := postgres.NewPatientRepository(pool)
	invoiceRepo := postgres.NewInvoiceRepository(pool)
	comuneRepo := postgres.NewComuneRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Cuotas del intermediario: Redis si hay REDIS_URL (varias réplicas), si no en memoria.
	var limiter aruba.RateLimiter = ratelimit.NewLocalLimiter()
	if cfg.RateLimit.RedisURL != "" {
		rl, err := ratelimit.NewRedisLimiter(ctx, cfg.RateLimit.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("redis no disponible, se usa el limitador en memoria")
		} else {
			defer rl.Close()
			limiter = rl
		}
	}

	// Intermediario Aruba: nil si la función está apagada o faltan credenciales.
	var intermediary billing.Intermediary
	if cfg.EInvoicing.Enabled {
		client, err := aruba.NewClient(cfg.EInvoicing, limiter, log)
		if err != nil {
			log.Warn().Err(err).Msg("cliente Aruba no disponible")
		} else {
			defer client.SignOut()
			intermediary = client
		}
	}

	var archiver billing.Archiver
	if cfg.Archive.Enabled {
		s3, err := archive.NewS3Archiver(cfg.Archive)
		if err != nil {
			log.Fatal().Err(err).Msg("archivo S3")
		}
		archiver = s3
	}

	generator := fatturapa.NewGenerator(
		fatturapa.NewBuilder(fatturapa.NewClockRandomSource()),
		fatturapa.MarkerValidator{},
	)

	authUC := auth.NewAuthUseCase(userRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	psychologistUC := billing.NewPsychologistUseCase(psychologistRepo, comuneRepo)
	patientUC := billing.NewPatientUseCase(patientRepo, comuneRepo)
	invoiceUC := billing.NewInvoiceUseCase(
		invoiceRepo, psychologistRepo, patientRepo,
		infrapdf.NewMarotoPDFGenerator(), xlsx.NewRegisterExporter(),
	)
	einvoiceSvc := billing.NewEInvoiceService(
		cfg.EInvoicing, generator, intermediary,
		invoiceRepo, psychologistRepo, patientRepo,
		txRunner, archiver, log,
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: cfg.EInvoicing.Timeout + 10*time.Second,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    8 * 1024 * 1024,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    docs.SwaggerInfo.Title,
	}))
	app.Get("/openapi.json", func(c *fiber.Ctx) error {
		doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
		if err != nil {
			return c.SendStatus(fiber.StatusNotFound)
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.SendString(doc)
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":                  "ok",
			"service":                 cfg.App.Name,
			"fatturazioneElettronica": cfg.EInvoicing.Enabled,
		})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:         authUC,
		PsychologistUC: psychologistUC,
		PatientUC:      patientUC,
		InvoiceUC:      invoiceUC,
		EInvoicing:     einvoiceSvc,
		JWTSecret:      cfg.JWT.Secret,
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
