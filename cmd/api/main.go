package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/factusystem/factu-api/docs"
	"github.com/factusystem/factu-api/internal/application/auth"
	"github.com/factusystem/factu-api/internal/application/billing"
	"github.com/factusystem/factu-api/internal/application/payments"
	"github.com/factusystem/factu-api/internal/domain/entity"
	"github.com/factusystem/factu-api/internal/infrastructure/afip"
	"github.com/factusystem/factu-api/internal/infrastructure/banktransfer"
	"github.com/factusystem/factu-api/internal/infrastructure/mercadopago"
	infrapdf "github.com/factusystem/factu-api/internal/infrastructure/pdf"
	"github.com/factusystem/factu-api/internal/infrastructure/postgres"
	"github.com/factusystem/factu-api/internal/infrastructure/realtime"
	httpRouter "github.com/factusystem/factu-api/internal/interfaces/http"
	"github.com/factusystem/factu-api/pkg/config"
	"github.com/factusystem/factu-api/pkg/logger"
	"github.com/factusystem/factu-api/pkg/metrics"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("afip_env", cfg.AFIP.Env).
		Str("realtime", cfg.Realtime.Driver).
		Msg("iniciando aplicación")

	// rootCtx acota los procesos de fondo (awaiter, LISTEN, sweeper).
	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	pool, err := postgres.NewPool(rootCtx, cfg.DB, log.Component("postgres"))
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()
	if err := postgres.Migrate(rootCtx, pool, log.Component("migrations")); err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	userRepo := postgres.NewUserRepository(pool)
	clientRepo := postgres.NewClientRepository(pool)
	saleRepo := postgres.NewSaleRepository(pool)
	pendingRepo := postgres.NewPendingPaymentRepository(pool)
	notificationRepo := postgres.NewPaymentNotificationRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Tiempo real: el reconciliador avisa a las cajas; el awaiter además hace polling.
	var broker payments.NotificationBroker
	switch cfg.Realtime.Driver {
	case config.RealtimeRedis:
		rb, err := realtime.NewRedisBroker(cfg.Realtime.RedisURL, log.Component("realtime_redis"))
		if err != nil {
			log.Fatal().Err(err).Msg("redis")
		}
		if err := rb.Ping(rootCtx); err != nil {
			log.Fatal().Err(err).Msg("redis no responde")
		}
		defer rb.Close()
		broker = rb
	case config.RealtimeMemory:
		broker = realtime.NewMemoryBroker()
	default:
		pb := realtime.NewPostgresBroker(pool, log.Component("realtime_postgres"))
		go pb.Run(rootCtx)
		broker = pb
	}

	mpClient := mercadopago.NewClient(mercadopago.Config{
		AccessToken:     cfg.MercadoPago.AccessToken,
		BaseURL:         cfg.MercadoPago.BaseURL,
		CollectorID:     cfg.MercadoPago.CollectorID,
		ExternalPOSID:   cfg.MercadoPago.ExternalPOSID,
		NotificationURL: cfg.MercadoPago.NotificationURL,
		RatePerSecond:   cfg.MercadoPago.RatePerSecond,
	}, &http.Client{Timeout: 10 * time.Second}, log.Component("mercadopago"))
	bankRequester := banktransfer.NewRequester(cfg.Bank.Alias, cfg.Bank.CBU)

	awaiter := payments.NewAwaiter(rootCtx, pendingRepo, notificationRepo,
		map[entity.TenderMethod]payments.PaymentRequester{
			entity.TenderQR:           mpClient,
			entity.TenderWallet:       mpClient,
			entity.TenderBankTransfer: bankRequester,
		},
		broker, m, log.Zerolog(),
		payments.AwaiterConfig{
			Window:       cfg.Payments.Window,
			PollInterval: cfg.Payments.PollInterval,
			Currency:     cfg.Billing.Currency,
		})

	// El broker de Postgres no publica: el trigger de payment_notifications emite el NOTIFY.
	reconciler := payments.NewReconciler(payments.ReconcilerDeps{
		Pending:       pendingRepo,
		Notifications: notificationRepo,
		Provider:      mpClient,
		Publisher:     broker,
		Metrics:       m,
		Log:           log.Zerolog(),
		BankSecret:    cfg.Bank.WebhookSecret,
	})

	sweeper := payments.NewExpirySweeper(pendingRepo, cfg.Payments.SweepInterval, log.Zerolog())
	go sweeper.Run(rootCtx)

	// Autorización fiscal: en dev el orquestador simula el CAE y no usa el cliente WSFE.
	var authorizer billing.FiscalAuthorizer
	if cfg.AFIP.Env == billing.FiscalEnvHomo || cfg.AFIP.Env == billing.FiscalEnvProd {
		wsfe, err := afip.NewWSFEClient(cfg.AFIP.Env, "", afip.Credentials{
			Token: cfg.AFIP.Token,
			Sign:  cfg.AFIP.Sign,
			CUIT:  cfg.AFIP.CUIT,
		}, log.Zerolog())
		if err != nil {
			log.Fatal().Err(err).Msg("cliente AFIP")
		}
		authorizer = wsfe
	}
	fiscal := billing.NewFiscalOrchestrator(saleRepo, authorizer, cfg.AFIP.Env, log.Zerolog())

	tolerance := cfg.Billing.Tolerance
	finalizer := billing.NewFinalizeSaleUseCase(txRunner, fiscal, m, log.Zerolog(), billing.FinalizeConfig{
		Tolerance: &tolerance,
		Currency:  cfg.Billing.Currency,
	})
	drafts := billing.NewDraftService(clientRepo, awaiter, finalizer, log.Zerolog())
	if cfg.Payments.DraftIdle > 0 {
		go drafts.RunEviction(rootCtx, cfg.Payments.SweepInterval, cfg.Payments.DraftIdle)
	}
	sales := billing.NewSaleUseCase(saleRepo, infrapdf.NewReceiptRenderer(), billing.IssuerInfo{
		Name:         cfg.AFIP.IssuerName,
		CUIT:         cfg.AFIP.CUIT,
		Address:      cfg.AFIP.IssuerAddress,
		TaxCondition: cfg.AFIP.IssuerTaxCond,
	})
	authUC := auth.NewAuthUseCase(userRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(httpRouter.RequestLogger(log.Zerolog()))

	// Swagger UI en local: http://localhost:<port>/docs
	docs.SwaggerInfo.Title = cfg.App.Name + " API"
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    docs.SwaggerInfo.Title,
		}))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:          authUC,
		Drafts:          drafts,
		Sales:           sales,
		Reconciler:      reconciler,
		Gatherer:        reg,
		JWTSecret:       cfg.JWT.Secret,
		AllowSimulation: !cfg.App.IsProduction(),
		ServiceName:     cfg.App.Name,
		Log:             log.Zerolog(),
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
	stop()

	log.Info().Msg("aplicación detenida")
}
