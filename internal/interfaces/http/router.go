package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/factusystem/factu-api/internal/application/auth"
	"github.com/factusystem/factu-api/internal/application/billing"
	"github.com/factusystem/factu-api/internal/application/payments"
	"github.com/factusystem/factu-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC          *auth.AuthUseCase
	Drafts          *billing.DraftService
	Sales           *billing.SaleUseCase
	Reconciler      *payments.Reconciler
	Gatherer        prometheus.Gatherer // nil = sin /metrics
	JWTSecret       string
	AllowSimulation bool
	ServiceName     string
	Log             zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.ServiceName})
	})
	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC)
	api.Post("/auth/login", authHandler.Login)

	// Webhooks (públicos; la transferencia se valida por firma)
	webhooks := api.Group("/webhooks")
	webhookHandler := NewWebhookHandler(deps.Reconciler, deps.AllowSimulation, deps.Log)
	webhooks.Post("/mercadopago", webhookHandler.MercadoPago)
	webhooks.Post("/bank-transfer", webhookHandler.BankTransfer)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Simulación de pagos: solo supervisores, y fuera de producción
	protected.Post("/webhooks/test-payment",
		RequireRole(entity.RoleAdmin, entity.RoleSupervisor), webhookHandler.TestPayment)

	// Borradores de venta: solo usuarios con caja asignada
	drafts := protected.Group("/billing/drafts", RequireCashRegister())
	billingHandler := NewBillingHandler(deps.Drafts)
	drafts.Post("/", billingHandler.CreateDraft)
	drafts.Get("/:id", billingHandler.GetDraft)
	drafts.Delete("/:id", billingHandler.CancelDraft)
	drafts.Put("/:id/client", billingHandler.SetClient)
	drafts.Post("/:id/items", billingHandler.AddItem)
	drafts.Delete("/:id/items/:index", billingHandler.RemoveItem)
	drafts.Put("/:id/invoice-type", billingHandler.SetInvoiceType)
	drafts.Post("/:id/tenders", billingHandler.AddTender)
	drafts.Delete("/:id/tenders/:index", billingHandler.RemoveTender)
	drafts.Delete("/:id/external-payment", billingHandler.CancelExternalPayment)
	drafts.Post("/:id/commit", billingHandler.Commit)

	// Ventas confirmadas
	sales := protected.Group("/sales")
	saleHandler := NewSaleHandler(deps.Sales)
	sales.Get("/:id", saleHandler.GetByID)
	sales.Get("/:id/receipt", saleHandler.Receipt)
}
