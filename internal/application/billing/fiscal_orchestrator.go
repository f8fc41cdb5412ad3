package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/factusystem/factu-api/internal/domain/entity"
	"github.com/factusystem/factu-api/internal/domain/repository"
)

// Entornos AFIP.
const (
	FiscalEnvDev  = "dev"
	FiscalEnvHomo = "homo"
	FiscalEnvProd = "prod"
)

// FiscalOrchestrator pide el CAE de los comprobantes A, B y C:
//
//	venta PENDIENTE → FECAESolicitar → AUTORIZADO | RECHAZADO | ERROR
//
// Se ejecuta siempre en goroutine independiente (ProcessAsync) con su propio
// context.Background() + timeout 30 s, desacoplado del ciclo HTTP.
//
// Modos de operación (AFIP_ENV):
//   - "dev"  → no llama a AFIP; asigna un CAE simulado. Estado final: AUTORIZADO.
//   - "homo" → WSFE de homologación (wswhomo.afip.gov.ar).
//   - "prod" → WSFE de producción (servicios1.afip.gov.ar).
type FiscalOrchestrator struct {
	saleRepo   repository.SaleRepository
	authorizer FiscalAuthorizer // nil en dev
	env        string
	log        zerolog.Logger
	now        func() time.Time
}

// NewFiscalOrchestrator construye el orquestador. authorizer puede ser nil:
// en ese caso el modo dev es el único que funciona.
func NewFiscalOrchestrator(saleRepo repository.SaleRepository, authorizer FiscalAuthorizer, env string, log zerolog.Logger) *FiscalOrchestrator {
	return &FiscalOrchestrator{
		saleRepo:   saleRepo,
		authorizer: authorizer,
		env:        strings.ToLower(strings.TrimSpace(env)),
		log:        log.With().Str("component", "fiscal").Logger(),
		now:        time.Now,
	}
}

// ProcessAsync dispara la autorización en una goroutine independiente.
func (o *FiscalOrchestrator) ProcessAsync(saleID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		o.Process(ctx, saleID)
	}()
}

// Process es el núcleo síncrono. Siempre termina actualizando fiscal_status
// (AUTORIZADO, RECHAZADO o ERROR) salvo que la venta ya no esté pendiente.
func (o *FiscalOrchestrator) Process(ctx context.Context, saleID string) {
	log := o.log.With().Str("sale_id", saleID).Logger()

	// markError deja la venta en ERROR para reintento manual.
	markError := func(sale *entity.Sale, step, msg string) {
		sale.FiscalStatus = entity.FiscalStatusError
		sale.FiscalErrors = msg
		sale.UpdatedAt = o.now()
		if err := o.saleRepo.UpdateFiscal(ctx, sale); err != nil {
			log.Error().Err(err).Msg("no se pudo persistir ERROR")
		}
		log.Error().Str("step", step).Msg(msg)
	}

	// Re-fetch: la goroutine HTTP ya soltó la venta.
	sale, err := o.saleRepo.GetByID(ctx, saleID)
	if err != nil || sale == nil {
		log.Error().Err(err).Msg("venta no encontrada")
		return
	}
	if sale.FiscalStatus != entity.FiscalStatusPending {
		log.Warn().Str("status", sale.FiscalStatus).Msg("estado inesperado (ya procesada?), saltando")
		return
	}

	switch o.env {
	case FiscalEnvDev, "":
		expiry := o.now().AddDate(0, 0, 10)
		sale.AuthCode = devCAE(sale)
		sale.AuthCodeExpiry = &expiry
		sale.FiscalStatus = entity.FiscalStatusAuthorized
		log.Info().Str("cae", sale.AuthCode).Msg("[DEV] CAE simulado, no se envía a AFIP")

	case FiscalEnvHomo, FiscalEnvProd:
		if o.authorizer == nil {
			markError(sale, "wsfe", "autorizador AFIP no inyectado para entorno "+o.env)
			return
		}
		res, err := o.authorizer.Authorize(ctx, sale)
		if err != nil {
			markError(sale, "wsfe", err.Error())
			return
		}
		sale.FiscalErrors = res.Errors
		if res.Approved {
			expiry := res.CAEExpiry
			sale.AuthCode = res.CAE
			sale.AuthCodeExpiry = &expiry
			sale.FiscalStatus = entity.FiscalStatusAuthorized
			log.Info().Str("cae", res.CAE).Msg("comprobante autorizado por AFIP")
		} else {
			sale.FiscalStatus = entity.FiscalStatusRejected
			log.Warn().Str("errors", res.Errors).Msg("comprobante rechazado por AFIP")
		}

	default:
		markError(sale, "config", fmt.Sprintf("AFIP_ENV desconocido: %q (usar dev|homo|prod)", o.env))
		return
	}

	sale.UpdatedAt = o.now()
	if err := o.saleRepo.UpdateFiscal(ctx, sale); err != nil {
		log.Error().Err(err).Str("status", sale.FiscalStatus).Msg("error persistiendo estado final")
	}
}

// devCAE 14 dígitos derivados del punto de venta y el número.
func devCAE(sale *entity.Sale) string {
	return fmt.Sprintf("7%05d%08d", sale.PointOfSale%100000, sale.Number%100000000)
}
