package services

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/novelnest/backend/internal/config"
	"github.com/novelnest/backend/internal/metrics"
	mW "github.com/novelnest/backend/internal/middleware"
	"github.com/novelnest/backend/internal/models"
	"github.com/novelnest/backend/internal/paystack"
	"github.com/sirupsen/logrus"
)

// Webhook outcomes, used as metric labels
const (
	webhookProcessed        = "processed"
	webhookAlreadyProcessed = "already_processed"
	webhookIgnored          = "ignored"
	webhookRejected         = "rejected"
	webhookFailed           = "failed"
)

// PaymentService starts coin purchases and reconciles them from Paystack webhooks.
type PaymentService struct {
	db        *sql.DB
	ledger    *CoinLedger
	packages  *CoinPackageStore
	gateway   paystack.Gateway
	cfg       *config.PaystackConfig
	prefix    string
	validator *ValidationHelper
	log       *logrus.Entry
}

// InitializeRequest is the body of POST /paystack/initialize-transaction
type InitializeRequest struct {
	PackageID string `json:"packageId" validate:"required,uuid"`
}

// InitializeResponse carries the checkout URL the client redirects to.
type InitializeResponse struct {
	AuthorizationURL string `json:"authorization_url"`
}

func NewPaymentService(db *sql.DB, ledger *CoinLedger, packages *CoinPackageStore, gateway paystack.Gateway, cfg *config.PaystackConfig, referencePrefix string) *PaymentService {
	return &PaymentService{
		db:        db,
		ledger:    ledger,
		packages:  packages,
		gateway:   gateway,
		cfg:       cfg,
		prefix:    referencePrefix,
		validator: NewValidationHelper(),
		log:       logrus.WithField("component", "payments"),
	}
}

// NewReference returns a fresh purchase reference.
func (ps *PaymentService) NewReference() string {
	return ps.prefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// InitializeTransaction handles purchase initialization
// @Summary Start a coin purchase
// @Description Records a pending purchase for the package and returns the Paystack checkout URL
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body InitializeRequest true "Package to buy"
// @Success 200 {object} InitializeResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /paystack/initialize-transaction [post]
func (ps *PaymentService) InitializeTransaction(w http.ResponseWriter, r *http.Request) {
	session, ok := mW.SessionFrom(r.Context())
	if !ok || session.UserID == "" || session.Email == "" {
		WriteError(w, ps.log, newError(KindUnauthenticated, "Authentication is required to make a purchase."))
		return
	}
	log := ps.log.WithField("user_id", session.UserID)

	var req InitializeRequest
	if err := ps.validator.decodeBody(w, r, &req, "A valid package ID is required."); err != nil {
		WriteError(w, log, err)
		return
	}

	if ps.cfg == nil || ps.cfg.SecretKey == "" {
		WriteError(w, log, wrapError(KindPersistenceFailure, "Payment provider configuration error.",
			errors.New("paystack secret key is not configured")))
		return
	}

	pkg, err := ps.packages.GetActive(r.Context(), req.PackageID)
	if err != nil {
		WriteError(w, log, err)
		return
	}

	reference := ps.NewReference()
	log = log.WithField("reference", reference)

	if _, err := ps.db.ExecContext(r.Context(), `
		INSERT INTO transactions (user_id, package_id, amount, currency, coins_amount, status, reference)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		session.UserID, pkg.ID, pkg.Price, pkg.Currency, pkg.CoinsAmount, models.PurchaseStatusPending, reference); err != nil {
		WriteError(w, log, wrapError(KindPersistenceFailure, "Failed to record transaction.", err))
		return
	}

	result, err := ps.gateway.Initialize(r.Context(), paystack.InitializeRequest{
		Email:       session.Email,
		Amount:      pkg.MinorUnits(),
		Currency:    pkg.Currency,
		Reference:   reference,
		CallbackURL: ps.cfg.CallbackURL,
		Metadata: paystack.Metadata{
			UserID:            session.UserID,
			PackageID:         pkg.ID,
			CoinsToBeCredited: pkg.CoinsAmount,
			CustomFields: []paystack.CustomField{
				{DisplayName: "User ID", VariableName: "user_id", Value: session.UserID},
			},
		},
	})
	if err != nil {
		ps.markFailed(reference, log)
		WriteError(w, log, wrapError(KindUpstreamFailure, "Failed to initialize payment with the provider.", err))
		return
	}

	log.WithField("package_id", pkg.ID).Info("purchase initialized")
	writeJSON(w, http.StatusOK, InitializeResponse{AuthorizationURL: result.AuthorizationURL})
}

// markFailed runs detached from the request so a cancelled client does not
// leave the purchase pending.
func (ps *PaymentService) markFailed(reference string, log *logrus.Entry) {
	timeout := ps.cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if _, err := ps.db.ExecContext(ctx, `
		UPDATE transactions SET status = $1, updated_at = now()
		WHERE reference = $2 AND status = $3`,
		models.PurchaseStatusFailed, reference, models.PurchaseStatusPending); err != nil {
		log.WithError(err).Error("failed to mark purchase as failed")
	}
}

// Webhook handles Paystack event deliveries
// @Summary Paystack webhook
// @Description Verifies the x-paystack-signature header and credits coins for charge.success events exactly once
// @Tags payments
// @Accept json
// @Produce plain
// @Param x-paystack-signature header string true "HMAC-SHA512 of the raw body"
// @Success 200 {string} string
// @Failure 400 {string} string
// @Failure 401 {string} string
// @Failure 404 {string} string
// @Failure 500 {string} string
// @Router /paystack/webhook [post]
func (ps *PaymentService) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		ps.replyError(w, ps.log, webhookRejected, newError(KindInvalidInput, "Signature or body missing."))
		return
	}
	signature := r.Header.Get(paystack.SignatureHeader)
	if signature == "" || len(body) == 0 {
		ps.replyError(w, ps.log, webhookRejected, newError(KindInvalidInput, "Signature or body missing."))
		return
	}

	secret := ""
	if ps.cfg != nil {
		secret = ps.cfg.SecretKey
	}
	if !paystack.VerifySignature(secret, body, signature) {
		ps.replyError(w, ps.log, webhookRejected, newError(KindSignatureInvalid, "Invalid signature."))
		return
	}

	event, err := paystack.ParseEvent(body)
	if err != nil {
		ps.replyError(w, ps.log, webhookRejected, wrapError(KindInvalidInput, "Payload missing required data.", err))
		return
	}
	log := ps.log.WithField("event", event.Event)

	if event.Event != paystack.EventChargeSuccess {
		ps.reply(w, http.StatusOK, webhookIgnored, "Event received but not processed.")
		return
	}

	charge, err := event.Charge()
	if err != nil || charge.Status != "success" || charge.Reference == "" ||
		charge.Metadata.UserID == "" || charge.Metadata.CoinsToBeCredited <= 0 {
		ps.replyError(w, log, webhookRejected, wrapError(KindInvalidInput, "Payload missing required data.", err))
		return
	}
	log = log.WithFields(logrus.Fields{"reference": charge.Reference, "user_id": charge.Metadata.UserID})

	result, err := ps.ledger.SettlePurchase(r.Context(), charge.Reference, charge.Metadata.UserID)
	if err != nil {
		if IsKind(err, KindNotFound) {
			log.Warn("webhook for a transaction this service never initialized")
		}
		outcome := webhookRejected
		if KindOf(err).internal() {
			outcome = webhookFailed
		}
		ps.replyError(w, log, outcome, err)
		return
	}

	if result.Status == SettlementStatusAlreadyProcessed {
		ps.reply(w, http.StatusOK, webhookAlreadyProcessed, "Transaction already processed.")
		return
	}

	metrics.RecordPurchaseCredit(result.Coins)
	log.WithField("coins", result.Coins).Info("purchase settled")
	ps.reply(w, http.StatusOK, webhookProcessed, "Webhook processed successfully.")
}

func (ps *PaymentService) reply(w http.ResponseWriter, status int, outcome, message string) {
	metrics.RecordWebhook(outcome)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	io.WriteString(w, message)
}

// replyError is the webhook's counterpart of WriteError: the provider only
// gets a status code and a short string.
func (ps *PaymentService) replyError(w http.ResponseWriter, log *logrus.Entry, outcome string, err error) {
	kind := KindOf(err)
	message := "Webhook processing failed."

	var appErr *AppError
	if errors.As(err, &appErr) && !kind.internal() {
		message = appErr.Message
	}

	if kind.internal() {
		log.WithError(err).Error("webhook processing failed")
	} else {
		log.WithField("kind", kind.String()).Info(message)
	}
	ps.reply(w, kind.StatusCode(), outcome, message)
}
