package services

import (
	"net/http"
	"strconv"

	mW "github.com/novelnest/backend/internal/middleware"
	"github.com/novelnest/backend/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// WalletService exposes read-only views of the ledger.
type WalletService struct {
	ledger   *CoinLedger
	packages *CoinPackageStore
	log      *logrus.Entry
}

type BalanceResponse struct {
	CoinBalance     int64 `json:"coinBalance"`
	EarningsBalance int64 `json:"earningsBalance"`
}

type HistoryResponse struct {
	Transactions []models.LedgerEntry `json:"transactions"`
}

type PackagesResponse struct {
	Packages []models.CoinPackage `json:"packages"`
}

func NewWalletService(ledger *CoinLedger, packages *CoinPackageStore) *WalletService {
	return &WalletService{
		ledger:   ledger,
		packages: packages,
		log:      logrus.WithField("component", "wallet"),
	}
}

// GetBalance handles balance enquiry
// @Summary Get wallet balance
// @Tags wallet
// @Produce json
// @Security BearerAuth
// @Success 200 {object} BalanceResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /wallet/balance [get]
func (ws *WalletService) GetBalance(w http.ResponseWriter, r *http.Request) {
	session, ok := mW.SessionFrom(r.Context())
	if !ok || session.UserID == "" {
		WriteError(w, ws.log, newError(KindUnauthenticated, "Authentication is required."))
		return
	}

	account, err := ws.ledger.Balance(r.Context(), session.UserID)
	if err != nil {
		WriteError(w, ws.log.WithField("user_id", session.UserID), err)
		return
	}

	writeJSON(w, http.StatusOK, BalanceResponse{
		CoinBalance:     account.CoinBalance,
		EarningsBalance: account.EarningsBalance,
	})
}

// ListTransactions handles ledger history
// @Summary List coin transactions
// @Description Ledger entries for the caller, newest first
// @Tags wallet
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Number of entries (1-100)" default(20)
// @Success 200 {object} HistoryResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /wallet/transactions [get]
func (ws *WalletService) ListTransactions(w http.ResponseWriter, r *http.Request) {
	session, ok := mW.SessionFrom(r.Context())
	if !ok || session.UserID == "" {
		WriteError(w, ws.log, newError(KindUnauthenticated, "Authentication is required."))
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxHistoryLimit {
			WriteError(w, ws.log, newError(KindInvalidInput, "limit must be between 1 and 100."))
			return
		}
		limit = n
	}

	entries, err := ws.ledger.History(r.Context(), session.UserID, limit)
	if err != nil {
		WriteError(w, ws.log.WithField("user_id", session.UserID), err)
		return
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Transactions: entries})
}

// ListPackages handles the coin package catalogue
// @Summary List coin packages
// @Tags wallet
// @Produce json
// @Success 200 {object} PackagesResponse
// @Failure 500 {object} ErrorResponse
// @Router /coin-packages [get]
func (ws *WalletService) ListPackages(w http.ResponseWriter, r *http.Request) {
	packages, err := ws.packages.ListActive(r.Context())
	if err != nil {
		WriteError(w, ws.log, err)
		return
	}
	writeJSON(w, http.StatusOK, PackagesResponse{Packages: packages})
}
