package audit

import (
	"github.com/sirupsen/logrus"
)

// Event types
const (
	EventUnlock         = "UNLOCK"
	EventEarnings       = "EARNINGS"
	EventPurchaseCredit = "PURCHASE_CREDIT"
	EventError          = "ERROR"
)

// Logger writes the ledger audit trail. Every committed balance change
// produces exactly one event.
type Logger struct {
	log *logrus.Entry
}

func NewLogger(base *logrus.Logger) *Logger {
	if base == nil {
		base = logrus.StandardLogger()
	}
	return &Logger{log: base.WithField("component", "audit")}
}

// LogUnlock records a reader spending coins on a chapter.
func (a *Logger) LogUnlock(chapterID, readerID string, coins int64, newBalance int64) {
	a.log.WithFields(logrus.Fields{
		"event_type":  EventUnlock,
		"reference":   chapterID,
		"account_id":  readerID,
		"amount":      -coins,
		"new_balance": newBalance,
		"status":      "SUCCESS",
	}).Info("chapter unlocked")
}

// LogEarnings records an author being credited for an unlock.
func (a *Logger) LogEarnings(chapterID, authorID string, coins int64) {
	a.log.WithFields(logrus.Fields{
		"event_type": EventEarnings,
		"reference":  chapterID,
		"account_id": authorID,
		"amount":     coins,
		"status":     "SUCCESS",
	}).Info("author credited")
}

// LogPurchaseCredit records a confirmed coin purchase.
func (a *Logger) LogPurchaseCredit(reference, userID string, coins int64) {
	a.log.WithFields(logrus.Fields{
		"event_type": EventPurchaseCredit,
		"reference":  reference,
		"account_id": userID,
		"amount":     coins,
		"status":     "SUCCESS",
	}).Info("purchase credited")
}

func (a *Logger) LogError(reference, accountID string, err error) {
	a.log.WithFields(logrus.Fields{
		"event_type": EventError,
		"reference":  reference,
		"account_id": accountID,
		"status":     "FAILED",
	}).WithError(err).Error("ledger operation failed")
}
