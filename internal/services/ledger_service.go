package services

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/lib/pq"
	"github.com/novelnest/backend/internal/audit"
	"github.com/novelnest/backend/internal/models"
)

// Unlock outcomes
const (
	UnlockStatusSettled         = "settled"
	UnlockStatusAlreadyUnlocked = "already_unlocked"
	UnlockStatusFree            = "free"
	UnlockStatusOwner           = "owner"
)

// Settlement outcomes
const (
	SettlementStatusCredited         = "credited"
	SettlementStatusAlreadyProcessed = "already_processed"
)

// postgres SQLSTATE for a violated CHECK constraint
const pqCheckViolation = "23514"

// UnlockResult describes a finished unlock. Only UnlockStatusSettled moved coins.
type UnlockResult struct {
	Status     string    `json:"status"`
	ChapterID  string    `json:"chapterId"`
	CoinsSpent int64     `json:"coinsSpent"`
	NewBalance int64     `json:"newBalance"`
	UnlockedAt time.Time `json:"unlockedAt"`
}

// SettlementResult describes a finished purchase reconciliation.
type SettlementResult struct {
	Status     string `json:"status"`
	Reference  string `json:"reference"`
	UserID     string `json:"userId"`
	Coins      int64  `json:"coins"`
	NewBalance int64  `json:"newBalance"`
}

// CoinLedger owns every balance mutation. Each public operation runs in one
// database transaction and either commits all of its effects or none.
type CoinLedger struct {
	db         *sql.DB
	audit      *audit.Logger
	payoutRate float64
}

func NewCoinLedger(db *sql.DB, auditLogger *audit.Logger, payoutRate float64) *CoinLedger {
	if auditLogger == nil {
		auditLogger = audit.NewLogger(nil)
	}
	return &CoinLedger{
		db:         db,
		audit:      auditLogger,
		payoutRate: payoutRate,
	}
}

// AuthorShare is the part of cost credited to the chapter's author.
func (l *CoinLedger) AuthorShare(cost int64) int64 {
	if cost <= 0 || l.payoutRate <= 0 {
		return 0
	}
	return int64(math.Floor(float64(cost) * l.payoutRate))
}

// HasUnlocked reports whether the reader already owns an unlock for the chapter.
func (l *CoinLedger) HasUnlocked(ctx context.Context, readerID, chapterID string) (bool, error) {
	var exists bool
	err := l.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM unlocked_chapters WHERE user_id = $1 AND chapter_id = $2)`,
		readerID, chapterID).Scan(&exists)
	if err != nil {
		return false, wrapError(KindPersistenceFailure, "Failed to check chapter access.", err)
	}
	return exists, nil
}

// UnlockChapterAndSettle debits the reader, credits the author and records
// the unlock as one unit. A second call for the same pair is a no-op.
func (l *CoinLedger) UnlockChapterAndSettle(ctx context.Context, readerID, chapterID string) (*UnlockResult, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrapError(KindPersistenceFailure, "Failed to unlock chapter.", err)
	}
	defer tx.Rollback()

	chapter, err := l.loadChapter(ctx, tx, chapterID)
	if err != nil {
		return nil, err
	}

	result := &UnlockResult{ChapterID: chapterID}
	if !chapter.IsLocked {
		result.Status = UnlockStatusFree
		return result, nil
	}
	if chapter.AuthorID == readerID {
		result.Status = UnlockStatusOwner
		return result, nil
	}
	if chapter.CoinCost == nil {
		return nil, newError(KindInvalidInput, "This chapter has no coin cost set.")
	}
	cost := *chapter.CoinCost

	accounts, err := l.lockAccounts(ctx, tx, readerID, chapter.AuthorID)
	if err != nil {
		return nil, err
	}
	reader := accounts[readerID]

	unlockedAt, inserted, err := l.insertUnlock(ctx, tx, readerID, chapterID)
	if err != nil {
		return nil, err
	}
	if !inserted {
		result.Status = UnlockStatusAlreadyUnlocked
		result.NewBalance = reader.CoinBalance
		return result, nil
	}

	if reader.CoinBalance < cost {
		return nil, newError(KindInsufficientFunds, "Insufficient coin balance.")
	}

	if cost > 0 {
		if err := l.debit(ctx, tx, readerID, cost); err != nil {
			return nil, err
		}
		if err := l.createLedgerEntry(ctx, tx, readerID, -cost, models.EntryTypeSpend, chapterID); err != nil {
			return nil, err
		}
	}

	earnings := l.AuthorShare(cost)
	if earnings > 0 {
		if err := l.creditEarnings(ctx, tx, chapter.AuthorID, earnings); err != nil {
			return nil, err
		}
		if err := l.createLedgerEntry(ctx, tx, chapter.AuthorID, earnings, models.EntryTypePurchase, chapterID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		l.audit.LogError(chapterID, readerID, err)
		return nil, wrapError(KindPersistenceFailure, "Failed to unlock chapter.", err)
	}

	l.audit.LogUnlock(chapterID, readerID, cost, reader.CoinBalance-cost)
	if earnings > 0 {
		l.audit.LogEarnings(chapterID, chapter.AuthorID, earnings)
	}

	result.Status = UnlockStatusSettled
	result.CoinsSpent = cost
	result.NewBalance = reader.CoinBalance - cost
	result.UnlockedAt = unlockedAt
	return result, nil
}

// CreditPurchase adds coins to a user's balance and appends the purchase
// entry. It only runs inside a transaction owned by the caller, which is
// responsible for calling it at most once per purchase reference.
func (l *CoinLedger) CreditPurchase(ctx context.Context, tx *sql.Tx, userID string, coins int64, reference string) (int64, error) {
	if coins <= 0 {
		return 0, newError(KindInvalidInput, "Coins to credit must be positive.")
	}

	var newBalance int64
	err := tx.QueryRowContext(ctx, `
		UPDATE profiles SET coin_balance = coin_balance + $1
		WHERE id = $2
		RETURNING coin_balance`, coins, userID).Scan(&newBalance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, newError(KindNotFound, "Account not found.")
	}
	if err != nil {
		return 0, wrapError(KindPersistenceFailure, "Failed to credit coins.", err)
	}

	if err := l.createLedgerEntry(ctx, tx, userID, coins, models.EntryTypePurchase, reference); err != nil {
		return 0, err
	}
	return newBalance, nil
}

// SettlePurchase finalizes a pending purchase: the status flip, the credit and
// the confirmation notice commit together. A reference already marked
// successful is reported as such and nothing is written. payerID, when set,
// must match the purchase owner.
func (l *CoinLedger) SettlePurchase(ctx context.Context, reference, payerID string) (*SettlementResult, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrapError(KindPersistenceFailure, "Failed to settle purchase.", err)
	}
	defer tx.Rollback()

	var purchase models.PendingPurchase
	err = tx.QueryRowContext(ctx, `
		SELECT id, user_id, coins_amount, status
		FROM transactions
		WHERE reference = $1
		FOR UPDATE`, reference).Scan(&purchase.ID, &purchase.UserID, &purchase.CoinsAmount, &purchase.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, newError(KindNotFound, "Transaction not found.")
	}
	if err != nil {
		return nil, wrapError(KindPersistenceFailure, "Failed to settle purchase.", err)
	}

	result := &SettlementResult{Reference: reference, UserID: purchase.UserID, Coins: purchase.CoinsAmount}

	if payerID != "" && payerID != purchase.UserID {
		return nil, newError(KindInvalidInput, "Purchaser does not match transaction.")
	}

	if purchase.Status == models.PurchaseStatusSuccessful {
		result.Status = SettlementStatusAlreadyProcessed
		return result, nil
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE transactions SET status = $1, updated_at = now()
		WHERE id = $2`, models.PurchaseStatusSuccessful, purchase.ID); err != nil {
		return nil, wrapError(KindPersistenceFailure, "Failed to update transaction status.", err)
	}

	newBalance, err := l.CreditPurchase(ctx, tx, purchase.UserID, purchase.CoinsAmount, reference)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO notifications (user_id, type, message)
		VALUES ($1, $2, $3)`,
		purchase.UserID, models.NotificationCoinPurchaseConfirmed, purchaseMessage(purchase.CoinsAmount)); err != nil {
		return nil, wrapError(KindPersistenceFailure, "Failed to record notification.", err)
	}

	if err := tx.Commit(); err != nil {
		l.audit.LogError(reference, purchase.UserID, err)
		return nil, wrapError(KindPersistenceFailure, "Failed to settle purchase.", err)
	}

	l.audit.LogPurchaseCredit(reference, purchase.UserID, purchase.CoinsAmount)

	result.Status = SettlementStatusCredited
	result.NewBalance = newBalance
	return result, nil
}

// Balance returns the user's current coin and earnings balances.
func (l *CoinLedger) Balance(ctx context.Context, userID string) (*models.Account, error) {
	var account models.Account
	err := l.db.QueryRowContext(ctx, `
		SELECT id, coin_balance, earnings_balance FROM profiles WHERE id = $1`,
		userID).Scan(&account.ID, &account.CoinBalance, &account.EarningsBalance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, newError(KindNotFound, "Account not found.")
	}
	if err != nil {
		return nil, wrapError(KindPersistenceFailure, "Failed to fetch balance.", err)
	}
	return &account, nil
}

// History returns the user's ledger entries, newest first.
func (l *CoinLedger) History(ctx context.Context, userID string, limit int) ([]models.LedgerEntry, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, user_id, amount, type, related_entity_id, created_at
		FROM coin_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, wrapError(KindPersistenceFailure, "Failed to fetch transactions.", err)
	}
	defer rows.Close()

	entries := []models.LedgerEntry{}
	for rows.Next() {
		var e models.LedgerEntry
		var related sql.NullString
		if err := rows.Scan(&e.ID, &e.UserID, &e.Amount, &e.Type, &related, &e.CreatedAt); err != nil {
			return nil, wrapError(KindPersistenceFailure, "Failed to fetch transactions.", err)
		}
		if related.Valid {
			e.RelatedEntityID = &related.String
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(KindPersistenceFailure, "Failed to fetch transactions.", err)
	}
	return entries, nil
}

func (l *CoinLedger) loadChapter(ctx context.Context, tx *sql.Tx, chapterID string) (*models.Chapter, error) {
	var chapter models.Chapter
	var cost sql.NullInt64
	err := tx.QueryRowContext(ctx, `
		SELECT c.id, c.book_id, b.author_id, c.is_locked, c.coin_cost
		FROM chapters c
		JOIN books b ON b.id = c.book_id
		WHERE c.id = $1`, chapterID).Scan(&chapter.ID, &chapter.BookID, &chapter.AuthorID, &chapter.IsLocked, &cost)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, newError(KindNotFound, "Chapter not found.")
	}
	if err != nil {
		return nil, wrapError(KindPersistenceFailure, "Failed to load chapter.", err)
	}
	if cost.Valid {
		chapter.CoinCost = &cost.Int64
	}
	return &chapter, nil
}

// lockAccounts takes row locks on the given profiles in a consistent order
// to prevent deadlocks between readers unlocking each other's chapters.
func (l *CoinLedger) lockAccounts(ctx context.Context, tx *sql.Tx, readerID, authorID string) (map[string]*models.Account, error) {
	ids := []string{readerID, authorID}
	sort.Strings(ids)

	accounts := make(map[string]*models.Account, 2)
	for _, id := range ids {
		account, err := l.lockAccount(ctx, tx, id)
		if errors.Is(err, sql.ErrNoRows) {
			if id == readerID {
				return nil, newError(KindNotFound, "Reader account not found.")
			}
			return nil, wrapError(KindPersistenceFailure, "Failed to unlock chapter.", errors.New("author profile missing for chapter"))
		}
		if err != nil {
			return nil, wrapError(KindPersistenceFailure, "Failed to unlock chapter.", err)
		}
		accounts[id] = account
	}
	return accounts, nil
}

func (l *CoinLedger) lockAccount(ctx context.Context, tx *sql.Tx, accountID string) (*models.Account, error) {
	var account models.Account
	err := tx.QueryRowContext(ctx, `
		SELECT id, coin_balance, earnings_balance
		FROM profiles
		WHERE id = $1
		FOR UPDATE`, accountID).Scan(&account.ID, &account.CoinBalance, &account.EarningsBalance)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// insertUnlock relies on the (user_id, chapter_id) unique constraint; a
// conflicting row means the chapter was already unlocked.
func (l *CoinLedger) insertUnlock(ctx context.Context, tx *sql.Tx, readerID, chapterID string) (time.Time, bool, error) {
	var unlockedAt time.Time
	err := tx.QueryRowContext(ctx, `
		INSERT INTO unlocked_chapters (user_id, chapter_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, chapter_id) DO NOTHING
		RETURNING unlocked_at`, readerID, chapterID).Scan(&unlockedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, wrapError(KindPersistenceFailure, "Failed to record unlock.", err)
	}
	return unlockedAt, true, nil
}

func (l *CoinLedger) debit(ctx context.Context, tx *sql.Tx, accountID string, amount int64) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE profiles SET coin_balance = coin_balance - $1
		WHERE id = $2 AND coin_balance >= $1`, amount, accountID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqCheckViolation {
			return newError(KindInsufficientFunds, "Insufficient coin balance.")
		}
		return wrapError(KindPersistenceFailure, "Failed to debit coins.", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return wrapError(KindPersistenceFailure, "Failed to debit coins.", err)
	}
	if rowsAffected == 0 {
		return newError(KindInsufficientFunds, "Insufficient coin balance.")
	}
	return nil
}

func (l *CoinLedger) creditEarnings(ctx context.Context, tx *sql.Tx, accountID string, amount int64) error {
	if _, err := tx.ExecContext(ctx, `
		UPDATE profiles SET earnings_balance = earnings_balance + $1
		WHERE id = $2`, amount, accountID); err != nil {
		return wrapError(KindPersistenceFailure, "Failed to credit author earnings.", err)
	}
	return nil
}

func (l *CoinLedger) createLedgerEntry(ctx context.Context, tx *sql.Tx, userID string, amount int64, entryType, relatedEntityID string) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO coin_transactions (user_id, amount, type, related_entity_id)
		VALUES ($1, $2, $3, $4)`,
		userID, amount, entryType, relatedEntityID); err != nil {
		return wrapError(KindPersistenceFailure, "Failed to write ledger entry.", err)
	}
	return nil
}

func purchaseMessage(coins int64) string {
	if coins == 1 {
		return "Your purchase of 1 coin was successful."
	}
	return "Your purchase of " + strconv.FormatInt(coins, 10) + " coins was successful."
}
