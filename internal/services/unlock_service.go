package services

import (
	"net/http"

	"github.com/novelnest/backend/internal/metrics"
	mW "github.com/novelnest/backend/internal/middleware"
	"github.com/sirupsen/logrus"
)

// UnlockService serves chapter unlock requests on top of the coin ledger.
type UnlockService struct {
	ledger    *CoinLedger
	validator *ValidationHelper
	log       *logrus.Entry
}

// UnlockRequest is the body of POST /chapters/unlock
type UnlockRequest struct {
	ChapterID string `json:"chapterId" validate:"required,uuid"`
}

// UnlockResponse is returned for every successful unlock request, including
// repeats of an earlier one.
type UnlockResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message,omitempty"`
	NewBalance *int64 `json:"newBalance,omitempty"`
}

func NewUnlockService(ledger *CoinLedger) *UnlockService {
	return &UnlockService{
		ledger:    ledger,
		validator: NewValidationHelper(),
		log:       logrus.WithField("component", "unlock"),
	}
}

// UnlockChapter handles chapter unlock
// @Summary Unlock a chapter
// @Description Spend coins to unlock a locked chapter. Repeating the request never charges twice.
// @Tags chapters
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UnlockRequest true "Chapter to unlock"
// @Success 200 {object} UnlockResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 402 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /chapters/unlock [post]
func (us *UnlockService) UnlockChapter(w http.ResponseWriter, r *http.Request) {
	session, ok := mW.SessionFrom(r.Context())
	if !ok || session.UserID == "" {
		WriteError(w, us.log, newError(KindUnauthenticated, "Authentication is required."))
		return
	}
	log := us.log.WithField("user_id", session.UserID)

	var req UnlockRequest
	if err := us.validator.decodeBody(w, r, &req, "A valid chapter ID is required."); err != nil {
		WriteError(w, log, err)
		return
	}
	log = log.WithField("chapter_id", req.ChapterID)

	unlocked, err := us.ledger.HasUnlocked(r.Context(), session.UserID, req.ChapterID)
	if err != nil {
		WriteError(w, log, err)
		return
	}
	if unlocked {
		metrics.RecordUnlock(UnlockStatusAlreadyUnlocked, 0)
		writeJSON(w, http.StatusOK, UnlockResponse{Success: true, Message: "Chapter already unlocked."})
		return
	}

	result, err := us.ledger.UnlockChapterAndSettle(r.Context(), session.UserID, req.ChapterID)
	if err != nil {
		metrics.RecordUnlock(KindOf(err).String(), 0)
		WriteError(w, log, err)
		return
	}
	metrics.RecordUnlock(result.Status, result.CoinsSpent)

	resp := UnlockResponse{Success: true}
	switch result.Status {
	case UnlockStatusSettled:
		resp.Message = "Chapter unlocked successfully."
		resp.NewBalance = &result.NewBalance
	case UnlockStatusAlreadyUnlocked:
		resp.Message = "Chapter already unlocked."
	case UnlockStatusFree:
		resp.Message = "This chapter is free to read."
	case UnlockStatusOwner:
		resp.Message = "Authors can always read their own chapters."
	}

	log.WithFields(logrus.Fields{
		"status":      result.Status,
		"coins_spent": result.CoinsSpent,
	}).Info("unlock request completed")

	writeJSON(w, http.StatusOK, resp)
}
