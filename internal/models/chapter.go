package models

import "time"

// Chapter is the subset of a chapter row the ledger needs
type Chapter struct {
	ID       string `json:"id" db:"id"`
	BookID   string `json:"bookId" db:"book_id"`
	AuthorID string `json:"authorId" db:"author_id"`
	IsLocked bool   `json:"isLocked" db:"is_locked"`
	CoinCost *int64 `json:"coinCost" db:"coin_cost"` // 0-10, nil when the author never priced it
}

// UnlockRecord grants a reader access to a locked chapter
type UnlockRecord struct {
	ID         string    `json:"id" db:"id"`
	UserID     string    `json:"userId" db:"user_id"`
	ChapterID  string    `json:"chapterId" db:"chapter_id"`
	UnlockedAt time.Time `json:"unlockedAt" db:"unlocked_at"`
}
