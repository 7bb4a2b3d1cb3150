// Package memory keeps a per-user conversation log that is replayed into
// future model requests. The log is keyed by user only: a user who talks to
// the bot in two different guilds continues the same conversation. That is
// a product decision, not an accident of the schema.
package memory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lunateq/mnemo/db/models"
	"gorm.io/gorm"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Turn struct {
	Role    string
	Content string
}

// Stats summarizes a user's ledger. First and Last are unix seconds of the
// oldest and newest turns; both are nil when the ledger is empty.
type Stats struct {
	Count int64
	First *int64
	Last  *int64
}

type Ledger struct {
	DB *gorm.DB
}

func NewLedger(gdb *gorm.DB) *Ledger {
	return &Ledger{DB: gdb}
}

// Append records one turn. It is a pure insert and only fails when the
// store itself does.
func (l *Ledger) Append(ctx context.Context, userID, role, content string, model *string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return errors.New("empty user id")
	}
	if role != RoleUser && role != RoleAssistant {
		return errors.New("role must be user or assistant")
	}
	row := models.MemoryMessage{
		UserID:    userID,
		Role:      role,
		Content:   content,
		Model:     model,
		CreatedAt: time.Now().Unix(),
	}
	return l.DB.WithContext(ctx).Create(&row).Error
}

// History returns the most recent `limit` turns in chronological order.
// The rows are selected by a reverse-chronological scan and then reversed:
// callers replay the slice verbatim as prior turns of a new request, so
// oldest-first ordering matters.
func (l *Ledger) History(ctx context.Context, userID string, limit int) ([]Turn, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	var rows []models.MemoryMessage
	err := l.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]Turn, len(rows))
	for i, row := range rows {
		out[len(rows)-1-i] = Turn{Role: row.Role, Content: row.Content}
	}
	return out, nil
}

// Clear deletes every turn for the user and reports how many were removed.
func (l *Ledger) Clear(ctx context.Context, userID string) (int64, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, nil
	}
	res := l.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.MemoryMessage{})
	return res.RowsAffected, res.Error
}

func (l *Ledger) Stats(ctx context.Context, userID string) (Stats, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Stats{}, nil
	}

	var agg struct {
		Count int64
		First *int64
		Last  *int64
	}
	err := l.DB.WithContext(ctx).
		Model(&models.MemoryMessage{}).
		Select("COUNT(*) AS count, MIN(created_at) AS first, MAX(created_at) AS last").
		Where("user_id = ?", userID).
		Scan(&agg).Error
	if err != nil {
		return Stats{}, err
	}
	if agg.Count == 0 {
		return Stats{}, nil
	}
	return Stats{Count: agg.Count, First: agg.First, Last: agg.Last}, nil
}
