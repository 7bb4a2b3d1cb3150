package prefs

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/lunateq/mnemo/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Resolver answers "which model should this request use" for a
// (guild, user) pair. The chain is user default, then guild default,
// then the process-wide fallback.
type Resolver struct {
	DB       *gorm.DB
	Fallback string

	Log *slog.Logger
}

func NewResolver(gdb *gorm.DB, fallback string) *Resolver {
	return &Resolver{DB: gdb, Fallback: fallback}
}

// ResolveModel never fails: store errors are logged and resolution falls
// through to the next link in the chain.
func (r *Resolver) ResolveModel(ctx context.Context, guildID, userID string) string {
	if r == nil {
		return ""
	}
	if m, ok := r.userModel(ctx, userID); ok {
		return m
	}
	if m, ok := r.guildModel(ctx, guildID); ok {
		return m
	}
	return r.Fallback
}

func (r *Resolver) SetGuildModel(ctx context.Context, guildID, model string) error {
	guildID = strings.TrimSpace(guildID)
	if guildID == "" {
		return errors.New("empty guild id")
	}
	model = strings.TrimSpace(model)
	now := time.Now().Unix()
	row := models.Guild{ID: guildID, DefaultModel: &model, CreatedAt: now, UpdatedAt: now}
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"default_model": model,
				"updated_at":    now,
			}),
		}).
		Create(&row).Error
}

func (r *Resolver) SetUserModel(ctx context.Context, userID, model string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return errors.New("empty user id")
	}
	model = strings.TrimSpace(model)
	now := time.Now().Unix()
	row := models.User{ID: userID, DefaultModel: &model, CreatedAt: now, UpdatedAt: now}
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"default_model": model,
				"updated_at":    now,
			}),
		}).
		Create(&row).Error
}

func (r *Resolver) userModel(ctx context.Context, userID string) (string, bool) {
	userID = strings.TrimSpace(userID)
	if userID == "" || r.DB == nil {
		return "", false
	}
	var row models.User
	err := r.DB.WithContext(ctx).Where("id = ?", userID).First(&row).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			r.logger().Warn("prefs_user_lookup_failed", "user_id", userID, "error", err.Error())
		}
		return "", false
	}
	if row.DefaultModel == nil || strings.TrimSpace(*row.DefaultModel) == "" {
		return "", false
	}
	return strings.TrimSpace(*row.DefaultModel), true
}

func (r *Resolver) guildModel(ctx context.Context, guildID string) (string, bool) {
	guildID = strings.TrimSpace(guildID)
	if guildID == "" || r.DB == nil {
		return "", false
	}
	var row models.Guild
	err := r.DB.WithContext(ctx).Where("id = ?", guildID).First(&row).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			r.logger().Warn("prefs_guild_lookup_failed", "guild_id", guildID, "error", err.Error())
		}
		return "", false
	}
	if row.DefaultModel == nil || strings.TrimSpace(*row.DefaultModel) == "" {
		return "", false
	}
	return strings.TrimSpace(*row.DefaultModel), true
}

func (r *Resolver) logger() *slog.Logger {
	if r.Log != nil {
		return r.Log
	}
	return slog.Default()
}
