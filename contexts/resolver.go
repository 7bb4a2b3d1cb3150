// Package contexts manages named blocks of reference text that users attach
// to prompts. A context lives in one of two scopes: server-shared (all
// members of a guild see it) or user-personal (only its owner sees it).
// Names are unique per scope, and a personal context shadows a server
// context with the same name on lookup.
package contexts

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lunateq/mnemo/db/models"
	"gorm.io/gorm"
)

// ErrDuplicateName is returned by Add when the (guild, scope, name) triple
// already holds a context. Callers present it as an actionable conflict,
// not a generic failure.
var ErrDuplicateName = errors.New("context name already exists in this scope")

type Item struct {
	Name           string
	Content        string
	SourceFilename string
	FileType       string
	Personal       bool
	CreatedAt      int64
}

type Resolver struct {
	DB *gorm.DB
}

func NewResolver(gdb *gorm.DB) *Resolver {
	return &Resolver{DB: gdb}
}

// Add inserts a context into the given scope. An empty userID means the
// server scope. Uniqueness is enforced by the store's index, so two
// concurrent Adds for the same name yield exactly one ErrDuplicateName.
func (r *Resolver) Add(ctx context.Context, guildID, userID, name, content, sourceFilename, fileType string) error {
	guildID = strings.TrimSpace(guildID)
	name = strings.TrimSpace(name)
	if guildID == "" {
		return errors.New("empty guild id")
	}
	if name == "" {
		return errors.New("empty context name")
	}

	row := models.Context{
		GuildID:        guildID,
		UserID:         strings.TrimSpace(userID),
		Name:           name,
		Content:        content,
		SourceFilename: sourceFilename,
		FileType:       fileType,
		CreatedAt:      time.Now().Unix(),
	}
	err := r.DB.WithContext(ctx).Create(&row).Error
	if err != nil && isUniqueViolation(err) {
		return ErrDuplicateName
	}
	return err
}

// Get looks the name up in the caller's personal scope first and falls back
// to the server scope. The fallback is what lets a personal context shadow
// a server-wide one without deleting it.
func (r *Resolver) Get(ctx context.Context, guildID, userID, name string) (Item, bool, error) {
	guildID = strings.TrimSpace(guildID)
	userID = strings.TrimSpace(userID)
	name = strings.TrimSpace(name)
	if guildID == "" || name == "" {
		return Item{}, false, nil
	}

	if userID != "" {
		it, ok, err := r.getScoped(ctx, guildID, userID, name)
		if err != nil || ok {
			return it, ok, err
		}
	}
	return r.getScoped(ctx, guildID, "", name)
}

// List returns the contexts of exactly one scope, most recent first. It
// never merges personal and server lists; callers that want a merged view
// de-duplicate by name themselves.
func (r *Resolver) List(ctx context.Context, guildID, userID string) ([]Item, error) {
	guildID = strings.TrimSpace(guildID)
	if guildID == "" {
		return nil, nil
	}

	var rows []models.Context
	err := r.DB.WithContext(ctx).
		Where("guild_id = ? AND user_id = ?", guildID, strings.TrimSpace(userID)).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]Item, 0, len(rows))
	for _, row := range rows {
		out = append(out, modelToItem(row))
	}
	return out, nil
}

// Remove deletes the named context from the given scope. The boolean
// reports whether a row was actually deleted; false is not an error.
func (r *Resolver) Remove(ctx context.Context, guildID, userID, name string) (bool, error) {
	guildID = strings.TrimSpace(guildID)
	name = strings.TrimSpace(name)
	if guildID == "" || name == "" {
		return false, nil
	}

	res := r.DB.WithContext(ctx).
		Where("guild_id = ? AND user_id = ? AND name = ?", guildID, strings.TrimSpace(userID), name).
		Delete(&models.Context{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *Resolver) getScoped(ctx context.Context, guildID, userID, name string) (Item, bool, error) {
	var row models.Context
	err := r.DB.WithContext(ctx).
		Where("guild_id = ? AND user_id = ? AND name = ?", guildID, userID, name).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Item{}, false, nil
		}
		return Item{}, false, err
	}
	return modelToItem(row), true, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func modelToItem(m models.Context) Item {
	return Item{
		Name:           m.Name,
		Content:        m.Content,
		SourceFilename: m.SourceFilename,
		FileType:       m.FileType,
		Personal:       m.UserID != "",
		CreatedAt:      m.CreatedAt,
	}
}
