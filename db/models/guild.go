package models

// Guild holds per-server settings. Rows are created lazily on the first
// preference write for a server.
type Guild struct {
	ID           string  `gorm:"column:id;type:text;primaryKey"`
	DefaultModel *string `gorm:"column:default_model;type:text"`
	CreatedAt    int64   `gorm:"column:created_at;not null"`
	UpdatedAt    int64   `gorm:"column:updated_at;not null"`
}

func (Guild) TableName() string { return "guilds" }
