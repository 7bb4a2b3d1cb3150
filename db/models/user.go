package models

// User holds per-person settings, shared across every guild the person
// uses the bot in.
type User struct {
	ID           string  `gorm:"column:id;type:text;primaryKey"`
	DefaultModel *string `gorm:"column:default_model;type:text"`
	CreatedAt    int64   `gorm:"column:created_at;not null"`
	UpdatedAt    int64   `gorm:"column:updated_at;not null"`
}

func (User) TableName() string { return "users" }
