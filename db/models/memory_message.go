package models

// MemoryMessage is one turn of a user's conversation memory. Append-only;
// ordering is by created_at with the autoincrement id breaking ties.
type MemoryMessage struct {
	ID        uint    `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    string  `gorm:"column:user_id;type:text;not null;index:idx_memory_user_created,priority:1"`
	Role      string  `gorm:"column:role;type:text;not null"`
	Content   string  `gorm:"column:content;type:text;not null"`
	Model     *string `gorm:"column:model;type:text"`
	CreatedAt int64   `gorm:"column:created_at;not null;index:idx_memory_user_created,priority:2"`
}

func (MemoryMessage) TableName() string { return "memory_messages" }
