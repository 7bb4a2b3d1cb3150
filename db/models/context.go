package models

// Context is a named block of reference text attachable to prompts.
//
// UserID is stored as the empty string for server-scoped rows instead of
// NULL: SQLite treats NULLs as distinct in unique indexes, which would let
// two server-scoped rows share a name. The empty-string sentinel keeps the
// (guild_id, user_id, name) uniqueness enforceable by the index itself.
type Context struct {
	ID             uint   `gorm:"column:id;primaryKey;autoIncrement"`
	GuildID        string `gorm:"column:guild_id;type:text;not null;uniqueIndex:uniq_guild_user_name,priority:1"`
	UserID         string `gorm:"column:user_id;type:text;not null;default:'';uniqueIndex:uniq_guild_user_name,priority:2"`
	Name           string `gorm:"column:name;type:text;not null;uniqueIndex:uniq_guild_user_name,priority:3"`
	Content        string `gorm:"column:content;type:text;not null"`
	SourceFilename string `gorm:"column:source_filename;type:text"`
	FileType       string `gorm:"column:file_type;type:text"`
	CreatedAt      int64  `gorm:"column:created_at;not null"`
}

func (Context) TableName() string { return "contexts" }
