package db

import (
	"fmt"

	"github.com/lunateq/mnemo/db/models"
	"gorm.io/gorm"
)

func AutoMigrate(gdb *gorm.DB) error {
	if gdb == nil {
		return fmt.Errorf("nil gorm db")
	}
	return gdb.AutoMigrate(
		&models.Guild{},
		&models.User{},
		&models.Context{},
		&models.MemoryMessage{},
	)
}
