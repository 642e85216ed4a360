package database

import (
	"log"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func GetMigrator(db *gorm.DB) *gormigrate.Gormigrate {
	migrator := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "0",
			Migrate: func(txn *gorm.DB) error {
				return txn.AutoMigrate(&PredictionLog{})
			},
			Rollback: func(txn *gorm.DB) error {
				return txn.Migrator().DropTable(&PredictionLog{})
			},
		},
	})

	migrator.InitSchema(func(txn *gorm.DB) error {
		// Run by the migrator when no previous migration is detected;
		// creates the latest schema directly instead of replaying every
		// migration.
		log.Println("clean database detected, running full schema initialization")

		return txn.AutoMigrate(&PredictionLog{})
	})

	return migrator
}
