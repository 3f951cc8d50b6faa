package database

import (
	"freightflow/internal/model"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string, log zerolog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.Branch{},
		&model.Customer{},
		&model.Payment{},
		&model.Booking{},
		&model.BookingArticle{},
		&model.BookingStatusEvent{},
		&model.ProofOfDelivery{},
		&model.Manifest{},
		&model.LoadingRecord{},
		&model.RateContract{},
		&model.RateSlab{},
		&model.SurchargeRule{},
		&model.Invoice{},
		&model.InvoiceLineItem{},
		&model.AuditLog{},
	)
	if err != nil {
		log.Warn().Err(err).Msg("failed to auto-migrate models")
	}

	return db, nil
}
