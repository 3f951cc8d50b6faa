package repository

import (
	"context"
	"time"

	"freightflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RateRepository interface {
	// FindActiveContracts returns the customer's ACTIVE contracts whose
	// validity window contains the given date, with slabs and surcharge
	// rules preloaded.
	FindActiveContracts(ctx context.Context, orgID, customerID uuid.UUID, date time.Time) ([]model.RateContract, error)
	FindContractByID(ctx context.Context, orgID, id uuid.UUID) (*model.RateContract, error)
}

type rateRepository struct {
	db *gorm.DB
}

func NewRateRepository(db *gorm.DB) RateRepository {
	return &rateRepository{db: db}
}

func (r *rateRepository) FindActiveContracts(ctx context.Context, orgID, customerID uuid.UUID, date time.Time) ([]model.RateContract, error) {
	var contracts []model.RateContract
	err := GetDB(ctx, r.db).
		Preload("Slabs").
		Preload("SurchargeRules").
		Where("organization_id = ? AND customer_id = ?", orgID, customerID).
		Where("status = ?", model.ContractActive).
		Where("valid_from <= ? AND valid_to >= ?", date, date).
		Order("valid_from DESC").
		Find(&contracts).Error
	if err != nil {
		return nil, err
	}
	return contracts, nil
}

func (r *rateRepository) FindContractByID(ctx context.Context, orgID, id uuid.UUID) (*model.RateContract, error) {
	var contract model.RateContract
	err := GetDB(ctx, r.db).
		Preload("Slabs").
		Preload("SurchargeRules").
		First(&contract, "id = ? AND organization_id = ?", id, orgID).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}
