package repository

import (
	"context"

	"freightflow/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CustomerRepository interface {
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Customer, error)
	// FindByIDForUpdate row-locks the customer for balance mutation.
	FindByIDForUpdate(ctx context.Context, orgID, id uuid.UUID) (*model.Customer, error)
	UpdateOutstanding(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error
	CreatePayment(ctx context.Context, payment *model.Payment) error
}

type customerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Customer, error) {
	var customer model.Customer
	if err := GetDB(ctx, r.db).First(&customer, "id = ? AND organization_id = ?", id, orgID).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) FindByIDForUpdate(ctx context.Context, orgID, id uuid.UUID) (*model.Customer, error) {
	var customer model.Customer
	err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&customer, "id = ? AND organization_id = ?", id, orgID).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) UpdateOutstanding(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	return GetDB(ctx, r.db).Model(&model.Customer{}).
		Where("id = ?", id).
		Update("outstanding_balance", balance).Error
}

func (r *customerRepository) CreatePayment(ctx context.Context, payment *model.Payment) error {
	return GetDB(ctx, r.db).Create(payment).Error
}
