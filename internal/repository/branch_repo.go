package repository

import (
	"context"

	"freightflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BranchRepository interface {
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Branch, error)
}

type branchRepository struct {
	db *gorm.DB
}

func NewBranchRepository(db *gorm.DB) BranchRepository {
	return &branchRepository{db: db}
}

func (r *branchRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Branch, error) {
	var branch model.Branch
	if err := GetDB(ctx, r.db).First(&branch, "id = ? AND organization_id = ?", id, orgID).Error; err != nil {
		return nil, err
	}
	return &branch, nil
}
