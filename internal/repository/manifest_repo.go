package repository

import (
	"context"

	"freightflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ManifestListFilter struct {
	Status string
	Page   int
	Limit  int
}

type ManifestRepository interface {
	Create(ctx context.Context, manifest *model.Manifest) error
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Manifest, error)
	FindByIDWithRecords(ctx context.Context, orgID, id uuid.UUID) (*model.Manifest, error)
	List(ctx context.Context, orgID uuid.UUID, filter ManifestListFilter) ([]model.Manifest, int64, error)
	// UpdateStatusIf moves the manifest status with a version compare-and-swap.
	// Zero rows affected means the manifest changed under the caller.
	UpdateStatusIf(ctx context.Context, id uuid.UUID, expected, target string, version int64) (int64, error)
	CreateLoadingRecords(ctx context.Context, records []model.LoadingRecord) error
	DeleteLoadingRecords(ctx context.Context, manifestID uuid.UUID, bookingIDs []uuid.UUID) error
	ListLoadingRecords(ctx context.Context, manifestID uuid.UUID) ([]model.LoadingRecord, error)
	CountByPrefix(ctx context.Context, orgID uuid.UUID, prefix string) (int64, error)
}

type manifestRepository struct {
	db *gorm.DB
}

func NewManifestRepository(db *gorm.DB) ManifestRepository {
	return &manifestRepository{db: db}
}

func (r *manifestRepository) Create(ctx context.Context, manifest *model.Manifest) error {
	return GetDB(ctx, r.db).Create(manifest).Error
}

func (r *manifestRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Manifest, error) {
	var manifest model.Manifest
	err := GetDB(ctx, r.db).
		Preload("FromBranch").
		Preload("ToBranch").
		First(&manifest, "id = ? AND organization_id = ?", id, orgID).Error
	if err != nil {
		return nil, err
	}
	return &manifest, nil
}

func (r *manifestRepository) FindByIDWithRecords(ctx context.Context, orgID, id uuid.UUID) (*model.Manifest, error) {
	var manifest model.Manifest
	err := GetDB(ctx, r.db).
		Preload("LoadingRecords").
		Preload("LoadingRecords.Booking").
		Preload("FromBranch").
		Preload("ToBranch").
		First(&manifest, "id = ? AND organization_id = ?", id, orgID).Error
	if err != nil {
		return nil, err
	}
	return &manifest, nil
}

func (r *manifestRepository) List(ctx context.Context, orgID uuid.UUID, filter ManifestListFilter) ([]model.Manifest, int64, error) {
	db := GetDB(ctx, r.db)

	query := db.Model(&model.Manifest{}).Where("organization_id = ?", orgID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	fetch := db.Where("organization_id = ?", orgID)
	if filter.Status != "" {
		fetch = fetch.Where("status = ?", filter.Status)
	}

	var manifests []model.Manifest
	err := fetch.Order("created_at desc").Offset(offset).Limit(filter.Limit).Find(&manifests).Error
	if err != nil {
		return nil, 0, err
	}
	return manifests, total, nil
}

func (r *manifestRepository) UpdateStatusIf(ctx context.Context, id uuid.UUID, expected, target string, version int64) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.Manifest{}).
		Where("id = ? AND status = ? AND version = ?", id, expected, version).
		Updates(map[string]interface{}{
			"status":  target,
			"version": version + 1,
		})
	return res.RowsAffected, res.Error
}

func (r *manifestRepository) CreateLoadingRecords(ctx context.Context, records []model.LoadingRecord) error {
	if len(records) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Create(&records).Error
}

func (r *manifestRepository) DeleteLoadingRecords(ctx context.Context, manifestID uuid.UUID, bookingIDs []uuid.UUID) error {
	if len(bookingIDs) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).
		Where("manifest_id = ? AND booking_id IN ?", manifestID, bookingIDs).
		Delete(&model.LoadingRecord{}).Error
}

func (r *manifestRepository) ListLoadingRecords(ctx context.Context, manifestID uuid.UUID) ([]model.LoadingRecord, error) {
	var records []model.LoadingRecord
	err := GetDB(ctx, r.db).
		Preload("Booking").
		Where("manifest_id = ?", manifestID).
		Order("loaded_at asc").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *manifestRepository) CountByPrefix(ctx context.Context, orgID uuid.UUID, prefix string) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Manifest{}).
		Where("organization_id = ? AND manifest_no LIKE ?", orgID, prefix+"%").
		Count(&count).Error
	return count, err
}
