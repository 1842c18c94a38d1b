package repo

import (
	"context"

	"github.com/stevedore-dev/stevedore/internal/models"
	"gorm.io/gorm"
)

type RegistryRepo struct {
	db *gorm.DB
}

func NewRegistryRepo(db *gorm.DB) *RegistryRepo {
	return &RegistryRepo{
		db: db,
	}
}

func (r *RegistryRepo) Create(ctx context.Context, registry *models.Registry) error {
	return r.db.WithContext(ctx).Create(registry).Error
}

func (r *RegistryRepo) FindById(ctx context.Context, id string) (models.Registry, error) {
	var registry models.Registry
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&registry).Error
	return registry, err
}

func (r *RegistryRepo) FindAll(ctx context.Context) ([]models.Registry, error) {
	var registries []models.Registry
	err := r.db.WithContext(ctx).Order("created_at asc").Find(&registries).Error
	return registries, err
}

func (r *RegistryRepo) Save(ctx context.Context, registry *models.Registry) error {
	return r.db.WithContext(ctx).Save(registry).Error
}

func (r *RegistryRepo) DeleteById(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Registry{}).Error
}
