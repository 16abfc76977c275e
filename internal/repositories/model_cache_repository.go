package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"glance/internal/models"
)

type ModelCacheRepository interface {
	Get(key string) (*models.ModelListCache, error)
	Put(entry *models.ModelListCache) error
	Purge(olderThan time.Time) error
}

type modelCacheRepository struct {
	db *gorm.DB
}

func NewModelCacheRepository(db *gorm.DB) ModelCacheRepository {
	return &modelCacheRepository{db: db}
}

// Get returns the cached listing for key, or nil when absent.
func (r *modelCacheRepository) Get(key string) (*models.ModelListCache, error) {
	var entry models.ModelListCache
	if err := r.db.First(&entry, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *modelCacheRepository) Put(entry *models.ModelListCache) error {
	return r.db.Save(entry).Error
}

func (r *modelCacheRepository) Purge(olderThan time.Time) error {
	return r.db.Where("fetched_at < ?", olderThan).Delete(&models.ModelListCache{}).Error
}
