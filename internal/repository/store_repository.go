package repository

import (
	"errors"
	"strings"

	"github.com/xmrpay-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrStoreNotFound 店铺不存在
var ErrStoreNotFound = errors.New("store not found")

// StoreBlobMutator 在事务内修改店铺 blob，返回错误时整体回滚
type StoreBlobMutator func(blob *models.StoreBlob) error

// StoreRepository 店铺数据访问接口
type StoreRepository interface {
	GetByID(id string) (*models.Store, error)
	Create(store *models.Store) error
	UpdateBlob(id string, mutate StoreBlobMutator) (*models.Store, error)
}

// GormStoreRepository GORM 实现
type GormStoreRepository struct {
	db *gorm.DB
}

// NewStoreRepository 创建店铺仓库
func NewStoreRepository(db *gorm.DB) *GormStoreRepository {
	return &GormStoreRepository{db: db}
}

// WithTx 绑定事务
func (r *GormStoreRepository) WithTx(tx *gorm.DB) *GormStoreRepository {
	if tx == nil {
		return r
	}
	return &GormStoreRepository{db: tx}
}

// GetByID 获取店铺，不存在时返回 nil
func (r *GormStoreRepository) GetByID(id string) (*models.Store, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	var store models.Store
	if err := r.db.Where("id = ?", id).First(&store).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &store, nil
}

// Create 创建店铺
func (r *GormStoreRepository) Create(store *models.Store) error {
	return r.db.Create(store).Error
}

// UpdateBlob 读取-修改-写回店铺 blob
// 行锁仅在支持 FOR UPDATE 的数据库上生效，同一店铺的并发写入仍需调用方串行化
func (r *GormStoreRepository) UpdateBlob(id string, mutate StoreBlobMutator) (*models.Store, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrStoreNotFound
	}
	var updated models.Store
	err := r.db.Transaction(func(tx *gorm.DB) error {
		txRepo := r.WithTx(tx)
		store, err := txRepo.getForUpdate(id)
		if err != nil {
			return err
		}
		if mutate != nil {
			if err := mutate(&store.Blob); err != nil {
				return err
			}
		}
		if err := txRepo.db.Model(&models.Store{}).
			Where("id = ?", id).
			Update("blob_json", store.Blob).Error; err != nil {
			return err
		}
		updated = *store
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *GormStoreRepository) getForUpdate(id string) (*models.Store, error) {
	var store models.Store
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&store).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, err
	}
	return &store, nil
}
