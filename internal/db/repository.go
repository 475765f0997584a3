package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/xiaoxiunique/xhs-poster/internal/models"
	"github.com/xiaoxiunique/xhs-poster/internal/xhs"
)

// Repository provides database access methods
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// AccountRepository provides credential-account database operations
type AccountRepository struct {
	*Repository
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(repo *Repository) *AccountRepository {
	return &AccountRepository{Repository: repo}
}

// GetByID retrieves an account by ID
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).First(&account, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// GetByName retrieves an account by display name
func (r *AccountRepository) GetByName(ctx context.Context, name string) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// List retrieves all accounts, newest first
func (r *AccountRepository) List(ctx context.Context) ([]*models.Account, error) {
	var accounts []*models.Account
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// Create stores a new account with an unverified credential
func (r *AccountRepository) Create(ctx context.Context, name, cookie string) (*models.Account, error) {
	account := &models.Account{
		Name:   name,
		Cookie: cookie,
		Status: models.StatusUnknown,
	}
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		return nil, err
	}
	return account, nil
}

// Delete removes an account
func (r *AccountRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.Account{}, id).Error
}

// SetValidity records the outcome of a credential check
func (r *AccountRepository) SetValidity(ctx context.Context, id int64, status string, checkedAt time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Account{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":          status,
			"last_checked_at": checkedAt,
		}).Error
}

// SetActive transfers the active designation to the given account. The
// flag flip happens inside one transaction so there is never a moment with
// two active accounts visible.
func (r *AccountRepository) SetActive(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Account{}).Where("is_active = ?", true).
			Update("is_active", false).Error; err != nil {
			return err
		}
		return tx.Model(&models.Account{}).Where("id = ?", id).
			Update("is_active", true).Error
	})
}

// GetActive retrieves the account currently flagged active
func (r *AccountRepository) GetActive(ctx context.Context) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// PostRepository provides post-related database operations
type PostRepository struct {
	*Repository
}

// NewPostRepository creates a new post repository
func NewPostRepository(repo *Repository) *PostRepository {
	return &PostRepository{Repository: repo}
}

// GetComplete retrieves a post with its ordered images and tag names
func (r *PostRepository) GetComplete(ctx context.Context, id int64) (*models.CompletePost, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var images []models.Image
	if err := r.db.WithContext(ctx).Where("post_id = ?", id).
		Order("display_order ASC").Find(&images).Error; err != nil {
		return nil, err
	}

	var tags []string
	if err := r.db.WithContext(ctx).Table("tags").
		Select("tags.name").
		Joins("JOIN post_tags ON post_tags.tag_id = tags.id").
		Where("post_tags.post_id = ?", id).
		Scan(&tags).Error; err != nil {
		return nil, err
	}

	return &models.CompletePost{Post: post, Images: images, Tags: tags}, nil
}

// SetStatus updates a post's status
func (r *PostRepository) SetStatus(ctx context.Context, id int64, status string) error {
	return r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now().UTC(),
		}).Error
}

// List retrieves posts for a user, most recently updated first
func (r *PostRepository) List(ctx context.Context, userID int64) ([]*models.Post, error) {
	var posts []*models.Post
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("updated_at DESC").Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// MaterialRepository provides ingested-material database operations
type MaterialRepository struct {
	*Repository
}

// NewMaterialRepository creates a new material repository
func NewMaterialRepository(repo *Repository) *MaterialRepository {
	return &MaterialRepository{Repository: repo}
}

// Exists reports whether a material with the given owner and external note
// id has already been ingested
func (r *MaterialRepository) Exists(ctx context.Context, ownerID int64, noteID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Material{}).
		Where("user_id = ? AND note_id = ?", ownerID, noteID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Insert stores a new material
func (r *MaterialRepository) Insert(ctx context.Context, material *models.Material) error {
	return r.db.WithContext(ctx).Create(material).Error
}

// List retrieves one page of an owner's materials, optionally filtered by
// a keyword over title and content. Returns the page plus the total count.
func (r *MaterialRepository) List(ctx context.Context, ownerID int64, keyword string, page, pageSize int) ([]*models.Material, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	query := r.db.WithContext(ctx).Model(&models.Material{}).Where("user_id = ?", ownerID)
	if keyword != "" {
		pattern := "%" + keyword + "%"
		query = query.Where("title ILIKE ? OR content ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var materials []*models.Material
	if err := query.Order("created_at DESC").
		Limit(pageSize).Offset((page - 1) * pageSize).
		Find(&materials).Error; err != nil {
		return nil, 0, err
	}

	return materials, total, nil
}

// KvRepository provides access to the JSON settings slots
type KvRepository struct {
	*Repository
}

// NewKvRepository creates a new kv repository
func NewKvRepository(repo *Repository) *KvRepository {
	return &KvRepository{Repository: repo}
}

// Get retrieves a kv row by key
func (r *KvRepository) Get(ctx context.Context, key string) (*models.Kv, error) {
	var kv models.Kv
	if err := r.db.WithContext(ctx).Where("key = ?", key).First(&kv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &kv, nil
}

// Put creates or replaces a kv row
func (r *KvRepository) Put(ctx context.Context, key, data string) error {
	kv := models.Kv{Key: key, Data: data}
	return r.db.WithContext(ctx).Save(&kv).Error
}

// settings is the shape of the system_settings kv row
type settings struct {
	CommonTags []xhs.Topic `json:"commonTags"`
}

// ConfiguredTopics returns the operator-configured common topic pool.
// Missing or empty configuration yields (nil, nil); the publish pipeline
// falls back to its built-in defaults in that case.
func (r *KvRepository) ConfiguredTopics(ctx context.Context) ([]xhs.Topic, error) {
	kv, err := r.Get(ctx, models.SettingsKey)
	if err != nil {
		return nil, err
	}
	if kv == nil {
		return nil, nil
	}

	var s settings
	if err := json.Unmarshal([]byte(kv.Data), &s); err != nil {
		return nil, fmt.Errorf("malformed system settings: %w", err)
	}
	return s.CommonTags, nil
}
