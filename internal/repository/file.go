package repository

import (
	"context"

	"tush00nka/filehub/internal/model"

	"gorm.io/gorm"
)

type FileRepository interface {
	Create(ctx context.Context, file *model.File) error
	FindByID(ctx context.Context, id string) (*model.File, error)
	FindByUser(ctx context.Context, userID string) ([]*model.File, error)
	Delete(ctx context.Context, id string) error
}

type fileRepository struct {
	db *gorm.DB
}

func NewFileRepository(db *gorm.DB) FileRepository {
	return &fileRepository{db: db}
}

func (r *fileRepository) Create(ctx context.Context, file *model.File) error {
	return translate(r.db.WithContext(ctx).Omit("User").Create(file).Error)
}

func (r *fileRepository) FindByID(ctx context.Context, id string) (*model.File, error) {
	var file model.File
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&file).Error; err != nil {
		return nil, translate(err)
	}
	return &file, nil
}

// FindByUser returns the user's files, newest first.
func (r *fileRepository) FindByUser(ctx context.Context, userID string) ([]*model.File, error) {
	var files []*model.File
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&files).Error
	if err != nil {
		return nil, err
	}
	return files, nil
}

func (r *fileRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.File{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
