package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// File is the metadata row of an object stored in the bucket. Size is the
// length reported by the storage backend, never the client's claim.
type File struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Filename  string    `gorm:"not null" json:"filename"`
	Mimetype  string    `gorm:"not null" json:"mimetype"`
	Size      int64     `gorm:"not null" json:"size"`
	Key       string    `gorm:"column:storage_key;not null" json:"-"`
	UserID    string    `gorm:"type:uuid;index;not null" json:"userId"`
	User      *User     `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

func (f *File) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}
