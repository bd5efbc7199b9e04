package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Deal struct {
	Id          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string         `gorm:"type:varchar(255);not null"`
	Description string         `gorm:"type:text"`
	Focus       string         `gorm:"type:text"` // steers retrieval and summarization prompts
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (Deal) TableName() string {
	return "deals"
}
