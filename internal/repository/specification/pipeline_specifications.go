package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByDealID struct {
	DealID uuid.UUID
}

func (s ByDealID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("deal_id = ?", s.DealID)
}

type ByDocumentID struct {
	DocumentID uuid.UUID
}

func (s ByDocumentID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("document_id = ?", s.DocumentID)
}

type ByRunID struct {
	RunID uuid.UUID
}

func (s ByRunID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("run_id = ?", s.RunID)
}

type ByStatus struct {
	Status string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

type ByChecksum struct {
	Checksum string
}

func (s ByChecksum) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("checksum = ?", s.Checksum)
}

// ByParentRunID filters runs by their parent. A nil parent selects root
// runs only.
type ByParentRunID struct {
	ParentRunID *uuid.UUID
}

func (s ByParentRunID) Apply(db *gorm.DB) *gorm.DB {
	if s.ParentRunID == nil {
		return db.Where("parent_run_id IS NULL")
	}
	return db.Where("parent_run_id = ?", s.ParentRunID)
}
