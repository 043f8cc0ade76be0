// internal/models/import_batch.go
package models

import "github.com/lib/pq"

// ImportBatch records one CSV acquisition run: who ran it, where the
// uploaded file was archived, and the per-row errors that were skipped.
type ImportBatch struct {
	BaseModel
	FileName     string         `json:"file_name" gorm:"size:255"`
	ArchiveKey   string         `json:"archive_key" gorm:"size:512"`
	UploadedBy   string         `json:"uploaded_by" gorm:"size:50"`
	CreatedCount int            `json:"created_count"`
	ErrorCount   int            `json:"error_count"`
	RowErrors    pq.StringArray `json:"row_errors" gorm:"type:text[]"`
}
