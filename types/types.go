package types

import (
	"time"
)

// Accepted upload content types. Anything else is rejected before extraction.
const (
	ContentTypePDF       = "application/pdf"
	ContentTypeDOCX      = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	ContentTypePlainText = "text/plain"
)

func IsSupportedContentType(contentType string) bool {
	switch contentType {
	case ContentTypePDF, ContentTypeDOCX, ContentTypePlainText:
		return true
	}
	return false
}

// Document ingestion lifecycle. A document stays "pending" until every chunk
// is persisted and indexed; a mid-ingestion failure leaves it "failed".
const (
	DocStatusPending  = "pending"
	DocStatusComplete = "complete"
	DocStatusFailed   = "failed"
)

const ChunkStatusActive = "active"

type User struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	HashedPassword string    `json:"-"`
	IsAdmin        bool      `json:"is_admin"`
	CreatedAt      time.Time `json:"created_at"`
}

type Document struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	OwnerID   int64     `json:"owner_id"`
	Content   string    `json:"content"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Chunk struct {
	ID         int64     `json:"id"`
	DocumentID int64     `json:"document_id"`
	Index      int       `json:"chunk_index"`
	Text       string    `json:"chunk_text"`
	Embedding  []float32 `json:"-"`
	Status     string    `json:"status"`
}

// IngestResult summarizes one completed upload.
type IngestResult struct {
	DocumentID     int64  `json:"document_id"`
	ChunkCount     int    `json:"chunks"`
	ExternalStatus string `json:"external_status"`
	ExternalID     string `json:"external_id"`
}

type DocumentDetail struct {
	Document Document `json:"document"`
	Chunks   []Chunk  `json:"chunks"`
}
