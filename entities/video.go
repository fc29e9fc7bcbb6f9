package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"medianode/constant"
)

// Video is the persisted record of one ingested upload.
type Video struct {
	ID          uuid.UUID          `json:"id" gorm:"primaryKey"`
	JobID       string             `json:"job_id" gorm:"uniqueIndex"`
	Filename    string             `json:"filename"`
	SizeBytes   int64              `json:"size_bytes"`
	ManifestCID string             `json:"manifest_cid"`
	RawCID      string             `json:"raw_cid"`
	Status      constant.JobStatus `json:"status"`
	Variants    pq.StringArray     `json:"variants" gorm:"type:text[]"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

func (Video) TableName() string {
	return "videos"
}
