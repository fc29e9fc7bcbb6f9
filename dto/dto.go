package dto

import "github.com/google/uuid"

// UploadResponse is the contract consumed by the web app. Cid and
// MasterCid both carry the manifest content id (legacy shape); RawCid is
// the direct-play fallback source.
type UploadResponse struct {
	Success   bool   `json:"success"`
	Cid       string `json:"cid"`
	MasterCid string `json:"masterCid"`
	RawCid    string `json:"rawCid"`
	Filename  string `json:"filename"`
	Size      int64  `json:"size"`
}

// IngestMessage asks the queue consumer to ingest a source object that
// already sits in the bucket.
type IngestMessage struct {
	JobId      uuid.UUID `json:"jobId"`
	ObjectPath string    `json:"objectPath"`
	FileName   string    `json:"fileName"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
