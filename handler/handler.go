package handler

import (
	"path/filepath"
	"strings"

	"medianode/blob"
	"medianode/constant"
	"medianode/repository"
	"medianode/service"
)

// Handler carries the delivery surface's dependencies; one instance
// serves all routes.
type Handler struct {
	Pipeline *service.Pipeline
	Registry *service.Registry
	Store    blob.Store
	Repo     repository.VideoRepository // optional
}

func New(pipeline *service.Pipeline, registry *service.Registry, store blob.Store, repo repository.VideoRepository) *Handler {
	return &Handler{
		Pipeline: pipeline,
		Registry: registry,
		Store:    store,
		Repo:     repo,
	}
}

// mediaTypeFor maps a filename to a serving content type; empty when
// the extension is unknown.
func mediaTypeFor(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".m3u8":
		return constant.MediaTypePlaylist
	case ".ts":
		return constant.MediaTypeSegment
	case ".mp4":
		return constant.MediaTypeVideo
	case ".mov":
		return "video/quicktime"
	case ".webm":
		return "video/webm"
	case ".mkv":
		return "video/x-matroska"
	default:
		return ""
	}
}
