package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"medianode/constant"
	"medianode/dto"
	"medianode/pkg/metrics"
	"medianode/service"
)

// JobFile serves a staged variant playlist or segment:
//
//	GET /jobs/:job/:variant/playlist
//	GET /jobs/:job/:variant/<segment file>
//
// A variant that failed its encode (or never existed) degrades to the
// first variant the job does have, so a client holding a stale tier
// still gets a working stream instead of a 404.
func (h *Handler) JobFile(c *gin.Context) {
	jobID := c.Param("job")
	info, ok := h.Registry.Lookup(jobID)
	if !ok {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "unknown job"})
		return
	}
	if len(info.Variants) == 0 {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "job has no variants"})
		return
	}

	variant := c.Param("variant")
	if !containsVariant(info.Variants, variant) {
		fallback := info.Variants[0]
		zerolog.Ctx(c.Request.Context()).Debug().
			Str("job_id", jobID).
			Str("requested", variant).
			Str("fallback", fallback).
			Msg("variant unavailable, substituting")
		variant = fallback
	}

	file := c.Param("file")
	kind := "segment"
	contentType := ""
	if file == "playlist" {
		file = service.PlaylistFilename
		kind = "playlist"
		contentType = constant.MediaTypePlaylist
	} else {
		if !validSegmentName(file) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid file name"})
			return
		}
		contentType = mediaTypeFor(file)
		if contentType == "" {
			contentType = constant.MediaTypeBinary
		}
	}

	path := filepath.Join(info.Dir, variant, file)
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "file not found"})
		return
	}

	metrics.FilesServed.WithLabelValues(kind).Inc()
	c.Header("Content-Type", contentType)
	c.Header("Accept-Ranges", "bytes")
	http.ServeFile(c.Writer, c.Request, path)
}

func containsVariant(variants []string, name string) bool {
	for _, v := range variants {
		if v == name {
			return true
		}
	}
	return false
}

// validSegmentName rejects anything that could escape the variant's
// staging subdirectory.
func validSegmentName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, "/\\") {
		return false
	}
	return filepath.Base(name) == name
}
