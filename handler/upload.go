package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"medianode/dto"
	"medianode/pkg/metrics"
	"medianode/service"
)

// Upload accepts a multipart upload (field "video"), runs the ingestion
// pipeline, and returns the manifest and raw-fallback content ids.
func (h *Handler) Upload(c *gin.Context) {
	fh, err := c.FormFile("video")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "multipart field 'video' is required"})
		return
	}
	src, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "cannot open uploaded file"})
		return
	}
	defer src.Close()

	metrics.UploadsAccepted.Inc()
	result, err := h.Pipeline.Ingest(c.Request.Context(), src, fh.Filename)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrInvalidInput) {
			status = http.StatusBadRequest
		}
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("filename", fh.Filename).Msg("ingest failed")
		c.JSON(status, dto.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.UploadResponse{
		Success:   true,
		Cid:       result.ManifestCID.String(),
		MasterCid: result.ManifestCID.String(),
		RawCid:    result.RawCID.String(),
		Filename:  result.Filename,
		Size:      result.Size,
	})
}
