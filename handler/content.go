package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"medianode/blob"
	"medianode/dto"
	"medianode/pkg/metrics"
)

// Content streams a content-addressed blob:
//
//	GET /content/:cid?filename=master.m3u8
//
// Range requests are honored (206/Content-Range/416) for any blob; the
// content type comes from the filename hint when given, else from the
// media type recorded at publish time.
func (h *Handler) Content(c *gin.Context) {
	cid := blob.ContentID(c.Param("cid"))
	obj, err := h.Store.Open(c.Request.Context(), cid)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) || errors.Is(err, blob.ErrInvalidID) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "content not found"})
			return
		}
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("cid", cid.String()).Msg("open blob")
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "cannot open content"})
		return
	}
	defer obj.Close()

	name := c.Query("filename")
	contentType := mediaTypeFor(name)
	if contentType == "" {
		contentType = obj.MediaType
	}
	if name == "" {
		name = cid.String()
	}

	metrics.FilesServed.WithLabelValues("content").Inc()
	c.Header("Content-Type", contentType)
	c.Header("Accept-Ranges", "bytes")
	http.ServeContent(c.Writer, c.Request, name, obj.ModTime, obj)
}
