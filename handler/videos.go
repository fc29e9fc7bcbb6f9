package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Videos lists ingested videos. With a repository configured the
// persisted records are returned; otherwise the in-process registry
// provides a minimal view.
func (h *Handler) Videos(c *gin.Context) {
	if h.Repo != nil {
		videos, err := h.Repo.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list videos"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"videos": videos})
		return
	}

	type jobView struct {
		JobID    string   `json:"job_id"`
		Variants []string `json:"variants"`
	}
	ids := h.Registry.JobIDs()
	jobs := make([]jobView, 0, len(ids))
	for _, id := range ids {
		if info, ok := h.Registry.Lookup(id); ok {
			jobs = append(jobs, jobView{JobID: id, Variants: info.Variants})
		}
	}
	c.JSON(http.StatusOK, gin.H{"videos": jobs})
}

// VideoByJob returns one job's record or registry entry.
func (h *Handler) VideoByJob(c *gin.Context) {
	jobID := c.Param("job")
	if h.Repo != nil {
		video, err := h.Repo.FindByJobID(c.Request.Context(), jobID)
		if err == nil {
			c.JSON(http.StatusOK, video)
			return
		}
	}
	info, ok := h.Registry.Lookup(jobID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"job_id": jobID, "variants": info.Variants})
}
