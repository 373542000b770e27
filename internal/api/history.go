package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shapedtime/hoardhelper/internal/history"
)

const defaultHistoryLimit = 100

// listHistory returns finished uploads, newest first
// GET /api/history?limit=N
func (s *Server) listHistory(c *gin.Context) {
	if s.deps.History == nil {
		errorResponse(c, http.StatusServiceUnavailable, "History is not available")
		return
	}

	limit := defaultHistoryLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			errorResponse(c, http.StatusBadRequest, "limit must be a positive number")
			return
		}
		limit = n
	}

	items, err := s.deps.History.List(c.Request.Context(), limit)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// clearHistory removes every entry
// DELETE /api/history
func (s *Server) clearHistory(c *gin.Context) {
	if s.deps.History == nil {
		errorResponse(c, http.StatusServiceUnavailable, "History is not available")
		return
	}

	n, err := s.deps.History.Clear(c.Request.Context())
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": n})
}

// deleteHistory removes one entry
// DELETE /api/history/:id
func (s *Server) deleteHistory(c *gin.Context) {
	if s.deps.History == nil {
		errorResponse(c, http.StatusServiceUnavailable, "History is not available")
		return
	}

	if err := s.deps.History.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, history.ErrNotFound) {
			errorResponse(c, http.StatusNotFound, "History entry not found")
			return
		}
		errorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.Status(http.StatusNoContent)
}

// retryHistory puts a failed upload back into the queue
// POST /api/history/:id/retry
func (s *Server) retryHistory(c *gin.Context) {
	if s.deps.History == nil {
		errorResponse(c, http.StatusServiceUnavailable, "History is not available")
		return
	}

	file, err := s.deps.History.PrepareRetry(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, history.ErrNotFound):
			errorResponse(c, http.StatusNotFound, "History entry not found")
		case errors.Is(err, history.ErrNotRetryable), errors.Is(err, history.ErrAlreadyRetried):
			errorResponse(c, http.StatusConflict, err.Error())
		default:
			errorResponse(c, http.StatusInternalServerError, err.Error())
		}
		return
	}

	// the library folders may have changed since the failed attempt
	file = s.deps.Ingestor.Regenerate(file)
	added := s.deps.Queue.Add(file)
	c.JSON(http.StatusCreated, added[0])
}
