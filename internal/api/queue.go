package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shapedtime/hoardhelper/internal/queue"
	"github.com/shapedtime/hoardhelper/internal/uploader"
)

// PathsRequest carries local file paths to parse
type PathsRequest struct {
	Paths []string `json:"paths" binding:"required,min=1,dive,required"`
}

// MetadataRequest carries one edited file
type MetadataRequest struct {
	Metadata queue.FileMetadata `json:"metadata" binding:"required"`
}

// GeneratePathResponse is the regenerated proposal for an edited file
type GeneratePathResponse struct {
	Proposed string             `json:"proposed"`
	Valid    bool               `json:"valid"`
	File     queue.FileMetadata `json:"file"`
}

// QueueResponse lists the upload queue
type QueueResponse struct {
	Files []queue.FileMetadata `json:"files"`
}

// UploadResponse is the outcome of an upload batch
type UploadResponse struct {
	Results []uploader.Result `json:"results"`
	Summary string            `json:"summary"`
}

// parseFiles parses paths without queueing them
// POST /api/parse
func (s *Server) parseFiles(c *gin.Context) {
	var req PathsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	c.JSON(http.StatusOK, QueueResponse{Files: s.deps.Ingestor.Ingest(req.Paths)})
}

// generatePath rebuilds the proposed path of an edited file
// POST /api/generate-path
func (s *Server) generatePath(c *gin.Context) {
	var req MetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	out := s.deps.Ingestor.Regenerate(req.Metadata)
	c.JSON(http.StatusOK, GeneratePathResponse{Proposed: out.Proposed, Valid: out.Valid, File: out})
}

// listQueue returns the queue in order
// GET /api/queue
func (s *Server) listQueue(c *gin.Context) {
	c.JSON(http.StatusOK, QueueResponse{Files: s.deps.Queue.Snapshot()})
}

// addToQueue parses paths and appends them to the queue
// POST /api/queue
func (s *Server) addToQueue(c *gin.Context) {
	var req PathsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	added := s.deps.Queue.Add(s.deps.Ingestor.Ingest(req.Paths)...)
	c.JSON(http.StatusCreated, QueueResponse{Files: added})
}

// clearQueue empties the queue, or only drops secured files with ?secured=true
// DELETE /api/queue
func (s *Server) clearQueue(c *gin.Context) {
	if c.Query("secured") == "true" {
		c.JSON(http.StatusOK, gin.H{"removed": s.deps.Queue.ClearSecured()})
		return
	}

	if s.isUploading() {
		errorResponse(c, http.StatusConflict, "An upload is in progress")
		return
	}

	removed := s.deps.Queue.Len()
	s.deps.Queue.Clear()
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// removeFromQueue drops one file
// DELETE /api/queue/:id
func (s *Server) removeFromQueue(c *gin.Context) {
	if err := s.deps.Queue.Remove(c.Param("id")); err != nil {
		if errors.Is(err, queue.ErrNotFound) {
			errorResponse(c, http.StatusNotFound, "Queue entry not found")
			return
		}
		errorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.Status(http.StatusNoContent)
}

// updateQueueItem applies a user edit and regenerates the proposed path
// PUT /api/queue/:id
func (s *Server) updateQueueItem(c *gin.Context) {
	var req MetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	current, err := s.deps.Queue.Get(c.Param("id"))
	if err != nil {
		errorResponse(c, http.StatusNotFound, "Queue entry not found")
		return
	}
	if current.Status.Kind == queue.StatusProcessing {
		errorResponse(c, http.StatusConflict, "File is being uploaded")
		return
	}

	req.Metadata.ID = current.ID
	req.Metadata.RetryID = current.RetryID
	req.Metadata.FullPath = current.FullPath
	req.Metadata.OriginalName = current.OriginalName
	req.Metadata.Ext = current.Ext

	out := s.deps.Ingestor.Regenerate(req.Metadata)
	if err := s.deps.Queue.Replace(out); err != nil {
		errorResponse(c, http.StatusNotFound, "Queue entry not found")
		return
	}
	c.JSON(http.StatusOK, out)
}

// uploadQueue uploads every pending valid file and waits for the batch
// POST /api/queue/upload
func (s *Server) uploadQueue(c *gin.Context) {
	if s.deps.Uploads == nil {
		errorResponse(c, http.StatusServiceUnavailable, "WebDAV is not configured")
		return
	}
	if !s.startUpload() {
		errorResponse(c, http.StatusConflict, "An upload is already in progress")
		return
	}
	defer s.finishUpload()

	files := s.deps.Queue.Uploadable()
	results := s.deps.Uploads.UploadAll(c.Request.Context(), files, nil)
	if results == nil {
		results = []uploader.Result{}
	}

	summary := uploader.Summary(results)
	s.log.Info().Str("summary", summary).Msg("upload batch finished")

	c.JSON(http.StatusOK, UploadResponse{Results: results, Summary: summary})
}

func (s *Server) startUpload() bool {
	s.uploadMu.Lock()
	defer s.uploadMu.Unlock()
	if s.uploading {
		return false
	}
	s.uploading = true
	return true
}

func (s *Server) finishUpload() {
	s.uploadMu.Lock()
	s.uploading = false
	s.uploadMu.Unlock()
}

func (s *Server) isUploading() bool {
	s.uploadMu.Lock()
	defer s.uploadMu.Unlock()
	return s.uploading
}
