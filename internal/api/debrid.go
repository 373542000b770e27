package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shapedtime/hoardhelper/internal/loot"
	"github.com/shapedtime/hoardhelper/internal/mediatype"
	"github.com/shapedtime/hoardhelper/internal/realdebrid"
)

// ClassifyRequest is a torrent file listing to classify
type ClassifyRequest struct {
	Files []mediatype.TorrentFile `json:"files" binding:"required"`
}

// ClassifyResponse is the detection result with subtitle grouping
type ClassifyResponse struct {
	Detection mediatype.DetectionResult        `json:"detection"`
	Files     []mediatype.FileWithSubtitleInfo `json:"files"`
	Rejected  []mediatype.RejectedFile         `json:"rejected,omitempty"`
}

// MagnetRequest adds a torrent to the debrid service
type MagnetRequest struct {
	Magnet string `json:"magnet" binding:"required"`
}

// SelectRequest chooses videos; their subtitles are added automatically
type SelectRequest struct {
	FileIDs []int `json:"fileIds" binding:"required,min=1"`
}

// classify partitions and classifies a file listing
// POST /api/classify
func (s *Server) classify(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	valid, rejected := mediatype.ValidateFiles(req.Files)
	det := mediatype.Detect(valid)

	c.JSON(http.StatusOK, ClassifyResponse{
		Detection: det,
		Files:     mediatype.WithSubtitleInfo(det.VideoFiles, det.SubtitleFiles),
		Rejected:  rejected,
	})
}

// testRealDebrid checks the configured API key
// POST /api/realdebrid/test
func (s *Server) testRealDebrid(c *gin.Context) {
	if s.deps.Debrid == nil {
		errorResponse(c, http.StatusServiceUnavailable, "Real-Debrid is not configured")
		return
	}
	c.JSON(http.StatusOK, s.deps.Debrid.TestConnection(c.Request.Context()))
}

// listDebridTorrents returns the torrents added through hoardhelper
// GET /api/debrid/torrents
func (s *Server) listDebridTorrents(c *gin.Context) {
	if s.deps.Loot == nil {
		errorResponse(c, http.StatusServiceUnavailable, "Real-Debrid is not configured")
		return
	}

	entries, err := s.deps.Loot.Tracked()
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"torrents": entries})
}

// addDebridTorrent submits a magnet link
// POST /api/debrid/torrents
func (s *Server) addDebridTorrent(c *gin.Context) {
	if s.deps.Loot == nil {
		errorResponse(c, http.StatusServiceUnavailable, "Real-Debrid is not configured")
		return
	}

	var req MagnetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	listing, err := s.deps.Loot.Add(c.Request.Context(), req.Magnet)
	if err != nil {
		debridError(c, err)
		return
	}
	c.JSON(http.StatusCreated, listing)
}

// getDebridTorrent returns the classified listing of a torrent
// GET /api/debrid/torrents/:id
func (s *Server) getDebridTorrent(c *gin.Context) {
	if s.deps.Loot == nil {
		errorResponse(c, http.StatusServiceUnavailable, "Real-Debrid is not configured")
		return
	}

	listing, err := s.deps.Loot.Inspect(c.Request.Context(), c.Param("id"))
	if err != nil {
		debridError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

// selectDebridFiles selects videos and their subtitles
// POST /api/debrid/torrents/:id/select
func (s *Server) selectDebridFiles(c *gin.Context) {
	if s.deps.Loot == nil {
		errorResponse(c, http.StatusServiceUnavailable, "Real-Debrid is not configured")
		return
	}

	var req SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	ids, err := s.deps.Loot.Select(c.Request.Context(), c.Param("id"), req.FileIDs)
	if err != nil {
		debridError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"selected": ids})
}

// downloadDebridTorrent downloads a finished torrent and queues its files
// POST /api/debrid/torrents/:id/download
func (s *Server) downloadDebridTorrent(c *gin.Context) {
	if s.deps.Loot == nil {
		errorResponse(c, http.StatusServiceUnavailable, "Real-Debrid is not configured")
		return
	}

	res, err := s.deps.Loot.Download(c.Request.Context(), c.Param("id"), nil)
	if err != nil {
		debridError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func debridError(c *gin.Context, err error) {
	var apiErr *realdebrid.APIError
	switch {
	case errors.Is(err, realdebrid.ErrNotConfigured):
		errorResponse(c, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, realdebrid.ErrInvalidToken):
		errorResponse(c, http.StatusBadGateway, err.Error())
	case errors.Is(err, realdebrid.ErrInvalidMagnet),
		errors.Is(err, loot.ErrUnknownFile),
		errors.Is(err, loot.ErrNoSelection):
		errorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, loot.ErrNotReady):
		errorResponse(c, http.StatusConflict, err.Error())
	case errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound:
		errorResponse(c, http.StatusNotFound, "Torrent not found")
	default:
		errorResponse(c, http.StatusBadGateway, err.Error())
	}
}
