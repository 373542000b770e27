package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shapedtime/hoardhelper/internal/config"
	"github.com/shapedtime/hoardhelper/internal/monitor"
	"github.com/shapedtime/hoardhelper/internal/queue"
	"github.com/shapedtime/hoardhelper/internal/webdav"
)

// TestConnectionRequest holds WebDAV settings to try before saving them.
// An empty body tests the configured remote.
type TestConnectionRequest struct {
	URL      string `json:"url"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// TestConnectionResponse is shown to the user as is
type TestConnectionResponse struct {
	Success  bool   `json:"success"`
	Insecure bool   `json:"insecure,omitempty"`
	Error    string `json:"error,omitempty"`
}

// StatusResponse summarises queue and connection state
type StatusResponse struct {
	Queue       QueueStatus              `json:"queue"`
	Uploading   bool                     `json:"uploading"`
	Connections map[string]monitor.State `json:"connections"`
}

type QueueStatus struct {
	Total   int `json:"total"`
	Ready   int `json:"ready"`
	Secured int `json:"secured"`
	Failed  int `json:"failed"`
}

// testConnection checks WebDAV url and credentials
// POST /api/test-connection
func (s *Server) testConnection(c *gin.Context) {
	var req TestConnectionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			errorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
	}

	client := s.deps.WebDAV
	if req.URL != "" {
		var err error
		client, err = webdav.NewClient(config.WebDAVConfig{
			URL:      req.URL,
			Username: req.Username,
			Password: req.Password,
		})
		if err != nil {
			c.JSON(http.StatusOK, TestConnectionResponse{Success: false, Error: err.Error()})
			return
		}
	}
	if client == nil {
		c.JSON(http.StatusOK, TestConnectionResponse{Success: false, Error: webdav.ErrNotConfigured.Error()})
		return
	}

	if err := client.TestConnection(c.Request.Context()); err != nil {
		c.JSON(http.StatusOK, TestConnectionResponse{Success: false, Insecure: client.Insecure(), Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, TestConnectionResponse{Success: true, Insecure: client.Insecure()})
}

// getStatus returns queue counters and the last connection checks
// GET /api/status
func (s *Server) getStatus(c *gin.Context) {
	resp := StatusResponse{
		Uploading:   s.isUploading(),
		Connections: map[string]monitor.State{},
	}

	for _, f := range s.deps.Queue.Snapshot() {
		resp.Queue.Total++
		switch f.Status.Kind {
		case queue.StatusReady, queue.StatusPending:
			resp.Queue.Ready++
		case queue.StatusSecured:
			resp.Queue.Secured++
		case queue.StatusError:
			resp.Queue.Failed++
		}
	}

	if s.deps.Monitor != nil {
		resp.Connections = s.deps.Monitor.States()
	}

	c.JSON(http.StatusOK, resp)
}

// checkConnections probes every remote right away
// POST /api/status/check
func (s *Server) checkConnections(c *gin.Context) {
	if s.deps.Monitor == nil {
		errorResponse(c, http.StatusServiceUnavailable, "Connection monitor is disabled")
		return
	}
	c.JSON(http.StatusOK, gin.H{"connections": s.deps.Monitor.CheckNow(c.Request.Context())})
}

// pauseMonitor stops periodic checks while no client is watching
// POST /api/status/pause
func (s *Server) pauseMonitor(c *gin.Context) {
	if s.deps.Monitor == nil {
		errorResponse(c, http.StatusServiceUnavailable, "Connection monitor is disabled")
		return
	}
	s.deps.Monitor.Pause()
	c.JSON(http.StatusOK, gin.H{"paused": true})
}

// resumeMonitor restarts periodic checks
// POST /api/status/resume
func (s *Server) resumeMonitor(c *gin.Context) {
	if s.deps.Monitor == nil {
		errorResponse(c, http.StatusServiceUnavailable, "Connection monitor is disabled")
		return
	}
	s.deps.Monitor.Resume()
	c.JSON(http.StatusOK, gin.H{"paused": false})
}
