package realdebrid

import "github.com/shapedtime/hoardhelper/internal/mediatype"

// User is the account returned by GET /user
type User struct {
	ID         int    `json:"id"`
	Username   string `json:"username" validate:"required"`
	Email      string `json:"email"`
	Points     int    `json:"points"`
	Type       string `json:"type"`
	Premium    int    `json:"premium"`
	Expiration string `json:"expiration"` // RFC 3339
}

// ConnectionResult is the outcome of a connection test, shown to the user as is.
type ConnectionResult struct {
	Success    bool   `json:"success"`
	Username   string `json:"username,omitempty"`
	Expiration string `json:"expiration,omitempty"`
	Error      string `json:"error,omitempty"`
}

// AddMagnetResponse is returned by POST /torrents/addMagnet
type AddMagnetResponse struct {
	ID  string `json:"id" validate:"required"`
	URI string `json:"uri"`
}

// TorrentInfo is returned by GET /torrents/info/{id}
type TorrentInfo struct {
	ID               string                  `json:"id" validate:"required"`
	Filename         string                  `json:"filename"`
	OriginalFilename string                  `json:"original_filename"`
	Hash             string                  `json:"hash" validate:"required"`
	Bytes            int64                   `json:"bytes" validate:"gte=0"`
	OriginalBytes    int64                   `json:"original_bytes"`
	Host             string                  `json:"host"`
	Split            int                     `json:"split"`
	Progress         float64                 `json:"progress" validate:"gte=0,lte=100"`
	Status           string                  `json:"status" validate:"required"`
	Added            string                  `json:"added"`
	Files            []mediatype.TorrentFile `json:"files" validate:"dive"`
	Links            []string                `json:"links"`
	Ended            string                  `json:"ended,omitempty"`
	Speed            int64                   `json:"speed,omitempty"`
	Seeders          int                     `json:"seeders,omitempty"`
}

// Torrent statuses reported by the API
const (
	StatusMagnetConversion   = "magnet_conversion"
	StatusWaitingFilesSelect = "waiting_files_selection"
	StatusQueued             = "queued"
	StatusDownloading        = "downloading"
	StatusDownloaded         = "downloaded"
	StatusError              = "error"
	StatusDead               = "dead"
)

// Ready reports whether links can be unrestricted.
func (t *TorrentInfo) Ready() bool {
	return t.Status == StatusDownloaded
}

// Failed reports whether the torrent can never complete.
func (t *TorrentInfo) Failed() bool {
	switch t.Status {
	case StatusError, StatusDead, "magnet_error", "virus":
		return true
	}
	return false
}

// UnrestrictedLink is returned by POST /unrestrict/link
type UnrestrictedLink struct {
	ID       string `json:"id"`
	Filename string `json:"filename" validate:"required"`
	MimeType string `json:"mimeType"`
	Filesize int64  `json:"filesize"`
	Link     string `json:"link"`
	Host     string `json:"host"`
	Download string `json:"download" validate:"required,url"`
}

type apiErrorBody struct {
	Error     string `json:"error"`
	ErrorCode int    `json:"error_code"`
}
