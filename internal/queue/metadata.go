package queue

import (
	"github.com/shapedtime/hoardhelper/internal/exporter"
	"github.com/shapedtime/hoardhelper/internal/parser"
)

const (
	MsgParseFailed = "Could not parse metadata"
	MsgPathFailed  = "Path generation failed"
)

// FileMetadata is a parsed file waiting in the upload queue.
type FileMetadata struct {
	ID string `json:"id"`
	parser.ParseResult
	Proposed string `json:"proposed"`
	Valid    bool   `json:"valid"`
	Status   Status `json:"status"`
	RetryID  string `json:"retryId,omitempty"` // history entry being retried
}

// Evaluate fills Proposed, Valid and Status from the parse result. A file
// without a series name, or without a path, is invalid.
func Evaluate(r parser.ParseResult, bases exporter.Bases) FileMetadata {
	meta := FileMetadata{ParseResult: r}

	if r.Series == "" {
		meta.Status = Failed(MsgParseFailed)
		return meta
	}

	p, ok := exporter.BuildPath(&r, bases)
	if !ok {
		meta.Status = Failed(MsgPathFailed)
		return meta
	}

	meta.Proposed = p
	meta.Valid = true
	meta.Status = Ready()
	return meta
}
