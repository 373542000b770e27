package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shapedtime/hoardhelper/internal/queue"
)

// UploadStatus is the outcome of one upload attempt series.
type UploadStatus string

const (
	UploadSuccess UploadStatus = "success"
	UploadFailed  UploadStatus = "failed"
)

// Item is one finished upload, successful or not.
type Item struct {
	ID           string             `json:"id"`
	File         queue.FileMetadata `json:"file"`
	UploadedAt   time.Time          `json:"uploadedAt"`
	UploadStatus UploadStatus       `json:"uploadStatus"`
	ErrorMessage string             `json:"errorMessage,omitempty"`
	IsRetry      bool               `json:"isRetry"`
	Retried      bool               `json:"retried"` // a later retry superseded this entry
}

// Repository handles upload history database operations
type Repository struct {
	db *DB
}

// NewRepository creates a new history repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

type scanner interface {
	Scan(dest ...interface{}) error
}

const itemColumns = `id, file_json, uploaded_at, upload_status, error_message, is_retry, retried`

func scanItem(s scanner) (*Item, error) {
	var (
		it       Item
		fileJSON string
		uploaded int64
		errMsg   sql.NullString
	)
	if err := s.Scan(&it.ID, &fileJSON, &uploaded, &it.UploadStatus, &errMsg, &it.IsRetry, &it.Retried); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(fileJSON), &it.File); err != nil {
		return nil, fmt.Errorf("failed to decode file metadata of %s: %w", it.ID, err)
	}
	it.UploadedAt = time.UnixMilli(uploaded).UTC()
	it.ErrorMessage = errMsg.String
	return &it, nil
}

// Record stores a finished upload. ID and UploadedAt are filled when empty.
func (r *Repository) Record(ctx context.Context, it *Item) error {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	if it.UploadedAt.IsZero() {
		it.UploadedAt = time.Now().UTC()
	}

	fileJSON, err := json.Marshal(it.File)
	if err != nil {
		return fmt.Errorf("failed to encode file metadata: %w", err)
	}

	var errMsg sql.NullString
	if it.ErrorMessage != "" {
		errMsg = sql.NullString{String: it.ErrorMessage, Valid: true}
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO upload_history (id, original_name, proposed, media_type, file_json, uploaded_at, upload_status, error_message, is_retry, retried)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, it.ID, it.File.OriginalName, it.File.Proposed, string(it.File.Type), string(fileJSON),
		it.UploadedAt.UnixMilli(), string(it.UploadStatus), errMsg, it.IsRetry, it.Retried)
	if err != nil {
		return fmt.Errorf("failed to record history item: %w", err)
	}
	return nil
}

// Get returns a single entry by ID
func (r *Repository) Get(ctx context.Context, id string) (*Item, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM upload_history WHERE id = ?`, id)
	it, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get history item: %w", err)
	}
	return it, nil
}

// List returns the newest entries first. limit <= 0 returns everything.
func (r *Repository) List(ctx context.Context, limit int) ([]*Item, error) {
	query := `SELECT ` + itemColumns + ` FROM upload_history ORDER BY uploaded_at DESC, rowid DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	items := []*Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Delete removes one entry
func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM upload_history WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete history item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Clear removes every entry and returns how many were deleted
func (r *Repository) Clear(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM upload_history`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear history: %w", err)
	}
	return res.RowsAffected()
}

// PrepareRetry marks a failed entry as retried and returns its file ready to
// be queued again. An entry can be retried once; later calls return
// ErrAlreadyRetried.
func (r *Repository) PrepareRetry(ctx context.Context, id string) (queue.FileMetadata, error) {
	it, err := r.Get(ctx, id)
	if err != nil {
		return queue.FileMetadata{}, err
	}
	if it.UploadStatus != UploadFailed {
		return queue.FileMetadata{}, ErrNotRetryable
	}
	if it.Retried {
		return queue.FileMetadata{}, ErrAlreadyRetried
	}

	res, err := r.db.ExecContext(ctx, `UPDATE upload_history SET retried = TRUE WHERE id = ? AND retried = FALSE`, id)
	if err != nil {
		return queue.FileMetadata{}, fmt.Errorf("failed to mark history item retried: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return queue.FileMetadata{}, ErrAlreadyRetried
	}

	file := it.File
	file.ID = ""
	file.RetryID = id
	file.Status = queue.Ready()
	return file, nil
}

// Stats counts entries per status
func (r *Repository) Stats(ctx context.Context) (map[UploadStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT upload_status, COUNT(*) FROM upload_history GROUP BY upload_status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count history: %w", err)
	}
	defer rows.Close()

	out := map[UploadStatus]int{UploadSuccess: 0, UploadFailed: 0}
	for rows.Next() {
		var (
			s UploadStatus
			n int
		)
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		out[s] = n
	}
	return out, rows.Err()
}
