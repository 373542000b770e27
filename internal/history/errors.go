package history

import "errors"

var (
	ErrNotFound       = errors.New("history entry not found")
	ErrNotRetryable   = errors.New("only failed uploads can be retried")
	ErrAlreadyRetried = errors.New("upload was already retried")
)
