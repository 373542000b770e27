package mediatype

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateFiles splits a listing into well-formed entries and rejected ones.
// Detect tolerates malformed input; callers at a trust boundary use this first.
func ValidateFiles(files []TorrentFile) ([]TorrentFile, []RejectedFile) {
	valid := make([]TorrentFile, 0, len(files))
	var rejected []RejectedFile

	for _, f := range files {
		if err := validate.Struct(f); err != nil {
			rejected = append(rejected, RejectedFile{File: f, Reason: describe(err)})
			continue
		}
		valid = append(valid, f)
	}

	return valid, rejected
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return strings.Join(parts, ", ")
}
