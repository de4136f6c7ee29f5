package media

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"
)

// DefaultMaxBytes is the upload size limit (2 MiB).
const DefaultMaxBytes int64 = 2 << 20

// Accepted image content types mapped to their canonical extension.
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

// Validation errors for uploads. They are reported against the image field.
var (
	ErrTooLarge        = errors.New("image exceeds maximum size")
	ErrUnsupportedType = errors.New("image must be a JPEG, PNG or GIF file")
	ErrEmptyUpload     = errors.New("image file is empty")
)

// Upload is a validated image ready to be stored.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ReadUpload reads at most maxBytes from r and checks the sniffed content
// type. filename is the client-supplied name and is only used for naming.
func ReadUpload(r io.Reader, filename string, maxBytes int64) (*Upload, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyUpload
	}
	if int64(len(data)) > maxBytes {
		return nil, ErrTooLarge
	}

	ct := sniffContentType(data)
	if _, ok := allowedTypes[ct]; !ok {
		return nil, ErrUnsupportedType
	}

	return &Upload{Filename: filename, ContentType: ct, Data: data}, nil
}

// IsValidationError reports whether err is an upload validation failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrTooLarge) || errors.Is(err, ErrUnsupportedType) || errors.Is(err, ErrEmptyUpload)
}

func sniffContentType(data []byte) string {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	return http.DetectContentType(head)
}

// ObjectKey builds the storage key "<prefix>/<unix seconds>_<name>". Names
// are reduced to a safe character set and always end in the extension of
// the sniffed content type.
func ObjectKey(prefix, filename, contentType string, now time.Time) string {
	ext := allowedTypes[contentType]

	base := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = sanitizeName(base)
	if base == "" {
		base = "image"
	}

	name := fmt.Sprintf("%d_%s%s", now.Unix(), base, ext)
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

const maxNameLength = 100

func sanitizeName(s string) string {
	var b bytes.Buffer
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
		if b.Len() >= maxNameLength {
			break
		}
	}
	return strings.Trim(b.String(), "._")
}
