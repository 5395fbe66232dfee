package s3

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"transparencia/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	uploadTimeout  = 10 * time.Minute
)

// Describe вычисляет размер, тип содержимого и SHA-256 файла до загрузки
func Describe(key string, data []byte) *domain.StoredFile {
	sum := sha256.Sum256(data)
	return &domain.StoredFile{
		Path:     key,
		Size:     int64(len(data)),
		MimeType: mimetype.Detect(data).String(),
		Hash:     hex.EncodeToString(sum[:]),
	}
}
