package s3

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescribe(t *testing.T) {
	pdf := []byte("%PDF-1.7\n1 0 obj\n<< /Type /Catalog >>\nendobj\n")

	stored := Describe("documents/a/b.pdf", pdf)

	assert.Equal(t, "documents/a/b.pdf", stored.Path)
	assert.Equal(t, int64(len(pdf)), stored.Size)
	assert.Equal(t, "application/pdf", stored.MimeType)
	assert.Len(t, stored.Hash, 64)
	assert.Equal(t, stored.Hash, Describe("other-key", pdf).Hash)
}

func TestDescribe_PlainText(t *testing.T) {
	stored := Describe("notes.txt", []byte("minutes of the opening session"))
	assert.Equal(t, "text/plain; charset=utf-8", stored.MimeType)
}
