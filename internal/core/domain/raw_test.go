package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRawDocument_Fields(t *testing.T) {
	raw := RawDocument{
		ID:       "doc-1",
		Filename: "notes.txt",
		MIMEType: "text/plain",
		Content:  []byte("hello"),
	}

	assert.Equal(t, "doc-1", raw.ID)
	assert.Equal(t, "notes.txt", raw.Filename)
	assert.Equal(t, "text/plain", raw.MIMEType)
	assert.Equal(t, []byte("hello"), raw.Content)
}
