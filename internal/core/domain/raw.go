package domain

// RawDocument is an upload before normalisation.
type RawDocument struct {
	// ID reuses an existing document id so the upload replaces that document.
	// Empty means a fresh id is assigned.
	ID string

	// Filename is the name the client supplied.
	Filename string

	// MIMEType is the declared content type, if any.
	MIMEType string

	// Content is the raw bytes.
	Content []byte
}
