package httpapi

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// handleUpload ingests a multipart "file" field.
func (s *Server) handleUpload(c *gin.Context) {
	if c.Request.ContentLength > s.maxUploadBytes {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("upload exceeds %d bytes", s.maxUploadBytes),
		})
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUploadBytes)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		if statusFor(err) == http.StatusRequestEntityTooLarge {
			abortWithError(c, err)
			return
		}
		abortWithError(c, fmt.Errorf("%w: multipart field \"file\" is required", domain.ErrValidation))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		abortWithError(c, err)
		return
	}

	result, err := s.ports.Document.Ingest(c.Request.Context(), &domain.RawDocument{
		Filename: header.Filename,
		MIMEType: header.Header.Get("Content-Type"),
		Content:  content,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) handleListDocuments(c *gin.Context) {
	docs, err := s.ports.Document.List(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	if docs == nil {
		docs = []domain.DocumentSummary{}
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

func (s *Server) handleGetDocument(c *gin.Context) {
	doc, err := s.ports.Document.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(c *gin.Context) {
	id := c.Param("id")
	if err := s.ports.Document.Delete(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"document_id": id, "status": "deleted"})
}
