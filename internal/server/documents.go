package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mediread/vault/internal/common"
	"github.com/mediread/vault/internal/entity"
	"github.com/mediread/vault/internal/snapshot"
)

func (s *Server) handleListDocuments(c *gin.Context) {
	docs, err := s.docs.GetAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

// handleCreateDocument persists a confirmed document. A document date is
// mandatory; the server assigns the ID and upload timestamp.
func (s *Server) handleCreateDocument(c *gin.Context) {
	var doc entity.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		respondError(c, common.ValidationErrorf("invalid request body"))
		return
	}
	if strings.TrimSpace(doc.DocumentDate) == "" {
		respondError(c, common.ValidationErrorf("document date is required"))
		return
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	doc.UploadedAt = time.Now().UTC().Format(time.RFC3339)

	if err := s.docs.Put(c.Request.Context(), doc); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func (s *Server) handleGetDocument(c *gin.Context) {
	doc, err := s.docs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

type updateDocumentRequest struct {
	DocumentDate string                 `json:"documentDate"`
	Extracted    entity.ExtractedRecord `json:"extracted"`
}

// handleUpdateDocument replaces the editable fields of a stored document.
// The upload timestamp and raw text never change after creation.
func (s *Server) handleUpdateDocument(c *gin.Context) {
	var req updateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, common.ValidationErrorf("invalid request body"))
		return
	}
	if strings.TrimSpace(req.DocumentDate) == "" {
		respondError(c, common.ValidationErrorf("document date is required"))
		return
	}

	ctx := c.Request.Context()
	doc, err := s.docs.Get(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	doc.DocumentDate = req.DocumentDate
	doc.Extracted = req.Extracted
	doc.Extracted.Normalize()

	if err := s.docs.Put(ctx, *doc); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(c *gin.Context) {
	if err := s.docs.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleSnapshot recomputes the health snapshot from all documents.
func (s *Server) handleSnapshot(c *gin.Context) {
	docs, err := s.docs.GetAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot.Build(docs))
}

func (s *Server) handleExport(c *gin.Context) {
	data, err := s.exporter.ExportXLSX(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	filename := "mediread-export-" + time.Now().UTC().Format("2006-01-02") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
