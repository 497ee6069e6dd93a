package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mediread/vault/internal/chat"
	"github.com/mediread/vault/internal/common"
	"github.com/mediread/vault/internal/entity"
	"github.com/mediread/vault/internal/snapshot"
)

type extractRequest struct {
	Text string `json:"text"`
}

// handleExtract runs raw document text through structured extraction and
// returns the typed record. The record is NOT persisted here; the client
// confirms it first and then posts the full document.
func (s *Server) handleExtract(c *gin.Context) {
	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, common.ValidationErrorf("invalid request body"))
		return
	}

	result, err := s.extractor.Extract(c.Request.Context(), req.Text)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"extracted":   result.Record,
		"needsReview": result.NeedsReview,
	})
}

type chatRequest struct {
	Question string               `json:"question"`
	History  []entity.ChatMessage `json:"history"`
}

// handleChat answers a question against the stored profile and the
// snapshot derived from all documents.
func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, common.ValidationErrorf("invalid request body"))
		return
	}

	ctx := c.Request.Context()

	profile, err := s.profiles.Get(ctx)
	if err != nil && common.HTTPStatus(err) != http.StatusNotFound {
		respondError(c, err)
		return
	}

	docs, err := s.docs.GetAll(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	snap := snapshot.Build(docs)

	reply, err := s.chat.Ask(ctx, chat.Request{
		Question: req.Question,
		Profile:  profile,
		Snapshot: &snap,
		History:  req.History,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reply": reply})
}
