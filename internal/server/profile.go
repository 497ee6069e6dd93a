package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mediread/vault/internal/common"
	"github.com/mediread/vault/internal/entity"
)

func (s *Server) handleGetProfile(c *gin.Context) {
	profile, err := s.profiles.Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (s *Server) handleSaveProfile(c *gin.Context) {
	var profile entity.Profile
	if err := c.ShouldBindJSON(&profile); err != nil {
		respondError(c, common.ValidationErrorf("invalid request body"))
		return
	}
	if err := s.profiles.Save(c.Request.Context(), profile); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (s *Server) handleListConversations(c *gin.Context) {
	convs, err := s.convs.GetAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": convs})
}

// handleSaveConversation upserts a whole chat thread. The client owns the
// message list; the server fills in identity and timestamps when absent.
func (s *Server) handleSaveConversation(c *gin.Context) {
	var conv entity.Conversation
	if err := c.ShouldBindJSON(&conv); err != nil {
		respondError(c, common.ValidationErrorf("invalid request body"))
		return
	}
	now := time.Now().UTC().Format(time.RFC3339)
	if conv.ID == "" {
		conv.ID = uuid.NewString()
		conv.CreatedAt = now
	}
	if conv.CreatedAt == "" {
		conv.CreatedAt = now
	}
	conv.UpdatedAt = now

	if err := s.convs.Put(c.Request.Context(), conv); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (s *Server) handleGetConversation(c *gin.Context) {
	conv, err := s.convs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (s *Server) handleDeleteConversation(c *gin.Context) {
	if err := s.convs.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
