package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chatrelay/backend/internal/auth"
)

// IssueToken returns a signed JWT for an existing user. The identity
// service owns real login; this endpoint is the development bootstrap
// for socket clients.
func (h *Handler) IssueToken(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}

	user, err := h.Store.GetUserByID(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	token, err := auth.NewToken(h.JWT, user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "userId": user.ID})
}
