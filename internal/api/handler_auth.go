package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AuthLogin exchanges credentials for a token.
type AuthLogin interface {
	Login(userID, password string) (string, error)
}

type AuthHandler struct {
	auth AuthLogin
}

func NewAuthHandler(auth AuthLogin) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login handles POST /login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		UserID   string `json:"user_id"`
		Password string `json:"password"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	token, err := h.auth.Login(req.UserID, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id or password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
