package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/pathway/internal/server/http/dto"
)

const welcomeMessage = "Welcome to Pathway!"

// Root handles GET /.
func Root(c *gin.Context) {
	c.JSON(http.StatusOK, dto.MessageResponse{Message: welcomeMessage})
}
