package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kaushalvasoya/homeco-real-estate/internal/auth"
	"github.com/kaushalvasoya/homeco-real-estate/internal/config"
	"github.com/kaushalvasoya/homeco-real-estate/internal/services"
)

// AuthHandler handles admin login.
type AuthHandler struct {
	cfg          *config.Config
	adminService services.IAdminService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(cfg *config.Config, adminService services.IAdminService) *AuthHandler {
	return &AuthHandler{cfg: cfg, adminService: adminService}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/auth/login. Unknown email and wrong password get
// the same response so the endpoint does not leak which admins exist.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "Invalid request body"})
		return
	}

	admin, err := h.adminService.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusUnauthorized, gin.H{"msg": "Invalid"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "Server error"})
		}
		return
	}

	if !auth.CheckPasswordHash(req.Password, admin.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"msg": "Invalid"})
		return
	}

	token, err := auth.GenerateJWT(admin.ID.Hex(), h.cfg.JwtSecret, h.cfg.JwtTTL)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
