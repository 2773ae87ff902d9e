package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"users-be/internal/middleware"
	"users-be/internal/models"
	"users-be/internal/service"
)

type UserController struct {
	userService service.UserService
	logger      *zap.Logger
}

func NewUserController(userService service.UserService, logger *zap.Logger) *UserController {
	return &UserController{
		userService: userService,
		logger:      logger,
	}
}

// Register handles POST /api/users
func (uc *UserController) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	user, err := uc.userService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, uc.logger, err)
		return
	}

	c.JSON(http.StatusCreated, models.NewUserResponse(user))
}

// List handles GET /api/users - every user except the requester, newest first
func (uc *UserController) List(c *gin.Context) {
	requesterID, ok := middleware.RequesterID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "User ID not found in token",
		})
		return
	}

	users, err := uc.userService.FindAll(c.Request.Context())
	if err != nil {
		respondError(c, uc.logger, err)
		return
	}

	response := models.UserListResponse{Users: make([]models.UserResponse, 0, len(users))}
	for _, user := range users {
		if user.ID == requesterID {
			continue
		}
		response.Users = append(response.Users, models.NewUserResponse(user))
	}

	c.JSON(http.StatusOK, response)
}

// Delete handles DELETE /api/users/:email - users cannot delete themselves
func (uc *UserController) Delete(c *gin.Context) {
	requesterID, ok := middleware.RequesterID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "User ID not found in token",
		})
		return
	}

	email := c.Param("email")
	target, err := uc.userService.FindOne(c.Request.Context(), email, "")
	if err != nil {
		respondError(c, uc.logger, err)
		return
	}
	if target == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "User not found",
		})
		return
	}

	if target.ID == requesterID {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Users cannot delete themselves",
		})
		return
	}

	deleted, err := uc.userService.Delete(c.Request.Context(), target.Email)
	if err != nil {
		respondError(c, uc.logger, err)
		return
	}

	uc.logger.Info("user deleted",
		zap.String("user_id", deleted.ID),
		zap.String("deleted_by", requesterID))

	// 204 carries no body
	c.Status(http.StatusNoContent)
}
