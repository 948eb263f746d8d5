package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ridebook/internal/auth"
	"ridebook/internal/domain"
	"ridebook/internal/service"
)

// UserHandler handles HTTP requests for users.
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// CreateUserRequest is the HTTP request body for registering a profile.
type CreateUserRequest struct {
	UID   string `json:"uid"`
	Phone string `json:"phone"`
	Name  string `json:"name"`
}

// UpdateNameRequest is the HTTP request body for renaming a profile.
type UpdateNameRequest struct {
	Name string `json:"name"`
}

// UserResponse is the HTTP response for user data.
type UserResponse struct {
	UID   string `json:"uid"`
	Phone string `json:"phone"`
	Name  string `json:"name"`
}

func newUserResponse(u *domain.User) UserResponse {
	return UserResponse{UID: u.UID, Phone: u.Phone, Name: u.Name}
}

// CreateUser handles POST /user
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	ctx := c.Request.Context()
	if _, err := h.userService.CreateUser(ctx, auth.FromContext(ctx), service.CreateUserRequest{
		UID:   req.UID,
		Phone: req.Phone,
		Name:  req.Name,
	}); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, StatusResponse{Status: "created"})
}

// GetUser handles GET /user/:id where id is a phone number.
func (h *UserHandler) GetUser(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := h.userService.GetUser(ctx, auth.FromContext(ctx), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, newUserResponse(user))
}

// UpdateName handles PUT /user/:id/name where id is a phone number.
func (h *UserHandler) UpdateName(c *gin.Context) {
	var req UpdateNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	ctx := c.Request.Context()
	user, err := h.userService.UpdateName(ctx, auth.FromContext(ctx), c.Param("id"), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, newUserResponse(user))
}
