package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"delivery/internal/domain"
	"delivery/internal/middleware"
	"delivery/internal/repository"
)

// UserHandler handles HTTP requests for users.
type UserHandler struct {
	userRepo repository.UserRepository
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userRepo repository.UserRepository) *UserHandler {
	return &UserHandler{userRepo: userRepo}
}

// CreateUserRequest is the HTTP request body for creating a user.
type CreateUserRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	IdentityID string `json:"identity_id"`
}

// UserResponse is the HTTP response for user data.
type UserResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	IdentityID string    `json:"identity_id"`
	CreatedAt  time.Time `json:"created_at"`
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		IdentityID: u.IdentityID,
		CreatedAt:  u.CreatedAt,
	}
}

// Create handles POST /v1/users
func (h *UserHandler) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.IdentityID = strings.TrimSpace(req.IdentityID)
	if req.Name == "" || req.Email == "" || req.IdentityID == "" {
		respondBadRequest(c, "name, email and identity_id are required")
		return
	}
	if !strings.Contains(req.Email, "@") || !strings.Contains(req.Email, ".") {
		respondBadRequest(c, "invalid email format")
		return
	}

	user := &domain.User{
		ID:         uuid.New().String(),
		Name:       req.Name,
		Email:      req.Email,
		IdentityID: req.IdentityID,
		CreatedAt:  time.Now(),
	}

	if err := h.userRepo.Create(c.Request.Context(), user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			c.JSON(http.StatusConflict, ErrorResponse{Error: "email already exists", Code: CodeConflict})
			return
		}
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, gin.H{"user": toUserResponse(user)})
}

// GetAll handles GET /v1/users
func (h *UserHandler) GetAll(c *gin.Context) {
	users, err := h.userRepo.GetAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]UserResponse, 0, len(users))
	for _, u := range users {
		response = append(response, toUserResponse(u))
	}

	respondJSON(c, http.StatusOK, gin.H{"users": response, "count": len(response)})
}

// Me handles GET /v1/me
func (h *UserHandler) Me(c *gin.Context) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Code: "unauthorized"})
		return
	}

	resp := gin.H{"identity": id}
	user, err := h.userRepo.GetByIdentityID(c.Request.Context(), id.Subject)
	switch {
	case err == nil:
		resp["user"] = toUserResponse(user)
	case !errors.Is(err, repository.ErrNotFound):
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, resp)
}
