package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/perpusgo/lending-api/internal/application"
	"github.com/perpusgo/lending-api/internal/domain/entity"
	"github.com/perpusgo/lending-api/pkg/response"
	"github.com/perpusgo/lending-api/pkg/validation"
)

type UserHandler struct {
	Svc    *application.UserService
	Logger *logrus.Logger
}

func NewUserHandler(svc *application.UserService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type registerUserRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Role     string `json:"role" binding:"omitempty,oneof=member admin librarian"`
}

type updateUserRequest struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Role     string `json:"role" binding:"omitempty,oneof=member admin librarian"`
	Status   string `json:"status" binding:"omitempty,oneof=active inactive suspended"`
}

func userJSON(u *entity.User) gin.H {
	return gin.H{
		"user_id":    u.ID,
		"username":   u.Username,
		"email":      u.Email,
		"full_name":  u.FullName,
		"phone":      u.Phone,
		"role":       u.Role,
		"status":     u.Status,
		"created_at": u.CreatedAt,
		"updated_at": u.UpdatedAt,
	}
}

func (h *UserHandler) Register(c *gin.Context) {
	var req registerUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp := response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		c.JSON(resp.Status, resp)
		return
	}
	u, err := h.Svc.Register(c.Request.Context(), application.RegisterUserInput{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Phone:    req.Phone,
		Role:     entity.Role(req.Role),
	})
	if err != nil {
		fail(c, err)
		return
	}
	resp := response.Success(c, http.StatusCreated, userJSON(u), "user registered", nil)
	c.JSON(resp.Status, resp)
}

func (h *UserHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	u, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	resp := response.Success(c, http.StatusOK, userJSON(u), "user", nil)
	c.JSON(resp.Status, resp)
}

func (h *UserHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp := response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		c.JSON(resp.Status, resp)
		return
	}
	u, err := h.Svc.Update(c.Request.Context(), id, application.UpdateUserInput{
		FullName: req.FullName,
		Phone:    req.Phone,
		Role:     entity.Role(req.Role),
		Status:   entity.UserStatus(req.Status),
	})
	if err != nil {
		fail(c, err)
		return
	}
	resp := response.Success(c, http.StatusOK, userJSON(u), "user updated", nil)
	c.JSON(resp.Status, resp)
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	resp := response.Success[any](c, http.StatusOK, gin.H{"deleted": true}, "user deleted", nil)
	c.JSON(resp.Status, resp)
}

// PurgeBorrowings removes all loan records for a user while keeping the user.
func (h *UserHandler) PurgeBorrowings(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	removed, err := h.Svc.PurgeBorrowings(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	resp := response.Success[any](c, http.StatusOK, gin.H{"user_id": id, "removed": removed}, "borrowings purged", nil)
	c.JSON(resp.Status, resp)
}
