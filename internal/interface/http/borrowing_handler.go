package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/perpusgo/lending-api/internal/application"
	"github.com/perpusgo/lending-api/internal/domain/entity"
	"github.com/perpusgo/lending-api/pkg/response"
	"github.com/perpusgo/lending-api/pkg/validation"
)

type BorrowingHandler struct {
	Svc    *application.BorrowingService
	Logger *logrus.Logger
}

func NewBorrowingHandler(svc *application.BorrowingService, logger *logrus.Logger) *BorrowingHandler {
	return &BorrowingHandler{Svc: svc, Logger: logger}
}

type borrowRequest struct {
	UserID   int64 `json:"user_id" binding:"required,gt=0"`
	BookID   int64 `json:"book_id" binding:"required,gt=0"`
	LoanDays int   `json:"loan_days" binding:"required,gt=0"`
}

func borrowingJSON(b *entity.Borrowing) gin.H {
	var returned *time.Time
	if b.ReturnDate != nil {
		returned = b.ReturnDate
	}
	return gin.H{
		"borrowing_id": b.ID,
		"user_id":      b.UserID,
		"book_id":      b.BookID,
		"borrow_date":  b.BorrowDate,
		"due_date":     b.DueDate,
		"return_date":  returned,
		"status":       b.Status,
		"fine_amount":  b.FineAmount,
	}
}

func (h *BorrowingHandler) Borrow(c *gin.Context) {
	var req borrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp := response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		c.JSON(resp.Status, resp)
		return
	}
	b, err := h.Svc.Borrow(c.Request.Context(), req.UserID, req.BookID, req.LoanDays)
	if err != nil {
		fail(c, err)
		return
	}
	resp := response.Success(c, http.StatusCreated, borrowingJSON(b), "book borrowed", nil)
	c.JSON(resp.Status, resp)
}

func (h *BorrowingHandler) Return(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	returned, err := h.Svc.Return(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	b, err := h.Svc.FindByID(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	resp := response.Success(c, http.StatusOK, gin.H{
		"returned":    returned,
		"fine_amount": b.FineAmount,
		"return_date": b.ReturnDate,
	}, "book returned", nil)
	c.JSON(resp.Status, resp)
}

func (h *BorrowingHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	b, err := h.Svc.FindByID(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	resp := response.Success(c, http.StatusOK, borrowingJSON(b), "borrowing", nil)
	c.JSON(resp.Status, resp)
}

func (h *BorrowingHandler) Fine(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	fine, err := h.Svc.CalculateFine(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	resp := response.Success(c, http.StatusOK, gin.H{"borrowing_id": id, "fine_amount": fine}, "fine", nil)
	c.JSON(resp.Status, resp)
}

func (h *BorrowingHandler) ListByUser(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	borrowings, err := h.Svc.ListByUser(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	out := make([]gin.H, 0, len(borrowings))
	for _, b := range borrowings {
		out = append(out, borrowingJSON(b))
	}
	resp := response.Success(c, http.StatusOK, out, "borrowings", gin.H{"count": len(out)})
	c.JSON(resp.Status, resp)
}
