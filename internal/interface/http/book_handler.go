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

type BookHandler struct {
	Svc    *application.BookService
	Logger *logrus.Logger
}

func NewBookHandler(svc *application.BookService, logger *logrus.Logger) *BookHandler {
	return &BookHandler{Svc: svc, Logger: logger}
}

type createBookRequest struct {
	ISBN            string `json:"isbn" binding:"required"`
	Title           string `json:"title" binding:"required"`
	AuthorID        int64  `json:"author_id"`
	PublisherID     int64  `json:"publisher_id"`
	CategoryID      int64  `json:"category_id"`
	PublicationYear int    `json:"publication_year"`
	Pages           int    `json:"pages"`
	Language        string `json:"language"`
	Description     string `json:"description"`
	TotalCopies     int    `json:"total_copies" binding:"required,gt=0"`
	AvailableCopies int    `json:"available_copies" binding:"gte=0"`
	Price           int64  `json:"price" binding:"gte=0"`
	Location        string `json:"location"`
}

type updateBookRequest struct {
	Title       string `json:"title"`
	Language    string `json:"language"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Price       *int64 `json:"price"`
	Status      string `json:"status" binding:"omitempty,oneof=available unavailable retired"`
}

type setCopiesRequest struct {
	AvailableCopies *int `json:"available_copies" binding:"required,gte=0"`
}

func bookJSON(b *entity.Book) gin.H {
	return gin.H{
		"book_id":          b.ID,
		"isbn":             b.ISBN,
		"title":            b.Title,
		"author_id":        b.AuthorID,
		"publisher_id":     b.PublisherID,
		"category_id":      b.CategoryID,
		"publication_year": b.PublicationYear,
		"pages":            b.Pages,
		"language":         b.Language,
		"description":      b.Description,
		"total_copies":     b.TotalCopies,
		"available_copies": b.AvailableCopies,
		"price":            b.Price,
		"location":         b.Location,
		"status":           b.Status,
		"created_at":       b.CreatedAt,
		"updated_at":       b.UpdatedAt,
	}
}

func (h *BookHandler) Create(c *gin.Context) {
	var req createBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp := response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		c.JSON(resp.Status, resp)
		return
	}
	b, err := h.Svc.Create(c.Request.Context(), application.CreateBookInput{
		ISBN:            req.ISBN,
		Title:           req.Title,
		AuthorID:        req.AuthorID,
		PublisherID:     req.PublisherID,
		CategoryID:      req.CategoryID,
		PublicationYear: req.PublicationYear,
		Pages:           req.Pages,
		Language:        req.Language,
		Description:     req.Description,
		TotalCopies:     req.TotalCopies,
		AvailableCopies: req.AvailableCopies,
		Price:           req.Price,
		Location:        req.Location,
	})
	if err != nil {
		fail(c, err)
		return
	}
	resp := response.Success(c, http.StatusCreated, bookJSON(b), "book created", nil)
	c.JSON(resp.Status, resp)
}

func (h *BookHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	b, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	resp := response.Success(c, http.StatusOK, bookJSON(b), "book", nil)
	c.JSON(resp.Status, resp)
}

func (h *BookHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req updateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp := response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		c.JSON(resp.Status, resp)
		return
	}
	b, err := h.Svc.Update(c.Request.Context(), id, application.UpdateBookInput{
		Title:       req.Title,
		Language:    req.Language,
		Description: req.Description,
		Location:    req.Location,
		Price:       req.Price,
		Status:      entity.BookStatus(req.Status),
	})
	if err != nil {
		fail(c, err)
		return
	}
	resp := response.Success(c, http.StatusOK, bookJSON(b), "book updated", nil)
	c.JSON(resp.Status, resp)
}

func (h *BookHandler) SetCopies(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req setCopiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp := response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		c.JSON(resp.Status, resp)
		return
	}
	if err := h.Svc.SetAvailableCopies(c.Request.Context(), id, *req.AvailableCopies); err != nil {
		fail(c, err)
		return
	}
	resp := response.Success[any](c, http.StatusOK, gin.H{"book_id": id, "available_copies": *req.AvailableCopies}, "copies updated", nil)
	c.JSON(resp.Status, resp)
}

func (h *BookHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	resp := response.Success[any](c, http.StatusOK, gin.H{"deleted": true}, "book deleted", nil)
	c.JSON(resp.Status, resp)
}
