package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/perpusgo/lending-api/internal/container"
	handlers "github.com/perpusgo/lending-api/internal/interface/http"
	"github.com/perpusgo/lending-api/internal/interface/middleware"
)

// BorrowingModule registers the lending workflows.
// POST /api/borrowings            borrow a copy
// POST /api/borrowings/:id/return close a loan
// GET  /api/borrowings/:id        loan record
// GET  /api/borrowings/:id/fine   fine owed right now
// GET  /api/users/:id/borrowings  a user's loan history

type BorrowingModule struct {
	Handler *handlers.BorrowingHandler
}

func NewBorrowingModule(h *handlers.BorrowingHandler) *BorrowingModule {
	return &BorrowingModule{Handler: h}
}

func (m *BorrowingModule) Register(rg *gin.RouterGroup) {
	// The borrow path is the write hot spot, so it gets the tighter limit.
	borrowLimiter := middleware.RateLimit(container.GetRedis(), 30, time.Minute,
		middleware.KeyByIPAndPath(), middleware.AllowPrivateIP())
	readLimiter := middleware.RateLimit(container.GetRedis(), 120, time.Minute,
		middleware.KeyByIP(), middleware.AllowPrivateIP())

	rg.POST("/borrowings", borrowLimiter, m.Handler.Borrow)
	rg.POST("/borrowings/:id/return", borrowLimiter, m.Handler.Return)
	rg.GET("/borrowings/:id", readLimiter, m.Handler.Get)
	rg.GET("/borrowings/:id/fine", readLimiter, m.Handler.Fine)
	rg.GET("/users/:id/borrowings", readLimiter, m.Handler.ListByUser)
}
