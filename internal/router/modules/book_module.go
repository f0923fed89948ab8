package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/perpusgo/lending-api/internal/container"
	handlers "github.com/perpusgo/lending-api/internal/interface/http"
	"github.com/perpusgo/lending-api/internal/interface/middleware"
	"github.com/perpusgo/lending-api/pkg/helpers"
)

// BookModule exposes catalog reads publicly; every catalog mutation is staff
// territory.
// Public: GET /api/books/:id
// Staff:  POST /api/books, PUT /api/books/:id,
//         PATCH /api/books/:id/copies, DELETE /api/books/:id

type BookModule struct {
	Handler *handlers.BookHandler
	JWT     *helpers.JWTManager
}

func NewBookModule(h *handlers.BookHandler, jwt *helpers.JWTManager) *BookModule {
	return &BookModule{Handler: h, JWT: jwt}
}

func (m *BookModule) Register(rg *gin.RouterGroup) {
	readLimiter := middleware.RateLimit(container.GetRedis(), 300, time.Minute,
		middleware.KeyByIP(), middleware.AllowPrivateIP())

	rg.GET("/books/:id", readLimiter, m.Handler.Get)

	staff := rg.Group("/")
	staff.Use(middleware.StaffOnly(m.JWT))
	{
		staff.POST("/books", m.Handler.Create)
		staff.PUT("/books/:id", m.Handler.Update)
		staff.PATCH("/books/:id/copies", m.Handler.SetCopies)
		staff.DELETE("/books/:id", m.Handler.Delete)
	}
}
