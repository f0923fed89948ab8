package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/perpusgo/lending-api/internal/container"
	handlers "github.com/perpusgo/lending-api/internal/interface/http"
	"github.com/perpusgo/lending-api/internal/interface/middleware"
	"github.com/perpusgo/lending-api/pkg/helpers"
)

// UserModule wires member routes and the staff-only user administration.
// Public: POST /api/users, GET /api/users/:id
// Staff:  PUT /api/users/:id, DELETE /api/users/:id,
//         DELETE /api/users/:id/borrowings

type UserModule struct {
	Handler *handlers.UserHandler
	JWT     *helpers.JWTManager
}

func NewUserModule(h *handlers.UserHandler, jwt *helpers.JWTManager) *UserModule {
	return &UserModule{Handler: h, JWT: jwt}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	registerLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute,
		middleware.KeyByIPAndPath(), middleware.AllowPrivateIP()) // 10 req/min per IP
	readLimiter := middleware.RateLimit(container.GetRedis(), 120, time.Minute,
		middleware.KeyByIP(), middleware.AllowPrivateIP())

	rg.POST("/users", registerLimiter, m.Handler.Register)
	rg.GET("/users/:id", readLimiter, m.Handler.Get)

	staff := rg.Group("/")
	staff.Use(middleware.StaffOnly(m.JWT))
	{
		staff.PUT("/users/:id", m.Handler.Update)
		staff.DELETE("/users/:id", m.Handler.Delete)
		staff.DELETE("/users/:id/borrowings", m.Handler.PurgeBorrowings)
	}
}
