package router

import (
	"github.com/perpusgo/lending-api/internal/application"
	"github.com/perpusgo/lending-api/internal/container"
	pginfra "github.com/perpusgo/lending-api/internal/infrastructure/postgres"
	handlers "github.com/perpusgo/lending-api/internal/interface/http"
	"github.com/perpusgo/lending-api/internal/router/modules"
)

// buildModules constructs the repository, service and handler graph from the
// container singletons and returns the feature modules ready for registration.
func buildModules() []Module {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	pool := container.GetPGPool()
	rdb := container.GetRedis()

	users := pginfra.NewUserRepository(pool)
	books := pginfra.NewBookRepository(pool)
	borrowings := pginfra.NewBorrowingRepository(pool)
	uow := pginfra.NewTxRunner(pool)

	userSvc := application.NewUserService(users, borrowings, uow, logger)
	bookSvc := application.NewBookService(books, uow, rdb, logger, cfg.BookCacheTTL)
	borrowSvc := application.NewBorrowingService(users, books, borrowings, uow, logger,
		cfg.MaxActiveLoans, cfg.DailyFineRate, cfg.MaxLoanDays)
	borrowSvc.Cache = bookSvc

	jwt := container.GetJWT()
	return []Module{
		modules.NewUserModule(handlers.NewUserHandler(userSvc, logger), jwt),
		modules.NewBookModule(handlers.NewBookHandler(bookSvc, logger), jwt),
		modules.NewBorrowingModule(handlers.NewBorrowingHandler(borrowSvc, logger)),
	}
}

// InitModules wires all feature modules into the router registry. Call once
// during startup.
func InitModules(r *Registry) {
	for _, m := range buildModules() {
		r.Add(m)
	}
}
