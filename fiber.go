package accounts

import (
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
)

// NewFiberServer builds a fiber backed HTTP server with the account routes
// mounted. Callers that already run their own router should use
// RegisterAccountRoutes directly.
func NewFiberServer(opts ...AccountsControllerOption) router.Server[*fiber.App] {
	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:  true,
			StrictRouting: false,
		}))
	})

	RegisterAccountRoutes(srv.Router(), opts...)

	return srv
}
