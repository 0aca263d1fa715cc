package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/biblioteca-api/internal/application/analytics"
	"github.com/tu-usuario/biblioteca-api/internal/application/auth"
	applending "github.com/tu-usuario/biblioteca-api/internal/application/lending"
	"github.com/tu-usuario/biblioteca-api/internal/application/usecase"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC      *auth.UseCase
	BookUC      *usecase.BookUseCase
	UserUC      *usecase.UserUseCase
	RecordUC    *usecase.RecordUseCase
	LendingUC   *applending.UseCase
	DashboardUC *analytics.DashboardUseCase
	JWTSecret   string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Perfil propio (cualquier rol)
	userHandler := NewUserHandler(deps.UserUC)
	protected.Get("/me", userHandler.Me)
	protected.Put("/me", userHandler.UpdateMe)
	protected.Put("/me/password", userHandler.ChangePassword)

	// Ciclo de préstamo y vistas del lector
	lendingHandler := NewLendingHandler(deps.LendingUC)
	recordHandler := NewRecordHandler(deps.RecordUC)
	bookHandler := NewBookHandler(deps.BookUC)
	my := protected.Group("/my", RequireLector())
	my.Get("/books", bookHandler.SearchForBorrower)
	my.Post("/borrows", lendingHandler.Borrow)
	my.Get("/borrows/summary", lendingHandler.Snapshot)
	my.Post("/returns", lendingHandler.Return)
	my.Post("/renewals", lendingHandler.Renew)
	my.Get("/records", recordHandler.MyRecords)

	// Catálogo: consulta para todo usuario autenticado, mutación solo admin
	books := protected.Group("/books")
	books.Get("/", bookHandler.Search)
	books.Get("/:id", bookHandler.GetByID)
	admin := RequireAdmin()
	books.Post("/", admin, bookHandler.Create)
	books.Put("/:id", admin, bookHandler.Update)
	books.Delete("/:id", admin, bookHandler.Delete)
	books.Post("/batch-delete", admin, bookHandler.DeleteBatch)

	// Administración de usuarios (solo admin)
	users := protected.Group("/users", RequireAdmin())
	users.Get("/", userHandler.Search)
	users.Get("/:id", userHandler.GetByID)
	users.Put("/:id", userHandler.Update)
	users.Delete("/:id", userHandler.Delete)
	users.Post("/batch-delete", userHandler.DeleteBatch)

	// Historial de préstamos (solo admin)
	records := protected.Group("/records", RequireAdmin())
	records.Get("/", recordHandler.Search)

	// Panel de administración (solo admin)
	dashboard := protected.Group("/dashboard", RequireAdmin())
	dashboardHandler := NewDashboardHandler(deps.DashboardUC)
	dashboard.Get("/stats", dashboardHandler.Stats)
}
