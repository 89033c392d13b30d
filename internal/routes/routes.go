package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"gorm.io/gorm"

	"github.com/example/ariss/internal/config"
	"github.com/example/ariss/internal/handlers"
	"github.com/example/ariss/internal/logger"
	"github.com/example/ariss/internal/metrics"
	"github.com/example/ariss/internal/middleware"
	"github.com/example/ariss/internal/models"
	"github.com/example/ariss/internal/services"
)

// Deps are the process-wide collaborators the routes are built from.
type Deps struct {
	DB        *gorm.DB
	Config    *config.Config
	OTP       *services.OTPService
	Accounts  *services.AccountService
	Staff     *services.StaffService
	Discounts *services.DiscountService
	Orders    *services.OrderService
	Ledgers   *services.LedgerService
	RMAs      *services.RMAService
	Wishlist  *services.WishlistService
}

// NewApp builds the fiber app with the shared middleware chain and all routes.
func NewApp(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "ARISS API",
		ErrorHandler: handlers.ErrorHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.Middleware())
	app.Use(metrics.Middleware())

	Register(app, deps)
	return app
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, deps Deps) {
	cfg := deps.Config
	db := deps.DB

	authHandler := handlers.NewAuthHandler(deps.OTP, deps.Accounts, deps.Staff, cfg)
	accountHandler := handlers.NewAccountHandler(db, deps.Accounts)
	catalogHandler := handlers.NewCatalogHandler(db)
	productHandler := handlers.NewProductHandler(db)
	discountHandler := handlers.NewDiscountHandler(deps.Discounts)
	orderHandler := handlers.NewOrderHandler(deps.Orders)
	ledgerHandler := handlers.NewLedgerHandler(deps.Ledgers)
	rmaHandler := handlers.NewRMAHandler(deps.RMAs)
	wishlistHandler := handlers.NewWishlistHandler(deps.Wishlist)
	courseHandler := handlers.NewCourseHandler(db)
	adminHandler := handlers.NewAdminHandler(db)

	authed := middleware.AuthMiddleware(cfg.JWTSecret)
	optional := middleware.OptionalAuth(cfg.JWTSecret)
	staff := middleware.RequireRoles(models.StaffRoles...)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	dealer := middleware.RequireRoles(models.RoleDealer)
	dealerOrStaff := middleware.RequireRoles(models.RoleDealer, models.RoleAdmin, models.RoleEmployee)
	anyOTPRole := middleware.RequireRoles(models.OTPRoles...)

	otpLimiter := limiter.New(limiter.Config{
		Max:        5,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, "too many otp requests, try again later")
		},
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true, "status": "ok"})
	})
	app.Get("/metrics", metrics.Handler())

	api := app.Group("/api")

	// OTP and sessions
	api.Post("/otp", otpLimiter, authHandler.SendOTP)
	api.Post("/otp/verify", authHandler.VerifyOTP)
	api.Post("/users/login", authHandler.Login)
	api.Post("/users/logout", authHandler.Logout)
	api.Post("/admin/login", authHandler.AdminLogin)
	api.Post("/employee/login", authHandler.EmployeeLogin)
	api.Post("/employee/register", authHandler.EmployeeRegister)

	// Registration and profiles
	api.Post("/dealer/register", accountHandler.RegisterDealer)
	api.Post("/technician/register", accountHandler.RegisterTechnician)
	api.Post("/backoffice/register", accountHandler.RegisterBackOffice)
	api.Get("/dealer/profile", authed, dealer, accountHandler.Profile)
	api.Get("/technician/profile", authed, middleware.RequireRoles(models.RoleTechnician), accountHandler.Profile)
	api.Get("/backoffice/profile", authed, middleware.RequireRoles(models.RoleBackOffice), accountHandler.Profile)
	api.Get("/users/me", authed, anyOTPRole, accountHandler.Profile)
	api.Get("/staff/me", authed, staff, authHandler.StaffProfile)

	// Approval
	api.Get("/dealer", authed, staff, accountHandler.ListDealers)
	api.Get("/dealer/:id", authed, staff, accountHandler.GetDealer)
	api.Patch("/dealer/:id/approve", authed, staff, accountHandler.SetApproval(models.RoleDealer, true))
	api.Patch("/dealer/:id/disapprove", authed, staff, accountHandler.SetApproval(models.RoleDealer, false))
	api.Get("/technician", authed, staff, accountHandler.ListTechnicians)
	api.Patch("/technician/:id/approve", authed, staff, accountHandler.SetApproval(models.RoleTechnician, true))
	api.Patch("/technician/:id/disapprove", authed, staff, accountHandler.SetApproval(models.RoleTechnician, false))
	api.Get("/backoffice", authed, staff, accountHandler.ListBackOffices)
	api.Patch("/backoffice/:id/approve", authed, staff, accountHandler.SetApproval(models.RoleBackOffice, true))
	api.Patch("/backoffice/:id/disapprove", authed, staff, accountHandler.SetApproval(models.RoleBackOffice, false))
	api.Get("/employee", authed, adminOnly, accountHandler.ListEmployees)
	api.Patch("/employee/:id/approve", authed, adminOnly, accountHandler.SetApproval(models.RoleEmployee, true))
	api.Patch("/employee/:id/disapprove", authed, adminOnly, accountHandler.SetApproval(models.RoleEmployee, false))

	// Catalog
	api.Get("/categories", catalogHandler.ListCategories)
	api.Get("/categories/:id", catalogHandler.GetCategory)
	api.Post("/categories", authed, staff, catalogHandler.CreateCategory)
	api.Put("/categories/:id", authed, staff, catalogHandler.UpdateCategory)
	api.Delete("/categories/:id", authed, staff, catalogHandler.DeleteCategory)

	api.Get("/subcategories", catalogHandler.ListSubcategories)
	api.Get("/subcategories/:id", catalogHandler.GetSubcategory)
	api.Post("/subcategories", authed, staff, catalogHandler.CreateSubcategory)
	api.Put("/subcategories/:id", authed, staff, catalogHandler.UpdateSubcategory)
	api.Delete("/subcategories/:id", authed, staff, catalogHandler.DeleteSubcategory)

	api.Get("/products", optional, productHandler.ListProducts)
	api.Get("/products/:id", productHandler.GetProduct)
	api.Post("/products", authed, staff, productHandler.CreateProduct)
	api.Put("/products/:id", authed, staff, productHandler.UpdateProduct)
	api.Delete("/products/:id", authed, staff, productHandler.DeleteProduct)

	// Discounts
	api.Post("/discount", authed, staff, discountHandler.Create)
	api.Post("/discount/cleanup", authed, staff, discountHandler.Cleanup)
	api.Get("/discount", authed, dealerOrStaff, discountHandler.List)
	api.Get("/discount/:discount_id", authed, dealerOrStaff, discountHandler.Get)
	api.Delete("/discount/:discount_id", authed, staff, discountHandler.Delete)

	// Orders and payments
	api.Post("/order", authed, dealer, orderHandler.CreateOrder)
	api.Post("/order/verify", authed, dealer, orderHandler.VerifyPayment)
	api.Get("/order", authed, dealerOrStaff, orderHandler.ListOrders)
	api.Get("/order/:order_id", authed, dealerOrStaff, orderHandler.GetOrder)
	api.Patch("/order/:order_id/status", authed, staff, orderHandler.UpdateStatus)
	api.Delete("/order/:order_id", authed, dealerOrStaff, orderHandler.CancelOrder)
	api.Post("/payment/webhook", orderHandler.Webhook)

	api.Get("/ledger", authed, dealerOrStaff, ledgerHandler.List)
	api.Post("/ledger/payment", authed, dealerOrStaff, ledgerHandler.RecordPayment)

	// RMA
	api.Post("/rma", optional, rmaHandler.Create)
	api.Get("/rma", authed, staff, rmaHandler.List)
	api.Get("/rma/:rma_id", authed, staff, rmaHandler.Get)
	api.Put("/rma/:rma_id/accept", authed, staff, rmaHandler.Transition(models.RMAStatusAccepted))
	api.Put("/rma/:rma_id/reject", authed, staff, rmaHandler.Transition(models.RMAStatusRejected))
	api.Put("/rma/:rma_id/resolve", authed, staff, rmaHandler.Transition(models.RMAStatusResolved))
	api.Delete("/rma/:rma_id", authed, staff, rmaHandler.Delete)

	// Wishlist
	api.Get("/wishlist", authed, dealer, wishlistHandler.List)
	api.Post("/wishlist", authed, dealer, wishlistHandler.Add)
	api.Delete("/wishlist/:id", authed, dealer, wishlistHandler.Remove)

	// Courses
	api.Get("/courses", optional, courseHandler.List)
	api.Get("/courses/:id", optional, courseHandler.Get)
	api.Post("/courses", authed, staff, courseHandler.Create)
	api.Put("/courses/:id", authed, staff, courseHandler.Update)
	api.Patch("/courses/:id/publish", authed, staff, courseHandler.TogglePublish)
	api.Delete("/courses/:id", authed, staff, courseHandler.Delete)

	// Admin dashboard
	api.Get("/admin/stats", authed, staff, adminHandler.DashboardStats)
	api.Get("/admin/recent-orders", authed, staff, adminHandler.RecentOrders)
}
