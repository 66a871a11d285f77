package httpserver

import (
	"context"
	"errors"
	"time"

	"batipro/internal/auth"
	"batipro/internal/domain"
	"batipro/internal/logging"
	orderrepo "batipro/internal/repository/order"
	productrepo "batipro/internal/repository/product"
	"batipro/internal/service/checkout"
	ordersvc "batipro/internal/service/order"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type checkoutService interface {
	Submit(ctx context.Context, req checkout.SubmitRequest) (*checkout.Result, error)
	Redeliver(ctx context.Context, orderID string) (*checkout.Result, error)
	RenderInvoice(ctx context.Context, orderID string) (string, []byte, error)
}

type productService interface {
	List(ctx context.Context, f productrepo.ListFilter) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
}

type categoryService interface {
	List(ctx context.Context) ([]domain.Category, error)
	Upsert(ctx context.Context, c domain.Category) (*domain.Category, error)
	Delete(ctx context.Context, key string) error
}

type orderService interface {
	List(ctx context.Context, f orderrepo.ListFilter) (*ordersvc.Page, error)
	Get(ctx context.Context, id string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
}

type tokenVerifier interface {
	VerifyAdmin(token string) (*auth.Claims, error)
}

// Deps are the services the router dispatches to. Verifier may be nil, in
// which case the admin routes are not mounted.
type Deps struct {
	Checkout    checkoutService
	ProductSvc  productService
	CategorySvc categoryService
	OrderSvc    orderService
	Verifier    tokenVerifier
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, db *pgxpool.Pool, deps Deps, corsOrigins []string) (*gin.Engine, error) {
	if deps.Checkout == nil || deps.ProductSvc == nil || deps.CategorySvc == nil || deps.OrderSvc == nil {
		return nil, errors.New("httpserver: missing service dependency")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(logging.RequestLogger(logger), gin.Recovery())
	if len(corsOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     corsOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	api := router.Group("/api")
	api.GET("/products", listProductsHandler(deps.ProductSvc))
	api.GET("/products/:id", getProductHandler(deps.ProductSvc))
	api.GET("/categories", listCategoriesHandler(deps.CategorySvc))
	api.POST("/orders", submitOrderHandler(deps.Checkout, logger))

	if deps.Verifier == nil {
		logger.Warn("admin routes disabled: no token verifier configured")
		return router, nil
	}

	admin := api.Group("/admin", adminMiddleware(deps.Verifier))
	admin.GET("/orders", listOrdersHandler(deps.OrderSvc))
	admin.GET("/orders/:id", getOrderHandler(deps.OrderSvc))
	admin.PATCH("/orders/:id/status", updateOrderStatusHandler(deps.OrderSvc))
	admin.POST("/orders/:id/invoice/resend", resendInvoiceHandler(deps.Checkout))
	admin.GET("/orders/:id/invoice.pdf", invoicePDFHandler(deps.Checkout))
	admin.PUT("/products/:key", upsertProductHandler(deps.ProductSvc))
	admin.DELETE("/products/:id", deleteProductHandler(deps.ProductSvc))
	admin.PUT("/categories/:key", upsertCategoryHandler(deps.CategorySvc))
	admin.DELETE("/categories/:key", deleteCategoryHandler(deps.CategorySvc))

	return router, nil
}
