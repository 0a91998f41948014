package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cubazon/storefront/internal/api/handlers"
	"github.com/cubazon/storefront/internal/api/middleware"
	"github.com/cubazon/storefront/internal/cache"
	"github.com/cubazon/storefront/internal/config"
	"github.com/cubazon/storefront/internal/health"
	"github.com/cubazon/storefront/internal/metrics"
	repository "github.com/cubazon/storefront/internal/repositories"
	service "github.com/cubazon/storefront/internal/services"
	"github.com/cubazon/storefront/internal/session"
	"github.com/cubazon/storefront/pkg/sendgrid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

func main() {

	// Logger setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load config
	cfg := config.MustLoad()

	// Tracing setup
	if cfg.Tracing.Enabled {
		shutdownTracing, err := initTracing(context.Background(), cfg)
		if err != nil {
			slog.Error("❌ Error initializing tracing", "error", err.Error())
			os.Exit(1)
		}

		defer func() {
			if err := shutdownTracing(context.Background()); err != nil {
				slog.Warn("⚠️ Error shutting down tracer provider", slog.String("error", err.Error()))
			}
		}()
	}

	// Database setup
	repos, err := repository.New(cfg)
	if err != nil {
		slog.Error("❌ Error accessing the database", "error", err.Error())
		os.Exit(1)
	}

	defer func() {
		if err := repos.Close(); err != nil {
			slog.Error("⚠️ Error closing database connection", slog.String("error", err.Error()))
		} else {
			slog.Info("✅ Database connection closed")
		}
	}()

	// Redis setup (persistent cart/coupon slots)
	redisClient, err := repository.NewRedisClient(cfg)
	if err != nil {
		slog.Error("❌ Error accessing the redis instance", "error", err.Error())
		os.Exit(1)
	}

	slots := cache.NewRedisCache(redisClient, &cfg.Cache)

	defer func() {
		if err := slots.Close(); err != nil {
			slog.Warn("⚠️ Error closing redis connection", slog.String("error", err.Error()))
		}
	}()

	emailService := sendgrid.NewEmailService(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)
	stockRPC := repository.NewStockRPCClient(&cfg.StockRPC)

	sessions := session.NewManager()
	sessionMiddleware := middleware.NewSessionMiddleware(sessions, &cfg.Session)

	cartStore := service.NewCartStore(repos.Product, slots)
	couponService := service.NewCouponService(repos.Coupon, slots)
	stockVerifier := service.NewStockVerifier(stockRPC, repos.Product)
	checkoutService := service.NewCheckoutService(cartStore, couponService, stockVerifier,
		repos.Order, repos.Shipping, emailService)

	productHandler := handlers.NewProductHandler(repos.Product)
	cartHandler := handlers.NewCartHandler(cartStore, couponService)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService, repos.Order, repos.Shipping)
	contactHandler := handlers.NewContactHandler(emailService, &cfg.SendGrid)

	healthHandler, err := health.NewHealthHandler(cfg)
	if err != nil {
		slog.Error("❌ Error setting up health checks", "error", err.Error())
		os.Exit(1)
	}

	slog.Info("storefront initialized", slog.String("env", cfg.Env), slog.String("version", "1.0.0"))

	// Setup router
	routerMux := http.NewServeMux()
	routerMux.HandleFunc("GET /api/v1/products", productHandler.ListProducts())
	routerMux.HandleFunc("GET /api/v1/products/{id}", productHandler.GetProduct())
	routerMux.Handle("GET /api/v1/cart", sessionMiddleware.Resolve(cartHandler.GetCart()))
	routerMux.Handle("POST /api/v1/cart/items", sessionMiddleware.Resolve(cartHandler.AddItem()))
	routerMux.Handle("PUT /api/v1/cart/items/{id}", sessionMiddleware.Resolve(cartHandler.UpdateQuantity()))
	routerMux.Handle("DELETE /api/v1/cart/items/{id}", sessionMiddleware.Resolve(cartHandler.RemoveItem()))
	routerMux.Handle("DELETE /api/v1/cart", sessionMiddleware.Resolve(cartHandler.ClearCart()))
	routerMux.Handle("POST /api/v1/cart/coupon", sessionMiddleware.Resolve(cartHandler.ApplyCoupon()))
	routerMux.Handle("DELETE /api/v1/cart/coupon", sessionMiddleware.Resolve(cartHandler.RemoveCoupon()))
	routerMux.HandleFunc("GET /api/v1/shipping-zones", checkoutHandler.ListShippingZones())
	routerMux.Handle("POST /api/v1/checkout", sessionMiddleware.Resolve(checkoutHandler.Checkout()))
	routerMux.HandleFunc("GET /api/v1/orders/{id}", checkoutHandler.GetOrder())
	routerMux.HandleFunc("/api/v1/contact", contactHandler.Relay())
	routerMux.Handle("GET /health", healthHandler.Handler())
	routerMux.Handle("GET /metrics", metrics.Handler())

	// Middleware chaining
	var handler http.Handler = routerMux
	handler = middleware.Logging(handler)
	handler = metrics.Middleware(handler)
	handler = otelhttp.NewHandler(handler, "storefront")

	// Setup http server
	server := http.Server{
		Addr:    cfg.Addr,
		Handler: handler,
	}

	slog.Info("🚀 Server is starting...", slog.String("address", cfg.Addr))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("❌ Failed to start server", slog.Any("error", err.Error()))
		}
	}()

	<-done

	slog.Warn("🛑 Shutdown signal received. Preparing to stop the server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("⚠️ Server shutdown encountered an issue", slog.String("error", err.Error()))
	} else {
		slog.Info("✅ Server shut down gracefully. All connections closed.")
	}

}

func initTracing(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.Tracing.Endpoint),
		otlptracehttp.WithInsecure())
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(sdkresource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName("storefront"),
			semconv.DeploymentEnvironment(cfg.Env),
		)),
	)

	otel.SetTracerProvider(provider)

	return provider.Shutdown, nil
}
