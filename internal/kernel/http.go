// Package kernel assembles the HTTP handler: global middleware, the metrics
// endpoint, uploaded-file serving and every API route.
package kernel

import (
	"net/http"

	"github.com/shashiranjanraj/storefront/app/controllers"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/app/routes"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/auth"
	"github.com/shashiranjanraj/storefront/pkg/database"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
	"github.com/shashiranjanraj/storefront/pkg/middleware"
	"github.com/shashiranjanraj/storefront/pkg/reqid"
	"github.com/shashiranjanraj/storefront/pkg/router"
	"github.com/shashiranjanraj/storefront/pkg/storage"
)

// StoragePrefix is where the local disk is served from.
const StoragePrefix = "/storage"

// Deps are the backing stores the kernel's services run on.
type Deps struct {
	Users    services.UserStore
	Products services.ProductStore
	Orders   services.OrderStore
	Disk     storage.Disk
	DB       controllers.Pinger
	Tokens   *auth.TokenService
}

// MongoDeps wires the Mongo repositories.
func MongoDeps(m *database.Mongo, disk storage.Disk, tokens *auth.TokenService) Deps {
	return Deps{
		Users:    repositories.NewUserRepository(m.DB),
		Products: repositories.NewProductRepository(m.DB),
		Orders:   repositories.NewOrderRepository(m.DB),
		Disk:     disk,
		DB:       m,
		Tokens:   tokens,
	}
}

type HTTPKernel struct {
	router *router.Router
}

// NewHTTPKernel builds the router. Global middleware runs outermost first:
// metrics, panic recovery, request id, access log, CORS.
func NewHTTPKernel(cfg *config.Config, d Deps) *HTTPKernel {
	r := router.New()

	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(middleware.DefaultCORSOptions(cfg.CORSAllowedOrigins)))

	r.Get("/metrics", "metrics", metrics.Handler())

	if local, ok := d.Disk.(*storage.Local); ok {
		r.Static(StoragePrefix, local.FileServer())
	}

	c := routes.Controllers{
		Auth:     controllers.NewAuthController(services.NewAuthService(d.Users, d.Tokens), cfg.CookieSecure),
		Orders:   controllers.NewOrderController(services.NewOrderService(d.Orders, d.Products, d.Tokens)),
		Products: controllers.NewProductController(services.NewProductService(d.Products, d.Disk)),
		Messages: controllers.NewMessageController(services.NewMessageService()),
		Health:   controllers.NewHealthController(d.DB),
	}

	var guard []router.Middleware
	if cfg.CatalogRequireAuth {
		guard = append(guard, middleware.RequireAuth(d.Tokens))
	}
	routes.RegisterAPI(r, c, guard...)

	return &HTTPKernel{router: r}
}

func (k *HTTPKernel) Handler() http.Handler {
	return k.router.Handler()
}

func (k *HTTPKernel) Routes() []router.RouteInfo {
	return k.router.Routes()
}
