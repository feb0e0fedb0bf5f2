package routes

import (
	"github.com/shashiranjanraj/storefront/app/controllers"
	"github.com/shashiranjanraj/storefront/pkg/ctx"
	"github.com/shashiranjanraj/storefront/pkg/router"
)

// Controllers groups the handlers mounted by RegisterAPI.
type Controllers struct {
	Auth     *controllers.AuthController
	Orders   *controllers.OrderController
	Products *controllers.ProductController
	Messages *controllers.MessageController
	Health   *controllers.HealthController
}

// RegisterAPI mounts every API route. catalogGuard, when given, protects the
// mutating catalog routes.
func RegisterAPI(r *router.Router, c Controllers, catalogGuard ...router.Middleware) {
	r.Get("/health", "health", ctx.Wrap(c.Health.Show))

	r.Post("/signup", "auth.signup", ctx.Wrap(c.Auth.Signup))
	r.Post("/signin", "auth.signin", ctx.Wrap(c.Auth.Signin))
	r.Get("/profile", "auth.profile", ctx.Wrap(c.Auth.Profile))
	r.Post("/signout", "auth.signout", ctx.Wrap(c.Auth.Signout))

	r.Post("/messages", "messages.store", ctx.Wrap(c.Messages.Store))

	r.Post("/orders", "orders.store", ctx.Wrap(c.Orders.Store))
	r.Get("/orders", "orders.index", ctx.Wrap(c.Orders.Index))
	r.Get("/orders/{id}", "orders.show", ctx.Wrap(c.Orders.Show))

	r.Get("/products", "products.index", ctx.Wrap(c.Products.Index))
	r.Get("/products/{id}", "products.show", ctx.Wrap(c.Products.Show))

	catalog := r.Group("/products", catalogGuard...)
	catalog.Post("", "products.store", ctx.Wrap(c.Products.Store))
	catalog.Put("/{id}", "products.update", ctx.Wrap(c.Products.Update))
	catalog.Patch("/{id}", "products.patch", ctx.Wrap(c.Products.Update))
	catalog.Delete("/{id}", "products.destroy", ctx.Wrap(c.Products.Destroy))
	catalog.Post("/{id}/images", "products.images", ctx.Wrap(c.Products.UploadImage))
}
