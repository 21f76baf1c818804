package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/avelarm/shopyard-backend/api/controllers"
	cartcontrollers "github.com/avelarm/shopyard-backend/api/controllers/cart"
	"github.com/avelarm/shopyard-backend/api/middleware"
	"github.com/avelarm/shopyard-backend/internal/cart"
	products "github.com/avelarm/shopyard-backend/internal/products"
	"github.com/avelarm/shopyard-backend/internal/wishlist"
	"github.com/avelarm/shopyard-backend/pkg/db"
	"github.com/avelarm/shopyard-backend/pkg/logger"
	"github.com/avelarm/shopyard-backend/pkg/redis"
)

// RouterParams collects every collaborator the HTTP surface needs.
type RouterParams struct {
	Logger          *logger.Logger
	DBPinger        db.Pinger
	RedisPinger     redis.Pinger
	CartService     cart.Service
	CartTokens      *cart.TokenManager
	WishlistService wishlist.Service
	WishlistTokens  *cart.TokenManager
	ProductService  products.Service
}

// NewRouter assembles the storefront API.
func NewRouter(p RouterParams) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(p.Logger),
		middleware.RequestID(p.Logger),
		middleware.Logging(p.Logger),
		middleware.CORS(),
		middleware.ClientMetadata(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive())
		r.Get("/ready", controllers.HealthReady(p.DBPinger, p.RedisPinger, p.Logger))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(p.ProductService, p.Logger))
			r.Get("/{productID}", controllers.ProductFetch(p.ProductService, p.Logger))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.CartFetch(p.CartService, p.CartTokens, p.Logger))
			r.Delete("/", cartcontrollers.CartClear(p.CartService, p.CartTokens, p.Logger))
			r.Route("/items", func(r chi.Router) {
				r.Post("/", cartcontrollers.CartAddItem(p.CartService, p.CartTokens, p.Logger))
				r.Patch("/{productID}", cartcontrollers.CartUpdateItem(p.CartService, p.CartTokens, p.Logger))
				r.Delete("/{productID}", cartcontrollers.CartRemoveItem(p.CartService, p.CartTokens, p.Logger))
			})
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", controllers.WishlistFetch(p.WishlistService, p.WishlistTokens, p.Logger))
			r.Delete("/", controllers.WishlistClear(p.WishlistService, p.WishlistTokens, p.Logger))
			r.Route("/items", func(r chi.Router) {
				r.Post("/", controllers.WishlistAddItem(p.WishlistService, p.WishlistTokens, p.Logger))
				r.Delete("/{productID}", controllers.WishlistRemoveItem(p.WishlistService, p.WishlistTokens, p.Logger))
			})
		})
	})

	return r
}
