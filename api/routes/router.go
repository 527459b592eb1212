package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/petverse/petverse-backend/api/controllers"
	"github.com/petverse/petverse-backend/api/middleware"
	authsvc "github.com/petverse/petverse-backend/internal/auth"
	cartsvc "github.com/petverse/petverse-backend/internal/cart"
	orderssvc "github.com/petverse/petverse-backend/internal/orders"
	"github.com/petverse/petverse-backend/internal/settlement"
	walletsvc "github.com/petverse/petverse-backend/internal/wallet"
	"github.com/petverse/petverse-backend/pkg/config"
	"github.com/petverse/petverse-backend/pkg/db"
	"github.com/petverse/petverse-backend/pkg/enums"
	"github.com/petverse/petverse-backend/pkg/logger"
	pkgredis "github.com/petverse/petverse-backend/pkg/redis"
)

// Deps carries every service the HTTP surface exposes.
type Deps struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         *db.Client
	Redis      *pkgredis.Client
	Registry   *prometheus.Registry
	Auth       authsvc.Service
	Cart       cartsvc.Service
	Wallet     walletsvc.Service
	Orders     orderssvc.Service
	Settlement settlement.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, deps.Redis, logg))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.With(middleware.LoginRateLimit(deps.Redis, cfg.RateLimit.LoginLimit, cfg.RateLimit.LoginWindow, logg)).
			Post("/auth/login", controllers.Login(deps.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.Idempotency(deps.Redis, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.GetCart(deps.Cart, logg))
				r.Post("/items", controllers.AddCartItem(deps.Cart, logg))
				r.Patch("/items/{itemId}", controllers.UpdateCartItem(deps.Cart, logg))
				r.Delete("/items/{itemId}", controllers.RemoveCartItem(deps.Cart, logg))
				r.Delete("/", controllers.ClearCart(deps.Cart, logg))
			})

			r.Post("/checkout", controllers.Checkout(deps.Settlement, logg))

			r.Route("/wallet", func(r chi.Router) {
				r.Get("/", controllers.GetWallet(deps.Wallet, logg))
				r.Post("/topup", controllers.Topup(deps.Wallet, logg))
			})

			r.Get("/orders", controllers.ListCustomerOrders(deps.Orders, logg))

			r.Route("/seller", func(r chi.Router) {
				r.Use(middleware.RequireRole(string(enums.UserRoleSeller), logg))
				r.Get("/orders", controllers.ListSellerOrders(deps.Orders, logg))
				r.Patch("/orders/{orderId}/status", controllers.UpdateOrderStatus(deps.Orders, logg))
			})
		})
	})

	return r
}
