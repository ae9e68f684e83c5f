package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pressroomhq/printdesk-backend/api/controllers"
	"github.com/pressroomhq/printdesk-backend/api/middleware"
	"github.com/pressroomhq/printdesk-backend/internal/files"
	"github.com/pressroomhq/printdesk-backend/internal/inventory"
	"github.com/pressroomhq/printdesk-backend/internal/notifications"
	"github.com/pressroomhq/printdesk-backend/internal/orders"
	"github.com/pressroomhq/printdesk-backend/internal/woocommerce"
	"github.com/pressroomhq/printdesk-backend/pkg/config"
	"github.com/pressroomhq/printdesk-backend/pkg/enums"
	"github.com/pressroomhq/printdesk-backend/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	readiness map[string]controllers.Pinger,
	metricsRegistry *prometheus.Registry,
	ordersSvc *orders.Service,
	wooSvc *woocommerce.Service,
	notificationsSvc *notifications.Service,
	filesSvc *files.Service,
	inventorySvc *inventory.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	if metricsRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metricsRegistry, promhttp.HandlerOpts{}))
	}

	if !cfg.App.IsProd() {
		r.Post("/api/v1/auth/dev-token", controllers.DevToken(cfg.JWT, logg))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(ordersSvc, logg))
			r.Post("/", controllers.OrderCreate(ordersSvc, logg))
			r.Get("/stats", controllers.OrderStats(ordersSvc, logg))
			r.With(middleware.RequireAdmin(logg)).Post("/purge", controllers.OrderPurge(ordersSvc, logg))

			r.Route("/{orderId}", func(r chi.Router) {
				r.Get("/", controllers.OrderDetail(ordersSvc, logg))
				r.Delete("/", controllers.OrderDelete(ordersSvc, logg))
				r.Put("/notes", controllers.OrderUpdateNotes(ordersSvc, logg))
				r.Get("/timeline", controllers.OrderTimeline(ordersSvc, logg))
				r.Post("/timeline", controllers.OrderTimelineNote(ordersSvc, logg))

				r.Route("/files", func(r chi.Router) {
					r.Get("/", controllers.FileList(filesSvc, logg))
					r.Post("/", controllers.FileUpload(filesSvc, logg))
					r.Delete("/{fileId}", controllers.FileDelete(filesSvc, logg))
				})
			})
		})

		r.Route("/items/{itemId}", func(r chi.Router) {
			r.Post("/assign", controllers.ItemAssign(ordersSvc, logg))
			r.Post("/advance", controllers.ItemAdvanceSubstage(ordersSvc, logg))
			r.Post("/dispatch", controllers.ItemDispatch(ordersSvc, logg))
			r.Put("/delivery-date", controllers.ItemUpdateDeliveryDate(ordersSvc, logg))

			r.Route("/outsource", func(r chi.Router) {
				r.Post("/", controllers.OutsourceCreate(ordersSvc, logg))
				r.Post("/transition", controllers.OutsourceTransition(ordersSvc, logg))
				r.Post("/decision", controllers.OutsourceDecision(ordersSvc, logg))
				r.Post("/notes", controllers.OutsourceNote(ordersSvc, logg))
			})
		})

		r.With(middleware.RequireRole(logg, enums.RoleSales)).
			Post("/woocommerce/import", controllers.WooCommerceImport(wooSvc, logg))

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(notificationsSvc, logg))
			r.Get("/unread-count", controllers.UnreadNotificationCount(notificationsSvc, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(notificationsSvc, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationsSvc, logg))
		})

		r.Get("/materials", controllers.MaterialList(inventorySvc, logg))
	})

	return r
}
