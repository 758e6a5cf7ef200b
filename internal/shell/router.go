package shell

import (
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	storefront "github.com/MrEthical07/storefront"
	"github.com/MrEthical07/storefront/catalog"
	"github.com/MrEthical07/storefront/internal/rate"
	"github.com/MrEthical07/storefront/middleware"
)

const maxBody = 1 << 20

// Deps are the collaborators of the router. Client is required.
type Deps struct {
	Client *storefront.Client
	// Catalog serves product endpoints; without it they answer 503.
	Catalog *catalog.Client
	// Throttle limits failed logins; optional.
	Throttle *rate.Throttle
	// Metrics is mounted at /metrics when set.
	Metrics        http.Handler
	Logger         logrus.FieldLogger
	RequestTimeout time.Duration
}

type server struct {
	client   *storefront.Client
	catalog  *catalog.Client
	throttle *rate.Throttle
	log      logrus.FieldLogger
}

// NewRouter builds the HTTP handler.
func NewRouter(d Deps) http.Handler {
	log := d.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	s := &server{client: d.Client, catalog: d.Catalog, throttle: d.Throttle, log: log}
	cfg := d.Client.Config()

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.RequestID)
	r.Use(requestLogger(log))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(timeout))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(log, w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/session", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Post("/login", s.login)
			r.Post("/register", s.register)
			r.Post("/logout", s.logout)
		})
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", s.getCart)
			r.Delete("/", s.clearCart)
			r.Post("/items", s.addItem)
			r.Patch("/items/{id}", s.updateItem)
			r.Delete("/items/{id}", s.removeItem)
		})
		r.Route("/products/{id}", func(r chi.Router) {
			r.Get("/", s.getProduct)
			r.Post("/add-to-cart", s.addProductToCart)
		})
	})

	guard := middleware.GuardRoutes(d.Client.Routes(), d.Client.Session(), middleware.Options{
		PendingWait: cfg.Gate.PendingWait,
		LoginPath:   cfg.Gate.LoginPath,
		OnDecision:  d.Client.ObserveDecision,
	})
	for _, route := range d.Client.Routes().Routes() {
		r.With(guard).Get(route.Pattern, s.page)
	}
	r.Get(cfg.Gate.LoginPath, s.loginPage)

	return r
}

func requestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"duration":   time.Since(start).String(),
				"request_id": chimw.GetReqID(r.Context()),
			}).Debug("http request")
		})
	}
}
