package web

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mcdev12/focusarcade/go/internal/celebration"
	"github.com/mcdev12/focusarcade/go/internal/gateway"
	"github.com/mcdev12/focusarcade/go/internal/ledger"
	"github.com/rs/zerolog/log"
)

//go:embed templates/*.html
var templateFS embed.FS

// DefaultMultipartMemory is how much of a loadout upload is held in memory
// before the rest spills to temporary files. It does not limit upload size.
const DefaultMultipartMemory = 32 << 20

// Deps are the services behind the routes. Without Ledger and Celebration the
// controller page and API are not served; without Gateway the display page
// and websocket routes are not.
type Deps struct {
	Ledger      *ledger.Ledger
	Celebration *celebration.App
	Gateway     *gateway.Service
	Health      http.Handler

	// PublicURL is the controller address minted tokens point at.
	PublicURL       string
	MultipartMemory int64
}

// Server is the controller and display HTTP surface.
type Server struct {
	deps      Deps
	templates *template.Template
}

// NewServer parses the embedded pages.
func NewServer(deps Deps) (*Server, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	if deps.MultipartMemory <= 0 {
		deps.MultipartMemory = DefaultMultipartMemory
	}
	return &Server{deps: deps, templates: tmpl}, nil
}

// Routes builds the router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	if s.deps.Ledger != nil && s.deps.Celebration != nil {
		r.Get("/", s.handleController)

		r.Route("/api", func(r chi.Router) {
			r.Get("/progress", s.handleProgress)
			r.Post("/redeem", s.handleRedeem)
			r.Post("/tap", s.handleTap)
			r.Post("/reset", s.handleReset)
			r.Get("/loadout", s.handleGetLoadout)
			r.Post("/loadout", s.handleSaveLoadout)
			r.Post("/trigger", s.handleTrigger)
			r.Post("/tokens", s.handleMintToken)
			r.Get("/tokens/{token}/qr", s.handleTokenQR)
		})
	}

	if s.deps.Gateway != nil {
		r.Get("/display", s.handleDisplay)
		s.deps.Gateway.RegisterRoutes(r)
	}

	if s.deps.Health != nil {
		r.Method(http.MethodGet, "/health", s.deps.Health)
	} else {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]bool{"healthy": true})
		})
	}

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			// Hijacked (websocket) or nothing written.
			status = http.StatusOK
		}
		log.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	})
}
