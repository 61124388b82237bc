package delivery

import (
	"net/http"
	"time"

	"github.com/Vovarama1992/go-utils/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

type RouteOptions struct {
	APIToken           string
	RateLimitPerMinute int
	Metrics            http.Handler
}

func NewRouter(h *SessionHandler, opts RouteOptions) chi.Router {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	RegisterRoutes(r, h, opts)

	r.With(httputil.RecoverMiddleware).Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(200)
		w.Write([]byte("pong"))
	})
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}
	return r
}

func RegisterRoutes(r chi.Router, h *SessionHandler, opts RouteOptions) {
	r.Route("/sessions", func(pr chi.Router) {
		pr.Use(
			httputil.RecoverMiddleware,
			AuthMiddleware(opts.APIToken),
		)
		if opts.RateLimitPerMinute > 0 {
			pr.Use(httprate.LimitByIP(opts.RateLimitPerMinute, time.Minute))
		}

		// --- сессии ---
		pr.Post("/", h.Create)
		pr.Get("/{id}", h.Get)
		pr.Delete("/{id}", h.Delete)

		// --- запись ---
		pr.Post("/{id}/recording", h.SubmitRecording)
		pr.Post("/{id}/capture/start", h.StartCapture)
		pr.Post("/{id}/capture/stop", h.StopCapture)
		pr.Post("/{id}/upload", h.Upload)

		// --- перевод и озвучка ---
		pr.Get("/{id}/translations/{lang}.txt", h.DownloadTranslation)
		pr.Post("/{id}/speech/{lang}", h.GenerateSpeech)
		pr.Get("/{id}/audio/{slot}", h.Audio)
		pr.Post("/{id}/clone-voice", h.CloneVoice)
	})
}
