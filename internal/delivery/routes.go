package delivery

import (
	"net/http"

	"github.com/Vovarama1992/go-utils/httputil"
	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(
	r chi.Router,
	h *SpeechHandler,
	gate func(http.Handler) http.Handler,
) {
	// --- health: без гейта, чтобы лимит на других эндпоинтах его не трогал ---
	r.With(httputil.RecoverMiddleware).
		Get("/health", h.Health)

	// --- рабочие эндпоинты под rate-гейтом ---
	r.Route("/", func(pr chi.Router) {
		pr.Use(
			httputil.RecoverMiddleware,
			gate,
		)

		pr.Post("/transcribe", h.Transcribe)
		pr.Post("/speech", h.Speak)
	})
}
