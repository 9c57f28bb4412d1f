package delivery

import (
	"net"
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/google/uuid"

	"github.com/Vovarama1992/voice_relay/internal/ratelimit"
)

// RateGate отклоняет запросы, пришедшие раньше окна лимитера. Ключ — IP клиента.
func RateGate(limiter *ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(clientIP(r)) {
				writeError(w, http.StatusTooManyRequests, "Too many requests. Please wait.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// KeepAliveHints подсказывает клиенту держать соединение: вызовы провайдера
// могут длиться десятки секунд.
func KeepAliveHints(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("Keep-Alive", "timeout=120")
		next.ServeHTTP(w, r)
	})
}

// RequestLogger вешает X-Request-ID и пишет access-лог.
func RequestLogger(log *logger.ZapLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-ID")
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", id)

			log.Log(logger.LogEntry{
				Level:   "info",
				Message: r.Method + " " + r.URL.Path + " [" + id + "]",
				Service: "voice_relay",
			})
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
