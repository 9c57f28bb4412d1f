package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config агрегирует настройки релей-сервера.
type Config struct {
	Server Server
	OpenAI OpenAI
	Limits Limits
}

type Server struct {
	Addr string
}

type OpenAI struct {
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
}

type Limits struct {
	RateWindow    time.Duration // минимальный интервал между запросами с одного IP
	MaxUploadSize int64
	MaxTextLength int
}

// Load читает конфигурацию из окружения. OPENAI_API_KEY обязателен.
func Load() (*Config, error) {
	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}
	if strings.Contains(port, " ") {
		return nil, fmt.Errorf("invalid PORT value: %q", port)
	}
	addr := port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	timeout, err := durationEnv("OPENAI_TIMEOUT_SECONDS", 30*time.Second)
	if err != nil {
		return nil, err
	}

	window, err := durationEnv("RATE_WINDOW_MS", time.Second)
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: Server{Addr: addr},
		OpenAI: OpenAI{
			APIKey:     apiKey,
			Timeout:    timeout,
			MaxRetries: 2,
		},
		Limits: Limits{
			RateWindow:    window,
			MaxUploadSize: 10 << 20,
			MaxTextLength: 4000,
		},
	}, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		return 0, fmt.Errorf("invalid %s value: %q", key, raw)
	}
	switch {
	case strings.HasSuffix(key, "_MS"):
		return time.Duration(val) * time.Millisecond, nil
	default:
		return time.Duration(val) * time.Second, nil
	}
}
