package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Vovarama1992/voice_relay/internal/session"
)

// fileRecorder имитирует микрофон: режет файл на чанки и выдаёт их
// с периодом из CaptureConfig, как настоящий рекордер.
type fileRecorder struct {
	path string
}

func (r *fileRecorder) Start(ctx context.Context, cfg session.CaptureConfig) (session.Stream, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, session.ErrDeviceNotFound
		}
		return nil, err
	}

	s := &fileStream{
		ch:   make(chan []byte, 4),
		quit: make(chan struct{}),
		mime: mimeByExt(r.path),
	}
	go s.produce(ctx, data, cfg.ChunkInterval)
	return s, nil
}

type fileStream struct {
	ch   chan []byte
	quit chan struct{}
	mime string

	mu      sync.Mutex
	stopped bool
}

func (s *fileStream) Chunks() <-chan []byte { return s.ch }
func (s *fileStream) MIMEType() string      { return s.mime }

func (s *fileStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		s.stopped = true
		close(s.quit)
	}
	return nil
}

// produce владеет каналом: закрывает его сам по стопу или когда файл кончился.
func (s *fileStream) produce(ctx context.Context, data []byte, interval time.Duration) {
	defer close(s.ch)

	// чанк на каждый тик, чтобы вся запись влезла в потолок отсчёта
	chunkSize := (len(data) + session.CountdownSeconds - 1) / session.CountdownSeconds
	if chunkSize == 0 {
		chunkSize = 1
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for offset := 0; offset < len(data); offset += chunkSize {
		end := offset + chunkSize
		if end > len(data) {
			end = len(data)
		}

		select {
		case s.ch <- data[offset:end]:
		case <-s.quit:
			return
		case <-ctx.Done():
			return
		}

		select {
		case <-ticker.C:
		case <-s.quit:
			return
		case <-ctx.Done():
			return
		}
	}
}

func mimeByExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return "audio/wav"
	case ".ogg":
		return "audio/ogg"
	case ".mp3":
		return "audio/mpeg"
	default:
		return "audio/webm"
	}
}
