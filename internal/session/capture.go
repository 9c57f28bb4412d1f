package session

import (
	"context"
	"errors"
	"time"
)

// === Порты захвата и воспроизведения ===

// CaptureConfig — параметры записи микрофона.
type CaptureConfig struct {
	Channels         int
	SampleRate       int
	EchoCancellation bool
	NoiseSuppression bool
	AutoGainControl  bool
	ChunkInterval    time.Duration // период выдачи бинарных чанков
}

func DefaultCaptureConfig() CaptureConfig {
	return CaptureConfig{
		Channels:         1,
		SampleRate:       44100,
		EchoCancellation: true,
		NoiseSuppression: true,
		AutoGainControl:  true,
		ChunkInterval:    time.Second,
	}
}

// Ошибки получения доступа к микрофону. Recorder обязан возвращать
// именно их, чтобы контроллер показал внятное сообщение.
var (
	ErrPermissionDenied = errors.New("microphone permission denied")
	ErrDeviceNotFound   = errors.New("no audio input device found")
	ErrDeviceBusy       = errors.New("audio input device is busy")
)

// Recorder запускает захват. Источник (реальный микрофон, файл в тестах)
// значения не имеет.
type Recorder interface {
	Start(ctx context.Context, cfg CaptureConfig) (Stream, error)
}

// Stream — открытая сессия захвата. Stop освобождает устройство и обязан
// быть идемпотентным; после Stop канал Chunks закрывается.
type Stream interface {
	Chunks() <-chan []byte
	MIMEType() string
	Stop() error
}

// Player начинает воспроизведение и отдаёт хендл для ожидания конца.
type Player interface {
	Play(ctx context.Context, audio []byte) (Playback, error)
}

// Playback — идущее воспроизведение. Release освобождает нижележащий
// бинарный хендл; контроллер гарантирует ровно один вызов.
type Playback interface {
	Done() <-chan struct{}
	Release()
}

// Transport — клиентский шлюз к релею (см. internal/client).
type Transport interface {
	TranscribeAudio(ctx context.Context, audio []byte, mimeType, filename string) (string, error)
	GenerateSpeech(ctx context.Context, text string) ([]byte, error)
}
