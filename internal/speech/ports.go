package speech

import "context"

// === Интерфейсы ===

type STTClient interface {
	Transcribe(ctx context.Context, req TranscribeRequest) (string, error)
}

type TTSClient interface {
	Synthesize(ctx context.Context, req SynthesizeRequest) ([]byte, error)
}

// === Запросы (immutable, request-scoped) ===

// TranscribeRequest — аудио для распознавания.
type TranscribeRequest struct {
	Audio    []byte
	MIMEType string
	Filename string
}

// SynthesizeRequest — текст для озвучки. Voice может быть пустым:
// клиент подставит голос по умолчанию.
type SynthesizeRequest struct {
	Text  string
	Voice string
}
