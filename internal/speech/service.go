package speech

import (
	"context"
)

// === Единый сервис (и для стт и для ттс) ===

type Service struct {
	stt STTClient
	tts TTSClient
}

func NewService(stt STTClient, tts TTSClient) *Service {
	return &Service{
		stt: stt,
		tts: tts,
	}
}

func (s *Service) Transcribe(ctx context.Context, req TranscribeRequest) (string, error) {
	return s.stt.Transcribe(ctx, req)
}

func (s *Service) Synthesize(ctx context.Context, req SynthesizeRequest) ([]byte, error) {
	return s.tts.Synthesize(ctx, req)
}
