package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultVoice используется, когда клиент не указал голос.
const DefaultVoice = string(openai.VoiceAlloy)

// OpenAIClient ходит в Whisper (STT) и в TTS одним клиентом.
// Сам делает до maxRetries повторов на транзиентных ошибках,
// выше по стеку повторов нет.
type OpenAIClient struct {
	client     *openai.Client
	maxRetries int
}

func NewOpenAIClient(apiKey string, timeout time.Duration, maxRetries int) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	return &OpenAIClient{
		client:     openai.NewClientWithConfig(cfg),
		maxRetries: maxRetries,
	}
}

func (c *OpenAIClient) Transcribe(ctx context.Context, req TranscribeRequest) (string, error) {
	var text string
	err := c.withRetry(ctx, func() error {
		resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
			Model:       openai.Whisper1,
			Reader:      bytes.NewReader(req.Audio),
			FilePath:    audioFilename(req),
			Temperature: 0, // детерминированное декодирование
			Language:    "en",
			Format:      openai.AudioResponseFormatJSON,
		})
		if err != nil {
			return err
		}
		text = resp.Text
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	return text, nil
}

func (c *OpenAIClient) Synthesize(ctx context.Context, req SynthesizeRequest) ([]byte, error) {
	voice := req.Voice
	if voice == "" {
		voice = DefaultVoice
	}

	var audio []byte
	err := c.withRetry(ctx, func() error {
		resp, err := c.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
			Model:          openai.TTSModel1,
			Input:          req.Text,
			Voice:          openai.SpeechVoice(voice),
			ResponseFormat: openai.SpeechResponseFormatMp3,
		})
		if err != nil {
			return err
		}
		defer resp.Close()

		audio, err = io.ReadAll(resp)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("synthesize: %w", err)
	}
	return audio, nil
}

// withRetry повторяет call на таймаутах и 5xx, но не на ошибках
// авторизации или входных данных.
func (c *OpenAIClient) withRetry(ctx context.Context, call func() error) error {
	var last error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		err := call()
		if err == nil {
			return nil
		}
		last = Classify(err)
		if !retryable(last) || ctx.Err() != nil {
			return last
		}
	}
	return last
}

func retryable(err error) bool {
	switch KindOf(err) {
	case KindTimeout, KindUpstream:
		return true
	default:
		return false
	}
}

// audioFilename восстанавливает имя файла: go-openai определяет формат
// по расширению, поэтому пустое имя чиним по MIME-типу.
func audioFilename(req TranscribeRequest) string {
	if req.Filename != "" {
		return req.Filename
	}
	mimeType := req.MIMEType
	if idx := strings.Index(mimeType, ";"); idx >= 0 {
		mimeType = mimeType[:idx]
	}
	switch mimeType {
	case "audio/wav", "audio/x-wav":
		return "recording.wav"
	case "audio/ogg":
		return "recording.ogg"
	case "audio/mpeg", "audio/mp3":
		return "recording.mp3"
	case "audio/mp4":
		return "recording.m4a"
	default:
		return "recording.webm"
	}
}
