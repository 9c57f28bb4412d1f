package delivery

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Vovarama1992/go-utils/logger"
	json "github.com/goccy/go-json"

	"github.com/Vovarama1992/voice_relay/internal/speech"
)

// SpeechService абстрагирует провайдера, чтобы хендлеры тестировались без сети.
type SpeechService interface {
	Transcribe(ctx context.Context, req speech.TranscribeRequest) (string, error)
	Synthesize(ctx context.Context, req speech.SynthesizeRequest) ([]byte, error)
}

type SpeechHandler struct {
	service       SpeechService
	log           *logger.ZapLogger
	maxUploadSize int64
	maxTextLength int
}

func NewSpeechHandler(service SpeechService, log *logger.ZapLogger, maxUploadSize int64, maxTextLength int) *SpeechHandler {
	return &SpeechHandler{
		service:       service,
		log:           log,
		maxUploadSize: maxUploadSize,
		maxTextLength: maxTextLength,
	}
}

// Health — проверка живости. Без побочных эффектов, без rate-гейта.
func (h *SpeechHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Transcribe принимает multipart с полем audio и возвращает {text}.
func (h *SpeechHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusBadRequest, "Audio file too large (max 10 MiB)")
			return
		}
		writeError(w, http.StatusBadRequest, "No audio file provided")
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No audio file provided")
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read audio: "+err.Error())
		return
	}

	text, err := h.service.Transcribe(r.Context(), speech.TranscribeRequest{
		Audio:    audio,
		MIMEType: header.Header.Get("Content-Type"),
		Filename: header.Filename,
	})
	if err != nil {
		h.log.Log(logger.LogEntry{Level: "warn", Message: "transcription failed", Service: "voice_relay", Error: err})
		h.writeProviderError(w, err, "Transcription failed", "Request timed out. Please try a shorter recording.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

// Speak принимает {text, voice?} и отдаёт mp3 как бинарное тело.
func (h *SpeechHandler) Speak(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text  string `json:"text"`
		Voice string `json:"voice"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		writeError(w, http.StatusBadRequest, "No text provided")
		return
	}
	if utf8.RuneCountInString(text) > h.maxTextLength {
		writeError(w, http.StatusBadRequest, "Text too long (max "+strconv.Itoa(h.maxTextLength)+" characters)")
		return
	}

	audio, err := h.service.Synthesize(r.Context(), speech.SynthesizeRequest{
		Text:  text,
		Voice: req.Voice,
	})
	if err != nil {
		h.log.Log(logger.LogEntry{Level: "warn", Message: "speech generation failed", Service: "voice_relay", Error: err})
		h.writeProviderError(w, err, "Speech generation failed", "Request timed out. Please try a shorter text.")
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(audio)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio)
}

// writeProviderError переводит категорию ошибки провайдера в HTTP-статус.
func (h *SpeechHandler) writeProviderError(w http.ResponseWriter, err error, generic, timeoutMsg string) {
	switch speech.KindOf(err) {
	case speech.KindInvalidInput:
		writeError(w, http.StatusBadRequest, "Invalid audio format")
	case speech.KindAuth:
		writeError(w, http.StatusUnauthorized, "Invalid API key")
	case speech.KindTimeout:
		writeError(w, http.StatusInternalServerError, timeoutMsg)
	default:
		writeError(w, http.StatusInternalServerError, generic)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
