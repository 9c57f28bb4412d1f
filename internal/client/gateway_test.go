package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"
)

func newRelayStub(t *testing.T, healthOK bool, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		if !healthOK {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	if handler != nil {
		mux.HandleFunc("/", handler)
	}
	return httptest.NewServer(mux)
}

func TestGenerateSpeechSuccess(t *testing.T) {
	srv := newRelayStub(t, true, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/speech" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		var req struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Text != "hello" {
			t.Fatalf("unexpected text: %q", req.Text)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("mp3-data"))
	})
	defer srv.Close()

	g := NewGateway(srv.URL, 30*time.Second)
	audio, err := g.GenerateSpeech(context.Background(), "hello")
	if err != nil {
		t.Fatalf("GenerateSpeech err: %v", err)
	}
	if string(audio) != "mp3-data" {
		t.Fatalf("unexpected audio: %q", audio)
	}
}

func TestTranscribeAudioSuccess(t *testing.T) {
	srv := newRelayStub(t, true, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transcribe" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		file, header, err := r.FormFile("audio")
		if err != nil {
			t.Fatalf("audio part missing: %v", err)
		}
		defer file.Close()
		if header.Filename != "recording.webm" {
			t.Fatalf("unexpected filename: %q", header.Filename)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"text": "transcribed"})
	})
	defer srv.Close()

	g := NewGateway(srv.URL, 30*time.Second)
	text, err := g.TranscribeAudio(context.Background(), []byte("audio"), "audio/webm", "recording.webm")
	if err != nil {
		t.Fatalf("TranscribeAudio err: %v", err)
	}
	if text != "transcribed" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestHealthProbeFailureSkipsMainCall(t *testing.T) {
	mainCalled := false
	srv := newRelayStub(t, false, func(http.ResponseWriter, *http.Request) {
		mainCalled = true
	})
	defer srv.Close()

	g := NewGateway(srv.URL, 30*time.Second)
	_, err := g.GenerateSpeech(context.Background(), "hello")
	if !errors.Is(err, ErrServerConnection) {
		t.Fatalf("expected ErrServerConnection, got %v", err)
	}
	if mainCalled {
		t.Fatal("main call must not happen when health probe fails")
	}
}

func TestUnreachableServer(t *testing.T) {
	srv := newRelayStub(t, true, nil)
	srv.Close() // адрес валидный, но слушателя уже нет

	g := NewGateway(srv.URL, 30*time.Second)
	_, err := g.GenerateSpeech(context.Background(), "hello")
	if !errors.Is(err, ErrServerConnection) {
		t.Fatalf("expected ErrServerConnection, got %v", err)
	}
}

func TestErrorBodyPropagated(t *testing.T) {
	srv := newRelayStub(t, true, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "No text provided"})
	})
	defer srv.Close()

	g := NewGateway(srv.URL, 30*time.Second)
	_, err := g.GenerateSpeech(context.Background(), "hello")
	if err == nil || err.Error() != "No text provided" {
		t.Fatalf("expected relay error message, got %v", err)
	}
}

func TestErrorDefaultMessage(t *testing.T) {
	srv := newRelayStub(t, true, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("not json"))
	})
	defer srv.Close()

	g := NewGateway(srv.URL, 30*time.Second)
	_, err := g.GenerateSpeech(context.Background(), "hello")
	if err == nil || err.Error() != "Request failed" {
		t.Fatalf("expected default message, got %v", err)
	}
}

func TestTranscribeHealthProbeFailureSkipsMainCall(t *testing.T) {
	mainCalled := false
	srv := newRelayStub(t, false, func(http.ResponseWriter, *http.Request) {
		mainCalled = true
	})
	defer srv.Close()

	g := NewGateway(srv.URL, 30*time.Second)
	_, err := g.TranscribeAudio(context.Background(), []byte("audio"), "audio/webm", "recording.webm")
	if !errors.Is(err, ErrServerConnection) {
		t.Fatalf("expected ErrServerConnection, got %v", err)
	}
	if mainCalled {
		t.Fatal("main call must not happen when health probe fails")
	}
}

func TestTranscribeTimeout(t *testing.T) {
	block := make(chan struct{})

	srv := newRelayStub(t, true, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	})
	defer srv.Close()
	defer close(block)

	g := NewGateway(srv.URL, 50*time.Millisecond)
	_, err := g.TranscribeAudio(context.Background(), []byte("audio"), "audio/webm", "recording.webm")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestMainRequestTimeout(t *testing.T) {
	block := make(chan struct{})

	srv := newRelayStub(t, true, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	})
	defer srv.Close()
	defer close(block)

	g := NewGateway(srv.URL, 50*time.Millisecond)
	_, err := g.GenerateSpeech(context.Background(), "hello")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}
