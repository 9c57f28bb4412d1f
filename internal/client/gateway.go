package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"time"

	json "github.com/goccy/go-json"
)

// Сообщения, которые видит пользователь. Сетевые сбои любого вида
// сводятся к одному "server connection failed".
const (
	MsgServerConnection = "Could not connect to server. Please make sure it is running."
	MsgTimeout          = "Request timed out. Please try a shorter input."
)

var (
	ErrServerConnection = errors.New(MsgServerConnection)
	ErrTimeout          = errors.New(MsgTimeout)
)

// Gateway — клиентская прослойка над релеем: сперва health-проба,
// потом основной запрос, сетевые ошибки нормализуются в доменные.
type Gateway struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
}

func NewGateway(baseURL string, timeout time.Duration) *Gateway {
	return &Gateway{
		baseURL: baseURL,
		http:    &http.Client{},
		timeout: timeout,
	}
}

// TranscribeAudio отправляет запись на /transcribe и возвращает текст.
func (g *Gateway) TranscribeAudio(ctx context.Context, audio []byte, mimeType, filename string) (string, error) {
	if err := g.checkHealth(ctx); err != nil {
		return "", err
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="audio"; filename=%q`, filename))
	if mimeType != "" {
		header.Set("Content-Type", mimeType)
	}
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("build multipart: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("build multipart: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("build multipart: %w", err)
	}

	respBody, _, err := g.post(ctx, "/transcribe", writer.FormDataContentType(), body)
	if err != nil {
		return "", err
	}

	var resp struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return resp.Text, nil
}

// GenerateSpeech отправляет текст на /speech и возвращает сырые байты mp3.
func (g *Gateway) GenerateSpeech(ctx context.Context, text string) ([]byte, error) {
	if err := g.checkHealth(ctx); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	respBody, _, err := g.post(ctx, "/speech", "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	return respBody, nil
}

// checkHealth — проба живости. Если релей не отвечает, основной запрос
// даже не начинается.
func (g *Gateway) checkHealth(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/health", nil)
	if err != nil {
		return ErrServerConnection
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return ErrServerConnection
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return ErrServerConnection
	}
	return nil
}

func (g *Gateway) post(ctx context.Context, path, contentType string, body io.Reader) ([]byte, int, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, body)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, 0, normalizeTransportError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, normalizeTransportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, errors.New(errorMessage(respBody))
	}
	return respBody, resp.StatusCode, nil
}

// errorMessage достаёт поле error из тела, либо отдаёт дефолт.
func errorMessage(body []byte) string {
	var parsed struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != "" {
		return parsed.Error
	}
	return "Request failed"
}

func normalizeTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return ErrTimeout
	}
	return ErrServerConnection
}
