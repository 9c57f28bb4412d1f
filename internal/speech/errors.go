package speech

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"

	openai "github.com/sashabaranov/go-openai"
)

// Kind — категория ошибки провайдера. Присваивается в точке возникновения,
// никакого разбора текста сообщений.
type Kind int

const (
	KindUpstream Kind = iota // любая прочая ошибка провайдера
	KindInvalidInput
	KindAuth
	KindRateLimited
	KindTimeout
)

type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	cause      error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// KindOf возвращает категорию ошибки. Для ошибок не из этого пакета — KindUpstream.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUpstream
}

// Classify оборачивает ошибку провайдера в *Error с категорией.
// Таймауты и обрывы соединения определяются по типам, не по подстрокам.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var pe *Error
	if errors.As(err, &pe) {
		return err
	}

	if isTimeout(err) {
		return &Error{
			Kind:    KindTimeout,
			Message: "provider request timed out",
			cause:   err,
		}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.HTTPStatusCode, apiErr.Message, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(reqErr.HTTPStatusCode, reqErr.Error(), err)
	}

	return &Error{Kind: KindUpstream, Message: err.Error(), cause: err}
}

func classifyStatus(status int, message string, cause error) *Error {
	kind := KindUpstream
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = KindAuth
	case status == http.StatusTooManyRequests:
		kind = KindRateLimited
	case status >= 400 && status < 500:
		kind = KindInvalidInput
	}
	return &Error{Kind: kind, StatusCode: status, Message: message, cause: cause}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Timeout() || errors.Is(urlErr.Err, context.DeadlineExceeded)
	}
	return false
}
