package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/Vovarama1992/go-utils/logger"

	"github.com/Vovarama1992/voice_relay/internal/ratelimit"
)

// Состояния входной стороны (запись → расшифровка).
type InputState int

const (
	InputIdle InputState = iota
	InputRequestingPermission
	InputRecording
	InputProcessing
	InputDone
	InputErrored
)

// Состояния выходной стороны (текст → озвучка).
type OutputState int

const (
	OutputIdle OutputState = iota
	OutputSynthesizing
	OutputPlaying
)

const (
	// CountdownSeconds — потолок длительности записи.
	CountdownSeconds = 10

	limiterKey = "session"
)

// Сообщения для пользователя.
const (
	MsgPleaseWait       = "Please wait a moment before trying again."
	MsgNoText           = "Please enter some text first."
	MsgPermissionDenied = "Microphone access denied. Please allow microphone access."
	MsgDeviceNotFound   = "No microphone found. Please connect a microphone."
	MsgDeviceBusy       = "Microphone is busy. Close other applications using it."
	MsgDisabled         = "Voice controls are disabled."
	MsgBusy             = "Another operation is already in progress."
)

// tickerFunc отдаёт канал тиков и функцию остановки. Инжектируется в тестах.
type tickerFunc func(d time.Duration) (<-chan time.Time, func())

func realTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Controller владеет жизненным циклом записи и воспроизведения.
// Обе стороны независимы, но делят один лимитер и общий текст.
//
// Исходная среда была однопоточной; здесь методы зовутся из разных
// горутин, поэтому всё состояние под одним мьютексом.
type Controller struct {
	transport Transport
	recorder  Recorder
	player    Player
	limiter   *ratelimit.Limiter
	log       *logger.ZapLogger

	capture CaptureConfig
	ticker  tickerFunc

	mu      sync.Mutex
	enabled bool

	// входная сторона
	input     InputState
	inputErr  string
	text      string
	remaining int
	chunks    [][]byte
	stream    Stream
	stopCh    chan struct{}
	stopped   bool

	// выходная сторона
	output           OutputState
	outputErr        string
	playback         Playback
	playbackReleased bool
}

func NewController(transport Transport, recorder Recorder, player Player, limiter *ratelimit.Limiter, log *logger.ZapLogger) *Controller {
	return &Controller{
		transport: transport,
		recorder:  recorder,
		player:    player,
		limiter:   limiter,
		log:       log,
		capture:   DefaultCaptureConfig(),
		ticker:    realTicker,
		enabled:   true,
	}
}

// === Входная сторона ===

// StartRecording запускает цикл запись → расшифровка. Возвращает ошибку
// сразу, если гейт не пустил или микрофон недоступен; сама запись и
// расшифровка идут в фоне.
func (c *Controller) StartRecording(ctx context.Context) error {
	c.mu.Lock()
	if !c.enabled {
		c.mu.Unlock()
		return errors.New(MsgDisabled)
	}
	if c.input == InputRequestingPermission || c.input == InputRecording || c.input == InputProcessing {
		c.mu.Unlock()
		return errors.New(MsgBusy)
	}
	if !c.limiter.Allow(limiterKey) {
		c.inputErr = MsgPleaseWait
		c.mu.Unlock()
		return errors.New(MsgPleaseWait)
	}
	c.input = InputRequestingPermission
	c.mu.Unlock()

	stream, err := c.recorder.Start(ctx, c.capture)
	if err != nil {
		msg := permissionMessage(err)
		c.mu.Lock()
		c.input = InputErrored
		c.inputErr = msg
		c.mu.Unlock()
		return errors.New(msg)
	}

	c.mu.Lock()
	c.stream = stream
	c.input = InputRecording
	c.inputErr = ""
	c.remaining = CountdownSeconds
	c.chunks = nil
	c.stopCh = make(chan struct{})
	c.stopped = false
	c.mu.Unlock()

	go c.run(ctx, stream, c.stopCh)
	return nil
}

// StopRecording — ручная остановка. Идемпотентна: повторный вызов и вызов
// вне записи ничего не делают.
func (c *Controller) StopRecording() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.input != InputRecording || c.stopped {
		return
	}
	c.stopped = true
	close(c.stopCh)
}

// run — единственная горутина сессии записи: копит чанки в порядке
// прихода, ведёт обратный отсчёт, останавливается по таймеру или стопу.
func (c *Controller) run(ctx context.Context, stream Stream, stop <-chan struct{}) {
	tick, cancelTick := c.ticker(time.Second)
	defer cancelTick()

	for {
		select {
		case chunk, ok := <-stream.Chunks():
			if !ok {
				// источник иссяк сам (файл кончился) — завершаем как по стопу
				c.finish(ctx, stream)
				return
			}
			c.mu.Lock()
			c.chunks = append(c.chunks, chunk)
			c.mu.Unlock()

		case <-tick:
			c.mu.Lock()
			c.remaining--
			expired := c.remaining <= 0
			c.mu.Unlock()
			if expired {
				c.finish(ctx, stream)
				return
			}

		case <-stop:
			c.finish(ctx, stream)
			return

		case <-ctx.Done():
			_ = stream.Stop()
			c.mu.Lock()
			c.stream = nil
			c.input = InputIdle
			c.mu.Unlock()
			return
		}
	}
}

// finish освобождает микрофон, склеивает чанки и зовёт расшифровку.
func (c *Controller) finish(ctx context.Context, stream Stream) {
	_ = stream.Stop()

	// добираем чанки, выданные до закрытия канала (порядок прихода сохраняется)
	for chunk := range stream.Chunks() {
		c.mu.Lock()
		c.chunks = append(c.chunks, chunk)
		c.mu.Unlock()
	}

	c.mu.Lock()
	c.input = InputProcessing
	c.remaining = 0
	audio := concat(c.chunks)
	c.chunks = nil
	c.stream = nil
	c.mu.Unlock()

	mimeType := stream.MIMEType()
	text, err := c.transport.TranscribeAudio(ctx, audio, mimeType, filenameFor(mimeType))

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.input = InputErrored
		c.inputErr = err.Error()
		if c.log != nil {
			c.log.Log(logger.LogEntry{Level: "warn", Message: "transcription failed", Service: "voice_client", Error: err})
		}
		return
	}
	c.text = text // расшифровка замещает текущий текст целиком
	c.input = InputDone
	c.inputErr = ""
}

// === Общее ===

// Close — teardown: отпускает микрофон и хендл воспроизведения, если
// они ещё держатся.
func (c *Controller) Close() {
	c.mu.Lock()
	stream := c.stream
	c.stream = nil
	if c.input == InputRecording && !c.stopped {
		c.stopped = true
		close(c.stopCh)
	}
	c.releasePlaybackLocked()
	c.output = OutputIdle
	c.mu.Unlock()

	if stream != nil {
		_ = stream.Stop()
	}
}

func (c *Controller) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
}

func (c *Controller) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

func (c *Controller) InputState() InputState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

func (c *Controller) InputError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inputErr
}

// RemainingSeconds — видимый обратный отсчёт записи.
func (c *Controller) RemainingSeconds() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

func (c *Controller) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

func (c *Controller) SetText(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = text
}

func permissionMessage(err error) string {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return MsgPermissionDenied
	case errors.Is(err, ErrDeviceNotFound):
		return MsgDeviceNotFound
	case errors.Is(err, ErrDeviceBusy):
		return MsgDeviceBusy
	default:
		return "Could not start recording: " + err.Error()
	}
}

func concat(chunks [][]byte) []byte {
	total := 0
	for _, ch := range chunks {
		total += len(ch)
	}
	out := make([]byte, 0, total)
	for _, ch := range chunks {
		out = append(out, ch...)
	}
	return out
}

func filenameFor(mimeType string) string {
	switch {
	case strings.Contains(mimeType, "wav"):
		return "recording.wav"
	case strings.Contains(mimeType, "ogg"):
		return "recording.ogg"
	case strings.Contains(mimeType, "mpeg"), strings.Contains(mimeType, "mp3"):
		return "recording.mp3"
	default:
		return "recording.webm"
	}
}
