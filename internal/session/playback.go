package session

import (
	"context"
	"errors"
	"strings"

	"github.com/Vovarama1992/go-utils/logger"
)

// Speak озвучивает текущий текст контроллера: синтез через релей, затем
// воспроизведение. Блокирует до старта воспроизведения; конец
// отслеживается в фоне.
func (c *Controller) Speak(ctx context.Context) error {
	c.mu.Lock()
	if !c.enabled {
		c.mu.Unlock()
		return errors.New(MsgDisabled)
	}
	if c.output != OutputIdle {
		c.mu.Unlock()
		return errors.New(MsgBusy)
	}
	// лимитер общий с записью: запрос одной стороны сдвигает окно другой
	if !c.limiter.Allow(limiterKey) {
		c.outputErr = MsgPleaseWait
		c.mu.Unlock()
		return errors.New(MsgPleaseWait)
	}
	text := strings.TrimSpace(c.text)
	if text == "" {
		c.outputErr = MsgNoText
		c.mu.Unlock()
		return errors.New(MsgNoText)
	}
	c.output = OutputSynthesizing
	c.mu.Unlock()

	audio, err := c.transport.GenerateSpeech(ctx, text)
	if err != nil {
		return c.failOutput(err)
	}

	playback, err := c.player.Play(ctx, audio)
	if err != nil {
		return c.failOutput(err)
	}

	c.mu.Lock()
	c.output = OutputPlaying
	c.outputErr = ""
	c.playback = playback
	c.playbackReleased = false
	c.mu.Unlock()

	go c.watchPlayback(playback)
	return nil
}

func (c *Controller) watchPlayback(playback Playback) {
	<-playback.Done()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.playback != playback {
		return // уже вытеснено/закрыто
	}
	c.releasePlaybackLocked()
	c.output = OutputIdle
}

// failOutput переводит выходную сторону обратно в Idle с сообщением.
func (c *Controller) failOutput(err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.output = OutputIdle
	c.outputErr = err.Error()
	if c.log != nil {
		c.log.Log(logger.LogEntry{Level: "warn", Message: "speech playback failed", Service: "voice_client", Error: err})
	}
	return err
}

// releasePlaybackLocked отпускает хендл ровно один раз. Вызывать под c.mu.
func (c *Controller) releasePlaybackLocked() {
	if c.playback != nil && !c.playbackReleased {
		c.playback.Release()
		c.playbackReleased = true
	}
	c.playback = nil
}

func (c *Controller) OutputState() OutputState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.output
}

func (c *Controller) OutputError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outputErr
}
