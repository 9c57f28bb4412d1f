package main

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/Vovarama1992/voice_relay/internal/session"
)

// execPlayer сохраняет mp3 во временный файл и, если задана команда,
// проигрывает его внешним плеером (ffplay, mpg123 и т.п.).
type execPlayer struct {
	playCmd string // пример: "ffplay -nodisp -autoexit"
	outPath string // если не пусто — копия сохраняется сюда
}

func (p *execPlayer) Play(ctx context.Context, audio []byte) (session.Playback, error) {
	tmp, err := os.CreateTemp("", "voice_relay_*.mp3")
	if err != nil {
		return nil, err
	}
	if _, err := tmp.Write(audio); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, err
	}
	tmp.Close()

	if p.outPath != "" {
		if err := os.WriteFile(p.outPath, audio, 0644); err != nil {
			os.Remove(tmp.Name())
			return nil, err
		}
	}

	pb := &execPlayback{path: tmp.Name(), done: make(chan struct{})}

	if p.playCmd == "" {
		// плеер не задан: воспроизведение считается мгновенно законченным
		close(pb.done)
		return pb, nil
	}

	parts := strings.Fields(p.playCmd)
	cmd := exec.CommandContext(ctx, parts[0], append(parts[1:], tmp.Name())...)
	if err := cmd.Start(); err != nil {
		os.Remove(tmp.Name())
		return nil, err
	}

	go func() {
		_ = cmd.Wait()
		close(pb.done)
	}()
	return pb, nil
}

type execPlayback struct {
	path string
	done chan struct{}

	mu       sync.Mutex
	released bool
}

func (p *execPlayback) Done() <-chan struct{} { return p.done }

// Release убирает временный файл — аналог revoke у object URL.
func (p *execPlayback) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return
	}
	p.released = true
	os.Remove(p.path)
}
