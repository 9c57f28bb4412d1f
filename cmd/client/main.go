package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Vovarama1992/voice_relay/internal/client"
	"github.com/Vovarama1992/voice_relay/internal/ratelimit"
	"github.com/Vovarama1992/voice_relay/internal/session"
)

func main() {

	// =========================================================================
	// FLAGS / ENV
	// =========================================================================

	_ = godotenv.Load()

	serverURL := flag.String("server", "http://localhost:8080", "relay server base URL")
	recordPath := flag.String("record", "", "audio file to push through the recording pipeline")
	sayText := flag.String("say", "", "text to synthesize and play")
	outPath := flag.String("out", "", "save synthesized mp3 here")
	playCmd := flag.String("play-cmd", "", `external player, e.g. "ffplay -nodisp -autoexit"`)
	flag.Parse()

	if *recordPath == "" && *sayText == "" {
		log.Fatal("nothing to do: pass -record <file> or -say <text>")
	}

	baseLogger, _ := zap.NewProduction()
	defer baseLogger.Sync()
	zl := logger.NewZapLogger(baseLogger.Sugar())

	// =========================================================================
	// CONTROLLER WIRING
	// =========================================================================

	gateway := client.NewGateway(*serverURL, 30*time.Second)
	limiter := ratelimit.New(time.Second, nil)
	recorder := &fileRecorder{path: *recordPath}
	player := &execPlayer{playCmd: *playCmd, outPath: *outPath}

	ctrl := session.NewController(gateway, recorder, player, limiter, zl)
	defer ctrl.Close()

	ctx := context.Background()

	if *recordPath != "" {
		if err := runRecord(ctx, ctrl); err != nil {
			log.Fatalf("record: %v", err)
		}
	}

	if *sayText != "" {
		// обе стороны делят лимитер: после записи выжидаем окно
		if *recordPath != "" {
			time.Sleep(limiter.Window())
		}
		ctrl.SetText(*sayText)
		if err := runSpeak(ctx, ctrl); err != nil {
			log.Fatalf("speak: %v", err)
		}
	}
}

func runRecord(ctx context.Context, ctrl *session.Controller) error {
	if err := ctrl.StartRecording(ctx); err != nil {
		return err
	}

	lastShown := -1
	for {
		switch ctrl.InputState() {
		case session.InputDone:
			fmt.Println(ctrl.Text())
			return nil
		case session.InputErrored:
			return fmt.Errorf("%s", ctrl.InputError())
		case session.InputRecording:
			if rem := ctrl.RemainingSeconds(); rem != lastShown {
				lastShown = rem
				fmt.Printf("recording... %ds left\n", rem)
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func runSpeak(ctx context.Context, ctrl *session.Controller) error {
	if err := ctrl.Speak(ctx); err != nil {
		return err
	}
	for ctrl.OutputState() != session.OutputIdle {
		time.Sleep(100 * time.Millisecond)
	}
	if msg := ctrl.OutputError(); msg != "" {
		return fmt.Errorf("%s", msg)
	}
	return nil
}
