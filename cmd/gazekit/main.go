package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/Zyko0/go-sdl3/bin/binimg"
	"github.com/Zyko0/go-sdl3/bin/binsdl"
	"github.com/Zyko0/go-sdl3/bin/binttf"
	"github.com/Zyko0/go-sdl3/sdl"
	"github.com/Zyko0/go-sdl3/ttf"
	"github.com/spf13/cobra"

	"gazekit/buttonbox"
	"gazekit/engine"
	"gazekit/sdldev"
	"gazekit/stimlist"
)

func init() {
	// SDL3 requires the main thread for some operations.
	runtime.LockOSThread()
}

var (
	configPath string
	listPath   string
	outputFile string
	fullscreen bool
	subject    string
)

func main() {
	root := &cobra.Command{
		Use:           "gazekit",
		Short:         "Run a timed stimulus-presentation session with response collection",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd)
		},
	}
	root.Flags().StringVar(&configPath, "config", "", "TOML parameter file")
	root.Flags().StringVar(&listPath, "list", "", "tab-delimited stimulus list (required)")
	root.Flags().StringVar(&outputFile, "output", "", "output table file (overrides config)")
	root.Flags().BoolVar(&fullscreen, "fullscreen", false, "run fullscreen")
	root.Flags().StringVar(&subject, "subject", "", "subject ID (prompted when empty)")
	root.MarkFlagRequired("list")

	if err := root.Execute(); err != nil {
		slog.Error("session failed", "err", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command) error {
	params, err := engine.LoadParams(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("output") {
		params.OutputFile = outputFile
	}
	if cmd.Flags().Changed("fullscreen") {
		params.Fullscreen = fullscreen
	}

	sessionAttrs, err := promptSessionInfo(params)
	if err != nil {
		return err
	}

	list, err := stimlist.Load(listPath)
	if err != nil {
		return err
	}

	defer binsdl.Load().Unload()
	defer binimg.Load().Unload()
	defer binttf.Load().Unload()

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_AUDIO | sdl.INIT_EVENTS); err != nil {
		return fmt.Errorf("sdl init: %w", err)
	}
	defer sdl.Quit()
	if err := ttf.Init(); err != nil {
		return fmt.Errorf("ttf init: %w", err)
	}
	defer ttf.Quit()

	windowFlags := sdl.WINDOW_RESIZABLE
	if params.Fullscreen {
		windowFlags |= sdl.WINDOW_FULLSCREEN
	}
	window, renderer, err := sdl.CreateWindowAndRenderer("gazekit", params.ScreenWidth, params.ScreenHeight, windowFlags)
	if err != nil {
		return fmt.Errorf("create window: %w", err)
	}
	defer window.Destroy()
	defer renderer.Destroy()
	renderer.SetVSync(1)

	var font *ttf.Font
	if params.FontFile != "" {
		font, err = ttf.OpenFont(params.FontFile, float32(params.FontSize))
		if err != nil {
			return fmt.Errorf("load font %s: %w", params.FontFile, err)
		}
		defer font.Close()
	}

	clock := sdldev.Clock{}

	// No tracker driver is attached here; the stub lets gaze-contingent
	// parts run on their offline fallback.
	var tracker engine.Tracker = engine.Stub{}
	slog.Warn("no eye tracker attached; gaze collection uses the offline fallback",
		"fallback_ms", params.OfflineGazeFallbackMS)

	log := engine.NewEventLog(sessionAttrs)
	s := engine.NewSession(clock, tracker, params, log)
	s.RegisterDevice(sdldev.NewPump(clock, params.EscapeKey))

	if params.SerialDevice != "" {
		box, err := buttonbox.Open(params.SerialDevice, params.SerialBaud, clock)
		if err != nil {
			return fmt.Errorf("open button box: %w", err)
		}
		defer box.Close()
		s.RegisterDevice(box)
	}
	if params.TriggerDevice != "" {
		trig, err := buttonbox.OpenTrigger(params.TriggerDevice, params.SerialBaud)
		if err != nil {
			return fmt.Errorf("open trigger device: %w", err)
		}
		defer trig.Close()
		s.Trigger = trig
	}

	s.Mixer = engine.NewMixer()
	stream, err := sdldev.OpenAudio(s.Mixer)
	if err != nil {
		return err
	}
	defer stream.Destroy()

	bg, err := sdldev.ParseColor(params.BGColor)
	if err != nil {
		return fmt.Errorf("bg_color: %w", err)
	}
	presenter := &sdldev.Presenter{
		Renderer: renderer,
		W:        params.ScreenWidth,
		H:        params.ScreenHeight,
		Scale:    float32(params.ScaleFactor),
		BG:       bg,
	}

	sessionErr := runSession(s, presenter, font, list)
	if sessionErr != nil {
		if _, ok := engine.AsAbort(sessionErr); !ok {
			return sessionErr
		}
		slog.Warn("session ended early", "reason", sessionErr)
	}

	if err := saveLog(s); err != nil {
		return err
	}
	return nil
}

// runSession runs one decision trial per stimulus row. A row needs a "word"
// column; "cresp" and any other columns become trial metadata.
func runSession(s *engine.Session, p *sdldev.Presenter, font *ttf.Font, list *stimlist.List) error {
	textColor, err := sdldev.ParseColor(s.Params.TextColor)
	if err != nil {
		return fmt.Errorf("text_color: %w", err)
	}
	fixColor := textColor

	for {
		row, ok := list.Next()
		if !ok {
			return nil
		}
		word := row.Get("word")
		if word == "" {
			continue
		}
		if font == nil {
			return fmt.Errorf("stimulus list has text stimuli but no font is configured")
		}

		metadata := make(map[string]any, len(row))
		for k, v := range row {
			metadata[k] = v
		}

		trial := &engine.Trial{
			Name:     "decision",
			Metadata: metadata,
			Body: func(s *engine.Session) error {
				if err := engine.StartRecording(s); err != nil {
					return err
				}
				defer engine.StopRecording(s)

				fixation := engine.NewDisplay(s, p.FixationCross(fixColor), engine.DisplayConfig{
					Name:     "fixation",
					Duration: engine.FixedDuration(500),
					Logging:  []string{},
				})
				if err := fixation.Run(0); err != nil {
					return err
				}

				renderer, tex, _, err := p.Text(font, word, textColor)
				if err != nil {
					return err
				}
				defer tex.Destroy()

				var correct *string
				if c := row.Get("cresp"); c != "" {
					correct = &c
				}
				stim := engine.NewDisplay(s, renderer, engine.DisplayConfig{
					Name:        "stimulus",
					Duration:    engine.FixedDuration(5000),
					TriggerLine: "1",
					Accept:      []string{"f", "j"},
					Correct:     correct,
				})
				// Present exactly 1000 ms after the fixation onset.
				return stim.Run(fixation.Onset() + 1000)
			},
		}

		if err := trial.Record(s); err != nil {
			return err
		}
		if err := s.Wait(500); err != nil {
			return err
		}
	}
}

func promptSessionInfo(params engine.Params) (map[string]any, error) {
	reader := bufio.NewReader(os.Stdin)
	attrs := make(map[string]any)

	id := subject
	for id == "" {
		fmt.Print("Enter subject ID: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		id = strings.TrimSpace(line)
	}
	attrs["subject"] = id

	for _, name := range params.SessionInfo {
		fmt.Printf("Enter %s: ", name)
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		attrs[name] = strings.TrimSpace(line)
	}
	return attrs, nil
}

func saveLog(s *engine.Session) error {
	if err := os.MkdirAll(s.Params.DataDirectory, 0o755); err != nil {
		return err
	}
	timestamp := time.Now().Format("20060102-150405")
	name := s.Params.OutputFile
	if ext := filepath.Ext(name); ext != "" {
		name = strings.TrimSuffix(name, ext) + "_" + timestamp + ext
	} else {
		name += "_" + timestamp
	}
	path := filepath.Join(s.Params.DataDirectory, s.Params.DataFilePrefix+fmt.Sprint(s.Log.CurrentData()["subject"])+"_"+name)
	if err := s.Log.Save(path, s.Params.NAString); err != nil {
		return err
	}
	fmt.Printf("\nResults saved to %s\n", path)
	return nil
}
