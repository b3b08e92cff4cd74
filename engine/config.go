package engine

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

// Params holds the session-wide experiment parameters. Defaults come from
// DefaultParams, optionally overridden by a TOML file and then by
// GAZEKIT_-prefixed environment variables.
type Params struct {
	ScreenWidth  int     `toml:"screen_width" env:"SCREEN_WIDTH"`
	ScreenHeight int     `toml:"screen_height" env:"SCREEN_HEIGHT"`
	Fullscreen   bool    `toml:"fullscreen" env:"FULLSCREEN"`
	FontFile     string  `toml:"font_file" env:"FONT_FILE"`
	FontSize     int     `toml:"font_size" env:"FONT_SIZE"`
	ScaleFactor  float64 `toml:"scale_factor" env:"SCALE_FACTOR"`
	BGColor      string  `toml:"bg_color" env:"BG_COLOR"`
	TextColor    string  `toml:"text_color" env:"TEXT_COLOR"`

	// DataDirectory is created on demand; OutputFile is resolved inside it.
	DataDirectory  string `toml:"data_directory" env:"DATA_DIRECTORY"`
	DataFilePrefix string `toml:"data_file_prefix" env:"DATA_FILE_PREFIX"`
	OutputFile     string `toml:"output_file" env:"OUTPUT_FILE"`
	// NAString is the placeholder written for attributes a log row lacks.
	NAString string `toml:"na_string" env:"NA_STRING"`

	// MinRT guards collectors against residual input right after onset.
	MinRT uint64 `toml:"min_rt" env:"MIN_RT"`
	// MinFixationMS is the default dwell threshold for gaze-contingent
	// triggers.
	MinFixationMS uint64 `toml:"min_fixation_ms" env:"MIN_FIXATION_MS"`
	// GazeErrorPx pads interest areas to absorb tracker inaccuracy.
	GazeErrorPx float64 `toml:"gaze_error_px" env:"GAZE_ERROR_PX"`
	// EyeUsed picks the eye for gaze-contingent decisions when the tracker
	// records binocularly.
	EyeUsed Eye `toml:"eye_used" env:"EYE_USED"`
	// OfflineGazeFallbackMS is how long a gaze collector waits before
	// synthesizing a response when no tracking hardware is attached.
	// 0 disables the fallback: gaze collection without hardware then
	// aborts the trial with SetupRequested.
	OfflineGazeFallbackMS uint64 `toml:"offline_gaze_fallback_ms" env:"OFFLINE_GAZE_FALLBACK_MS"`

	// EscapeKey is the operator abort key, checked on every tick.
	EscapeKey string `toml:"escape_key" env:"ESCAPE_KEY"`

	SerialDevice  string `toml:"serial_device" env:"SERIAL_DEVICE"`
	SerialBaud    int    `toml:"serial_baud" env:"SERIAL_BAUD"`
	TriggerDevice string `toml:"trigger_device" env:"TRIGGER_DEVICE"`

	// SessionInfo lists extra attributes the operator enters at startup,
	// logged at the session level alongside the subject ID.
	SessionInfo []string `toml:"session_info" env:"SESSION_INFO"`
}

func DefaultParams() Params {
	return Params{
		ScreenWidth:           1920,
		ScreenHeight:          1080,
		FontSize:              24,
		ScaleFactor:           1.0,
		BGColor:               "0,0,0,255",
		TextColor:             "255,255,255,255",
		DataDirectory:         "data",
		DataFilePrefix:        "s",
		OutputFile:            "results.tsv",
		NAString:              ".",
		MinFixationMS:         800,
		GazeErrorPx:           35,
		EyeUsed:               EyeRight,
		OfflineGazeFallbackMS: 2000,
		EscapeKey:             "escape",
		SerialBaud:            9600,
	}
}

// LoadParams layers configuration sources: defaults, then the TOML file at
// path (skipped when path is empty), then environment overrides.
func LoadParams(path string) (Params, error) {
	p := DefaultParams()
	if path != "" {
		if _, err := toml.DecodeFile(path, &p); err != nil {
			return p, fmt.Errorf("load params %s: %w", path, err)
		}
	}
	if err := env.ParseWithOptions(&p, env.Options{Prefix: "GAZEKIT_"}); err != nil {
		return p, fmt.Errorf("params from environment: %w", err)
	}
	return p, nil
}
