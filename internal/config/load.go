package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// fileBinding and fileKeys mirror Binding/Keys field-for-field as an
// on-disk JSON shape: the wire format for the already-resolved Config a
// SetConfig request names (spec.md §1: the core "consumes a resolved
// configuration" rather than parsing the scripting front end's DSL
// itself, so encoding/json — already this module's wire format per
// internal/ipc/message.go — decodes it directly with no separate
// grammar to maintain).
type fileConfig struct {
	Root        *fileKeys      `json:"root"`
	BaseStyle   Style          `json:"base_style"`
	UserOverlay Style          `json:"user_overlay"`
	Tunables    ServerTunables `json:"tunables"`
}

type fileKeys struct {
	Bindings []fileBinding `json:"bindings"`
}

type fileBinding struct {
	ChordStr    string     `json:"chord"`
	Description string     `json:"description"`
	Action      fileAction `json:"action"`
	Attrs       fileAttrs  `json:"attrs"`
}

type fileAction struct {
	Kind string `json:"kind"`

	ShellCommand string `json:"shell_command,omitempty"`
	OkNotify     string `json:"ok_notify,omitempty"`
	ErrNotify    string `json:"err_notify,omitempty"`

	RelayChord string `json:"relay_chord,omitempty"`

	SubKeys *fileKeys `json:"sub_keys,omitempty"`

	Toggle string `json:"toggle,omitempty"`

	ThemeName string `json:"theme_name,omitempty"`

	Volume      *uint8 `json:"volume,omitempty"`
	VolumeDelta *int8  `json:"volume_delta,omitempty"`

	FullscreenKind string `json:"fullscreen_kind,omitempty"`

	Grid GridSpec `json:"grid,omitempty"`

	MoveDirection string `json:"move_direction,omitempty"`

	Raise RaiseTarget `json:"raise,omitempty"`
}

type fileAttrs struct {
	NoExit           *bool   `json:"noexit,omitempty"`
	Global           *bool   `json:"global,omitempty"`
	Hide             *bool   `json:"hide,omitempty"`
	HudOnly          *bool   `json:"hud_only,omitempty"`
	MatchApp         *string `json:"match_app,omitempty"`
	MatchTitle       *string `json:"match_title,omitempty"`
	Repeat           *bool   `json:"repeat,omitempty"`
	RepeatDelayMs    *int    `json:"repeat_delay_ms,omitempty"`
	RepeatIntervalMs *int    `json:"repeat_interval_ms,omitempty"`
	Capture          *bool   `json:"capture,omitempty"`
	StyleOverlay     *string `json:"style_overlay,omitempty"`
}

var actionKindNames = map[string]ActionKind{
	"shell":               ActionShell,
	"relay":               ActionRelay,
	"keys":                ActionKeys,
	"pop":                 ActionPop,
	"exit":                ActionExit,
	"reload_config":       ActionReloadConfig,
	"clear_notifications": ActionClearNotifications,
	"show_details":        ActionShowDetails,
	"theme_next":          ActionThemeNext,
	"theme_prev":          ActionThemePrev,
	"theme_set":           ActionThemeSet,
	"show_hud_root":       ActionShowHudRoot,
	"set_volume":          ActionSetVolume,
	"change_volume":       ActionChangeVolume,
	"mute":                ActionMute,
	"user_style":          ActionUserStyle,
	"fullscreen":          ActionFullscreen,
	"place":               ActionPlace,
	"place_move":          ActionPlaceMove,
	"raise":               ActionRaise,
	"hide":                ActionHide,
}

var notifyKindNames = map[string]NotifyKind{
	"":      NotifyInfo,
	"info":  NotifyInfo,
	"warn":  NotifyWarn,
	"error": NotifyError,
}

var toggleNames = map[string]Toggle{
	"":     ToggleFlip,
	"flip": ToggleFlip,
	"on":   ToggleOn,
	"off":  ToggleOff,
}

var directionNames = map[string]Direction{
	"up":    DirUp,
	"down":  DirDown,
	"left":  DirLeft,
	"right": DirRight,
}

// LoadFile reads and resolves the JSON-encoded Config at path, returning
// any non-fatal ValidationWarnings (see Validate) alongside the first
// fatal ValidationError.
func LoadFile(path string) (*Config, []ValidationWarning, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var fc fileConfig
	if err := json.Unmarshal(raw, &fc); err != nil {
		return nil, nil, ValidationError{Message: fmt.Sprintf("invalid config JSON: %v", err)}
	}
	root, err := fc.Root.resolve()
	if err != nil {
		return nil, nil, err
	}
	cfg := &Config{
		Root:        root,
		BaseStyle:   fc.BaseStyle,
		UserOverlay: fc.UserOverlay,
		Tunables:    fc.Tunables,
	}
	warnings, err := Validate(cfg)
	if err != nil {
		return nil, warnings, err
	}
	return cfg, warnings, nil
}

func (fk *fileKeys) resolve() (*Keys, error) {
	if fk == nil {
		return &Keys{}, nil
	}
	keys := &Keys{Bindings: make([]Binding, 0, len(fk.Bindings))}
	for _, fb := range fk.Bindings {
		b, err := fb.resolve()
		if err != nil {
			return nil, err
		}
		keys.Bindings = append(keys.Bindings, b)
	}
	return keys, nil
}

func (fb fileBinding) resolve() (Binding, error) {
	action, err := fb.Action.resolve()
	if err != nil {
		return Binding{}, err
	}
	return Binding{
		ChordStr:    fb.ChordStr,
		Description: fb.Description,
		Action:      action,
		Attrs:       fb.Attrs.resolve(),
	}, nil
}

func (fa fileAction) resolve() (Action, error) {
	kind, ok := actionKindNames[fa.Kind]
	if !ok {
		return Action{}, ValidationError{Message: fmt.Sprintf("unknown action kind %q", fa.Kind)}
	}
	ok1, ok2 := notifyKindNames[fa.OkNotify], notifyKindNames[fa.ErrNotify]
	a := Action{
		Kind:           kind,
		ShellCommand:   fa.ShellCommand,
		OkNotify:       ok1,
		ErrNotify:      ok2,
		RelayChord:     fa.RelayChord,
		ThemeName:      fa.ThemeName,
		FullscreenKind: fa.FullscreenKind,
		Grid:           fa.Grid,
		Raise:          fa.Raise,
	}
	toggle, ok := toggleNames[fa.Toggle]
	if !ok {
		return Action{}, ValidationError{Message: fmt.Sprintf("unknown toggle %q", fa.Toggle)}
	}
	a.Toggle = toggle
	if fa.Volume != nil {
		a.Volume = *fa.Volume
	}
	if fa.VolumeDelta != nil {
		a.VolumeDelta = *fa.VolumeDelta
	}
	if fa.MoveDirection != "" {
		dir, ok := directionNames[fa.MoveDirection]
		if !ok {
			return Action{}, ValidationError{Message: fmt.Sprintf("unknown move direction %q", fa.MoveDirection)}
		}
		a.MoveDirection = dir
	}
	if kind == ActionKeys {
		sub, err := fa.SubKeys.resolve()
		if err != nil {
			return Action{}, err
		}
		a.SubKeys = sub
	}
	return a, nil
}

func (fa fileAttrs) resolve() Attributes {
	return Attributes{
		NoExit:           fa.NoExit,
		Global:           fa.Global,
		Hide:             fa.Hide,
		HudOnly:          fa.HudOnly,
		MatchApp:         fa.MatchApp,
		MatchTitle:       fa.MatchTitle,
		Repeat:           fa.Repeat,
		RepeatDelayMs:    fa.RepeatDelayMs,
		RepeatIntervalMs: fa.RepeatIntervalMs,
		Capture:          fa.Capture,
		StyleOverlay:     fa.StyleOverlay,
	}
}
