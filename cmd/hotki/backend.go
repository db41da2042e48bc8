package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os/exec"
	"sync"

	"github.com/cortesi/hotki/internal/applog"
	"github.com/cortesi/hotki/internal/axobserver"
	"github.com/cortesi/hotki/internal/chord"
	"github.com/cortesi/hotki/internal/config"
	"github.com/cortesi/hotki/internal/cursor"
	"github.com/cortesi/hotki/internal/eventtap"
	"github.com/cortesi/hotki/internal/geom"
	"github.com/cortesi/hotki/internal/ipc"
	"github.com/cortesi/hotki/internal/keycode"
	"github.com/cortesi/hotki/internal/relay"
	"github.com/cortesi/hotki/internal/repeater"
	"github.com/cortesi/hotki/internal/theme"
	"github.com/cortesi/hotki/internal/winops"
	"github.com/cortesi/hotki/internal/world"
)

// pollMinMs/pollMaxMs bound the world model's adaptive reconciliation
// poll interval, per internal/world.New.
const (
	pollMinMs = 50
	pollMaxMs = 2000
)

// execShell runs a command via /bin/sh -c, implementing
// internal/repeater.Shell. A non-zero exit is reported as ok=false
// rather than as err, matching spec.md §4.3's stdout/stderr/ok/err
// shape (err is reserved for failing to even start the command).
type execShell struct{}

func (execShell) Run(command string) (stdout, stderr string, ok bool, err error) {
	cmd := exec.Command("/bin/sh", "-c", command)
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	runErr := cmd.Run()
	if runErr == nil {
		return outBuf.String(), errBuf.String(), true, nil
	}
	if _, isExit := runErr.(*exec.ExitError); isExit {
		return outBuf.String(), errBuf.String(), false, nil
	}
	return outBuf.String(), errBuf.String(), false, runErr
}

// Backend dispatches IPC requests and resolved key events against the
// binding tree, owning every piece of mutable engine state: the current
// cursor, the loaded config, and the world model. It implements
// internal/ipc.Handler via Handle and internal/repeater.Notifier via
// Notify.
type Backend struct {
	mu          sync.Mutex
	cfg         *config.Config
	configPath  string
	themes      map[string]config.Style
	cursor      cursor.Cursor
	showDetails bool
	userStyle   bool
	suspended   bool

	heldMods   keycode.Modifiers
	heldChords map[int]heldChord

	world      *world.World
	rep        *repeater.Repeater
	relay      *relay.Relay
	ops        winops.Ops
	hideStore  *winops.HideStore
	axRegistry *axobserver.Registry
	policy     *eventtap.Policy

	log    *applog.Logger
	events chan ipc.Envelope
}

// heldChord remembers which binding id a held scancode triggered, so a
// KeyUp can stop the right repeater entry and so AutoRepeat bookkeeping
// can hand the OS-repeat baton to internal/repeater.NoteOsRepeat.
type heldChord struct {
	id    string
	attrs config.Attributes
}

// NewBackend constructs a Backend with no platform runtime wired in yet;
// AttachPlatform finishes construction once the darwin (or stub) runtime
// has built its Ops/Relay/Registry implementations.
func NewBackend(cfg *config.Config, themes map[string]config.Style, log *applog.Logger) *Backend {
	b := &Backend{
		cfg:        cfg,
		themes:     themes,
		heldChords: make(map[int]heldChord),
		world:      world.New(pollMinMs, pollMaxMs),
		hideStore:  winops.NewHideStore(),
		policy:     eventtap.NewPolicy(),
		log:        log,
	}
	return b
}

// AttachPlatform wires in the platform-specific pieces: the real window
// Ops, the real key relay, and the AX observer registry backing the
// world model's reconciliation.
func (b *Backend) AttachPlatform(ops winops.Ops, rel *relay.Relay, registry *axobserver.Registry) {
	b.mu.Lock()
	b.ops = ops
	b.relay = rel
	b.axRegistry = registry
	b.rep = repeater.New(execShell{}, relay.ForRepeater{Relay: rel}, b, b.focusPIDLocked)
	b.mu.Unlock()
}

// CurrentFocus reads the world model's currently focused window, if any,
// as the Focus context key-event resolution guards against.
func (b *Backend) CurrentFocus() cursor.Focus {
	for _, ww := range b.world.Snapshot() {
		if ww.Focused {
			return cursor.Focus{App: ww.App, Title: ww.Title, PID: int(ww.PID)}
		}
	}
	return cursor.Focus{}
}

func (b *Backend) focusPIDLocked() int {
	for _, ww := range b.world.Snapshot() {
		if ww.Focused {
			return int(ww.PID)
		}
	}
	return -1
}

// Notify implements internal/repeater.Notifier, forwarding to the
// connected client as a KindNotify event.
func (b *Backend) Notify(kind config.NotifyKind, title, text string) {
	b.emit(ipc.KindNotify, ipc.NotifyPayload{Kind: notifyKindName(kind), Title: title, Text: text})
}

func notifyKindName(k config.NotifyKind) string {
	switch k {
	case config.NotifyWarn:
		return "warn"
	case config.NotifyError:
		return "error"
	default:
		return "info"
	}
}

func (b *Backend) emit(kind ipc.Kind, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	env := ipc.Envelope{Kind: kind, Payload: raw}
	select {
	case b.events <- env:
	default:
		b.log.Warn(applog.CatIPC, "event channel full, dropping", "kind", string(kind))
	}
}

// hudPayload is KindHudUpdate's payload: the flattened visible binding
// rows for the cursor's current position. HUD rendering itself is out
// of scope; this only carries the data a client-side renderer needs.
type hudPayload struct {
	Visible bool            `json:"visible"`
	Rows    []cursor.HudRow `json:"rows"`
}

func (b *Backend) publishHud() {
	rows := cursor.HudKeys(b.cfg.Root, b.cursor)
	b.emit(ipc.KindHudUpdate, hudPayload{Visible: b.cursor.HudVisible(), Rows: rows})
}

// syncPolicyLocked pushes the current mode's effective capture-all
// attribute into the event-tap policy, per spec.md §4.1's capture-all
// overlay (scenario S5). Callers must hold b.mu and must call this after
// every b.cursor mutation so the tap never classifies against a stale
// capture state.
func (b *Backend) syncPolicyLocked() {
	b.policy.SetCaptureAll(cursor.CurrentCapture(b.cfg.Root, b.cursor))
}

// Handle implements internal/ipc.Handler.
func (b *Backend) Handle(kind ipc.Kind, payload json.RawMessage) (any, error) {
	switch kind {
	case ipc.KindSetConfig:
		var req ipc.SetConfigRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, fmt.Errorf("decoding set_config: %w", err)
		}
		return nil, b.loadConfig(req.Path)

	case ipc.KindGetBindings:
		b.mu.Lock()
		defer b.mu.Unlock()
		rows := cursor.HudKeys(b.cfg.Root, b.cursor)
		out := make([]string, len(rows))
		for i, r := range rows {
			out[i] = r.Chord
		}
		return ipc.BindingsResult{Bindings: out}, nil

	case ipc.KindGetDepth:
		b.mu.Lock()
		defer b.mu.Unlock()
		return ipc.DepthResult{Depth: len(b.cursor.Path)}, nil

	case ipc.KindGetWorldSnapshot:
		return b.world.Snapshot(), nil

	case ipc.KindGetWorldStatus:
		return b.world.StatusSnapshot(), nil

	default:
		return nil, fmt.Errorf("unhandled request kind %q", kind)
	}
}

// loadConfig parses and swaps in the config at path. The event tap is
// suspended for the duration of the read/parse/validate so it never
// classifies a key against a binding tree that's mid-replacement.
func (b *Backend) loadConfig(path string) error {
	b.mu.Lock()
	b.suspended = true
	b.policy.SetSuspended(true)
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		b.suspended = false
		b.policy.SetSuspended(false)
		b.mu.Unlock()
	}()

	cfg, warnings, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.cfg = cfg
	b.configPath = path
	b.cursor = cursor.Cursor{}
	b.syncPolicyLocked()
	b.mu.Unlock()
	for _, w := range warnings {
		b.log.Warn(applog.CatConfig, w.Message)
	}
	b.emit(ipc.KindReloadConfig, nil)
	b.publishHud()
	return nil
}

// HandleKeyEvent is the platform event-tap's callback: it classifies
// code against the current binding tree, applies the event-tap policy,
// and — if the policy says to emit — dispatches the matched action. It
// returns whether the platform tap should intercept (suppress) the
// event from reaching the foreground app.
func (b *Backend) HandleKeyEvent(code int, kind eventtap.Kind, isRepeat bool, focus cursor.Focus) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if modBit := modifierBitForCode(code); modBit != 0 {
		if kind == eventtap.KeyDown {
			b.heldMods |= modBit
		} else {
			b.heldMods &^= modBit
		}
		return false
	}

	keyName, ok := keycode.NameForCode(code)
	if !ok {
		return false
	}
	c := chord.Chord{Mods: b.heldMods, Key: keyName}
	chordStr := c.String()

	b.cursor.Focus = focus
	if newCursor, changed := cursor.EnsureContext(b.cfg.Root, b.cursor, focus); changed {
		b.cursor = newCursor
	}
	b.syncPolicyLocked()

	resolved := cursor.Resolve(b.cfg.Root, b.cursor, chordStr)
	match := eventtap.NoMatch
	if resolved.Found {
		match = eventtap.MatchIntercept
	}
	emit, intercept := b.policy.Classify(code, kind, isRepeat, match)

	switch kind {
	case eventtap.KeyUp:
		if held, ok := b.heldChords[code]; ok {
			delete(b.heldChords, code)
			if b.rep != nil {
				b.rep.Stop(held.id)
			}
		}
		return intercept
	case eventtap.KeyDown:
		if !emit || !resolved.Found {
			return intercept
		}
		if !isRepeat {
			b.heldChords[code] = heldChord{id: chordStr, attrs: resolved.Attrs}
		} else if b.rep != nil {
			b.rep.NoteOsRepeat(chordStr)
		}
		b.dispatchLocked(chordStr, resolved, isRepeat)
		return intercept
	}
	return intercept
}

func modifierBitForCode(code int) keycode.Modifiers {
	for _, m := range []keycode.Modifiers{keycode.Command, keycode.Shift, keycode.Control, keycode.Option} {
		if code == keycode.ModifierKeycodes(m, keycode.SideLeft) || code == keycode.ModifierKeycodes(m, keycode.SideRight) {
			return m
		}
	}
	return 0
}

// dispatchLocked executes resolved's action. Callers must hold b.mu.
func (b *Backend) dispatchLocked(bindingID string, resolved cursor.Resolved, isRepeat bool) {
	a := resolved.Action
	attrs := resolved.Attrs
	b.emit(ipc.KindHotkeyTriggered, ipc.HotkeyTriggeredPayload{Chord: bindingID, Repeat: isRepeat})

	var repeatSpec *repeater.RepeatSpec
	if attrs.EffectiveRepeat() {
		spec := repeater.ResolveRepeatSpec(attrs.RepeatDelayMs, attrs.RepeatIntervalMs)
		repeatSpec = &spec
	}

	switch a.Kind {
	case config.ActionShell:
		if b.rep != nil {
			b.rep.StartShell(bindingID, a.ShellCommand, a.OkNotify, a.ErrNotify, repeatSpec)
		}
	case config.ActionRelay:
		if b.rep != nil {
			b.rep.StartRelay(bindingID, a.RelayChord, repeatSpec)
		}
	case config.ActionKeys:
		if resolved.EnteredIndex != nil {
			b.cursor = b.cursor.Push(uint32(*resolved.EnteredIndex))
		}
	case config.ActionPop:
		b.cursor = b.cursor.Pop()
	case config.ActionExit:
		b.cursor = cursor.Cursor{Focus: b.cursor.Focus}
	case config.ActionReloadConfig:
		if b.configPath != "" {
			go func(path string) {
				if err := b.loadConfig(path); err != nil {
					b.log.ErrorErr(applog.CatConfig, "reloading config", err, "path", path)
				}
			}(b.configPath)
		}
	case config.ActionClearNotifications:
		b.emit(ipc.KindClearNotifications, nil)
	case config.ActionShowDetails:
		b.showDetails = applyToggle(a.Toggle, b.showDetails)
		b.emit(ipc.KindShowDetails, ipc.ShowDetailsPayload{On: b.showDetails})
	case config.ActionThemeNext, config.ActionThemePrev:
		names := theme.Names(b.themes)
		next := theme.Cycle(names, b.cursor.OverrideTheme, a.Kind == config.ActionThemeNext)
		b.cursor.OverrideTheme = next
		k := ipc.KindThemeNext
		if a.Kind == config.ActionThemePrev {
			k = ipc.KindThemePrev
		}
		b.emit(k, ipc.ThemeSetPayload{Name: next})
	case config.ActionThemeSet:
		if _, err := theme.Resolve(b.themes, a.ThemeName); err != nil {
			b.Notify(config.NotifyError, "Theme", err.Error())
			break
		}
		b.cursor.OverrideTheme = a.ThemeName
		b.emit(ipc.KindThemeSet, ipc.ThemeSetPayload{Name: a.ThemeName})
	case config.ActionShowHudRoot:
		b.cursor.ViewingRoot = applyToggle(a.Toggle, b.cursor.ViewingRoot)
	case config.ActionSetVolume:
		b.setVolume(int(a.Volume))
	case config.ActionChangeVolume:
		b.changeVolume(int(a.VolumeDelta))
	case config.ActionMute:
		b.setMute(a.Toggle)
	case config.ActionUserStyle:
		b.userStyle = applyToggle(a.Toggle, b.userStyle)
		b.emit(ipc.KindUserStyle, ipc.UserStylePayload{On: b.userStyle})
	case config.ActionFullscreen:
		b.toggleFullscreen(a.Toggle)
	case config.ActionPlace:
		b.place(a.Grid)
	case config.ActionPlaceMove:
		b.placeMove(a.MoveDirection)
	case config.ActionRaise:
		b.raise(a.Raise)
	case config.ActionHide:
		b.hide(a.Toggle)
	}

	if a.Kind != config.ActionKeys && a.Kind != config.ActionPop && !attrs.EffectiveNoExit() {
		b.cursor.Path = nil
		b.cursor.ViewingRoot = false
	}
	b.syncPolicyLocked()
	b.publishHud()
}

func applyToggle(t config.Toggle, cur bool) bool {
	switch t {
	case config.ToggleOn:
		return true
	case config.ToggleOff:
		return false
	default:
		return !cur
	}
}

func (b *Backend) setVolume(pct int)    { b.runOSAScript(fmt.Sprintf("set volume output volume %d", clamp(pct, 0, 100))) }
func (b *Backend) changeVolume(delta int) {
	b.runOSAScript(fmt.Sprintf("set volume output volume (output volume of (get volume settings) + %d)", delta))
}
func (b *Backend) setMute(t config.Toggle) {
	switch t {
	case config.ToggleOn:
		b.runOSAScript("set volume with output muted")
	case config.ToggleOff:
		b.runOSAScript("set volume without output muted")
	default:
		b.runOSAScript("set volume output muted (not (output muted of (get volume settings)))")
	}
}

func (b *Backend) runOSAScript(script string) {
	go func() {
		if _, _, ok, err := execShell{}.Run("osascript -e '" + script + "'"); err != nil || !ok {
			b.log.Warn(applog.CatWinops, "osascript failed", "script", script)
		}
	}()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (b *Backend) focusedRef() (winops.WindowRef, int32, bool) {
	for _, ww := range b.world.Snapshot() {
		if ww.Focused {
			return winops.WindowRef(ww.ID), ww.PID, true
		}
	}
	return 0, 0, false
}

func (b *Backend) toggleFullscreen(t config.Toggle) {
	if b.ops == nil {
		return
	}
	ref, _, ok := b.focusedRef()
	if !ok {
		return
	}
	vf, err := b.ops.VisibleFrame(ref)
	if err != nil {
		return
	}
	if _, err := winops.Place(b.ops, ref, 1, 1, 0, 0, winops.PlaceAttemptOptions{}); err != nil {
		b.log.ErrorErr(applog.CatWinops, "fullscreen place", err, "target", vf)
	}
}

func (b *Backend) place(g config.GridSpec) {
	if b.ops == nil {
		return
	}
	ref, _, ok := b.focusedRef()
	if !ok {
		return
	}
	if _, err := winops.Place(b.ops, ref, g.Cols, g.Rows, g.Col, g.Row, winops.PlaceAttemptOptions{}); err != nil {
		b.log.ErrorErr(applog.CatWinops, "place", err)
	}
}

func (b *Backend) placeMove(dir config.Direction) {
	if b.ops == nil {
		return
	}
	ref, _, ok := b.focusedRef()
	if !ok {
		return
	}
	rect, err := b.ops.GetRect(ref)
	if err != nil {
		return
	}
	vf, err := b.ops.VisibleFrame(ref)
	if err != nil {
		return
	}
	dx, dy := 0.0, 0.0
	switch dir {
	case config.DirUp:
		dy = -rect.H
	case config.DirDown:
		dy = rect.H
	case config.DirLeft:
		dx = -rect.W
	case config.DirRight:
		dx = rect.W
	}
	target := rect.Translated(dx, dy)
	if target.X < vf.X {
		target.X = vf.X
	}
	if target.Y < vf.Y {
		target.Y = vf.Y
	}
	if target.X+target.W > vf.X+vf.W {
		target.X = vf.X + vf.W - target.W
	}
	if target.Y+target.H > vf.Y+vf.H {
		target.Y = vf.Y + vf.H - target.H
	}
	if err := b.ops.SetPos(ref, target.Min()); err != nil {
		b.log.ErrorErr(applog.CatWinops, "place_move", err)
	}
}

func (b *Backend) raise(target config.RaiseTarget) {
	if b.ops == nil {
		return
	}
	for _, ww := range b.world.Snapshot() {
		if target.App != "" && ww.App != target.App {
			continue
		}
		if target.Title != "" && ww.Title != target.Title {
			continue
		}
		if err := b.ops.Raise(winops.WindowRef(ww.ID)); err != nil {
			b.log.ErrorErr(applog.CatWinops, "raise", err, "app", ww.App)
		}
		return
	}
}

func (b *Backend) hide(t config.Toggle) {
	if b.ops == nil {
		return
	}
	ref, pid, ok := b.focusedRef()
	if !ok {
		return
	}
	want := applyToggle(t, false)
	if want {
		if _, err := winops.Hide(b.ops, b.hideStore, pid, uint64(ref), ref, geom.CornerBottomRight); err != nil {
			b.log.ErrorErr(applog.CatWinops, "hide", err)
		}
		return
	}
	if _, err := winops.Unhide(b.ops, b.hideStore, pid, uint64(ref), ref); err != nil {
		b.log.ErrorErr(applog.CatWinops, "unhide", err)
	}
}
