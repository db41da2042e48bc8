package repeater

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cortesi/hotki/internal/config"
)

// Timing constants from spec.md §4.3.
const (
	SysInitialDelayMs    = 250
	SysIntervalMs        = 33
	MinInitialDelayMs    = 100
	MaxInitialDelayMs    = 1000
	MinIntervalMs        = 100
	MaxIntervalMs        = 2000
	DefaultMinIntervalMs = 150
)

// RepeatSpec is the (optionally per-binding-overridden) repeat timing.
type RepeatSpec struct {
	InitialDelayMs int
	IntervalMs     int
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// DefaultRepeatSpec is the system default, with the interval floor
// applied (spec.md §4.3: "effective interval floored at
// REPEAT_DEFAULT_MIN_INTERVAL_MS=150", so the nominal ~33ms OS-repeat
// cadence becomes 150ms for our own software ticker).
func DefaultRepeatSpec() RepeatSpec {
	interval := SysIntervalMs
	if interval < DefaultMinIntervalMs {
		interval = DefaultMinIntervalMs
	}
	return RepeatSpec{
		InitialDelayMs: clampInt(SysInitialDelayMs, MinInitialDelayMs, MaxInitialDelayMs),
		IntervalMs:     clampInt(interval, MinIntervalMs, MaxIntervalMs),
	}
}

// ResolveRepeatSpec clamps a per-binding override into the allowed
// bounds, falling back to the corresponding default field when the
// override is nil.
func ResolveRepeatSpec(delayMsOverride, intervalMsOverride *int) RepeatSpec {
	def := DefaultRepeatSpec()
	spec := def
	if delayMsOverride != nil {
		spec.InitialDelayMs = clampInt(*delayMsOverride, MinInitialDelayMs, MaxInitialDelayMs)
	}
	if intervalMsOverride != nil {
		spec.IntervalMs = clampInt(*intervalMsOverride, MinIntervalMs, MaxIntervalMs)
	}
	return spec
}

// Shell runs a shell command to completion, per spec.md §4.3/§7: stdout
// and stderr are reported separately so the caller can apply the
// blank-line-trim-from-each-end rule before turning them into a
// notification body.
type Shell interface {
	Run(command string) (stdout, stderr string, ok bool, err error)
}

// Relay posts synthetic key-down/up events to a target PID.
type Relay interface {
	KeyDown(pid int, chordStr string, isRepeat bool) error
	KeyUp(pid int, chordStr string) error
}

// Notifier delivers a user-facing notification.
type Notifier interface {
	Notify(kind config.NotifyKind, title, body string)
}

// TrimNotifyBody applies the blank-line-only trim from each end described
// in spec.md §9's open question resolution: combine stdout+stderr and
// trim blank lines (not all whitespace) from the start and end only.
func TrimNotifyBody(stdout, stderr string) string {
	combined := stdout
	if stderr != "" {
		if combined != "" {
			combined += "\n"
		}
		combined += stderr
	}
	lines := strings.Split(combined, "\n")
	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	end := len(lines)
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return strings.Join(lines[start:end], "\n")
}

type entry struct {
	ticker  *Ticker
	running atomic.Bool // coalescing guard: a tick overlapping a running action is dropped
	lastPID int
}

// Repeater schedules first-run-immediate, cancellable, optionally
// repeating actions keyed by binding id, per spec.md §4.3.
type Repeater struct {
	mu       sync.Mutex
	entries  map[string]*entry
	shell    Shell
	relay    Relay
	notifier Notifier
	focusPID func() int
}

// New constructs a Repeater. focusPID returns the PID of the currently
// focused window, or -1 if none, used for relay PID handoff.
func New(shell Shell, relay Relay, notifier Notifier, focusPID func() int) *Repeater {
	return &Repeater{
		entries:  make(map[string]*entry),
		shell:    shell,
		relay:    relay,
		notifier: notifier,
		focusPID: focusPID,
	}
}

func (r *Repeater) replace(id string) *entry {
	r.mu.Lock()
	old := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()
	if old != nil {
		old.ticker.Stop()
	}
	e := &entry{}
	r.mu.Lock()
	r.entries[id] = e
	r.mu.Unlock()
	return e
}

// StartShell runs command immediately on a worker goroutine and, if
// repeat is non-nil, schedules coalesced repeats of the same command.
func (r *Repeater) StartShell(id, command string, okKind, errKind config.NotifyKind, repeat *RepeatSpec) {
	e := r.replace(id)

	run := func() {
		if !e.running.CompareAndSwap(false, true) {
			return // coalesced: previous run still in flight
		}
		defer e.running.Store(false)
		stdout, stderr, ok, err := r.shell.Run(command)
		if err != nil || !ok {
			if r.notifier != nil {
				r.notifier.Notify(errKind, "Command failed", TrimNotifyBody(stdout, stderr))
			}
			return
		}
		if r.notifier != nil {
			if body := TrimNotifyBody(stdout, stderr); body != "" {
				r.notifier.Notify(okKind, "Command", body)
			}
		}
	}

	go run()
	if repeat != nil {
		e.ticker = Start(
			time.Duration(repeat.InitialDelayMs)*time.Millisecond,
			time.Duration(repeat.IntervalMs)*time.Millisecond,
			func() { go run() },
		)
	}
}

// StartRelay posts an immediate (non-repeat) key-down for chordStr to the
// currently-focused PID and, if repeat is non-nil, schedules coalesced
// repeat key-downs, tracking focus-PID handoff per spec.md §4.3/§5: on a
// focus change mid-repeat, the old PID receives its key-up strictly
// before the new PID receives its key-down.
func (r *Repeater) StartRelay(id, chordStr string, repeat *RepeatSpec) {
	e := r.replace(id)
	pid := r.focusPID()
	e.lastPID = pid
	if r.relay != nil && pid >= 0 {
		_ = r.relay.KeyDown(pid, chordStr, false)
	}

	if repeat == nil {
		return
	}
	e.ticker = Start(
		time.Duration(repeat.InitialDelayMs)*time.Millisecond,
		time.Duration(repeat.IntervalMs)*time.Millisecond,
		func() {
			if !e.running.CompareAndSwap(false, true) {
				return
			}
			defer e.running.Store(false)
			pid := r.focusPID()
			if pid != -1 && pid != e.lastPID {
				if e.lastPID >= 0 {
					_ = r.relay.KeyUp(e.lastPID, chordStr)
				}
				_ = r.relay.KeyDown(pid, chordStr, false)
				e.lastPID = pid
				return // skip this tick's repeat per spec.md §4.3
			}
			if pid >= 0 {
				_ = r.relay.KeyDown(pid, chordStr, true)
			}
		},
	)
}

// NoteOsRepeat cancels the software ticker for id because the OS has
// taken over autorepeat for the held key.
func (r *Repeater) NoteOsRepeat(id string) {
	r.mu.Lock()
	e := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()
	if e != nil && e.ticker != nil {
		e.ticker.Stop()
	}
}

// Stop cancels the ticker for id without waiting.
func (r *Repeater) Stop(id string) {
	r.mu.Lock()
	e := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()
	if e != nil && e.ticker != nil {
		e.ticker.Stop()
	}
}

// StopSync cancels the ticker for id and waits up to StopWaitTimeout for
// acknowledgment.
func (r *Repeater) StopSync(id string) bool {
	r.mu.Lock()
	e := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()
	if e == nil || e.ticker == nil {
		return true
	}
	return e.ticker.StopSync()
}

// ClearSync cancels every ticker, then waits (bounded, per-ticker) for
// each to acknowledge.
func (r *Repeater) ClearSync() {
	r.mu.Lock()
	all := r.entries
	r.entries = make(map[string]*entry)
	r.mu.Unlock()
	for _, e := range all {
		if e.ticker != nil {
			e.ticker.Stop()
		}
	}
	for _, e := range all {
		if e.ticker != nil {
			e.ticker.StopSync()
		}
	}
}

// ClearAsync cancels every ticker without waiting for acknowledgment.
func (r *Repeater) ClearAsync() {
	r.mu.Lock()
	all := r.entries
	r.entries = make(map[string]*entry)
	r.mu.Unlock()
	for _, e := range all {
		if e.ticker != nil {
			e.ticker.Stop()
		}
	}
}
