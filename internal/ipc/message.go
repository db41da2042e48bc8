// Package ipc implements spec.md §6's wire protocol: a length-prefixed
// framed RPC over a Unix domain socket, an idle-lifecycle server, and a
// two-phase-connect client.
//
// The wire shape is grounded in
// original_source/crates/hotki-server/src/smoketest_bridge.rs's
// serde-tagged envelopes (BridgeCommand/BridgeRequest/BridgeResponse,
// `#[serde(tag = "...", rename_all = "snake_case")]`): a Kind-tagged
// envelope around a JSON payload, rather than inventing a binary schema
// spec.md leaves unspecified ("content defined by IDL of the chosen
// implementation"). Framing itself (4-byte big-endian length prefix
// before each JSON payload) is this package's own choice, grounded in
// the same length-prefix-then-payload shape client.rs/server.rs assume
// a lower ipc::Connection layer provides.
package ipc

import "encoding/json"

// Kind tags an Envelope's payload, matching spec.md §6's named message
// kinds.
type Kind string

const (
	// Client-to-server requests.
	KindSetConfig        Kind = "set_config"
	KindGetBindings      Kind = "get_bindings"
	KindGetDepth         Kind = "get_depth"
	KindGetWorldSnapshot Kind = "get_world_snapshot"
	KindGetWorldStatus   Kind = "get_world_status"
	KindShutdown         Kind = "shutdown"

	// Server-to-client replies.
	KindReply Kind = "reply"

	// Server-to-client event stream.
	KindHudUpdate          Kind = "hud_update"
	KindNotify             Kind = "notify"
	KindReloadConfig       Kind = "reload_config"
	KindClearNotifications Kind = "clear_notifications"
	KindThemeNext          Kind = "theme_next"
	KindThemePrev          Kind = "theme_prev"
	KindThemeSet           Kind = "theme_set"
	KindShowDetails        Kind = "show_details"
	KindUserStyle          Kind = "user_style"
	KindHotkeyTriggered    Kind = "hotkey_triggered"
	KindLog                Kind = "log"
)

// Envelope is one framed message: a tagged Kind plus its raw JSON
// payload, decoded on demand once the receiver knows which Go type Kind
// implies.
type Envelope struct {
	ID      string          `json:"id"`
	Kind    Kind            `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// newEnvelope marshals payload into an Envelope under kind with id, the
// shared helper every request/reply/event constructor uses.
func newEnvelope(id string, kind Kind, payload any) (Envelope, error) {
	if payload == nil {
		return Envelope{ID: id, Kind: kind}, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{ID: id, Kind: kind, Payload: raw}, nil
}

// decodePayload unmarshals env's raw payload into v.
func decodePayload(env Envelope, v any) error {
	if len(env.Payload) == 0 {
		return nil
	}
	return json.Unmarshal(env.Payload, v)
}

// Reply is the payload of every KindReply envelope: success carries
// Result (left nil on failure), failure carries a non-empty Error.
type Reply struct {
	OK     bool            `json:"ok"`
	Error  string          `json:"error,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
}

// SetConfigRequest is KindSetConfig's payload: a path to a resolved
// config the server should load (config parsing/validation itself is
// out of scope per spec.md §1; the server only consumes the result).
type SetConfigRequest struct {
	Path string `json:"path"`
}

// BindingsResult is KindGetBindings's reply payload.
type BindingsResult struct {
	Bindings []string `json:"bindings"`
}

// DepthResult is KindGetDepth's reply payload: the cursor's current
// nesting depth, for liveness checks (smoketest_bridge.rs's
// BridgeResponse::Depth).
type DepthResult struct {
	Depth int `json:"depth"`
}

// NotifyPayload is KindNotify's payload (spec.md §6:
// "Notify{kind,title,text}").
type NotifyPayload struct {
	Kind  string `json:"kind"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// ThemeSetPayload is KindThemeSet's payload.
type ThemeSetPayload struct {
	Name string `json:"name"`
}

// ShowDetailsPayload is KindShowDetails's payload: a toggle per spec.md
// §3's Toggle action shape.
type ShowDetailsPayload struct {
	On bool `json:"on"`
}

// UserStylePayload is KindUserStyle's payload.
type UserStylePayload struct {
	On bool `json:"on"`
}

// HotkeyTriggeredPayload is KindHotkeyTriggered's payload: the chord
// string that fired and whether it was a repeat.
type HotkeyTriggeredPayload struct {
	Chord  string `json:"chord"`
	Repeat bool   `json:"repeat"`
}

// LogPayload mirrors internal/applog.Entry's wire-relevant fields.
type LogPayload struct {
	Time  string `json:"time"`
	Level string `json:"level"`
	Cat   string `json:"cat"`
	Msg   string `json:"msg"`
	Line  string `json:"line"`
}
