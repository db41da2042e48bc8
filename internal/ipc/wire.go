package ipc

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// maxFrameBytes bounds a single frame's payload size; a length prefix
// larger than this is treated as framing corruption rather than a huge
// legitimate message (nothing in spec.md's message set is anywhere near
// this size).
const maxFrameBytes = 16 << 20

// writeFrame writes env as a 4-byte big-endian length prefix followed by
// its JSON encoding.
func writeFrame(w io.Writer, env Envelope) error {
	buf, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("ipc: encoding envelope: %w", err)
	}
	if len(buf) > maxFrameBytes {
		return fmt.Errorf("ipc: frame too large (%d bytes)", len(buf))
	}
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(buf)))
	if _, err := w.Write(prefix[:]); err != nil {
		return fmt.Errorf("ipc: writing frame length: %w", err)
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("ipc: writing frame payload: %w", err)
	}
	return nil
}

// readFrame reads one length-prefixed JSON envelope from r.
func readFrame(r io.Reader) (Envelope, error) {
	var prefix [4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return Envelope{}, err
	}
	n := binary.BigEndian.Uint32(prefix[:])
	if n > maxFrameBytes {
		return Envelope{}, fmt.Errorf("ipc: frame length %d exceeds limit", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Envelope{}, fmt.Errorf("ipc: reading frame payload: %w", err)
	}
	var env Envelope
	if err := json.Unmarshal(buf, &env); err != nil {
		return Envelope{}, fmt.Errorf("ipc: decoding envelope: %w", err)
	}
	return env, nil
}
