package eventtap

// HotkTag is the sentinel written to EVENT_SOURCE_USER_DATA (CGEvent
// field index 42, spec.md §8) to mark events the relay injected itself.
// It must match internal/relay's tag exactly, since the tap filters on
// it and the relay writes it; the two packages don't share an import
// edge (eventtap must not depend on relay) so the constant is
// duplicated, not aliased.
const HotkTag int64 = 0x686f746b // "hotk"

// ShouldIgnoreSynthetic reports whether an event must be ignored before
// any policy classification runs, per spec.md §4.1/§8: both hold
// independently, either is sufficient to ignore.
func ShouldIgnoreSynthetic(sourcePID int32, ownPID int32, sourceUserData int64) bool {
	return sourcePID == ownPID || sourceUserData == HotkTag
}
