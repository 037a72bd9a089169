// Package telemetry defines the hook points the core calls out on for
// observability: sequence-capacity warnings, overflow, and the two
// corruption conditions that indicate on-disk damage rather than a normal
// error path.
package telemetry

import "go.uber.org/zap"

// Hook receives notifications of events the core considers worth
// surfacing to an operator even though they don't necessarily represent a
// failed operation (e.g. SequenceWarning) or represent damage discovered
// outside the calling operation's own error return (CorruptID, InvalidKey
// surface during background iteration, not just lookups).
type Hook interface {
	// SequenceWarning fires the first time a type's sequence counter
	// crosses 50% of its capacity.
	SequenceWarning(typeName string, used, capacity uint64)
	// SequenceOverflow fires when a type's sequence counter is exhausted
	// and allocation for that type has become impossible.
	SequenceOverflow(typeName string, capacity uint64)
	// CorruptID fires when a term ID being looked up has an unrecognised
	// tag, or when the term bytes stored for it fail to decode.
	CorruptID(id uint64, context string)
	// InvalidKey fires when a stored index key fails to decode to a
	// triple (it is not exactly 24 bytes).
	InvalidKey(key []byte, context string)
}

// ZapHook is the default Hook, logging each event at an appropriate level
// through a zap.Logger.
type ZapHook struct {
	log *zap.Logger
}

// NewZapHook wraps log (or a no-op logger if nil) as a Hook.
func NewZapHook(log *zap.Logger) *ZapHook {
	if log == nil {
		log = zap.NewNop()
	}
	return &ZapHook{log: log.Named("telemetry")}
}

func (h *ZapHook) SequenceWarning(typeName string, used, capacity uint64) {
	h.log.Warn("sequence counter past 50% capacity",
		zap.String("type", typeName),
		zap.Uint64("used", used),
		zap.Uint64("capacity", capacity),
	)
}

func (h *ZapHook) SequenceOverflow(typeName string, capacity uint64) {
	h.log.Error("sequence counter exhausted",
		zap.String("type", typeName),
		zap.Uint64("capacity", capacity),
	)
}

func (h *ZapHook) CorruptID(id uint64, context string) {
	h.log.Error("corrupt term id",
		zap.Uint64("id", id),
		zap.String("context", context),
	)
}

func (h *ZapHook) InvalidKey(key []byte, context string) {
	h.log.Error("invalid index key",
		zap.Binary("key", key),
		zap.String("context", context),
	)
}

// NopHook discards every event; useful in tests that don't assert on
// telemetry.
type NopHook struct{}

func (NopHook) SequenceWarning(string, uint64, uint64) {}
func (NopHook) SequenceOverflow(string, uint64)        {}
func (NopHook) CorruptID(uint64, string)               {}
func (NopHook) InvalidKey([]byte, string)              {}
