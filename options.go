package triplestore

import (
	badger "github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/nshkrdotcom/triplestore-go/internal/kve"
)

// Options configures Open. The zero value is not usable directly; build
// one with the With* functions below, which each return an Option
// closure applied in order.
type Options struct {
	Logger *zap.Logger

	// SequenceCheckpointInterval overrides how often (in allocations) a
	// type's sequence counter is persisted to disk. Zero uses the
	// default of 1000.
	SequenceCheckpointInterval uint64

	// SequenceSafetyMargin overrides the gap added to a restored sequence
	// counter on startup. Zero uses the default of 1000.
	SequenceSafetyMargin uint64

	// BadgerOptions overrides the badger.Options a store is opened with.
	// If nil, kve.DefaultBadgerOptions(path) is used.
	BadgerOptions *badger.Options
}

// Option mutates an in-progress Options during Open.
type Option func(*Options)

// WithLogger sets the zap.Logger used for engine lifecycle messages and
// the default telemetry hook. Passing nil is equivalent to not calling
// this option (zap.NewNop() is used).
func WithLogger(log *zap.Logger) Option {
	return func(o *Options) { o.Logger = log }
}

// WithSequenceCheckpointInterval overrides the dictionary's sequence
// checkpoint interval.
func WithSequenceCheckpointInterval(n uint64) Option {
	return func(o *Options) { o.SequenceCheckpointInterval = n }
}

// WithSequenceSafetyMargin overrides the dictionary's startup safety
// margin.
func WithSequenceSafetyMargin(n uint64) Option {
	return func(o *Options) { o.SequenceSafetyMargin = n }
}

// WithBadgerOptions overrides the badger.Options a store is opened with.
// Callers that set Dir on the supplied options have it overwritten with
// Open's path argument, so the two never disagree.
func WithBadgerOptions(opts badger.Options) Option {
	return func(o *Options) { o.BadgerOptions = &opts }
}

func buildOptions(opts []Option) Options {
	var o Options
	for _, apply := range opts {
		apply(&o)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

func (o Options) badgerOptions(path string) badger.Options {
	if o.BadgerOptions != nil {
		bo := *o.BadgerOptions
		bo.Dir = path
		bo.ValueDir = path
		return bo
	}
	return kve.DefaultBadgerOptions(path)
}
