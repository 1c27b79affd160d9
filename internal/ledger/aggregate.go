// Package ledger holds the event-sourced aggregates. Each aggregate is a value
// folded from its facts by a pure apply function; decide methods validate a
// command against the folded state and return the fact to append, or nil when
// the command changes nothing.
package ledger

import "github.com/polkiloo/pointsledger/internal/domain/model"

// Replay folds history into state and returns it with the stream version.
func Replay[S any](initial S, history []model.Envelope, apply func(S, model.Event) S) (S, int64) {
	state := initial
	var version int64
	for _, env := range history {
		state = apply(state, env.Event)
		version = env.Sequence
	}
	return state, version
}
