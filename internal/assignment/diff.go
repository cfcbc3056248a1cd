package assignment

import (
	"time"

	"github.com/erazemk/zimmet/internal/model"
)

// Diff compares every registered field of prev and next and returns one
// change per differing field, in registry order.
func Diff(prev, next Snapshot) []model.Change {
	var changes []model.Change
	for _, f := range registry {
		from, to := f.get(&prev), f.get(&next)
		if from == to {
			continue
		}
		if f.name == FieldSignedForm && from == "" {
			// There is no previous form to show.
			changes = append(changes, model.Change{
				Field: f.name,
				To:    to,
				Event: model.EventFormAttached,
			})
			continue
		}
		changes = append(changes, model.Change{
			Field: f.name,
			From:  canonical(from),
			To:    canonical(to),
		})
	}
	return changes
}

func canonical(v string) any {
	if v == "" {
		return nil
	}
	return v
}

// NewEntry builds the history entry for moving from prev to next. It returns
// false when nothing changed: such updates never produce an entry.
func NewEntry(action string, prev, next Snapshot, actor model.Actor, at time.Time) (model.HistoryEntry, bool) {
	changes := Diff(prev, next)
	if len(changes) == 0 {
		return model.HistoryEntry{}, false
	}
	return model.HistoryEntry{
		Action:          action,
		At:              at.UTC(),
		ActorID:         actor.ID,
		ActorName:       actor.Name,
		RegistryVersion: RegistryVersion,
		Changes:         changes,
	}, true
}

// Append adds entry to history with the next sequence number and returns the
// new slice. Existing entries are never touched.
func Append(history []model.HistoryEntry, entry model.HistoryEntry) []model.HistoryEntry {
	entry.Seq = len(history) + 1
	out := make([]model.HistoryEntry, len(history), len(history)+1)
	copy(out, history)
	return append(out, entry)
}

// Replay folds history, oldest first, into the canonical field values it
// describes. Replaying a complete history yields Values of the current state.
func Replay(history []model.HistoryEntry) map[string]string {
	state := Values(Snapshot{})
	for _, entry := range history {
		for _, c := range entry.Changes {
			if c.To == nil {
				state[c.Field] = ""
				continue
			}
			if s, ok := c.To.(string); ok {
				state[c.Field] = s
			}
		}
	}
	return state
}

// ReplaySnapshot is Replay projected back onto a snapshot.
func ReplaySnapshot(history []model.HistoryEntry) Snapshot {
	values := Replay(history)
	var s Snapshot
	for _, f := range registry {
		f.set(&s, values[f.name])
	}
	return s
}
