package assignment

import "github.com/erazemk/zimmet/internal/model"

// displayPriority orders the statuses that make an item show something other
// than idle. Earlier entries win.
var displayPriority = []model.Status{
	model.StatusAssigned,
	model.StatusFaulty,
	model.StatusPending,
	model.StatusScrapped,
}

func rank(s model.Status) int {
	for i, p := range displayPriority {
		if s == p {
			return i
		}
	}
	return len(displayPriority)
}

// DisplayStatus derives an item's displayed status from the statuses of every
// assignment referencing it. Items with no assignments, or only returned
// ones, are idle.
func DisplayStatus(statuses []model.Status) model.DisplayStatus {
	best := len(displayPriority)
	for _, s := range statuses {
		if r := rank(s); r < best {
			best = r
		}
	}
	if best == len(displayPriority) {
		return model.DisplayIdle
	}
	return model.DisplayStatus(displayPriority[best])
}

// DisplayStatuses derives the displayed status of every listed item from the
// statuses grouped by item id. Items missing from byItem are idle.
func DisplayStatuses(itemIDs []int64, byItem map[int64][]model.Status) map[int64]model.DisplayStatus {
	out := make(map[int64]model.DisplayStatus, len(itemIDs))
	for _, id := range itemIDs {
		out[id] = DisplayStatus(byItem[id])
	}
	return out
}
