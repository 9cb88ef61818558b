package pipeline

import "sort"

// Policy decides whether an item may move from one status to another.
// Both statuses are canonical.
type Policy interface {
	Allow(kind Kind, from, to string) bool
}

// AnyTransition permits every move, including no-op and backward moves.
// It is the default: agents drag cards freely between columns.
type AnyTransition struct{}

// Allow always returns true
func (AnyTransition) Allow(Kind, string, string) bool { return true }

// TransitionTable is an allow-list of successor statuses per kind. Staying
// in the same status is always allowed.
type TransitionTable map[Kind]map[string][]string

// Allow reports whether to is listed as a successor of from
func (t TransitionTable) Allow(kind Kind, from, to string) bool {
	if from == to {
		return true
	}
	for _, next := range t[kind][from] {
		if next == to {
			return true
		}
	}
	return false
}

// Successors returns the allowed targets of a status, sorted
func (t TransitionTable) Successors(kind Kind, from string) []string {
	out := append([]string(nil), t[kind][from]...)
	sort.Strings(out)
	return out
}

// DefaultTransitionTable is the forward-flow table used when strict
// transitions are enabled. Lost items can be reopened.
func DefaultTransitionTable() TransitionTable {
	return TransitionTable{
		KindLead: {
			"new":       {"contacted", "nurturing", "lost"},
			"contacted": {"qualified", "nurturing", "lost"},
			"qualified": {"tour", "offer", "nurturing", "lost"},
			"tour":      {"qualified", "offer", "lost"},
			"offer":     {"tour", "closed", "lost"},
			"nurturing": {"contacted", "qualified", "lost"},
			"lost":      {"new", "nurturing"},
			"closed":    {},
		},
		KindProperty: {
			"available": {"pending", "sold", "withdrawn"},
			"pending":   {"available", "sold", "withdrawn"},
			"withdrawn": {"available"},
			"sold":      {},
		},
		KindDeal: {
			"offer":      {"inspection", "lost"},
			"inspection": {"offer", "legal", "lost"},
			"legal":      {"inspection", "payment", "lost"},
			"payment":    {"legal", "handover", "lost"},
			"lost":       {"offer"},
			"handover":   {},
		},
	}
}

// PolicyFor returns the strict table when strict is set and AnyTransition otherwise
func PolicyFor(strict bool) Policy {
	if strict {
		return DefaultTransitionTable()
	}
	return AnyTransition{}
}
