package statemachine

import "errors"

// Transition defines a valid state change within a lifecycle.
type Transition struct {
	From string
	To   string
}

// Lifecycle is a forward-only state machine: once a status is left it can
// never be re-entered.
type Lifecycle struct {
	name        string
	transitions []Transition
	index       map[Transition]bool
}

func New(name string, transitions []Transition) *Lifecycle {
	index := make(map[Transition]bool, len(transitions))
	for _, t := range transitions {
		index[t] = true
	}
	return &Lifecycle{name: name, transitions: transitions, index: index}
}

// NextFrom returns all valid next states from a given state.
func (l *Lifecycle) NextFrom(from string) []string {
	var nexts []string
	seen := map[string]bool{}
	for _, t := range l.transitions {
		if t.From == from && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// Can checks whether moving from one state to another is allowed.
func (l *Lifecycle) Can(from, to string) error {
	if l.index[Transition{From: from, To: to}] {
		return nil
	}
	return errors.New(
		"invalid " + l.name + " transition: " + from + " -> " + to +
			" is not allowed. Valid transitions from " + from + " are: " + l.describeFrom(from),
	)
}

func (l *Lifecycle) describeFrom(from string) string {
	nexts := l.NextFrom(from)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	result := ""
	for i, s := range nexts {
		if i > 0 {
			result += ", "
		}
		result += s
	}
	return result
}
