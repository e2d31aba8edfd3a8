// Package progress derives a project's completion percentage from its task
// and checklist counts, and suggests lifecycle moves based on it.
package progress

// Counts is a total/completed pair. Completed never exceeds Total for rows
// read from the store.
type Counts struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
}

type Result struct {
	Progress   int     `json:"progress"`
	Suggestion *Status `json:"suggestion"`
}

// Calculate is pure. A project with nothing to do is at 0%.
//
// Suggestions never move a project backwards: dropping to 0% does not
// suggest returning to Planning.
func Calculate(tasks, checklist Counts, current Status) Result {
	pct := Percent(tasks.Completed+checklist.Completed, tasks.Total+checklist.Total)
	return Result{Progress: pct, Suggestion: Suggest(pct, current)}
}

// Percent rounds half up and clamps to [0,100].
func Percent(completed, total int) int {
	if total <= 0 || completed <= 0 {
		return 0
	}
	if completed >= total {
		return 100
	}
	return (200*completed + total) / (2 * total)
}

func Suggest(pct int, current Status) *Status {
	switch {
	case pct >= 100 && current != StatusDone:
		s := StatusDone
		return &s
	case pct > 0 && current == StatusPlanning:
		s := StatusInProgress
		return &s
	default:
		return nil
	}
}
