package trainer

import (
	"cmp"
	"slices"
	"time"

	"github.com/samber/lo"
)

// WeakSymbolsLimit caps how many high-error symbols weak_spots drills
const WeakSymbolsLimit = 10

// Tally counts answers for a single symbol.
type Tally struct {
	Correct   int
	Incorrect int
}

// Total returns the number of answers.
func (t Tally) Total() int {
	return t.Correct + t.Incorrect
}

// ErrorRate is incorrect/total, or 0 when unanswered.
func (t Tally) ErrorRate() float64 {
	if t.Total() == 0 {
		return 0
	}
	return float64(t.Incorrect) / float64(t.Total())
}

// Accuracy returns the percentage of correct answers, 0 when nothing was answered.
func Accuracy(correct, incorrect int) float64 {
	total := correct + incorrect
	if total <= 0 {
		return 0
	}
	return float64(correct) / float64(total) * 100
}

// WPM applies the five-characters-per-word convention. Zero elapsed time yields 0.
func WPM(completed int, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return (float64(completed) / 5) / elapsed.Minutes()
}

// RankWeak orders the tallied symbols of selection by error rate, highest first,
// keeping discovery order among equal rates, and returns at most limit of them.
// An empty result means there is no usable history. The selection filter
// applies before the limit, so unselected history never crowds it out.
func RankWeak(tallies map[string]Tally, order, selection []string, limit int) []string {
	candidates := lo.Filter(order, func(sym string, _ int) bool {
		t, ok := tallies[sym]
		return ok && t.Total() > 0 && slices.Contains(selection, sym)
	})
	slices.SortStableFunc(candidates, func(a, b string) int {
		return cmp.Compare(tallies[b].ErrorRate(), tallies[a].ErrorRate())
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

// WeakPool returns the symbols weak_spots picks from: the ranked weak symbols,
// or the full selection when there is no history inside it.
func WeakPool(tallies map[string]Tally, order, selection []string) []string {
	if weak := RankWeak(tallies, order, selection, WeakSymbolsLimit); len(weak) > 0 {
		return weak
	}
	return selection
}
