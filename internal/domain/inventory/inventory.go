package inventory

import (
	"errors"
	"sort"
)

var ErrInvalidThreshold = errors.New("inventory: threshold must be zero or greater")

// Policy flags products whose stock has dropped to Threshold units or fewer.
type Policy struct {
	Threshold int
}

func NewPolicy(threshold int) (Policy, error) {
	if threshold < 0 {
		return Policy{}, ErrInvalidThreshold
	}
	return Policy{Threshold: threshold}, nil
}

func (p Policy) Low(remaining int) bool {
	return remaining <= p.Threshold
}

// Level is the stock left for a product after an order.
type Level struct {
	ProductID string
	Remaining int
}

// LowLevels returns the levels at or below the threshold, one per product, sorted by
// product id. When a product appears more than once the smallest remaining wins.
func (p Policy) LowLevels(levels []Level) []Level {
	lowest := make(map[string]int, len(levels))
	for _, l := range levels {
		if !p.Low(l.Remaining) {
			continue
		}
		if cur, ok := lowest[l.ProductID]; !ok || l.Remaining < cur {
			lowest[l.ProductID] = l.Remaining
		}
	}
	out := make([]Level, 0, len(lowest))
	for id, r := range lowest {
		out = append(out, Level{ProductID: id, Remaining: r})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}
