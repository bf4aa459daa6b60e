package stream

import "github.com/aevon-lab/aevon-search/internal/core/aggregation"

// columns is the insertion-ordered set of output labels with their type hints.
// Re-registering a label keeps its position; a known hint overwrites the old one.
type columns struct {
	labels []string
	hints  map[string]aggregation.ValueType
}

func newColumns() *columns {
	return &columns{hints: make(map[string]aggregation.ValueType)}
}

func (c *columns) add(label string, hint aggregation.ValueType) {
	if !c.has(label) {
		c.labels = append(c.labels, label)
	}
	if hint.Known() {
		c.hints[label] = hint
	}
}

// remove drops label from the ordered set. Its hint is kept.
func (c *columns) remove(label string) {
	for i, l := range c.labels {
		if l == label {
			c.labels = append(c.labels[:i], c.labels[i+1:]...)
			return
		}
	}
}

func (c *columns) has(label string) bool {
	for _, l := range c.labels {
		if l == label {
			return true
		}
	}
	return false
}

func (c *columns) hint(label string) aggregation.ValueType {
	return c.hints[label]
}

func (c *columns) names() []string {
	return append([]string(nil), c.labels...)
}

func (c *columns) count() int {
	return len(c.labels)
}
