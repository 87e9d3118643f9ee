package tierq

// Priority partitions jobs into dispatch tiers. The manager drains
// tiers in strict order: all high-priority jobs settle before any
// medium-priority job starts, and so on.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Priorities returns all priority tiers in dispatch order,
// highest first.
func Priorities() []Priority {
	return []Priority{PriorityHigh, PriorityMedium, PriorityLow}
}

// Valid reports whether p is a known priority tier.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}
