package transcode

import "sync"

// milestonePercents are the completion fractions that produce one progress
// notification each per run.
var milestonePercents = []int{0, 20, 40, 60, 80, 100}

// Milestones fires a notification the first time the completed count reaches
// each precomputed threshold, regardless of the order tasks finish in.
type Milestones struct {
	mu         sync.Mutex
	total      int
	completed  int
	thresholds []int
	next       int
	notify     func(percent, completed, total int)
}

// NewMilestones precomputes thresholds over the given total. A nil notify
// function disables notifications.
func NewMilestones(total int, notify func(percent, completed, total int)) *Milestones {
	thresholds := make([]int, len(milestonePercents))
	for i, pct := range milestonePercents {
		// Round up so e.g. 20% of 3 requires the first completion.
		thresholds[i] = (total*pct + 99) / 100
	}
	return &Milestones{total: total, thresholds: thresholds, notify: notify}
}

// Start fires every milestone already satisfied at zero completions. With a
// non-empty work-set that is exactly the 0% notification.
func (m *Milestones) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fire()
}

// Complete records one finished task and fires any newly reached milestones.
func (m *Milestones) Complete() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completed++
	m.fire()
}

func (m *Milestones) fire() {
	for m.next < len(m.thresholds) && m.completed >= m.thresholds[m.next] {
		if m.notify != nil {
			m.notify(milestonePercents[m.next], m.completed, m.total)
		}
		m.next++
	}
}
