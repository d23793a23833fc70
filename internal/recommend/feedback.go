package recommend

import "sync"

// FeedbackTally is the running helpful/unhelpful count for one workflow.
type FeedbackTally struct {
	Helpful   int `json:"helpful"`
	Unhelpful int `json:"unhelpful"`
}

// feedbackLog accumulates per-workflow feedback tallies in memory.
type feedbackLog struct {
	mu      sync.Mutex
	tallies map[string]FeedbackTally
}

func newFeedbackLog() *feedbackLog {
	return &feedbackLog{tallies: make(map[string]FeedbackTally)}
}

func (f *feedbackLog) record(workflowID string, helpful bool) FeedbackTally {
	f.mu.Lock()
	defer f.mu.Unlock()

	tally := f.tallies[workflowID]
	if helpful {
		tally.Helpful++
	} else {
		tally.Unhelpful++
	}
	f.tallies[workflowID] = tally
	return tally
}

func (f *feedbackLog) tally(workflowID string) FeedbackTally {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tallies[workflowID]
}
