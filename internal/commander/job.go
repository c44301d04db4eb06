package commander

import "time"

// startTimeout is the bounded time a process is allowed to remain in
// current_jobs without a terminal event before it is forced FATAL/UNKNOWN.
const startTimeout = 5 * time.Second

// Job is an in-flight start or stop request awaiting a terminal process
// event, tracked in Starter.currentJobs or Stopper.jobs.
type Job struct {
	Namespec       string
	Address        string
	RequestTime    time.Time
	WaitExit       bool
	IgnoreWaitExit bool

	// Synthetic marks a job whose terminal event was force-generated by the
	// 5s bounded-time check rather than reported by a real supervisor, so
	// logs can tell the two apart without changing any FSM semantics.
	Synthetic bool
}

// Expired reports whether the job has outlived the bounded-time check.
func (j *Job) Expired(now time.Time) bool {
	return now.Sub(j.RequestTime) > startTimeout
}
