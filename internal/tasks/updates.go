package tasks

import "fmt"

// Update is a job lifecycle event.
type Update struct {
	Phase   Phase
	Job     string
	Message string
	Err     error
}

// Phase of a job.
type Phase int

const (
	Submitted Phase = iota
	Started
	Delivered
	Failed
	Dropped
)

func (p Phase) String() string {
	switch p {
	case Submitted:
		return "submitted"
	case Started:
		return "started"
	case Delivered:
		return "delivered"
	case Failed:
		return "failed"
	case Dropped:
		return "dropped"
	default:
		return ""
	}
}

func submittedUpdate(job string) Update {
	return Update{Phase: Submitted, Job: job, Message: fmt.Sprintf("Queued %s", job)}
}

func startedUpdate(job string) Update {
	return Update{Phase: Started, Job: job, Message: fmt.Sprintf("Running %s", job)}
}

func deliveredUpdate(job string) Update {
	return Update{Phase: Delivered, Job: job, Message: fmt.Sprintf("Delivered %s", job)}
}

func failedUpdate(job string, err error) Update {
	return Update{Phase: Failed, Job: job, Message: fmt.Sprintf("%s failed: %v", job, err), Err: err}
}

func droppedUpdate(job, reason string) Update {
	return Update{Phase: Dropped, Job: job, Message: fmt.Sprintf("Dropped %s: %s", job, reason)}
}
