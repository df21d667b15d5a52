package model

type JobName string

const (
	JobCheck   JobName = "check"
	JobTest    JobName = "test"
	JobClippy  JobName = "clippy"
	JobPublish JobName = "publish"
)

type JobState string

const (
	JobPending   JobState = "pending"
	JobRunning   JobState = "running"
	JobSucceeded JobState = "succeeded"
	JobFailed    JobState = "failed"
	JobSkipped   JobState = "skipped"
)

type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// Run is one gated evaluation of a push event: the selected job set plus the
// state each job is in.
type Run struct {
	ID      string  `json:"id"`
	RefKind RefKind `json:"ref_kind"`
	RefName string  `json:"ref_name"`
	Repo    string  `json:"repo"`
	HeadSHA string  `json:"head_sha"`

	Status    RunStatus            `json:"status"`
	Jobs      map[JobName]JobState `json:"jobs"`
	CreatedAt string               `json:"created_at"`
}

// JobNames returns the run's job set in a fixed order, publish last.
func (r *Run) JobNames() []JobName {
	names := make([]JobName, 0, len(r.Jobs))
	for _, j := range []JobName{JobCheck, JobTest, JobClippy, JobPublish} {
		if _, ok := r.Jobs[j]; ok {
			names = append(names, j)
		}
	}
	return names
}
