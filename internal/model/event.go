package model

// PushEvent is the decoded webhook payload for a push to a branch or tag.
type PushEvent struct {
	Ref   string `json:"ref"`
	After string `json:"after"`

	Repo struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
	Pusher struct {
		Name string `json:"name"`
	} `json:"pusher"`
}

type RefKind string

const (
	RefBranch RefKind = "branch"
	RefTag    RefKind = "tag"
)
