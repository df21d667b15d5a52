// Package gate decides which jobs a push event is allowed to trigger.
//
// Every admitted event triggers check, test and clippy. Publish is gated on
// the event being a tag push. Tags that do not look like a version
// (v<digits>.<rest>) are dropped before evaluation and trigger nothing.
package gate

import (
	"regexp"
	"strings"

	"pushgate/internal/model"
)

const (
	branchPrefix = "refs/heads/"
	tagPrefix    = "refs/tags/"
)

var versionTag = regexp.MustCompile(`^v[0-9]+\..*$`)

// ClassifyRef splits a full git ref into its kind and short name. Refs that
// are neither branches nor tags (e.g. refs/notes/*) are rejected.
func ClassifyRef(ref string) (model.RefKind, string, bool) {
	switch {
	case strings.HasPrefix(ref, branchPrefix):
		name := strings.TrimPrefix(ref, branchPrefix)
		return model.RefBranch, name, name != ""
	case strings.HasPrefix(ref, tagPrefix):
		name := strings.TrimPrefix(ref, tagPrefix)
		return model.RefTag, name, name != ""
	default:
		return "", "", false
	}
}

// MatchesTagFilter reports whether a tag name passes the version filter.
// Branch names are never filtered.
func MatchesTagFilter(name string) bool {
	return versionTag.MatchString(name)
}

// Admit classifies a ref and applies the tag filter. ok is false when the
// event should trigger nothing at all.
func Admit(ref string) (model.RefKind, string, bool) {
	kind, name, ok := ClassifyRef(ref)
	if !ok {
		return "", "", false
	}
	if kind == model.RefTag && !MatchesTagFilter(name) {
		return "", "", false
	}
	return kind, name, true
}

// Evaluate returns the job set for an admitted event. It is pure: the same
// ref kind always yields the same set, and the set is never empty.
func Evaluate(kind model.RefKind) []model.JobName {
	jobs := []model.JobName{model.JobCheck, model.JobTest, model.JobClippy}
	if kind == model.RefTag {
		jobs = append(jobs, model.JobPublish)
	}
	return jobs
}
