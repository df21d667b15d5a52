// Package plan tracks the execution of one run's job set.
//
// check, test and clippy are independent of each other. publish, when
// selected, has prerequisite edges to all three: it becomes ready only once
// every prerequisite succeeded, and is skipped as soon as any of them fails.
package plan

import (
	"fmt"
	"sync"

	"pushgate/internal/model"
)

var jobOrder = []model.JobName{model.JobCheck, model.JobTest, model.JobClippy, model.JobPublish}

// Plan holds the per-job states and prerequisite edges for a single run.
// It is safe for concurrent use.
type Plan struct {
	mu      sync.Mutex
	states  map[model.JobName]model.JobState
	prereqs map[model.JobName][]model.JobName
}

// Build seeds a plan with every job pending. Jobs outside the given set are
// not part of the plan; publish only gets edges to prerequisites that are
// actually selected.
func Build(jobs []model.JobName) *Plan {
	p := &Plan{
		states:  make(map[model.JobName]model.JobState, len(jobs)),
		prereqs: make(map[model.JobName][]model.JobName),
	}
	for _, j := range jobs {
		p.states[j] = model.JobPending
	}
	if _, ok := p.states[model.JobPublish]; ok {
		for _, pre := range []model.JobName{model.JobCheck, model.JobTest, model.JobClippy} {
			if _, selected := p.states[pre]; selected {
				p.prereqs[model.JobPublish] = append(p.prereqs[model.JobPublish], pre)
			}
		}
	}
	return p
}

// Ready returns the pending jobs whose prerequisites have all succeeded, in a
// fixed deterministic order.
func (p *Plan) Ready() []model.JobName {
	p.mu.Lock()
	defer p.mu.Unlock()

	var ready []model.JobName
	for _, j := range jobOrder {
		st, ok := p.states[j]
		if !ok || st != model.JobPending {
			continue
		}
		ok = true
		for _, pre := range p.prereqs[j] {
			if p.states[pre] != model.JobSucceeded {
				ok = false
				break
			}
		}
		if ok {
			ready = append(ready, j)
		}
	}
	return ready
}

// MarkRunning transitions a job from pending to running.
func (p *Plan) MarkRunning(job model.JobName) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.transition(job, model.JobPending, model.JobRunning)
}

// MarkDone transitions a running job to succeeded or failed. On failure every
// pending job that depends on it is marked skipped.
func (p *Plan) MarkDone(job model.JobName, ok bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	to := model.JobSucceeded
	if !ok {
		to = model.JobFailed
	}
	if err := p.transition(job, model.JobRunning, to); err != nil {
		return err
	}
	if !ok {
		p.skipDependents(job)
	}
	return nil
}

func (p *Plan) transition(job model.JobName, from, to model.JobState) error {
	cur, ok := p.states[job]
	if !ok {
		return fmt.Errorf("job %q is not in this plan", job)
	}
	if cur != from {
		return fmt.Errorf("job %q: invalid transition %s -> %s", job, cur, to)
	}
	p.states[job] = to
	return nil
}

func (p *Plan) skipDependents(failed model.JobName) {
	for _, j := range jobOrder {
		if p.states[j] != model.JobPending {
			continue
		}
		for _, pre := range p.prereqs[j] {
			if pre == failed {
				p.states[j] = model.JobSkipped
				break
			}
		}
	}
}

// Done reports whether every job reached a terminal state.
func (p *Plan) Done() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, st := range p.states {
		if st == model.JobPending || st == model.JobRunning {
			return false
		}
	}
	return true
}

// Stalled reports whether the plan is not done yet no job is ready or
// running. A correctly built plan never stalls; skipped is terminal, so a
// skipped publish does not count.
func (p *Plan) Stalled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	done := true
	for _, j := range jobOrder {
		switch p.states[j] {
		case model.JobRunning:
			return false
		case model.JobPending:
			done = false
			ready := true
			for _, pre := range p.prereqs[j] {
				if p.states[pre] != model.JobSucceeded {
					ready = false
					break
				}
			}
			if ready {
				return false
			}
		}
	}
	return !done
}

// Outcome folds the job states into a run status: failed if any job failed or
// was skipped, succeeded once everything succeeded, running otherwise.
func (p *Plan) Outcome() model.RunStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	done := true
	for _, st := range p.states {
		switch st {
		case model.JobFailed, model.JobSkipped:
			return model.RunFailed
		case model.JobPending, model.JobRunning:
			done = false
		}
	}
	if done {
		return model.RunSucceeded
	}
	return model.RunRunning
}

// States returns a copy of the current job states.
func (p *Plan) States() map[model.JobName]model.JobState {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[model.JobName]model.JobState, len(p.states))
	for j, st := range p.states {
		out[j] = st
	}
	return out
}
