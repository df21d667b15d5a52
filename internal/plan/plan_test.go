package plan

import (
	"testing"

	"pushgate/internal/model"

	"github.com/stretchr/testify/assert"
)

var (
	ciJobs  = []model.JobName{model.JobCheck, model.JobTest, model.JobClippy}
	tagJobs = []model.JobName{model.JobCheck, model.JobTest, model.JobClippy, model.JobPublish}
)

func TestBuild(t *testing.T) {
	t.Run("branch plan has no publish", func(t *testing.T) {
		p := Build(ciJobs)
		states := p.States()
		assert.Len(t, states, 3)
		assert.NotContains(t, states, model.JobPublish)
		for _, st := range states {
			assert.Equal(t, model.JobPending, st)
		}
	})

	t.Run("tag plan seeds publish pending", func(t *testing.T) {
		p := Build(tagJobs)
		assert.Equal(t, model.JobPending, p.States()[model.JobPublish])
	})
}

func TestReady(t *testing.T) {
	t.Run("ci jobs are ready immediately, publish is not", func(t *testing.T) {
		p := Build(tagJobs)
		assert.Equal(t, ciJobs, p.Ready())
	})

	t.Run("publish becomes ready after all prerequisites succeed", func(t *testing.T) {
		p := Build(tagJobs)
		for _, j := range ciJobs {
			assert.NoError(t, p.MarkRunning(j))
		}
		assert.Empty(t, p.Ready())

		assert.NoError(t, p.MarkDone(model.JobCheck, true))
		assert.NoError(t, p.MarkDone(model.JobTest, true))
		assert.Empty(t, p.Ready())

		assert.NoError(t, p.MarkDone(model.JobClippy, true))
		assert.Equal(t, []model.JobName{model.JobPublish}, p.Ready())
	})
}

func TestFailureSkipsPublish(t *testing.T) {
	p := Build(tagJobs)
	for _, j := range ciJobs {
		assert.NoError(t, p.MarkRunning(j))
	}
	assert.NoError(t, p.MarkDone(model.JobCheck, true))
	assert.NoError(t, p.MarkDone(model.JobTest, false))
	assert.NoError(t, p.MarkDone(model.JobClippy, true))

	states := p.States()
	assert.Equal(t, model.JobFailed, states[model.JobTest])
	assert.Equal(t, model.JobSkipped, states[model.JobPublish])
	assert.True(t, p.Done())
	assert.Equal(t, model.RunFailed, p.Outcome())
}

func TestOutcome(t *testing.T) {
	t.Run("all succeeded", func(t *testing.T) {
		p := Build(ciJobs)
		for _, j := range ciJobs {
			assert.NoError(t, p.MarkRunning(j))
			assert.NoError(t, p.MarkDone(j, true))
		}
		assert.True(t, p.Done())
		assert.Equal(t, model.RunSucceeded, p.Outcome())
	})

	t.Run("still running", func(t *testing.T) {
		p := Build(ciJobs)
		assert.NoError(t, p.MarkRunning(model.JobCheck))
		assert.False(t, p.Done())
		assert.Equal(t, model.RunRunning, p.Outcome())
	})

	t.Run("branch failure", func(t *testing.T) {
		p := Build(ciJobs)
		for _, j := range ciJobs {
			assert.NoError(t, p.MarkRunning(j))
		}
		assert.NoError(t, p.MarkDone(model.JobCheck, false))
		assert.NoError(t, p.MarkDone(model.JobTest, true))
		assert.NoError(t, p.MarkDone(model.JobClippy, true))
		assert.Equal(t, model.RunFailed, p.Outcome())
	})
}

func TestTransitions(t *testing.T) {
	p := Build(ciJobs)

	assert.Error(t, p.MarkDone(model.JobCheck, true), "pending cannot go straight to done")
	assert.Error(t, p.MarkRunning(model.JobPublish), "publish is not in a branch plan")

	assert.NoError(t, p.MarkRunning(model.JobCheck))
	assert.Error(t, p.MarkRunning(model.JobCheck), "running twice")

	assert.NoError(t, p.MarkDone(model.JobCheck, true))
	assert.Error(t, p.MarkDone(model.JobCheck, true), "done twice")
}

func TestStalled(t *testing.T) {
	p := Build(tagJobs)
	assert.False(t, p.Stalled())

	for _, j := range ciJobs {
		assert.NoError(t, p.MarkRunning(j))
	}
	assert.False(t, p.Stalled(), "running jobs mean no stall")

	assert.NoError(t, p.MarkDone(model.JobCheck, false))
	assert.NoError(t, p.MarkDone(model.JobTest, true))
	assert.NoError(t, p.MarkDone(model.JobClippy, true))
	assert.False(t, p.Stalled(), "skipped publish is terminal, not stalled")
	assert.True(t, p.Done())
}
