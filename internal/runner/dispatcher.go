package runner

import (
	"context"
	"sync"

	"pushgate/internal/logger"
	"pushgate/internal/model"
	"pushgate/internal/plan"
	"pushgate/internal/runs"

	"go.uber.org/zap"
)

// Dispatcher pulls queued runs and executes their jobs. Jobs without
// ordering constraints run concurrently in waves; the plan decides when
// publish may start and when it must be skipped.
type Dispatcher struct {
	runner        CommandRunner
	repo          runs.RepoInterface
	registryToken string
	queue         chan *model.Run
}

func NewDispatcher(r CommandRunner, repo runs.RepoInterface, registryToken string) *Dispatcher {
	return &Dispatcher{
		runner:        r,
		repo:          repo,
		registryToken: registryToken,
		queue:         make(chan *model.Run, 32),
	}
}

func (d *Dispatcher) Enqueue(run *model.Run) {
	d.queue <- run
}

// Worker processes runs until the context is cancelled.
func (d *Dispatcher) Worker(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case <-ctx.Done():
			logger.Lg.Info("dispatcher stopping")
			return
		case run := <-d.queue:
			d.Execute(ctx, run)
		}
	}
}

// Execute drives one run to completion.
func (d *Dispatcher) Execute(ctx context.Context, run *model.Run) {
	logger.Lg.Info("run_started",
		zap.String("run_id", run.ID),
		zap.String("ref_name", run.RefName),
	)
	if err := d.repo.SetRunStatus(run.ID, model.RunRunning); err != nil {
		logger.Lg.Error("run status update failed", zap.Error(err))
	}

	p := plan.Build(run.JobNames())
	for !p.Done() {
		ready := p.Ready()
		if len(ready) == 0 {
			if p.Stalled() {
				logger.Lg.Error("plan stalled", zap.String("run_id", run.ID))
				break
			}
			continue
		}

		var jobs sync.WaitGroup
		for _, job := range ready {
			if err := p.MarkRunning(job); err != nil {
				logger.Lg.Error("mark running failed", zap.Error(err))
				continue
			}
			d.updateJob(run.ID, job, model.JobRunning)

			jobs.Add(1)
			go func(job model.JobName) {
				defer jobs.Done()
				err := d.runner.Run(ctx, Invocation(job), JobEnv(job, run, d.registryToken))
				ok := err == nil
				if err := p.MarkDone(job, ok); err != nil {
					logger.Lg.Error("mark done failed", zap.Error(err))
				}
				st := model.JobSucceeded
				if !ok {
					st = model.JobFailed
					logger.Lg.Info("job_failed",
						zap.String("run_id", run.ID),
						zap.String("job", string(job)),
						zap.Error(err),
					)
				}
				d.updateJob(run.ID, job, st)
			}(job)
		}
		jobs.Wait()
	}

	// persist terminal states the plan reached without running (skipped)
	for job, st := range p.States() {
		if st == model.JobSkipped {
			d.updateJob(run.ID, job, model.JobSkipped)
		}
	}

	outcome := p.Outcome()
	if err := d.repo.SetRunStatus(run.ID, outcome); err != nil {
		logger.Lg.Error("run status update failed", zap.Error(err))
	}
	logger.Lg.Info("run_finished",
		zap.String("run_id", run.ID),
		zap.String("status", string(outcome)),
	)
}

func (d *Dispatcher) updateJob(id string, job model.JobName, st model.JobState) {
	if err := d.repo.UpdateJob(id, job, st); err != nil {
		logger.Lg.Error("job update failed",
			zap.String("run_id", id),
			zap.String("job", string(job)),
			zap.Error(err),
		)
	}
}
