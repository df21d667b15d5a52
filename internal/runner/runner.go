// Package runner executes a run's jobs as external build-tool commands.
//
// Each job gets its own explicit environment; nothing is inherited from
// process-wide mutable state beyond PATH and HOME, which the build tool
// needs to locate itself and its caches.
package runner

import (
	"context"
	"os"
	"os/exec"

	"pushgate/internal/model"
)

// CommandRunner is the seam between the dispatcher and the build tool.
type CommandRunner interface {
	Run(ctx context.Context, args []string, env map[string]string) error
}

// CargoRunner shells out to cargo in a fixed working directory.
type CargoRunner struct {
	Bin string
	Dir string
}

func NewCargoRunner(bin, dir string) *CargoRunner {
	return &CargoRunner{Bin: bin, Dir: dir}
}

func (c *CargoRunner) Run(ctx context.Context, args []string, env map[string]string) error {
	cmd := exec.CommandContext(ctx, c.Bin, args...)
	cmd.Dir = c.Dir

	cmd.Env = []string{
		"PATH=" + os.Getenv("PATH"),
		"HOME=" + os.Getenv("HOME"),
	}
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	return cmd.Run()
}

// Invocation returns the fixed argument list for a job.
func Invocation(job model.JobName) []string {
	switch job {
	case model.JobClippy:
		return []string{"clippy", "--all-features", "--verbose", "--", "-D", "warnings"}
	default:
		return []string{string(job), "--all-features", "--verbose"}
	}
}

// JobEnv builds the explicit environment for one job of one run. The
// registry token is injected only into publish, and publish only exists on
// tag runs, so a branch run can never see the token.
func JobEnv(job model.JobName, run *model.Run, registryToken string) map[string]string {
	env := map[string]string{
		"CARGO_TERM_COLOR": "always",
		"RUSTFLAGS":        "-Dwarnings",
	}
	if job == model.JobPublish && run.RefKind == model.RefTag {
		env["CARGO_REGISTRY_TOKEN"] = registryToken
	}
	return env
}
