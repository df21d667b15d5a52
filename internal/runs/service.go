package runs

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"pushgate/internal/gate"
	"pushgate/internal/logger"
	"pushgate/internal/model"
	"pushgate/internal/validate"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrFiltered marks events that trigger nothing: refs that are neither
// branches nor tags, and tags that fail the version filter.
var ErrFiltered = errors.New("ref does not trigger any jobs")

type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid payload: " + strings.Join(e.Problems, "; ")
}

type Service interface {
	Ingest(payload []byte) (*model.Run, error)
	GetByID(id string) (*model.Run, error)
	GetAll() ([]byte, error)
}

// Enqueuer hands freshly created runs to the dispatcher. The service never
// executes jobs itself.
type Enqueuer interface {
	Enqueue(run *model.Run)
}

type service struct {
	repo  RepoInterface
	queue Enqueuer
}

func NewService(r RepoInterface, q Enqueuer) Service { return &service{repo: r, queue: q} }

// Ingest validates a push payload, classifies its ref and evaluates the
// trigger gate. Admitted events become a persisted pending run; filtered
// events return ErrFiltered and leave no trace.
func (s *service) Ingest(payload []byte) (*model.Run, error) {
	problems, err := validate.PushPayload(payload)
	if err != nil {
		return nil, &ValidationError{Problems: []string{err.Error()}}
	}
	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	var event model.PushEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, &ValidationError{Problems: []string{err.Error()}}
	}

	kind, name, ok := gate.Admit(event.Ref)
	if !ok {
		logger.Lg.Info("event_filtered", zap.String("ref", event.Ref))
		return nil, ErrFiltered
	}

	run := &model.Run{
		ID:        uuid.NewString(),
		RefKind:   kind,
		RefName:   name,
		Repo:      event.Repo.FullName,
		HeadSHA:   event.After,
		Status:    model.RunPending,
		Jobs:      make(map[model.JobName]model.JobState),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	for _, j := range gate.Evaluate(kind) {
		run.Jobs[j] = model.JobPending
	}

	if err := s.repo.SaveRun(run); err != nil {
		return nil, err
	}
	if s.queue != nil {
		s.queue.Enqueue(run)
	}

	logger.Lg.Info("run_created",
		zap.String("run_id", run.ID),
		zap.String("ref_kind", string(kind)),
		zap.String("ref_name", name),
		zap.Int("jobs", len(run.Jobs)),
	)
	return run, nil
}

func (s *service) GetByID(id string) (*model.Run, error) { return s.repo.GetRunById(id) }

func (s *service) GetAll() ([]byte, error) {
	if data, hit, err := s.repo.GetAggJson(); hit && err == nil {
		return data, nil
	} else if err != nil {
		return nil, err
	}

	runs, err := s.repo.GetAllRuns()
	if err != nil {
		return nil, err
	}
	jsonbytes, err := json.Marshal(runs)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetAggJson(jsonbytes, 60); err != nil {
		logger.Lg.Error("warn: cache store failed", zap.Error(err))
	}
	return jsonbytes, nil
}
