// internal/runs/repo_test.go
package runs

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"pushgate/internal/model"
	"pushgate/internal/store"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	_ "modernc.org/sqlite"
)

type RepoTestSuite struct {
	suite.Suite
	redisContainer *tcredis.RedisContainer
	redisClient    *redis.Client
	sqlDB          *sql.DB
	repo           *Repo
	ctx            context.Context
}

func (s *RepoTestSuite) SetupSuite() {
	s.ctx = context.Background()

	redisC, err := tcredis.Run(s.ctx, "redis:7-alpine")
	if err != nil {
		s.T().Fatalf("failed to start redis container: %v", err)
	}
	s.redisContainer = redisC

	host, err := redisC.Host(s.ctx)
	if err != nil {
		s.T().Fatal(err)
	}

	port, err := redisC.MappedPort(s.ctx, "6379")
	if err != nil {
		s.T().Fatal(err)
	}

	s.redisClient = redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%s", host, port.Port()),
	})

	s.sqlDB, err = sql.Open("sqlite", ":memory:")
	if err != nil {
		s.T().Fatalf("failed to open sqlite: %v", err)
	}

	if _, err := store.CreateTable(s.sqlDB); err != nil {
		s.T().Fatalf("failed to create schema: %v", err)
	}
	store.Ctx = s.ctx

	s.repo = NewRepo(s.sqlDB, s.redisClient)
}

func (s *RepoTestSuite) TearDownSuite() {
	if s.redisContainer != nil {
		if err := s.redisContainer.Terminate(s.ctx); err != nil {
			s.T().Logf("failed to terminate redis container: %v", err)
		}
	}
	if s.sqlDB != nil {
		s.sqlDB.Close()
	}
}

func (s *RepoTestSuite) SetupTest() {
	s.redisClient.FlushAll(s.ctx)
	s.sqlDB.Exec("DELETE FROM runs")
}

func TestRepoTestSuite(t *testing.T) {
	suite.Run(t, new(RepoTestSuite))
}

func testRun(id string) *model.Run {
	return &model.Run{
		ID:      id,
		RefKind: model.RefBranch,
		RefName: "main",
		Repo:    "acme/widget",
		HeadSHA: "abc123",
		Status:  model.RunPending,
		Jobs: map[model.JobName]model.JobState{
			model.JobCheck:  model.JobPending,
			model.JobTest:   model.JobPending,
			model.JobClippy: model.JobPending,
		},
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

func (s *RepoTestSuite) TestSaveAndGetById() {
	run := testRun("123")

	err := s.repo.SaveRun(run)
	s.NoError(err)

	got, err := s.repo.GetRunById("123")
	s.NoError(err)
	s.Equal("123", got.ID)
	s.Equal(model.RefBranch, got.RefKind)
	s.Equal("main", got.RefName)
	s.Equal("acme/widget", got.Repo)
	s.Equal(model.JobPending, got.Jobs[model.JobCheck])

	val, err := s.redisClient.Get(s.ctx, "run:123").Result()
	s.NoError(err)
	s.Contains(val, "main")
}

func (s *RepoTestSuite) TestUpdateJob() {
	run := testRun("123")
	s.NoError(s.repo.SaveRun(run))

	s.NoError(s.repo.UpdateJob("123", model.JobCheck, model.JobSucceeded))
	s.NoError(s.repo.SetRunStatus("123", model.RunRunning))

	got, err := s.repo.GetRunById("123")
	s.NoError(err)
	s.Equal(model.JobSucceeded, got.Jobs[model.JobCheck])
	s.Equal(model.JobPending, got.Jobs[model.JobTest])
	s.Equal(model.RunRunning, got.Status)

	// cache was refreshed too
	val, err := s.redisClient.Get(s.ctx, "run:123").Result()
	s.NoError(err)
	s.Contains(val, "succeeded")
}

func (s *RepoTestSuite) TestGetAllRuns() {
	for i := 1; i <= 3; i++ {
		run := testRun(fmt.Sprintf("run%d", i))
		run.CreatedAt = time.Now().UTC().Add(time.Duration(i) * time.Second).Format(time.RFC3339)
		s.NoError(s.repo.SaveRun(run))
	}

	all, err := s.repo.GetAllRuns()
	s.NoError(err)
	s.Len(all, 3)
	s.Equal("run3", all[0].ID) // newest first
}

func (s *RepoTestSuite) TestSave_Eviction() {
	for i := 1; i <= 12; i++ {
		run := testRun(fmt.Sprintf("run%d", i))
		run.CreatedAt = time.Now().UTC().Add(time.Duration(i) * time.Second).Format(time.RFC3339)
		err := s.repo.SaveRun(run)
		s.NoError(err)
	}

	keys, err := s.redisClient.LRange(s.ctx, "run_cache_keys", 0, -1).Result()
	s.NoError(err)
	s.Len(keys, 10)
	s.Equal("run12", keys[0]) // most recent
	s.Equal("run3", keys[9])  // oldest one
}

func (s *RepoTestSuite) TestFullWorkflow() {
	run := testRun("testid")
	run.RefKind = model.RefTag
	run.RefName = "v1.2.3"
	run.Jobs[model.JobPublish] = model.JobPending

	err := s.repo.SaveRun(run)
	s.NoError(err)

	byID, err := s.repo.GetRunById("testid")
	s.NoError(err)
	s.Equal("v1.2.3", byID.RefName)
	s.Len(byID.Jobs, 4)

	all, err := s.repo.GetAllRuns()
	s.NoError(err)
	s.Len(all, 1)

	jsonData, _ := json.Marshal(all)
	err = s.repo.SetAggJson(jsonData, 300)
	s.NoError(err)

	cached, hit, err := s.repo.GetAggJson()
	s.NoError(err)
	s.True(hit)
	s.JSONEq(string(jsonData), string(cached))
}
