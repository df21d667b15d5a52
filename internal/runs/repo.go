package runs

import (
	"database/sql"
	"encoding/json"
	"time"

	"pushgate/internal/model"
	"pushgate/internal/store"

	"github.com/redis/go-redis/v9"
)

type RepoInterface interface {
	SaveRun(run *model.Run) error
	UpdateJob(id string, job model.JobName, st model.JobState) error
	SetRunStatus(id string, st model.RunStatus) error
	GetRunById(id string) (*model.Run, error)
	GetAllRuns() ([]model.Run, error)
	GetAggJson() ([]byte, bool, error)
	SetAggJson(data []byte, ttlseconds int) error
}

type Repo struct {
	db  *sql.DB
	Rdb *redis.Client
}

func NewRepo(db *sql.DB, Rdb *redis.Client) *Repo {
	return &Repo{db: db, Rdb: Rdb}
}

func (r *Repo) SetAggJson(data []byte, ttlseconds int) error {
	return r.Rdb.Set(store.Ctx, "runs:agg", data, time.Duration(ttlseconds)*time.Second).Err()
}

func (r *Repo) GetAggJson() ([]byte, bool, error) {
	val, err := r.Rdb.Get(store.Ctx, "runs:agg").Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(val), true, nil
}

func (r *Repo) SaveRun(run *model.Run) error {
	jobs, err := json.Marshal(run.Jobs)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(`
		INSERT OR REPLACE INTO runs
		(id, ref_kind, ref_name, repo, head_sha, status, jobs, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.RefKind, run.RefName, run.Repo, run.HeadSHA, run.Status, string(jobs), run.CreatedAt,
	)
	if err != nil {
		return err
	}
	r.db.Exec(`
		DELETE FROM runs
		WHERE id NOT IN (
			SELECT id FROM runs
			ORDER BY created_at DESC
			LIMIT 30
		)
	`)

	r.cacheRun(run)

	r.Rdb.LPush(store.Ctx, "run_cache_keys", run.ID)
	r.Rdb.LTrim(store.Ctx, "run_cache_keys", 0, 9)

	// evict older keys
	keys, _ := r.Rdb.LRange(store.Ctx, "run_cache_keys", 10, -1).Result()
	for _, k := range keys {
		r.Rdb.Del(store.Ctx, "run:"+k)
	}

	return nil
}

func (r *Repo) UpdateJob(id string, job model.JobName, st model.JobState) error {
	run, err := r.getFromDb(id)
	if err != nil {
		return err
	}
	run.Jobs[job] = st
	return r.writeBack(run)
}

func (r *Repo) SetRunStatus(id string, st model.RunStatus) error {
	run, err := r.getFromDb(id)
	if err != nil {
		return err
	}
	run.Status = st
	return r.writeBack(run)
}

func (r *Repo) writeBack(run *model.Run) error {
	jobs, err := json.Marshal(run.Jobs)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(`UPDATE runs SET status = ?, jobs = ? WHERE id = ?`,
		run.Status, string(jobs), run.ID)
	if err != nil {
		return err
	}
	r.cacheRun(run)
	return nil
}

func (r *Repo) cacheRun(run *model.Run) {
	data, _ := json.Marshal(run)
	r.Rdb.Set(store.Ctx, "run:"+run.ID, data, 0)
}

func (r *Repo) GetRunById(id string) (*model.Run, error) {
	cachekey := "run:" + id

	val, err := r.Rdb.Get(store.Ctx, cachekey).Result()
	if err == nil {
		var run model.Run
		if err := json.Unmarshal([]byte(val), &run); err == nil {
			return &run, nil
		}
	}

	run, err := r.getFromDb(id)
	if err != nil {
		return nil, err
	}
	r.cacheRun(run)
	return run, nil
}

func (r *Repo) getFromDb(id string) (*model.Run, error) {
	row := r.db.QueryRow(`
			SELECT id, ref_kind, ref_name, repo, head_sha, status, jobs, created_at
			FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

func (r *Repo) GetAllRuns() ([]model.Run, error) {
	rows, err := r.db.Query(`
			SELECT id, ref_kind, ref_name, repo, head_sha, status, jobs, created_at
			FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var run model.Run
	var jobsStr string
	err := row.Scan(
		&run.ID,
		&run.RefKind,
		&run.RefName,
		&run.Repo,
		&run.HeadSHA,
		&run.Status,
		&jobsStr,
		&run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	run.Jobs = make(map[model.JobName]model.JobState)
	if err := json.Unmarshal([]byte(jobsStr), &run.Jobs); err != nil {
		return nil, err
	}
	return &run, nil
}
