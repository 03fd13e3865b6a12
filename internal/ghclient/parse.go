package ghclient

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/huangsam/actionstat/schema"
)

// Wire types for the provider's REST payloads. Only the fields the
// aggregation pipeline consumes are decoded.
type apiRunsPage struct {
	TotalCount   int      `json:"total_count"`
	WorkflowRuns []apiRun `json:"workflow_runs"`
}

type apiRun struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	HeadBranch string    `json:"head_branch"`
	HeadSHA    string    `json:"head_sha"`
	RunNumber  int       `json:"run_number"`
	Event      string    `json:"event"`
	Status     string    `json:"status"`
	Conclusion *string   `json:"conclusion"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type apiJobsPage struct {
	TotalCount int      `json:"total_count"`
	Jobs       []apiJob `json:"jobs"`
}

type apiJob struct {
	ID          int64      `json:"id"`
	RunID       int64      `json:"run_id"`
	Name        string     `json:"name"`
	Status      string     `json:"status"`
	Conclusion  *string    `json:"conclusion"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	Labels      []string   `json:"labels"`
	Steps       []apiStep  `json:"steps"`
}

type apiStep struct {
	Name        string     `json:"name"`
	Number      int        `json:"number"`
	Status      string     `json:"status"`
	Conclusion  *string    `json:"conclusion"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

func decodeRunsPage(body []byte) (*apiRunsPage, error) {
	var page apiRunsPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decode runs page: %w", err)
	}
	return &page, nil
}

func decodeJobsPage(body []byte) (*apiJobsPage, error) {
	var page apiJobsPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decode jobs page: %w", err)
	}
	return &page, nil
}

func toConclusion(s *string) schema.Conclusion {
	if s == nil {
		return schema.ConclusionNone
	}
	return schema.Conclusion(*s)
}

func (r apiRun) toRun(q RunQueryIdentity) schema.WorkflowRun {
	return schema.WorkflowRun{
		ID:         r.ID,
		WorkflowID: q.WorkflowID,
		Name:       r.Name,
		Owner:      q.Owner,
		Repo:       q.Repo,
		HeadBranch: r.HeadBranch,
		HeadSHA:    r.HeadSHA,
		RunNumber:  r.RunNumber,
		Event:      r.Event,
		Status:     r.Status,
		Conclusion: toConclusion(r.Conclusion),
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
	}
}

// RunQueryIdentity carries the identifiers the runs payload omits.
type RunQueryIdentity struct {
	Owner      string
	Repo       string
	WorkflowID string
}

func (j apiJob) toJob() schema.Job {
	job := schema.Job{
		ID:          j.ID,
		RunID:       j.RunID,
		Name:        j.Name,
		Status:      j.Status,
		Conclusion:  toConclusion(j.Conclusion),
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
		Matrix:      matrixFor(j.Name, j.Labels),
	}
	if d, ok := spanMillis(j.StartedAt, j.CompletedAt); ok {
		job.DurationMS = &d
	}
	for _, s := range j.Steps {
		step := schema.Step{
			JobID:       j.ID,
			Name:        s.Name,
			Number:      s.Number,
			Status:      s.Status,
			Conclusion:  toConclusion(s.Conclusion),
			StartedAt:   s.StartedAt,
			CompletedAt: s.CompletedAt,
		}
		if d, ok := spanMillis(s.StartedAt, s.CompletedAt); ok {
			step.DurationMS = &d
		}
		job.Steps = append(job.Steps, step)
	}
	return job
}

// spanMillis returns the elapsed milliseconds between two optional
// timestamps. Negative spans count as missing.
func spanMillis(start, end *time.Time) (int64, bool) {
	if start == nil || end == nil || end.Before(*start) {
		return 0, false
	}
	return end.Sub(*start).Milliseconds(), true
}

var jobNameParams = regexp.MustCompile(`\(([^)]*)\)`)

// matrixFor recovers the matrix configuration for a job. Runner labels of the
// form "key: value" take precedence; otherwise the parenthesized parameters
// in the job name ("build (ubuntu-latest, 3.12)") are kept as positional
// parameters.
func matrixFor(name string, labels []string) *schema.MatrixConfig {
	pairs := make(map[string]string)
	for _, label := range labels {
		if k, v, ok := strings.Cut(label, ":"); ok {
			key := strings.TrimSpace(k)
			val := strings.TrimSpace(v)
			if key != "" && val != "" {
				pairs[key] = val
			}
		}
	}
	if len(pairs) == 0 {
		if m := jobNameParams.FindStringSubmatch(name); m != nil {
			for i, part := range strings.Split(m[1], ",") {
				part = strings.TrimSpace(part)
				if part != "" {
					pairs[fmt.Sprintf("matrix_param_%d", i+1)] = part
				}
			}
		}
	}
	return schema.NewMatrixConfig(pairs)
}
