package stats

import (
	"sort"

	"github.com/huangsam/actionstat/schema"
)

// commitKey scopes flakiness detection: the same SHA on different branches
// runs under different conditions and must not be compared.
type commitKey struct {
	branch string
	sha    string
}

type commitOutcome struct {
	succeeded bool
	failed    bool
}

// flakiness computes commit-scoped flakiness per job name. A commit counts
// as flaky for a job when the job both succeeded and failed for that commit
// inside the window; reruns that keep failing are consistent, not flaky.
func flakiness(snapshot *schema.Snapshot) []schema.JobFlakiness {
	perJob := make(map[string]map[commitKey]*commitOutcome)

	for _, run := range snapshot.Runs {
		key := commitKey{branch: run.HeadBranch, sha: run.HeadSHA}
		for _, job := range run.Jobs {
			commits := perJob[job.Name]
			if commits == nil {
				commits = make(map[commitKey]*commitOutcome)
				perJob[job.Name] = commits
			}
			outcome := commits[key]
			if outcome == nil {
				outcome = &commitOutcome{}
				commits[key] = outcome
			}
			switch job.Conclusion {
			case schema.ConclusionSuccess:
				outcome.succeeded = true
			case schema.ConclusionFailure:
				outcome.failed = true
			}
		}
	}

	results := make([]schema.JobFlakiness, 0, len(perJob))
	for name, commits := range perJob {
		f := schema.JobFlakiness{JobName: name, DistinctCommits: len(commits)}
		for _, outcome := range commits {
			if outcome.succeeded && outcome.failed {
				f.FlakyCommits++
			}
		}
		if f.DistinctCommits > 0 {
			f.Score = float64(f.FlakyCommits) / float64(f.DistinctCommits)
		}
		results = append(results, f)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].JobName < results[j].JobName
	})
	if len(results) == 0 {
		return nil
	}
	return results
}
