package ghclient

import (
	"context"
	"net/url"
	"strconv"

	"github.com/huangsam/actionstat/internal/contract"
	"github.com/huangsam/actionstat/schema"
)

// runsIterator walks the paginated runs listing lazily. Pages are fetched on
// demand, newest first, and iteration stops early once results fall before
// the window start.
type runsIterator struct {
	ctx    context.Context
	client *Client
	query  contract.RunQuery

	page    int
	buf     []schema.WorkflowRun
	idx     int
	current schema.WorkflowRun
	done    bool
	err     error
}

var _ contract.RunIterator = &runsIterator{} // Compile-time check

// Next implements the RunIterator interface.
func (it *runsIterator) Next() bool {
	for {
		if it.err != nil {
			return false
		}
		for it.idx < len(it.buf) {
			run := it.buf[it.idx]
			it.idx++
			// Pages arrive in descending creation order, so the first
			// run before the window means everything after it is too.
			if run.CreatedAt.Before(it.query.Start) {
				it.done = true
				return false
			}
			if run.CreatedAt.After(it.query.End) {
				continue
			}
			it.current = run
			return true
		}
		if it.done {
			return false
		}
		if !it.fetchPage() {
			return false
		}
	}
}

// Run implements the RunIterator interface.
func (it *runsIterator) Run() schema.WorkflowRun { return it.current }

// Err implements the RunIterator interface.
func (it *runsIterator) Err() error { return it.err }

func (it *runsIterator) fetchPage() bool {
	q := it.query
	endpoint := it.client.baseURL + "/repos/" + q.Owner + "/" + q.Repo +
		"/actions/workflows/" + q.WorkflowID + "/runs"
	params := url.Values{}
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("page", strconv.Itoa(it.page))
	params.Set("created", q.Start.Format("2006-01-02T15:04:05Z")+".."+q.End.Format("2006-01-02T15:04:05Z"))
	if q.Branch != "" {
		params.Set("branch", q.Branch)
	}

	body, err := it.client.get(it.ctx, endpoint, params)
	if err != nil {
		it.err = err
		return false
	}
	decoded, err := decodeRunsPage(body)
	if err != nil {
		it.err = err
		return false
	}

	identity := RunQueryIdentity{Owner: q.Owner, Repo: q.Repo, WorkflowID: q.WorkflowID}
	it.buf = it.buf[:0]
	for _, r := range decoded.WorkflowRuns {
		it.buf = append(it.buf, r.toRun(identity))
	}
	it.idx = 0
	if len(decoded.WorkflowRuns) < perPage {
		it.done = true
	}
	it.page++
	return len(it.buf) > 0 || !it.done
}
