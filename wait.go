package ultraocr

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// pollable is any record the polling engine can drive to a terminal status.
type pollable interface {
	pollStatus() Status
}

func (r JobResult) pollStatus() Status   { return r.Status }
func (b BatchStatus) pollStatus() Status { return b.Status }

// waitFor drives one poll target to a terminal status. It fetches a fresh
// record, stops on done or error, and otherwise sleeps the configured
// interval before trying again. The deadline is taken once at entry from
// time.Now (which carries a monotonic reading, so wall-clock adjustments
// cannot extend or shrink the window) and checked before every fetch; when
// it has passed, the wait fails with a TimeoutError carrying the last
// fetched record, nil if there was none. Transport errors abort immediately.
func (c *Client) waitFor(ctx context.Context, fetch func(context.Context) (pollable, error)) (pollable, error) {
	deadline := time.Now().Add(c.cfg.Timeout)
	var last pollable

	for {
		if !time.Now().Before(deadline) {
			log.Warn().Dur("timeout", c.cfg.Timeout).Msg("Poll deadline exceeded")
			return last, &TimeoutError{Timeout: c.cfg.Timeout, LastRecord: last}
		}

		record, err := fetch(ctx)
		if err != nil {
			return last, err
		}
		last = record

		status := record.pollStatus()
		if status.Terminal() {
			return record, nil
		}
		log.Debug().Str("status", string(status)).Dur("nextPoll", c.cfg.Interval).Msg("Still processing")

		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-time.After(c.cfg.Interval):
		}
	}
}

// WaitForJob polls a job until it reaches done or error and returns the
// final record. A terminal error status is a normal return; the caller
// inspects JobResult.Status and JobResult.Error. For a job created outside
// a batch, batchID repeats the jobID.
func (c *Client) WaitForJob(ctx context.Context, batchID, jobID string) (JobResult, error) {
	log.Debug().Str("jobId", jobID).Msg("Waiting for job")
	record, err := c.waitFor(ctx, func(ctx context.Context) (pollable, error) {
		res, err := c.GetJobResult(ctx, batchID, jobID)
		if err != nil {
			return nil, err
		}
		return res, nil
	})
	if err != nil {
		return JobResult{}, err
	}
	return record.(JobResult), nil
}

// WaitForBatch polls a batch until its own status reaches done or error.
// With waitJobs, it then waits on each job in the batch's list, in server
// order, each with a fresh full timeout window; the first job failure or
// timeout aborts the remaining jobs. Without waitJobs no job-status request
// is ever issued, and the returned record may still list non-terminal jobs —
// a terminal batch does not imply terminal children.
func (c *Client) WaitForBatch(ctx context.Context, batchID string, waitJobs bool) (BatchStatus, error) {
	log.Debug().Str("batchId", batchID).Bool("waitJobs", waitJobs).Msg("Waiting for batch")
	record, err := c.waitFor(ctx, func(ctx context.Context) (pollable, error) {
		res, err := c.GetBatchStatus(ctx, batchID)
		if err != nil {
			return nil, err
		}
		return res, nil
	})
	if err != nil {
		return BatchStatus{}, err
	}

	batch := record.(BatchStatus)
	if waitJobs {
		for _, job := range batch.Jobs {
			if _, err := c.WaitForJob(ctx, batchID, job.JobID); err != nil {
				return BatchStatus{}, err
			}
		}
	}
	return batch, nil
}

// CreateAndWaitJob submits a job and waits for its result. Pure sequencing
// of SendJob and WaitForJob; errors surface exactly as the underlying calls
// raise them.
func (c *Client) CreateAndWaitJob(ctx context.Context, service, filePath, facematchFilePath, extraFilePath string, metadata map[string]any, params map[string]string) (JobResult, error) {
	created, err := c.SendJob(ctx, service, filePath, facematchFilePath, extraFilePath, metadata, params)
	if err != nil {
		return JobResult{}, err
	}
	return c.WaitForJob(ctx, created.ID, created.ID)
}

// CreateAndWaitBatch submits a batch and waits for it, sequencing SendBatch
// and WaitForBatch.
func (c *Client) CreateAndWaitBatch(ctx context.Context, service, filePath string, metadata []map[string]any, params map[string]string, waitJobs bool) (BatchStatus, error) {
	created, err := c.SendBatch(ctx, service, filePath, metadata, params)
	if err != nil {
		return BatchStatus{}, err
	}
	return c.WaitForBatch(ctx, created.ID, waitJobs)
}
