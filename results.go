package ultraocr

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog/log"
)

// GetBatchStatus fetches the server's current view of a batch. No caching:
// every call hits the API.
func (c *Client) GetBatchStatus(ctx context.Context, batchID string) (BatchStatus, error) {
	var res BatchStatus
	endpoint := fmt.Sprintf("%s/ocr/batch/status/%s", c.cfg.BaseURL, batchID)
	if err := c.getJSON(ctx, endpoint, nil, &res); err != nil {
		return BatchStatus{}, err
	}
	return res, nil
}

// GetJobResult fetches a job's status and, once terminal, its result or
// error detail. For a job created outside a batch, batchID repeats the jobID.
func (c *Client) GetJobResult(ctx context.Context, batchID, jobID string) (JobResult, error) {
	var res JobResult
	endpoint := fmt.Sprintf("%s/ocr/job/result/%s/%s", c.cfg.BaseURL, batchID, jobID)
	if err := c.getJSON(ctx, endpoint, nil, &res); err != nil {
		return JobResult{}, err
	}
	return res, nil
}

// GetJobInfo fetches the extended job metadata variant.
func (c *Client) GetJobInfo(ctx context.Context, jobID string) (JobInfo, error) {
	var res JobInfo
	endpoint := fmt.Sprintf("%s/ocr/job/info/%s", c.cfg.BaseURL, jobID)
	if err := c.getJSON(ctx, endpoint, nil, &res); err != nil {
		return JobInfo{}, err
	}
	return res, nil
}

// GetBatchInfo fetches the extended batch metadata variant.
func (c *Client) GetBatchInfo(ctx context.Context, batchID string) (BatchInfo, error) {
	var res BatchInfo
	endpoint := fmt.Sprintf("%s/ocr/batch/info/%s", c.cfg.BaseURL, batchID)
	if err := c.getJSON(ctx, endpoint, nil, &res); err != nil {
		return BatchInfo{}, err
	}
	return res, nil
}

// GetBatchResult fetches the batch's job results inline (?return=request).
func (c *Client) GetBatchResult(ctx context.Context, batchID string) ([]JobResult, error) {
	var res []JobResult
	endpoint := fmt.Sprintf("%s/ocr/batch/result/%s", c.cfg.BaseURL, batchID)
	params := map[string]string{"return": returnRequest}
	if err := c.getJSON(ctx, endpoint, params, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// GetBatchResultStorage returns a signed download URL for a file holding the
// batch's job results (?return=storage). params carries optional format
// flags from the UltraOCR docs.
func (c *Client) GetBatchResultStorage(ctx context.Context, batchID string, params map[string]string) (StorageResult, error) {
	var res StorageResult
	endpoint := fmt.Sprintf("%s/ocr/batch/result/%s", c.cfg.BaseURL, batchID)
	merged := withParam(params, "return", returnStorage)
	if err := c.getJSON(ctx, endpoint, merged, &res); err != nil {
		return StorageResult{}, err
	}
	return res, nil
}

// DownloadBatchResultFile resolves the batch result storage URL and streams
// the file into dst, transparently decompressing gzip payloads. The signed
// URL is pre-authorized, so the download carries no bearer header.
func (c *Client) DownloadBatchResultFile(ctx context.Context, batchID string, params map[string]string, dst io.Writer) error {
	storage, err := c.GetBatchResultStorage(ctx, batchID, params)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, storage.URL, nil)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}
	resp, err := c.uploader.Do(req)
	if err != nil {
		return fmt.Errorf("download batch result: %w", err)
	}
	defer resp.Body.Close()
	if err := validateStatus(resp.StatusCode); err != nil {
		return err
	}

	// Result exports may be served as plain JSON or gzip; sniff the magic
	// bytes instead of trusting the content type on a storage URL.
	buffered := bufio.NewReader(resp.Body)
	var src io.Reader = buffered
	if magic, err := buffered.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(buffered)
		if err != nil {
			return fmt.Errorf("open gzip result: %w", err)
		}
		defer gz.Close()
		src = gz
	}

	written, err := io.Copy(dst, src)
	if err != nil {
		return fmt.Errorf("write batch result: %w", err)
	}
	log.Info().Str("batchId", batchID).Int64("bytes", written).Msg("Batch result downloaded")
	return nil
}

// GetJobs lists every job created in a time interval, following pagination
// until the server stops returning a next-page token. start and end use the
// YYYY-MM-DD format.
func (c *Client) GetJobs(ctx context.Context, start, end string) ([]JobResult, error) {
	endpoint := c.cfg.BaseURL + "/ocr/job/results"
	params := map[string]string{
		"startDate": start,
		"endtDate":  end, // key spelled as the server expects it
	}

	var jobs []JobResult
	for {
		var page jobsPage
		if err := c.getJSON(ctx, endpoint, params, &page); err != nil {
			return nil, err
		}
		jobs = append(jobs, page.Jobs...)

		if page.NextPageToken == "" {
			return jobs, nil
		}
		params = withParam(params, "nextPageToken", page.NextPageToken)
	}
}
