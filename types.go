package ultraocr

import "encoding/json"

type tokenRequest struct {
	ClientID     string `json:"ClientID"`
	ClientSecret string `json:"ClientSecret"`
	ExpiresIn    int    `json:"ExpiresIn"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// SignedURLResponse is the answer to a signed-URL request. URLs holds one
// presigned upload URL per slot: "document" always, "selfie" when
// facematch=true was set, "extra_document" when extra-document=true was set.
type SignedURLResponse struct {
	Exp       string            `json:"exp"`
	ID        string            `json:"id"`
	StatusURL string            `json:"status_url"`
	URLs      map[string]string `json:"urls"`
}

// CreatedResponse identifies a submission. ID is the job or batch ID used in
// every later status and result call for that submission.
type CreatedResponse struct {
	ID        string `json:"id"`
	StatusURL string `json:"status_url"`
}

// BatchJob is one entry of a batch's job list.
type BatchJob struct {
	CreatedAt string `json:"created_at"`
	JobID     string `json:"job_ksuid"`
	ResultURL string `json:"result_url"`
	Status    Status `json:"status"`
}

// BatchStatus is the server's current view of a batch. A terminal batch
// status does not imply its listed jobs are terminal; the two are tracked
// independently.
type BatchStatus struct {
	BatchID   string     `json:"batch_ksuid"`
	CreatedAt string     `json:"created_at"`
	Jobs      []BatchJob `json:"jobs"`
	Service   string     `json:"service"`
	Status    Status     `json:"status"`
}

// JobResult is the server's current view of a job, including the OCR result
// or the error detail once the job is terminal.
type JobResult struct {
	ClientData json.RawMessage `json:"client_data,omitempty"`
	CreatedAt  string          `json:"created_at"`
	JobID      string          `json:"job_ksuid"`
	Result     json.RawMessage `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
	Service    string          `json:"service"`
	Status     Status          `json:"status"`
	Filename   string          `json:"filename,omitempty"`
}

// JobInfo is the extended job metadata variant.
type JobInfo struct {
	ClientData json.RawMessage `json:"client_data,omitempty"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	CreatedAt  string          `json:"created_at"`
	CompanyID  string          `json:"company_id"`
	ClientID   string          `json:"client_id"`
	JobID      string          `json:"job_id"`
	Source     string          `json:"source"`
	Result     json.RawMessage `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
	Service    string          `json:"service"`
	Status     Status          `json:"status"`
}

// BatchInfo is the extended batch metadata variant.
type BatchInfo struct {
	CompanyID      string `json:"company_id"`
	ClientID       string `json:"client_id"`
	BatchID        string `json:"batch_id"`
	CreatedAt      string `json:"created_at"`
	Service        string `json:"service"`
	Status         Status `json:"status"`
	Source         string `json:"source"`
	TotalJobs      int    `json:"total_jobs"`
	TotalProcessed int    `json:"total_processed"`
}

// StorageResult points at a signed download URL for a batch result file.
type StorageResult struct {
	Exp string `json:"exp"`
	URL string `json:"url"`
}

type jobsPage struct {
	Jobs          []JobResult `json:"jobs"`
	NextPageToken string      `json:"nextPageToken"`
}

type singleStepRequest struct {
	Metadata  map[string]any `json:"metadata"`
	Data      string         `json:"data"`
	Facematch string         `json:"facematch,omitempty"`
	Extra     string         `json:"extra,omitempty"`
}
