// Package ultraocr provides a client for the UltraOCR document processing
// API. It authenticates with a time-bound bearer token, submits documents
// (single jobs or batches) for asynchronous processing, uploads payloads to
// presigned storage URLs, polls status until completion and retrieves
// structured results.
//
// Submitting a document is a multi-step process:
//  1. Request a set of presigned upload URLs for the submission
//  2. PUT each payload to its slot URL (document, then selfie and
//     extra_document when the matching query flags were set)
//  3. Poll job/batch status at a fixed interval until done or error
//  4. Fetch the result
//
// A Client owns one credential and one configuration. Sharing a Client
// across goroutines while polling is not supported.
package ultraocr

import (
	"net/http"
	"os"
	"time"
)

const (
	// DefaultBaseURL is the production UltraOCR API base URL.
	DefaultBaseURL = "https://ultraocr.apis.nuveo.ai/v2"

	// DefaultAuthBaseURL is the production authentication base URL.
	DefaultAuthBaseURL = "https://auth.apis.nuveo.ai/v2"

	// DefaultTokenExpires is the token lifetime in minutes.
	DefaultTokenExpires = 60

	// Poll settings. The interval is fixed; there is no backoff.
	DefaultPollInterval = time.Second
	DefaultPollTimeout  = 30 * time.Second

	// Per-call HTTP timeouts, distinct from the poll deadline. Uploads get a
	// longer window to account for payload size.
	defaultAPITimeout    = 30 * time.Second
	defaultUploadTimeout = 120 * time.Second
)

// Resource selects how a submission is processed.
type Resource string

const (
	ResourceJob   Resource = "job"
	ResourceBatch Resource = "batch"
)

// Query parameter keys and values the API understands.
const (
	paramFacematch = "facematch"
	paramExtra     = "extra-document"
	paramBase64    = "base64"
	flagTrue       = "true"

	returnRequest = "request"
	returnStorage = "storage"
)

// Config holds client settings. Zero values fall back to defaults inside
// NewClient, so tests can override only what they need.
type Config struct {
	ClientID     string // falls back to env ULTRAOCR_CLIENT_ID
	ClientSecret string // falls back to env ULTRAOCR_CLIENT_SECRET
	TokenExpires int    // token lifetime in minutes, default 60

	// AutoRefresh makes the client authenticate with ClientID/ClientSecret
	// before any request once the stored token is missing or past expiry.
	// Without it, Authenticate must be called explicitly.
	AutoRefresh bool

	AuthBaseURL string // default DefaultAuthBaseURL
	BaseURL     string // default DefaultBaseURL

	Interval time.Duration // poll interval, default 1s
	Timeout  time.Duration // poll deadline per wait operation, default 30s

	APITimeout    time.Duration // metadata call timeout, default 30s
	UploadTimeout time.Duration // signed-URL PUT timeout, default 120s

	// ValidateMetadata validates batch metadata entries against the
	// documented shape before submission.
	ValidateMetadata bool
}

// Client calls the UltraOCR API. Create one with NewClient.
type Client struct {
	cfg Config

	api      *http.Client // metadata calls
	uploader *http.Client // presigned-URL transfers

	token     string
	expiresAt time.Time
}

// NewClient creates a Client, filling unset Config fields with defaults.
func NewClient(cfg Config) *Client {
	if cfg.ClientID == "" {
		cfg.ClientID = os.Getenv("ULTRAOCR_CLIENT_ID")
	}
	if cfg.ClientSecret == "" {
		cfg.ClientSecret = os.Getenv("ULTRAOCR_CLIENT_SECRET")
	}
	if cfg.TokenExpires <= 0 {
		cfg.TokenExpires = DefaultTokenExpires
	}
	if cfg.AuthBaseURL == "" {
		cfg.AuthBaseURL = DefaultAuthBaseURL
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultPollInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultPollTimeout
	}
	if cfg.APITimeout <= 0 {
		cfg.APITimeout = defaultAPITimeout
	}
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = defaultUploadTimeout
	}

	return &Client{
		cfg:      cfg,
		api:      &http.Client{Timeout: cfg.APITimeout},
		uploader: &http.Client{Timeout: cfg.UploadTimeout},
	}
}

// credentialState is the explicit view of the client's stored credential.
type credentialState int

const (
	credentialUnauthenticated credentialState = iota
	credentialValid
	credentialExpired
)

func (c *Client) credentialState() credentialState {
	switch {
	case c.token == "":
		return credentialUnauthenticated
	case !time.Now().Before(c.expiresAt):
		return credentialExpired
	default:
		return credentialValid
	}
}
