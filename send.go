package ultraocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/rs/zerolog/log"
)

// GenerateSignedURL requests presigned upload URLs for a new job or batch.
// metadata follows the UltraOCR docs format for the chosen service; params
// are the optional query flags (facematch, extra-document, base64). The
// returned ID is the job/batch ID for every later call on this submission.
func (c *Client) GenerateSignedURL(ctx context.Context, service string, metadata any, params map[string]string, resource Resource) (SignedURLResponse, error) {
	endpoint := fmt.Sprintf("%s/ocr/%s/%s", c.cfg.BaseURL, resource, service)

	payload, err := c.post(ctx, endpoint, metadata, params)
	if err != nil {
		return SignedURLResponse{}, err
	}
	var res SignedURLResponse
	if err := json.Unmarshal(payload, &res); err != nil {
		return SignedURLResponse{}, fmt.Errorf("parse signed url response: %w", err)
	}
	return res, nil
}

// upload PUTs one payload to a presigned URL. Signed URLs are
// pre-authorized, so no bearer header is attached.
func (c *Client) upload(ctx context.Context, slot, signedURL string, body io.Reader) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, signedURL, body)
	if err != nil {
		return &UploadError{Slot: slot, Cause: fmt.Errorf("build request: %w", err)}
	}

	log.Debug().Str("slot", slot).Msg("Uploading to signed URL")
	resp, err := c.uploader.Do(req)
	if err != nil {
		return &UploadError{Slot: slot, Cause: err}
	}
	defer resp.Body.Close()

	if err := validateStatus(resp.StatusCode); err != nil {
		log.Error().Str("slot", slot).Int("statusCode", resp.StatusCode).Msg("Upload rejected")
		return &UploadError{Slot: slot, Cause: err}
	}
	log.Debug().Str("slot", slot).Msg("Upload complete")
	return nil
}

func (c *Client) uploadPath(ctx context.Context, slot, signedURL, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return &UploadError{Slot: slot, Cause: err}
	}
	defer file.Close()
	return c.upload(ctx, slot, signedURL, file)
}

// SendJob creates a job and uploads its files from local paths. The
// facematch and extra file paths are read only when the matching query flag
// (facematch=true / extra-document=true) is present in params; setting a
// path without the flag silently skips that file, and setting the flag
// without a readable path fails the submission. Slots upload in declaration
// order and the first failure aborts without rolling back earlier uploads.
func (c *Client) SendJob(ctx context.Context, service, filePath, facematchFilePath, extraFilePath string, metadata map[string]any, params map[string]string) (CreatedResponse, error) {
	res, err := c.GenerateSignedURL(ctx, service, metadata, params, ResourceJob)
	if err != nil {
		return CreatedResponse{}, err
	}

	if err := c.uploadPath(ctx, "document", res.URLs["document"], filePath); err != nil {
		return CreatedResponse{}, err
	}
	if params[paramFacematch] == flagTrue {
		if err := c.uploadPath(ctx, "selfie", res.URLs["selfie"], facematchFilePath); err != nil {
			return CreatedResponse{}, err
		}
	}
	if params[paramExtra] == flagTrue {
		if err := c.uploadPath(ctx, "extra_document", res.URLs["extra_document"], extraFilePath); err != nil {
			return CreatedResponse{}, err
		}
	}

	log.Info().Str("jobId", res.ID).Str("service", service).Msg("Job created")
	return CreatedResponse{ID: res.ID, StatusURL: res.StatusURL}, nil
}

// SendJobBase64 creates a job from payloads already in base64 form. The
// signed-URL request carries base64=true so the service decodes on its side.
// The same facematch/extra flag coupling as SendJob applies.
func (c *Client) SendJobBase64(ctx context.Context, service string, file, facematchFile, extraFile []byte, metadata map[string]any, params map[string]string) (CreatedResponse, error) {
	params = withParam(params, paramBase64, flagTrue)

	res, err := c.GenerateSignedURL(ctx, service, metadata, params, ResourceJob)
	if err != nil {
		return CreatedResponse{}, err
	}

	if err := c.upload(ctx, "document", res.URLs["document"], bytes.NewReader(file)); err != nil {
		return CreatedResponse{}, err
	}
	if params[paramFacematch] == flagTrue {
		if err := c.upload(ctx, "selfie", res.URLs["selfie"], bytes.NewReader(facematchFile)); err != nil {
			return CreatedResponse{}, err
		}
	}
	if params[paramExtra] == flagTrue {
		if err := c.upload(ctx, "extra_document", res.URLs["extra_document"], bytes.NewReader(extraFile)); err != nil {
			return CreatedResponse{}, err
		}
	}

	log.Info().Str("jobId", res.ID).Str("service", service).Msg("Job created")
	return CreatedResponse{ID: res.ID, StatusURL: res.StatusURL}, nil
}

// SendBatch creates a batch and uploads its document from a local path.
// metadata is one entry per file in the batch document.
func (c *Client) SendBatch(ctx context.Context, service, filePath string, metadata []map[string]any, params map[string]string) (CreatedResponse, error) {
	if c.cfg.ValidateMetadata {
		if err := ValidateMetadata(metadata); err != nil {
			return CreatedResponse{}, err
		}
	}

	res, err := c.GenerateSignedURL(ctx, service, metadata, params, ResourceBatch)
	if err != nil {
		return CreatedResponse{}, err
	}
	if err := c.uploadPath(ctx, "document", res.URLs["document"], filePath); err != nil {
		return CreatedResponse{}, err
	}

	log.Info().Str("batchId", res.ID).Str("service", service).Msg("Batch created")
	return CreatedResponse{ID: res.ID, StatusURL: res.StatusURL}, nil
}

// SendBatchBase64 creates a batch from a payload already in base64 form.
func (c *Client) SendBatchBase64(ctx context.Context, service string, file []byte, metadata []map[string]any, params map[string]string) (CreatedResponse, error) {
	if c.cfg.ValidateMetadata {
		if err := ValidateMetadata(metadata); err != nil {
			return CreatedResponse{}, err
		}
	}

	params = withParam(params, paramBase64, flagTrue)

	res, err := c.GenerateSignedURL(ctx, service, metadata, params, ResourceBatch)
	if err != nil {
		return CreatedResponse{}, err
	}
	if err := c.upload(ctx, "document", res.URLs["document"], bytes.NewReader(file)); err != nil {
		return CreatedResponse{}, err
	}

	log.Info().Str("batchId", res.ID).Str("service", service).Msg("Batch created")
	return CreatedResponse{ID: res.ID, StatusURL: res.StatusURL}, nil
}

// SendJobSingleStep creates a job in a single request, with the base64
// payloads inline in the body. Faster than the signed-URL flow but limited
// to 6MB of body, metadata included. The facematch and extra payloads are
// attached only when the matching query flag is set in params.
func (c *Client) SendJobSingleStep(ctx context.Context, service, file, facematchFile, extraFile string, metadata map[string]any, params map[string]string) (CreatedResponse, error) {
	if metadata == nil {
		metadata = map[string]any{}
	}

	body := singleStepRequest{
		Metadata: metadata,
		Data:     file,
	}
	if params[paramFacematch] == flagTrue {
		body.Facematch = facematchFile
	}
	if params[paramExtra] == flagTrue {
		body.Extra = extraFile
	}

	endpoint := fmt.Sprintf("%s/ocr/job/send/%s", c.cfg.BaseURL, service)
	payload, err := c.post(ctx, endpoint, body, params)
	if err != nil {
		return CreatedResponse{}, err
	}

	var res CreatedResponse
	if err := json.Unmarshal(payload, &res); err != nil {
		return CreatedResponse{}, fmt.Errorf("parse response: %w", err)
	}
	log.Info().Str("jobId", res.ID).Str("service", service).Msg("Job created")
	return res, nil
}

// withParam copies params with one extra key set, leaving the caller's map
// untouched.
func withParam(params map[string]string, key, value string) map[string]string {
	merged := make(map[string]string, len(params)+1)
	for k, v := range params {
		merged[k] = v
	}
	merged[key] = value
	return merged
}
