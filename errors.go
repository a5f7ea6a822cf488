package ultraocr

import (
	"fmt"
	"time"
)

// AuthenticationError is returned when the token endpoint answers with an
// unexpected status code.
type AuthenticationError struct {
	Status   int
	Expected int
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed: got status %d, expected %d", e.Status, e.Expected)
}

// InvalidStatusCodeError is returned whenever the API answers with a status
// code other than the single expected one (every call expects 200).
type InvalidStatusCodeError struct {
	Status   int
	Expected int
}

func (e *InvalidStatusCodeError) Error() string {
	return fmt.Sprintf("invalid status code: got %d, expected %d", e.Status, e.Expected)
}

// TimeoutError is returned when a wait operation exhausts its poll deadline.
// LastRecord holds the most recent record fetched before the deadline, or nil
// if not even one fetch completed.
type TimeoutError struct {
	Timeout    time.Duration
	LastRecord any
}

func (e *TimeoutError) Error() string {
	if e.LastRecord == nil {
		return fmt.Sprintf("timeout reached after %s with no response", e.Timeout)
	}
	return fmt.Sprintf("timeout reached after %s, last record: %+v", e.Timeout, e.LastRecord)
}

// UploadError is returned when a signed-URL upload fails. Slot names which
// upload failed ("document", "selfie" or "extra_document"). Previously
// uploaded slots are not rolled back.
type UploadError struct {
	Slot  string
	Cause error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Slot, e.Cause)
}

func (e *UploadError) Unwrap() error { return e.Cause }
