package ultraocr

// Status is the lifecycle state the service reports for a job or batch.
// JSON values are lower-case to match the API.
type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusProcessing Status = "processing"
	StatusValidating Status = "validating" // jobs only
	StatusDone       Status = "done"
	StatusError      Status = "error"
)

// Terminal reports whether polling stops at this status. A terminal "error"
// is a valid outcome the caller inspects on the returned record; it is never
// converted into a Go error.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusError
}
