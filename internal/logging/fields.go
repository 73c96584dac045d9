package logging

// Standardized structured logging keys shared across components. Keep these in
// sync with the console field selection in console_fields.go so operator-facing
// output highlights the right attributes.
const (
	// FieldEventType labels the machine-readable event category of a log line.
	FieldEventType = "event_type"
	// FieldErrorKind carries the services.ErrorKind classification of a failure.
	FieldErrorKind = "error_kind"
	// FieldErrorOperation names the operation that produced a failure.
	FieldErrorOperation = "error_operation"
	// FieldErrorHint suggests the operator's next step after a failure.
	FieldErrorHint = "error_hint"
	// FieldProgressStage is the human-readable sub-stage of a running job.
	FieldProgressStage = "progress_stage"
	// FieldProgressPercent is the 0-100 completion estimate of a running job.
	FieldProgressPercent = "progress_percent"
	// FieldProgressMessage is the free-form progress detail of a running job.
	FieldProgressMessage = "progress_message"
)
