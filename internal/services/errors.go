package services

import (
	"errors"
	"fmt"
	"strings"
)

// Generic markers classify infrastructure failures.
var (
	ErrExternalService = errors.New("external service error")
	ErrValidation      = errors.New("validation error")
	ErrConfiguration   = errors.New("configuration error")
	ErrNotFound        = errors.New("not found")
	ErrTimeout         = errors.New("timeout")
	ErrTransient       = errors.New("transient failure")
)

// Domain markers classify pipeline failures by stage semantics.
var (
	ErrInsufficientResearch   = errors.New("insufficient research")
	ErrDraftGenerationFailed  = errors.New("draft generation failed")
	ErrNameAllocationConflict = errors.New("name allocation conflict")
	ErrSynthesisSegmentFailed = errors.New("synthesis segment failed")
	ErrSynthesisTimeout       = errors.New("synthesis timeout")
	ErrCatalogSyncConflict    = errors.New("catalog sync conflict")
)

// ErrorKind is the stable string identity of a marker, used in structured logs
// and API payloads.
type ErrorKind string

const (
	KindExternalService       ErrorKind = "external_service"
	KindValidation            ErrorKind = "validation"
	KindConfiguration         ErrorKind = "configuration"
	KindNotFound              ErrorKind = "not_found"
	KindTimeout               ErrorKind = "timeout"
	KindTransient             ErrorKind = "transient"
	KindInsufficientResearch  ErrorKind = "insufficient_research"
	KindDraftGenerationFailed ErrorKind = "draft_generation_failed"
	KindNameAllocation        ErrorKind = "name_allocation_conflict"
	KindSynthesisSegment      ErrorKind = "synthesis_segment_failed"
	KindSynthesisTimeout      ErrorKind = "synthesis_timeout"
	KindCatalogSync           ErrorKind = "catalog_sync_conflict"
	KindUnknown               ErrorKind = "unknown"
)

// Error carries the marker plus stage context so failures render consistently
// in logs, job records, and API responses.
type Error struct {
	Marker    error
	Stage     string
	Operation string
	Message   string
	Cause     error
}

func (e *Error) Error() string {
	detail := buildDetail(e.Stage, e.Operation, e.Message)
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Marker, detail, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Marker, detail)
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Marker != nil {
		errs = append(errs, e.Marker)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// Wrap tags err with the provided marker and stage context. The marker should
// be one of the exported sentinel errors above; nil defaults to ErrTransient.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	return &Error{
		Marker:    marker,
		Stage:     strings.TrimSpace(stage),
		Operation: strings.TrimSpace(operation),
		Message:   strings.TrimSpace(message),
		Cause:     err,
	}
}

// ErrorDetails is the flattened view of a wrapped error consumed by the
// workflow failure path and the status API.
type ErrorDetails struct {
	Kind      ErrorKind
	Stage     string
	Operation string
	Message   string
	Hint      string
	Cause     error
}

// Details extracts structured failure information from an error chain. Errors
// not produced by Wrap yield a best-effort result with the kind resolved from
// any bare marker in the chain.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{Kind: KindUnknown}
	}
	var svcErr *Error
	if errors.As(err, &svcErr) {
		kind := KindOf(svcErr.Marker)
		return ErrorDetails{
			Kind:      kind,
			Stage:     svcErr.Stage,
			Operation: svcErr.Operation,
			Message:   buildDetail(svcErr.Stage, svcErr.Operation, svcErr.Message),
			Hint:      hintFor(kind),
			Cause:     svcErr.Cause,
		}
	}
	kind := KindOf(err)
	return ErrorDetails{
		Kind:    kind,
		Message: strings.TrimSpace(err.Error()),
		Hint:    hintFor(kind),
	}
}

// KindOf resolves the first matching marker in the error chain.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrInsufficientResearch):
		return KindInsufficientResearch
	case errors.Is(err, ErrDraftGenerationFailed):
		return KindDraftGenerationFailed
	case errors.Is(err, ErrNameAllocationConflict):
		return KindNameAllocation
	case errors.Is(err, ErrSynthesisSegmentFailed):
		return KindSynthesisSegment
	case errors.Is(err, ErrSynthesisTimeout):
		return KindSynthesisTimeout
	case errors.Is(err, ErrCatalogSyncConflict):
		return KindCatalogSync
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrTimeout):
		return KindTimeout
	case errors.Is(err, ErrExternalService):
		return KindExternalService
	case errors.Is(err, ErrTransient):
		return KindTransient
	default:
		return KindUnknown
	}
}

func hintFor(kind ErrorKind) string {
	switch kind {
	case KindInsufficientResearch:
		return "broaden the topic or lower research thresholds in config"
	case KindDraftGenerationFailed:
		return "verify llm api key and fallback model list"
	case KindNameAllocation:
		return "check object store listing and retry the job"
	case KindSynthesisSegment:
		return "verify tts api key and voice availability"
	case KindSynthesisTimeout:
		return "raise the assembly timeout or reduce requested duration"
	case KindCatalogSync:
		return "inspect the catalog audit table for the conflicting writer"
	case KindConfiguration:
		return "fix the reported config value and restart the daemon"
	case KindExternalService, KindTransient, KindTimeout:
		return "external collaborator was unavailable, retry when healthy"
	default:
		return ""
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
