package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation           = errors.New("validation error")
	ErrConfiguration        = errors.New("configuration error")
	ErrQuotaCheck           = errors.New("quota check failed")
	ErrAuth                 = errors.New("credential rejected")
	ErrSynthesis            = errors.New("synthesis failed")
	ErrNoEligibleCredential = errors.New("no eligible credential")
	ErrAssembly             = errors.New("audio assembly failed")
	ErrExternalTool         = errors.New("external tool error")
	ErrTimeout              = errors.New("timeout")
	ErrTransient            = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureReason maps a run error to the short reason recorded in the run
// journal and printed by the CLI.
func FailureReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConfiguration):
		return "invalid_input"
	case errors.Is(err, ErrNoEligibleCredential):
		return "credentials_exhausted"
	case errors.Is(err, ErrAssembly), errors.Is(err, ErrExternalTool):
		return "assembly_failed"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "failed"
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
