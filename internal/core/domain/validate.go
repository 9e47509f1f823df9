package domain

import (
	"fmt"
	"strings"
)

// ValidateRecord checks the invariants every stored record must hold:
// question and answer present and non-blank. Violations are reported as
// ErrValidation naming the offending field.
func ValidateRecord(r Record) error {
	if strings.TrimSpace(r.Question) == "" {
		return WrapError(ErrValidation, "validate record", fmt.Errorf("missing required field: question"))
	}
	if strings.TrimSpace(r.Answer) == "" {
		return WrapError(ErrValidation, "validate record", fmt.Errorf("missing required field: answer"))
	}
	return nil
}

// CleanRecord trims text fields and fills optional-field defaults. The input
// is not modified.
func CleanRecord(r Record) Record {
	out := r
	out.ID = strings.TrimSpace(out.ID)
	out.Question = strings.TrimSpace(out.Question)
	out.Answer = strings.TrimSpace(out.Answer)
	out.Summary = strings.TrimSpace(out.Summary)
	out.AnswerType = strings.TrimSpace(out.AnswerType)
	out.Date = strings.TrimSpace(out.Date)
	if out.AnswerType == "" {
		out.AnswerType = DefaultAnswerType
	}
	return out
}

// CombinedText is the canonical text both vectors of a record are computed
// from. Changing this format invalidates every stored embedding.
func CombinedText(r Record) string {
	return fmt.Sprintf("Question: %s Answer: %s", r.Question, r.Answer)
}
