// Package models defines the core domain models for ad-platform connections and campaign drafts.
package models

// FormQuestion is a single question/answer pair extracted from an intake form.
type FormQuestion struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer"`
}

// StructuredFormData is the intake form handed to the auto-populate engine.
// A nil FormData means the upstream extraction produced no structured answers.
type StructuredFormData struct {
	RawText  string         `json:"rawText"`
	FormData []FormQuestion `json:"formData"`
}

// HasFormData reports whether the form carries a question/answer sequence.
func (f *StructuredFormData) HasFormData() bool {
	return f != nil && f.FormData != nil
}
