package models

// User is the authenticated dashboard user a request acts on behalf of.
type User struct {
	ID    string `json:"id"    validate:"required"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}
