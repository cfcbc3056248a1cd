package model

import (
	"strings"
	"time"
)

// FormRefPrefix prefixes the reference of every stored signed form.
const FormRefPrefix = "/forms/"

// Form is an uploaded signed assignment form.
type Form struct {
	Name       string    `json:"name"`
	Mime       string    `json:"mime"`
	Size       int64     `json:"size"`
	UploadedBy *int64    `json:"uploadedBy,omitempty"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Ref returns the reference assignments store for the form.
func (f Form) Ref() string {
	return FormRefPrefix + f.Name
}

// FormName extracts the file name from a form reference. It reports false
// for references that do not point at a stored form.
func FormName(ref string) (string, bool) {
	name, ok := strings.CutPrefix(ref, FormRefPrefix)
	if !ok || name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", false
	}
	return name, true
}
