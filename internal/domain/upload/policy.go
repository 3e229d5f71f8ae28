// Package upload decides whether a candidate file may be bound to a field,
// and defines the failure taxonomy shared by local and remote checks.
package upload

import (
	"errors"
	"fmt"
)

// Message texts shown to the operator.
const (
	MsgNoFileSelected  = "No file selected."
	MsgUnsupportedType = "Unsupported file type. Please upload a JPEG or PNG image."
)

// Rejection is a non-fatal refusal to accept a file. It matches the sentinel
// error of its kind with errors.Is.
type Rejection struct {
	Kind    Kind
	Message string
}

// Error implements error.
func (r *Rejection) Error() string {
	return r.Message
}

// Is reports whether target is the sentinel for the rejection's kind.
func (r *Rejection) Is(target error) bool {
	if sentinel := r.Kind.Err(); sentinel != nil && errors.Is(sentinel, target) {
		return true
	}
	t, ok := target.(*Rejection)
	return ok && t.Kind == r.Kind
}

// Policy is the local acceptance check applied before a file is stored.
type Policy struct {
	MaxFileSizeMB    float64
	AllowedMimeTypes []string
}

// DefaultPolicy returns the 5 MB JPEG/PNG policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxFileSizeMB:    5,
		AllowedMimeTypes: []string{"image/jpeg", "image/png", "image/jpg"},
	}
}

// Accept checks file against the policy. The first failing rule wins: missing
// file, then size, then type. MIME types are compared exactly.
func (p Policy) Accept(file *File) error {
	if file == nil {
		return &Rejection{Kind: KindNoFileSelected, Message: MsgNoFileSelected}
	}
	if file.SizeMB() > p.MaxFileSizeMB {
		return &Rejection{Kind: KindFileTooLarge, Message: p.TooLargeMessage()}
	}
	if !p.Allows(file.MimeType) {
		return &Rejection{Kind: KindUnsupportedType, Message: MsgUnsupportedType}
	}
	return nil
}

// Allows reports whether mimeType is on the allow-list.
func (p Policy) Allows(mimeType string) bool {
	for _, allowed := range p.AllowedMimeTypes {
		if allowed == mimeType {
			return true
		}
	}
	return false
}

// TooLargeMessage renders the size rejection for the configured limit.
func (p Policy) TooLargeMessage() string {
	return fmt.Sprintf("File size exceeds %g MB.", p.MaxFileSizeMB)
}

// AcceptedMessage is recorded when field receives an accepted file.
func AcceptedMessage(field string) string {
	return fmt.Sprintf("File for %s uploaded successfully.", field)
}
