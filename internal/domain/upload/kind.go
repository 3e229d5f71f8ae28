package upload

import "errors"

// Kind classifies why a field failed, locally or remotely. Every kind is
// recovered into a field status; none is fatal to the process.
type Kind int

const (
	// KindNone means no failure.
	KindNone Kind = iota
	// KindNoFileSelected means the operator submitted an empty selection.
	KindNoFileSelected
	// KindFileTooLarge means the file exceeds the configured size limit.
	KindFileTooLarge
	// KindUnsupportedType means the declared MIME type is not allowed.
	KindUnsupportedType
	// KindFileMissingAtValidationTime means validation ran before a file was accepted.
	KindFileMissingAtValidationTime
	// KindRemoteValidationRejected means the service answered valid=false.
	KindRemoteValidationRejected
	// KindRemoteServerError means the service answered with a non-success status.
	KindRemoteServerError
	// KindTransportFailure means no usable response was received.
	KindTransportFailure
)

// Sentinel errors, one per failure kind.
var (
	ErrNoFileSelected              = errors.New("no file selected")
	ErrFileTooLarge                = errors.New("file too large")
	ErrUnsupportedType             = errors.New("unsupported file type")
	ErrFileMissingAtValidationTime = errors.New("no file uploaded")
	ErrRemoteValidationRejected    = errors.New("validation rejected")
	ErrRemoteServerError           = errors.New("verification server error")
	ErrTransportFailure            = errors.New("verification transport failure")
)

var kindNames = map[Kind]string{
	KindNone:                        "none",
	KindNoFileSelected:              "no_file_selected",
	KindFileTooLarge:                "file_too_large",
	KindUnsupportedType:             "unsupported_type",
	KindFileMissingAtValidationTime: "file_missing",
	KindRemoteValidationRejected:    "remote_rejected",
	KindRemoteServerError:           "remote_server_error",
	KindTransportFailure:            "transport_failure",
}

var kindErrors = map[Kind]error{
	KindNoFileSelected:              ErrNoFileSelected,
	KindFileTooLarge:                ErrFileTooLarge,
	KindUnsupportedType:             ErrUnsupportedType,
	KindFileMissingAtValidationTime: ErrFileMissingAtValidationTime,
	KindRemoteValidationRejected:    ErrRemoteValidationRejected,
	KindRemoteServerError:           ErrRemoteServerError,
	KindTransportFailure:            ErrTransportFailure,
}

// String returns a stable snake_case name used in logs and JSON output.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Err returns the sentinel error for the kind, or nil for KindNone.
func (k Kind) Err() error {
	return kindErrors[k]
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}
