// Package verify submits uploaded evidence to the remote verification
// service and maps each answer to a field outcome.
package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/stepcheck/internal/domain/upload"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Client errors, carried in Outcome.Err.
var (
	ErrInvalidRequest = errors.New("invalid validation request")
	ErrNetworkError   = errors.New("network error")
	ErrDecodeResponse = errors.New("response is not valid JSON")
)

// DefaultEndpoint is the verification service URL.
const DefaultEndpoint = "http://localhost:5000/validate"

// Operator-facing messages.
const (
	MsgTransportFailure = "Error during validation."
)

const tracerName = "github.com/felixgeelhaar/stepcheck/internal/domain/verify"

// Config configures the client.
type Config struct {
	// Endpoint is the full URL of the validate route.
	Endpoint string
	// Timeout bounds a single call. Zero means no timeout.
	Timeout time.Duration
	// UserAgent is the User-Agent header value.
	UserAgent string
	// Tracer overrides the global tracer provider.
	Tracer trace.Tracer
}

// DefaultConfig returns the local-development defaults.
func DefaultConfig() Config {
	return Config{
		Endpoint:  DefaultEndpoint,
		UserAgent: "stepcheck",
	}
}

// Outcome is the result of validating one field. It is a value, never an error:
// every failure is described by Kind and Message.
type Outcome struct {
	Passed      bool
	Kind        upload.Kind
	Message     string
	Measurement string
	Units       string
	// StatusCode is the HTTP status, or zero when no response was received.
	StatusCode int
	RequestID  string
	// Err is the underlying cause of a transport failure.
	Err error
}

// Validator validates one file for one field of a step.
type Validator interface {
	Validate(ctx context.Context, stepNumber int, field string, file *upload.File) Outcome
}

// Client talks to the verification service over multipart HTTP.
type Client struct {
	config     Config
	httpClient *http.Client
	tracer     trace.Tracer
}

// NewClient creates a new verification client.
func NewClient(config Config) *Client {
	if config.Endpoint == "" {
		config.Endpoint = DefaultEndpoint
	}
	tracer := config.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		tracer: tracer,
	}
}

// response is the service's JSON body. Fields are decoded loosely because the
// service echoes measurement as either a number or a string.
type response struct {
	Valid       *bool           `json:"valid"`
	Measurement json.RawMessage `json:"measurement"`
	Units       json.RawMessage `json:"units"`
	Error       json.RawMessage `json:"error"`
}

// Validate sends file as evidence for field of the 1-based stepNumber.
func (c *Client) Validate(ctx context.Context, stepNumber int, field string, file *upload.File) Outcome {
	requestID := uuid.NewString()

	ctx, span := c.tracer.Start(ctx, "verify.validate", trace.WithAttributes(
		attribute.Int("stepcheck.step_number", stepNumber),
		attribute.String("stepcheck.field", field),
		attribute.String("stepcheck.request_id", requestID),
	))
	defer span.End()

	out := c.validate(ctx, requestID, stepNumber, field, file)
	out.RequestID = requestID

	span.SetAttributes(
		attribute.String("stepcheck.outcome", out.Kind.String()),
		attribute.Bool("stepcheck.passed", out.Passed),
	)
	if out.StatusCode != 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", out.StatusCode))
	}
	if out.Err != nil {
		span.RecordError(out.Err)
	}
	if !out.Passed {
		span.SetStatus(codes.Error, out.Message)
	}
	return out
}

func (c *Client) validate(ctx context.Context, requestID string, stepNumber int, field string, file *upload.File) Outcome {
	if stepNumber < 1 || file == nil {
		return transportFailure(fmt.Errorf("%w: step %d, file present %t", ErrInvalidRequest, stepNumber, file != nil))
	}

	body, contentType, err := encodeForm(stepNumber, field, file)
	if err != nil {
		return transportFailure(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, body)
	if err != nil {
		return transportFailure(fmt.Errorf("%w: request creation failed: %w", ErrNetworkError, err))
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportFailure(fmt.Errorf("%w: %w", ErrNetworkError, err))
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		out := transportFailure(fmt.Errorf("%w: failed to read response: %w", ErrNetworkError, err))
		out.StatusCode = resp.StatusCode
		return out
	}

	var decoded response
	if err := json.Unmarshal(data, &decoded); err != nil {
		out := transportFailure(fmt.Errorf("%w: %w", ErrDecodeResponse, err))
		out.StatusCode = resp.StatusCode
		return out
	}

	return interpret(resp.StatusCode, field, decoded)
}

// interpret maps a decoded response to an outcome.
func interpret(status int, field string, r response) Outcome {
	if status < 200 || status > 299 {
		reason := scalar(r.Error)
		if reason == "" {
			reason = "unknown error"
		}
		return Outcome{
			Kind:       upload.KindRemoteServerError,
			Message:    fmt.Sprintf("Server error: %s. Validation failed.", reason),
			StatusCode: status,
		}
	}

	if r.Valid == nil || !*r.Valid {
		return Outcome{
			Kind:       upload.KindRemoteValidationRejected,
			Message:    fmt.Sprintf("Validation failed for %s.", field),
			StatusCode: status,
		}
	}

	out := Outcome{
		Passed:      true,
		Measurement: scalar(r.Measurement),
		Units:       scalar(r.Units),
		StatusCode:  status,
	}
	out.Message = strings.TrimSpace(fmt.Sprintf("Validated: %s %s", out.Measurement, out.Units))
	return out
}

// scalar renders a raw JSON value for display: strings are unquoted, numbers
// and other literals are echoed verbatim, null and absent values are empty.
func scalar(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return ""
	}
	if trimmed[0] == '"' {
		if s, err := strconv.Unquote(string(trimmed)); err == nil {
			return s
		}
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	return string(trimmed)
}

func transportFailure(err error) Outcome {
	return Outcome{
		Kind:    upload.KindTransportFailure,
		Message: MsgTransportFailure,
		Err:     err,
	}
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// encodeForm builds the step_number, variable and file parts. The file part
// keeps the original filename and the declared MIME type.
func encodeForm(stepNumber int, field string, file *upload.File) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("step_number", strconv.Itoa(stepNumber)); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("variable", field); err != nil {
		return nil, "", err
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(file.Name)))
	contentType := file.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}

	rc, err := file.Open()
	if err != nil {
		return nil, "", fmt.Errorf("failed to open %s: %w", file.Name, err)
	}
	_, err = io.Copy(part, rc)
	_ = rc.Close()
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", file.Name, err)
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
