package testutil

import (
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// VerifierRequest is one multipart request received by a Verifier.
type VerifierRequest struct {
	StepNumber string
	Variable   string
	FileName   string
	FileType   string
	FileSize   int
}

// Reply is a canned verification response.
type Reply struct {
	Status int
	Body   string
}

// Verifier is a fake verification service.
type Verifier struct {
	*httptest.Server

	mu       sync.Mutex
	requests []VerifierRequest
	replies  map[string]Reply
	fallback Reply
}

// NewVerifier starts a Verifier that answers every request with fallback
// unless a reply was registered for the request's variable.
func NewVerifier(t *testing.T, fallback Reply) *Verifier {
	t.Helper()

	v := &Verifier{replies: map[string]Reply{}, fallback: fallback}
	v.Server = httptest.NewServer(http.HandlerFunc(v.handle))
	t.Cleanup(v.Close)
	return v
}

// Valid returns a 200 reply with a passing measurement.
func Valid(measurement, units string) Reply {
	return Reply{Status: http.StatusOK, Body: `{"valid": true, "measurement": ` + measurement + `, "units": "` + units + `"}`}
}

// Invalid returns a 200 reply rejecting the measurement.
func Invalid() Reply {
	return Reply{Status: http.StatusOK, Body: `{"valid": false}`}
}

// ServerError returns a 500 reply carrying msg.
func ServerError(msg string) Reply {
	return Reply{Status: http.StatusInternalServerError, Body: `{"error": "` + msg + `"}`}
}

// ReplyFor registers the reply for one variable.
func (v *Verifier) ReplyFor(variable string, r Reply) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.replies[variable] = r
}

// Requests returns the requests received so far.
func (v *Verifier) Requests() []VerifierRequest {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]VerifierRequest(nil), v.requests...)
}

func (v *Verifier) handle(w http.ResponseWriter, r *http.Request) {
	req := parse(r)

	v.mu.Lock()
	v.requests = append(v.requests, req)
	reply, ok := v.replies[req.Variable]
	if !ok {
		reply = v.fallback
	}
	v.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(reply.Status)
	_, _ = io.Copy(w, strings.NewReader(reply.Body))
}

func parse(r *http.Request) VerifierRequest {
	var req VerifierRequest

	_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return req
	}
	mr := multipart.NewReader(r.Body, params["boundary"])
	for {
		part, err := mr.NextPart()
		if err != nil {
			return req
		}
		data, _ := io.ReadAll(part)
		switch part.FormName() {
		case "step_number":
			req.StepNumber = string(data)
		case "variable":
			req.Variable = string(data)
		case "file":
			req.FileName = part.FileName()
			req.FileType = part.Header.Get("Content-Type")
			req.FileSize = len(data)
		}
	}
}
