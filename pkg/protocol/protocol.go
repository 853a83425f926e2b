// Package protocol implements the worker's wire format: one JSON object per
// line on the inbound stream, one JSON object per line on the outbound
// stream.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

var (
	// ErrInvalidJSON is returned when a line is not a JSON object.
	ErrInvalidJSON = errors.New("Invalid JSON")
	// ErrMissingOperation is returned when the operation property is absent or blank.
	ErrMissingOperation = errors.New("Missing/empty operation property")
	// ErrLineTooLong is returned when an inbound line exceeds the decoder limit.
	ErrLineTooLong = errors.New("request line too long")
)

var emptyObject = json.RawMessage("{}")

// Request is a single inbound request line.
//
// Parameters may arrive either as a structured object or pre-serialized in
// ParametersJSON. When both are present ParametersJSON wins.
type Request struct {
	Operation      string          `json:"operation"`
	Parameters     json.RawMessage `json:"parameters,omitempty"`
	ParametersJSON string          `json:"parametersJson,omitempty"`
}

// Payload returns the authoritative parameter bytes for the request.
func (r *Request) Payload() json.RawMessage {
	if strings.TrimSpace(r.ParametersJSON) != "" {
		return json.RawMessage(r.ParametersJSON)
	}
	if len(bytes.TrimSpace(r.Parameters)) > 0 {
		return r.Parameters
	}
	return emptyObject
}

// ParseRequest decodes one line into a Request.
func ParseRequest(line []byte) (*Request, error) {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrInvalidJSON
	}

	var req Request
	if err := json.Unmarshal(trimmed, &req); err != nil {
		return nil, ErrInvalidJSON
	}

	req.Operation = strings.TrimSpace(req.Operation)
	if req.Operation == "" {
		return nil, ErrMissingOperation
	}
	return &req, nil
}
