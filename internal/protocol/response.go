package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/muellr/sodatap/internal/logging"
)

// AuthFailureCode is the only err_code with established semantics: the token
// the client derived did not match the unit's, i.e. wrong PIN. Other codes
// are surfaced untouched.
const AuthFailureCode = 4

// ResponseMeta mirrors the request Meta block. Pairing responses carry the
// negotiated device id and type here.
type ResponseMeta struct {
	EvtType int    `json:"evt_type"`
	DevID   string `json:"dev_id"`
	DevType int    `json:"dev_type"`
	EvtVer  int    `json:"evt_ver"`
	EvtTs   int64  `json:"evt_ts"`
}

// ResponseResult is one entry of the alternate response shape, where the
// unit nests pars under body.results instead of body.pars. Both shapes
// appear in captured traffic and both must be handled.
type ResponseResult struct {
	Pars map[string]any `json:"pars"`
}

// ResponseBody is the decoded response body.
type ResponseBody struct {
	Meta    *ResponseMeta    `json:"meta"`
	Pars    map[string]any   `json:"pars"`
	Results []ResponseResult `json:"results"`
}

// Response is a decoded response envelope.
type Response struct {
	Session int          `json:"session"`
	ID      int          `json:"id"`
	Type    int          `json:"type"`
	Body    ResponseBody `json:"body"`
}

// ProtocolError is one entry of the errs list a response carries on failure.
type ProtocolError struct {
	Code    int
	Message string
}

func (e ProtocolError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("device error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("device error %d", e.Code)
}

// Reassemble joins response chunks and decodes the payload into a Response.
func Reassemble(chunks [][]byte) (*Response, error) {
	payload, err := JoinChunks(chunks)
	if err != nil {
		return nil, err
	}
	logging.LogRawBytes("Response payload", payload)
	var resp Response
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	return &resp, nil
}

// Pars returns the response parameter map, handling both response shapes:
// body.pars and body.results[0].pars. Returns an empty map when neither is
// present so field lookups never nil-panic.
func (r *Response) Pars() map[string]any {
	if r.Body.Pars != nil {
		return r.Body.Pars
	}
	if len(r.Body.Results) > 0 && r.Body.Results[0].Pars != nil {
		return r.Body.Results[0].Pars
	}
	return map[string]any{}
}

// Errors extracts the errs list from the response parameters.
func (r *Response) Errors() []ProtocolError {
	raw, ok := r.Pars()["errs"].([]any)
	if !ok {
		return nil
	}
	var errs []ProtocolError
	for _, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		var pe ProtocolError
		if code, ok := m["err_code"].(float64); ok {
			pe.Code = int(code)
		}
		if msg, ok := m["err_msg"].(string); ok {
			pe.Message = msg
		}
		errs = append(errs, pe)
	}
	return errs
}

// HasAuthError reports whether the response carries the token-mismatch
// error code.
func (r *Response) HasAuthError() bool {
	for _, pe := range r.Errors() {
		if pe.Code == AuthFailureCode {
			return true
		}
	}
	return false
}

// Acknowledged reports whether the unit accepted a write operation.
func (r *Response) Acknowledged() bool {
	return r.Type == EnvelopeTypeAck
}

// DeviceID returns the device id from the response metadata, or "" when the
// response carries none.
func (r *Response) DeviceID() string {
	if r.Body.Meta == nil {
		return ""
	}
	return r.Body.Meta.DevID
}

// DeviceType returns the device type from the response metadata, or 0 when
// the response carries none.
func (r *Response) DeviceType() int {
	if r.Body.Meta == nil {
		return 0
	}
	return r.Body.Meta.DevType
}
