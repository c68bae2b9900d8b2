package gateway

import (
	"bytes"
	"encoding/json"
	"strings"
)

// wrapperKeys is the order in which envelope keys are searched for the payload.
var wrapperKeys = []string{"projects", "skills", "project", "skill", "contacts", "contact", "data", "user"}

// Body is the decoded shape of a successful response: Envelope, Raw or Passthrough.
type Body interface {
	payload() json.RawMessage
}

// Envelope is a `{success, <Key>: payload}` response.
type Envelope struct {
	Key     string
	Payload json.RawMessage
}

// Raw is a response that is not an envelope, such as a bare array.
type Raw struct {
	Payload json.RawMessage
}

// Passthrough is a response kept whole: login responses and envelopes with
// no known payload key.
type Passthrough struct {
	Body json.RawMessage
}

func (e Envelope) payload() json.RawMessage    { return e.Payload }
func (r Raw) payload() json.RawMessage         { return r.Payload }
func (p Passthrough) payload() json.RawMessage { return p.Body }

// Response is the normalized result of a call. Data is the payload of Shape.
type Response struct {
	StatusCode int
	Shape      Body
	Data       json.RawMessage
}

// Decode unmarshals Data into v. An empty payload leaves v untouched.
func (r *Response) Decode(v any) error {
	if len(r.Data) == 0 {
		return nil
	}
	return json.Unmarshal(r.Data, v)
}

// Normalize classifies body as returned from path.
func Normalize(path string, body []byte) Body {
	body = bytes.TrimSpace(body)
	if isLoginPath(path) {
		return Passthrough{Body: body}
	}

	var obj map[string]json.RawMessage
	if len(body) == 0 || body[0] != '{' || json.Unmarshal(body, &obj) != nil {
		return Raw{Payload: body}
	}

	var success bool
	flag, ok := obj["success"]
	if !ok || json.Unmarshal(flag, &success) != nil {
		return Raw{Payload: body}
	}
	for _, key := range wrapperKeys {
		if v, ok := obj[key]; ok {
			return Envelope{Key: key, Payload: v}
		}
	}
	return Passthrough{Body: body}
}

func isLoginPath(path string) bool {
	return strings.Contains(path, "/auth/login")
}
