package backend

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strings"
)

// Response is a successful backend response. JSON holds the decoded value when
// the server declared a JSON content type, Text holds the body otherwise.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
	JSON   any
	Text   string
}

// IsJSON reports whether the body was parsed as JSON.
func (r *Response) IsJSON() bool {
	return isJSONContentType(r.Header.Get("Content-Type"))
}

// Decode unmarshals a JSON body into out.
func (r *Response) Decode(out any) error {
	if len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, out); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

func newResponse(status int, header http.Header, body []byte) (*Response, error) {
	r := &Response{Status: status, Header: header, Body: body}
	if !r.IsJSON() {
		r.Text = string(body)
		return r, nil
	}
	if len(body) == 0 {
		return r, nil
	}
	if err := json.Unmarshal(body, &r.JSON); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return r, nil
}

func isJSONContentType(v string) bool {
	if v == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(v)
	if err != nil {
		mediaType = strings.TrimSpace(strings.SplitN(v, ";", 2)[0])
	}
	mediaType = strings.ToLower(mediaType)
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
