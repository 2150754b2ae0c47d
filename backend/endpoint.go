package backend

import (
	"fmt"
	"net/url"
	"strings"
)

// Tag names one of the independently addressed backend services.
type Tag string

const (
	TagAPI           Tag = "api"
	TagNotifications Tag = "notifications"
	TagVisits        Tag = "visits"
	TagTickets       Tag = "tickets"
	TagAI            Tag = "ai"
	TagFiles         Tag = "files"
)

// Tags lists every backend in a stable order.
var Tags = []Tag{TagAPI, TagNotifications, TagVisits, TagTickets, TagAI, TagFiles}

func (t Tag) String() string {
	return string(t)
}

// Endpoint is the base URL of one backend service.
type Endpoint struct {
	Tag     Tag
	BaseURL string
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s(%s)", e.Tag, e.BaseURL)
}

// Resolve returns path unchanged when it is already an absolute URL (any
// scheme with a host), otherwise path appended to the endpoint base URL.
func (e Endpoint) Resolve(path string) string {
	if isAbsolute(path) {
		return path
	}
	base := strings.TrimRight(e.BaseURL, "/")
	if path == "" {
		return base
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}

func isAbsolute(path string) bool {
	u, err := url.Parse(path)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}
