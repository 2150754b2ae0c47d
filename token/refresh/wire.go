package refresh

// Path is the refresh endpoint, relative to the core backend base URL.
const Path = "/auth/refresh"

// Request is the body of a refresh call.
type Request struct {
	Refresh string `json:"refresh"`
}

// Response is the body returned by a successful refresh call. The backend may
// omit Refresh, in which case the caller keeps its current refresh token.
type Response struct {
	Access  *string `json:"access,omitempty"`
	Refresh *string `json:"refresh,omitempty"`
}
