package backend_test

import (
	"testing"

	"github.com/storkych/ccj-frontend-sub000/backend"
	"github.com/stretchr/testify/require"
)

func TestEndpointResolve(t *testing.T) {
	ep := backend.Endpoint{Tag: backend.TagAPI, BaseURL: "https://api.example.com/v1/"}

	tests := []struct {
		path string
		want string
	}{
		{"/objects", "https://api.example.com/v1/objects"},
		{"objects/3", "https://api.example.com/v1/objects/3"},
		{"", "https://api.example.com/v1"},
		{"https://files.example.com/a.png", "https://files.example.com/a.png"},
		{"http://localhost:9000/x?y=1", "http://localhost:9000/x?y=1"},
		{"/objects?status=active", "https://api.example.com/v1/objects?status=active"},
		{"wss://stream.example.com/events", "wss://stream.example.com/events"},
		{"s3://bucket.example.com/plan.pdf", "s3://bucket.example.com/plan.pdf"},
		{"objects:archive", "https://api.example.com/v1/objects:archive"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, ep.Resolve(tt.path), tt.path)
	}
}

func TestEndpointString(t *testing.T) {
	ep := backend.Endpoint{Tag: backend.TagFiles, BaseURL: "http://files"}
	require.Equal(t, "files(http://files)", ep.String())
	require.Len(t, backend.Tags, 6)
}
