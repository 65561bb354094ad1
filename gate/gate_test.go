package gate

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CsabaConsulting/STTSFunctions/types"
)

func TestGate_Authorize(t *testing.T) {
	g := NewGate("abc")

	tests := []struct {
		name    string
		req     *InboundRequest
		allowed bool
	}{
		{"json token matches", &InboundRequest{JSON: map[string]any{"token": "abc"}}, true},
		{"query token matches", &InboundRequest{Query: url.Values{"token": {"abc"}}}, true},
		{"json mismatch beats query match", &InboundRequest{
			JSON:  map[string]any{"token": "wrong"},
			Query: url.Values{"token": {"abc"}},
		}, false},
		{"wrong token", &InboundRequest{Query: url.Values{"token": {"wrong"}}}, false},
		{"prefix is not a match", &InboundRequest{Query: url.Values{"token": {"ab"}}}, false},
		{"missing token", &InboundRequest{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.Authorize(tt.req)
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, types.IsDenied(err))
		})
	}
}

func TestGate_NonStringJSONTokenDenied(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		body   string
	}{
		{"number", "123", `{"token":123}`},
		{"bool", "true", `{"token":true}`},
		{"object", `{"a":1}`, `{"token":{"a":1}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/?token="+url.QueryEscape(tt.secret), strings.NewReader(tt.body))
			r.Header.Set("Content-Type", "application/json")
			req, err := ParseRequest(r, 1<<10)
			require.NoError(t, err)

			err = NewGate(tt.secret).Authorize(req)
			require.Error(t, err)
			assert.True(t, types.IsDenied(err))
		})
	}
}

func TestNewGate_DefaultSecret(t *testing.T) {
	g := NewGate("")

	assert.NoError(t, g.Authorize(&InboundRequest{Query: url.Values{"token": {"***"}}}))
	assert.True(t, types.IsDenied(g.Authorize(&InboundRequest{})))
}
