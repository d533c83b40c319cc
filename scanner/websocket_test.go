package scanner

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpgradeAccepted_Exhaustive(t *testing.T) {
	accepted := map[int]bool{101: true, 403: true, 426: true, 429: true, 500: true, 503: true}
	for status := 0; status < 600; status++ {
		assert.Equal(t, accepted[status], UpgradeAccepted(status), "status %d", status)
	}
}

func TestWebSocketProbe_Verdicts(t *testing.T) {
	cases := []struct {
		status int
		want   string
	}{
		{http.StatusUpgradeRequired, "succeeded with status 426"},
		{http.StatusForbidden, "succeeded with status 403"},
		{http.StatusServiceUnavailable, "succeeded with status 503"},
		{http.StatusOK, "failed."},
		{http.StatusNotFound, "failed."},
		{http.StatusBadGateway, "failed."},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			headers := make(chan http.Header, 1)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				headers <- r.Header.Clone()
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			host := strings.TrimPrefix(srv.URL, "http://")
			sink := &recordSink{}
			probe, err := NewProbe(ModeWebSocket, Options{Sink: sink})
			require.NoError(t, err)
			probe.Run(context.Background(), Task{Method: "head", Host: host, Port: 80})

			h := <-headers
			assert.Equal(t, "websocket", h.Get("Upgrade"))
			assert.Equal(t, "Mozilla/5.0", h.Get("User-Agent"))
			assert.Equal(t, []string{
				"Attempting WebSocket connection to " + host,
				fmt.Sprintf("WebSocket connection to %s %s", host, tc.want),
			}, sink.Lines())
		})
	}
}

func TestWebSocketProbe_ConnectionFailureIsFailed(t *testing.T) {
	host := fmt.Sprintf("127.0.0.1:%d", closedPort(t))

	sink := &recordSink{}
	probe, err := NewProbe(ModeWebSocket, Options{Sink: sink})
	require.NoError(t, err)
	probe.Run(context.Background(), Task{Host: host})

	lines := sink.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "WebSocket connection to "+host+" failed.", lines[1])
}
