package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWebhookSend(t *testing.T) {
	var got messageCard
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	w, err := NewWebhook(srv.URL)
	require.NoError(t, err)

	err = w.Send(context.Background(), "Pipeline has run", "all fragments processed", SeverityPass)
	require.NoError(t, err)
	require.Equal(t, "MessageCard", got.Type)
	require.Equal(t, "#00c400", got.ThemeColour)
	require.Equal(t, "Pipeline has run", got.Title)
	require.True(t, got.Markdown)
}

func TestWebhookSeverityColours(t *testing.T) {
	var colours []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var card messageCard
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &card)
		colours = append(colours, card.ThemeColour)
	}))
	defer srv.Close()

	w, err := NewWebhook(srv.URL)
	require.NoError(t, err)

	for _, sev := range []Severity{SeverityPass, SeverityFail, SeverityNotification} {
		require.NoError(t, w.Send(context.Background(), "t", "x", sev))
	}
	require.Equal(t, []string{"#00c400", "#c40000", "#0000c4"}, colours)
}

func TestWebhookInvalidSeverity(t *testing.T) {
	w, err := NewWebhook("http://localhost:1")
	require.NoError(t, err)

	err = w.Send(context.Background(), "t", "x", Severity("warning"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid notification severity")
}

func TestWebhookNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	w, err := NewWebhook(srv.URL)
	require.NoError(t, err)

	err = w.Send(context.Background(), "t", "x", SeverityFail)
	require.Error(t, err)
	require.Contains(t, err.Error(), "502")
}

func TestNewWebhookRequiresURL(t *testing.T) {
	_, err := NewWebhook("")
	require.Error(t, err)
}
