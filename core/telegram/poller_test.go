package telegram

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

func TestBuildPoller(t *testing.T) {
	wh, ok := BuildPoller(PollerOptions{
		RunMode: "Webhook",
		Webhook: WebhookOptions{Listen: "0.0.0.0", Port: 8443, URL: "https://quiz.example/hook"},
	}).(*tele.Webhook)
	require.True(t, ok)
	assert.Equal(t, "0.0.0.0:8443", wh.Listen)
	assert.Equal(t, "https://quiz.example/hook", wh.Endpoint.PublicURL)

	lp, ok := BuildPoller(PollerOptions{RunMode: RunModeLongpoll}).(*tele.LongPoller)
	require.True(t, ok)
	assert.Equal(t, 10*time.Second, lp.Timeout)

	lp = BuildPoller(PollerOptions{LongPollTimeoutSeconds: 25}).(*tele.LongPoller)
	assert.Equal(t, 25*time.Second, lp.Timeout)
}

func TestDeleteWebhook(t *testing.T) {
	var gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		if r.URL.Path == "/botbad/deleteWebhook" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":true}`))
	}))
	defer srv.Close()

	require.NoError(t, deleteWebhook(context.Background(), srv.Client(), srv.URL, "123:abc"))
	assert.Equal(t, "/bot123:abc/deleteWebhook", gotPath)
	assert.Equal(t, "drop_pending_updates=false", gotBody)

	assert.ErrorContains(t, deleteWebhook(context.Background(), srv.Client(), srv.URL, "bad"), "401")
	assert.Error(t, deleteWebhook(context.Background(), srv.Client(), srv.URL, " "))
}
