package telegram

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"
)

const (
	// RunModeWebhook receives updates through an HTTP listener.
	RunModeWebhook = "webhook"
	// RunModeLongpoll pulls updates with getUpdates.
	RunModeLongpoll = "longpoll"

	defaultPollTimeoutSeconds = 10
	apiBaseURL                = "https://api.telegram.org"
)

// WebhookOptions declares webhook listener settings.
type WebhookOptions struct {
	Listen string
	Port   int
	URL    string
}

// PollerOptions configures BuildPoller.
type PollerOptions struct {
	RunMode                string
	LongPollTimeoutSeconds int
	Webhook                WebhookOptions
}

// BuildPoller returns a webhook listener for RunModeWebhook and a long poller otherwise.
func BuildPoller(opts PollerOptions) tele.Poller {
	if strings.EqualFold(strings.TrimSpace(opts.RunMode), RunModeWebhook) {
		return &tele.Webhook{
			Listen:   net.JoinHostPort(opts.Webhook.Listen, strconv.Itoa(opts.Webhook.Port)),
			Endpoint: &tele.WebhookEndpoint{PublicURL: opts.Webhook.URL},
		}
	}
	seconds := pollTimeoutSeconds(opts.LongPollTimeoutSeconds)
	return &tele.LongPoller{Timeout: time.Duration(seconds) * time.Second}
}

func pollTimeoutSeconds(configured int) int {
	if configured > 0 {
		return configured
	}
	return defaultPollTimeoutSeconds
}

// deleteWebhook removes a previously registered webhook; getUpdates fails while one is set.
func deleteWebhook(parent context.Context, client *http.Client, baseURL, token string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("empty token")
	}
	ctx, cancel := context.WithTimeout(parent, 5*time.Second)
	defer cancel()

	form := url.Values{"drop_pending_updates": {"false"}}
	endpoint := baseURL + "/bot" + token + "/deleteWebhook"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("deleteWebhook: %s", resp.Status)
	}
	return nil
}
