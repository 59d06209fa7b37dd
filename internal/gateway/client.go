package gateway

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	internal "github.com/frahmantamala/paypal-enrolment/internal"
)

// Validation endpoint flavors. The sandbox host is selected by configuration
// for test installations.
const (
	LiveValidationURL    = "https://www.paypal.com/cgi-bin/webscr"
	SandboxValidationURL = "https://www.sandbox.paypal.com/cgi-bin/webscr"

	defaultTimeout = 30 * time.Second
)

// Outcome is the interpreted result of one re-validation call.
type Outcome string

const (
	// OutcomeVerified means the gateway confirmed the notification is authentic.
	OutcomeVerified Outcome = "verified"
	// OutcomeInvalid means the gateway disowned the notification.
	OutcomeInvalid Outcome = "invalid"
	// OutcomeUnreachable means the validation call failed at the transport level.
	OutcomeUnreachable Outcome = "unreachable"
	// OutcomeEmpty means the gateway answered with an empty body.
	OutcomeEmpty Outcome = "empty"
	// OutcomeIgnored means the gateway answered with something other than the
	// two recognized tokens; such responses are dropped without action.
	OutcomeIgnored Outcome = "ignored"
)

// Gateway response tokens, compared case-sensitively.
const (
	replyVerified = "VERIFIED"
	replyInvalid  = "INVALID"
)

// Client re-validates received notifications by echoing them back to the
// gateway's validation endpoint.
type Client struct {
	client  *http.Client
	baseURL string
	host    string
	logger  *slog.Logger
}

// NewClient builds a validation client for the given endpoint URL. The
// endpoint's webscr handler misbehaves over HTTP/2, so the transport pins
// HTTP/1.1.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid gateway url %q: %w", baseURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("gateway url %q has no host", baseURL)
	}

	if timeout <= 0 {
		timeout = defaultTimeout
	}

	transport := &http.Transport{
		// An empty TLSNextProto map disables HTTP/2 negotiation.
		TLSNextProto: make(map[string]func(string, *tls.Conn) http.RoundTripper),
	}

	return &Client{
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		baseURL: baseURL,
		host:    u.Host,
		logger:  logger,
	}, nil
}

// ValidationURL returns the configured endpoint flavor.
func ValidationURL(useSandbox bool) string {
	if useSandbox {
		return SandboxValidationURL
	}
	return LiveValidationURL
}

// Validate posts the reconstructed echo body back to the gateway and
// interprets its reply. The raw reply body is returned alongside the outcome
// for diagnostics.
func (c *Client) Validate(ctx context.Context, echoBody string) (Outcome, string, error) {
	ctx, cancel := internal.WithTimeout(ctx, c.client.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(echoBody))
	if err != nil {
		return OutcomeUnreachable, "", fmt.Errorf("failed to create validation request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	// The gateway rejects validation calls whose Host header does not match
	// the endpoint it received them on.
	req.Host = c.host

	c.logger.Info("validating notification with gateway",
		"url", c.baseURL,
		"body_length", len(echoBody))

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("gateway validation request failed", "error", err, "url", c.baseURL)
		return OutcomeUnreachable, "", fmt.Errorf("gateway validation request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("failed to read gateway response", "error", err)
		return OutcomeUnreachable, "", fmt.Errorf("failed to read gateway response: %w", err)
	}

	reply := string(respBody)
	outcome := interpretReply(reply)

	c.logger.Info("gateway validation completed",
		"outcome", string(outcome),
		"status", resp.StatusCode)

	return outcome, reply, nil
}

func interpretReply(reply string) Outcome {
	switch {
	case len(reply) == 0:
		return OutcomeEmpty
	case reply == replyVerified:
		return OutcomeVerified
	case reply == replyInvalid:
		return OutcomeInvalid
	default:
		return OutcomeIgnored
	}
}
