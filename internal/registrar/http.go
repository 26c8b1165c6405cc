package registrar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/siteforge/internal/errdefs"
	"github.com/imamik/siteforge/internal/util/retry"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	maxResponseBytes   = 10 << 20
)

// restClient is the JSON-over-HTTP plumbing shared by REST registrars.
type restClient struct {
	provider   string
	baseURL    string
	authorize  func(*http.Request)
	httpClient *http.Client
	log        logr.Logger
	read       retry.Policy
	mutation   retry.Policy
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Fields  []struct {
		Path    string `json:"path"`
		Message string `json:"message"`
	} `json:"fields"`
	Errors map[string][]string `json:"errors"`
}

// get performs a GET under the read retry policy.
func (c *restClient) get(ctx context.Context, path string, query url.Values, out any) error {
	return retry.Execute(ctx, c.read, func(ctx context.Context) error {
		return c.do(ctx, http.MethodGet, path, query, nil, out)
	}, nil)
}

// post performs a POST under the given retry policy.
func (c *restClient) post(ctx context.Context, policy retry.Policy, path string, in, out any) error {
	return retry.Execute(ctx, policy, func(ctx context.Context) error {
		return c.do(ctx, http.MethodPost, path, nil, in, out)
	}, nil)
}

func (c *restClient) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	op := fmt.Sprintf("%s %s %s", c.provider, method, path)

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return errdefs.Wrap(errdefs.KindValidation, op, fmt.Errorf("encode request: %w", err))
		}
		body = bytes.NewReader(payload)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	c.log.V(1).Info("registrar request", "provider", c.provider, "method", method, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return errdefs.Wrap(errdefs.KindNetwork, op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return errdefs.Wrap(errdefs.KindNetwork, op, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errdefs.HTTPError(op, resp.StatusCode, errorMessage(data))
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: parse response: %w (status %d)", op, err, resp.StatusCode)
	}
	return nil
}

func errorMessage(data []byte) string {
	var e errorBody
	if err := json.Unmarshal(data, &e); err != nil {
		return strings.TrimSpace(string(data))
	}

	msg := e.Message
	var details []string
	for _, f := range e.Fields {
		details = append(details, f.Path+": "+f.Message)
	}
	for _, field := range slices.Sorted(maps.Keys(e.Errors)) {
		details = append(details, field+": "+strings.Join(e.Errors[field], ", "))
	}
	if len(details) > 0 {
		msg += " (" + strings.Join(details, "; ") + ")"
	}
	if msg == "" {
		msg = e.Code
	}
	return msg
}

func defaultHTTPClient(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return &http.Client{Timeout: defaultHTTPTimeout}
}
