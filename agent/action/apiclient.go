package action

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// placeholderRe matches {name} placeholders in endpoint templates.
var placeholderRe = regexp.MustCompile(`\{(\w+)\}`)

// APIClient talks to the manager control plane. Authentication is a
// pre-shared key sent as a query parameter; on rejection the request
// is retried once with the key also in the Authorization header.
type APIClient struct {
	base string
	key  string
	vmID string
	http *resty.Client
	log  *slog.Logger
}

// NewAPIClient creates a control-plane client.
// Parameters:
//   - baseURL: Absolute base URL of the control plane
//   - apiKey: Pre-shared credential
//   - vmID: Identifier of this VM
//   - log: Logger; nil falls back to slog.Default()
//
// Returns:
//   - *APIClient: The initialized client
func NewAPIClient(baseURL, apiKey, vmID string, log *slog.Logger) *APIClient {
	if log == nil {
		log = slog.Default()
	}

	client := resty.New().
		SetTimeout(30 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "vmagent/1.0")

	return &APIClient{
		base: strings.TrimRight(baseURL, "/"),
		key:  apiKey,
		vmID: vmID,
		http: client,
		log:  log,
	}
}

// GetData expands the endpoint template with {VMIdentifier} and the
// given context, appends the API key, and fetches the JSON object.
// Parameters:
//   - endpointTemplate: URL template with {placeholders}
//   - contextData: Values for the placeholders, usually event captures
//
// Returns:
//   - map[string]any: Decoded JSON object
//   - error: Any request, status or decode error
func (c *APIClient) GetData(endpointTemplate string, contextData map[string]string) (map[string]any, error) {
	context := map[string]string{"VMIdentifier": c.vmID}
	for k, v := range contextData {
		context[k] = v
	}

	endpoint := expandTemplate(endpointTemplate, context)
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}

	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	requestURL := c.base + endpoint + sep + "api_key=" + url.QueryEscape(c.key)

	c.log.Info("control-plane request", "url", requestURL)

	// First attempt authenticates with the query parameter only.
	resp, err := c.http.R().Get(requestURL)
	if err != nil {
		return nil, fmt.Errorf("control-plane request: %w", err)
	}

	if !resp.IsSuccess() {
		c.log.Warn("query-parameter auth rejected, retrying with header",
			"status", resp.StatusCode())

		resp, err = c.http.R().SetHeader("Authorization", c.key).Get(requestURL)
		if err != nil {
			return nil, fmt.Errorf("control-plane request with header auth: %w", err)
		}
		if !resp.IsSuccess() {
			return nil, fmt.Errorf("control plane returned status %d", resp.StatusCode())
		}
	}

	var data map[string]any
	if err := json.Unmarshal(resp.Body(), &data); err != nil {
		return nil, fmt.Errorf("decoding control-plane response: %w", err)
	}
	return data, nil
}

// TestAPIKey checks the credential against the account-config
// endpoint. A 2xx or a 404 for the probe account proves a valid key;
// a 401 proves an invalid one.
// Returns:
//   - bool: Whether the key is valid
func (c *APIClient) TestAPIKey() bool {
	testURL := fmt.Sprintf("%s/windows-vm-agent/account-config?vm_id=%s&account_id=test&api_key=%s",
		c.base, url.QueryEscape(c.vmID), url.QueryEscape(c.key))

	resp, err := c.http.R().Get(testURL)
	if err != nil {
		c.log.Error("api key test failed", "err", err)
		return false
	}

	switch {
	case resp.StatusCode() == 401:
		c.log.Error("api key rejected", "status", resp.StatusCode())
		return false
	case resp.IsSuccess(), resp.StatusCode() == 404:
		return true
	default:
		c.log.Warn("unexpected status during api key test", "status", resp.StatusCode())
		return false
	}
}

// expandTemplate substitutes {name} placeholders with URL-quoted
// values from the context. Unknown placeholders stay literal.
// Parameters:
//   - template: Template string with {placeholders}
//   - context: Substitution values
//
// Returns:
//   - string: Expanded string
func expandTemplate(template string, context map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(template, func(match string) string {
		name := match[1 : len(match)-1]
		if value, ok := context[name]; ok {
			return url.QueryEscape(value)
		}
		return match
	})
}
