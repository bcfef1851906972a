package linguatests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/linguasigna/integration-harness/framework/suite"
)

// serviceClient sends JSON requests to one service on behalf of a test case. Transport errors
// terminate the case; HTTP error statuses are returned to the caller, since some cases expect them.
type serviceClient struct {
	name    string
	baseURL string
	client  *http.Client
}

type serviceResponse struct {
	status int
	body   ldvalue.Value
	raw    []byte
}

func (c serviceClient) get(t *suite.T, path string) serviceResponse {
	return c.do(t, "GET", path, nil)
}

func (c serviceClient) post(t *suite.T, path string, params interface{}) serviceResponse {
	return c.do(t, "POST", path, params)
}

func (c serviceClient) do(t *suite.T, method, path string, params interface{}) serviceResponse {
	t.Helper()
	if c.baseURL == "" {
		t.Fatalf("no URL is configured for the %s service", c.name)
	}
	url := strings.TrimSuffix(c.baseURL, "/") + path

	var bodyReader io.Reader
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			t.Fatalf("could not encode request for %s %s: %s", method, url, err)
		}
		bodyReader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(t.Context(), method, url, bodyReader)
	if err != nil {
		t.Fatalf("could not create request for %s %s: %s", method, url, err)
	}
	if params != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	t.Debug("%s %s", method, url)
	resp, err := c.client.Do(req)
	if err != nil {
		t.Fatalf("%s request to %s failed: %s", c.name, url, err)
	}
	raw, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		t.Fatalf("could not read %s response from %s: %s", c.name, url, err)
	}
	t.Debug("%s %s returned %d: %s", method, url, resp.StatusCode, string(raw))

	return serviceResponse{status: resp.StatusCode, body: ldvalue.Parse(raw), raw: raw}
}

// errorDetail returns the service's own description of a failed request, if it sent one.
func (r serviceResponse) errorDetail() string {
	for _, key := range []string{"error", "message"} {
		if s := r.body.GetByKey(key).StringValue(); s != "" {
			return s
		}
	}
	return ""
}

// statusError describes an unexpected HTTP status in the form used for failure messages, for
// instance "translation request returned HTTP 400: Unsupported language: fr".
func (r serviceResponse) statusError(what string) string {
	message := fmt.Sprintf("%s request returned HTTP %d", what, r.status)
	if detail := r.errorDetail(); detail != "" {
		message += ": " + detail
	}
	return message
}

// requireStatusOK terminates the case unless the response status is 200.
func (r serviceResponse) requireStatusOK(t *suite.T, what string) {
	t.Helper()
	if r.status != http.StatusOK {
		t.Fatalf("%s", r.statusError(what))
	}
}

// requireSuccess terminates the case unless the response body has "success": true.
func (r serviceResponse) requireSuccess(t *suite.T, what string) {
	t.Helper()
	if !r.body.GetByKey("success").BoolValue() {
		if detail := r.errorDetail(); detail != "" {
			t.Fatalf("%s was not successful: %s", what, detail)
		}
		t.Fatalf("%s was not successful", what)
	}
}

// requireString returns a string property found by following the given keys, or terminates the
// case with an "invalid response structure" message if it is missing or empty.
func (r serviceResponse) requireString(t *suite.T, what string, keys ...string) string {
	t.Helper()
	v := r.body
	for _, k := range keys {
		v = v.GetByKey(k)
	}
	if v.StringValue() == "" {
		t.Fatalf("invalid %s response structure: missing %s", what, strings.Join(keys, "."))
	}
	return v.StringValue()
}
