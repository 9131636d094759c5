// Package restapi holds the request and response helpers shared by the REST API clients.
package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/estatehub/admin-gateway/internal/gwerrors"
	"github.com/estatehub/admin-gateway/internal/models"
)

// maxBodyBytes bounds how much of a response is read into memory.
const maxBodyBytes int64 = 10 << 20

// Envelope is the wrapper every REST API response uses.
type Envelope struct {
	OK         bool               `json:"ok"`
	Data       json.RawMessage    `json:"data,omitempty"`
	Error      string             `json:"error,omitempty"`
	Message    string             `json:"message,omitempty"`
	Pagination *models.Pagination `json:"pagination,omitempty"`
}

// NewJSONRequest builds a request with a JSON encoded body. A nil body sends no payload.
// The body can be replayed through GetBody.
func NewJSONRequest(ctx context.Context, method, url string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// ReadBody reads and closes the response body.
func ReadBody(res *http.Response) ([]byte, error) {
	defer res.Body.Close()
	return io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
}

// Decode reads the response and unmarshals the whole body into out, which may be nil.
// Error statuses and envelopes with ok=false become *gwerrors.APIError.
func Decode(res *http.Response, out any) error {
	body, err := ReadBody(res)
	if err != nil {
		return err
	}
	if res.StatusCode >= http.StatusBadRequest {
		return gwerrors.NewAPIError(res.StatusCode, body)
	}
	var probe struct {
		OK *bool `json:"ok"`
	}
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &probe); err != nil {
			return fmt.Errorf("cannot parse the response from %s: %w", res.Request.URL.Path, err)
		}
	}
	if probe.OK != nil && !*probe.OK {
		return gwerrors.NewAPIError(res.StatusCode, body)
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

// DecodeData unwraps the envelope and unmarshals its data field into out.
func DecodeData(res *http.Response, out any) (Envelope, error) {
	var envelope Envelope
	err := Decode(res, &envelope)
	if err != nil {
		return Envelope{}, err
	}
	if out != nil && len(envelope.Data) > 0 {
		err = json.Unmarshal(envelope.Data, out)
		if err != nil {
			return Envelope{}, err
		}
	}
	return envelope, nil
}
