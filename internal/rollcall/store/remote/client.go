// Package remote implements the directory and ledger contracts against a
// rollcall ledger service over HTTP, so several check-in stations can share
// one ledger without database credentials.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/BrandonDHaskell/rollcall/internal/httpapi"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/types"
)

const (
	FormatJSON     = "json"
	FormatProtobuf = "protobuf"

	contentTypeJSON     = "application/json"
	contentTypeProtobuf = "application/x-protobuf"

	// maxResponseBody caps what the client will read from one response.
	maxResponseBody = 1 << 20
)

// ErrUnexpectedStatus is wrapped by every error caused by a non-2xx reply
// other than the 409 that InsertFact maps to store.ErrConflict.
var ErrUnexpectedStatus = errors.New("unexpected ledger service status")

type Options struct {
	BaseURL string
	// Format is "json" (default) or "protobuf".
	Format string
	// Timeout bounds each request. Zero means no client-side timeout.
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client talks to the ledger service. It satisfies store.DirectoryStore and
// store.LedgerStore.
type Client struct {
	base    *url.URL
	format  string
	timeout time.Duration
	http    *http.Client
}

func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("remote: base url must be absolute, got %q", opts.BaseURL)
	}
	format := strings.ToLower(strings.TrimSpace(opts.Format))
	switch format {
	case "":
		format = FormatJSON
	case FormatJSON, FormatProtobuf:
	default:
		return nil, fmt.Errorf("remote: unsupported format %q", opts.Format)
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{base: base, format: format, timeout: opts.Timeout, http: hc}, nil
}

// do sends one request and decodes the reply into out. The raw status code
// is returned alongside any error so callers can map specific codes.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) (int, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	u := *c.base
	u.Path = c.base.Path + path
	u.RawQuery = query.Encode()

	var body io.Reader
	if in != nil {
		data, err := c.encode(in)
		if err != nil {
			return 0, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", c.contentType())
	if in != nil {
		req.Header.Set("Content-Type", c.contentType())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("%s %s: read body: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var er types.ErrorResponse
		if c.decode(resp.Header.Get("Content-Type"), data, &er) == nil && er.Code != "" {
			return resp.StatusCode, fmt.Errorf("%s %s: %w %d (%s: %s)",
				method, path, ErrUnexpectedStatus, resp.StatusCode, er.Code, er.Message)
		}
		return resp.StatusCode, fmt.Errorf("%s %s: %w %d", method, path, ErrUnexpectedStatus, resp.StatusCode)
	}

	if out != nil {
		if err := c.decode(resp.Header.Get("Content-Type"), data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("%s %s: decode: %w", method, path, err)
		}
	}
	return resp.StatusCode, nil
}

func (c *Client) contentType() string {
	if c.format == FormatProtobuf {
		return contentTypeProtobuf
	}
	return contentTypeJSON
}

func (c *Client) encode(v any) ([]byte, error) {
	if c.format == FormatProtobuf {
		s, err := httpapi.ToStruct(v)
		if err != nil {
			return nil, err
		}
		return proto.Marshal(s)
	}
	return json.Marshal(v)
}

// decode follows the reply's Content-Type rather than the configured format;
// plain-text errors from the mux come back regardless of Accept.
func (c *Client) decode(contentType string, data []byte, dst any) error {
	if strings.HasPrefix(contentType, contentTypeProtobuf) {
		var s structpb.Struct
		if err := proto.Unmarshal(data, &s); err != nil {
			return err
		}
		return httpapi.FromStruct(&s, dst)
	}
	return json.Unmarshal(data, dst)
}
