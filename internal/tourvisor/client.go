// Package tourvisor implements the HTTP client for the upstream tour-search
// API: plain GETs with query parameters, JSON bodies that are sometimes XML,
// and list endpoints whose items carry inconsistently named id fields.
package tourvisor

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alex-user-go/tours/internal/obs"
)

// ErrNoURL is returned when an endpoint URL is not configured.
type ErrNoURL struct {
	Endpoint string
}

func (e *ErrNoURL) Error() string {
	return fmt.Sprintf("%s URL is not configured", e.Endpoint)
}

// TransportError wraps a network or HTTP-status failure talking to the
// upstream.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("upstream request to %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Client talks to the upstream API.
type Client struct {
	hc      *http.Client
	headers map[string]string
	logger  *zap.Logger
}

// NewClient creates a Client with a per-request transport timeout and a set
// of extra headers attached to every request.
func NewClient(timeout time.Duration, headers map[string]string, logger *zap.Logger) *Client {
	return &Client{
		hc:      &http.Client{Timeout: timeout},
		headers: headers,
		logger:  logger,
	}
}

// Get performs a GET with query parameters and decodes the body as a JSON
// object. A body that is not a JSON object is preserved under "raw_text" so
// callers can still inspect it.
func (c *Client) Get(ctx context.Context, rawURL string, params map[string]string) (map[string]any, error) {
	body, err := c.fetch(ctx, rawURL, params)
	if err != nil {
		return nil, err
	}
	var data map[string]any
	if jsonErr := json.Unmarshal(body, &data); jsonErr != nil {
		return map[string]any{"raw_text": string(body)}, nil
	}
	return data, nil
}

// FetchList retrieves a reference list and maps lowercased trimmed names to
// integer ids. The endpoint may answer with JSON ({keyName: [{name, idField}]})
// or with XML (repeated <keyName> elements holding <name> and id children).
// idField takes priority over the generic "id" key in both shapes.
func (c *Client) FetchList(ctx context.Context, rawURL, keyName, idField string, params map[string]string) (map[string]int, error) {
	body, err := c.fetch(ctx, rawURL, params)
	if err != nil {
		return nil, err
	}

	if out, ok := parseJSONList(body, keyName, idField); ok {
		return out, nil
	}
	if out, ok := parseXMLList(body, keyName, idField); ok {
		return out, nil
	}
	return map[string]int{}, nil
}

func (c *Client) fetch(ctx context.Context, rawURL string, params map[string]string) ([]byte, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, &ErrNoURL{Endpoint: "upstream"}
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: err}
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: err}
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		obs.UpstreamErrors.WithLabelValues(hostOf(rawURL)).Inc()
		return nil, &TransportError{URL: rawURL, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		obs.UpstreamErrors.WithLabelValues(hostOf(rawURL)).Inc()
		return nil, &TransportError{URL: rawURL, Err: err}
	}
	if resp.StatusCode >= 400 {
		obs.UpstreamErrors.WithLabelValues(hostOf(rawURL)).Inc()
		c.logger.Warn("upstream returned error status",
			zap.String("url", rawURL),
			zap.Int("status", resp.StatusCode))
		return nil, &TransportError{URL: rawURL, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	return body, nil
}

func parseJSONList(body []byte, keyName, idField string) (map[string]int, bool) {
	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, false
	}
	items, ok := data[keyName].([]any)
	if !ok {
		return nil, false
	}
	out := map[string]int{}
	for _, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		name := ToStr(item["name"])
		id, idOK := ToInt(item[idField])
		if !idOK {
			id, idOK = ToInt(item["id"])
		}
		if name == "" || !idOK {
			continue
		}
		out[strings.ToLower(strings.TrimSpace(name))] = id
	}
	return out, true
}

// xmlListNode is one repeated element of an XML reference list; only the
// child elements we care about are mapped, the rest is ignored.
type xmlListNode struct {
	Name     string           `xml:"name"`
	ID       string           `xml:"id"`
	Children []xmlGenericNode `xml:",any"`
}

type xmlGenericNode struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

func (n xmlListNode) idValue(idField string) string {
	if idField != "id" {
		for _, ch := range n.Children {
			if ch.XMLName.Local == idField && strings.TrimSpace(ch.Value) != "" {
				return ch.Value
			}
		}
	}
	return n.ID
}

func parseXMLList(body []byte, keyName, idField string) (map[string]int, bool) {
	dec := xml.NewDecoder(strings.NewReader(string(body)))
	out := map[string]int{}
	seenRoot := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if !seenRoot {
			seenRoot = true
			if start.Name.Local == keyName {
				// Root itself is the list element name; unusual, skip into it.
				continue
			}
			continue
		}
		if start.Name.Local != keyName {
			continue
		}
		var node xmlListNode
		if err := dec.DecodeElement(&node, &start); err != nil {
			continue
		}
		id, idOK := ToInt(node.idValue(idField))
		name := strings.ToLower(strings.TrimSpace(node.Name))
		if name == "" || !idOK {
			continue
		}
		out[name] = id
	}
	if !seenRoot {
		return nil, false
	}
	return out, true
}

func hostOf(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		return u.Host
	}
	return "unknown"
}
