package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Entry is one coffee body as written in the seed file.
type Entry map[string]any

func (e Entry) name() string {
	if v, ok := e["name"].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// LoadFile reads a YAML seed file holding either a list of coffees or
// {coffees: [...]}.
func LoadFile(path string) ([]Entry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return Parse(b)
}

func Parse(b []byte) ([]Entry, error) {
	var data any
	if err := yaml.Unmarshal(b, &data); err != nil {
		return nil, errors.Wrap(err, "parse seed file")
	}

	var items []any
	switch v := data.(type) {
	case []any:
		items = v
	case map[string]any:
		if arr, ok := v["coffees"].([]any); ok {
			items = arr
		}
	}

	out := make([]Entry, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			out = append(out, Entry(m))
		}
	}
	return out, nil
}

// Result counts what a seeding run did.
type Result struct {
	Added   int
	Failed  int
	Skipped int
}

// Client posts seed entries to a running API.
type Client struct {
	API  string
	HTTP *http.Client
	Log  logrus.FieldLogger
}

func NewClient(api string, log logrus.FieldLogger) *Client {
	return &Client{
		API:  strings.TrimRight(api, "/"),
		HTTP: &http.Client{Timeout: 15 * time.Second, Transport: &http.Transport{Proxy: http.ProxyFromEnvironment}},
		Log:  log,
	}
}

// Run posts every entry. Entries without a name are skipped; anything but
// 201 Created counts as a failure. It stops early only if ctx is done.
func (c *Client) Run(ctx context.Context, entries []Entry) (Result, error) {
	var res Result
	for _, e := range entries {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		name := e.name()
		if name == "" {
			c.Log.WithField("entry", map[string]any(e)).Warn("skipping entry without a name")
			res.Skipped++
			continue
		}

		id, err := c.post(ctx, e)
		if err != nil {
			res.Failed++
			c.Log.WithError(err).WithField("name", name).Error("failed to add coffee")
			continue
		}
		res.Added++
		c.Log.WithFields(logrus.Fields{"name": name, "coffee_id": id}).Info("added coffee")
	}
	return res, nil
}

func (c *Client) post(ctx context.Context, e Entry) (int64, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return 0, errors.Wrap(err, "encode entry")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.API+"/coffees", bytes.NewReader(b))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return 0, errors.Errorf("status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var out struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, errors.Wrap(err, "decode response")
	}
	return out.ID, nil
}
