package apify

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"
)

type mockTransport struct {
	statusCode int
	body       string
	err        error

	lastReq *http.Request
}

func (m *mockTransport) Do(req *http.Request) (*http.Response, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &http.Response{
		StatusCode: m.statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(m.body)),
	}, nil
}

func TestStartRun(t *testing.T) {
	mt := &mockTransport{statusCode: 201, body: `{"data":{"id":"abc123","status":"READY"}}`}
	c := NewWithClient("tok", "http://apify.test/v2", mt)

	run, err := c.StartRun(context.Background(), "owner~actor", map[string]any{"limit": 25})
	if err != nil {
		t.Fatalf("StartRun returned error: %v", err)
	}
	if run.ID != "abc123" || run.Status != StatusReady {
		t.Errorf("run = %+v, want id=abc123 status=READY", run)
	}

	if got := mt.lastReq.URL.Query().Get("token"); got != "tok" {
		t.Errorf("token query param = %q, want tok", got)
	}
	if mt.lastReq.Method != http.MethodPost {
		t.Errorf("method = %s, want POST", mt.lastReq.Method)
	}
}

func TestStartRun_MissingRunID(t *testing.T) {
	mt := &mockTransport{statusCode: 201, body: `{"data":{}}`}
	c := NewWithClient("tok", "http://apify.test/v2", mt)

	if _, err := c.StartRun(context.Background(), "owner~actor", nil); err == nil {
		t.Error("want error for response without run id, got nil")
	}
}

func TestGetRun_HTTPError(t *testing.T) {
	mt := &mockTransport{statusCode: 401, body: `{"error":"bad token"}`}
	c := NewWithClient("tok", "http://apify.test/v2", mt)

	if _, err := c.GetRun(context.Background(), "abc123"); err == nil {
		t.Error("want error for 401 response, got nil")
	}
}

func TestDatasetItems(t *testing.T) {
	mt := &mockTransport{statusCode: 200, body: `[{"a":1},{"b":2},{"c":3}]`}
	c := NewWithClient("tok", "http://apify.test/v2", mt)

	items, err := c.DatasetItems(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("DatasetItems returned error: %v", err)
	}
	if len(items) != 3 {
		t.Errorf("got %d items, want 3", len(items))
	}
}

func TestDatasetItems_MalformedBody(t *testing.T) {
	mt := &mockTransport{statusCode: 200, body: `{"not":"an array"}`}
	c := NewWithClient("tok", "http://apify.test/v2", mt)

	if _, err := c.DatasetItems(context.Background(), "abc123"); err == nil {
		t.Error("want decode error, got nil")
	}
}
