package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/donut/pkg/cache"
	"github.com/matzehuels/donut/pkg/dataview"
	"github.com/matzehuels/donut/pkg/pipeline"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s := newServer(pipeline.NewRunner(fc, nil, nil), log.New(io.Discard))
	srv := httptest.NewServer(s.routes(0))
	t.Cleanup(srv.Close)
	return srv
}

func salesBody(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	res := dataview.Categorical("Region", []string{"North", "South", "East"}, "Sales", []float64{50, 30, 20}, nil)
	if err := dataview.WriteJSON(res, &buf); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func post(t *testing.T, url, contentType string, body []byte) *http.Response {
	t.Helper()
	resp, err := http.Post(url, contentType, bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestServeHealth(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
	if _, err := uuid.Parse(resp.Header.Get(requestIDHeader)); err != nil {
		t.Errorf("request id %q is not a uuid", resp.Header.Get(requestIDHeader))
	}
}

func TestServeRequestIDPassthrough(t *testing.T) {
	srv := newTestServer(t)
	id := uuid.NewString()
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	req.Header.Set(requestIDHeader, id)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(requestIDHeader); got != id {
		t.Errorf("request id = %q, want %q", got, id)
	}

	req.Header.Set(requestIDHeader, "not-a-uuid")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(requestIDHeader); got == "not-a-uuid" {
		t.Error("invalid incoming ids should be replaced")
	}
}

func TestServeRender(t *testing.T) {
	srv := newTestServer(t)
	body := salesBody(t)

	tests := []struct {
		query       string
		contentType string
		prefix      string
	}{
		{"", "image/svg+xml", "<svg"},
		{"?format=svg&width=300&height=300&pie=true&select=cat:North", "image/svg+xml", "<svg"},
		{"?format=png&supersample=2", "image/png", "\x89PNG"},
		{"?format=webp", "image/webp", "RIFF"},
		{"?format=json&interactive=true&focus=1", "application/json", "{"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp := post(t, srv.URL+"/v1/render"+tt.query, "application/json", body)
			if resp.StatusCode != http.StatusOK {
				msg, _ := io.ReadAll(resp.Body)
				t.Fatalf("status = %d: %s", resp.StatusCode, msg)
			}
			if got := resp.Header.Get("Content-Type"); got != tt.contentType {
				t.Errorf("Content-Type = %q, want %q", got, tt.contentType)
			}
			if resp.Header.Get("X-Donut-Slices") != "3" {
				t.Errorf("X-Donut-Slices = %q", resp.Header.Get("X-Donut-Slices"))
			}
			data, _ := io.ReadAll(resp.Body)
			if !bytes.HasPrefix(bytes.TrimSpace(data), []byte(tt.prefix)) {
				t.Errorf("body starts with %q, want %q", data[:min(len(data), 8)], tt.prefix)
			}
		})
	}
}

func TestServeRenderCache(t *testing.T) {
	srv := newTestServer(t)
	body := salesBody(t)

	first := post(t, srv.URL+"/v1/render", "application/json", body)
	second := post(t, srv.URL+"/v1/render", "application/json", body)
	if first.Header.Get("X-Cache") != "miss" || second.Header.Get("X-Cache") != "hit" {
		t.Errorf("X-Cache = %q then %q, want miss then hit", first.Header.Get("X-Cache"), second.Header.Get("X-Cache"))
	}
	if first.Header.Get("ETag") != second.Header.Get("ETag") {
		t.Error("the same chart should keep its ETag")
	}
}

func TestServeConvert(t *testing.T) {
	srv := newTestServer(t)
	resp := post(t, srv.URL+"/v1/convert", "application/json", salesBody(t))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var frame struct {
		Slices []struct {
			ID    string  `json:"id"`
			Value float64 `json:"value"`
		} `json:"slices"`
		Total float64 `json:"total"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&frame); err != nil {
		t.Fatal(err)
	}
	if len(frame.Slices) != 3 || frame.Slices[0].ID != "cat:North" || frame.Total != 100 {
		t.Errorf("frame = %+v", frame)
	}
}

func TestServeEnvelopeSettings(t *testing.T) {
	srv := newTestServer(t)
	env := map[string]json.RawMessage{
		"dataset":  salesBody(t),
		"settings": json.RawMessage(`{"data_point": {"fill": {"cat:North": "#123456"}}}`),
	}
	body, _ := json.Marshal(env)
	resp := post(t, srv.URL+"/v1/convert", "application/json", body)
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d: %s", resp.StatusCode, msg)
	}
	data, _ := io.ReadAll(resp.Body)
	if !bytes.Contains(data, []byte("#123456")) {
		t.Error("fill override from the envelope should color North")
	}
}

func TestServeTOML(t *testing.T) {
	srv := newTestServer(t)
	doc := `[category]
name = "Region"
members = [{ label = "North" }, { label = "South" }]

[[measures]]
name = "Sales"
values = [1.0, 2.0]
`
	resp := post(t, srv.URL+"/v1/convert", "application/toml", []byte(doc))
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d: %s", resp.StatusCode, msg)
	}
}

func TestServeErrors(t *testing.T) {
	srv := newTestServer(t)
	body := salesBody(t)

	tests := []struct {
		name   string
		path   string
		body   []byte
		status int
		code   string
	}{
		{"bad format", "/v1/render?format=gif", body, http.StatusBadRequest, "INVALID_FORMAT"},
		{"bad width", "/v1/render?width=wide", body, http.StatusBadRequest, "INVALID_VIEWPORT"},
		{"negative width", "/v1/render?width=-4", body, http.StatusBadRequest, "INVALID_VIEWPORT"},
		{"bad color", "/v1/render?background=red", body, http.StatusBadRequest, "INVALID_COLOR"},
		{"bad dataset", "/v1/convert", []byte("{not json"), http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, srv.URL+tt.path, "application/json", tt.body)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			var eb errorBody
			if err := json.NewDecoder(resp.Body).Decode(&eb); err != nil {
				t.Fatal(err)
			}
			if tt.code != "" && string(eb.Error.Code) != tt.code {
				t.Errorf("code = %s, want %s", eb.Error.Code, tt.code)
			}
			if eb.RequestID == "" || eb.Error.Message == "" {
				t.Errorf("error body = %+v", eb)
			}
		})
	}

	resp, err := http.Get(srv.URL + "/v1/render")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET /v1/render status = %d", resp.StatusCode)
	}
}

func TestDisplayAddr(t *testing.T) {
	if got := displayAddr(":8080"); got != "localhost:8080" {
		t.Errorf("displayAddr = %q", got)
	}
	if got := displayAddr("0.0.0.0:9000"); !strings.HasPrefix(got, "0.0.0.0") {
		t.Errorf("displayAddr = %q", got)
	}
}
