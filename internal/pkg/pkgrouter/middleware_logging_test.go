package pkgrouter

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	return &buf
}

func logRecords(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var records []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("bad log line %q: %v", line, err)
		}
		records = append(records, rec)
	}
	return records
}

func TestMaskHeaders(t *testing.T) {
	headers := http.Header{}
	headers.Set("Authorization", "Bearer secret")
	headers.Set("Cookie", "sid=1")
	headers.Set("X-Correlation-ID", "cid-1")

	masked := maskHeaders(headers)
	if masked.Get("Authorization") != "***" || masked.Get("Cookie") != "***" {
		t.Fatalf("expected masked credentials, got %v", masked)
	}
	if got := masked.Get("X-Correlation-ID"); got != "cid-1" {
		t.Fatalf("expected correlation id to stay, got %q", got)
	}
	if got := headers.Get("Authorization"); got != "Bearer secret" {
		t.Fatalf("expected original headers unchanged, got %q", got)
	}
	if _, ok := maskHeaders(http.Header{})["Cookie"]; ok {
		t.Fatalf("absent headers must not be added")
	}
}

func TestLogBody(t *testing.T) {
	if got := logBody(nil, false); got != nil {
		t.Fatalf("expected nil for empty body, got %v", got)
	}

	decoded, ok := logBody([]byte(`{"columns":["a","b"]}`), false).(map[string]any)
	if !ok || len(decoded["columns"].([]any)) != 2 {
		t.Fatalf("expected decoded json, got %v", decoded)
	}

	if got := logBody([]byte{0xff, 0xfe, 0xfd}, false); got != "<binary body omitted>" {
		t.Fatalf("expected binary omission, got %v", got)
	}

	if got := logBody([]byte("id,amount"), true); got != "id,amount...(truncated)" {
		t.Fatalf("unexpected truncated body: %v", got)
	}

	// "é" split after its first byte
	if got := logBody([]byte("caf\xc3"), true); got != "caf...(truncated)" {
		t.Fatalf("unexpected body cut inside a rune: %v", got)
	}
}

func TestMiddlewareLoggingLeavesUploadUnread(t *testing.T) {
	buf := captureLogs(t)

	payload := "--b\r\nContent-Disposition: form-data; name=\"file\"; filename=\"data.csv\"\r\n\r\nid\n1\n\r\n--b--\r\n"
	var seen string
	h := middlewareLogging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		seen = string(body)
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/sessions/s1/files", strings.NewReader(payload))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=b")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if seen != payload {
		t.Fatalf("handler got a different body: %q", seen)
	}

	records := logRecords(t, buf)
	if len(records) != 2 {
		t.Fatalf("expected request and response records, got %d", len(records))
	}
	body, _ := records[0]["body"].(map[string]any)
	if body["multipart"] != true {
		t.Fatalf("expected multipart summary, got %v", records[0]["body"])
	}
	if records[1]["status"] != float64(http.StatusCreated) {
		t.Fatalf("unexpected logged status: %v", records[1]["status"])
	}
}

func TestMiddlewareLoggingReplaysJSONBody(t *testing.T) {
	buf := captureLogs(t)

	var seen string
	h := middlewareLogging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		seen = string(body)
		w.Header().Set("Content-Disposition", "attachment; filename=data.csv")
		_, _ = w.Write([]byte("id\n1\n"))
	}))

	req := httptest.NewRequest(http.MethodPut, "/sessions/s1/files/data.csv/columns", strings.NewReader(`{"columns":["id"]}`))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if seen != `{"columns":["id"]}` {
		t.Fatalf("handler got a different body: %q", seen)
	}

	records := logRecords(t, buf)
	resp, _ := records[1]["body"].(map[string]any)
	if resp["disposition"] != "attachment; filename=data.csv" {
		t.Fatalf("expected download summary, got %v", records[1]["body"])
	}
	if records[1]["bytes"] != float64(5) {
		t.Fatalf("unexpected logged size: %v", records[1]["bytes"])
	}
}
