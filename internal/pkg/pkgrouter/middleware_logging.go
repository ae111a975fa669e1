package pkgrouter

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/julienschmidt/httprouter"
)

const maxLoggedBodyBytes = 16 * 1024

//nolint:gochecknoglobals // global for fast reuse
var maskedHeaders = []string{"Authorization", "Cookie"}

func maskHeaders(headers http.Header) http.Header {
	result := headers.Clone()
	for _, key := range maskedHeaders {
		if result.Get(key) != "" {
			result.Set(key, "***")
		}
	}
	return result
}

// recorder captures the status, the byte count and the first
// maxLoggedBodyBytes of a response.
type recorder struct {
	http.ResponseWriter
	status int
	bytes  int
	body   bytes.Buffer
	capped bool
}

func (w *recorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *recorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}

	if room := maxLoggedBodyBytes - w.body.Len(); room < len(p) {
		w.body.Write(p[:max(room, 0)])
		w.capped = true
	} else {
		w.body.Write(p)
	}

	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

func matchedRoutePath(r *http.Request) string {
	if pattern := httprouter.ParamsFromContext(r.Context()).MatchedRoutePath(); pattern != "" {
		return pattern
	}
	return r.URL.Path
}

// requestLogBody describes the request body for the log. Uploads are
// summarized by size and left unread for the handler.
func requestLogBody(r *http.Request) any {
	if strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/") {
		return map[string]any{"multipart": true, "content_length": r.ContentLength}
	}
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}

	//nolint:errcheck // best effort for logging only
	body, _ := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(body))

	return logBody(body, len(body) > maxLoggedBodyBytes)
}

// responseLogBody describes the response body for the log. Downloads are
// summarized by their headers.
func responseLogBody(rec *recorder) any {
	if cd := rec.Header().Get("Content-Disposition"); cd != "" {
		return map[string]any{"disposition": cd, "content_type": rec.Header().Get("Content-Type")}
	}
	return logBody(rec.body.Bytes(), rec.capped)
}

func logBody(body []byte, truncated bool) any {
	if len(body) == 0 {
		return nil
	}
	if len(body) > maxLoggedBodyBytes {
		body = body[:maxLoggedBodyBytes]
	}

	if !truncated {
		var decoded any
		if err := json.Unmarshal(body, &decoded); err == nil {
			return decoded
		}
	}
	for i := 0; truncated && i < utf8.UTFMax-1 && len(body) > 0 && !utf8.Valid(body); i++ {
		body = body[:len(body)-1] // cut inside a rune
	}
	if !utf8.Valid(body) {
		return "<binary body omitted>"
	}
	if truncated {
		return string(body) + "...(truncated)"
	}
	return string(body)
}

func middlewareLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := matchedRoutePath(r)
		start := time.Now()

		slog.InfoContext(
			r.Context(),
			"request received",
			"method", r.Method,
			"route", route,
			"path", r.URL.Path,
			"headers", maskHeaders(r.Header),
			"body", requestLogBody(r),
		)

		rec := &recorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}

		slog.InfoContext(
			r.Context(),
			"response sent",
			"method", r.Method,
			"route", route,
			"path", r.URL.Path,
			"status", status,
			"bytes", rec.bytes,
			"latency_ms", time.Since(start).Milliseconds(),
			"body", responseLogBody(rec),
		)
	})
}
