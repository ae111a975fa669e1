package pkgrouter

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
)

//nolint:contextcheck // the panic is logged against the request context
func middlewareRecoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			//nolint:err113,errorlint // this must compare directly
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}

			slog.ErrorContext(r.Context(), "panic on the server",
				"because", rvr,
				"method", r.Method,
				"path", r.URL.Path,
				"stack", stackFrames(debug.Stack()),
			)

			if r.Header.Get("Connection") == "Upgrade" {
				return
			}
			writeJSON(w, map[string]string{"message": "Internal server error"}, http.StatusInternalServerError)
		}()

		next.ServeHTTP(w, r)
	})
}

// stackFrames keeps the "internal/<pkg>/<file>.go:<line>" locations of a
// debug.Stack dump, innermost first.
func stackFrames(stack []byte) []string {
	var frames []string
	for _, line := range strings.Split(string(stack), "\n") {
		line = strings.TrimSpace(line)
		idx := strings.Index(line, ".go:")
		if idx == -1 {
			continue
		}
		if end := strings.IndexByte(line[idx:], ' '); end != -1 {
			line = line[:idx+end]
		}
		if i := strings.Index(line, "/internal/"); i != -1 {
			frames = append(frames, line[i+1:])
		}
	}
	return frames
}
