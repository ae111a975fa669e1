package pkgrouter

import (
	"mime"
	"net/http"
	"strconv"
)

// Attachment is a handler result that is written as raw bytes instead of the
// JSON envelope. Downloads set Inline to false so browsers save the file.
type Attachment struct {
	Filename    string
	ContentType string
	Body        []byte
	Inline      bool
}

func writeAttachment(w http.ResponseWriter, a *Attachment) {
	disposition := "attachment"
	if a.Inline {
		disposition = "inline"
	}
	if a.Filename != "" {
		disposition = mime.FormatMediaType(disposition, map[string]string{"filename": a.Filename})
	}

	contentType := a.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", disposition)
	w.Header().Set("Content-Length", strconv.Itoa(len(a.Body)))
	w.WriteHeader(http.StatusOK)

	//nolint:errcheck // client went away, nothing left to report
	w.Write(a.Body)
}

func middlewareBodyLimit(limit int64) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil && limit > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
