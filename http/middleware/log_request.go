package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/xy-planning-network/trailhead"
)

// A LogRequestRecord is the access log entry LogRequest writes for each request.
type LogRequestRecord struct {
	BodySize       int    `json:"bodySize"`
	Host           string `json:"host"`
	ID             string `json:"requestId"`
	IPAddr         string `json:"ipAddr,omitempty"`
	Method         string `json:"method"`
	Path           string `json:"path"`
	Protocol       string `json:"protocol"`
	Referrer       string `json:"referrer,omitempty"`
	ReqContentType string `json:"reqContentType,omitempty"`
	Scheme         string `json:"scheme,omitempty"`
	Status         int    `json:"status"`
	URI            string `json:"uri"`
	UserAgent      string `json:"userAgent,omitempty"`
}

func (rec LogRequestRecord) attrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.Int("bodySize", rec.BodySize),
		slog.String("host", rec.Host),
		slog.String("requestId", rec.ID),
		slog.String("method", rec.Method),
		slog.String("path", rec.Path),
		slog.String("protocol", rec.Protocol),
		slog.Int("status", rec.Status),
		slog.String("uri", rec.URI),
	}

	for _, opt := range []struct{ key, val string }{
		{"ipAddr", rec.IPAddr},
		{"referrer", rec.Referrer},
		{"reqContentType", rec.ReqContentType},
		{"scheme", rec.Scheme},
		{"userAgent", rec.UserAgent},
	} {
		if opt.val != "" {
			attrs = append(attrs, slog.String(opt.key, opt.val))
		}
	}

	return attrs
}

// LogRequest writes a LogRequestRecord through l once the wrapped handler finishes.
// Records for 5xx responses log at error level; everything else at info.
//
// LogRequest masks the values of [trailhead.MaskedKeys] in the query string.
//
// If l is nil, NoopAdapter returns and this middleware does nothing.
func LogRequest(l *slog.Logger) Adapter {
	if l == nil {
		return NoopAdapter
	}

	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w}
			h.ServeHTTP(sw, r)

			q := r.URL.Query()
			trailhead.MaskAll(q)

			uri := r.URL.Path
			if query := q.Encode(); query != "" {
				uri += "?" + query
			}

			rec := LogRequestRecord{
				BodySize:       sw.size,
				Host:           r.Host,
				Method:         r.Method,
				Path:           r.URL.Path,
				Protocol:       r.Proto,
				Referrer:       r.Header.Get("Referrer"),
				ReqContentType: r.Header.Get("Content-Type"),
				Scheme:         r.URL.Scheme,
				Status:         sw.status(),
				URI:            uri,
				UserAgent:      r.UserAgent(),
			}

			if id, ok := r.Context().Value(trailhead.RequestIDKey).(string); ok {
				rec.ID = id
			}

			if ip, ok := r.Context().Value(trailhead.IpAddrKey).(string); ok {
				rec.IPAddr = ip
			}

			level := slog.LevelInfo
			if rec.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}

			attrs := append(rec.attrs(),
				slog.Attr{Key: trailhead.LogKindKey, Value: trailhead.HTTPLogKind},
				slog.Duration("duration", time.Since(start)),
			)
			l.LogAttrs(context.Background(), level, "request", attrs...)
		})
	}
}

// A statusWriter remembers the status code and body size written through it.
type statusWriter struct {
	http.ResponseWriter
	code int
	size int
}

func (sw *statusWriter) WriteHeader(code int) {
	if sw.code == 0 {
		sw.code = code
	}

	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	if sw.code == 0 {
		sw.code = http.StatusOK
	}

	n, err := sw.ResponseWriter.Write(b)
	sw.size += n
	return n, err
}

func (sw *statusWriter) status() int {
	if sw.code == 0 {
		return http.StatusOK
	}

	return sw.code
}

// Unwrap lets [http.ResponseController] reach the underlying writer.
func (sw *statusWriter) Unwrap() http.ResponseWriter { return sw.ResponseWriter }
