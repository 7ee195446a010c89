package endpoint

import (
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"
)

// AllowMethods rejects requests whose method is not listed with 405 Method
// Not Allowed.
func AllowMethods(methods ...string) Processor {
	allow := strings.Join(methods, ", ")
	return ProcessorFunc(func(w http.ResponseWriter, r *http.Request, next func(w http.ResponseWriter, r *http.Request) error) error {
		if !slices.Contains(methods, r.Method) {
			w.Header().Set("Allow", allow)
			return Error(http.StatusMethodNotAllowed, "method not allowed", nil)
		}
		return next(w, r)
	})
}

// MaxBytes limits the size of request bodies. Reading past the limit fails
// with an *http.MaxBytesError.
func MaxBytes(n int64) Processor {
	return ProcessorFunc(func(w http.ResponseWriter, r *http.Request, next func(w http.ResponseWriter, r *http.Request) error) error {
		if n > 0 && r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, n)
		}
		return next(w, r)
	})
}

// AccessLog logs one line per request once the rest of the chain has run.
func AccessLog(logger *slog.Logger) Processor {
	return ProcessorFunc(func(w http.ResponseWriter, r *http.Request, next func(w http.ResponseWriter, r *http.Request) error) error {
		start := time.Now()
		sw := &StatusWriter{ResponseWriter: w}
		err := next(sw, r)
		status := sw.StatusFor(err)

		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.LogAttrs(r.Context(), level, "http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.Duration("duration", time.Since(start)))
		return err
	})
}

// StatusWriter records the first status code written through it. Processors
// wrap the writer passed to next with it to observe the response status.
type StatusWriter struct {
	http.ResponseWriter
	// Status is zero until the header is written.
	Status int
}

func (sw *StatusWriter) WriteHeader(status int) {
	if sw.Status == 0 {
		sw.Status = status
	}
	sw.ResponseWriter.WriteHeader(status)
}

func (sw *StatusWriter) Write(b []byte) (int, error) {
	if sw.Status == 0 {
		sw.Status = http.StatusOK
	}
	return sw.ResponseWriter.Write(b)
}

func (sw *StatusWriter) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}

// StatusFor returns the status the client receives once the chain returned
// err: the status of an EndpointError, 500 for other errors, otherwise the
// recorded status or 200 if nothing was written.
func (sw *StatusWriter) StatusFor(err error) int {
	if err != nil {
		var ee *EndpointError
		if errors.As(err, &ee) && ee.Status >= 100 {
			return ee.Status
		}
		return http.StatusInternalServerError
	}
	if sw.Status == 0 {
		return http.StatusOK
	}
	return sw.Status
}
