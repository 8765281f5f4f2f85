package logging

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// RequestLogger returns chi access-log middleware writing through logger.
func RequestLogger(logger logrus.FieldLogger) func(http.Handler) http.Handler {
	return chimw.RequestLogger(&requestFormatter{log: logger})
}

type requestFormatter struct {
	log logrus.FieldLogger
}

func (f *requestFormatter) NewLogEntry(r *http.Request) chimw.LogEntry {
	fields := logrus.Fields{
		"method":      r.Method,
		"path":        r.URL.Path,
		"remote_addr": r.RemoteAddr,
	}
	if reqID := chimw.GetReqID(r.Context()); reqID != "" {
		fields["request_id"] = reqID
	}
	return &requestEntry{log: f.log.WithFields(fields)}
}

type requestEntry struct {
	log logrus.FieldLogger
}

func (e *requestEntry) Write(status, bytes int, _ http.Header, elapsed time.Duration, _ interface{}) {
	e.log.WithFields(logrus.Fields{
		"status":     status,
		"bytes":      bytes,
		"elapsed_ms": elapsed.Milliseconds(),
	}).Info("request completed")
}

func (e *requestEntry) Panic(v interface{}, stack []byte) {
	e.log.WithFields(logrus.Fields{
		"panic": v,
		"stack": string(stack),
	}).Error("request panicked")
}
