package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Ywatch15/Bank-Transaction-Sys/internal/logger"
	"github.com/Ywatch15/Bank-Transaction-Sys/internal/models"
	"github.com/Ywatch15/Bank-Transaction-Sys/internal/store"
)

// auditMetaFields is the allow list of request-body fields captured in
// audit rows. Passwords, tokens and anything not listed are never
// stored.
var auditMetaFields = []string{"amount", "fromAccount", "toAccount", "accountId", "currency"}

const auditBodyLimit = 16 << 10

type Audit struct {
	audits *store.AuditStore
}

func NewAudit(audits *store.AuditStore) *Audit {
	return &Audit{audits: audits}
}

// Record appends one audit row per request. The write happens on a
// goroutine after buffering safe metadata; audit failures never
// interrupt the request.
func (a *Audit) Record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		meta := a.safeMeta(r)

		entry := models.AuditLog{
			IP:     clientIP(r),
			Method: r.Method,
			Route:  r.URL.Path,
			Meta:   meta,
		}
		if userID, ok := r.Context().Value(UserIDContextKey).(uint); ok {
			entry.UserID = &userID
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := a.audits.Append(ctx, &entry); err != nil {
				logger.Log.Warn("failed to write audit entry", zap.Error(err))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// safeMeta extracts only allow-listed body fields, restoring the body
// for downstream handlers.
func (a *Audit) safeMeta(r *http.Request) string {
	if r.Body == nil || r.Method == http.MethodGet {
		return "{}"
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, auditBodyLimit))
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil || len(raw) == 0 {
		return "{}"
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return "{}"
	}

	safe := map[string]json.RawMessage{}
	for _, field := range auditMetaFields {
		if v, ok := body[field]; ok {
			safe[field] = v
		}
	}
	out, err := json.Marshal(safe)
	if err != nil {
		return "{}"
	}
	return string(out)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
