package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/tubeshop-backend/pkg/logger"
)

const requestIDHeader = "X-Request-Id"

// Inbound ids from the Mini App or a proxy are kept only when they are plain tokens.
var requestIDRe = regexp.MustCompile(`^[A-Za-z0-9._:-]{8,64}$`)

// RequestID tags the request, the response header and the logger with an id.
// Malformed inbound ids are replaced so they cannot inject into log lines.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := strings.TrimSpace(r.Header.Get(requestIDHeader))
			if !requestIDRe.MatchString(reqID) {
				reqID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, reqID)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
