package admin

import (
	"context"
	"log/slog"
	"net/http"

	dErrors "leadgate/pkg/domain-errors"
	"leadgate/pkg/platform/httputil"
	"leadgate/pkg/requestcontext"
	"leadgate/pkg/secrets"
)

type contextKeyOperator struct{}

// Operator returns the operator name attached by RequireOperator, or "".
func Operator(ctx context.Context) string {
	if name, ok := ctx.Value(contextKeyOperator{}).(string); ok {
		return name
	}
	return ""
}

// RequireOperator gates a route behind the operator credential. The presented
// X-Admin-Token is checked against a bcrypt hash so the plaintext never lives
// in configuration. An empty hash disables every admin route.
func RequireOperator(tokenHash string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token := r.Header.Get("X-Admin-Token")

			if tokenHash == "" || token == "" || secrets.Verify(token, tokenHash) != nil {
				logger.WarnContext(ctx, "operator credential rejected",
					"request_id", requestcontext.RequestID(ctx),
					"path", r.URL.Path,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "operator credential required"))
				return
			}

			operator := r.Header.Get("X-Admin-Actor")
			if operator == "" {
				operator = "operator"
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, contextKeyOperator{}, operator)))
		})
	}
}
