package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/tubeshop-backend/api/responses"
	pkgerrors "github.com/angelmondragon/tubeshop-backend/pkg/errors"
	"github.com/angelmondragon/tubeshop-backend/pkg/logger"
)

// Recoverer turns a handler panic into a 500 envelope. Mounted behind
// TelegramAuth it also logs the buyer and, on order routes, the order the
// panic happened on.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}
				err := fmt.Errorf("panic: %v", rec)
				ctx := panicContext(r, logg, rec)
				if logg != nil {
					logg.Error(ctx, "panic.recovered", err)
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "internal server error"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func panicContext(r *http.Request, logg *logger.Logger, rec any) context.Context {
	ctx := r.Context()
	if logg == nil {
		return ctx
	}
	fields := map[string]any{
		"panic":  rec,
		"method": r.Method,
		"path":   r.URL.Path,
	}
	if rctx := chi.RouteContext(ctx); rctx != nil && rctx.RoutePattern() != "" {
		fields["route"] = rctx.RoutePattern()
	}
	if id := chi.URLParam(r, "id"); id != "" {
		fields["order_id"] = id
	}
	ctx = logg.WithFields(ctx, fields)
	if user, ok := TelegramUserFromContext(ctx); ok {
		ctx = logg.WithTelegramUserID(ctx, user.ID)
	}
	if number := chi.URLParam(r, "number"); number != "" {
		ctx = logg.WithOrderNumber(ctx, number)
	}
	return ctx
}
