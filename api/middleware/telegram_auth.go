package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/angelmondragon/tubeshop-backend/api/responses"
	pkgerrors "github.com/angelmondragon/tubeshop-backend/pkg/errors"
	"github.com/angelmondragon/tubeshop-backend/pkg/logger"
	"github.com/angelmondragon/tubeshop-backend/pkg/telegram"
)

const telegramInitDataHeader = "X-Telegram-Init-Data"

var telegramAuthExempt = map[string]struct{}{
	"/api/health":           {},
	"/api/healthz":          {},
	"/api/healthcheck":      {},
	"/api/telegram/webhook": {},
}

// TelegramAuth requires signed Mini App init data on every /api request
// outside the health and webhook paths.
func TelegramAuth(botToken string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := strings.TrimSuffix(strings.ToLower(r.URL.Path), "/")
			if !strings.HasPrefix(path, "/api") || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			if _, ok := telegramAuthExempt[path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			raw := strings.TrimSpace(r.Header.Get(telegramInitDataHeader))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "telegram init data is missing"))
				return
			}

			data, err := telegram.VerifyInitData(raw, botToken)
			switch {
			case errors.Is(err, telegram.ErrBotTokenRequired):
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "bot token is not configured"))
				return
			case err != nil:
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid telegram init data"))
				return
			}

			ctx := r.Context()
			if data.User != nil {
				ctx = WithTelegramUser(ctx, data.User)
				if logg != nil {
					ctx = logg.WithTelegramUserID(ctx, data.User.ID)
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
