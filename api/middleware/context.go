package middleware

import (
	"context"

	"github.com/angelmondragon/tubeshop-backend/pkg/telegram"
)

type contextKey string

const ctxTelegramUser contextKey = "telegram_user"

// TelegramUserFromContext returns the user carried by verified init data.
func TelegramUserFromContext(ctx context.Context) (*telegram.User, bool) {
	if ctx == nil {
		return nil, false
	}
	user, ok := ctx.Value(ctxTelegramUser).(*telegram.User)
	return user, ok && user != nil
}

// WithTelegramUser injects the verified Telegram user into the context.
func WithTelegramUser(ctx context.Context, user *telegram.User) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxTelegramUser, user)
}
