package controllers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/angelmondragon/tubeshop-backend/api/responses"
	"github.com/angelmondragon/tubeshop-backend/internal/bot"
	"github.com/angelmondragon/tubeshop-backend/pkg/logger"
	"github.com/angelmondragon/tubeshop-backend/pkg/telegram"
)

const maxUpdateBytes = 1 << 20

// TelegramWebhook always answers 200 so Telegram does not redeliver; decode
// and send failures are only logged.
func TelegramWebhook(svc *bot.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var update telegram.Update
		body, err := io.ReadAll(io.LimitReader(r.Body, maxUpdateBytes))
		if err == nil {
			err = json.Unmarshal(body, &update)
		}
		if err != nil {
			logg.Warn(logg.WithField(ctx, "error", err.Error()), "telegram.update.undecodable")
			responses.WriteSuccess(w, map[string]bool{"ok": true})
			return
		}

		ctx = logg.WithField(ctx, "update_id", update.UpdateID)
		if _, err := svc.HandleUpdate(ctx, update); err != nil {
			logg.Error(ctx, "telegram.update.failed", err)
		}
		responses.WriteSuccess(w, map[string]bool{"ok": true})
	}
}
