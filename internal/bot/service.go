package bot

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/angelmondragon/tubeshop-backend/pkg/logger"
	"github.com/angelmondragon/tubeshop-backend/pkg/telegram"
)

const (
	commandStart = "/start"
	commandHelp  = "/help"
)

const helpText = `📚 <b>Shop bot help</b>

🤖 Available commands:
/start - start working with the bot
/help - show this help

🛍️ How to place an order:
1. Open the mini app
2. Pick the pipes you need
3. Add them to the cart
4. Check out

📞 Support: @support_username`

const unknownText = `❓ Command not recognized

Use:
/start - start working
/help - show help

Or open the mini app to browse the catalog! 🛒`

// Service answers chat commands received by the webhook.
type Service struct {
	sender telegram.Sender
	logg   *logger.Logger
}

func NewService(sender telegram.Sender, logg *logger.Logger) (*Service, error) {
	if sender == nil {
		return nil, fmt.Errorf("message sender required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{sender: sender, logg: logg}, nil
}

// HandleUpdate replies to text messages and ignores everything else. It
// reports whether a reply was attempted.
func (s *Service) HandleUpdate(ctx context.Context, update telegram.Update) (bool, error) {
	msg := update.Message
	if msg == nil || strings.TrimSpace(msg.Text) == "" {
		s.logg.Debug(ctx, "non-text update ignored")
		return false, nil
	}

	var fromID int64
	if msg.From != nil {
		fromID = msg.From.ID
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"chat_id":          msg.Chat.ID,
		"telegram_user_id": fromID,
	})

	reply := Reply(msg.Text, msg.From)
	if err := s.sender.SendMessage(ctx, msg.Chat.ID, reply); err != nil {
		return true, fmt.Errorf("send reply: %w", err)
	}
	s.logg.Info(ctx, "bot reply sent")
	return true, nil
}

// Reply picks the answer for a chat message.
func Reply(text string, from *telegram.User) string {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case commandStart:
		return startText(from)
	case commandHelp:
		return helpText
	default:
		return unknownText
	}
}

func startText(from *telegram.User) string {
	name := "there"
	if from != nil && strings.TrimSpace(from.FirstName) != "" {
		name = html.EscapeString(from.FirstName)
	}
	return fmt.Sprintf(`🛒 <b>Welcome to the pipe shop!</b>

👋 Hi, %s!

This mini app lets you order steel pipes. Here you can:

🔍 Browse the catalog
📦 Add items to the cart
📋 Place orders
📊 Track your order history

Tap "Open shop" below or send /help to get started.`, name)
}
