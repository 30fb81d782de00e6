package notifications

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/jai-fire/production-grade-ai-trading-system/pkg/types"
)

type TelegramNotifier struct {
	token  string
	chatID string
}

func NewTelegramNotifier(token, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		token:  token,
		chatID: chatID,
	}
}

func (t *TelegramNotifier) SendAlert(level, message string) error {
	emoji := "ℹ️"
	switch level {
	case "warning":
		emoji = "⚠️"
	case "error":
		emoji = "🚨"
	case "success":
		emoji = "✅"
	}

	text := fmt.Sprintf("%s *Trading Engine Alert*\n\n%s", emoji, message)

	apiURL := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.token)

	data := url.Values{}
	data.Set("chat_id", t.chatID)
	data.Set("text", text)
	data.Set("parse_mode", "Markdown")

	resp, err := http.Post(apiURL, "application/x-www-form-urlencoded",
		strings.NewReader(data.Encode()))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}

	return nil
}

// NotifyFill reports an executed fill with its side, size and price.
func (t *TelegramNotifier) NotifyFill(fill types.Fill) error {
	action := "Opened"
	if fill.Reduce {
		action = fmt.Sprintf("Closed (%s)", fill.ExitReason)
	}
	message := fmt.Sprintf("%s %s %s\nSize: %.6f @ $%.4f\nFee: $%.4f",
		action, fill.Side, fill.Symbol, fill.Size, fill.Price, fill.Fee)
	return t.SendAlert("success", message)
}

// NotifyHalt reports that trading stopped, with the halt reason.
func (t *TelegramNotifier) NotifyHalt(reason string) error {
	return t.SendAlert("error", fmt.Sprintf("Trading halted: %s", reason))
}
