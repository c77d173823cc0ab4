package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/example/assetdesk/internal/config"
)

// TelegramNotifier posts HTML-formatted notices to a chat through the Bot API.
type TelegramNotifier struct {
	baseURL    string
	token      string
	chatID     string
	httpClient *http.Client
}

func NewTelegramNotifier(cfg config.TelegramConfig) *TelegramNotifier {
	return &TelegramNotifier{
		baseURL:    strings.TrimRight(cfg.APIBaseURL, "/"),
		token:      cfg.BotToken,
		chatID:     cfg.ChatID,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (t *TelegramNotifier) Notify(ctx context.Context, notice RepairNotice) error {
	body, err := json.Marshal(map[string]any{
		"chat_id":    t.chatID,
		"text":       FormatTelegramMessage(notice),
		"parse_mode": "HTML",
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request failed: %w", err)
	}
	defer resp.Body.Close()

	var result sendMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("telegram response decode failed (status %s): %w", resp.Status, err)
	}
	if resp.StatusCode >= 300 || !result.OK {
		return fmt.Errorf("telegram sendMessage failed: %s %s", resp.Status, result.Description)
	}
	return nil
}

// FormatTelegramMessage renders the notice as Telegram HTML with user-supplied values escaped.
func FormatTelegramMessage(n RepairNotice) string {
	var b strings.Builder
	b.WriteString("<b>🔔 New repair request</b>\n\n")
	fmt.Fprintf(&b, "<b>Asset number:</b> <code>%s</code>\n", html.EscapeString(n.AssetNumber))
	fmt.Fprintf(&b, "<b>Equipment:</b> %s\n", html.EscapeString(n.AssetName))
	fmt.Fprintf(&b, "<b>Problem:</b> %s\n", html.EscapeString(n.ProblemDescription))
	fmt.Fprintf(&b, "<b>Reporter:</b> %s\n", html.EscapeString(n.ReporterName))
	fmt.Fprintf(&b, "<b>Location:</b> %s\n", html.EscapeString(n.ReporterLocation))
	fmt.Fprintf(&b, "<b>Contact:</b> <code>%s</code>", html.EscapeString(n.ReporterContact))
	return b.String()
}
