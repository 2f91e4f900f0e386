package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramService sends admin notifications to a Telegram chat. It is a
// no-op when the bot token or the admin chat is not configured.
type TelegramService struct {
	botToken    string
	adminChatID string
	baseURL     string
	client      *http.Client
}

// NewTelegramService creates a new TelegramService.
func NewTelegramService(botToken, adminChatID string) *TelegramService {
	return &TelegramService{
		botToken:    botToken,
		adminChatID: adminChatID,
		baseURL:     telegramAPIBase,
		client:      &http.Client{Timeout: 15 * time.Second},
	}
}

// Enabled reports whether messages will actually be sent.
func (s *TelegramService) Enabled() bool {
	return s.botToken != "" && s.adminChatID != ""
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage sends an HTML formatted message to chatID.
func (s *TelegramService) SendMessage(ctx context.Context, chatID, text string) error {
	if s.botToken == "" {
		return nil
	}

	body, err := json.Marshal(telegramMessage{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	return nil
}

// SendToAdmin sends a message to the admin chat.
func (s *TelegramService) SendToAdmin(ctx context.Context, text string) error {
	if s.adminChatID == "" {
		return nil
	}
	return s.SendMessage(ctx, s.adminChatID, text)
}

// OrderStatusNotification describes an admin status change.
type OrderStatusNotification struct {
	OrderID   string
	Status    string
	BuyerName string
	ItemCount int
	ChangedBy string
}

// FormatOrderStatusMessage renders n as a Telegram HTML message.
func FormatOrderStatusMessage(n OrderStatusNotification) string {
	buyer := n.BuyerName
	if buyer == "" {
		buyer = "unknown"
	}
	changedBy := n.ChangedBy
	if changedBy == "" {
		changedBy = "admin"
	}

	message := fmt.Sprintf(`<b>📦 ORDER STATUS UPDATED</b>
<b>Order:</b> %s
<b>Buyer:</b> %s
<b>Products:</b> %d
<b>Status:</b> %s
<b>By:</b> %s`,
		html.EscapeString(n.OrderID),
		html.EscapeString(buyer),
		n.ItemCount,
		html.EscapeString(n.Status),
		html.EscapeString(changedBy),
	)

	return strings.TrimSpace(message)
}

// NotifyOrderStatusChanged tells the admin chat about a status change.
func (s *TelegramService) NotifyOrderStatusChanged(ctx context.Context, n OrderStatusNotification) error {
	if !s.Enabled() {
		return nil
	}
	return s.SendToAdmin(ctx, FormatOrderStatusMessage(n))
}
