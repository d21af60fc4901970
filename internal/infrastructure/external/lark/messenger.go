package lark

import (
	"context"
	"encoding/json"
	"fmt"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"

	"github.com/medcenter/hms-vouchers/internal/application/port"
)

// Config holds Lark bot credentials
type Config struct {
	AppID     string
	AppSecret string
	// BaseURL overrides the open platform domain, e.g. for Feishu
	BaseURL string
}

// Enabled reports whether credentials are present
func (c Config) Enabled() bool {
	return c.AppID != "" && c.AppSecret != ""
}

// Messenger sends plain text messages into group chats
type Messenger struct {
	client *lark.Client
	logger *zap.Logger
}

// NewMessenger creates a Lark messenger backed by the SDK client
func NewMessenger(cfg Config, logger *zap.Logger) *Messenger {
	opts := []lark.ClientOptionFunc{
		lark.WithLogLevel(larkcore.LogLevelInfo),
		lark.WithEnableTokenCache(true),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, lark.WithOpenBaseUrl(cfg.BaseURL))
	}

	return &Messenger{
		client: lark.NewClient(cfg.AppID, cfg.AppSecret, opts...),
		logger: logger,
	}
}

// SendText posts text to the chat identified by chatID
func (m *Messenger) SendText(ctx context.Context, chatID, text string) error {
	if chatID == "" {
		return fmt.Errorf("chat id cannot be empty")
	}
	if text == "" {
		return fmt.Errorf("text cannot be empty")
	}

	content, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("failed to marshal message content: %w", err)
	}

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType("chat_id").
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(chatID).
			MsgType("text").
			Content(string(content)).
			Build()).
		Build()

	resp, err := m.client.Im.Message.Create(ctx, req)
	if err != nil {
		m.logger.Error("Failed to send message",
			zap.String("chat_id", chatID),
			zap.Error(err))
		return fmt.Errorf("failed to send message: %w", err)
	}

	if !resp.Success() {
		m.logger.Error("API returned failure",
			zap.String("chat_id", chatID),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return fmt.Errorf("lark API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	messageID := ""
	if resp.Data != nil && resp.Data.MessageId != nil {
		messageID = *resp.Data.MessageId
	}
	m.logger.Info("Message sent", zap.String("chat_id", chatID), zap.String("message_id", messageID))

	return nil
}

var _ port.ChatMessenger = (*Messenger)(nil)
