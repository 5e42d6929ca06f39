package notify

import (
	"context"
	"fmt"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// telegramMaxLen 是 Telegram 单条消息的字符上限。
const telegramMaxLen = 4096

// Telegram 通过 Bot API 把摘要发送到指定会话。
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	label  string
}

// NewTelegram 创建 Telegram 投递器，会调用一次 getMe 校验 token。
func NewTelegram(token string, chatID int64, label string, client *http.Client) (*Telegram, error) {
	return newTelegramWithEndpoint(token, tgbotapi.APIEndpoint, chatID, label, client)
}

func newTelegramWithEndpoint(token, endpoint string, chatID int64, label string, client *http.Client) (*Telegram, error) {
	if client == nil {
		client = http.DefaultClient
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("[notify] 初始化 Telegram Bot 失败: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID, label: label}, nil
}

// Notify 实现 Notifier 接口。Bot API 调用不支持 context，ctx 仅用于提前退出。
func (t *Telegram) Notify(ctx context.Context, text string) Result {
	res := Result{Channel: "telegram"}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	msg := tgbotapi.NewMessage(t.chatID, truncate(FormatMessage(t.label, text), telegramMaxLen))
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		res.Err = fmt.Errorf("[notify] Telegram 发送失败: %w", err)
		return res
	}
	res.Delivered = true
	return res
}
