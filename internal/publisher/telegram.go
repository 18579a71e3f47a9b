package publisher

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramSender posts photos to a channel given as "@username" or numeric chat id.
type TelegramSender struct {
	bot     *tgbotapi.BotAPI
	channel string
}

func NewTelegramSender(bot *tgbotapi.BotAPI, channel string) *TelegramSender {
	return &TelegramSender{bot: bot, channel: channel}
}

func (t *TelegramSender) SendPhoto(ctx context.Context, url, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	photo := NewPhotoConfig(t.channel, url, caption)
	if _, err := t.bot.Send(photo); err != nil {
		return fmt.Errorf("telegram send to %s: %w", t.channel, err)
	}
	return nil
}

// NewPhotoConfig builds a sendPhoto request that references url instead of uploading bytes.
func NewPhotoConfig(channel, url, caption string) tgbotapi.PhotoConfig {
	var photo tgbotapi.PhotoConfig
	if id, err := strconv.ParseInt(channel, 10, 64); err == nil {
		photo = tgbotapi.NewPhoto(id, tgbotapi.FileURL(url))
	} else {
		photo = tgbotapi.NewPhotoToChannel(channel, tgbotapi.FileURL(url))
	}
	photo.Caption = caption
	return photo
}
