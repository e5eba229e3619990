package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"crypto-alert-bot/internal/assets"
	"crypto-alert-bot/internal/chart"
	"crypto-alert-bot/internal/commands"
	"crypto-alert-bot/internal/database"
	"crypto-alert-bot/internal/price"
	"crypto-alert-bot/internal/types"
	"crypto-alert-bot/lib/helpers"
	"crypto-alert-bot/lib/translation"
)

// NewBot creates new telegram bot
func NewBot(c BotConfig, store *database.Store, prices *price.Service) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(c.Token)
	if err != nil {
		return nil, errors.Wrap(err, "could not create telegram bot")
	}

	bot.Debug = c.Debug

	return &Bot{
		Bot:    bot,
		Config: c,
		store:  store,
		prices: prices,
	}, nil
}

// GetUpdatesChannel gets new updates
func (b *Bot) GetUpdatesChannel() (tgbotapi.UpdatesChannel, error) {
	updatesConfig := tgbotapi.NewUpdate(0)
	if b.Config.UpdatesTimeout > 0 {
		updatesConfig.Timeout = b.Config.UpdatesTimeout
	}
	return b.Bot.GetUpdatesChan(updatesConfig), nil
}

// SendMessage sends a telegram message
func (b *Bot) SendMessage(m Message) error {
	msg := tgbotapi.NewMessage(m.ChatID, m.Text)
	msg.ReplyToMessageID = m.MessageID
	msg.DisableWebPagePreview = true
	msg.ParseMode = "MarkdownV2"
	_, err := b.Bot.Send(msg)
	return errors.Wrapf(err, "could not send message: %v", m)
}

// Notify delivers one alert, attaching a price sparkline when enough history
// is available, and classifies the delivery outcome.
func (b *Bot) Notify(chatID int64, text string, history []types.PricePoint) types.DeliveryResult {
	if len(history) >= 2 {
		if data, err := chart.Render(history, ""); err == nil {
			photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{
				Name:  "chart.png",
				Bytes: data,
			})
			photo.Caption = text
			photo.ParseMode = "MarkdownV2"
			_, err := b.Bot.Send(photo)
			return classifyDeliveryError(chatID, err)
		}
		// Chart rendering is best effort; fall through to text-only.
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	msg.ParseMode = "MarkdownV2"
	_, err := b.Bot.Send(msg)
	return classifyDeliveryError(chatID, err)
}

func classifyDeliveryError(chatID int64, err error) types.DeliveryResult {
	if err == nil {
		return types.DeliverySuccess
	}

	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 403:
			log.Infof("chat %d has blocked the bot: %s", chatID, apiErr.Message)
			return types.DeliveryBlocked
		case apiErr.Code == 400 && strings.Contains(strings.ToLower(apiErr.Message), "chat not found"):
			log.Infof("chat %d not found: %s", chatID, apiErr.Message)
			return types.DeliveryBlocked
		}
	}

	log.Warnf("⚠️ delivery to chat %d failed: %v", chatID, err)
	return types.DeliveryTransient
}

// HandleUpdate processes Telegram commands
func (b *Bot) HandleUpdate(u tgbotapi.Update) string {
	text := b.helpText()
	log.Debugf("received command: %s", u.Message.Command())

	var err error

	switch u.Message.Command() {
	case "start", "help":
		// default help text
	case "subscribe":
		if text, err = commands.CommandSubscribe(b.store, u.Message.Chat.ID, u.Message.CommandArguments()); err != nil {
			text = helpers.EscapeMarkdownV2(translation.Translate("Failed to save alert. Please try again later."))
			log.Error(err)
		}
	case "unsubscribe":
		if text, err = commands.CommandUnsubscribe(b.store, u.Message.Chat.ID, u.Message.CommandArguments()); err != nil {
			text = helpers.EscapeMarkdownV2(translation.Translate("Failed to remove alert. Please try again later."))
			log.Error(err)
		}
	case "alerts", "list":
		if text, err = commands.CommandList(b.store, u.Message.Chat.ID); err != nil {
			text = helpers.EscapeMarkdownV2(translation.Translate("Failed to fetch your alerts. Please try again later."))
			log.Error(err)
		}
	case "price", "p":
		if text, err = commands.CommandPrice(b.prices, u.Message.CommandArguments()); err != nil {
			text = helpers.EscapeMarkdownV2(translation.Translate("No price available right now. Please try again later."))
			log.Error(err)
		}
	case "chart", "c":
		chartData, caption, err := commands.CommandChart(b.store, u.Message.CommandArguments())
		if err != nil {
			text = helpers.EscapeMarkdownV2(translation.Translate("Could not build the chart. Please try again later."))
			log.Error(err)
		} else if chartData != nil {
			photo := tgbotapi.NewPhoto(u.Message.Chat.ID, tgbotapi.FileBytes{
				Name:  "chart.png",
				Bytes: chartData,
			})
			photo.Caption = caption
			photo.ParseMode = "MarkdownV2"
			photo.ReplyToMessageID = u.Message.MessageID
			if _, err = b.Bot.Send(photo); err != nil {
				log.Error("error sending chart:", err)
			}
			return ""
		} else {
			text = caption
		}
	case "assets":
		text = helpers.EscapeMarkdownV2(translation.Translate("Supported assets: ") + assets.SupportedList())
	}

	return text
}

func (b *Bot) helpText() string {
	return helpers.EscapeMarkdownV2(translation.Translate(
		"Crypto alert bot. Commands:\n" +
			"/subscribe <asset> <threshold> [above|below] - set a price alert\n" +
			"/unsubscribe <asset> [above|below] - remove an alert\n" +
			"/alerts - list your alerts\n" +
			"/price <asset> - current price\n" +
			"/chart <asset> - observed price chart\n" +
			"/assets - supported assets"))
}
