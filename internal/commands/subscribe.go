package commands

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"crypto-alert-bot/internal/assets"
	"crypto-alert-bot/internal/database"
	"crypto-alert-bot/internal/types"
	"crypto-alert-bot/lib/helpers"
	"crypto-alert-bot/lib/translation"
)

// CommandSubscribe handles `/subscribe <asset> <threshold> [above|below]`.
func CommandSubscribe(store *database.Store, chatID int64, args string) (string, error) {
	log.Debugf("processing command /subscribe with arguments: %s", args)

	fields := strings.Fields(args)
	if len(fields) < 2 || len(fields) > 3 {
		return helpers.EscapeMarkdownV2(translation.Translate(
			"Usage: /subscribe <asset> <threshold> [above|below]")), nil
	}

	asset, ok := assets.Resolve(fields[0])
	if !ok {
		return unknownAssetMessage(fields[0]), nil
	}

	threshold, ok := parsePriceInput(fields[1])
	if !ok || !validThreshold(threshold) {
		return helpers.EscapeMarkdownV2(translation.Translate(
			"Invalid threshold. Use a price between $0.000001 and $1,000,000, e.g. 50000 or 50k.")), nil
	}

	direction := types.DirectionAbove
	if len(fields) == 3 {
		if direction, ok = types.ParseDirection(strings.ToLower(fields[2])); !ok {
			return helpers.EscapeMarkdownV2(translation.Translate(
				"Direction must be either 'above' or 'below'.")), nil
		}
	}

	created, err := store.UpsertSubscription(chatID, asset, threshold, direction)
	if err != nil {
		return "", err
	}

	key := "✅ Alert set: %s %s $%s"
	if !created {
		key = "🔁 Alert updated: %s %s $%s"
	}
	return fmt.Sprintf(translation.Translate(key),
		helpers.EscapeMarkdownV2(assets.DisplayName(asset)),
		directionWord(direction),
		helpers.FormatPriceUS(threshold, true)), nil
}

// CommandUnsubscribe handles `/unsubscribe <asset> [above|below]`.
func CommandUnsubscribe(store *database.Store, chatID int64, args string) (string, error) {
	log.Debugf("processing command /unsubscribe with arguments: %s", args)

	fields := strings.Fields(args)
	if len(fields) < 1 || len(fields) > 2 {
		return helpers.EscapeMarkdownV2(translation.Translate(
			"Usage: /unsubscribe <asset> [above|below]")), nil
	}

	asset, ok := assets.Resolve(fields[0])
	if !ok {
		return unknownAssetMessage(fields[0]), nil
	}

	var direction types.Direction
	if len(fields) == 2 {
		if direction, ok = types.ParseDirection(strings.ToLower(fields[1])); !ok {
			return helpers.EscapeMarkdownV2(translation.Translate(
				"Direction must be either 'above' or 'below'.")), nil
		}
	}

	removed, err := store.Deactivate(chatID, asset, direction)
	if err != nil {
		return "", err
	}
	if removed == 0 {
		return fmt.Sprintf(translation.Translate("‽ You had no alert for %s"),
			helpers.EscapeMarkdownV2(assets.DisplayName(asset))), nil
	}
	return fmt.Sprintf(translation.Translate("🚫 Alert removed for %s"),
		helpers.EscapeMarkdownV2(assets.DisplayName(asset))), nil
}

// CommandList handles `/alerts`.
func CommandList(store *database.Store, chatID int64) (string, error) {
	subs, err := store.SubscriptionsByChatID(chatID)
	if err != nil {
		return "", err
	}
	if len(subs) == 0 {
		return helpers.EscapeMarkdownV2(translation.Translate("You have no active alerts.")), nil
	}

	var b strings.Builder
	b.WriteString(translation.Translate("🗒️ *Your active alerts:*\n"))
	for _, sub := range subs {
		b.WriteString(fmt.Sprintf("▫️ *%s* %s *$%s* \\(%s\\)\n",
			helpers.EscapeMarkdownV2(assets.DisplayName(sub.Asset)),
			directionWord(sub.Direction),
			helpers.FormatPriceUS(sub.Threshold, true),
			helpers.TimeAgo(sub.CreatedAt)))
	}
	return b.String(), nil
}

func directionWord(d types.Direction) string {
	if d == types.DirectionBelow {
		return translation.Translate("below")
	}
	return translation.Translate("above")
}

func unknownAssetMessage(input string) string {
	return fmt.Sprintf(translation.Translate("Unknown asset %s\\. Supported: %s"),
		helpers.EscapeMarkdownV2(input),
		helpers.EscapeMarkdownV2(assets.SupportedList()))
}
