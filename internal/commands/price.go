package commands

import (
	"fmt"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"crypto-alert-bot/internal/assets"
	"crypto-alert-bot/internal/price"
	"crypto-alert-bot/lib/helpers"
)

// CommandPrice handles `/price <asset>`.
func CommandPrice(prices *price.Service, argument string) (string, error) {
	log.Debugf("processing command /price with argument: %s", argument)

	asset, ok := assets.Resolve(argument)
	if !ok {
		return unknownAssetMessage(argument), nil
	}

	p, ok := prices.GetPrice(asset)
	if !ok {
		return "", errors.Errorf("no price available for %s", asset)
	}

	return fmt.Sprintf("*%s price:*\n\n▫️`$%s` *USD*",
		helpers.EscapeMarkdownV2(assets.DisplayName(asset)),
		helpers.FormatPriceUS(p, true)), nil
}
