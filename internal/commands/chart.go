package commands

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"crypto-alert-bot/internal/assets"
	"crypto-alert-bot/internal/chart"
	"crypto-alert-bot/internal/database"
	"crypto-alert-bot/lib/helpers"
	"crypto-alert-bot/lib/translation"
)

const chartHistoryWindow = 24 * time.Hour

// CommandChart handles `/chart <asset>`: a PNG of the prices this bot has
// observed over the last day. Returns chart bytes and a caption; the chart is
// nil when there is not enough history, with the caption explaining why.
func CommandChart(store *database.Store, argument string) ([]byte, string, error) {
	log.Debugf("processing command /chart with argument: %s", argument)

	asset, ok := assets.Resolve(argument)
	if !ok {
		return nil, unknownAssetMessage(argument), nil
	}

	if item, found := cacheGet(asset); found {
		log.Debugf("returning cached chart for %s", asset)
		return item.ChartData, item.Caption, nil
	}

	points, err := store.PriceHistory(asset, time.Now().Add(-chartHistoryWindow))
	if err != nil {
		return nil, "", err
	}
	if len(points) < 2 {
		return nil, fmt.Sprintf(translation.Translate(
			"Not enough observed prices for %s yet\\. Try again after a few polling cycles\\."),
			helpers.EscapeMarkdownV2(assets.DisplayName(asset))), nil
	}

	name := assets.DisplayName(asset)
	data, err := chart.Render(points, fmt.Sprintf("%s / USD (24h)", name))
	if err != nil {
		return nil, "", err
	}

	caption := fmt.Sprintf("*%s* over the last 24h", helpers.EscapeMarkdownV2(name))
	cacheSet(asset, data, caption, 5*time.Minute)

	return data, caption, nil
}
