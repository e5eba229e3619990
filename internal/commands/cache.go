package commands

import (
	"time"
)

type cacheItem struct {
	ChartData  []byte
	Caption    string
	Expiration time.Time
}

var chartCache = make(map[string]*cacheItem)

func cacheGet(asset string) (*cacheItem, bool) {
	if item, found := chartCache[asset]; found && time.Now().Before(item.Expiration) {
		return item, true
	}
	return nil, false
}

func cacheSet(asset string, chartData []byte, caption string, duration time.Duration) {
	chartCache[asset] = &cacheItem{
		ChartData:  chartData,
		Caption:    caption,
		Expiration: time.Now().Add(duration),
	}
}
