package config

import (
	"github.com/spf13/viper"
	"sync"
)

var once sync.Once

func InitConfig() {
	once.Do(func() {
		viper.AutomaticEnv()

		viper.BindEnv("metrics_port", "METRICS_PORT")
		viper.BindEnv("telegram_bot_token", "TELEGRAM_BOT_TOKEN")
		viper.BindEnv("db_path", "DB_PATH")
		viper.BindEnv("price_api_url", "PRICE_API_URL")
		viper.BindEnv("debug", "DEBUG")
		viper.BindEnv("lang", "LANG")
		viper.BindEnv("poll_interval_seconds", "POLL_INTERVAL_SECONDS")
		viper.BindEnv("price_ttl_seconds", "PRICE_TTL_SECONDS")
		viper.BindEnv("fetch_timeout_seconds", "FETCH_TIMEOUT_SECONDS")
		viper.BindEnv("throttle_window_hours", "THROTTLE_WINDOW_HOURS")
		viper.BindEnv("throttle_tolerance_percent", "THROTTLE_TOLERANCE_PERCENT")
		viper.BindEnv("retention_days", "RETENTION_DAYS")
		viper.BindEnv("admin_chat_id", "ADMIN_CHAT_ID")
		viper.BindEnv("high_volume_threshold", "HIGH_VOLUME_THRESHOLD")

		viper.SetDefault("metrics_port", 9090)
		viper.SetDefault("db_path", "data/bot.db")
		viper.SetDefault("price_api_url", "https://api.coingecko.com/api/v3/simple/price")
		viper.SetDefault("debug", false)
		viper.SetDefault("lang", "en")
		viper.SetDefault("poll_interval_seconds", 300)
		viper.SetDefault("price_ttl_seconds", 240)
		viper.SetDefault("fetch_timeout_seconds", 15)
		viper.SetDefault("throttle_window_hours", 4)
		viper.SetDefault("throttle_tolerance_percent", 2.0)
		viper.SetDefault("retention_days", 30)
		viper.SetDefault("admin_chat_id", 0)
		viper.SetDefault("high_volume_threshold", 25)
	})
}

func GetString(key string) string {
	InitConfig()
	return viper.GetString(key)
}

func GetInt(key string) int {
	InitConfig()
	return viper.GetInt(key)
}

func GetInt64(key string) int64 {
	InitConfig()
	return viper.GetInt64(key)
}

func GetFloat64(key string) float64 {
	InitConfig()
	return viper.GetFloat64(key)
}

func GetBool(key string) bool {
	InitConfig()
	return viper.GetBool(key)
}
