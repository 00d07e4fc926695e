package config

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all settings for the gateway. Everything can be supplied via
// environment variables; an optional config.yaml is read when present.
type Config struct {
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// Upstream endpoints.
	ModsearchURL    string `mapstructure:"MODSEARCH_URL"`
	ModresultURL    string `mapstructure:"MODRESULT_URL"`
	ListCountryURL  string `mapstructure:"LISTCOUNTRY_URL"`
	ListDepURL      string `mapstructure:"LISTDEP_URL"`
	ListHotelURL    string `mapstructure:"LISTHOTEL_URL"`
	ListMealURL     string `mapstructure:"LISTMEAL_URL"`
	ListRoomURL     string `mapstructure:"LISTROOM_URL"`
	ListOperatorURL string `mapstructure:"LISTOPERATOR_URL"`
	ListDevURL      string `mapstructure:"LISTDEV_URL"`
	HotelLinkBase   string `mapstructure:"HOTEL_LINK_BASE"`

	// HeadersJSON is a JSON object of extra headers sent with every
	// upstream request.
	HeadersJSON     string `mapstructure:"HEADERS_JSON"`
	DefaultReferrer string `mapstructure:"DEFAULT_REFERRER"`
	DefaultSession  string `mapstructure:"DEFAULT_SESSION"`

	// ResultIDParam is the query parameter name the poll endpoint expects.
	// SearchIDKeys is the comma-separated priority list of keys scanned for
	// a request identifier in submit responses.
	ResultIDParam string `mapstructure:"RESULT_ID_PARAM"`
	SearchIDKeys  string `mapstructure:"SEARCH_ID_KEYS"`

	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	PollInterval   time.Duration `mapstructure:"POLL_INTERVAL"`
	PollAttempts   int           `mapstructure:"POLL_ATTEMPTS"`
	MaxTours       int           `mapstructure:"MAX_TOURS"`
	ListCacheTTL   time.Duration `mapstructure:"LIST_CACHE_TTL"`
}

// Load reads configuration from the environment and, when present, from a
// config.yaml in the working directory or ./config.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MODSEARCH_URL", "")
	v.SetDefault("MODRESULT_URL", "")
	v.SetDefault("LISTCOUNTRY_URL", "https://tourvisor.ru/xml/listcountry.php")
	v.SetDefault("LISTDEP_URL", "https://tourvisor.ru/xml/listdep.php")
	v.SetDefault("LISTHOTEL_URL", "https://tourvisor.ru/xml/listhotel.php")
	v.SetDefault("LISTMEAL_URL", "https://tourvisor.ru/xml/listmeal.php")
	v.SetDefault("LISTROOM_URL", "https://tourvisor.ru/xml/listroom.php")
	v.SetDefault("LISTOPERATOR_URL", "https://tourvisor.ru/xml/listoperator.php")
	v.SetDefault("LISTDEV_URL", "https://tourvisor.ru/xml/listdev.php")
	v.SetDefault("HOTEL_LINK_BASE", "https://tourvisor.ru/countries#!/hotel=")
	v.SetDefault("HEADERS_JSON", "")
	v.SetDefault("DEFAULT_REFERRER", "")
	v.SetDefault("DEFAULT_SESSION", "")
	v.SetDefault("RESULT_ID_PARAM", "requestid")
	v.SetDefault("SEARCH_ID_KEYS", "requestid,request_id,search_id,id,uid")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("POLL_INTERVAL", "2s")
	v.SetDefault("POLL_ATTEMPTS", 25)
	v.SetDefault("MAX_TOURS", 20)
	v.SetDefault("LIST_CACHE_TTL", "6h")

	// A missing config file is fine, env vars cover everything.
	_ = v.ReadInConfig()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.ModsearchURL = strings.TrimSpace(cfg.ModsearchURL)
	cfg.ModresultURL = strings.TrimSpace(cfg.ModresultURL)
	return &cfg, nil
}

// Headers decodes HEADERS_JSON into a header map. Malformed JSON yields an
// empty map rather than an error.
func (c *Config) Headers() map[string]string {
	out := map[string]string{}
	raw := strings.TrimSpace(c.HeadersJSON)
	if raw == "" {
		return out
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return map[string]string{}
	}
	return out
}

// SearchIDKeyList splits SEARCH_ID_KEYS into a cleaned slice, preserving
// order.
func (c *Config) SearchIDKeyList() []string {
	var keys []string
	for _, k := range strings.Split(c.SearchIDKeys, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
