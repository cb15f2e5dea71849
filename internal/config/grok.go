package config

import "time"

const (
	DefaultGrokAPIURL   = "https://grok.x.com/2/grok/add_response.json"
	DefaultGrokLinkBase = "https://x.com/elonmusk/status/"
)

// GrokConfig describes how the origin is reached
type GrokConfig struct {
	APIURL             string
	ConnectTimeout     time.Duration
	ReadTimeout        time.Duration
	MaxRetries         int
	RetryBaseDelay     time.Duration
	RetryMaxDelay      time.Duration
	InsecureSkipVerify bool
	LinkBase           string
}

func GetGrokConfig() GrokConfig {
	return GrokConfig{
		APIURL:             GetEnvOrDefault("GROK_API_URL", DefaultGrokAPIURL),
		ConnectTimeout:     parseEnvDuration("GROK_CONNECT_TIMEOUT", 10*time.Second),
		ReadTimeout:        parseEnvDuration("GROK_READ_TIMEOUT", 30*time.Second),
		MaxRetries:         parseEnvInt("GROK_MAX_RETRIES", 5),
		RetryBaseDelay:     parseEnvDuration("GROK_RETRY_BASE_DELAY", 2*time.Second),
		RetryMaxDelay:      parseEnvDuration("GROK_RETRY_MAX_DELAY", 60*time.Second),
		InsecureSkipVerify: parseEnvBool("GROK_INSECURE_SKIP_VERIFY", false),
		LinkBase:           GetEnvOrDefault("GROK_LINK_BASE", DefaultGrokLinkBase),
	}
}
