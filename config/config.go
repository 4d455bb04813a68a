// Package config holds runtime settings for the BOQ wizard. Values come from
// built-in defaults, then BOQ_* environment variables, then command-line
// flags registered on the root command.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"
)

const (
	DefaultGeminiModel    = "gemini-2.0-flash"
	DefaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models"
	DefaultExtractTimeout = 60 * time.Second
	DefaultResetDelay     = 5 * time.Second
	DefaultSessionTTL     = 30 * 24 * time.Hour
)

// Config is the wizard's runtime configuration.
type Config struct {
	GeminiAPIKey   string
	GeminiModel    string
	GeminiEndpoint string
	// ExtractTimeout bounds one extraction request.
	ExtractTimeout time.Duration
	// ResetDelay is how long the upload form shows an extraction error
	// before resetting.
	ResetDelay time.Duration
	// SessionTTL is how long an idle wizard session is kept. Zero keeps
	// sessions forever.
	SessionTTL time.Duration
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		GeminiModel:    DefaultGeminiModel,
		GeminiEndpoint: DefaultGeminiEndpoint,
		ExtractTimeout: DefaultExtractTimeout,
		ResetDelay:     DefaultResetDelay,
		SessionTTL:     DefaultSessionTTL,
	}
}

// FromEnv returns the defaults overridden by BOQ_* environment variables.
// Durations accept Go duration strings ("90s") or plain seconds ("90").
func FromEnv(lookup func(string) (string, bool)) *Config {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	c := Default()
	if v, ok := lookup("BOQ_GEMINI_API_KEY"); ok {
		c.GeminiAPIKey = v
	}
	if v, ok := lookup("BOQ_GEMINI_MODEL"); ok && v != "" {
		c.GeminiModel = v
	}
	if v, ok := lookup("BOQ_GEMINI_ENDPOINT"); ok && v != "" {
		c.GeminiEndpoint = v
	}
	envDuration(lookup, "BOQ_EXTRACT_TIMEOUT", &c.ExtractTimeout)
	envDuration(lookup, "BOQ_RESET_DELAY", &c.ResetDelay)
	envDuration(lookup, "BOQ_SESSION_TTL", &c.SessionTTL)
	return c
}

func envDuration(lookup func(string) (string, bool), key string, dst *time.Duration) {
	v, ok := lookup(key)
	if !ok || v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
		return
	}
	if secs, err := cast.ToFloat64E(v); err == nil {
		*dst = time.Duration(secs * float64(time.Second))
	}
}

// AddFlags registers one flag per setting, using the current values as
// defaults, so flags override the environment.
func (c *Config) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.GeminiAPIKey, "gemini-api-key", c.GeminiAPIKey, "Gemini API key for BOQ image extraction (env BOQ_GEMINI_API_KEY)")
	fs.StringVar(&c.GeminiModel, "gemini-model", c.GeminiModel, "Gemini model used for extraction")
	fs.StringVar(&c.GeminiEndpoint, "gemini-endpoint", c.GeminiEndpoint, "Gemini models endpoint")
	fs.DurationVar(&c.ExtractTimeout, "extract-timeout", c.ExtractTimeout, "timeout for one extraction request")
	fs.DurationVar(&c.ResetDelay, "reset-delay", c.ResetDelay, "how long extraction errors are shown before the upload form resets")
	fs.DurationVar(&c.SessionTTL, "session-ttl", c.SessionTTL, "idle wizard sessions older than this are pruned on startup (0 disables)")
}

// Validate checks the configuration. An empty API key is allowed; uploads
// then fail with an authentication error.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.GeminiModel, validation.Required),
		validation.Field(&c.GeminiEndpoint, validation.Required, validation.By(absoluteURL)),
		validation.Field(&c.ExtractTimeout, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.ResetDelay, validation.Min(time.Duration(0))),
		validation.Field(&c.SessionTTL, validation.Min(time.Duration(0))),
	)
}

func absoluteURL(value any) error {
	s, _ := value.(string)
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("must be an absolute URL")
	}
	return nil
}
