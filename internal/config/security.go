package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const securityAPIKey = "security.apiKey"

var ErrEmptyAPIKey = errors.New("security.apiKey cannot be empty")

// SecurityHolder serves the current delete-route API key. The key is read
// from security.yml and reloaded whenever the file changes.
type SecurityHolder struct {
	current atomic.Value // holds string
}

// NewSecurityHolder reads security.yml from the usual config paths, with
// CUSTOMERDESK_SECURITY_APIKEY taking precedence and cfg.APIKey as fallback.
func NewSecurityHolder(cfg Config, log *zap.Logger) (*SecurityHolder, error) {
	v := viper.New()

	v.SetConfigName("security")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/customerdesk")
	v.AddConfigPath(".")

	return newSecurityHolder(v, cfg.APIKey, log, true)
}

func newSecurityHolder(v *viper.Viper, fallback string, log *zap.Logger, watch bool) (*SecurityHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("config.security")

	v.SetEnvPrefix("CUSTOMERDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault(securityAPIKey, fallback)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		fileLoaded = false
	}

	holder := &SecurityHolder{}
	if err := holder.Store(v.GetString(securityAPIKey)); err != nil {
		return nil, err
	}

	if watch && fileLoaded {
		v.OnConfigChange(func(e fsnotify.Event) {
			if err := holder.Store(v.GetString(securityAPIKey)); err != nil {
				log.Warn("invalid security config ignored", zap.String("file", e.Name), zap.Error(err))
				return
			}
			log.Info("security config reloaded", zap.String("file", e.Name))
		})
		v.WatchConfig()
	}

	return holder, nil
}

// NewStaticSecurityHolder returns a holder pinned to key.
func NewStaticSecurityHolder(key string) (*SecurityHolder, error) {
	holder := &SecurityHolder{}
	if err := holder.Store(key); err != nil {
		return nil, err
	}
	return holder, nil
}

// Store replaces the API key. An empty key is rejected and the previous one
// stays active.
func (h *SecurityHolder) Store(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyAPIKey
	}
	h.current.Store(key)
	return nil
}

func (h *SecurityHolder) APIKey() string {
	value, _ := h.current.Load().(string)
	return value
}
