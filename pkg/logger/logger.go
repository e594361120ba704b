// Package logger, uygulama genelinde kullanılan zap logger'ını kurar.
//
// Her bileşen kendi adıyla bir alt logger alır:
//
//	log := logger.Named("ws")
//	log.Info("client connected", zap.String("user_id", id))
//
// Çıktıda "logger":"ws" alanı bulunur; eski "[ws]" prefix'lerinin yerini tutar.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config, logger kurulum ayarları.
type Config struct {
	Level       string // debug, info, warn, error
	Development bool   // true ise renkli konsol çıktısı
}

// New, verilen ayarlara göre bir *zap.Logger oluşturur.
func New(cfg Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
	}

	var zcfg zap.Config
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	l, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return l, nil
}
