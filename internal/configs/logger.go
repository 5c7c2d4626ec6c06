package config

import pkgLog "easyplan-sync.com/easyplan-sync/pkg/log"

func NewLogger(cfg LoggerConfig) pkgLog.Logger {
	return pkgLog.Init(pkgLog.ZapConfig{
		Level:        cfg.Level,
		Mode:         cfg.Mode,
		Encoding:     cfg.Encoding,
		ColorEnabled: cfg.ColorEnabled,
	})
}
