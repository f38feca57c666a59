// Package dura holds the global configuration and logging for the
// program.
//
// It is the bottom of the import tree so any package can use it.
package dura

import (
	"context"
)

// ConfigInfo is the global configuration
type ConfigInfo struct {
	LogLevel   LogLevel
	UseJSONLog bool
	LogFile    string
	// Excludes are glob patterns applied by default to commands
	// which walk a source tree.
	Excludes []string
}

// NewConfig creates a new config with everything set to the default value.
func NewConfig() *ConfigInfo {
	return &ConfigInfo{
		LogLevel: LogLevelNotice,
	}
}

type configContextKeyType struct{}

// Context key for config
var configContextKey = configContextKeyType{}

// globalConfig for dura
var globalConfig = NewConfig()

// GetConfig returns the global or context sensitive config
func GetConfig(ctx context.Context) *ConfigInfo {
	if ctx == nil {
		return globalConfig
	}
	c := ctx.Value(configContextKey)
	if c == nil {
		return globalConfig
	}
	return c.(*ConfigInfo)
}

// AddConfig returns a mutable config attached to the context passed in.
//
// If ctx already carries a config a copy of it is used, otherwise a
// copy of the global config.
func AddConfig(ctx context.Context) (context.Context, *ConfigInfo) {
	c := GetConfig(ctx)
	cCopy := new(ConfigInfo)
	*cCopy = *c
	newCtx := context.WithValue(ctx, configContextKey, cCopy)
	return newCtx, cCopy
}
