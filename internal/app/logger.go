package app

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the process logger. The development encoder is the
// default; jsonOutput switches to the production JSON encoder.
func NewLogger(level zapcore.Level, jsonOutput bool) (*zap.Logger, error) {
	var c zap.Config
	if jsonOutput {
		c = zap.NewProductionConfig()
	} else {
		c = zap.NewDevelopmentConfig()
		c.EncoderConfig.EncodeCaller = func(
			caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
			p := caller.TrimmedPath()
			if len(p) > 30 {
				p = "..." + p[len(p)-27:]
			}
			enc.AppendString(fmt.Sprintf("%30s", p))
		}
	}
	c.DisableStacktrace = true
	c.Level = zap.NewAtomicLevelAt(level)
	return c.Build()
}
