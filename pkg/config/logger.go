package config

import (
	"fmt"

	"github.com/example/dinein/pkg/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Build creates the process logger described by c.
func (c LogConfig) Build() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.EncoderConfig.TimeKey = "ts"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if c.Encoding != "" {
		zc.Encoding = c.Encoding
	}
	if len(c.OutputPaths) > 0 {
		zc.OutputPaths = c.OutputPaths
	}
	return zc.Build()
}

func (c DineConfig) Methods() []models.PaymentMethod {
	methods := make([]models.PaymentMethod, 0, len(c.PaymentMethods))
	for _, m := range c.PaymentMethods {
		methods = append(methods, models.PaymentMethod(m))
	}
	return methods
}

// TaxRate parses GSTRate, treating an unreadable value as zero.
func (c DineConfig) TaxRate() decimal.Decimal {
	rate, err := decimal.NewFromString(c.GSTRate)
	if err != nil {
		return decimal.Zero
	}
	return rate
}
