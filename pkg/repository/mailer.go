package repository

import (
	"context"

	"github.com/example/dinein/pkg/models"
	"go.uber.org/zap"
)

// LogMailer stands in for an SMTP relay and only logs what would be sent.
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger.Named("mailer")}
}

func (m *LogMailer) SendBill(ctx context.Context, bill *models.Bill, address string) error {
	m.logger.Info("Bill email queued",
		zap.String("bill_id", bill.ID),
		zap.String("number", bill.Number),
		zap.String("to", address),
		zap.String("total", bill.TotalAmount.StringFixed(2)))
	return nil
}
