package gateway

import (
	"context"
	"time"
)

type PaymentGatewayInterface interface {
	CreateCharge(ctx context.Context, spec ChargeSpec) (*ChargeResult, error)
	QueryStatus(ctx context.Context, transactionID string) (*StatusResult, error)
}

// ChargeSpec is what the gateway needs to issue one PIX charge.
type ChargeSpec struct {
	Amount    float64
	Name      string
	Email     string
	Phone     string
	Document  string
	Reference string
}

type ChargeResult struct {
	TransactionID string
	Status        string
	PaymentCode   string
	QRCodeURL     string
	QRCodeBase64  string
	Identifier    string
	CreatedAt     time.Time
	ExpiresAt     time.Time
	Fee           float64
	OrderID       string
	OrderURL      string
}

type StatusResult struct {
	TransactionID string
	Status        string
}
