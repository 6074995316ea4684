package entities

import "time"

type ChargeStatus string

const (
	StatusCreated   ChargeStatus = "CREATED"
	StatusConfirmed ChargeStatus = "CONFIRMED"
	StatusExpired   ChargeStatus = "EXPIRED"
)

// ChargeRequest is the normalized intake of one charge creation.
type ChargeRequest struct {
	Amount     float64
	Name       string
	Email      string
	Phone      string
	Document   string
	LeadNumber string
	Source     string
}

// Charge is one gateway charge from creation until it is confirmed or expires.
type Charge struct {
	TransactionID  string
	CorrelationRef string
	Amount         float64
	Status         ChargeStatus
	GatewayStatus  string
	CreatedAt      time.Time
	ExpiresAt      time.Time
	ConfirmedAt    time.Time
	PollAttempts   int

	LeadNumber    string
	CustomerName  string
	CustomerEmail string

	PaymentCode  string
	QRCodeURL    string
	QRCodeBase64 string
}

type PendingCharge struct {
	TransactionID string
	LeadNumber    string
	Amount        float64
	CreatedAt     time.Time
	PollAttempts  int
}

type MonitorStatus struct {
	Active       bool
	Pending      int
	Interval     time.Duration
	MaxAttempts  int
	PendingItems []PendingCharge
}

type AdmissionStats struct {
	InFlight       int64
	MaxConcurrent  int64
	TotalProcessed int64
	TotalFailed    int64
	TotalRejected  int64
}
