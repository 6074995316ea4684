package dtos

import "time"

// Intake payloads accept several aliases per field; the first non-empty wins.

type ChargeResponse struct {
	Success    bool       `json:"success"`
	Message    string     `json:"message"`
	LeadNumber string     `json:"lead_number"`
	Pix        PixPayload `json:"pix"`
}

type PixPayload struct {
	PaymentCode   string    `json:"payment_code"`
	QRCodeURL     string    `json:"qrcode_url"`
	QRCodeBase64  *string   `json:"qrcode_base64"`
	TransactionID string    `json:"transaction_id"`
	Status        string    `json:"status"`
	Amount        float64   `json:"amount"`
	ExpiresAt     time.Time `json:"expires_at"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Kind    string `json:"kind"`
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

type CallbackResponse struct {
	Received  bool `json:"received"`
	Confirmed bool `json:"confirmed"`
}

type HealthResponse struct {
	Status    string                `json:"status"`
	Uptime    float64               `json:"uptime_seconds"`
	Timestamp string                `json:"timestamp"`
	Admission AdmissionStatsPayload `json:"admission"`
	Monitor   MonitorSummaryPayload `json:"monitor"`
	Env       HealthEnvPayload      `json:"env"`
}

type AdmissionStatsPayload struct {
	InFlight       int64 `json:"in_flight"`
	MaxConcurrent  int64 `json:"max_concurrent"`
	TotalProcessed int64 `json:"total_processed"`
	TotalErrors    int64 `json:"total_errors"`
	TotalRejected  int64 `json:"total_rejected"`
}

type MonitorSummaryPayload struct {
	Active  bool `json:"active"`
	Pending int  `json:"pending"`
}

type HealthEnvPayload struct {
	GatewayConfigured bool   `json:"mp_configured"`
	CRMConfigured     bool   `json:"crm_configured"`
	Port              string `json:"port"`
}

type MonitorStatusResponse struct {
	Active          bool                   `json:"active"`
	TotalPending    int                    `json:"total_pending"`
	IntervalSeconds float64                `json:"interval_seconds"`
	MaxAttempts     int                    `json:"max_attempts"`
	Pending         []PendingChargePayload `json:"pending"`
}

type PendingChargePayload struct {
	TransactionID string    `json:"transaction_id"`
	LeadNumber    string    `json:"lead_number"`
	Amount        float64   `json:"amount"`
	CreatedAt     time.Time `json:"created_at"`
	Attempts      int       `json:"attempts"`
}

// Notification events.

type EventType string

const (
	EventChargeCreated   EventType = "charge.created"
	EventChargeConfirmed EventType = "charge.confirmed"
)

type ChargeEvent struct {
	ID             string    `json:"id"`
	Type           EventType `json:"event"`
	Status         string    `json:"status"`
	TransactionID  string    `json:"transaction_id"`
	CorrelationRef string    `json:"correlation_ref"`
	LeadNumber     string    `json:"lead_number"`
	Amount         float64   `json:"amount"`
	PaymentCode    string    `json:"payment_code"`
	QRCodeURL      string    `json:"qrcode_url,omitempty"`
	QRCodeBase64   string    `json:"qrcode_base64,omitempty"`
	CustomerName   string    `json:"customer_name,omitempty"`
	CustomerEmail  string    `json:"customer_email,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	ExpiresAt      time.Time `json:"expires_at"`
	ConfirmedAt    time.Time `json:"confirmed_at,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}
