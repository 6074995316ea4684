package config

import "time"

const (
	// Format used for gateway due dates
	DueDateFormat = "2006-01-02"

	// Standardized date format for consistency across all components
	DateTimeFormat = "2006-01-02T15:04:05.000Z"

	// Transaction status the gateway reports once the charge is paid
	StatusPaid = "COMPLETED"

	// Horizon used to size the monitor's attempt budget when none is configured
	MonitorHorizon = 24 * time.Hour

	// Log a waiting charge once every N polls
	MonitorProgressEvery = 20

	DefaultAPIURL      = "https://app.pagamentosmp.com/api/v1"
	DefaultAmount      = 12.90
	DefaultProductName = "Pagamento PIX"
	QRCodeFallbackURL  = "https://api.qrserver.com/v1/create-qr-code/?size=300x300&data="
)
