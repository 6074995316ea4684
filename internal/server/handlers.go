package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"pix-service/internal/config"
	"pix-service/internal/dtos"
	"pix-service/internal/entities"
	internalErrors "pix-service/internal/errors"
	"pix-service/internal/services"
)

const callbackEventPaid = "TRANSACTION_PAID"

// intakeAliases lists, per field, the body keys each intake route accepts.
type intakeAliases struct {
	name, email, phone, document []string
}

var (
	crmAliases = intakeAliases{
		name:     []string{"nome", "name", "customer_name", "contact_name"},
		email:    []string{"email", "customer_email", "contact_email"},
		phone:    []string{"telefone", "phone", "customer_phone", "contact_phone"},
		document: []string{"documento", "cpf", "document", "customer_document"},
	}
	apiAliases = intakeAliases{
		name:     []string{"nome", "name"},
		email:    []string{"email"},
		phone:    []string{"telefone", "phone"},
		document: []string{"documento", "cpf"},
	}
)

func (s *HttpServer) crmWebhook(w http.ResponseWriter, r *http.Request) {
	s.createCharge(w, r, services.SourceCRM, crmAliases)
}

func (s *HttpServer) generatePix(w http.ResponseWriter, r *http.Request) {
	s.createCharge(w, r, services.SourceAPI, apiAliases)
}

func (s *HttpServer) createCharge(w http.ResponseWriter, r *http.Request, source string, aliases intakeAliases) {
	body, err := decodeBody(r)
	if err != nil {
		s.logger.Error("cannot decode request body", "path", r.URL.Path, "error", err)
		s.writeError(w, internalErrors.Wrap(internalErrors.KindValidation, "request body is not valid JSON", err))
		return
	}

	req := entities.ChargeRequest{
		Amount:     s.cfg.ChargeAmount,
		Name:       firstString(body, aliases.name...),
		Email:      firstString(body, aliases.email...),
		Phone:      firstString(body, aliases.phone...),
		Document:   firstString(body, aliases.document...),
		LeadNumber: firstString(body, "numero_do_lead", "telefone", "phone"),
		Source:     source,
	}

	var charge *entities.Charge
	err = s.admission.Run(r.Context(), func(ctx context.Context) error {
		c, err := s.ps.Process(ctx, req)
		if err != nil {
			return err
		}
		charge = c
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	var qrBase64 *string
	if charge.QRCodeBase64 != "" {
		qrBase64 = &charge.QRCodeBase64
	}

	writeJSON(w, http.StatusOK, dtos.ChargeResponse{
		Success:    true,
		Message:    "PIX gerado com sucesso",
		LeadNumber: charge.LeadNumber,
		Pix: dtos.PixPayload{
			PaymentCode:   charge.PaymentCode,
			QRCodeURL:     charge.QRCodeURL,
			QRCodeBase64:  qrBase64,
			TransactionID: charge.TransactionID,
			Status:        charge.GatewayStatus,
			Amount:        charge.Amount,
			ExpiresAt:     charge.ExpiresAt,
		},
	})
}

func (s *HttpServer) gatewayCallback(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var callback dtos.GatewayCallback
	if err := json.NewDecoder(r.Body).Decode(&callback); err != nil {
		s.logger.Error("cannot decode gateway callback", "error", err)
		s.writeError(w, internalErrors.Wrap(internalErrors.KindValidation, "callback body is not valid JSON", err))
		return
	}

	paid := callback.Event == callbackEventPaid ||
		(callback.Transaction != nil && callback.Transaction.Status == config.StatusPaid)

	transactionID := callback.TransactionID
	if callback.ID != "" {
		transactionID = callback.ID
	}
	if callback.Transaction != nil && callback.Transaction.ID != "" {
		transactionID = callback.Transaction.ID
	}

	response := dtos.CallbackResponse{Received: true}
	if paid && transactionID != "" {
		response.Confirmed = s.monitor.Confirm(r.Context(), transactionID)
		s.logger.Info("gateway reported payment",
			"transaction_id", transactionID,
			"event", callback.Event,
			"confirmed", response.Confirmed,
		)
	} else {
		s.logger.Info("gateway callback ignored", "event", callback.Event, "transaction_id", transactionID)
	}

	writeJSON(w, http.StatusOK, response)
}

func (s *HttpServer) healthCheck(w http.ResponseWriter, r *http.Request) {
	stats := s.admission.Stats()
	monitor := s.monitor.Status()

	err := writeJSON(w, http.StatusOK, dtos.HealthResponse{
		Status:    "ok",
		Uptime:    time.Since(s.startedAt).Seconds(),
		Timestamp: time.Now().UTC().Format(config.DateTimeFormat),
		Admission: dtos.AdmissionStatsPayload{
			InFlight:       stats.InFlight,
			MaxConcurrent:  stats.MaxConcurrent,
			TotalProcessed: stats.TotalProcessed,
			TotalErrors:    stats.TotalFailed,
			TotalRejected:  stats.TotalRejected,
		},
		Monitor: dtos.MonitorSummaryPayload{
			Active:  monitor.Active,
			Pending: monitor.Pending,
		},
		Env: dtos.HealthEnvPayload{
			GatewayConfigured: s.cfg.GatewayConfigured(),
			CRMConfigured:     s.cfg.CRMWebhookURL != "",
			Port:              s.cfg.Port,
		},
	})
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (s *HttpServer) monitorStatus(w http.ResponseWriter, r *http.Request) {
	status := s.monitor.Status()

	pending := make([]dtos.PendingChargePayload, 0, len(status.PendingItems))
	for _, item := range status.PendingItems {
		pending = append(pending, dtos.PendingChargePayload{
			TransactionID: item.TransactionID,
			LeadNumber:    item.LeadNumber,
			Amount:        item.Amount,
			CreatedAt:     item.CreatedAt,
			Attempts:      item.PollAttempts,
		})
	}

	writeJSON(w, http.StatusOK, dtos.MonitorStatusResponse{
		Active:          status.Active,
		TotalPending:    status.Pending,
		IntervalSeconds: status.Interval.Seconds(),
		MaxAttempts:     status.MaxAttempts,
		Pending:         pending,
	})
}

// decodeBody reads a JSON object body. An empty body decodes to an empty map.
func decodeBody(r *http.Request) (map[string]any, error) {
	defer r.Body.Close()

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}

	body := map[string]any{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return body, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&body); err != nil {
		return nil, err
	}
	return body, nil
}
