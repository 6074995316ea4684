package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"pix-service/internal/dtos"
	"pix-service/internal/entities"
	internalErrors "pix-service/internal/errors"
	"pix-service/internal/gateway"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("pix-service/services")

const (
	placeholderName     = "Cliente"
	placeholderEmail    = "cliente@email.com"
	placeholderPhone    = "11999999999"
	placeholderDocument = "00000000000"

	SourceCRM = "CRM"
	SourceAPI = "API"
)

type PaymentService struct {
	pm        ProcessorManagerInterface
	registry  ChargeRegistry
	publisher EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewPaymentService(
	pm ProcessorManagerInterface,
	registry ChargeRegistry,
	publisher EventPublisher,
	logger *slog.Logger,
) *PaymentService {
	return &PaymentService{
		pm:        pm,
		registry:  registry,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Process creates one gateway charge for req and hands it to the monitor.
// On failure nothing is registered and the classified error is returned.
func (ps *PaymentService) Process(ctx context.Context, req entities.ChargeRequest) (*entities.Charge, error) {
	req = normalize(req)
	if req.Amount <= 0 {
		return nil, &internalErrors.ChargeError{
			Kind:    internalErrors.KindValidation,
			Message: "amount must be greater than zero",
			Detail:  map[string]any{"amount": req.Amount},
		}
	}

	ref := fmt.Sprintf("%s-%s-%d", req.Source, req.LeadNumber, ps.now().UnixMilli())

	ctx, span := tracer.Start(ctx, "charge.process")
	defer span.End()
	span.SetAttributes(
		attribute.String("charge.reference", ref),
		attribute.String("charge.source", req.Source),
		attribute.Float64("charge.amount", req.Amount),
	)

	ps.logger.Info("creating pix charge",
		"reference", ref,
		"lead", req.LeadNumber,
		"amount", req.Amount,
	)

	result, err := ps.pm.Dispatch(ctx, gateway.ChargeSpec{
		Amount:    req.Amount,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Document:  req.Document,
		Reference: ref,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(internalErrors.KindOf(err)))
		ps.logger.Error("failed to create pix charge",
			"reference", ref,
			"lead", req.LeadNumber,
			"kind", internalErrors.KindOf(err),
			"error", err,
		)
		return nil, err
	}

	charge := &entities.Charge{
		TransactionID:  result.TransactionID,
		CorrelationRef: result.Identifier,
		Amount:         req.Amount,
		Status:         entities.StatusCreated,
		GatewayStatus:  result.Status,
		CreatedAt:      result.CreatedAt.UTC(),
		ExpiresAt:      result.ExpiresAt.UTC(),
		LeadNumber:     req.LeadNumber,
		CustomerName:   req.Name,
		CustomerEmail:  req.Email,
		PaymentCode:    result.PaymentCode,
		QRCodeURL:      result.QRCodeURL,
		QRCodeBase64:   result.QRCodeBase64,
	}
	span.SetAttributes(attribute.String("charge.transaction_id", charge.TransactionID))

	if err := ps.registry.Register(charge); err != nil {
		ps.logger.Warn("charge already monitored",
			"transaction_id", charge.TransactionID,
			"error", err,
		)
	}

	ps.publisher.Publish(ctx, createdEvent(charge))

	ps.logger.Info("pix charge created",
		"transaction_id", charge.TransactionID,
		"lead", charge.LeadNumber,
	)

	return charge, nil
}

func normalize(req entities.ChargeRequest) entities.ChargeRequest {
	req.Name = orPlaceholder(req.Name, placeholderName)
	req.Email = orPlaceholder(req.Email, placeholderEmail)
	req.Phone = orPlaceholder(req.Phone, placeholderPhone)
	req.Document = orPlaceholder(req.Document, placeholderDocument)
	req.LeadNumber = strings.TrimSpace(req.LeadNumber)
	req.Source = orPlaceholder(req.Source, SourceAPI)
	return req
}

func orPlaceholder(value, placeholder string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return placeholder
	}
	return value
}

func createdEvent(c *entities.Charge) dtos.ChargeEvent {
	return dtos.ChargeEvent{
		Type:           dtos.EventChargeCreated,
		Status:         string(c.Status),
		TransactionID:  c.TransactionID,
		CorrelationRef: c.CorrelationRef,
		LeadNumber:     c.LeadNumber,
		Amount:         c.Amount,
		PaymentCode:    c.PaymentCode,
		QRCodeURL:      c.QRCodeURL,
		QRCodeBase64:   c.QRCodeBase64,
		CustomerName:   c.CustomerName,
		CustomerEmail:  c.CustomerEmail,
		CreatedAt:      c.CreatedAt,
		ExpiresAt:      c.ExpiresAt,
	}
}
