package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pix-service/internal/config"
	"pix-service/internal/dtos"
	internalErrors "pix-service/internal/errors"
	"pix-service/internal/retry"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("pix-service/gateway")

type Options struct {
	BaseURL       string
	PublicKey     string
	SecretKey     string
	ProductName   string
	ValidityDays  int
	CreateTimeout time.Duration
	StatusTimeout time.Duration
}

type Client struct {
	opts       Options
	httpClient *http.Client
	now        func() time.Time
}

func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = config.DefaultAPIURL
	}
	opts.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")
	if opts.ProductName == "" {
		opts.ProductName = config.DefaultProductName
	}
	if opts.ValidityDays <= 0 {
		opts.ValidityDays = 1
	}
	if opts.CreateTimeout <= 0 {
		opts.CreateTimeout = 30 * time.Second
	}
	if opts.StatusTimeout <= 0 {
		opts.StatusTimeout = 15 * time.Second
	}

	return &Client{
		opts: opts,
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 25,
				IdleConnTimeout:     90 * time.Second,
				ForceAttemptHTTP2:   true,
			},
		},
		now: time.Now,
	}
}

func (c *Client) CreateCharge(ctx context.Context, spec ChargeSpec) (*ChargeResult, error) {
	if c.opts.PublicKey == "" || c.opts.SecretKey == "" {
		return nil, &internalErrors.ChargeError{
			Kind:    internalErrors.KindConfiguration,
			Message: "gateway credentials are not configured, check MP_PUBLIC_KEY and MP_SECRET_KEY",
			Err:     internalErrors.ErrMissingCredentials,
		}
	}

	ctx, span := tracer.Start(ctx, "gateway.create_charge")
	defer span.End()

	now := c.now()
	identifier := correlationToken(spec.Reference, now)
	expiresAt := now.AddDate(0, 0, c.opts.ValidityDays)
	dueDate := expiresAt.UTC().Format(config.DueDateFormat)

	request := dtos.CreateChargeRequest{
		Identifier: identifier,
		Amount:     spec.Amount,
		Client: dtos.GatewayClient{
			Name:     spec.Name,
			Email:    spec.Email,
			Phone:    formatPhone(spec.Phone),
			Document: formatDocument(spec.Document),
		},
		Products: []dtos.GatewayProduct{{
			ID:       fmt.Sprintf("prod-%d", now.UnixMilli()),
			Name:     c.opts.ProductName,
			Quantity: 1,
			Price:    spec.Amount,
		}},
		DueDate: dueDate,
		Metadata: dtos.GatewayMetadata{
			Reference:   spec.Reference,
			Kind:        "PIX_AUTOMATICO",
			GeneratedAt: now.UTC().Format(config.DateTimeFormat),
		},
	}
	span.SetAttributes(
		attribute.String("charge.identifier", identifier),
		attribute.Float64("charge.amount", spec.Amount),
	)

	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, internalErrors.Wrap(internalErrors.KindInternal, "failed to marshal charge request", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.opts.CreateTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.opts.BaseURL+"/gateway/pix/receive", bytes.NewReader(jsonData))
	if err != nil {
		return nil, internalErrors.Wrap(internalErrors.KindInternal, "creating charge request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setHeaders(req)

	body, err := c.do(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(internalErrors.KindOf(err)))
		return nil, err
	}

	var response dtos.CreateChargeResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, &internalErrors.ChargeError{
			Kind:    internalErrors.KindMalformedResponse,
			Message: "gateway returned an unreadable charge response",
			Detail:  string(body),
			Err:     err,
		}
	}

	if response.Pix == nil || response.Pix.Code == "" {
		return nil, &internalErrors.ChargeError{
			Kind:    internalErrors.KindMalformedResponse,
			Message: "gateway did not return the pix code",
			Detail:  rawJSON(body),
			Err:     internalErrors.ErrMissingPaymentCode,
		}
	}

	if response.TransactionID == "" {
		return nil, &internalErrors.ChargeError{
			Kind:    internalErrors.KindMalformedResponse,
			Message: "gateway did not return the transaction id",
			Detail:  rawJSON(body),
			Err:     internalErrors.ErrMissingTransactionID,
		}
	}

	qrCodeURL := response.Pix.Image
	if qrCodeURL == "" {
		qrCodeURL = config.QRCodeFallbackURL + url.QueryEscape(response.Pix.Code)
	}

	result := &ChargeResult{
		TransactionID: response.TransactionID,
		Status:        response.Status,
		PaymentCode:   response.Pix.Code,
		QRCodeURL:     qrCodeURL,
		QRCodeBase64:  response.Pix.Base64,
		Identifier:    identifier,
		CreatedAt:     now,
		ExpiresAt:     expiresAt,
		Fee:           response.Fee,
	}
	if response.Order != nil {
		result.OrderID = response.Order.ID
		result.OrderURL = response.Order.URL
	}
	span.SetAttributes(attribute.String("charge.transaction_id", result.TransactionID))

	return result, nil
}

func (c *Client) QueryStatus(ctx context.Context, transactionID string) (*StatusResult, error) {
	ctx, span := tracer.Start(ctx, "gateway.query_status")
	defer span.End()
	span.SetAttributes(attribute.String("charge.transaction_id", transactionID))

	reqCtx, cancel := context.WithTimeout(ctx, c.opts.StatusTimeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/gateway/transactions?id=%s", c.opts.BaseURL, url.QueryEscape(transactionID))
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, internalErrors.Wrap(internalErrors.KindInternal, "creating status request", err)
	}
	c.setHeaders(req)

	body, err := c.do(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(internalErrors.KindOf(err)))
		return nil, err
	}

	var response dtos.TransactionStatusResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, &internalErrors.ChargeError{
			Kind:    internalErrors.KindMalformedResponse,
			Message: "gateway returned an unreadable status response",
			Detail:  string(body),
			Err:     err,
		}
	}

	return &StatusResult{TransactionID: transactionID, Status: response.Status}, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-public-key", c.opts.PublicKey)
	req.Header.Set("x-secret-key", c.opts.SecretKey)
}

// do sends req and returns the body of a 2xx response. Every other outcome
// is returned as a classified *ChargeError.
func (c *Client) do(ctx context.Context, req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, internalErrors.Wrap(internalErrors.KindInternal, "request cancelled", ctx.Err())
		}
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, internalErrors.Wrap(internalErrors.KindTransientNetwork, "failed to read gateway response", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}

	return nil, classifyStatus(resp.StatusCode, body)
}

func classifyStatus(status int, body []byte) error {
	var errResp dtos.GatewayErrorResponse
	_ = json.Unmarshal(body, &errResp)

	gatewayMessage := errResp.Message
	if gatewayMessage == "" {
		gatewayMessage = errResp.Error
	}

	ce := &internalErrors.ChargeError{StatusCode: status, Detail: rawJSON(body)}
	switch {
	case status == http.StatusUnauthorized:
		ce.Kind = internalErrors.KindConfiguration
		ce.Message = "invalid gateway credentials, check your PagamentosMP keys"
	case status == http.StatusBadRequest:
		ce.Kind = internalErrors.KindValidation
		ce.Message = orDefault(gatewayMessage, "invalid data sent to the gateway")
	case status == http.StatusUnprocessableEntity:
		ce.Kind = internalErrors.KindValidation
		ce.Message = orDefault(errResp.Message, "gateway validation failed")
	case status == http.StatusTooManyRequests:
		ce.Kind = internalErrors.KindRateLimit
		ce.Message = "gateway rate limit reached"
	case status >= 500:
		ce.Kind = internalErrors.KindServer
		ce.Message = orDefault(gatewayMessage, fmt.Sprintf("gateway returned HTTP %d", status))
	default:
		ce.Kind = internalErrors.KindValidation
		ce.Message = orDefault(gatewayMessage, fmt.Sprintf("gateway returned HTTP %d", status))
	}

	return ce
}

func classifyTransportError(err error) error {
	message := "failed to reach the payment gateway"
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		message = "timeout while calling the payment gateway"
	}
	return internalErrors.Wrap(internalErrors.KindTransientNetwork, message, err)
}

// Classify is the retry classifier for gateway failures.
func Classify(err error) retry.Class {
	if internalErrors.IsRetryable(err) {
		return retry.Retryable
	}
	return retry.Fatal
}

// correlationToken builds the gateway identifier. The random suffix keeps two
// attempts issued in the same millisecond for the same reference apart.
func correlationToken(reference string, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("PIXAUTO-%s-%d-%s", reference, now.UnixMilli(), suffix)
}

func rawJSON(body []byte) any {
	var decoded any
	if err := json.Unmarshal(body, &decoded); err == nil {
		return decoded
	}
	if len(body) == 0 {
		return nil
	}
	return string(body)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
