package backendapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/estateflow/server/internal/infra/config"
	"github.com/estateflow/server/internal/model"
	"github.com/estateflow/server/internal/port/outbound"
	apperrors "github.com/estateflow/server/internal/utils/errors"
)

const maxResponseBytes = 1 << 20

// Recorder receives per-request observations.
type Recorder interface {
	RecordGatewayRequest(operation, result string, duration time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordGatewayRequest(string, string, time.Duration) {}

// Client talks to the estate backend over HTTP. Transport failures and 5xx
// responses count against a circuit breaker; an open breaker fails fast with a
// network error.
type Client struct {
	baseURL  string
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker[[]byte]
	recorder Recorder
	logger   *zap.Logger
}

// Compile-time check
var _ outbound.StatusGatewayPort = (*Client)(nil)

// NewClient creates a new backend API client.
func NewClient(baseURL string, httpClient *http.Client, cb config.CircuitBreakerConfig, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	threshold := cb.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     httpClient,
		recorder: nopRecorder{},
		logger:   logger.Named("backend-api"),
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "backend-api",
		MaxRequests: cb.MaxRequests,
		Interval:    cb.Interval,
		Timeout:     cb.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// Client errors say nothing about backend health.
		IsSuccessful: func(err error) bool {
			return err == nil || !apperrors.IsNetwork(err) || throttled(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return c
}

// SetRecorder sets the metrics recorder.
func (c *Client) SetRecorder(r Recorder) {
	if r == nil {
		r = nopRecorder{}
	}
	c.recorder = r
}

// BreakerState returns the current circuit breaker state.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

func (c *Client) CreatePaymentIntent(ctx context.Context, estateID string) (*model.PaymentRecord, error) {
	var resp model.CreatePaymentIntentResponse
	body := model.CreatePaymentIntentRequest{EstateID: estateID}
	if err := c.do(ctx, "create_payment_intent", http.MethodPost, "/payment/create-intent", body, &resp); err != nil {
		return nil, err
	}

	id := resp.PaymentIntentID
	if id == "" {
		var ok bool
		if id, ok = model.PaymentIntentIDFromSecret(resp.ClientSecret); !ok {
			return nil, apperrors.Internal("cannot derive payment intent id from create response", nil)
		}
	}

	return &model.PaymentRecord{
		PaymentIntentID: id,
		ClientSecret:    resp.ClientSecret,
		Amount:          resp.Amount,
		Status:          model.PaymentStatusRequiresPaymentMethod,
	}, nil
}

func (c *Client) FetchPaymentStatus(ctx context.Context, paymentIntentID string) (*model.PaymentRecord, error) {
	var resp model.PaymentStatusResponse
	path := "/payment/" + url.PathEscape(paymentIntentID) + "/status"
	if err := c.do(ctx, "fetch_payment_status", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	status, err := model.ParsePaymentStatus(resp.Status)
	if err != nil {
		c.logger.Debug("unrecognised payment status",
			zap.String("payment_intent_id", paymentIntentID),
			zap.String("status", resp.Status))
	}

	return &model.PaymentRecord{
		PaymentIntentID: paymentIntentID,
		Amount:          resp.Amount,
		Status:          status,
		ReceiptURL:      resp.ReceiptURL,
	}, nil
}

// cancelResponse tolerates non-string contact info values.
type cancelResponse struct {
	TransactionID string         `json:"transaction_id"`
	Letter        *string        `json:"cancellation_letter"`
	Email         *string        `json:"cancellation_email"`
	ContactInfo   map[string]any `json:"contact_info"`
}

func (c *Client) RequestCancellation(ctx context.Context, req *model.CancellationRequest) (*model.CancellationArtifact, error) {
	var resp cancelResponse
	if err := c.do(ctx, "request_cancellation", http.MethodPost, "/transaction/cancel", req, &resp); err != nil {
		return nil, err
	}

	contact, err := cast.ToStringMapStringE(resp.ContactInfo)
	if err != nil {
		contact = map[string]string{}
	}
	return &model.CancellationArtifact{
		TransactionID: resp.TransactionID,
		LetterText:    resp.Letter,
		EmailText:     resp.Email,
		ContactInfo:   contact,
	}, nil
}

func (c *Client) FetchCancellationStatus(ctx context.Context, estateID, transactionID string) (*model.CancellationRecord, error) {
	var resp model.CancellationStatusResponse
	if err := c.do(ctx, "fetch_cancellation_status", http.MethodGet, cancellationPath(estateID, transactionID), nil, &resp); err != nil {
		return nil, err
	}
	return toRecord(estateID, transactionID, &resp), nil
}

func (c *Client) AdvanceCancellationStatus(ctx context.Context, estateID, transactionID string, status model.CancellationStatus, comment string) (*model.CancellationRecord, error) {
	var resp model.CancellationStatusResponse
	body := model.UpdateCancellationStatusRequest{Status: status, Comment: comment}
	if err := c.do(ctx, "advance_cancellation_status", http.MethodPost, cancellationPath(estateID, transactionID)+"/status", body, &resp); err != nil {
		return nil, err
	}
	return toRecord(estateID, transactionID, &resp), nil
}

func cancellationPath(estateID, transactionID string) string {
	return "/cancellations/" + url.PathEscape(estateID) + "/" + url.PathEscape(transactionID)
}

func toRecord(estateID, transactionID string, resp *model.CancellationStatusResponse) *model.CancellationRecord {
	history := resp.History
	if history == nil {
		history = []model.CancellationHistoryEntry{}
	}
	return &model.CancellationRecord{
		TransactionID: transactionID,
		EstateID:      estateID,
		Status:        resp.Status,
		History:       history,
	}
}

// do sends a JSON request through the circuit breaker and decodes a 2xx body
// into out.
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	start := time.Now()

	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return apperrors.Internal("encode request", err)
		}
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.roundTrip(ctx, op, method, path, payload)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = apperrors.Network(op, err)
	}
	c.recorder.RecordGatewayRequest(op, resultLabel(err), time.Since(start))
	if err != nil {
		return err
	}

	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return apperrors.Internal("decode "+op+" response", err)
		}
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, op, method, path string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, apperrors.Internal("create request", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.Network(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, apperrors.Network(op, fmt.Errorf("read body: %w", err))
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusNotFound && op == "create_payment_intent":
		// A missing estate means the estate cannot be paid for.
		msg := errorMessage(body)
		if msg == "" {
			msg = "Estate not found"
		}
		return nil, apperrors.Validation(msg).WithDetails(map[string]any{"status": resp.StatusCode})
	case resp.StatusCode == http.StatusNotFound:
		return nil, apperrors.NotFound(resourceOf(op)).WithDetails(map[string]any{"detail": errorMessage(body)})
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusRequestTimeout:
		return nil, apperrors.Network(op, fmt.Errorf("status %d: %s", resp.StatusCode, errorMessage(body))).
			WithDetails(map[string]any{"status": resp.StatusCode})
	case resp.StatusCode == http.StatusConflict && errorCode(body) == "TERMINAL_STATE":
		return nil, apperrors.TerminalState(errorMessage(body))
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		msg := errorMessage(body)
		if msg == "" {
			msg = fmt.Sprintf("%s rejected with status %d", op, resp.StatusCode)
		}
		return nil, apperrors.Validation(msg).WithDetails(map[string]any{"status": resp.StatusCode})
	default:
		return nil, apperrors.Network(op, fmt.Errorf("status %d: %s", resp.StatusCode, errorMessage(body)))
	}
}

// errorMessage extracts a message from an error body, accepting both
// {"detail": "..."} and {"message": "..."} shapes.
func errorMessage(body []byte) string {
	var e model.ErrorResponse
	if err := json.Unmarshal(body, &e); err != nil {
		return strings.TrimSpace(string(body))
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Detail
}

func errorCode(body []byte) string {
	var e model.ErrorResponse
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	return e.Code
}

func resourceOf(op string) string {
	switch op {
	case "fetch_payment_status":
		return "payment intent"
	case "fetch_cancellation_status", "advance_cancellation_status":
		return "cancellation"
	case "request_cancellation":
		return "transaction"
	default:
		return "estate"
	}
}

// throttled reports whether the backend answered 408 or 429.
func throttled(err error) bool {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return false
	}
	code, _ := appErr.Details["status"].(int)
	return code == http.StatusTooManyRequests || code == http.StatusRequestTimeout
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case apperrors.IsNetwork(err):
		return "network_error"
	case apperrors.IsNotFound(err):
		return "not_found"
	case apperrors.IsValidation(err):
		return "validation_error"
	default:
		return "error"
	}
}
