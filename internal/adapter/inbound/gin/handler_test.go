package gin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/estateflow/server/internal/model"
	"github.com/estateflow/server/internal/port/outbound"
	apperrors "github.com/estateflow/server/internal/utils/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- Mocks ---

type MockPaymentDomain struct {
	mock.Mock
}

func (m *MockPaymentDomain) CreatePaymentIntent(ctx context.Context, estateID string) (*model.CreatePaymentIntentResponse, error) {
	args := m.Called(ctx, estateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CreatePaymentIntentResponse), args.Error(1)
}

func (m *MockPaymentDomain) GetPaymentStatus(ctx context.Context, id string) (*model.PaymentStatusResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentStatusResponse), args.Error(1)
}

func (m *MockPaymentDomain) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	args := m.Called(ctx, payload, signature)
	return args.Error(0)
}

type MockEstateDomain struct {
	mock.Mock
}

func (m *MockEstateDomain) CreateEstate(ctx context.Context, req *model.CreateEstateRequest) (*model.Estate, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Estate), args.Error(1)
}

func (m *MockEstateDomain) GetEstate(ctx context.Context, id string) (*model.Estate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Estate), args.Error(1)
}

func (m *MockEstateDomain) HandlePaymentEvent(ctx context.Context, event outbound.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type MockTransactionDomain struct {
	mock.Mock
}

func (m *MockTransactionDomain) ListTransactions(ctx context.Context, estateID string) (*model.TransactionList, error) {
	args := m.Called(ctx, estateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TransactionList), args.Error(1)
}

func (m *MockTransactionDomain) ReplaceTransactions(ctx context.Context, estateID string, txs []model.Transaction) (*model.TransactionList, error) {
	args := m.Called(ctx, estateID, txs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TransactionList), args.Error(1)
}

func (m *MockTransactionDomain) RequestCancellation(ctx context.Context, req *model.CancellationRequest) (*model.CancellationArtifact, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CancellationArtifact), args.Error(1)
}

func (m *MockTransactionDomain) GetCancellation(ctx context.Context, estateID, transactionID string) (*model.CancellationStatusResponse, error) {
	args := m.Called(ctx, estateID, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CancellationStatusResponse), args.Error(1)
}

func (m *MockTransactionDomain) UpdateCancellationStatus(ctx context.Context, estateID, transactionID string, req *model.UpdateCancellationStatusRequest) (*model.CancellationStatusResponse, error) {
	args := m.Called(ctx, estateID, transactionID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CancellationStatusResponse), args.Error(1)
}

// --- Helpers ---

type testServer struct {
	router       *gin.Engine
	payments     *MockPaymentDomain
	estates      *MockEstateDomain
	transactions *MockTransactionDomain
}

func newTestServer() *testServer {
	s := &testServer{
		router:       gin.New(),
		payments:     new(MockPaymentDomain),
		estates:      new(MockEstateDomain),
		transactions: new(MockTransactionDomain),
	}
	api := s.router.Group("")
	RegisterPaymentRoutes(api, NewPaymentAdapter(s.payments), Guards{})
	RegisterWebhookRoutes(api, NewWebhookAdapter(s.payments))
	RegisterEstateRoutes(api, NewEstateAdapter(s.estates), Guards{})
	RegisterTransactionRoutes(api, NewTransactionAdapter(s.transactions), Guards{})
	return s
}

func (s *testServer) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) model.ErrorResponse {
	t.Helper()
	var resp model.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// --- Tests ---

func TestPaymentAdapter_CreatePaymentIntent(t *testing.T) {
	t.Run("returns client secret", func(t *testing.T) {
		s := newTestServer()
		s.payments.On("CreatePaymentIntent", mock.Anything, "est-1").
			Return(&model.CreatePaymentIntentResponse{ClientSecret: "pi_1_secret_x", Amount: 300000, PaymentIntentID: "pi_1"}, nil)

		w := s.do(http.MethodPost, "/payment/create-intent", gin.H{"estate_id": "est-1"}, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"client_secret":"pi_1_secret_x","amount":300000,"payment_intent_id":"pi_1"}`, w.Body.String())
	})

	t.Run("missing estate id", func(t *testing.T) {
		s := newTestServer()

		w := s.do(http.MethodPost, "/payment/create-intent", gin.H{}, nil)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", decodeError(t, w).Code)
	})

	t.Run("estate not found", func(t *testing.T) {
		s := newTestServer()
		s.payments.On("CreatePaymentIntent", mock.Anything, "nope").Return(nil, apperrors.Validation("Estate not found"))

		w := s.do(http.MethodPost, "/payment/create-intent", gin.H{"estate_id": "nope"}, nil)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		resp := decodeError(t, w)
		assert.Equal(t, "VALIDATION_ERROR", resp.Code)
		assert.Equal(t, "Estate not found", resp.Detail)
	})

	t.Run("internal error hides cause", func(t *testing.T) {
		s := newTestServer()
		s.payments.On("CreatePaymentIntent", mock.Anything, "est-1").
			Return(nil, apperrors.Internal("create payment intent", errors.New("dial tcp: refused")))

		w := s.do(http.MethodPost, "/payment/create-intent", gin.H{"estate_id": "est-1"}, nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "refused")
	})
}

func TestPaymentAdapter_GetPaymentStatus(t *testing.T) {
	s := newTestServer()
	s.payments.On("GetPaymentStatus", mock.Anything, "pi_1").
		Return(&model.PaymentStatusResponse{Status: "processing", Amount: 300000}, nil)

	w := s.do(http.MethodGet, "/payment/pi_1/status", nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"processing","amount":300000,"receipt_url":null}`, w.Body.String())
}

func TestWebhookAdapter_HandleStripeWebhook(t *testing.T) {
	t.Run("passes raw payload and signature", func(t *testing.T) {
		s := newTestServer()
		s.payments.On("HandleWebhook", mock.Anything, []byte(`{"id":"evt_1"}`), "t=1,v1=abc").Return(nil)

		w := s.do(http.MethodPost, "/payment/webhook", `{"id":"evt_1"}`, map[string]string{"Stripe-Signature": "t=1,v1=abc"})

		assert.Equal(t, http.StatusOK, w.Code)
		s.payments.AssertExpectations(t)
	})

	t.Run("missing signature header", func(t *testing.T) {
		s := newTestServer()

		w := s.do(http.MethodPost, "/payment/webhook", `{}`, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		s.payments.AssertNotCalled(t, "HandleWebhook", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("bad signature", func(t *testing.T) {
		s := newTestServer()
		s.payments.On("HandleWebhook", mock.Anything, mock.Anything, "bad").Return(apperrors.Validation("invalid webhook signature"))

		w := s.do(http.MethodPost, "/payment/webhook", `{}`, map[string]string{"Stripe-Signature": "bad"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_SIGNATURE", decodeError(t, w).Code)
	})
}

func TestEstateAdapter(t *testing.T) {
	t.Run("create", func(t *testing.T) {
		s := newTestServer()
		s.estates.On("CreateEstate", mock.Anything, mock.MatchedBy(func(r *model.CreateEstateRequest) bool {
			return r.DeceasedName == "Kari Nordmann"
		})).Return(&model.Estate{ID: "est-1", DeceasedName: "Kari Nordmann", Status: model.EstateStatusActive}, nil)

		w := s.do(http.MethodPost, "/estates", gin.H{"deceased_name": "Kari Nordmann"}, nil)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"active"`)
	})

	t.Run("get missing", func(t *testing.T) {
		s := newTestServer()
		s.estates.On("GetEstate", mock.Anything, "x").Return(nil, apperrors.NotFound("estate"))

		w := s.do(http.MethodGet, "/estates/x", nil, nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestTransactionAdapter_RequestCancellation(t *testing.T) {
	t.Run("numeric contact values are stringified", func(t *testing.T) {
		s := newTestServer()
		letter := "Oppsigelse"
		s.transactions.On("RequestCancellation", mock.Anything, mock.MatchedBy(func(r *model.CancellationRequest) bool {
			return r.CancellationMethod == model.CancellationMethodLetter &&
				r.ContactInfo["address"] == "Storgata 1" &&
				r.ContactInfo["customer_number"] == "12345"
		})).Return(&model.CancellationArtifact{
			TransactionID: "tx-1",
			LetterText:    &letter,
			ContactInfo:   map[string]string{"address": "Storgata 1", "customer_number": "12345"},
		}, nil)

		w := s.do(http.MethodPost, "/transaction/cancel", gin.H{
			"transaction_id":      "tx-1",
			"estate_id":           "est-1",
			"cancellation_method": "letter",
			"contact_info":        gin.H{"address": "Storgata 1", "customer_number": 12345},
		}, nil)

		require.Equal(t, http.StatusOK, w.Code)
		var artifact model.CancellationArtifact
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &artifact))
		assert.Equal(t, "Oppsigelse", artifact.Text())
		assert.Nil(t, artifact.EmailText)
		s.transactions.AssertExpectations(t)
	})

	t.Run("terminal cancellation conflicts", func(t *testing.T) {
		s := newTestServer()
		s.transactions.On("RequestCancellation", mock.Anything, mock.Anything).
			Return(nil, apperrors.TerminalState("cancellation is already confirmed"))

		w := s.do(http.MethodPost, "/transaction/cancel", gin.H{
			"transaction_id":      "tx-1",
			"estate_id":           "est-1",
			"cancellation_method": "email",
			"contact_info":        gin.H{"email": "a@b.no"},
		}, nil)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "TERMINAL_STATE", decodeError(t, w).Code)
	})
}

func TestTransactionAdapter_Cancellations(t *testing.T) {
	t.Run("get not found", func(t *testing.T) {
		s := newTestServer()
		s.transactions.On("GetCancellation", mock.Anything, "est-1", "tx-1").Return(nil, apperrors.NotFound("cancellation"))

		w := s.do(http.MethodGet, "/cancellations/est-1/tx-1", nil, nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("update status", func(t *testing.T) {
		s := newTestServer()
		s.transactions.On("UpdateCancellationStatus", mock.Anything, "est-1", "tx-1", &model.UpdateCancellationStatusRequest{
			Status:  model.CancellationStatusConfirmed,
			Comment: "ok",
		}).Return(&model.CancellationStatusResponse{
			Status: model.CancellationStatusConfirmed,
			History: []model.CancellationHistoryEntry{
				{Status: model.CancellationStatusPending, Timestamp: "2024-05-01T12:00:00Z", Comment: "Cancellation request created"},
				{Status: model.CancellationStatusConfirmed, Timestamp: "2024-05-02T12:00:00Z", Comment: "ok"},
			},
		}, nil)

		w := s.do(http.MethodPost, "/cancellations/est-1/tx-1/status", gin.H{"status": "confirmed", "comment": "ok"}, nil)

		require.Equal(t, http.StatusOK, w.Code)
		var resp model.CancellationStatusResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp.History, 2)
		assert.Equal(t, model.CancellationStatusConfirmed, resp.Status)
	})
}

func TestTransactionAdapter_ListTransactions(t *testing.T) {
	s := newTestServer()
	s.transactions.On("ListTransactions", mock.Anything, "est-1").
		Return(&model.TransactionList{EstateID: "est-1", Transactions: []model.Transaction{}}, nil)

	w := s.do(http.MethodGet, "/transactions/est-1", nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"estate_id":"est-1","transactions":[]}`, w.Body.String())
}

func TestGuards_RunBeforeHandler(t *testing.T) {
	s := &testServer{router: gin.New(), payments: new(MockPaymentDomain)}
	blocked := func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, model.NewErrorResponse("RATE_LIMIT_EXCEEDED", "slow down"))
	}
	RegisterPaymentRoutes(s.router.Group(""), NewPaymentAdapter(s.payments), Guards{Mutate: gin.HandlersChain{blocked}})

	w := s.do(http.MethodPost, "/payment/create-intent", gin.H{"estate_id": "est-1"}, nil)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	s.payments.AssertNotCalled(t, "CreatePaymentIntent", mock.Anything, mock.Anything)
}
