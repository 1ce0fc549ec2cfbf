package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estateflow/server/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := "checkout:\n  poll_interval: 10ms\n  max_backoff: 20ms\n  poll_timeout: 5s\n"
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return path
}

func run(t *testing.T, backend *httptest.Server, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", writeConfig(t), "--backend-url", backend.URL, "--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestPay(t *testing.T) {
	var polls atomic.Int32
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/payment/create-intent":
			writeJSON(w, http.StatusOK, model.CreatePaymentIntentResponse{ClientSecret: "pi_1_secret_x", Amount: 300000})
		case "/payment/pi_1/status":
			receipt := "https://pay.stripe.com/receipts/r1"
			if polls.Add(1) < 2 {
				writeJSON(w, http.StatusOK, model.PaymentStatusResponse{Status: "processing", Amount: 300000})
				return
			}
			writeJSON(w, http.StatusOK, model.PaymentStatusResponse{Status: "succeeded", Amount: 300000, ReceiptURL: &receipt})
		default:
			http.NotFound(w, r)
		}
	}))
	defer backend.Close()

	out, err := run(t, backend, "pay", "est-1", "--no-confirm")

	require.NoError(t, err)
	assert.Contains(t, out, "processing")
	assert.Contains(t, out, "succeeded")
	assert.Contains(t, out, "3000.00 NOK")
	assert.Contains(t, out, "receipt: https://pay.stripe.com/receipts/r1")
}

func TestWatch_FailedPayment(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, model.PaymentStatusResponse{Status: "canceled", Amount: 300000})
	}))
	defer backend.Close()

	out, err := run(t, backend, "watch", "pi_9")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "cancelled")
	assert.Contains(t, out, "pi_9")
}

func TestCancellationStatus(t *testing.T) {
	t.Run("no cancellation yet", func(t *testing.T) {
		backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, model.NewErrorResponse("NOT_FOUND", "cancellation not found"))
		}))
		defer backend.Close()

		out, err := run(t, backend, "cancellation", "status", "est-1", "tx-1")

		require.NoError(t, err)
		assert.Contains(t, out, "status: none")
	})

	t.Run("prints history", func(t *testing.T) {
		backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/cancellations/est-1/tx-1", r.URL.Path)
			writeJSON(w, http.StatusOK, model.CancellationStatusResponse{
				Status: model.CancellationStatusPending,
				History: []model.CancellationHistoryEntry{
					{Status: model.CancellationStatusPending, Timestamp: "2024-05-01T12:00:00Z", Comment: "Cancellation request created"},
				},
			})
		}))
		defer backend.Close()

		out, err := run(t, backend, "cancellation", "status", "est-1", "tx-1")

		require.NoError(t, err)
		assert.Contains(t, out, "status: pending")
		assert.Contains(t, out, "Cancellation request created")
	})
}

func TestCancellationRequest_ValidatesLocally(t *testing.T) {
	var calls atomic.Int32
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			calls.Add(1)
		}
		writeJSON(w, http.StatusNotFound, model.NewErrorResponse("NOT_FOUND", "cancellation not found"))
	}))
	defer backend.Close()

	_, err := run(t, backend, "cancellation", "request", "est-1", "tx-1", "--method", "letter", "--contact", "email=a@b.no")

	require.Error(t, err)
	assert.Zero(t, calls.Load())
}

func TestCancellationConfirm(t *testing.T) {
	var confirmed atomic.Bool
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		history := []model.CancellationHistoryEntry{
			{Status: model.CancellationStatusPending, Timestamp: "2024-05-01T12:00:00Z", Comment: "Cancellation request created"},
		}
		if r.Method == http.MethodPost {
			var body model.UpdateCancellationStatusRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, model.CancellationStatusConfirmed, body.Status)
			assert.Equal(t, "bekreftet på telefon", body.Comment)
			confirmed.Store(true)
		}
		if confirmed.Load() {
			history = append(history, model.CancellationHistoryEntry{Status: model.CancellationStatusConfirmed, Timestamp: "2024-05-02T09:00:00Z", Comment: "bekreftet på telefon"})
			writeJSON(w, http.StatusOK, model.CancellationStatusResponse{Status: model.CancellationStatusConfirmed, History: history})
			return
		}
		writeJSON(w, http.StatusOK, model.CancellationStatusResponse{Status: model.CancellationStatusPending, History: history})
	}))
	defer backend.Close()

	out, err := run(t, backend, "cancellation", "confirm", "est-1", "tx-1", "--comment", "bekreftet på telefon")

	require.NoError(t, err)
	assert.Contains(t, out, "status: confirmed")
	assert.Contains(t, out, "bekreftet på telefon")
}
