package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/pointsledger/internal/bus"
	domainErrors "github.com/polkiloo/pointsledger/internal/domain/errors"
	"github.com/polkiloo/pointsledger/internal/domain/model"
	"github.com/polkiloo/pointsledger/internal/ledger"
	"github.com/polkiloo/pointsledger/internal/server/http/dto"
	testhelpers "github.com/polkiloo/pointsledger/internal/test"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performRequest(t *testing.T, method, route, path string, handler gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	router := gin.New()
	router.Handle(method, route, handler)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestHealth(t *testing.T) {
	resp := performRequest(t, http.MethodGet, "/healthz", "/healthz", NewOpsHandler(testhelpers.OpsFacadeStub{}).Health)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	resp = performRequest(t, http.MethodGet, "/healthz", "/healthz", NewOpsHandler(testhelpers.OpsFacadeStub{HealthErr: errors.New("down")}).Health)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
	var body dto.HealthResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil || body.Error != "down" {
		t.Fatalf("unexpected body: %s", resp.Body.String())
	}
}

func TestInterventions(t *testing.T) {
	resp := performRequest(t, http.MethodGet, "/i", "/i", NewOpsHandler(testhelpers.OpsFacadeStub{}).Interventions)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}

	facade := testhelpers.OpsFacadeStub{InterventionFn: func(context.Context) ([]model.Intervention, error) {
		return []model.Intervention{{ID: "i-1", Source: "saga:owner_deletion", Subject: "account:acc-1", Step: "StartLoyaltyBankDeletion", CreatedAt: time.Unix(0, 0)}}, nil
	}}
	resp = performRequest(t, http.MethodGet, "/i", "/i", NewOpsHandler(facade).Interventions)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var items []dto.InterventionResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 || items[0].Subject != "account:acc-1" {
		t.Fatalf("unexpected items: %+v", items)
	}

	facade = testhelpers.OpsFacadeStub{InterventionFn: func(context.Context) ([]model.Intervention, error) {
		return nil, errors.New("db")
	}}
	resp = performRequest(t, http.MethodGet, "/i", "/i", NewOpsHandler(facade).Interventions)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}

func TestSaga(t *testing.T) {
	facade := testhelpers.OpsFacadeStub{SagaFn: func(_ context.Context, sagaType, id string) (*model.SagaRecord, error) {
		if sagaType != "loyalty_bank_deletion" || id != "lb-1" {
			return nil, domainErrors.ErrNotFound
		}
		return &model.SagaRecord{Type: sagaType, ID: id, Phase: "expiring_points", State: []byte(`{"loyalty_bank_id":"lb-1"}`)}, nil
	}}
	handler := NewOpsHandler(facade).Saga

	resp := performRequest(t, http.MethodGet, "/sagas/:type/:id", "/sagas/loyalty_bank_deletion/lb-1", handler)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body dto.SagaResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Phase != "expiring_points" || string(body.State) != `{"loyalty_bank_id":"lb-1"}` {
		t.Fatalf("unexpected body: %+v", body)
	}

	resp = performRequest(t, http.MethodGet, "/sagas/:type/:id", "/sagas/loyalty_bank_deletion/lb-2", handler)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestHalts(t *testing.T) {
	resp := performRequest(t, http.MethodGet, "/halts", "/halts", NewOpsHandler(testhelpers.OpsFacadeStub{}).Halts)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}

	facade := testhelpers.OpsFacadeStub{
		HaltList: []bus.Halt{{Subscriber: "expiration", AggregateID: "lb-1"}},
		ResumeFn: func(subscriber, aggregateID string) bool { return subscriber == "expiration" && aggregateID == "lb-1" },
	}
	resp = performRequest(t, http.MethodGet, "/halts", "/halts", NewOpsHandler(facade).Halts)
	var halts []dto.HaltResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &halts); err != nil || len(halts) != 1 {
		t.Fatalf("unexpected halts: %s", resp.Body.String())
	}

	route := "/halts/:subscriber/:aggregate/resume"
	resp = performRequest(t, http.MethodPost, route, "/halts/expiration/lb-1/resume", NewOpsHandler(facade).ResumeHalt)
	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.Code)
	}
	resp = performRequest(t, http.MethodPost, route, "/halts/redemption/lb-1/resume", NewOpsHandler(facade).ResumeHalt)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestLoyaltyBank(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	facade := testhelpers.OpsFacadeStub{
		BankFn: func(_ context.Context, id string) (ledger.LoyaltyBank, error) {
			switch id {
			case "lb-1":
				return ledger.LoyaltyBank{ID: id, AccountID: "acc-1", BusinessID: "biz-1",
					Balances: model.Balances{Earned: 100, Captured: 60}}, nil
			case "gone":
				return ledger.LoyaltyBank{ID: id, Deleted: true}, nil
			}
			return ledger.LoyaltyBank{}, domainErrors.ErrNotFound
		},
		QueueFn: func(context.Context, string) ([]model.PointBatch, error) {
			return []model.PointBatch{{TransactionID: "tx-1", Points: 40, CreatedAt: created}}, nil
		},
	}
	handler := NewOpsHandler(facade).LoyaltyBank

	resp := performRequest(t, http.MethodGet, "/banks/:id", "/banks/lb-1", handler)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body dto.LoyaltyBankResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Available != 40 || len(body.Batches) != 1 || body.Batches[0].Points != 40 {
		t.Fatalf("unexpected body: %+v", body)
	}

	for _, id := range []string{"gone", "missing"} {
		resp = performRequest(t, http.MethodGet, "/banks/:id", "/banks/"+id, handler)
		if resp.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", id, resp.Code)
		}
	}
}
