//go:build !integration

package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"invoiceflow/internal/domain"
	"invoiceflow/internal/domain/model"
	"invoiceflow/internal/infra/web"
	"invoiceflow/internal/usecase"
)

//
// ---------------- use case mocks ----------------
//

type mockUserUC struct {
	registerFunc     func(ctx context.Context, email, name, password string) (*model.User, error)
	authenticateFunc func(ctx context.Context, email, password string) (*model.User, error)
}

func (m *mockUserUC) Register(ctx context.Context, email, name, password string) (*model.User, error) {
	return m.registerFunc(ctx, email, name, password)
}

func (m *mockUserUC) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	return m.authenticateFunc(ctx, email, password)
}

func (m *mockUserUC) Get(ctx context.Context, id string) (*model.User, error) {
	return nil, domain.ErrNotFound
}

type mockSubUC struct {
	createFunc func(ctx context.Context, userID string, in usecase.SubscriptionInput) (*model.Subscription, error)
	getFunc    func(ctx context.Context, userID, id string) (*model.Subscription, error)
	listFunc   func(ctx context.Context, userID string) ([]*model.Subscription, error)
	pauseFunc  func(ctx context.Context, userID, id string) (*model.Subscription, error)
	resumeFunc func(ctx context.Context, userID, id string) (*model.Subscription, error)
	deleteFunc func(ctx context.Context, userID, id string) error
}

func (m *mockSubUC) Create(ctx context.Context, userID string, in usecase.SubscriptionInput) (*model.Subscription, error) {
	return m.createFunc(ctx, userID, in)
}

func (m *mockSubUC) Get(ctx context.Context, userID, id string) (*model.Subscription, error) {
	return m.getFunc(ctx, userID, id)
}

func (m *mockSubUC) ListByUser(ctx context.Context, userID string) ([]*model.Subscription, error) {
	return m.listFunc(ctx, userID)
}

func (m *mockSubUC) Pause(ctx context.Context, userID, id string) (*model.Subscription, error) {
	return m.pauseFunc(ctx, userID, id)
}

func (m *mockSubUC) Resume(ctx context.Context, userID, id string) (*model.Subscription, error) {
	return m.resumeFunc(ctx, userID, id)
}

func (m *mockSubUC) Delete(ctx context.Context, userID, id string) error {
	return m.deleteFunc(ctx, userID, id)
}

func (m *mockSubUC) RefreshStatusGauge(ctx context.Context) error { return nil }

type mockInvUC struct {
	createFunc   func(ctx context.Context, userID string, in usecase.InvoiceInput) (*model.Invoice, error)
	getFunc      func(ctx context.Context, userID, id string) (*model.Invoice, error)
	listFunc     func(ctx context.Context, userID string) ([]*model.Invoice, error)
	markPaidFunc func(ctx context.Context, userID, id string) (*model.Invoice, error)
}

func (m *mockInvUC) Create(ctx context.Context, userID string, in usecase.InvoiceInput) (*model.Invoice, error) {
	return m.createFunc(ctx, userID, in)
}

func (m *mockInvUC) Get(ctx context.Context, userID, id string) (*model.Invoice, error) {
	return m.getFunc(ctx, userID, id)
}

func (m *mockInvUC) ListByUser(ctx context.Context, userID string) ([]*model.Invoice, error) {
	return m.listFunc(ctx, userID)
}

func (m *mockInvUC) ListBySubscription(ctx context.Context, userID, subscriptionID string) ([]*model.Invoice, error) {
	return nil, nil
}

func (m *mockInvUC) MarkPaid(ctx context.Context, userID, id string) (*model.Invoice, error) {
	return m.markPaidFunc(ctx, userID, id)
}

type mockGenUC struct {
	generateNowFunc func(ctx context.Context, userID, subscriptionID string) (*model.Invoice, error)
}

func (m *mockGenUC) RunPass(ctx context.Context, today time.Time) (*usecase.PassResult, error) {
	return &usecase.PassResult{}, nil
}

func (m *mockGenUC) GenerateNow(ctx context.Context, userID, subscriptionID string) (*model.Invoice, error) {
	return m.generateNowFunc(ctx, userID, subscriptionID)
}

//
// -------------------- helpers --------------------
//

const testUserID = "11111111-1111-1111-1111-111111111111"

func testLogger() *zerolog.Logger { l := zerolog.Nop(); return &l }

func testAuth() *web.AuthManager {
	return web.NewAuthManager("test-secret", time.Hour)
}

func newTestServer(t *testing.T, subs *mockSubUC, invs *mockInvUC, gen *mockGenUC) (http.Handler, string) {
	t.Helper()
	users := &mockUserUC{}
	if subs == nil {
		subs = &mockSubUC{}
	}
	if invs == nil {
		invs = &mockInvUC{}
	}
	if gen == nil {
		gen = &mockGenUC{}
	}
	auth := testAuth()
	srv := web.NewServer(users, subs, invs, gen, auth, testLogger())

	token, err := auth.Mint(testUserID)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return srv.Router(""), token
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func testSubscription() *model.Subscription {
	sub, _ := model.NewSubscription(
		"22222222-2222-2222-2222-222222222222", testUserID,
		"Acme Corp", "billing@acme.example",
		decimal.RequireFromString("0.5"), model.CurrencyETH,
		"Monthly retainer", "0xabc", "",
		model.FrequencyMonthly,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), nil,
		decimal.RequireFromString("1200"),
	)
	return sub
}

//
// -------------------- tests --------------------
//

func TestAuthRegisterAndLogin(t *testing.T) {
	user := &model.User{ID: testUserID, Email: "fred@example.com", Name: "Fred", CreatedAt: time.Now()}
	users := &mockUserUC{
		registerFunc: func(ctx context.Context, email, name, password string) (*model.User, error) {
			if email == "taken@example.com" {
				return nil, domain.ErrAlreadyExists
			}
			return user, nil
		},
		authenticateFunc: func(ctx context.Context, email, password string) (*model.User, error) {
			if password != "s3cret-pass" {
				return nil, domain.ErrInvalidCredentials
			}
			return user, nil
		},
	}
	auth := testAuth()
	srv := web.NewServer(users, &mockSubUC{}, &mockInvUC{}, &mockGenUC{}, auth, testLogger())
	h := srv.Router("")

	t.Run("register returns token", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/api/v1/auth/register", "",
			map[string]string{"email": "fred@example.com", "name": "Fred", "password": "s3cret-pass"})
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201", rec.Code)
		}
		var resp struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Token == "" {
			t.Error("empty token")
		}
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/api/v1/auth/register", "",
			map[string]string{"email": "taken@example.com", "name": "X", "password": "s3cret-pass"})
		if rec.Code != http.StatusConflict {
			t.Errorf("status = %d, want 409", rec.Code)
		}
	})

	t.Run("bad password rejected", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/api/v1/auth/login", "",
			map[string]string{"email": "fred@example.com", "password": "wrong"})
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("login token passes middleware", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/api/v1/auth/login", "",
			map[string]string{"email": "fred@example.com", "password": "s3cret-pass"})
		if rec.Code != http.StatusOK {
			t.Fatalf("login status = %d, want 200", rec.Code)
		}
		var resp struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}

		subs := &mockSubUC{listFunc: func(ctx context.Context, userID string) ([]*model.Subscription, error) {
			if userID != testUserID {
				t.Errorf("userID = %q, want %q", userID, testUserID)
			}
			return nil, nil
		}}
		srv2 := web.NewServer(users, subs, &mockInvUC{}, &mockGenUC{}, auth, testLogger())
		rec2 := doJSON(t, srv2.Router(""), http.MethodGet, "/api/v1/subscriptions/", resp.Token, nil)
		if rec2.Code != http.StatusOK {
			t.Errorf("list status = %d, want 200", rec2.Code)
		}
	})
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	h, _ := newTestServer(t, nil, nil, nil)
	rec := doJSON(t, h, http.MethodGet, "/api/v1/subscriptions/", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestSubscriptionCreate(t *testing.T) {
	subs := &mockSubUC{
		createFunc: func(ctx context.Context, userID string, in usecase.SubscriptionInput) (*model.Subscription, error) {
			if userID != testUserID {
				t.Errorf("userID = %q, want %q", userID, testUserID)
			}
			if in.Currency != model.CurrencyETH || in.Frequency != model.FrequencyMonthly {
				t.Errorf("input not mapped: %+v", in)
			}
			return testSubscription(), nil
		},
	}
	h, token := newTestServer(t, subs, nil, nil)

	body := map[string]string{
		"client_name":     "Acme Corp",
		"client_email":    "billing@acme.example",
		"amount":          "0.5",
		"currency":        "ETH",
		"job_description": "Monthly retainer",
		"wallet_address":  "0xabc",
		"frequency":       "monthly",
		"start_date":      "2024-01-01",
	}
	rec := doJSON(t, h, http.MethodPost, "/api/v1/subscriptions/", token, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		ID              string `json:"id"`
		NextInvoiceDate string `json:"next_invoice_date"`
		Status          string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.NextInvoiceDate != "2024-01-01" {
		t.Errorf("next_invoice_date = %q, want 2024-01-01", resp.NextInvoiceDate)
	}
	if resp.Status != "Active" {
		t.Errorf("status = %q, want Active", resp.Status)
	}
}

func TestSubscriptionCreateBadPayload(t *testing.T) {
	h, token := newTestServer(t, &mockSubUC{}, nil, nil)

	for name, body := range map[string]map[string]string{
		"bad amount":    {"amount": "abc", "currency": "ETH", "frequency": "monthly", "start_date": "2024-01-01"},
		"bad currency":  {"amount": "1", "currency": "DOGE", "frequency": "monthly", "start_date": "2024-01-01"},
		"bad frequency": {"amount": "1", "currency": "ETH", "frequency": "fortnightly", "start_date": "2024-01-01"},
		"bad date":      {"amount": "1", "currency": "ETH", "frequency": "monthly", "start_date": "01/01/2024"},
	} {
		t.Run(name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodPost, "/api/v1/subscriptions/", token, body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestSubscriptionStatusRoutes(t *testing.T) {
	paused := testSubscription()
	paused.Status = model.SubscriptionStatusPaused

	subs := &mockSubUC{
		pauseFunc: func(ctx context.Context, userID, id string) (*model.Subscription, error) {
			return paused, nil
		},
		resumeFunc: func(ctx context.Context, userID, id string) (*model.Subscription, error) {
			return nil, domain.ErrNotActive
		},
		deleteFunc: func(ctx context.Context, userID, id string) error {
			return domain.ErrNotFound
		},
	}
	h, token := newTestServer(t, subs, nil, nil)

	t.Run("pause", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/api/v1/subscriptions/"+paused.ID+"/pause", token, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var resp struct {
			Status string `json:"status"`
		}
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp.Status != "Paused" {
			t.Errorf("status = %q, want Paused", resp.Status)
		}
	})

	t.Run("resume cancelled conflicts", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/api/v1/subscriptions/"+paused.ID+"/resume", token, nil)
		if rec.Code != http.StatusConflict {
			t.Errorf("status = %d, want 409", rec.Code)
		}
	})

	t.Run("delete unknown is 404", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodDelete, "/api/v1/subscriptions/nope", token, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestGenerateNowRoute(t *testing.T) {
	sub := testSubscription()
	gen := &mockGenUC{
		generateNowFunc: func(ctx context.Context, userID, subscriptionID string) (*model.Invoice, error) {
			if subscriptionID != sub.ID {
				t.Errorf("subscriptionID = %q, want %q", subscriptionID, sub.ID)
			}
			return model.MaterializeInvoice("inv_01TEST", sub, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)), nil
		},
	}
	h, token := newTestServer(t, nil, nil, gen)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/subscriptions/"+sub.ID+"/generate", token, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		ID             string  `json:"id"`
		DueDate        string  `json:"due_date"`
		SubscriptionID *string `json:"subscription_id"`
		IsRecurring    bool    `json:"is_recurring"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.DueDate != "2024-02-15" {
		t.Errorf("due_date = %q, want 2024-02-15", resp.DueDate)
	}
	if resp.SubscriptionID == nil || *resp.SubscriptionID != sub.ID {
		t.Error("subscription provenance missing")
	}
	if !resp.IsRecurring {
		t.Error("is_recurring = false, want true")
	}
}

func TestInvoicePayRoute(t *testing.T) {
	invs := &mockInvUC{
		markPaidFunc: func(ctx context.Context, userID, id string) (*model.Invoice, error) {
			if id == "inv_paid" {
				return nil, domain.ErrInvoiceAlreadyPaid
			}
			now := time.Now()
			inv, _ := model.NewInvoice(id, testUserID, "Acme", "a@b.co",
				decimal.RequireFromString("100"), model.CurrencyUSDT, "Work", "0xabc",
				now.AddDate(0, 1, 0), "", decimal.RequireFromString("100"))
			_ = inv.MarkPaid(now)
			return inv, nil
		},
	}
	h, token := newTestServer(t, nil, invs, nil)

	t.Run("pay", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/api/v1/invoices/inv_01OK/pay", token, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var resp struct {
			Status string `json:"status"`
		}
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp.Status != "Paid" {
			t.Errorf("status = %q, want Paid", resp.Status)
		}
	})

	t.Run("double pay conflicts", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/api/v1/invoices/inv_paid/pay", token, nil)
		if rec.Code != http.StatusConflict {
			t.Errorf("status = %d, want 409", rec.Code)
		}
	})
}

func TestHealthRoute(t *testing.T) {
	h, _ := newTestServer(t, nil, nil, nil)
	rec := doJSON(t, h, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
