package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"invoiceflow/internal/domain"
	"invoiceflow/internal/domain/model"
	"invoiceflow/internal/usecase"
)

const dateLayout = "2006-01-02"

// ---------- request bodies ----------

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type subscriptionCreateRequest struct {
	ClientName     string `json:"client_name"`
	ClientEmail    string `json:"client_email"`
	Amount         string `json:"amount"`
	Currency       string `json:"currency"`
	JobDescription string `json:"job_description"`
	WalletAddress  string `json:"wallet_address"`
	Notes          string `json:"notes"`
	Frequency      string `json:"frequency"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date,omitempty"`
}

type invoiceCreateRequest struct {
	ClientName     string `json:"client_name"`
	ClientEmail    string `json:"client_email"`
	Amount         string `json:"amount"`
	Currency       string `json:"currency"`
	JobDescription string `json:"job_description"`
	WalletAddress  string `json:"wallet_address"`
	DueDate        string `json:"due_date"`
	Notes          string `json:"notes"`
}

// ---------- response bodies ----------

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type subscriptionResponse struct {
	ID                     string    `json:"id"`
	ClientName             string    `json:"client_name"`
	ClientEmail            string    `json:"client_email"`
	Amount                 string    `json:"amount"`
	Currency               string    `json:"currency"`
	JobDescription         string    `json:"job_description"`
	WalletAddress          string    `json:"wallet_address"`
	Notes                  string    `json:"notes,omitempty"`
	Frequency              string    `json:"frequency"`
	StartDate              string    `json:"start_date"`
	EndDate                *string   `json:"end_date,omitempty"`
	NextInvoiceDate        string    `json:"next_invoice_date"`
	LastInvoiceDate        *string   `json:"last_invoice_date,omitempty"`
	TotalInvoicesGenerated int       `json:"total_invoices_generated"`
	Status                 string    `json:"status"`
	FiatEquivalent         string    `json:"fiat_equivalent"`
	CreatedAt              time.Time `json:"created_at"`
}

type invoiceResponse struct {
	ID             string     `json:"id"`
	ClientName     string     `json:"client_name"`
	ClientEmail    string     `json:"client_email"`
	JobDescription string     `json:"job_description"`
	Amount         string     `json:"amount"`
	Currency       string     `json:"currency"`
	WalletAddress  string     `json:"wallet_address"`
	PaymentURI     string     `json:"payment_uri"`
	DueDate        string     `json:"due_date"`
	Notes          string     `json:"notes,omitempty"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	PaidAt         *time.Time `json:"paid_at,omitempty"`
	FiatEquivalent string     `json:"fiat_equivalent"`
	SubscriptionID *string    `json:"subscription_id,omitempty"`
	IsRecurring    bool       `json:"is_recurring"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Name: u.Name, CreatedAt: u.CreatedAt}
}

func toSubscriptionResponse(s *model.Subscription) subscriptionResponse {
	resp := subscriptionResponse{
		ID:                     s.ID,
		ClientName:             s.ClientName,
		ClientEmail:            s.ClientEmail,
		Amount:                 s.Amount.String(),
		Currency:               string(s.Currency),
		JobDescription:         s.JobDescription,
		WalletAddress:          s.WalletAddress,
		Notes:                  s.Notes,
		Frequency:              string(s.Frequency),
		StartDate:              s.StartDate.Format(dateLayout),
		NextInvoiceDate:        s.NextInvoiceDate.Format(dateLayout),
		TotalInvoicesGenerated: s.TotalInvoicesGenerated,
		Status:                 string(s.Status),
		FiatEquivalent:         s.FiatEquivalent.StringFixed(2),
		CreatedAt:              s.CreatedAt,
	}
	if s.EndDate != nil {
		d := s.EndDate.Format(dateLayout)
		resp.EndDate = &d
	}
	if s.LastInvoiceDate != nil {
		d := s.LastInvoiceDate.Format(dateLayout)
		resp.LastInvoiceDate = &d
	}
	return resp
}

func toInvoiceResponse(i *model.Invoice) invoiceResponse {
	return invoiceResponse{
		ID:             i.ID,
		ClientName:     i.ClientName,
		ClientEmail:    i.ClientEmail,
		JobDescription: i.JobDescription,
		Amount:         i.Amount.String(),
		Currency:       string(i.Currency),
		WalletAddress:  i.WalletAddress,
		PaymentURI:     i.Currency.PaymentURI(i.WalletAddress, i.Amount),
		DueDate:        i.DueDate.Format(dateLayout),
		Notes:          i.Notes,
		Status:         string(i.Status),
		CreatedAt:      i.CreatedAt,
		PaidAt:         i.PaidAt,
		FiatEquivalent: i.FiatEquivalent.StringFixed(2),
		SubscriptionID: i.SubscriptionID,
		IsRecurring:    i.IsRecurring,
	}
}

func toInvoiceListResponse(invoices []*model.Invoice) []invoiceResponse {
	out := make([]invoiceResponse, 0, len(invoices))
	for _, i := range invoices {
		out = append(out, toInvoiceResponse(i))
	}
	return out
}

// ---------- helpers ----------

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDomainError maps sentinel errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		http.Error(w, "Invalid request", http.StatusBadRequest)
	case errors.Is(err, domain.ErrInvalidCredentials):
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrAlreadyExists):
		http.Error(w, "Already exists", http.StatusConflict)
	case errors.Is(err, domain.ErrNotActive):
		http.Error(w, "Subscription is not active", http.StatusConflict)
	case errors.Is(err, domain.ErrInvoiceAlreadyPaid):
		http.Error(w, "Invoice already paid", http.StatusConflict)
	case errors.Is(err, domain.ErrVersionConflict), errors.Is(err, domain.ErrLockNotAcquired):
		http.Error(w, "Concurrent update, retry", http.StatusConflict)
	case errors.Is(err, domain.ErrRateUnavailable):
		http.Error(w, "Exchange rate unavailable", http.StatusBadGateway)
	default:
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

// ---------- auth ----------

func (s *Server) registerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		user, err := s.userUC.Register(r.Context(), req.Email, req.Name, req.Password)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		token, err := s.auth.Mint(user.ID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		s.runCatchUp()
		writeJSON(w, http.StatusCreated, authResponse{Token: token, User: toUserResponse(user)})
	}
}

func (s *Server) loginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		user, err := s.userUC.Authenticate(r.Context(), req.Email, req.Password)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		token, err := s.auth.Mint(user.ID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		s.runCatchUp()
		writeJSON(w, http.StatusOK, authResponse{Token: token, User: toUserResponse(user)})
	}
}

// ---------- subscriptions ----------

func (s *Server) subscriptionCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req subscriptionCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		in, err := subscriptionInputFrom(req)
		if err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		sub, err := s.subUC.Create(r.Context(), userIDFrom(r), in)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toSubscriptionResponse(sub))
	}
}

func subscriptionInputFrom(req subscriptionCreateRequest) (usecase.SubscriptionInput, error) {
	var in usecase.SubscriptionInput

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return in, domain.ErrInvalidArgument
	}
	currency, err := model.ParseCurrency(req.Currency)
	if err != nil {
		return in, err
	}
	freq, ok := model.ParseFrequency(req.Frequency)
	if !ok {
		return in, domain.ErrInvalidArgument
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		return in, domain.ErrInvalidArgument
	}
	var end *time.Time
	if req.EndDate != "" {
		d, err := parseDate(req.EndDate)
		if err != nil {
			return in, domain.ErrInvalidArgument
		}
		end = &d
	}

	in = usecase.SubscriptionInput{
		ClientName:     req.ClientName,
		ClientEmail:    req.ClientEmail,
		Amount:         amount,
		Currency:       currency,
		JobDescription: req.JobDescription,
		WalletAddress:  req.WalletAddress,
		Notes:          req.Notes,
		Frequency:      freq,
		StartDate:      start,
		EndDate:        end,
	}
	return in, nil
}

func (s *Server) subscriptionListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subs, err := s.subUC.ListByUser(r.Context(), userIDFrom(r))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		out := make([]subscriptionResponse, 0, len(subs))
		for _, sub := range subs {
			out = append(out, toSubscriptionResponse(sub))
		}
		writeJSON(w, http.StatusOK, struct {
			Data []subscriptionResponse `json:"data"`
		}{Data: out})
	}
}

func (s *Server) subscriptionGetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, err := s.subUC.Get(r.Context(), userIDFrom(r), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSubscriptionResponse(sub))
	}
}

func (s *Server) subscriptionDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.subUC.Delete(r.Context(), userIDFrom(r), chi.URLParam(r, "id")); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) subscriptionPauseHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, err := s.subUC.Pause(r.Context(), userIDFrom(r), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSubscriptionResponse(sub))
	}
}

func (s *Server) subscriptionResumeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, err := s.subUC.Resume(r.Context(), userIDFrom(r), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSubscriptionResponse(sub))
	}
}

func (s *Server) subscriptionGenerateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inv, err := s.genUC.GenerateNow(r.Context(), userIDFrom(r), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toInvoiceResponse(inv))
	}
}

// ---------- invoices ----------

func (s *Server) invoiceCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req invoiceCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		amount, err := decimal.NewFromString(req.Amount)
		if err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		currency, err := model.ParseCurrency(req.Currency)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		due, err := parseDate(req.DueDate)
		if err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		inv, err := s.invUC.Create(r.Context(), userIDFrom(r), usecase.InvoiceInput{
			ClientName:     req.ClientName,
			ClientEmail:    req.ClientEmail,
			Amount:         amount,
			Currency:       currency,
			JobDescription: req.JobDescription,
			WalletAddress:  req.WalletAddress,
			DueDate:        due,
			Notes:          req.Notes,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toInvoiceResponse(inv))
	}
}

// invoiceListHandler lists the caller's invoices, optionally narrowed to a
// single subscription via ?subscription_id=.
func (s *Server) invoiceListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			invoices []*model.Invoice
			err      error
		)
		if subID := r.URL.Query().Get("subscription_id"); subID != "" {
			invoices, err = s.invUC.ListBySubscription(r.Context(), userIDFrom(r), subID)
		} else {
			invoices, err = s.invUC.ListByUser(r.Context(), userIDFrom(r))
		}
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Data []invoiceResponse `json:"data"`
		}{Data: toInvoiceListResponse(invoices)})
	}
}

func (s *Server) invoiceGetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inv, err := s.invUC.Get(r.Context(), userIDFrom(r), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toInvoiceResponse(inv))
	}
}

func (s *Server) invoicePayHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inv, err := s.invUC.MarkPaid(r.Context(), userIDFrom(r), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toInvoiceResponse(inv))
	}
}
