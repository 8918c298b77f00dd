package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/exptrack/exptrack/internal/model"
	"github.com/exptrack/exptrack/internal/service"
)

type fakeLedger struct {
	err error

	listInput   service.ListExpensesInput
	listOutput  *service.ListExpensesOutput
	totals      []model.CategoryTotal
	aggArgs     []string
	createInput *service.CreateExpenseInput
	updateInput *service.UpdateExpenseInput
	deletedID   string
	bulkIDs     []string
	bulkCount   int64
}

func (f *fakeLedger) ListExpenses(ctx context.Context, input service.ListExpensesInput) (*service.ListExpensesOutput, error) {
	f.listInput = input
	if f.err != nil {
		return nil, f.err
	}
	return f.listOutput, nil
}

func (f *fakeLedger) AggregateExpenses(ctx context.Context, userID, startDate, endDate string) ([]model.CategoryTotal, error) {
	f.aggArgs = []string{userID, startDate, endDate}
	return f.totals, f.err
}

func (f *fakeLedger) CreateExpense(ctx context.Context, input service.CreateExpenseInput) (*model.Expense, error) {
	f.createInput = &input
	if f.err != nil {
		return nil, f.err
	}
	return &model.Expense{
		ID:       "exp-1",
		UserID:   input.UserID,
		Category: input.Category,
		Amount:   input.Amount,
		Date:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}, nil
}

func (f *fakeLedger) UpdateExpense(ctx context.Context, input service.UpdateExpenseInput) (*model.Expense, error) {
	f.updateInput = &input
	if f.err != nil {
		return nil, f.err
	}
	return &model.Expense{ID: input.ID, UserID: input.UserID, Category: "Food"}, nil
}

func (f *fakeLedger) DeleteExpense(ctx context.Context, id, userID string) error {
	f.deletedID = id
	return f.err
}

func (f *fakeLedger) BulkDeleteExpenses(ctx context.Context, userID string, ids []string) (int64, error) {
	f.bulkIDs = ids
	return f.bulkCount, f.err
}

func newExpenseRouter(svc ExpenseLedger) http.Handler {
	h := NewExpenseHandler(svc, discardLogger())
	return newTestRouter("user-1", func(r chi.Router) {
		r.Get("/api/expenses", h.List)
		r.Get("/api/expenses/analytics", h.Analytics)
		r.Post("/api/expenses", h.Create)
		r.Put("/api/expenses/{id}", h.Update)
		r.Delete("/api/expenses/{id}", h.Delete)
		r.Delete("/api/expenses", h.BulkDelete)
	})
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestExpenseHandler_ListPassesQuery(t *testing.T) {
	svc := &fakeLedger{listOutput: &service.ListExpensesOutput{
		Expenses: []*model.Expense{{ID: "e1", UserID: "user-1", Category: "Food", Amount: 12.5}},
		Total:    25,
		Page:     3,
		Limit:    10,
	}}

	rec := serve(newExpenseRouter(svc), http.MethodGet,
		"/api/expenses?filter=custom&startDate=2024-01-01&endDate=2024-01-31&category=Food&page=3&limit=10&sortBy=amount&sortOrder=asc", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
	}

	want := service.ListExpensesInput{
		UserID:    "user-1",
		Filter:    "custom",
		StartDate: "2024-01-01",
		EndDate:   "2024-01-31",
		Category:  "Food",
		Page:      3,
		Limit:     10,
		SortBy:    "amount",
		SortOrder: "asc",
	}
	if svc.listInput != want {
		t.Errorf("input = %+v, want %+v", svc.listInput, want)
	}

	var body struct {
		Expenses []map[string]any `json:"expenses"`
		Total    int64            `json:"total"`
		Page     int              `json:"page"`
		Limit    int              `json:"limit"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Total != 25 || body.Page != 3 || body.Limit != 10 || len(body.Expenses) != 1 {
		t.Errorf("unexpected body: %+v", body)
	}
	if tags, ok := body.Expenses[0]["tags"].([]any); !ok || len(tags) != 0 {
		t.Errorf("tags = %v, want empty array", body.Expenses[0]["tags"])
	}
}

func TestExpenseHandler_ListRejectsBadPaging(t *testing.T) {
	svc := &fakeLedger{}
	rec := serve(newExpenseRouter(svc), http.MethodGet, "/api/expenses?page=zero&limit=-5", "")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	fields := decodeFieldErrors(t, rec)
	if fields["page"] == "" || fields["limit"] == "" {
		t.Errorf("field errors = %v", fields)
	}
}

func TestExpenseHandler_ListServiceErrors(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantMsg    string
	}{
		{service.ErrInvalidFilter, http.StatusBadRequest, "Invalid filter"},
		{service.ErrInvalidSort, http.StatusBadRequest, "Invalid sort field"},
		{service.ErrInvalidDate, http.StatusBadRequest, "Invalid date format"},
		{errors.New("timeout"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.wantMsg, func(t *testing.T) {
			rec := serve(newExpenseRouter(&fakeLedger{err: tt.err}), http.MethodGet, "/api/expenses", "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if msg := decodeMsg(t, rec); msg != tt.wantMsg {
				t.Errorf("msg = %q, want %q", msg, tt.wantMsg)
			}
		})
	}
}

func TestExpenseHandler_AnalyticsRouteWins(t *testing.T) {
	svc := &fakeLedger{totals: []model.CategoryTotal{
		{Category: "Food", TotalAmount: 40, Count: 3},
		{Category: "Travel", TotalAmount: 15.5, Count: 1},
	}}

	rec := serve(newExpenseRouter(svc), http.MethodGet, "/api/expenses/analytics?startDate=2024-01-01", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if strings.Join(svc.aggArgs, "|") != "user-1|2024-01-01|" {
		t.Errorf("aggregate args = %v", svc.aggArgs)
	}

	var rows []map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 2 || rows[0]["category"] != "Food" || rows[0]["totalAmount"] != 40.0 || rows[0]["count"] != 3.0 {
		t.Errorf("rows = %v", rows)
	}
}

func TestExpenseHandler_AnalyticsEmpty(t *testing.T) {
	rec := serve(newExpenseRouter(&fakeLedger{}), http.MethodGet, "/api/expenses/analytics", "")
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("body = %s, want []", body)
	}
}

func TestExpenseHandler_Create(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		svcErr     error
		wantStatus int
		wantFields []string
		wantMsg    string
		wantAmount float64
	}{
		{
			name:       "numeric amount",
			body:       `{"category":"Food","amount":12.5,"description":"lunch","tags":["work"]}`,
			wantStatus: http.StatusOK,
			wantAmount: 12.5,
		},
		{
			name:       "string amount",
			body:       `{"category":"Food","amount":"7"}`,
			wantStatus: http.StatusOK,
			wantAmount: 7,
		},
		{
			name:       "missing category and negative amount",
			body:       `{"amount":-3}`,
			wantStatus: http.StatusBadRequest,
			wantFields: []string{"category", "amount"},
		},
		{
			name:       "fractional cents rounded",
			body:       `{"category":"Food","amount":12.346}`,
			wantStatus: http.StatusOK,
			wantAmount: 12.35,
		},
		{
			name:       "amount beyond column range",
			body:       `{"category":"Food","amount":1e12}`,
			wantStatus: http.StatusBadRequest,
			wantFields: []string{"amount"},
		},
		{
			name:       "missing amount",
			body:       `{"category":"Food"}`,
			wantStatus: http.StatusBadRequest,
			wantFields: []string{"amount"},
		},
		{
			name:       "unknown category",
			body:       `{"category":"Nope","amount":1}`,
			svcErr:     service.ErrInvalidCategory,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Category does not exist",
		},
		{
			name:       "bad date",
			body:       `{"category":"Food","amount":1,"date":"yesterday"}`,
			svcErr:     service.ErrInvalidDate,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid date format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeLedger{err: tt.svcErr}
			rec := serve(newExpenseRouter(svc), http.MethodPost, "/api/expenses", tt.body)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			switch {
			case tt.wantFields != nil:
				fields := decodeFieldErrors(t, rec)
				for _, f := range tt.wantFields {
					if fields[f] == "" {
						t.Errorf("missing field error for %s: %v", f, fields)
					}
				}
				if svc.createInput != nil {
					t.Error("service called despite validation errors")
				}
			case tt.wantMsg != "":
				if msg := decodeMsg(t, rec); msg != tt.wantMsg {
					t.Errorf("msg = %q, want %q", msg, tt.wantMsg)
				}
			default:
				if svc.createInput.Amount != tt.wantAmount {
					t.Errorf("amount = %v, want %v", svc.createInput.Amount, tt.wantAmount)
				}
				if svc.createInput.UserID != "user-1" {
					t.Errorf("user = %q", svc.createInput.UserID)
				}
			}
		})
	}
}

func TestExpenseHandler_UpdatePartial(t *testing.T) {
	svc := &fakeLedger{}
	rec := serve(newExpenseRouter(svc), http.MethodPut, "/api/expenses/exp-9", `{"amount":20,"tags":[]}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	in := svc.updateInput
	if in.ID != "exp-9" || in.UserID != "user-1" {
		t.Errorf("id/user = %q/%q", in.ID, in.UserID)
	}
	if in.Amount == nil || *in.Amount != 20 {
		t.Errorf("amount = %v, want 20", in.Amount)
	}
	if in.Category != nil || in.Description != nil || in.Date != nil {
		t.Errorf("unexpected fields set: %+v", in)
	}
	if in.Tags == nil || len(*in.Tags) != 0 {
		t.Errorf("tags = %v, want explicit empty list", in.Tags)
	}
}

func TestExpenseHandler_UpdateErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		svcErr     error
		wantStatus int
		wantMsg    string
	}{
		{"not found", `{}`, service.ErrExpenseNotFound, http.StatusNotFound, "Expense not found"},
		{"not owner", `{}`, service.ErrNotOwner, http.StatusUnauthorized, "Not authorized"},
		{"unknown category", `{"category":"X"}`, service.ErrInvalidCategory, http.StatusBadRequest, "Category does not exist"},
		{"bad date", `{"date":"31/12/2024"}`, service.ErrInvalidDate, http.StatusBadRequest, "Invalid date format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(newExpenseRouter(&fakeLedger{err: tt.svcErr}), http.MethodPut, "/api/expenses/exp-1", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if msg := decodeMsg(t, rec); msg != tt.wantMsg {
				t.Errorf("msg = %q, want %q", msg, tt.wantMsg)
			}
		})
	}
}

func TestExpenseHandler_UpdateRejectsBadAmount(t *testing.T) {
	svc := &fakeLedger{}
	rec := serve(newExpenseRouter(svc), http.MethodPut, "/api/expenses/exp-1", `{"amount":"lots"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := decodeFieldErrors(t, rec)["amount"]; got != "Amount must be a positive number" {
		t.Errorf("amount error = %q", got)
	}
	if svc.updateInput != nil {
		t.Error("service called with invalid amount")
	}
}

func TestExpenseHandler_Delete(t *testing.T) {
	tests := []struct {
		name       string
		svcErr     error
		wantStatus int
		wantMsg    string
	}{
		{"removed", nil, http.StatusOK, "Expense removed"},
		{"not found", service.ErrExpenseNotFound, http.StatusNotFound, "Expense not found"},
		{"not owner", service.ErrNotOwner, http.StatusUnauthorized, "Not authorized"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeLedger{err: tt.svcErr}
			rec := serve(newExpenseRouter(svc), http.MethodDelete, "/api/expenses/exp-3", "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if msg := decodeMsg(t, rec); msg != tt.wantMsg {
				t.Errorf("msg = %q, want %q", msg, tt.wantMsg)
			}
			if svc.deletedID != "exp-3" {
				t.Errorf("deleted = %q", svc.deletedID)
			}
		})
	}
}

func TestExpenseHandler_BulkDelete(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		count      int64
		svcErr     error
		wantStatus int
		wantMsg    string
	}{
		{"removes owned", `{"expenseIds":["a","b","c"]}`, 2, nil, http.StatusOK, "2 expenses removed"},
		{"missing field", `{}`, 0, nil, http.StatusBadRequest, "Provide an array of expense IDs"},
		{"empty list", `{"expenseIds":[]}`, 0, nil, http.StatusBadRequest, "Provide an array of expense IDs"},
		{"not an array", `{"expenseIds":"a"}`, 0, nil, http.StatusBadRequest, "Provide an array of expense IDs"},
		{"nothing owned", `{"expenseIds":["x"]}`, 0, service.ErrNoExpensesDeleted, http.StatusNotFound, "No expenses found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeLedger{bulkCount: tt.count, err: tt.svcErr}
			rec := serve(newExpenseRouter(svc), http.MethodDelete, "/api/expenses", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if msg := decodeMsg(t, rec); msg != tt.wantMsg {
				t.Errorf("msg = %q, want %q", msg, tt.wantMsg)
			}
		})
	}
}

func TestParsePositiveInt(t *testing.T) {
	sentinel := errors.New("bad")
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"", 0, false},
		{"1", 1, false},
		{" 25 ", 25, false},
		{"0", 0, true},
		{"-2", 0, true},
		{"1.5", 0, true},
		{"ten", 0, true},
	}
	for _, tt := range tests {
		got, err := parsePositiveInt(tt.raw, sentinel)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parsePositiveInt(%q) = %d, %v", tt.raw, got, err)
		}
	}
}
