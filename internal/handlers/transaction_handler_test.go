package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "tally/internal/errors"
	"tally/internal/models"
	"tally/internal/pagination"
	"tally/internal/services"
)

func setupTransactionRouter(handler *TransactionHandler) *gin.Engine {
	r := gin.New()
	r.POST("/transactions", handler.CreateTransaction)
	r.GET("/transactions", handler.ListTransactions)
	r.POST("/transactions/bulk-delete", handler.BulkDeleteTransactions)
	r.GET("/transactions/:id", handler.GetTransaction)
	r.PUT("/transactions/:id", handler.UpdateTransaction)
	r.DELETE("/transactions/:id", handler.DeleteTransaction)
	return r
}

func newYorkSettings(t *testing.T) *mockSettingsService {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	return &mockSettingsService{
		preferencesFn: func() (*services.Preferences, error) {
			return &services.Preferences{Timezone: "America/New_York", Location: loc}, nil
		},
	}
}

func TestTransactionHandler_CreateTransaction(t *testing.T) {
	t.Run("returns 201 and reads naive dates in the user zone", func(t *testing.T) {
		var got services.CreateTransactionInput
		txSvc := &mockTransactionService{
			createTransactionFn: func(in services.CreateTransactionInput) (*models.Transaction, error) {
				got = in
				return &models.Transaction{Base: models.Base{ID: testTransactionID}, Type: in.Type, Amount: in.Amount}, nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(txSvc, newYorkSettings(t)))

		rec := doRequest(r, "POST", "/transactions",
			`{"amount":42.5,"type":"expense","description":"Lunch","date":"2024-01-15T10:00:00","from_account_id":"`+testAccountID+`","tags":["food"]}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if !got.Date.Equal(time.Date(2024, 1, 15, 15, 0, 0, 0, time.UTC)) {
			t.Errorf("expected 15:00 UTC, got %s", got.Date)
		}
		if got.FromAccountID == nil || *got.FromAccountID != testAccountID || got.ToAccountID != nil {
			t.Errorf("unexpected accounts %+v", got)
		}
		if len(got.Tags) != 1 || got.Amount.String() != "42.5" {
			t.Errorf("unexpected input %+v", got)
		}
	})

	t.Run("omitted date is left for the service", func(t *testing.T) {
		txSvc := &mockTransactionService{
			createTransactionFn: func(in services.CreateTransactionInput) (*models.Transaction, error) {
				if !in.Date.IsZero() {
					t.Errorf("expected zero date, got %s", in.Date)
				}
				return &models.Transaction{}, nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(txSvc, &mockSettingsService{}))

		rec := doRequest(r, "POST", "/transactions", `{"amount":1,"type":"income","description":"x","to_account_id":"`+testAccountID+`"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
	})

	t.Run("service validation codes pass through", func(t *testing.T) {
		cases := map[string]error{
			"INVALID_TRANSACTION_TYPE": apperrors.ErrInvalidTransactionType,
			"INVALID_AMOUNT":           apperrors.ErrInvalidAmount,
			"SAME_ACCOUNT_TRANSFER":    apperrors.ErrSameAccountTransfer,
		}
		for code, svcErr := range cases {
			t.Run(code, func(t *testing.T) {
				txSvc := &mockTransactionService{
					createTransactionFn: func(services.CreateTransactionInput) (*models.Transaction, error) {
						return nil, svcErr
					},
				}
				r := setupTransactionRouter(NewTransactionHandler(txSvc, &mockSettingsService{}))

				rec := doRequest(r, "POST", "/transactions", `{"amount":0,"type":"expense","description":"x"}`)

				if rec.Code != http.StatusBadRequest {
					t.Fatalf("expected 400, got %d", rec.Code)
				}
				assertErrorCode(t, parseJSON(t, rec), code)
			})
		}
	})

	t.Run("returns 400 on malformed date", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}, &mockSettingsService{}))

		rec := doRequest(r, "POST", "/transactions", `{"amount":5,"type":"expense","description":"x","date":"15/01/2024"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on unknown type", func(t *testing.T) {
		txSvc := &mockTransactionService{
			createTransactionFn: func(services.CreateTransactionInput) (*models.Transaction, error) {
				t.Error("service should not be called for an unknown type")
				return nil, nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(txSvc, &mockSettingsService{}))

		rec := doRequest(r, "POST", "/transactions", `{"amount":5,"type":"gift","description":"x"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_TRANSACTION_TYPE")
	})

	t.Run("returns 400 on non-uuid account", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}, &mockSettingsService{}))

		rec := doRequest(r, "POST", "/transactions", `{"amount":5,"type":"expense","description":"x","from_account_id":"1"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 503 when the store is down", func(t *testing.T) {
		txSvc := &mockTransactionService{
			createTransactionFn: func(services.CreateTransactionInput) (*models.Transaction, error) {
				return nil, apperrors.ErrStoreUnavailable
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(txSvc, &mockSettingsService{}))

		rec := doRequest(r, "POST", "/transactions", `{"amount":5,"type":"expense","description":"x"}`)

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
	})
}

func TestTransactionHandler_ListTransactions(t *testing.T) {
	t.Run("builds the filter from query params", func(t *testing.T) {
		txSvc := &mockTransactionService{
			listTransactionsFn: func(filter services.TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error) {
				if filter.Type == nil || *filter.Type != models.TransactionTypeExpense {
					t.Errorf("expected expense filter, got %v", filter.Type)
				}
				if filter.AccountID == nil || *filter.AccountID != testAccountID {
					t.Errorf("expected account filter, got %v", filter.AccountID)
				}
				if filter.From == nil || !filter.From.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
					t.Errorf("unexpected from %v", filter.From)
				}
				if filter.To == nil || filter.To.Day() != 31 || filter.To.Hour() != 23 {
					t.Errorf("unexpected to %v", filter.To)
				}
				if filter.MinAmount == nil || filter.MinAmount.String() != "10" {
					t.Errorf("unexpected min amount %v", filter.MinAmount)
				}
				if filter.Search != "coffee" {
					t.Errorf("unexpected search %q", filter.Search)
				}
				resp := pagination.NewPageResponse([]models.Transaction{}, page.Page, page.PageSize, 0)
				return &resp, nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(txSvc, &mockSettingsService{}))

		rec := doRequest(r, "GET", "/transactions?type=expense&account_id="+testAccountID+
			"&from_date=2024-03-01&to_date=2024-03-31&min_amount=10&search=coffee", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("returns 400 on bad amount", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}, &mockSettingsService{}))

		rec := doRequest(r, "GET", "/transactions?max_amount=lots", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestTransactionHandler_UpdateTransaction(t *testing.T) {
	t.Run("returns 400 on immutable field", func(t *testing.T) {
		txSvc := &mockTransactionService{
			updateTransactionFn: func(id string, fields services.TransactionUpdateFields) (*models.Transaction, error) {
				if fields.Amount == nil || fields.Amount.String() != "99" {
					t.Errorf("expected amount to be forwarded, got %v", fields.Amount)
				}
				return nil, apperrors.ErrImmutableField
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(txSvc, &mockSettingsService{}))

		rec := doRequest(r, "PUT", "/transactions/"+testTransactionID, `{"amount":99}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "IMMUTABLE_FIELD")
	})

	t.Run("empty category clears it", func(t *testing.T) {
		txSvc := &mockTransactionService{
			updateTransactionFn: func(id string, fields services.TransactionUpdateFields) (*models.Transaction, error) {
				if fields.CategoryID == nil || *fields.CategoryID != "" {
					t.Errorf("expected empty category id, got %v", fields.CategoryID)
				}
				return &models.Transaction{Base: models.Base{ID: id}}, nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(txSvc, &mockSettingsService{}))

		rec := doRequest(r, "PUT", "/transactions/"+testTransactionID, `{"category_id":""}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestTransactionHandler_Delete(t *testing.T) {
	t.Run("single", func(t *testing.T) {
		txSvc := &mockTransactionService{
			deleteTransactionFn: func(string) error { return apperrors.ErrTransactionNotFound },
		}
		r := setupTransactionRouter(NewTransactionHandler(txSvc, &mockSettingsService{}))

		rec := doRequest(r, "DELETE", "/transactions/"+testTransactionID, "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("bulk", func(t *testing.T) {
		txSvc := &mockTransactionService{
			bulkDeleteTransactionsFn: func(ids []string) (*services.BulkDeleteResult, error) {
				return &services.BulkDeleteResult{Deleted: 1, Failed: ids[1:]}, nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(txSvc, &mockSettingsService{}))

		rec := doRequest(r, "POST", "/transactions/bulk-delete", `{"ids":["`+testTransactionID+`","`+testOtherID+`"]}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		data := dataObject(t, parseJSON(t, rec))
		if data["deleted"] != float64(1) || len(data["failed"].([]interface{})) != 1 {
			t.Errorf("unexpected result %v", data)
		}
	})

	t.Run("bulk rejects an empty list", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}, &mockSettingsService{}))

		rec := doRequest(r, "POST", "/transactions/bulk-delete", `{"ids":[]}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
