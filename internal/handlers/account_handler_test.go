package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "tally/internal/errors"
	"tally/internal/models"
	"tally/internal/pagination"
	"tally/internal/services"
)

func setupAccountRouter(handler *AccountHandler) *gin.Engine {
	r := gin.New()
	r.POST("/accounts", handler.CreateAccount)
	r.GET("/accounts", handler.ListAccounts)
	r.GET("/accounts/summary", handler.GetAccountSummary)
	r.GET("/accounts/:id", handler.GetAccount)
	r.PUT("/accounts/:id", handler.UpdateAccount)
	r.DELETE("/accounts/:id", handler.DeleteAccount)
	r.GET("/accounts/:id/statistics", handler.GetAccountStatistics)
	return r
}

func TestAccountHandler_CreateAccount(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		var got services.CreateAccountInput
		acctSvc := &mockAccountService{
			createAccountFn: func(in services.CreateAccountInput) (*models.Account, error) {
				got = in
				return &models.Account{
					Base:     models.Base{ID: testAccountID},
					Name:     in.Name,
					Type:     in.Type,
					Balance:  in.Balance,
					Currency: in.Currency,
					IsActive: true,
				}, nil
			},
		}
		r := setupAccountRouter(NewAccountHandler(acctSvc, &mockSettingsService{}))

		rec := doRequest(r, "POST", "/accounts",
			`{"name":"Checking","type":"bank_account","balance":250.75,"currency":"EUR","due_date":"2024-05-01"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		data := dataObject(t, parseJSON(t, rec))
		if data["name"] != "Checking" || data["id"] != testAccountID {
			t.Errorf("unexpected account %v", data)
		}
		if got.Balance.String() != "250.75" {
			t.Errorf("expected balance 250.75, got %s", got.Balance)
		}
		if got.DueDate == nil || got.DueDate.Day() != 1 {
			t.Errorf("expected due date to be parsed, got %v", got.DueDate)
		}
	})

	t.Run("returns 400 on missing name", func(t *testing.T) {
		r := setupAccountRouter(NewAccountHandler(&mockAccountService{}, &mockSettingsService{}))

		rec := doRequest(r, "POST", "/accounts", `{"type":"cash"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on unknown type", func(t *testing.T) {
		r := setupAccountRouter(NewAccountHandler(&mockAccountService{}, &mockSettingsService{}))

		rec := doRequest(r, "POST", "/accounts", `{"name":"Broker","type":"investment"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_ACCOUNT_TYPE")
	})

	t.Run("returns 400 on invalid currency", func(t *testing.T) {
		r := setupAccountRouter(NewAccountHandler(&mockAccountService{}, &mockSettingsService{}))

		rec := doRequest(r, "POST", "/accounts", `{"name":"Wallet","type":"cash","currency":"ZZZ"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 409 on duplicate name", func(t *testing.T) {
		acctSvc := &mockAccountService{
			createAccountFn: func(services.CreateAccountInput) (*models.Account, error) {
				return nil, apperrors.ErrDuplicateName
			},
		}
		r := setupAccountRouter(NewAccountHandler(acctSvc, &mockSettingsService{}))

		rec := doRequest(r, "POST", "/accounts", `{"name":"Wallet","type":"cash"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_NAME")
	})
}

func TestAccountHandler_ListAccounts(t *testing.T) {
	t.Run("returns paginated envelope", func(t *testing.T) {
		acctSvc := &mockAccountService{
			listAccountsFn: func(page pagination.PageRequest, accountType *models.AccountType) (*pagination.PageResponse[models.Account], error) {
				if accountType == nil || *accountType != models.AccountTypeCash {
					t.Errorf("expected cash filter, got %v", accountType)
				}
				if page.Page != 2 || page.PageSize != 5 {
					t.Errorf("unexpected page %+v", page)
				}
				resp := pagination.NewPageResponse([]models.Account{{Name: "Wallet"}}, 2, 5, 6)
				return &resp, nil
			},
		}
		r := setupAccountRouter(NewAccountHandler(acctSvc, &mockSettingsService{}))

		rec := doRequest(r, "GET", "/accounts?type=cash&page=2&page_size=5", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		items := result["data"].([]interface{})
		if len(items) != 1 {
			t.Errorf("expected 1 item, got %d", len(items))
		}
		meta := result["pagination"].(map[string]interface{})
		if meta["total"] != float64(6) || meta["page_count"] != float64(2) {
			t.Errorf("unexpected pagination %v", meta)
		}
	})

	t.Run("returns 400 on invalid type", func(t *testing.T) {
		r := setupAccountRouter(NewAccountHandler(&mockAccountService{}, &mockSettingsService{}))

		rec := doRequest(r, "GET", "/accounts?type=stock", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_ACCOUNT_TYPE")
	})

	t.Run("returns 400 on oversized page", func(t *testing.T) {
		r := setupAccountRouter(NewAccountHandler(&mockAccountService{}, &mockSettingsService{}))

		rec := doRequest(r, "GET", "/accounts?page_size=500", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestAccountHandler_GetAccount(t *testing.T) {
	t.Run("returns 404 when not found", func(t *testing.T) {
		acctSvc := &mockAccountService{
			getAccountByIDFn: func(string) (*models.Account, error) {
				return nil, apperrors.ErrAccountNotFound
			},
		}
		r := setupAccountRouter(NewAccountHandler(acctSvc, &mockSettingsService{}))

		rec := doRequest(r, "GET", "/accounts/"+testAccountID, "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "ACCOUNT_NOT_FOUND")
	})

	t.Run("returns 400 on malformed id", func(t *testing.T) {
		r := setupAccountRouter(NewAccountHandler(&mockAccountService{}, &mockSettingsService{}))

		rec := doRequest(r, "GET", "/accounts/42", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestAccountHandler_UpdateAccount(t *testing.T) {
	t.Run("passes only provided fields", func(t *testing.T) {
		acctSvc := &mockAccountService{
			updateAccountFn: func(id string, fields services.AccountUpdateFields) (*models.Account, error) {
				if id != testAccountID {
					t.Errorf("unexpected id %s", id)
				}
				if fields.Name == nil || *fields.Name != "Renamed" {
					t.Errorf("expected name, got %v", fields.Name)
				}
				if fields.Description != nil || fields.Currency != nil {
					t.Errorf("expected other fields to be nil, got %+v", fields)
				}
				return &models.Account{Base: models.Base{ID: id}, Name: *fields.Name}, nil
			},
		}
		r := setupAccountRouter(NewAccountHandler(acctSvc, &mockSettingsService{}))

		rec := doRequest(r, "PUT", "/accounts/"+testAccountID, `{"name":"Renamed"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("returns 400 on bad due date", func(t *testing.T) {
		r := setupAccountRouter(NewAccountHandler(&mockAccountService{}, &mockSettingsService{}))

		rec := doRequest(r, "PUT", "/accounts/"+testAccountID, `{"due_date":"next tuesday"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestAccountHandler_DeleteAccount(t *testing.T) {
	acctSvc := &mockAccountService{
		deleteAccountFn: func(id string) (*services.AccountDeleteResult, error) {
			return &services.AccountDeleteResult{AccountID: id, SoftDeleted: true, TransactionCount: 3}, nil
		},
	}
	r := setupAccountRouter(NewAccountHandler(acctSvc, &mockSettingsService{}))

	rec := doRequest(r, "DELETE", "/accounts/"+testAccountID, "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	data := dataObject(t, parseJSON(t, rec))
	if data["soft_deleted"] != true {
		t.Errorf("expected soft delete, got %v", data)
	}
}

func TestAccountHandler_SummaryAndStatistics(t *testing.T) {
	r := setupAccountRouter(NewAccountHandler(&mockAccountService{}, &mockSettingsService{}))

	if rec := doRequest(r, "GET", "/accounts/summary", ""); rec.Code != http.StatusOK {
		t.Errorf("expected 200 for summary, got %d", rec.Code)
	}
	rec := doRequest(r, "GET", "/accounts/"+testAccountID+"/statistics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for statistics, got %d", rec.Code)
	}
	if dataObject(t, parseJSON(t, rec))["account_id"] != testAccountID {
		t.Error("expected statistics for the requested account")
	}
}
