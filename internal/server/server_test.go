package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"tally/internal/events"
	"tally/internal/logger"
	"tally/internal/models"
	"tally/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
}

func setupRouter(t *testing.T) (*gin.Engine, *Services) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	svc := NewServices(db, events.NopPublisher{})
	return NewRouter(svc), svc
}

func call(t *testing.T, r *gin.Engine, method, path, body string, wantStatus int) map[string]interface{} {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != wantStatus {
		t.Fatalf("%s %s: expected status %d, got %d\nbody: %s", method, path, wantStatus, rec.Code, rec.Body.String())
	}

	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("%s %s: failed to parse JSON response: %v", method, path, err)
	}
	return result
}

func data(t *testing.T, result map[string]interface{}) map[string]interface{} {
	t.Helper()
	obj, ok := result["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected data object, got %v", result)
	}
	return obj
}

func TestHealth(t *testing.T) {
	r, _ := setupRouter(t)
	result := call(t, r, http.MethodGet, "/api/health", "", http.StatusOK)
	if result["status"] != "ok" {
		t.Errorf("expected status ok, got %v", result["status"])
	}
}

func TestBudgetFlow(t *testing.T) {
	r, _ := setupRouter(t)

	account := data(t, call(t, r, http.MethodPost, "/api/v1/accounts",
		`{"name":"Checking","type":"bank_account","balance":0}`, http.StatusCreated))
	accountID := account["id"].(string)

	category := data(t, call(t, r, http.MethodPost, "/api/v1/categories",
		`{"name":"Groceries","type":"expense"}`, http.StatusCreated))
	categoryID := category["id"].(string)

	expense := func(amount string) {
		call(t, r, http.MethodPost, "/api/v1/transactions",
			`{"type":"expense","amount":`+amount+`,"description":"Market","from_account_id":"`+accountID+`","category_id":"`+categoryID+`"}`,
			http.StatusCreated)
	}

	expense("100")

	account = data(t, call(t, r, http.MethodGet, "/api/v1/accounts/"+accountID, "", http.StatusOK))
	if account["balance"] != float64(-100) {
		t.Errorf("expected balance -100, got %v", account["balance"])
	}

	budget := data(t, call(t, r, http.MethodPost, "/api/v1/budgets",
		`{"category_id":"`+categoryID+`","amount":150,"period":"monthly"}`, http.StatusCreated))
	budgetID := budget["id"].(string)
	if budget["spent"] != float64(100) {
		t.Errorf("expected spent 100, got %v", budget["spent"])
	}
	if budget["status"] != string(models.BudgetStatusWarning) {
		t.Errorf("expected status warning, got %v", budget["status"])
	}

	// Same category and period returns the existing budget.
	again := data(t, call(t, r, http.MethodPost, "/api/v1/budgets",
		`{"category_id":"`+categoryID+`","amount":999,"period":"monthly"}`, http.StatusOK))
	if again["id"] != budgetID {
		t.Errorf("expected existing budget %s, got %v", budgetID, again["id"])
	}

	expense("60")
	recomputed := data(t, call(t, r, http.MethodPost, "/api/v1/budgets/"+budgetID+"/recompute", "", http.StatusOK))
	if recomputed["difference"] != float64(60) {
		t.Errorf("expected difference 60, got %v", recomputed["difference"])
	}

	budget = data(t, call(t, r, http.MethodGet, "/api/v1/budgets/"+budgetID, "", http.StatusOK))
	if budget["spent"] != float64(160) {
		t.Errorf("expected spent 160, got %v", budget["spent"])
	}
	if budget["status"] != string(models.BudgetStatusExceeded) {
		t.Errorf("expected status exceeded, got %v", budget["status"])
	}
}

func TestPagination(t *testing.T) {
	r, svc := setupRouter(t)
	for i := 0; i < 45; i++ {
		testutil.CreateTestCategory(t, svc.DB, models.CategoryTypeExpense)
	}

	tests := []struct {
		page      string
		wantItems int
	}{
		{"1", 20},
		{"3", 5},
		{"4", 0},
	}

	for _, tt := range tests {
		t.Run("page "+tt.page, func(t *testing.T) {
			result := call(t, r, http.MethodGet, "/api/v1/categories?page_size=20&page="+tt.page, "", http.StatusOK)

			items, ok := result["data"].([]interface{})
			if !ok {
				t.Fatalf("expected data array, got %v", result["data"])
			}
			if len(items) != tt.wantItems {
				t.Errorf("expected %d items, got %d", tt.wantItems, len(items))
			}

			meta := result["pagination"].(map[string]interface{})
			if meta["total"] != float64(45) {
				t.Errorf("expected total 45, got %v", meta["total"])
			}
			if meta["page_count"] != float64(3) {
				t.Errorf("expected page_count 3, got %v", meta["page_count"])
			}
		})
	}
}

func TestUnknownIDIsInvalidInput(t *testing.T) {
	r, _ := setupRouter(t)
	result := call(t, r, http.MethodGet, "/api/v1/accounts/not-a-uuid", "", http.StatusBadRequest)

	errObj := result["error"].(map[string]interface{})
	if errObj["code"] != "INVALID_INPUT" {
		t.Errorf("expected INVALID_INPUT, got %v", errObj["code"])
	}
}
