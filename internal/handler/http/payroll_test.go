package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gaushala-erp/payroll-backend-go/internal/domain/payroll"
	"github.com/gaushala-erp/payroll-backend-go/internal/handler/http/middleware"
	"github.com/gaushala-erp/payroll-backend-go/internal/handler/http/response"
	"github.com/gaushala-erp/payroll-backend-go/internal/pkg/jwt"
	"github.com/gaushala-erp/payroll-backend-go/internal/pkg/metrics"
	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	handlerTestSecret = "test-secret-key-for-jwt"

	handlerEmployeeID = "018f6b2e-4c1a-7d3e-9a10-2b3c4d5e6f70"
	handlerSalaryTxID = "018f6b2e-4c1a-7d3e-9a10-7a7a7a7a7a7a"
)

// stubPayrollService records what the handlers pass in and returns canned results.
type stubPayrollService struct {
	generated   map[string]payroll.SalaryTransactionResponse
	lastGen     payroll.GenerateSalaryRequest
	workingErr  error
	deleteErr   error
	runStatus   payroll.RunStatus
	runTenants  []string
	runCtxErr   error
	exportRows  string
	listFilters []payroll.SalaryTransactionFilter
}

func newStubPayrollService() *stubPayrollService {
	return &stubPayrollService{
		generated: make(map[string]payroll.SalaryTransactionResponse),
		runStatus: payroll.RunStatusCompleted,
	}
}

func (s *stubPayrollService) CalculateWorkingDays(ctx context.Context, req payroll.WorkingDaysRequest) (payroll.WorkingDaysResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.WorkingDaysResponse{}, err
	}
	if s.workingErr != nil {
		return payroll.WorkingDaysResponse{}, s.workingErr
	}
	return payroll.WorkingDaysResponse{EmployeeID: req.EmployeeID, SalaryMonth: req.SalaryMonth, TotalDaysForThisEmployee: 17}, nil
}

func (s *stubPayrollService) GenerateSalary(ctx context.Context, req payroll.GenerateSalaryRequest) (payroll.GenerateSalaryResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.GenerateSalaryResponse{}, err
	}
	s.lastGen = req
	key := req.TenantID + "/" + req.EmployeeID + "/" + req.SalaryMonth
	if existing, ok := s.generated[key]; ok {
		return payroll.GenerateSalaryResponse{AlreadyGenerated: true, SalaryTransaction: existing}, nil
	}
	tx := payroll.SalaryTransactionResponse{
		ID:            uuid.NewString(),
		EmployeeID:    req.EmployeeID,
		SalaryMonth:   req.SalaryMonth,
		PayableSalary: decimal.NewFromInt(1700),
		GeneratedBy:   req.CallerID,
	}
	s.generated[key] = tx
	return payroll.GenerateSalaryResponse{SalaryTransaction: tx}, nil
}

func (s *stubPayrollService) GetSalaryTransaction(ctx context.Context, tenantID string, id string) (payroll.SalaryTransactionResponse, error) {
	for _, tx := range s.generated {
		if tx.ID == id {
			return tx, nil
		}
	}
	return payroll.SalaryTransactionResponse{}, payroll.ErrSalaryTransactionNotFound
}

func (s *stubPayrollService) ListSalaryTransactions(ctx context.Context, tenantID string, filter payroll.SalaryTransactionFilter) (payroll.ListSalaryTransactionResponse, error) {
	s.listFilters = append(s.listFilters, filter)
	return payroll.ListSalaryTransactionResponse{Page: filter.Page, Limit: filter.Limit, TotalCount: 0}, nil
}

func (s *stubPayrollService) UpdatePayment(ctx context.Context, req payroll.UpdatePaymentRequest) (payroll.SalaryTransactionResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.SalaryTransactionResponse{}, err
	}
	return payroll.SalaryTransactionResponse{ID: req.ID, IsPaid: *req.IsPaid}, nil
}

func (s *stubPayrollService) DeleteSalaryTransaction(ctx context.Context, tenantID string, id string) error {
	return s.deleteErr
}

func (s *stubPayrollService) ExportSalaryTransactions(ctx context.Context, tenantID string, salaryMonth string, w io.Writer) error {
	if _, err := payroll.ParseSalaryMonth(salaryMonth); err != nil {
		return err
	}
	_, err := io.WriteString(w, s.exportRows)
	return err
}

func (s *stubPayrollService) RunPayrollBatch(ctx context.Context, tenantIDs []string, trigger payroll.RunTrigger) (payroll.BatchResult, error) {
	s.runTenants = tenantIDs
	s.runCtxErr = ctx.Err()
	result := payroll.BatchResult{SalaryMonth: "2024-01", Trigger: trigger}
	for _, id := range tenantIDs {
		result.Tenants = append(result.Tenants, payroll.TenantRunResult{TenantID: id, Status: s.runStatus})
	}
	return result, nil
}

func (s *stubPayrollService) ListRuns(ctx context.Context, tenantID string, limit int) ([]payroll.PayrollRunResponse, error) {
	return []payroll.PayrollRunResponse{}, nil
}

type handlerFixture struct {
	server    *httptest.Server
	jwt       jwt.Service
	svc       *stubPayrollService
	collector *metrics.Collector
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	jwtService := jwt.NewJWTService(handlerTestSecret, "1h")
	svc := newStubPayrollService()
	collector := metrics.NewCollector()

	router := NewRouter(RouterOptions{AllowedOrigins: []string{"*"}}, jwtService, collector, NewPayrollHandler(svc))
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &handlerFixture{server: server, jwt: jwtService, svc: svc, collector: collector}
}

func (f *handlerFixture) token(t *testing.T, tenantID string, role jwt.Role) string {
	t.Helper()
	token, _, err := f.jwt.GenerateAccessToken("user-1", tenantID, role)
	require.NoError(t, err)
	return token
}

func (f *handlerFixture) do(t *testing.T, method, path, token string, body any) (*http.Response, response.Response) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, f.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var envelope response.Response
	if resp.Header.Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(raw, &envelope))
	}
	return resp, envelope
}

func TestPayrollHandler_RequiresToken(t *testing.T) {
	f := newHandlerFixture(t)

	resp, body := f.do(t, http.MethodGet, "/api/v1/payroll/salary-transactions", "", nil)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.False(t, body.Success)
}

func TestPayrollHandler_RequiresTenantClaim(t *testing.T) {
	f := newHandlerFixture(t)

	resp, body := f.do(t, http.MethodGet, "/api/v1/payroll/salary-transactions", f.token(t, "", jwt.RoleOwner), nil)

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.NotNil(t, body.Error)
	assert.Equal(t, "FORBIDDEN", body.Error.Code)
}

func TestPayrollHandler_GenerateSalary_CreatedThenAlreadyGenerated(t *testing.T) {
	// Setup
	f := newHandlerFixture(t)
	token := f.token(t, "01", jwt.RoleManager)
	req := map[string]any{"employee_id": handlerEmployeeID, "salary_month": "2024-01"}

	// Act
	first, firstBody := f.do(t, http.MethodPost, "/api/v1/payroll/salary-transactions", token, req)
	second, secondBody := f.do(t, http.MethodPost, "/api/v1/payroll/salary-transactions", token, req)

	// Assert
	assert.Equal(t, http.StatusCreated, first.StatusCode)
	assert.True(t, firstBody.Success)
	assert.Equal(t, http.StatusOK, second.StatusCode)
	assert.Equal(t, "Salary already generated for this month", secondBody.Message)

	// Identity comes from the token, never the body
	assert.Equal(t, "01", f.svc.lastGen.TenantID)
	assert.Equal(t, "user-1", f.svc.lastGen.CallerID)
}

func TestPayrollHandler_GenerateSalary_ValidationError(t *testing.T) {
	f := newHandlerFixture(t)

	resp, body := f.do(t, http.MethodPost, "/api/v1/payroll/salary-transactions", f.token(t, "01", jwt.RoleManager),
		map[string]any{"employee_id": handlerEmployeeID, "salary_month": "2024-1"})

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	require.NotNil(t, body.Error)
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
	assert.Equal(t, "must be in YYYY-MM format", body.Error.Details["salary_month"])
}

func TestPayrollHandler_GenerateSalary_InvalidBody(t *testing.T) {
	f := newHandlerFixture(t)

	req, err := http.NewRequest(http.MethodPost, f.server.URL+"/api/v1/payroll/salary-transactions", bytes.NewBufferString("{"))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+f.token(t, "01", jwt.RoleManager))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPayrollHandler_GetWorkingDays_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"missing joining record", payroll.ErrMissingJoiningRecord, http.StatusUnprocessableEntity, "MISSING_JOINING_RECORD"},
		{"missing profile", payroll.ErrMissingEmployeeProfile, http.StatusNotFound, "NOT_FOUND"},
		{"store unavailable", fmt.Errorf("failed: %w", payroll.ErrStoreUnavailable), http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"unexpected", fmt.Errorf("boom"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newHandlerFixture(t)
			f.svc.workingErr = tt.err

			resp, body := f.do(t, http.MethodGet, "/api/v1/payroll/working-days?employee_id="+handlerEmployeeID+"&salary_month=2024-01",
				f.token(t, "01", jwt.RoleEmployee), nil)

			assert.Equal(t, tt.wantCode, resp.StatusCode)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.wantErr, body.Error.Code)
		})
	}
}

func TestPayrollHandler_DeleteSalaryTransaction_AlreadyPaid(t *testing.T) {
	f := newHandlerFixture(t)
	f.svc.deleteErr = payroll.ErrSalaryTransactionAlreadyPaid

	resp, body := f.do(t, http.MethodDelete, "/api/v1/payroll/salary-transactions/"+handlerSalaryTxID, f.token(t, "01", jwt.RoleOwner), nil)

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CONFLICT", body.Error.Code)
}

func TestPayrollHandler_UpdatePayment(t *testing.T) {
	f := newHandlerFixture(t)

	resp, body := f.do(t, http.MethodPatch, "/api/v1/payroll/salary-transactions/"+handlerSalaryTxID+"/payment", f.token(t, "01", jwt.RoleOwner),
		map[string]any{"is_paid": true, "actual_pay_date": "2024-02-01"})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	data, ok := body.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, handlerSalaryTxID, data["id"])
	assert.Equal(t, true, data["is_paid"])
}

func TestPayrollHandler_ListSalaryTransactions_ParsesFilter(t *testing.T) {
	f := newHandlerFixture(t)

	resp, body := f.do(t, http.MethodGet, "/api/v1/payroll/salary-transactions?salary_month=2024-01&is_paid=false&page=2&limit=5",
		f.token(t, "01", jwt.RoleOwner), nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, body.Meta)
	assert.Equal(t, 2, body.Meta.Page)
	require.Len(t, f.svc.listFilters, 1)
	filter := f.svc.listFilters[0]
	require.NotNil(t, filter.SalaryMonth)
	assert.Equal(t, "2024-01", *filter.SalaryMonth)
	require.NotNil(t, filter.IsPaid)
	assert.False(t, *filter.IsPaid)
	assert.Equal(t, 5, filter.Limit)
}

func TestPayrollHandler_ExportSalaryTransactions(t *testing.T) {
	f := newHandlerFixture(t)
	f.svc.exportRows = "employee_id,payable_salary\n" + handlerEmployeeID + ",1700.00\n"

	req, err := http.NewRequest(http.MethodGet, f.server.URL+"/api/v1/payroll/salary-transactions/export?salary_month=2024-01", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+f.token(t, "01", jwt.RoleOwner))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "salary-2024-01.csv")
	assert.Equal(t, f.svc.exportRows, string(raw))
}

func TestPayrollHandler_TriggerRun(t *testing.T) {
	t.Run("employee role is forbidden", func(t *testing.T) {
		f := newHandlerFixture(t)

		resp, _ := f.do(t, http.MethodPost, "/api/v1/payroll/runs", f.token(t, "01", jwt.RoleEmployee), nil)

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Nil(t, f.svc.runTenants)
	})

	t.Run("manager runs own tenant only", func(t *testing.T) {
		f := newHandlerFixture(t)

		resp, body := f.do(t, http.MethodPost, "/api/v1/payroll/runs", f.token(t, "07", jwt.RoleManager), nil)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.True(t, body.Success)
		assert.Equal(t, []string{"07"}, f.svc.runTenants)
	})

	t.Run("run in progress", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.svc.runStatus = payroll.RunStatusSkipped

		resp, body := f.do(t, http.MethodPost, "/api/v1/payroll/runs", f.token(t, "01", jwt.RoleOwner), nil)

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "CONFLICT", body.Error.Code)
	})
}

func TestRouter_Metrics(t *testing.T) {
	f := newHandlerFixture(t)
	f.svc.workingErr = payroll.ErrStoreUnavailable

	f.do(t, http.MethodGet, "/api/v1/payroll/working-days?employee_id="+handlerEmployeeID+"&salary_month=2024-01", f.token(t, "01", jwt.RoleOwner), nil)

	resp, err := http.Get(f.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
	assert.Contains(t, string(raw), `payroll_http_requests_total{code="5xx"} 1`)
	assert.Contains(t, string(raw), "payroll_store_retries_total")
}

func TestPayrollHandler_RequiresUserClaim(t *testing.T) {
	f := newHandlerFixture(t)
	token, _, err := f.jwt.GenerateAccessToken("", "01", jwt.RoleManager)
	require.NoError(t, err)

	resp, body := f.do(t, http.MethodPost, "/api/v1/payroll/salary-transactions", token,
		map[string]any{"employee_id": handlerEmployeeID, "salary_month": "2024-01"})

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.NotNil(t, body.Error)
	assert.Equal(t, "UNAUTHORIZED", body.Error.Code)
	assert.Empty(t, f.svc.generated)
}

func TestPayrollHandler_GenerateSalary_RejectsNonUUIDEmployee(t *testing.T) {
	f := newHandlerFixture(t)

	resp, body := f.do(t, http.MethodPost, "/api/v1/payroll/salary-transactions", f.token(t, "01", jwt.RoleManager),
		map[string]any{"employee_id": "emp-1", "salary_month": "2024-01"})

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	require.NotNil(t, body.Error)
	assert.Equal(t, "must be a valid UUID", body.Error.Details["employee_id"])
}

func TestPayrollHandler_SalaryTransactionID_MustBeUUID(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		body   any
	}{
		{"get", http.MethodGet, "/api/v1/payroll/salary-transactions/st-1", nil},
		{"update payment", http.MethodPatch, "/api/v1/payroll/salary-transactions/st-1/payment", map[string]any{"is_paid": true}},
		{"delete", http.MethodDelete, "/api/v1/payroll/salary-transactions/not-a-uuid", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newHandlerFixture(t)

			resp, body := f.do(t, tt.method, tt.path, f.token(t, "01", jwt.RoleOwner), tt.body)

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			require.NotNil(t, body.Error)
			assert.Equal(t, "Invalid salary transaction ID", body.Error.Message)
		})
	}
}

func TestPayrollHandler_TriggerRun_SurvivesClientDisconnect(t *testing.T) {
	// Setup
	svc := newStubPayrollService()
	h := NewPayrollHandler(svc)
	jwtService := jwt.NewJWTService(handlerTestSecret, "1h")
	tokenString, _, err := jwtService.GenerateAccessToken("user-1", "01", jwt.RoleOwner)
	require.NoError(t, err)
	token, err := jwtService.JWTAuth().Decode(tokenString)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(jwtauth.NewContext(context.Background(), token, nil))
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payroll/runs", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	// Act
	middleware.RequireTenant(http.HandlerFunc(h.TriggerRun)).ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"01"}, svc.runTenants)
	assert.NoError(t, svc.runCtxErr)
}
