package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gaushala-erp/payroll-backend-go/internal/domain/payroll"
	"github.com/gaushala-erp/payroll-backend-go/internal/handler/http/middleware"
	"github.com/gaushala-erp/payroll-backend-go/internal/handler/http/response"
	"github.com/gaushala-erp/payroll-backend-go/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type PayrollHandler interface {
	// Working days
	GetWorkingDays(w http.ResponseWriter, r *http.Request)

	// Salary transactions
	GenerateSalary(w http.ResponseWriter, r *http.Request)
	ListSalaryTransactions(w http.ResponseWriter, r *http.Request)
	ExportSalaryTransactions(w http.ResponseWriter, r *http.Request)
	GetSalaryTransaction(w http.ResponseWriter, r *http.Request)
	UpdatePayment(w http.ResponseWriter, r *http.Request)
	DeleteSalaryTransaction(w http.ResponseWriter, r *http.Request)

	// Batch runs
	TriggerRun(w http.ResponseWriter, r *http.Request)
	ListRuns(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	payrollService payroll.PayrollService
}

func NewPayrollHandler(payrollService payroll.PayrollService) PayrollHandler {
	return &payrollHandlerImpl{payrollService: payrollService}
}

// ========== WORKING DAYS ==========

func (h *payrollHandlerImpl) GetWorkingDays(w http.ResponseWriter, r *http.Request) {
	req := payroll.WorkingDaysRequest{
		TenantID:    middleware.TenantIDFromContext(r.Context()),
		EmployeeID:  r.URL.Query().Get("employee_id"),
		SalaryMonth: r.URL.Query().Get("salary_month"),
	}

	result, err := h.payrollService.CalculateWorkingDays(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ========== SALARY TRANSACTIONS ==========

func (h *payrollHandlerImpl) GenerateSalary(w http.ResponseWriter, r *http.Request) {
	var req payroll.GenerateSalaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.TenantID = middleware.TenantIDFromContext(r.Context())
	req.CallerID = middleware.UserIDFromContext(r.Context())

	result, err := h.payrollService.GenerateSalary(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if result.AlreadyGenerated {
		response.SuccessWithMessage(w, "Salary already generated for this month", result)
		return
	}
	response.Created(w, "Salary generated successfully", result)
}

func (h *payrollHandlerImpl) ListSalaryTransactions(w http.ResponseWriter, r *http.Request) {
	filter := payroll.SalaryTransactionFilter{
		Page:  1,
		Limit: 20,
	}

	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		if page, err := strconv.Atoi(pageStr); err == nil && page > 0 {
			filter.Page = page
		}
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}
	if salaryMonth := r.URL.Query().Get("salary_month"); salaryMonth != "" {
		filter.SalaryMonth = &salaryMonth
	}
	if employeeID := r.URL.Query().Get("employee_id"); employeeID != "" {
		filter.EmployeeID = &employeeID
	}
	if isPaidStr := r.URL.Query().Get("is_paid"); isPaidStr != "" {
		isPaid, err := strconv.ParseBool(isPaidStr)
		if err != nil {
			response.BadRequest(w, "is_paid must be true or false", nil)
			return
		}
		filter.IsPaid = &isPaid
	}

	result, err := h.payrollService.ListSalaryTransactions(r.Context(), middleware.TenantIDFromContext(r.Context()), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result.Data, &response.Meta{
		Page:       result.Page,
		Limit:      result.Limit,
		TotalItems: result.TotalCount,
		TotalPages: result.TotalPages,
	})
}

func (h *payrollHandlerImpl) ExportSalaryTransactions(w http.ResponseWriter, r *http.Request) {
	salaryMonth := r.URL.Query().Get("salary_month")
	if salaryMonth == "" {
		response.BadRequest(w, "salary_month is required", nil)
		return
	}

	// Buffer so a failure can still be reported as JSON.
	var buf bytes.Buffer
	if err := h.payrollService.ExportSalaryTransactions(r.Context(), middleware.TenantIDFromContext(r.Context()), salaryMonth, &buf); err != nil {
		response.HandleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=salary-%s.csv", salaryMonth))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *payrollHandlerImpl) GetSalaryTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := salaryTransactionID(w, r)
	if !ok {
		return
	}

	result, err := h.payrollService.GetSalaryTransaction(r.Context(), middleware.TenantIDFromContext(r.Context()), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	id, ok := salaryTransactionID(w, r)
	if !ok {
		return
	}

	var req payroll.UpdatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.ID = id
	req.TenantID = middleware.TenantIDFromContext(r.Context())

	result, err := h.payrollService.UpdatePayment(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payment updated successfully", result)
}

func (h *payrollHandlerImpl) DeleteSalaryTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := salaryTransactionID(w, r)
	if !ok {
		return
	}

	if err := h.payrollService.DeleteSalaryTransaction(r.Context(), middleware.TenantIDFromContext(r.Context()), id); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Salary transaction deleted successfully", nil)
}

// salaryTransactionID reads the {id} path param, answering 400 when it is not a UUID.
func salaryTransactionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Salary transaction ID is required", nil)
		return "", false
	}
	if !validator.IsValidUUID(id) {
		response.BadRequest(w, "Invalid salary transaction ID", nil)
		return "", false
	}
	return id, true
}

// ========== RUNS ==========

// TriggerRun runs the batch for the caller's tenant and waits for it.
// A client disconnect does not cancel the run; the run budget still applies.
func (h *payrollHandlerImpl) TriggerRun(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.TenantIDFromContext(r.Context())

	ctx := context.WithoutCancel(r.Context())
	result, err := h.payrollService.RunPayrollBatch(ctx, []string{tenantID}, payroll.RunTriggerManual)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if len(result.Tenants) == 1 && result.Tenants[0].Status == payroll.RunStatusSkipped {
		response.HandleError(w, payroll.ErrPayrollRunInProgress)
		return
	}

	response.SuccessWithMessage(w, "Payroll run finished", result)
}

func (h *payrollHandlerImpl) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	result, err := h.payrollService.ListRuns(r.Context(), middleware.TenantIDFromContext(r.Context()), limit)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
