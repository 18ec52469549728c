package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "tally/internal/errors"
	"tally/internal/services"
)

// ReportHandler serves read-only financial reports.
type ReportHandler struct {
	reportService   services.ReportServicer
	settingsService services.SettingsServicer
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService services.ReportServicer, settingsService services.SettingsServicer) *ReportHandler {
	return &ReportHandler{reportService: reportService, settingsService: settingsService}
}

// IncomeStatement totals income and expenses by category.
// @Summary     Income statement
// @Tags        reports
// @Produce     json
// @Param       start_date query string true "Range start"
// @Param       end_date   query string true "Range end"
// @Success     200 {object} services.IncomeStatement
// @Failure     400 {object} ErrorResponse "Invalid range"
// @Router      /reports/income-statement [get]
func (h *ReportHandler) IncomeStatement(c *gin.Context) {
	start, end, err := h.requiredRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	report, err := h.reportService.IncomeStatement(start, end)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, report)
}

// BalanceSheet lists assets and liabilities as of an instant.
// @Summary     Balance sheet
// @Tags        reports
// @Produce     json
// @Param       as_of      query string false "Instant (default now)"
// @Param       as_of_date query string false "Alias for as_of"
// @Success     200 {object} services.BalanceSheet
// @Failure     400 {object} ErrorResponse "Invalid date"
// @Router      /reports/balance-sheet [get]
func (h *ReportHandler) BalanceSheet(c *gin.Context) {
	raw := c.Query("as_of")
	if raw == "" {
		raw = c.Query("as_of_date")
	}

	var asOf time.Time
	if raw != "" {
		parsed := normalizer(h.settingsService).ParseBoundary(raw, true)
		if parsed == nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid as_of"))
			return
		}
		asOf = *parsed
	}

	report, err := h.reportService.BalanceSheet(asOf)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, report)
}

// CashFlow returns daily inflow and outflow.
// @Summary     Cash flow
// @Tags        reports
// @Produce     json
// @Param       start_date query string true "Range start"
// @Param       end_date   query string true "Range end"
// @Success     200 {object} services.CashFlow
// @Failure     400 {object} ErrorResponse "Invalid range"
// @Router      /reports/cash-flow [get]
func (h *ReportHandler) CashFlow(c *gin.Context) {
	start, end, err := h.requiredRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	report, err := h.reportService.CashFlow(start, end)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, report)
}

// CategoryAnalysis compares per-category spending with budgets.
// @Summary     Category analysis
// @Tags        reports
// @Produce     json
// @Param       start_date query string true "Range start"
// @Param       end_date   query string true "Range end"
// @Success     200 {object} services.CategoryAnalysis
// @Failure     400 {object} ErrorResponse "Invalid range"
// @Router      /reports/category-analysis [get]
func (h *ReportHandler) CategoryAnalysis(c *gin.Context) {
	start, end, err := h.requiredRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	report, err := h.reportService.CategoryAnalysis(start, end)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, report)
}

// FinancialSummary is the dashboard snapshot for the current month.
// @Summary     Financial summary
// @Tags        reports
// @Produce     json
// @Success     200 {object} services.FinancialSummary
// @Router      /reports/summary [get]
func (h *ReportHandler) FinancialSummary(c *gin.Context) {
	report, err := h.reportService.FinancialSummary(time.Time{})
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, report)
}

// MonthlyReport breaks a month into daily income and expense.
// @Summary     Monthly report
// @Tags        reports
// @Produce     json
// @Param       year  query int true "Year"
// @Param       month query int true "Month (1-12)"
// @Success     200 {object} services.MonthlyReport
// @Failure     400 {object} ErrorResponse "Invalid month"
// @Router      /reports/monthly [get]
func (h *ReportHandler) MonthlyReport(c *gin.Context) {
	year, yearErr := strconv.Atoi(c.Query("year"))
	month, monthErr := strconv.Atoi(c.Query("month"))
	if yearErr != nil || monthErr != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "year and month are required"))
		return
	}

	report, err := h.reportService.MonthlyReport(year, time.Month(month))
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, report)
}

// requiredRange parses start_date and end_date; both must be present.
func (h *ReportHandler) requiredRange(c *gin.Context) (time.Time, time.Time, error) {
	start, end := normalizer(h.settingsService).DateRange(c.Query("start_date"), c.Query("end_date"))
	if start == nil || end == nil {
		return time.Time{}, time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "start_date and end_date are required")
	}
	return *start, *end, nil
}
