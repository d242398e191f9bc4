// Package scheduleapi exposes schedule management and manual execution.
package scheduleapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dojoware/collect/internal/api"
	"github.com/dojoware/collect/internal/ledger"
	"github.com/dojoware/collect/internal/org"
	"github.com/dojoware/collect/internal/provider"
	"github.com/dojoware/collect/internal/schedule"
	"github.com/dojoware/collect/internal/timeutil"
)

// OrgSource resolves the tenant behind the org scope header.
type OrgSource interface {
	Org(ctx context.Context, id string) (*org.Org, error)
}

type Server struct {
	service    schedule.Service
	trigger    schedule.Trigger
	orgService OrgSource
	providers  provider.Registry
	validate   *validator.Validate
}

func NewServer(service schedule.Service, trigger schedule.Trigger, orgService OrgSource, providers provider.Registry) Server {
	return Server{
		service:    service,
		trigger:    trigger,
		orgService: orgService,
		providers:  providers,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (s Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /schedules", s.list)
	mux.HandleFunc("POST /schedules", s.create)
	mux.HandleFunc("GET /schedules/{id}", s.get)
	mux.HandleFunc("PUT /schedules/{id}", s.update)
	mux.HandleFunc("DELETE /schedules/{id}", s.delete)
	mux.HandleFunc("POST /schedules/{id}/execute", s.execute)
	mux.HandleFunc("GET /schedules/{id}/executions", s.executions)
	mux.HandleFunc("GET /schedules/provider-status", s.providerStatus)
}

type scheduleRequest struct {
	Name       string   `json:"name" validate:"required,max=100"`
	DayOfMonth int      `json:"day_of_month" validate:"required,min=1,max=28"`
	TimeOfDay  string   `json:"time_of_day" validate:"required"`
	Categories []string `json:"categories" validate:"required,min=1,dive,oneof=DUES INVOICES SALES"`
	Active     bool     `json:"active"`
}

type scheduleResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	DayOfMonth int       `json:"day_of_month"`
	TimeOfDay  string    `json:"time_of_day"`
	Categories []string  `json:"categories"`
	Active     bool      `json:"active"`

	LastRunAt     *timeutil.DateTime `json:"last_run_at,omitempty"`
	LastRunStatus *string            `json:"last_run_status,omitempty"`
	LastRunCount  int                `json:"last_run_count"`
	LastRunTotal  decimal.Decimal    `json:"last_run_total"`
}

type executionResponse struct {
	ID             uuid.UUID          `json:"id"`
	Status         string             `json:"status"`
	ProcessedCount int                `json:"processed_count"`
	SucceededCount int                `json:"succeeded_count"`
	FailedCount    int                `json:"failed_count"`
	TotalAmount    decimal.Decimal    `json:"total_amount"`
	BatchRef       *string            `json:"batch_ref,omitempty"`
	ErrorDetail    *string            `json:"error_detail,omitempty"`
	StartedAt      timeutil.DateTime  `json:"started_at"`
	FinishedAt     *timeutil.DateTime `json:"finished_at,omitempty"`
}

func (s Server) list(w http.ResponseWriter, r *http.Request) {
	schedules, err := s.service.Schedules(r.Context(), api.OrgID(r.Context()))
	if err != nil {
		api.WriteError(w, err)
		return
	}

	resp := make([]scheduleResponse, 0, len(schedules))
	for _, sched := range schedules {
		resp = append(resp, toResponse(sched))
	}
	api.WriteJSON(w, resp, http.StatusOK)
}

func (s Server) get(w http.ResponseWriter, r *http.Request) {
	sched, err := s.service.Schedule(r.Context(), r.PathValue("id"), api.OrgID(r.Context()))
	if err != nil {
		writeScheduleError(w, err)
		return
	}
	api.WriteJSON(w, toResponse(sched), http.StatusOK)
}

func (s Server) create(w http.ResponseWriter, r *http.Request) {
	req, err := s.decode(r)
	if err != nil {
		api.WriteError(w, err)
		return
	}

	sched := &schedule.Schedule{
		Name:       req.Name,
		DayOfMonth: req.DayOfMonth,
		TimeOfDay:  req.TimeOfDay,
		Categories: toCategories(req.Categories),
		Active:     req.Active,
		OrgID:      api.OrgID(r.Context()),
		CreatedAt:  timeutil.DateTimeNow(),
	}
	if err := s.service.Save(r.Context(), sched); err != nil {
		writeScheduleError(w, err)
		return
	}
	api.WriteJSON(w, toResponse(sched), http.StatusCreated)
}

func (s Server) update(w http.ResponseWriter, r *http.Request) {
	sched, err := s.service.Schedule(r.Context(), r.PathValue("id"), api.OrgID(r.Context()))
	if err != nil {
		writeScheduleError(w, err)
		return
	}

	req, err := s.decode(r)
	if err != nil {
		api.WriteError(w, err)
		return
	}

	sched.Name = req.Name
	sched.DayOfMonth = req.DayOfMonth
	sched.TimeOfDay = req.TimeOfDay
	sched.Categories = toCategories(req.Categories)
	sched.Active = req.Active
	if err := s.service.Save(r.Context(), sched); err != nil {
		writeScheduleError(w, err)
		return
	}
	api.WriteJSON(w, toResponse(sched), http.StatusOK)
}

func (s Server) delete(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Delete(r.Context(), r.PathValue("id"), api.OrgID(r.Context())); err != nil {
		writeScheduleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// execute fires the schedule immediately, bypassing the once-per-day guard.
func (s Server) execute(w http.ResponseWriter, r *http.Request) {
	exec, err := s.trigger.RunNow(r.Context(), r.PathValue("id"), api.OrgID(r.Context()))
	if err != nil {
		writeScheduleError(w, err)
		return
	}
	api.WriteJSON(w, toExecutionResponse(exec), http.StatusOK)
}

func (s Server) executions(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	executions, err := s.service.Executions(r.Context(), r.PathValue("id"), api.OrgID(r.Context()), limit)
	if err != nil {
		writeScheduleError(w, err)
		return
	}

	resp := make([]executionResponse, 0, len(executions))
	for _, exec := range executions {
		resp = append(resp, toExecutionResponse(exec))
	}
	api.WriteJSON(w, resp, http.StatusOK)
}

// providerStatus reports whether the tenant's charge strategy is ready, so
// an admin can tell a misconfigured tenant apart from one with nothing to
// collect before the next run fails.
func (s Server) providerStatus(w http.ResponseWriter, r *http.Request) {
	o, err := s.orgService.Org(r.Context(), api.OrgID(r.Context()))
	if err != nil {
		api.WriteError(w, err)
		return
	}

	status := s.providers.ForOrg(o).ConfigurationStatus(o)
	api.WriteJSON(w, status, http.StatusOK)
}

func (s Server) decode(r *http.Request) (scheduleRequest, error) {
	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, api.NewError("INVALID_BODY", http.StatusBadRequest, "could not decode request body")
	}
	if err := s.validate.Struct(req); err != nil {
		return req, api.NewError("INVALID_REQUEST", http.StatusBadRequest, err.Error())
	}
	return req, nil
}

func writeScheduleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, schedule.ErrNotFound):
		api.WriteError(w, api.NewError("NOT_FOUND", http.StatusNotFound, "schedule not found"))
	case errors.Is(err, schedule.ErrInvalidSchedule):
		api.WriteError(w, api.NewError("INVALID_SCHEDULE", http.StatusBadRequest, err.Error()))
	case errors.Is(err, schedule.ErrHasExecutions):
		api.WriteError(w, api.NewError("HAS_EXECUTIONS", http.StatusConflict, "schedule has executions, deactivate it instead"))
	default:
		api.WriteError(w, err)
	}
}

func toCategories(values []string) schedule.Categories {
	categories := make(schedule.Categories, 0, len(values))
	for _, v := range values {
		if category, ok := ledger.ParseCategory(v); ok {
			categories = append(categories, category)
		}
	}
	return categories
}

func toResponse(sched *schedule.Schedule) scheduleResponse {
	categories := make([]string, 0, len(sched.Categories))
	for _, category := range sched.Categories {
		categories = append(categories, string(category))
	}

	resp := scheduleResponse{
		ID:           sched.ID,
		Name:         sched.Name,
		DayOfMonth:   sched.DayOfMonth,
		TimeOfDay:    sched.TimeOfDay,
		Categories:   categories,
		Active:       sched.Active,
		LastRunAt:    sched.LastRunAt,
		LastRunCount: sched.LastRunCount,
		LastRunTotal: sched.LastRunTotal,
	}
	if sched.LastRunStatus != nil {
		status := string(*sched.LastRunStatus)
		resp.LastRunStatus = &status
	}
	return resp
}

func toExecutionResponse(exec *schedule.Execution) executionResponse {
	return executionResponse{
		ID:             exec.ID,
		Status:         string(exec.Status),
		ProcessedCount: exec.ProcessedCount,
		SucceededCount: exec.SucceededCount,
		FailedCount:    exec.FailedCount,
		TotalAmount:    exec.TotalAmount,
		BatchRef:       exec.GatewayBatchRef,
		ErrorDetail:    exec.ErrorDetail,
		StartedAt:      exec.StartedAt,
		FinishedAt:     exec.FinishedAt,
	}
}
