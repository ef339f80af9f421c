package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/de-tools/book-atlas/pkg/adapters"
	"github.com/de-tools/book-atlas/pkg/models/api"
	"github.com/de-tools/book-atlas/pkg/models/domain"
	"github.com/de-tools/book-atlas/pkg/services/dashboard"
	"github.com/de-tools/book-atlas/pkg/services/export"
	"github.com/de-tools/book-atlas/pkg/services/loader"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const (
	defaultPageSize = 50
	maxPageSize     = 1000
)

// Service is the dashboard behaviour the HTTP API exposes.
type Service interface {
	Variant() domain.Variant
	Status() dashboard.Status
	Reload(ctx context.Context) error
	Filters() domain.FilterSet
	SetFilters(set domain.FilterSet) error
	ResetFilters()
	Page(offset, limit int, column string, desc bool) ([]domain.Record, int)
	Summary() domain.Summary
	Percentile(p float64) float64
	Aggregate(dimension string, top int) ([]domain.AggregateRow, error)
	Partners() []domain.AggregateRow
	VendorDistribution() (domain.VendorDistribution, error)
	StatusDistribution() domain.StatusDistribution
	StatusByGroup(dimension string) ([]domain.GroupStatus, error)
	Opportunities() domain.Opportunities
	SupportCoverage() domain.SupportCoverage
	Options(dimension string) ([]string, error)
	ExportFilename() string
	Export(w io.Writer) error
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/status", h.GetStatus)
	r.Post("/reload", h.Reload)
	r.Get("/filters", h.GetFilters)
	r.Put("/filters", h.SetFilters)
	r.Delete("/filters", h.ResetFilters)
	r.Get("/records", h.ListRecords)
	r.Get("/summary", h.GetSummary)
	r.Get("/summary/percentile", h.GetPercentile)
	r.Get("/aggregations/{dimension}", h.GetAggregation)
	r.Get("/partners", h.GetPartners)
	r.Get("/distributions/vendors", h.GetVendorDistribution)
	r.Get("/distributions/status", h.GetStatusDistribution)
	r.Get("/distributions/status/{dimension}", h.GetStatusByGroup)
	r.Get("/opportunities", h.GetOpportunities)
	r.Get("/support-coverage", h.GetSupportCoverage)
	r.Get("/options/{dimension}", h.GetOptions)
	r.Get("/export.csv", h.ExportCSV)
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to encode response")
	}
}

// writeError maps dashboard errors onto HTTP statuses.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, dashboard.ErrUnknownFilter), errors.Is(err, dashboard.ErrUnknownDimension):
		status = http.StatusBadRequest
	case errors.Is(err, export.ErrNoData):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, loader.ErrLoad):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		zerolog.Ctx(ctx).Error().Err(err).Msg("request failed")
	}
	writeJSON(ctx, w, status, api.Error{Error: err.Error()})
}

func badRequest(ctx context.Context, w http.ResponseWriter, msg string) {
	writeJSON(ctx, w, http.StatusBadRequest, api.Error{Error: msg})
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return v, nil
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, adapters.MapStatusDomainToApi(h.svc.Status()))
}

func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.svc.Reload(ctx); err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, adapters.MapStatusDomainToApi(h.svc.Status()))
}

func (h *Handler) GetFilters(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string(h.svc.Filters()))
}

func (h *Handler) SetFilters(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body map[string]string
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(ctx, w, "filters must be a JSON object of strings")
		return
	}
	if err := h.svc.SetFilters(domain.FilterSet(body)); err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, adapters.MapStatusDomainToApi(h.svc.Status()))
}

func (h *Handler) ResetFilters(w http.ResponseWriter, r *http.Request) {
	h.svc.ResetFilters()
	writeJSON(r.Context(), w, http.StatusOK, adapters.MapStatusDomainToApi(h.svc.Status()))
}

func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	offset, err := intParam(r, "offset", 0)
	if err != nil {
		badRequest(ctx, w, err.Error())
		return
	}
	limit, err := intParam(r, "limit", defaultPageSize)
	if err != nil {
		badRequest(ctx, w, err.Error())
		return
	}
	limit = min(limit, maxPageSize)
	desc, _ := strconv.ParseBool(r.URL.Query().Get("desc"))

	page, total := h.svc.Page(offset, limit, r.URL.Query().Get("sort"), desc)
	writeJSON(ctx, w, http.StatusOK, api.Records{
		Total:   total,
		Offset:  offset,
		Limit:   limit,
		Records: adapters.MapRecordsDomainToApi(page),
	})
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	withAmounts := h.svc.Variant().HasAmount()
	writeJSON(r.Context(), w, http.StatusOK, adapters.MapSummaryDomainToApi(h.svc.Summary(), withAmounts))
}

func (h *Handler) GetPercentile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := strconv.ParseFloat(r.URL.Query().Get("p"), 64)
	if err != nil || p < 0 || p > 100 {
		badRequest(ctx, w, "p must be a number between 0 and 100")
		return
	}
	writeJSON(ctx, w, http.StatusOK, api.Percentile{P: p, Value: h.svc.Percentile(p)})
}

func (h *Handler) GetAggregation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	dimension := chi.URLParam(r, "dimension")

	top, err := intParam(r, "top", 0)
	if err != nil {
		badRequest(ctx, w, err.Error())
		return
	}
	rows, err := h.svc.Aggregate(dimension, top)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, api.Aggregation{
		Dimension: dimension,
		Rows:      adapters.MapAggregateRowsDomainToApi(rows, h.svc.Variant().HasAmount()),
	})
}

func (h *Handler) GetPartners(w http.ResponseWriter, r *http.Request) {
	rows := adapters.MapAggregateRowsDomainToApi(h.svc.Partners(), h.svc.Variant().HasAmount())
	writeJSON(r.Context(), w, http.StatusOK, api.Aggregation{Dimension: "partner", Rows: rows})
}

func (h *Handler) GetVendorDistribution(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	dist, err := h.svc.VendorDistribution()
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, adapters.MapVendorDistributionDomainToApi(dist))
}

func (h *Handler) GetStatusDistribution(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, adapters.MapStatusDistributionDomainToApi(h.svc.StatusDistribution()))
}

func (h *Handler) GetStatusByGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	groups, err := h.svc.StatusByGroup(chi.URLParam(r, "dimension"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, adapters.MapGroupStatusesDomainToApi(groups))
}

func (h *Handler) GetOpportunities(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, adapters.MapOpportunitiesDomainToApi(h.svc.Opportunities()))
}

func (h *Handler) GetSupportCoverage(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, adapters.MapSupportCoverageDomainToApi(h.svc.SupportCoverage()))
}

func (h *Handler) GetOptions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	dimension := chi.URLParam(r, "dimension")
	values, err := h.svc.Options(dimension)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, api.Options{Dimension: dimension, Values: values})
}

// ExportCSV renders into memory first so an empty view never yields a partial download.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	var buf bytes.Buffer
	if err := h.svc.Export(&buf); err != nil {
		writeError(ctx, w, err)
		return
	}

	filename := h.svc.ExportFilename()
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		logger.Error().Err(err).Str("file", filename).Msg("failed to write export")
		return
	}
	logger.Info().Str("file", filename).Msg("exported filtered view")
}
