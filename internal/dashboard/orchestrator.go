package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/adlens/insight/internal/metrics"
	"github.com/adlens/insight/internal/models"
	"github.com/adlens/insight/internal/report"
	"github.com/adlens/insight/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is the orchestrator's lifecycle state.
type State string

const (
	StateIdle    State = "idle"    // nothing fetched yet
	StateLoading State = "loading" // fetch in flight, prior data held
	StateError   State = "error"   // last fetch failed, message retained
	StateReady   State = "ready"   // data present, derived views computed
)

// ViewKind selects which entity summary the dashboard shows.
type ViewKind string

const (
	ViewCampaign ViewKind = "campaign" // grouped by campaign name
	ViewSeller   ViewKind = "seller"   // grouped by client id
)

// Filters are the user-controlled inputs to the pipeline. The orchestrator
// owns them exclusively.
type Filters struct {
	Range    report.DateRange `json:"range"`
	Campaign string           `json:"campaign,omitempty"`
	Search   string           `json:"search,omitempty"`
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
	View     ViewKind         `json:"view"`
}

// Fetcher is the upstream collaborator that delivers the two raw collections.
type Fetcher interface {
	FetchReports(ctx context.Context) ([]models.RawDailyReport, error)
	FetchClients(ctx context.Context) ([]models.Client, error)
}

// ErrClosed is returned by Refresh after the orchestrator was torn down.
var ErrClosed = errors.New("dashboard: orchestrator closed")

// Options configures an Orchestrator.
type Options struct {
	Budget           report.BudgetPolicy
	PageSize         int
	DefaultRangeDays int
	KPIKey           string
	Prefs            PreferenceStore
	Snapshots        storage.SnapshotStore
	Metrics          *metrics.Metrics
	Logger           *zap.Logger
	Now              func() time.Time
}

// derived holds everything computed from one pipeline pass. It is replaced
// wholesale on every derivation so readers never observe a half-updated mix.
type derived struct {
	daily         []report.DailyRow
	chartErr      string
	fullCampaigns []report.CampaignRow
	fullSellers   []report.SellerRow
	sellerTotals  report.SellerTotals
	tableErr      string
	page          report.PageInfo
	options       []string
}

// Orchestrator owns the filter state and the two raw collections, and re-runs
// the aggregation pipeline whenever either changes. Raw collections are
// fetched once per Refresh and cached; filter changes only re-derive, and a
// page change only re-slices.
type Orchestrator struct {
	fetcher   Fetcher
	prefs     PreferenceStore
	snapshots storage.SnapshotStore
	metrics   *metrics.Metrics
	log       *zap.Logger
	budget    report.BudgetPolicy
	kpiKey    string
	now       func() time.Time

	mu       sync.Mutex
	filters  Filters
	state    State
	errMsg   string
	stale    bool
	raw      []models.ReportRecord
	clients  []models.Client
	index    report.ClientIndex
	view     derived
	kpi      string
	cycle   uint64
	closed  bool
	hasData bool
}

// New creates an orchestrator in the Idle state and loads the persisted KPI
// preference.
func New(ctx context.Context, fetcher Fetcher, opts Options) *Orchestrator {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Prefs == nil {
		opts.Prefs = NewMemoryPreferenceStore()
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 10
	}
	if opts.DefaultRangeDays <= 0 {
		opts.DefaultRangeDays = 10
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.KPIKey == "" {
		opts.KPIKey = "insight:kpi_target"
	}

	o := &Orchestrator{
		fetcher:   fetcher,
		prefs:     opts.Prefs,
		snapshots: opts.Snapshots,
		metrics:   opts.Metrics,
		log:       opts.Logger,
		budget:    opts.Budget,
		kpiKey:    opts.KPIKey,
		now:       opts.Now,
		state:     StateIdle,
		filters: Filters{
			Range:    report.LastDays(opts.DefaultRangeDays, opts.Now()),
			Page:     1,
			PageSize: opts.PageSize,
			View:     ViewCampaign,
		},
	}

	if kpi, err := o.prefs.Get(ctx, o.kpiKey); err != nil {
		o.log.Warn("failed to load kpi preference", zap.Error(err))
	} else {
		o.kpi = kpi
	}

	return o
}

// Refresh fetches both raw collections, normalizes them and recomputes every
// derived view. If two refreshes overlap, the one started last wins no matter
// which finishes first; the loser's result is discarded.
func (o *Orchestrator) Refresh(ctx context.Context) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return ErrClosed
	}
	o.cycle++
	cycle := o.cycle
	o.state = StateLoading
	o.mu.Unlock()

	cycleID := uuid.NewString()
	o.log.Info("refresh started", zap.String("cycle", cycleID))

	rawReports, err := o.timedFetchReports(ctx)
	if err != nil {
		return o.commitFailure(ctx, cycle, cycleID, err)
	}
	clients, err := o.timedFetchClients(ctx)
	if err != nil {
		return o.commitFailure(ctx, cycle, cycleID, err)
	}

	records, dropped := report.NormalizeRaw(rawReports)
	if o.metrics != nil {
		o.metrics.RecordDropped("invalid_date", dropped)
		o.metrics.RecordFetchSize("reports", len(records))
		o.metrics.RecordFetchSize("clients", len(clients))
	}
	if dropped > 0 {
		o.log.Warn("dropped records with unparseable dates",
			zap.String("cycle", cycleID),
			zap.Int("dropped", dropped),
		)
	}

	committed := o.commitData(cycle, records, clients, false)
	if !committed {
		if o.metrics != nil {
			o.metrics.RecordStaleCycle()
		}
		o.log.Info("discarding stale refresh result", zap.String("cycle", cycleID))
		return nil
	}

	o.log.Info("refresh complete",
		zap.String("cycle", cycleID),
		zap.Int("reports", len(records)),
		zap.Int("clients", len(clients)),
	)

	o.saveSnapshot(ctx, records, clients)
	return nil
}

func (o *Orchestrator) timedFetchReports(ctx context.Context) ([]models.RawDailyReport, error) {
	start := time.Now()
	out, err := o.fetcher.FetchReports(ctx)
	if o.metrics != nil {
		o.metrics.RecordFetch("reports", fetchStatus(err), time.Since(start))
	}
	return out, err
}

func (o *Orchestrator) timedFetchClients(ctx context.Context) ([]models.Client, error) {
	start := time.Now()
	out, err := o.fetcher.FetchClients(ctx)
	if o.metrics != nil {
		o.metrics.RecordFetch("clients", fetchStatus(err), time.Since(start))
	}
	return out, err
}

func fetchStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// commitData installs a freshly fetched data set and re-derives, unless a
// newer cycle has started or the orchestrator was closed in the meantime.
func (o *Orchestrator) commitData(cycle uint64, records []models.ReportRecord, clients []models.Client, stale bool) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed || cycle != o.cycle {
		return false
	}
	o.raw = records
	o.clients = clients
	o.index = report.NewClientIndex(clients)
	o.hasData = true
	o.stale = stale
	o.state = StateReady
	o.errMsg = ""
	o.deriveLocked()
	return true
}

// commitFailure handles a failed fetch cycle. When no data set has ever been
// committed it first tries the snapshot store so a restart with the upstream
// down still shows the last known dashboard, marked stale.
func (o *Orchestrator) commitFailure(ctx context.Context, cycle uint64, cycleID string, cause error) error {
	o.log.Error("refresh failed", zap.String("cycle", cycleID), zap.Error(cause))

	o.mu.Lock()
	hasData := o.hasData
	superseded := o.closed || cycle != o.cycle
	o.mu.Unlock()
	if superseded {
		if o.metrics != nil {
			o.metrics.RecordStaleCycle()
		}
		return nil
	}

	if !hasData && o.snapshots != nil {
		records, rErr := o.snapshots.LoadReports(ctx)
		clients, cErr := o.snapshots.LoadClients(ctx)
		if rErr == nil && cErr == nil && len(records) > 0 {
			if o.metrics != nil {
				o.metrics.RecordSnapshotLoad("ok")
			}
			o.log.Warn("upstream unavailable, serving snapshot",
				zap.String("cycle", cycleID),
				zap.Int("reports", len(records)),
			)
			if o.commitData(cycle, records, clients, true) {
				return cause
			}
			return nil
		}
		if o.metrics != nil {
			o.metrics.RecordSnapshotLoad("miss")
		}
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed || cycle != o.cycle {
		return nil
	}
	o.state = StateError
	o.errMsg = cause.Error()
	// Reset every derived output together so the UI never shows a mix of
	// old and new derivations next to an error banner.
	o.view = derived{}
	return cause
}

func (o *Orchestrator) saveSnapshot(ctx context.Context, records []models.ReportRecord, clients []models.Client) {
	if o.snapshots == nil {
		return
	}
	if err := o.snapshots.SaveReports(ctx, records); err != nil {
		o.log.Warn("failed to save report snapshot", zap.Error(err))
		return
	}
	if err := o.snapshots.SaveClients(ctx, clients); err != nil {
		o.log.Warn("failed to save client snapshot", zap.Error(err))
	}
}

// ---- Filter changes ----

// SetDateRange narrows the reporting window and resets pagination.
func (o *Orchestrator) SetDateRange(r report.DateRange) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.filters.Range == r {
		return
	}
	o.filters.Range = r
	o.filters.Page = 1
	o.deriveLocked()
}

// SetCampaign selects a single campaign ("" or "all" selects everything) and
// resets pagination.
func (o *Orchestrator) SetCampaign(name string) {
	if name == "all" {
		name = ""
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.filters.Campaign == name {
		return
	}
	o.filters.Campaign = name
	o.filters.Page = 1
	o.deriveLocked()
}

// SetSearch filters summary rows by display name and resets pagination.
func (o *Orchestrator) SetSearch(term string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.filters.Search == term {
		return
	}
	o.filters.Search = term
	o.filters.Page = 1
	o.deriveLocked()
}

// SetView switches between the campaign and seller summaries.
func (o *Orchestrator) SetView(v ViewKind) {
	if v != ViewCampaign && v != ViewSeller {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.filters.View == v {
		return
	}
	o.filters.View = v
	o.filters.Page = 1
	o.deriveLocked()
}

// SetPage moves to another page of the current summary. The raw collections
// are already cached, so this only re-slices; it never refetches.
func (o *Orchestrator) SetPage(page int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.filters.Page == page {
		return
	}
	o.filters.Page = page
	o.repaginateLocked()
}

// SetPageSize changes the page size. A non-positive size is rejected.
func (o *Orchestrator) SetPageSize(size int) error {
	if size <= 0 {
		return &report.ConfigError{Msg: fmt.Sprintf("page size must be positive, got %d", size)}
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.filters.PageSize == size {
		return nil
	}
	o.filters.PageSize = size
	o.filters.Page = 1
	o.repaginateLocked()
	return nil
}

// ---- Derivation ----

// deriveLocked recomputes every derived output from the cached raw set. The
// chart and the table are independent stages: a panic in one becomes that
// stage's error message while the other still renders. Callers hold o.mu.
func (o *Orchestrator) deriveLocked() {
	if !o.hasData {
		return
	}

	next := derived{options: report.DistinctCampaigns(o.raw)}

	filtered := report.FilterByDateRange(o.raw, o.filters.Range)
	if o.filters.Campaign != "" {
		selected := make([]models.ReportRecord, 0, len(filtered))
		for _, rec := range filtered {
			if rec.CampaignName == o.filters.Campaign {
				selected = append(selected, rec)
			}
		}
		filtered = selected
	}

	chartStart := time.Now()
	daily, chartErr := o.deriveDaily(filtered)
	if o.metrics != nil {
		o.metrics.RecordDerive("chart", time.Since(chartStart), chartErr != nil)
	}
	if chartErr != nil {
		o.log.Error("chart derivation failed", zap.Error(chartErr))
		next.chartErr = chartErr.Error()
	} else {
		next.daily = daily
	}

	tableStart := time.Now()
	tableErr := o.deriveTable(&next, filtered)
	if o.metrics != nil {
		o.metrics.RecordDerive("table", time.Since(tableStart), tableErr != nil)
	}
	if tableErr != nil {
		o.log.Error("table derivation failed", zap.Error(tableErr))
		next.tableErr = tableErr.Error()
		next.fullCampaigns = nil
		next.fullSellers = nil
		next.sellerTotals = report.SellerTotals{}
	}

	o.view = next

	if chartErr != nil && tableErr != nil {
		o.state = StateError
		o.errMsg = "both derivations failed: " + chartErr.Error() + "; " + tableErr.Error()
	}
}

func (o *Orchestrator) deriveDaily(filtered []models.ReportRecord) (rows []report.DailyRow, err error) {
	defer func() {
		if r := recover(); r != nil {
			rows = nil
			err = &report.AggregationError{Stage: "daily", Cause: fmt.Errorf("%v", r)}
		}
	}()
	return report.AggregateDaily(filtered), nil
}

func (o *Orchestrator) deriveTable(next *derived, filtered []models.ReportRecord) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &report.AggregationError{Stage: "entity", Cause: fmt.Errorf("%v", r)}
		}
	}()

	switch o.filters.View {
	case ViewSeller:
		rows := report.AggregateSellers(filtered, o.index)
		rows = report.SearchSellerRows(rows, o.filters.Search)
		next.fullSellers = rows
		next.sellerTotals = report.ComputeSellerTotals(rows)
		return o.paginate(next, len(rows))
	default:
		rows := report.AggregateCampaigns(filtered, o.budget)
		rows = report.SearchCampaignRows(rows, o.filters.Search)
		next.fullCampaigns = rows
		return o.paginate(next, len(rows))
	}
}

func (o *Orchestrator) paginate(next *derived, total int) error {
	info, err := report.Paginate(total, o.filters.PageSize, o.filters.Page)
	if err != nil {
		return err
	}
	if info.Clamped {
		// Keep the stored page in step with what is displayed.
		o.filters.Page = info.CurrentPage
	}
	next.page = info
	return nil
}

// repaginateLocked recomputes the page bounds without re-aggregating.
// Callers hold o.mu.
func (o *Orchestrator) repaginateLocked() {
	total := len(o.view.fullCampaigns)
	if o.filters.View == ViewSeller {
		total = len(o.view.fullSellers)
	}
	info, err := report.Paginate(total, o.filters.PageSize, o.filters.Page)
	if err != nil {
		o.view.tableErr = err.Error()
		return
	}
	if info.Clamped {
		o.filters.Page = info.CurrentPage
	}
	o.view.page = info
}

// ---- Read side ----

// View is the snapshot handed to the rendering layer on every read.
type View struct {
	State           State                `json:"state"`
	Error           string               `json:"error,omitempty"`
	ChartError      string               `json:"chartError,omitempty"`
	TableError      string               `json:"tableError,omitempty"`
	Stale           bool                 `json:"stale,omitempty"`
	Filters         Filters              `json:"filters"`
	Daily           []report.DailyRow    `json:"daily"`
	Campaigns       []report.CampaignRow `json:"campaigns,omitempty"`
	Sellers         []report.SellerRow   `json:"sellers,omitempty"`
	SellerTotals    *report.SellerTotals `json:"sellerTotals,omitempty"`
	Pagination      report.PageInfo      `json:"pagination"`
	CampaignOptions []string             `json:"campaignOptions"`
	KPITarget       string               `json:"kpiTarget,omitempty"`
}

// View returns the current consistent snapshot of all derived outputs.
func (o *Orchestrator) View() View {
	o.mu.Lock()
	defer o.mu.Unlock()

	v := View{
		State:           o.state,
		Error:           o.errMsg,
		ChartError:      o.view.chartErr,
		TableError:      o.view.tableErr,
		Stale:           o.stale,
		Filters:         o.filters,
		Daily:           o.view.daily,
		Pagination:      o.view.page,
		CampaignOptions: o.view.options,
		KPITarget:       o.kpi,
	}

	p := o.view.page
	switch o.filters.View {
	case ViewSeller:
		if o.view.fullSellers != nil {
			v.Sellers = o.view.fullSellers[p.Start:p.End]
			totals := o.view.sellerTotals
			v.SellerTotals = &totals
		}
	default:
		if o.view.fullCampaigns != nil {
			v.Campaigns = o.view.fullCampaigns[p.Start:p.End]
		}
	}
	return v
}

// WriteCSV streams the full, unpaginated entity summary for the current view.
func (o *Orchestrator) WriteCSV(w io.Writer) error {
	o.mu.Lock()
	view := o.filters.View
	campaigns := o.view.fullCampaigns
	sellers := o.view.fullSellers
	totals := o.view.sellerTotals
	o.mu.Unlock()

	if view == ViewSeller {
		return report.WriteSellerCSV(w, sellers, totals)
	}
	return report.WriteCampaignCSV(w, campaigns)
}

// Clients returns the cached client collection with connection status.
func (o *Orchestrator) Clients() []ClientInfo {
	o.mu.Lock()
	clients := o.clients
	o.mu.Unlock()
	return buildClientInfo(clients, o.now())
}

// ---- KPI preference ----

// KPITarget returns the cached KPI target value.
func (o *Orchestrator) KPITarget() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.kpi
}

// SetKPITarget persists a new KPI target through the injected store.
func (o *Orchestrator) SetKPITarget(ctx context.Context, value string) error {
	if err := o.prefs.Set(ctx, o.kpiKey, value); err != nil {
		return err
	}
	o.mu.Lock()
	o.kpi = value
	o.mu.Unlock()
	return nil
}

// ClearKPITarget removes the stored KPI target.
func (o *Orchestrator) ClearKPITarget(ctx context.Context) error {
	if err := o.prefs.Delete(ctx, o.kpiKey); err != nil {
		return err
	}
	o.mu.Lock()
	o.kpi = ""
	o.mu.Unlock()
	return nil
}

// ---- Lifecycle ----

// Close tears the orchestrator down. In-flight refreshes may still complete
// their fetches, but their results are discarded instead of written into
// state that no longer serves anyone.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
}

// Filters returns a copy of the current filter values.
func (o *Orchestrator) Filters() Filters {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.filters
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}
