// Package dashboard holds the page controllers of the console. A page owns one
// cache-first resource, its auto-refresh timer and the view state rendered
// for it.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"github.com/volumebot/console/internal/cachefirst"
	"github.com/volumebot/console/internal/clientdata"
	"github.com/volumebot/console/internal/clients/volumebot"
	"github.com/volumebot/console/internal/events"
	"github.com/volumebot/console/internal/session"
	"github.com/volumebot/console/internal/views"
)

// DefaultRefreshInterval is the auto refresh period of a mounted page.
const DefaultRefreshInterval = 30 * time.Second

// Query is the user-controlled part of a page: which server page and date
// range to fetch, and the client-side filters applied to the result.
type Query struct {
	Page      int
	Search    string
	TradeType string
	Range     views.DateRange
}

// Fetcher performs the remote call of one page with the caller's token.
type Fetcher[T any] func(ctx context.Context, token string, q Query) (T, error)

// Credentials is the part of the auth gate a page needs. *session.Gate satisfies it.
type Credentials interface {
	Credential() (session.Session, bool)
	HandleUnauthorized(token string) bool
}

// Emitter publishes page events. *events.Manager satisfies it.
type Emitter interface {
	EmitTyped(module string, data events.EventData)
}

// PageConfig describes one page.
type PageConfig[T any] struct {
	Name  string
	Title string
	Key   string
	Fetch Fetcher[T]
	// Render builds the visible table, false when the page has none.
	Render func(data T, q Query, loc *time.Location) (views.Table, bool)
	// Paginate returns the server totals and the number of rows received.
	// Nil for pages that are not paginated.
	Paginate func(data T) (volumebot.Pagination, int)
	// Count is the number of items reported in refresh events.
	Count func(data T) int
	// FetchError is the banner shown when a failure carries no message.
	FetchError string
	// Noun labels the pagination, e.g. "balances".
	Noun string
	// Dated pages fetch or filter by the query's date range.
	Dated bool
}

// Deps are shared by every page.
type Deps struct {
	Store        cachefirst.Store
	Gate         Credentials
	Emitter      Emitter
	Clock        clock.Clock
	Log          zerolog.Logger
	Interval     time.Duration
	PageSize     int
	MaxStaleness time.Duration
	Location     *time.Location
}

// State is a copy of what a page shows.
// Loading is true while nothing can be shown yet.
type State[T any] struct {
	Data       T
	HasData    bool
	Loading    bool
	Refreshing bool
	Err        string
	FetchedAt  time.Time
	Query      Query
	Pagination views.Pagination
}

// Page is the controller of one dashboard page.
type Page[T any] struct {
	cfg      PageConfig[T]
	resource *cachefirst.Resource[T]
	gate     Credentials
	emitter  Emitter
	clock    clock.Clock
	log      zerolog.Logger
	interval time.Duration
	loc      *time.Location

	mu          sync.Mutex
	state       State[T]
	mounted     bool
	generation  uint64
	inflight    int
	ctx         context.Context
	cancelCtx   context.CancelFunc
	cancelTimer cachefirst.CancelFunc
}

// NewPage creates an unmounted page.
func NewPage[T any](cfg PageConfig[T], deps Deps) (*Page[T], error) {
	if cfg.Fetch == nil {
		return nil, fmt.Errorf("page %s: fetcher is required", cfg.Name)
	}
	if deps.Gate == nil {
		return nil, fmt.Errorf("page %s: auth gate is required", cfg.Name)
	}
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	if deps.Interval <= 0 {
		deps.Interval = DefaultRefreshInterval
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}

	log := deps.Log.With().Str("component", "page").Str("page", cfg.Name).Logger()
	resource, err := cachefirst.New[T](cfg.Key, deps.Store, cachefirst.Config{
		TTL:   clientdata.TTLFor(cfg.Key, deps.MaxStaleness),
		Clock: deps.Clock,
		Log:   deps.Log,
	})
	if err != nil {
		return nil, fmt.Errorf("page %s: %w", cfg.Name, err)
	}

	p := &Page[T]{
		cfg:      cfg,
		resource: resource,
		gate:     deps.Gate,
		emitter:  deps.Emitter,
		clock:    deps.Clock,
		log:      log,
		interval: deps.Interval,
		loc:      deps.Location,
	}
	p.state = p.initialState(deps.PageSize)
	return p, nil
}

func (p *Page[T]) initialState(pageSize int) State[T] {
	return State[T]{
		Query: Query{
			Page:  1,
			Range: views.DefaultDateRange(p.clock.Now().In(p.loc)),
		},
		Pagination: views.NewPagination(pageSize),
	}
}

// Name returns the page name.
func (p *Page[T]) Name() string { return p.cfg.Name }

// Title returns the page title.
func (p *Page[T]) Title() string { return p.cfg.Title }

// Resource returns the cached resource behind the page.
func (p *Page[T]) Resource() *cachefirst.Resource[T] { return p.resource }

// Mounted reports whether the page is mounted.
func (p *Page[T]) Mounted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mounted
}

// Mount shows the cached snapshot, starts a background refresh and schedules
// the auto refresh. Mounting a mounted page does nothing.
func (p *Page[T]) Mount(ctx context.Context) {
	p.mu.Lock()
	if p.mounted {
		p.mu.Unlock()
		return
	}
	p.mounted = true
	p.generation++
	p.ctx, p.cancelCtx = context.WithCancel(ctx)

	if value, fetchedAt, ok := p.resource.LoadCachedAt(); ok {
		p.applyDataLocked(value, fetchedAt)
	}
	p.state.Loading = !p.state.HasData
	p.mu.Unlock()

	p.log.Debug().Bool("cached", !p.State().Loading).Msg("Page mounted")

	p.refreshAsync()

	cancelTimer := p.resource.ScheduleAutoRefresh(p.interval, p.refreshOnTick)
	p.mu.Lock()
	if p.mounted {
		p.cancelTimer = cancelTimer
		cancelTimer = nil
	}
	p.mu.Unlock()
	if cancelTimer != nil {
		// Unmounted while the timer was being created
		cancelTimer()
	}
}

// Unmount stops the auto refresh and cancels in-flight requests. No state
// change from a request started while mounted is applied afterwards.
// Idempotent.
func (p *Page[T]) Unmount() {
	p.mu.Lock()
	if !p.mounted {
		p.mu.Unlock()
		return
	}
	p.mounted = false
	p.generation++
	cancelTimer, cancelCtx := p.cancelTimer, p.cancelCtx
	p.cancelTimer, p.cancelCtx = nil, nil
	p.inflight = 0
	p.state.Loading = false
	p.state.Refreshing = false
	p.mu.Unlock()

	if cancelCtx != nil {
		cancelCtx()
	}
	if cancelTimer != nil {
		cancelTimer()
	}
	p.log.Debug().Msg("Page unmounted")
}

// Reset unmounts the page and drops everything it shows. Used when the
// session ends so nothing of the previous user remains on screen.
func (p *Page[T]) Reset() {
	p.Unmount()
	p.resource.Forget()

	p.mu.Lock()
	p.generation++
	p.state = p.initialState(p.state.Pagination.PageSize)
	p.mu.Unlock()
}

// State returns a copy of the page state.
func (p *Page[T]) State() State[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// DismissError clears the error banner.
func (p *Page[T]) DismissError() {
	p.mu.Lock()
	p.state.Err = ""
	p.mu.Unlock()
}

// Reload re-fetches on the user's request.
func (p *Page[T]) Reload() {
	p.refreshAsync()
}

// SetQuery replaces the query. A change of page or date range re-fetches;
// search and type only filter what is already loaded.
func (p *Page[T]) SetQuery(q Query) {
	if q.Page < 1 {
		q.Page = 1
	}

	p.mu.Lock()
	prev := p.state.Query
	p.state.Query = q
	p.state.Pagination.Page = q.Page
	refetch := prev.Page != q.Page || !prev.Range.Start.Equal(q.Range.Start) || !prev.Range.End.Equal(q.Range.End)
	p.mu.Unlock()

	if refetch {
		p.refreshAsync()
	}
}

// Query returns the current query.
func (p *Page[T]) Query() Query {
	return p.State().Query
}

// SetSearch changes the client-side search.
func (p *Page[T]) SetSearch(search string) {
	p.updateQuery(func(q *Query) { q.Search = search })
}

// SetTradeType changes the buy/sell filter; empty shows both.
func (p *Page[T]) SetTradeType(tradeType string) {
	p.updateQuery(func(q *Query) { q.TradeType = tradeType })
}

// CycleTradeType steps the buy/sell filter and returns the new value.
func (p *Page[T]) CycleTradeType() string {
	next := views.NextTradeType(p.Query().TradeType)
	p.SetTradeType(next)
	return next
}

// SetRange changes the date range and goes back to the first page.
func (p *Page[T]) SetRange(r views.DateRange) error {
	if err := r.Validate(); err != nil {
		return err
	}
	p.updateQuery(func(q *Query) {
		q.Range = r
		q.Page = 1
	})
	return nil
}

func (p *Page[T]) updateQuery(mutate func(q *Query)) {
	q := p.Query()
	mutate(&q)
	p.SetQuery(q)
}

// NextPage moves to the following server page.
func (p *Page[T]) NextPage() {
	p.movePage(views.Pagination.Next)
}

// PrevPage moves to the previous server page.
func (p *Page[T]) PrevPage() {
	p.movePage(views.Pagination.Prev)
}

func (p *Page[T]) movePage(step func(views.Pagination) views.Pagination) {
	p.mu.Lock()
	q := p.state.Query
	q.Page = step(p.state.Pagination).Page
	p.mu.Unlock()

	p.SetQuery(q)
}

// Table renders the visible rows, false when the page has no table.
func (p *Page[T]) Table() (views.Table, bool) {
	if p.cfg.Render == nil {
		return views.Table{}, false
	}
	s := p.State()
	return p.cfg.Render(s.Data, s.Query, p.loc)
}

// RefreshNow fetches synchronously and returns the error the banner would show.
// It does nothing without an authenticated session.
func (p *Page[T]) RefreshNow(ctx context.Context) error {
	p.mu.Lock()
	gen := p.generation
	q := p.state.Query
	p.mu.Unlock()

	fetch, token, ok := p.bind(q)
	if !ok {
		return nil
	}
	p.begin(gen)
	value, err := p.resource.Fetch(ctx, fetch)
	p.finish(gen)

	switch {
	case err == nil:
		p.onSuccess(gen, value)
		return nil
	case errors.Is(err, cachefirst.ErrSuperseded), ctx.Err() != nil:
		return nil
	default:
		p.onError(gen, token, err)
		return err
	}
}

// Submit runs a write whose answer is the new value of the page, commits that
// answer to the cache and shows it. A write without a session fails with
// volumebot.ErrNoToken; a rejected credential ends the session.
func (p *Page[T]) Submit(ctx context.Context, write func(ctx context.Context, token string) (T, error)) (T, error) {
	var zero T
	cred, ok := p.gate.Credential()
	if !ok {
		return zero, volumebot.ErrNoToken
	}

	p.mu.Lock()
	gen := p.generation
	p.mu.Unlock()

	var written T
	value, err := p.resource.Fetch(ctx, func(ctx context.Context) (T, error) {
		v, err := write(ctx, cred.Token)
		written = v
		return v, err
	})
	switch {
	case err == nil:
		p.onSuccess(gen, value)
		return value, nil
	case errors.Is(err, cachefirst.ErrSuperseded):
		// Saved remotely; a newer read already replaced the snapshot
		return written, nil
	default:
		if volumebot.IsUnauthorized(err) {
			go p.gate.HandleUnauthorized(cred.Token)
		}
		return zero, err
	}
}

// bind closes the fetcher over the current credential and query.
func (p *Page[T]) bind(q Query) (cachefirst.FetchFunc[T], string, bool) {
	cred, ok := p.gate.Credential()
	if !ok {
		return nil, "", false
	}
	token := cred.Token
	return func(ctx context.Context) (T, error) {
		return p.cfg.Fetch(ctx, token, q)
	}, token, true
}

func (p *Page[T]) refreshAsync() {
	p.mu.Lock()
	if !p.mounted {
		p.mu.Unlock()
		return
	}
	ctx, gen, q := p.ctx, p.generation, p.state.Query
	p.mu.Unlock()

	fetch, token, ok := p.bind(q)
	if !ok {
		p.log.Debug().Msg("No session, skipping refresh")
		p.mu.Lock()
		p.state.Loading = false
		p.mu.Unlock()
		return
	}

	p.begin(gen)
	p.resource.Refresh(ctx, func(ctx context.Context) (T, error) {
		defer p.finish(gen)
		return fetch(ctx)
	}, func(value T) {
		p.onSuccess(gen, value)
	}, func(err error) {
		p.onError(gen, token, err)
	})
}

// refreshOnTick runs on the timer goroutine.
func (p *Page[T]) refreshOnTick(ctx context.Context) {
	if !p.Mounted() {
		return
	}
	_ = p.RefreshNow(ctx)
}

func (p *Page[T]) begin(gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.generation {
		return
	}
	p.inflight++
	p.state.Refreshing = true
}

func (p *Page[T]) finish(gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.generation || p.inflight == 0 {
		return
	}
	p.inflight--
	p.state.Refreshing = p.inflight > 0
}

func (p *Page[T]) onSuccess(gen uint64, value T) {
	_, fetchedAt, _ := p.resource.Current()

	p.mu.Lock()
	if gen != p.generation {
		p.mu.Unlock()
		return
	}
	p.applyDataLocked(value, fetchedAt)
	p.state.Loading = false
	p.state.Err = ""
	p.mu.Unlock()

	if p.emitter != nil {
		items := 0
		if p.cfg.Count != nil {
			items = p.cfg.Count(value)
		}
		p.emitter.EmitTyped(p.cfg.Name, &events.ResourceRefreshedData{
			Key:       p.cfg.Key,
			FetchedAt: fetchedAt.UTC().Format(time.RFC3339),
			Items:     items,
		})
	}
}

func (p *Page[T]) applyDataLocked(value T, fetchedAt time.Time) {
	p.state.Data = value
	p.state.HasData = true
	p.state.FetchedAt = fetchedAt
	if p.cfg.Paginate != nil {
		server, received := p.cfg.Paginate(value)
		p.state.Pagination = p.state.Pagination.Apply(server, received)
	}
}

// onError keeps whatever is shown. A rejected credential ends the session.
func (p *Page[T]) onError(gen uint64, token string, err error) {
	unauthorized := volumebot.IsUnauthorized(err)
	banner := volumebot.Message(err, p.cfg.FetchError)

	p.mu.Lock()
	current := gen == p.generation
	if current {
		p.state.Loading = false
		p.state.Err = banner
	}
	p.mu.Unlock()

	p.log.Warn().Err(err).Bool("unauthorized", unauthorized).Msg("Refresh failed")

	if p.emitter != nil {
		p.emitter.EmitTyped(p.cfg.Name, &events.ResourceRefreshFailedData{
			Key:          p.cfg.Key,
			Error:        banner,
			Unauthorized: unauthorized,
		})
	}

	if unauthorized {
		// The teardown unmounts this page, which waits for the timer
		// goroutine this may be running on.
		go p.gate.HandleUnauthorized(token)
	}
}

// View is the page state in a form the gateway and the terminal UI render.
type View struct {
	Name       string            `json:"name"`
	Title      string            `json:"title"`
	HasData    bool              `json:"has_data"`
	Loading    bool              `json:"loading"`
	Refreshing bool              `json:"refreshing"`
	Error      string            `json:"error,omitempty"`
	FetchedAt  *time.Time        `json:"fetched_at,omitempty"`
	Pagination *views.Pagination `json:"pagination,omitempty"`
	PageLabel  string            `json:"page_label,omitempty"`
	Search     string            `json:"search,omitempty"`
	TradeType  string            `json:"trade_type,omitempty"`
	StartDate  string            `json:"start_date,omitempty"`
	EndDate    string            `json:"end_date,omitempty"`
	Data       interface{}       `json:"data,omitempty"`
	Table      *views.Table      `json:"table,omitempty"`
}

// View snapshots the page for rendering.
func (p *Page[T]) View() View {
	s := p.State()
	v := View{
		Name:       p.cfg.Name,
		Title:      p.cfg.Title,
		HasData:    s.HasData,
		Loading:    s.Loading,
		Refreshing: s.Refreshing,
		Error:      s.Err,
		Search:     s.Query.Search,
		TradeType:  s.Query.TradeType,
	}
	if p.cfg.Dated {
		v.StartDate = s.Query.Range.Start.Format(views.DateLayout)
		v.EndDate = s.Query.Range.End.Format(views.DateLayout)
	}
	if !s.FetchedAt.IsZero() {
		fetchedAt := s.FetchedAt
		v.FetchedAt = &fetchedAt
	}
	if p.cfg.Paginate != nil {
		pagination := s.Pagination
		v.Pagination = &pagination
		v.PageLabel = pagination.Label(p.cfg.Noun)
	}
	if s.HasData {
		v.Data = s.Data
	}
	if p.cfg.Render != nil {
		table, _ := p.cfg.Render(s.Data, s.Query, p.loc)
		v.Table = &table
	}
	return v
}
