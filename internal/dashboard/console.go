package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/volumebot/console/internal/clientdata"
	"github.com/volumebot/console/internal/clients/volumebot"
	"github.com/volumebot/console/internal/events"
	"github.com/volumebot/console/internal/session"
	"github.com/volumebot/console/internal/utils"
	"github.com/volumebot/console/internal/views"
	"golang.org/x/sync/errgroup"
)

// Page names, also used as gateway route parameters.
const (
	PageDashboard     = "dashboard"
	PageBalances      = "balances"
	PageTopups        = "topups"
	PageTrades        = "trades"
	PageWallet        = "wallet"
	PageTradingConfig = "trading-config"
)

// API is the remote API used by the pages. *volumebot.Client satisfies it.
type API interface {
	Dashboard(ctx context.Context, token string) (volumebot.Dashboard, error)
	DailyLastBalances(ctx context.Context, token string, q volumebot.PageQuery) (volumebot.BalancesPage, error)
	Topups(ctx context.Context, token string, q volumebot.PageQuery) (volumebot.TopupsPage, error)
	Trades(ctx context.Context, token string, q volumebot.PageQuery) (volumebot.TradesPage, error)
	WalletBalances(ctx context.Context, token string) (volumebot.WalletBalances, error)
	TradingConfig(ctx context.Context, token string) (volumebot.TradingConfig, error)
	UpdateTradingConfig(ctx context.Context, token string, cfg volumebot.TradingConfig) (volumebot.TradingConfig, error)
}

// Auth is the auth gate as the console sees it. *session.Gate satisfies it.
type Auth interface {
	Credentials
	Authenticated() bool
	OnChange(fn func(session.State)) func()
}

// Controller is the type-independent surface of a Page.
type Controller interface {
	Name() string
	Title() string
	Mount(ctx context.Context)
	Unmount()
	Reset()
	Mounted() bool
	Reload()
	RefreshNow(ctx context.Context) error
	DismissError()
	NextPage()
	PrevPage()
	SetSearch(search string)
	CycleTradeType() string
	SetTradeType(tradeType string)
	SetRange(r views.DateRange) error
	SetQuery(q Query)
	Query() Query
	Table() (views.Table, bool)
	View() View
}

// Console is every page of the dashboard. Pages are mounted while a session
// is active and reset when it ends.
type Console struct {
	Dashboard     *Page[volumebot.Dashboard]
	Balances      *Page[volumebot.BalancesPage]
	Topups        *Page[volumebot.TopupsPage]
	Trades        *Page[volumebot.TradesPage]
	Wallet        *Page[volumebot.WalletBalances]
	TradingConfig *Page[volumebot.TradingConfig]

	api     API
	auth    Auth
	emitter Emitter
	log     zerolog.Logger

	pages  []Controller
	byName map[string]Controller

	mu sync.Mutex
	// ctx is the parent of mounted pages, set by Bind
	ctx context.Context
}

// NewConsole builds every page. deps.Gate is replaced by auth.
func NewConsole(api API, auth Auth, deps Deps) (*Console, error) {
	if api == nil || auth == nil {
		return nil, fmt.Errorf("console requires an API client and an auth gate")
	}
	deps.Gate = auth
	if deps.PageSize <= 0 {
		deps.PageSize = views.DefaultPageSize
	}
	pageSize := deps.PageSize

	c := &Console{
		api:     api,
		auth:    auth,
		emitter: deps.Emitter,
		log:     deps.Log.With().Str("component", "console").Logger(),
		byName:  make(map[string]Controller),
		ctx:     context.Background(),
	}

	var err error
	if c.Dashboard, err = NewPage(PageConfig[volumebot.Dashboard]{
		Name:       PageDashboard,
		Title:      "Dashboard",
		Key:        clientdata.KeyDashboard,
		FetchError: "Error fetching dashboard data.",
		Fetch: func(ctx context.Context, token string, _ Query) (volumebot.Dashboard, error) {
			return api.Dashboard(ctx, token)
		},
		Render: func(d volumebot.Dashboard, q Query, loc *time.Location) (views.Table, bool) {
			trades := views.FilterTrades(views.Latest(d.LatestTrades, views.LatestTradesLimit), views.TradeFilter{
				Search: q.Search,
				Type:   q.TradeType,
			})
			return views.LatestTradesTable(trades, loc), true
		},
		Count: func(d volumebot.Dashboard) int { return len(d.LatestTrades) },
	}, deps); err != nil {
		return nil, err
	}

	if c.Balances, err = NewPage(PageConfig[volumebot.BalancesPage]{
		Name:       PageBalances,
		Title:      "Last Balances",
		Key:        clientdata.KeyBalances,
		Noun:       "balances",
		Dated:      true,
		FetchError: "Error fetching balances.",
		Fetch: func(ctx context.Context, token string, q Query) (volumebot.BalancesPage, error) {
			return api.DailyLastBalances(ctx, token, pageQuery(q, pageSize))
		},
		Render: func(d volumebot.BalancesPage, q Query, loc *time.Location) (views.Table, bool) {
			return views.BalancesTable(views.FilterBalances(d.Balances, q.Search), loc), true
		},
		Paginate: func(d volumebot.BalancesPage) (volumebot.Pagination, int) { return d.Pagination, len(d.Balances) },
		Count:    func(d volumebot.BalancesPage) int { return len(d.Balances) },
	}, deps); err != nil {
		return nil, err
	}

	if c.Topups, err = NewPage(PageConfig[volumebot.TopupsPage]{
		Name:       PageTopups,
		Title:      "Topups",
		Key:        clientdata.KeyTopups,
		Noun:       "topups",
		Dated:      true,
		FetchError: "Error fetching topups.",
		Fetch: func(ctx context.Context, token string, q Query) (volumebot.TopupsPage, error) {
			return api.Topups(ctx, token, pageQuery(q, pageSize))
		},
		Render: func(d volumebot.TopupsPage, q Query, loc *time.Location) (views.Table, bool) {
			return views.TopupsTable(views.FilterTopups(d.Topups, q.Search), loc), true
		},
		Paginate: func(d volumebot.TopupsPage) (volumebot.Pagination, int) { return d.Pagination, len(d.Topups) },
		Count:    func(d volumebot.TopupsPage) int { return len(d.Topups) },
	}, deps); err != nil {
		return nil, err
	}

	if c.Trades, err = NewPage(PageConfig[volumebot.TradesPage]{
		Name:       PageTrades,
		Title:      "Trades",
		Key:        clientdata.KeyTrades,
		Noun:       "trades",
		Dated:      true,
		FetchError: "Error fetching trades.",
		Fetch: func(ctx context.Context, token string, q Query) (volumebot.TradesPage, error) {
			return api.Trades(ctx, token, pageQuery(q, pageSize))
		},
		Render: func(d volumebot.TradesPage, q Query, loc *time.Location) (views.Table, bool) {
			trades := views.FilterTrades(d.Trades, views.TradeFilter{
				Search: q.Search,
				Type:   q.TradeType,
				Range:  q.Range,
			})
			return views.TradeHistoryTable(trades, loc), true
		},
		Paginate: func(d volumebot.TradesPage) (volumebot.Pagination, int) { return d.Pagination, len(d.Trades) },
		Count:    func(d volumebot.TradesPage) int { return len(d.Trades) },
	}, deps); err != nil {
		return nil, err
	}

	if c.Wallet, err = NewPage(PageConfig[volumebot.WalletBalances]{
		Name:       PageWallet,
		Title:      "Wallet",
		Key:        clientdata.KeyWalletBalances,
		FetchError: "Error fetching wallet balances.",
		Fetch: func(ctx context.Context, token string, _ Query) (volumebot.WalletBalances, error) {
			return api.WalletBalances(ctx, token)
		},
	}, deps); err != nil {
		return nil, err
	}

	if c.TradingConfig, err = NewPage(PageConfig[volumebot.TradingConfig]{
		Name:       PageTradingConfig,
		Title:      "Trading Config",
		Key:        clientdata.KeyTradingConfig,
		FetchError: "Error fetching trading configuration.",
		Fetch: func(ctx context.Context, token string, _ Query) (volumebot.TradingConfig, error) {
			return api.TradingConfig(ctx, token)
		},
	}, deps); err != nil {
		return nil, err
	}

	c.pages = []Controller{c.Dashboard, c.Balances, c.Topups, c.Trades, c.Wallet, c.TradingConfig}
	for _, p := range c.pages {
		c.byName[p.Name()] = p
	}
	return c, nil
}

func pageQuery(q Query, pageSize int) volumebot.PageQuery {
	return volumebot.PageQuery{
		Page:      q.Page,
		Limit:     pageSize,
		StartDate: q.Range.Start,
		EndDate:   q.Range.End,
	}
}

// Pages returns every page in display order.
func (c *Console) Pages() []Controller {
	out := make([]Controller, len(c.pages))
	copy(out, c.pages)
	return out
}

// Page looks a page up by name.
func (c *Console) Page(name string) (Controller, bool) {
	p, ok := c.byName[name]
	return p, ok
}

// Table returns the visible table of a dataset, e.g. "latest-trades".
func (c *Console) Table(dataset string) (views.Table, bool) {
	for _, p := range c.pages {
		if t, ok := p.Table(); ok && t.Name == dataset {
			return t, true
		}
	}
	return views.Table{}, false
}

// Bind follows the session: pages are mounted under ctx when it starts and
// reset when it ends. Pages are mounted right away when a session is active.
// The returned func stops following and unmounts every page.
func (c *Console) Bind(ctx context.Context) func() {
	c.mu.Lock()
	c.ctx = ctx
	c.mu.Unlock()

	unsubscribe := c.auth.OnChange(func(state session.State) {
		switch state {
		case session.StateAuthenticated:
			c.MountAll()
		case session.StateUnauthenticated:
			c.ResetAll()
		}
	})
	if c.auth.Authenticated() {
		c.MountAll()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			unsubscribe()
			c.UnmountAll()
		})
	}
}

// MountAll mounts every page.
func (c *Console) MountAll() {
	c.mu.Lock()
	ctx := c.ctx
	c.mu.Unlock()

	for _, p := range c.pages {
		p.Mount(ctx)
	}
	c.log.Info().Int("pages", len(c.pages)).Msg("Pages mounted")
}

// UnmountAll stops every page timer and in-flight request.
func (c *Console) UnmountAll() {
	for _, p := range c.pages {
		p.Unmount()
	}
}

// ResetAll unmounts every page and drops what it shows.
func (c *Console) ResetAll() {
	for _, p := range c.pages {
		p.Reset()
	}
	c.log.Info().Msg("Pages reset")
}

// RefreshAll fetches every page concurrently and returns the first error.
// Each page keeps its own banner.
func (c *Console) RefreshAll(ctx context.Context) error {
	defer utils.OperationTimer("refresh_all", c.log)()

	var g errgroup.Group
	for _, p := range c.pages {
		p := p
		g.Go(func() error {
			if err := p.RefreshNow(ctx); err != nil {
				return fmt.Errorf("%s: %w", p.Name(), err)
			}
			return nil
		})
	}
	return g.Wait()
}

// SaveTradingConfig validates and saves cfg, then shows the saved value.
func (c *Console) SaveTradingConfig(ctx context.Context, cfg volumebot.TradingConfig) (volumebot.TradingConfig, error) {
	if err := cfg.Validate(); err != nil {
		return volumebot.TradingConfig{}, err
	}

	saved, err := c.TradingConfig.Submit(ctx, func(ctx context.Context, token string) (volumebot.TradingConfig, error) {
		return c.api.UpdateTradingConfig(ctx, token, cfg)
	})
	if err != nil {
		c.log.Warn().Err(err).Msg("Failed to save trading config")
		return volumebot.TradingConfig{}, err
	}

	c.log.Info().Int("bot_count", saved.BotCount).Str("trend", saved.Trend).Msg("Trading config saved")
	if c.emitter != nil {
		c.emitter.EmitTyped(PageTradingConfig, &events.TradingConfigSavedData{
			BotCount: saved.BotCount,
			Trend:    saved.Trend,
		})
	}
	return saved, nil
}
