package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/volumebot/console/internal/clients/volumebot"
	"github.com/volumebot/console/internal/dashboard"
	"github.com/volumebot/console/internal/session"
	"github.com/volumebot/console/internal/views"
)

const protectedPlaceholder = "Log in to see this page."

func (m Model) View() string {
	switch m.screen {
	case screenLogin:
		return m.viewForm("Log in", &m.login, []string{"Email", "Password"}, loginKeys)
	case screenSignup:
		return m.viewForm("Create account", &m.signup, []string{"Email", "Password", "Confirm", "Admin passcode"}, signupKeys)
	default:
		return m.viewDashboard()
	}
}

func (m Model) viewBanner() string {
	t := DefaultTheme
	return GradientText(renderBanner("VolumeBot"), t.Primary, t.Accent)
}

func (m Model) viewForm(title string, f *form, labels []string, keys formKeyMap) string {
	s := m.styles

	lines := []string{s.title.Render(title), ""}
	for i, input := range f.inputs {
		lines = append(lines, s.label.Render(labels[i]), input.View(), "")
	}
	switch {
	case m.busy:
		lines = append(lines, s.muted.Render("Please wait..."))
	case f.err != "":
		lines = append(lines, s.err.Render(f.err))
	case f.notice != "":
		lines = append(lines, s.notice.Render(f.notice))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.viewBanner(),
		"",
		s.box.Render(strings.Join(lines, "\n")),
		"",
		m.help.View(keys),
	)
}

func (m Model) viewDashboard() string {
	s := m.styles
	page := m.page()

	body := session.Guard(m.gate, func() string {
		return m.viewPage(page)
	}, s.muted.Render(protectedPlaceholder))

	footer := []string{}
	if m.searching {
		footer = append(footer, m.search.View())
	}
	if m.status != "" {
		if m.statusErr {
			footer = append(footer, s.err.Render(m.status))
		} else {
			footer = append(footer, s.notice.Render(m.status))
		}
	}
	footer = append(footer, m.help.View(dashboardKeys))

	header := m.viewTabs()
	if cred, ok := m.gate.Credential(); ok {
		header = lipgloss.JoinHorizontal(lipgloss.Top, header, "  ", s.muted.Render(cred.Email))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		"",
		body,
		"",
		strings.Join(footer, "\n"),
	)
}

func (m Model) viewTabs() string {
	s := m.styles
	pages := m.console.Pages()
	tabs := make([]string, 0, len(pages))
	for i, p := range pages {
		if i == m.active%len(pages) {
			tabs = append(tabs, s.activeTab.Render(p.Title()))
		} else {
			tabs = append(tabs, s.tab.Render(p.Title()))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewPage(page dashboard.Controller) string {
	s := m.styles
	v := page.View()

	title := s.title.Render(v.Title)
	if v.Refreshing {
		title += s.muted.Render("  refreshing...")
	}
	lines := []string{title}

	if v.Error != "" {
		lines = append(lines, s.err.Render("! "+v.Error)+s.muted.Render("  (esc to dismiss)"))
	}
	if v.Loading && !v.HasData {
		lines = append(lines, "", s.muted.Render("Loading..."))
		return strings.Join(lines, "\n")
	}

	switch page.Name() {
	case dashboard.PageDashboard:
		if v.HasData {
			lines = append(lines, "", m.viewSummary(m.console.Dashboard.State().Data))
		}
	case dashboard.PageWallet:
		if v.HasData {
			lines = append(lines, "", m.viewWallet(m.console.Wallet.State().Data))
		}
	case dashboard.PageTradingConfig:
		if v.HasData {
			lines = append(lines, "", m.viewTradingConfig(m.console.TradingConfig.State().Data))
		}
	}

	if v.Table != nil {
		lines = append(lines, "")
		if v.Table.Title != "" && v.Table.Title != v.Title {
			lines = append(lines, s.label.Render(v.Table.Title))
		}
		if filters := m.viewFilters(v); filters != "" {
			lines = append(lines, filters)
		}
		lines = append(lines, m.renderTable(*v.Table))
		if v.PageLabel != "" {
			lines = append(lines, s.muted.Render(v.PageLabel))
		}
	}

	if v.FetchedAt != nil {
		lines = append(lines, "", s.muted.Render("Updated "+v.FetchedAt.In(m.loc).Format(views.TimestampLayout)))
	}
	return strings.Join(lines, "\n")
}

// viewFilters lists what narrows the table. The date range only shows on
// pages that apply it.
func (m Model) viewFilters(v dashboard.View) string {
	var parts []string
	if v.StartDate != "" {
		parts = append(parts, v.StartDate+" to "+v.EndDate)
	}
	if v.Search != "" {
		parts = append(parts, fmt.Sprintf("search %q", v.Search))
	}
	if v.TradeType != "" {
		parts = append(parts, v.TradeType+" only")
	}
	if len(parts) == 0 {
		return ""
	}
	return m.styles.muted.Render(strings.Join(parts, " | "))
}

func (m Model) kv(label, value string) string {
	return m.styles.label.Render(label) + m.styles.value.Render(value)
}

func (m Model) viewSummary(d volumebot.Dashboard) string {
	return strings.Join([]string{
		m.kv("Total transactions", fmt.Sprintf("%d", d.TotalTransactions)),
		m.kv("Daily transactions", fmt.Sprintf("%d", d.DailyTransactions)),
		m.kv("Total fee (BNB)", d.TotalFeeBNB.StringFixed(6)),
		m.kv("Daily fee (BNB)", d.DailyFeeBNB.StringFixed(6)),
		m.kv("Total buy (USDT)", d.TotalBuyUSDT.StringFixed(2)),
		m.kv("Total sell (USDT)", d.TotalSellUSDT.StringFixed(2)),
		m.kv("Bot agents", fmt.Sprintf("%d", d.TotalBotAgents)),
		m.kv("Available USDT", d.TotalAvailableBalances.TotalUSDT.StringFixed(2)),
		m.kv("Available BNB", d.TotalAvailableBalances.TotalBNB.StringFixed(6)),
		m.kv("Available token", d.TotalAvailableBalances.TotalToken.StringFixed(2)),
	}, "\n")
}

func (m Model) viewWallet(w volumebot.WalletBalances) string {
	return strings.Join([]string{
		m.kv("Central wallet", w.CentralWallet.Address),
		m.kv("USDT", w.CentralWallet.USDTBalance.StringFixed(6)),
		m.kv("Token", w.CentralWallet.TokenBalance.StringFixed(6)),
		m.kv("BNB", w.CentralWallet.BNBBalance.StringFixed(6)),
	}, "\n")
}

func (m Model) viewTradingConfig(c volumebot.TradingConfig) string {
	return strings.Join([]string{
		m.kv("Target token", c.TargetTokenAddress),
		m.kv("RPC URL", c.RPCURL),
		m.kv("Bot count", fmt.Sprintf("%d", c.BotCount)),
		m.kv("Trend", c.Trend),
		m.kv("Threshold", c.Threshold.String()),
	}, "\n")
}

// renderTable lays out columns padded to their widest cell.
func (m Model) renderTable(t views.Table) string {
	s := m.styles
	if t.Len() == 0 {
		return s.muted.Render("No records")
	}

	widths := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		widths[i] = lipgloss.Width(c)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	render := func(cells []string, style func(col int, cell string) lipgloss.Style) string {
		out := make([]string, 0, len(cells))
		for i, cell := range cells {
			if i >= len(widths) {
				break
			}
			out = append(out, style(i, cell).Width(widths[i]).Render(cell))
		}
		return strings.Join(out, "  ")
	}

	lines := []string{render(t.Columns, func(int, string) lipgloss.Style { return s.header })}
	for _, row := range t.Rows {
		lines = append(lines, render(row, func(col int, cell string) lipgloss.Style {
			if t.Columns[col] == "Type" {
				switch cell {
				case "BUY":
					return s.buy
				case "SELL":
					return s.sell
				}
			}
			return s.cell
		}))
	}
	return strings.Join(lines, "\n")
}
