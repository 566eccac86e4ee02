package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/volumebot/console/internal/dashboard"
	"github.com/volumebot/console/internal/export"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		m.followSession()
		return m, tick()

	case loginDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.login.err = loginMessage(msg.err)
			return m, nil
		}
		m.login.clear()
		m.screen = screenDashboard
		m.status = ""
		return m, nil

	case signupDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.signup.err = loginMessage(msg.err)
			return m, nil
		}
		m.signup.clear()
		m.login.clear()
		m.login.inputs[0].SetValue(msg.email)
		m.login.setFocus(1)
		m.login.notice = "Account created, please log in."
		m.screen = screenLogin
		return m, nil

	case exportDoneMsg:
		if msg.err != nil {
			m.log.Warn().Err(msg.err).Msg("Export failed")
			m.setStatus(exportMessage(msg.err), true)
		} else {
			m.log.Info().Str("path", msg.path).Msg("Exported")
			m.setStatus("Saved "+msg.path, false)
		}
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.screen {
		case screenLogin:
			return m.updateLogin(msg)
		case screenSignup:
			return m.updateSignup(msg)
		default:
			return m.updateDashboard(msg)
		}
	}

	return m, nil
}

// followSession moves between the login and dashboard screens when the
// session changes behind the screen's back.
func (m *Model) followSession() {
	authenticated := m.gate.Authenticated()
	switch {
	case m.screen == screenDashboard && !authenticated:
		m.screen = screenLogin
		m.searching = false
		m.status = ""
		m.login.err = sessionExpired
	case m.screen != screenDashboard && authenticated && !m.busy:
		m.screen = screenDashboard
	}
}

func (m Model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, loginKeys.Switch):
		m.signup.clear()
		m.screen = screenSignup
		return m, nil
	case key.Matches(msg, loginKeys.Next):
		m.login.next()
		return m, nil
	case key.Matches(msg, loginKeys.Prev):
		m.login.prev()
		return m, nil
	case key.Matches(msg, loginKeys.Submit):
		if !m.login.last() {
			m.login.next()
			return m, nil
		}
		if m.busy {
			return m, nil
		}
		m.busy = true
		m.login.err = ""
		m.login.notice = ""
		return m, m.loginCmd(m.login.value(0), m.login.value(1))
	}
	return m, m.login.update(msg)
}

func (m Model) updateSignup(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, signupKeys.Switch):
		m.screen = screenLogin
		return m, nil
	case key.Matches(msg, signupKeys.Next):
		m.signup.next()
		return m, nil
	case key.Matches(msg, signupKeys.Prev):
		m.signup.prev()
		return m, nil
	case key.Matches(msg, signupKeys.Submit):
		if !m.signup.last() {
			m.signup.next()
			return m, nil
		}
		if m.busy {
			return m, nil
		}
		req, err := validateSignup(m.signup.value(0), m.signup.value(1), m.signup.value(2), m.signup.value(3))
		if err != nil {
			m.signup.err = err.Error()
			return m, nil
		}
		m.busy = true
		m.signup.err = ""
		return m, m.signupCmd(req)
	}
	return m, m.signup.update(msg)
}

func (m Model) updateDashboard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	page := m.page()

	if m.searching {
		switch msg.Type {
		case tea.KeyEnter:
			page.SetSearch(m.search.Value())
			m.searching = false
			m.search.Blur()
			return m, nil
		case tea.KeyEsc:
			m.searching = false
			m.search.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, dashboardKeys.Quit):
		return m, tea.Quit
	case key.Matches(msg, dashboardKeys.NextTab):
		m.switchTab(1)
	case key.Matches(msg, dashboardKeys.PrevTab):
		m.switchTab(-1)
	case key.Matches(msg, dashboardKeys.NextPage):
		page.NextPage()
	case key.Matches(msg, dashboardKeys.PrevPage):
		page.PrevPage()
	case key.Matches(msg, dashboardKeys.Search):
		m.searching = true
		m.search.SetValue(page.Query().Search)
		m.search.CursorEnd()
		return m, m.search.Focus()
	case key.Matches(msg, dashboardKeys.Type):
		if !filtersTradeType(page) {
			return m, nil
		}
		next := page.CycleTradeType()
		if next == "" {
			next = "all"
		}
		m.setStatus("Showing "+next+" trades", false)
	case key.Matches(msg, dashboardKeys.Reload):
		page.Reload()
	case key.Matches(msg, dashboardKeys.XLSX):
		return m, m.export(page, export.FormatXLSX)
	case key.Matches(msg, dashboardKeys.CSV):
		return m, m.export(page, export.FormatCSV)
	case key.Matches(msg, dashboardKeys.Dismiss):
		page.DismissError()
		m.status = ""
	case key.Matches(msg, dashboardKeys.Logout):
		m.gate.Logout()
		m.searching = false
		m.status = ""
		m.screen = screenLogin
		m.login.clear()
		m.login.notice = "Logged out."
	}
	return m, nil
}

func (m *Model) page() dashboard.Controller {
	pages := m.console.Pages()
	return pages[m.active%len(pages)]
}

func (m *Model) switchTab(step int) {
	n := len(m.console.Pages())
	m.active = ((m.active+step)%n + n) % n
	m.status = ""
}

func (m *Model) export(page dashboard.Controller, format export.Format) tea.Cmd {
	table, ok := page.Table()
	if !ok {
		m.setStatus(fmt.Sprintf("%s has nothing to export", page.Title()), true)
		return nil
	}
	if table.Len() == 0 {
		m.setStatus(exportMessage(export.ErrNothingToExport), true)
		return nil
	}
	m.setStatus("Exporting "+export.FileName(table, format)+"...", false)
	return m.exportCmd(table, format)
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

func exportMessage(err error) string {
	if errors.Is(err, export.ErrNothingToExport) {
		return "Nothing to export"
	}
	return "Export failed: " + err.Error()
}

func filtersTradeType(page dashboard.Controller) bool {
	switch page.Name() {
	case dashboard.PageDashboard, dashboard.PageTrades:
		return true
	}
	return false
}
