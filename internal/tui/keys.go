package tui

import "github.com/charmbracelet/bubbles/key"

type dashboardKeyMap struct {
	NextTab  key.Binding
	PrevTab  key.Binding
	NextPage key.Binding
	PrevPage key.Binding
	Search   key.Binding
	Type     key.Binding
	Reload   key.Binding
	XLSX     key.Binding
	CSV      key.Binding
	Dismiss  key.Binding
	Logout   key.Binding
	Quit     key.Binding
}

func (k dashboardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextTab, k.NextPage, k.PrevPage, k.Search, k.Type, k.Reload, k.XLSX, k.CSV, k.Logout, k.Quit}
}

func (k dashboardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextTab, k.PrevTab, k.NextPage, k.PrevPage},
		{k.Search, k.Type, k.Reload, k.Dismiss},
		{k.XLSX, k.CSV, k.Logout, k.Quit},
	}
}

var dashboardKeys = dashboardKeyMap{
	NextTab:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next page")),
	PrevTab:  key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev page")),
	NextPage: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
	PrevPage: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "prev")),
	Search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Type:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "buy/sell")),
	Reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	XLSX:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "xlsx")),
	CSV:      key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "csv")),
	Dismiss:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "dismiss")),
	Logout:   key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "logout")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type formKeyMap struct {
	Next   key.Binding
	Prev   key.Binding
	Submit key.Binding
	Switch key.Binding
	Quit   key.Binding
}

func (k formKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Submit, k.Switch, k.Quit}
}

func (k formKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Next, k.Prev, k.Submit, k.Switch, k.Quit}}
}

var loginKeys = formKeyMap{
	Next:   key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
	Prev:   key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev field")),
	Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "log in")),
	Switch: key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "sign up")),
	Quit:   key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
}

var signupKeys = formKeyMap{
	Next:   loginKeys.Next,
	Prev:   loginKeys.Prev,
	Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "create account")),
	Switch: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back to login")),
	Quit:   loginKeys.Quit,
}
