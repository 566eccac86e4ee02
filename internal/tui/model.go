// Package tui is the terminal front end of the console.
package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/volumebot/console/internal/account"
	"github.com/volumebot/console/internal/clients/volumebot"
	"github.com/volumebot/console/internal/dashboard"
	"github.com/volumebot/console/internal/export"
	"github.com/volumebot/console/internal/session"
	"github.com/volumebot/console/internal/views"
)

type screen int

const (
	screenLogin screen = iota
	screenSignup
	screenDashboard
)

// tickInterval is how often the screen re-reads page state.
const tickInterval = 500 * time.Millisecond

const sessionExpired = volumebot.SessionExpired

// Signer creates accounts. *volumebot.Client satisfies it.
type Signer interface {
	Signup(ctx context.Context, req volumebot.SignupRequest) error
}

// Options are the dependencies of the terminal UI.
type Options struct {
	Console   *dashboard.Console
	Gate      *session.Gate
	Signer    Signer
	ExportDir string
	Location  *time.Location
	Log       zerolog.Logger
}

// Model is the bubbletea model of the console.
type Model struct {
	console   *dashboard.Console
	gate      *session.Gate
	signer    Signer
	exportDir string
	loc       *time.Location
	log       zerolog.Logger
	styles    styles

	screen screen
	width  int
	height int

	login  form
	signup form

	active    int
	searching bool
	search    textinput.Model
	busy      bool
	status    string
	statusErr bool

	help help.Model
}

// Messages

type tickMsg time.Time

type loginDoneMsg struct {
	err error
}

type signupDoneMsg struct {
	email string
	err   error
}

type exportDoneMsg struct {
	path string
	err  error
}

// New builds the model. The first screen follows the gate state.
func New(opts Options) Model {
	if opts.Location == nil {
		opts.Location = time.Local
	}

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search"
	search.CharLimit = 80

	m := Model{
		console:   opts.Console,
		gate:      opts.Gate,
		signer:    opts.Signer,
		exportDir: opts.ExportDir,
		loc:       opts.Location,
		log:       opts.Log.With().Str("component", "tui").Logger(),
		styles:    newStyles(DefaultTheme),
		login:     newLoginForm(),
		signup:    newSignupForm(),
		search:    search,
		help:      help.New(),
	}
	if m.gate.Authenticated() {
		m.screen = screenDashboard
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tick())
}

// Commands

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) loginCmd(email, password string) tea.Cmd {
	gate := m.gate
	return func() tea.Msg {
		_, err := gate.Login(context.Background(), email, password)
		return loginDoneMsg{err: err}
	}
}

func (m Model) signupCmd(req volumebot.SignupRequest) tea.Cmd {
	signer := m.signer
	return func() tea.Msg {
		err := signer.Signup(context.Background(), req)
		return signupDoneMsg{email: req.Email, err: err}
	}
}

func (m Model) exportCmd(table views.Table, format export.Format) tea.Cmd {
	dir := m.exportDir
	return func() tea.Msg {
		path, err := export.SaveToDir(dir, table, format)
		return exportDoneMsg{path: path, err: err}
	}
}

// validateSignup runs the form checks before anything is sent.
func validateSignup(email, password, confirm, passcode string) (volumebot.SignupRequest, error) {
	req := volumebot.SignupRequest{Email: email, Password: password, AdminPasscode: passcode}
	if err := account.ValidateSignup(&req); err != nil {
		return req, err
	}
	if err := account.ValidatePasswordChange(password, confirm); err != nil {
		return req, err
	}
	return req, nil
}

func loginMessage(err error) string {
	if errors.Is(err, session.ErrMissingCredentials) {
		return err.Error()
	}
	return volumebot.Message(err, "Login failed, please try again.")
}

// form is a column of text inputs with one focused field.
type form struct {
	inputs []textinput.Model
	focus  int
	err    string
	notice string
}

func newForm(fields ...textinput.Model) form {
	f := form{inputs: fields}
	f.setFocus(0)
	return f
}

func field(placeholder string, masked bool) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 128
	ti.Width = 40
	if masked {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	return ti
}

func newLoginForm() form {
	return newForm(field("Email", false), field("Password", true))
}

func newSignupForm() form {
	return newForm(
		field("Email", false),
		field("Password", true),
		field("Confirm password", true),
		field("Admin passcode", true),
	)
}

func (f *form) setFocus(i int) {
	n := len(f.inputs)
	f.focus = ((i % n) + n) % n
	for j := range f.inputs {
		if j == f.focus {
			f.inputs[j].Focus()
		} else {
			f.inputs[j].Blur()
		}
	}
}

func (f *form) next() { f.setFocus(f.focus + 1) }
func (f *form) prev() { f.setFocus(f.focus - 1) }

func (f *form) last() bool { return f.focus == len(f.inputs)-1 }

func (f *form) value(i int) string { return f.inputs[i].Value() }

func (f *form) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

// clear empties every field and message.
func (f *form) clear() {
	for i := range f.inputs {
		f.inputs[i].Reset()
	}
	f.err = ""
	f.notice = ""
	f.setFocus(0)
}
