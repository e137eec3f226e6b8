package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"osc2midi/config"
	"osc2midi/midi"
	"osc2midi/session"
	"osc2midi/theme"
	"osc2midi/widgets"
)

type field int

const (
	fieldListenIP field = iota
	fieldListenPort
	fieldMIDIIn
	fieldMIDIOut
	fieldTargetIP
	fieldTargetPort
	numFields
)

var fieldLabels = [numFields]string{
	"Listen IP",
	"Listen port",
	"MIDI input",
	"MIDI output",
	"Target IP",
	"Target port",
}

// maxLogLines bounds the scrollback kept for the log pane.
const maxLogLines = 500

type Model struct {
	Controller *session.Controller
	Config     *config.Config
	Theme      *theme.Theme
	Log        logrus.FieldLogger

	// Save persists the config after a successful start.
	Save func(*config.Config) error

	values   [numFields]string
	ins      []string
	outs     []string
	focus    field
	sess     *session.Session
	stopping bool
	logs     <-chan string
	lines    []string
	status   string
	statusOK bool
	width    int
	height   int
	quitting bool
}

// LogMsg carries one formatted log line into the log pane.
type LogMsg string

// SessionDoneMsg reports that a session has ended, on its own or by Stop.
type SessionDoneMsg struct {
	Session *session.Session
	Err     error
}

// DevicesMsg carries a fresh MIDI port listing.
type DevicesMsg struct {
	Ins  []string
	Outs []string
	Err  error
}

func NewModel(ctrl *session.Controller, cfg *config.Config, listenIP string, th *theme.Theme, logs <-chan string, log logrus.FieldLogger) Model {
	m := Model{
		Controller: ctrl,
		Config:     cfg,
		Theme:      th,
		Log:        log.WithField("component", "tui"),
		Save:       (*config.Config).Save,
		logs:       logs,
		focus:      fieldListenPort,
		width:      80,
		height:     24,
	}
	if cfg.OSCInIP != "" {
		listenIP = cfg.OSCInIP
	}
	m.values[fieldListenIP] = listenIP
	m.values[fieldListenPort] = portText(cfg.OSCInPort)
	m.values[fieldMIDIIn] = cfg.MIDIInputPort
	m.values[fieldMIDIOut] = cfg.MIDIOutputPort
	m.values[fieldTargetIP] = cfg.OSCOutIP
	m.values[fieldTargetPort] = portText(cfg.OSCOutPort)
	return m
}

func portText(p config.Port) string {
	if p == 0 {
		return ""
	}
	return strconv.Itoa(int(p))
}

func ListenForLogs(logs <-chan string) tea.Cmd {
	if logs == nil {
		return nil
	}
	return func() tea.Msg {
		line, ok := <-logs
		if !ok {
			return nil
		}
		return LogMsg(line)
	}
}

func WaitForSession(s *session.Session) tea.Cmd {
	return func() tea.Msg {
		<-s.Done()
		return SessionDoneMsg{Session: s, Err: s.Err()}
	}
}

// StopSession tears the running session down off the update loop. The
// session's SessionDoneMsg clears the model once teardown completes.
func StopSession(ctrl *session.Controller) tea.Cmd {
	return func() tea.Msg {
		ctrl.Stop()
		return nil
	}
}

func ScanDevices(ports *midi.Ports) tea.Cmd {
	return func() tea.Msg {
		ins, err := ports.InNames()
		if err != nil {
			return DevicesMsg{Err: err}
		}
		outs, err := ports.OutNames()
		return DevicesMsg{Ins: ins, Outs: outs, Err: err}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		ListenForLogs(m.logs),
		ScanDevices(m.Controller.Ports()),
	)
}

// Running reports whether the model holds an active session.
func (m Model) Running() bool {
	return m.sess != nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case tea.KeyMsg:
		return m.handleKey(msg)

	case LogMsg:
		m.lines = append(m.lines, string(msg))
		if len(m.lines) > maxLogLines {
			m.lines = m.lines[len(m.lines)-maxLogLines:]
		}
		return m, ListenForLogs(m.logs)

	case SessionDoneMsg:
		if m.sess == nil || msg.Session != m.sess {
			return m, nil
		}
		m.sess = nil
		m.stopping = false
		if msg.Err != nil {
			m.setStatus("stopped: "+msg.Err.Error(), false)
		} else {
			m.setStatus("stopped", true)
		}

	case DevicesMsg:
		if msg.Err != nil {
			m.setStatus(msg.Err.Error(), false)
			return m, nil
		}
		m.ins, m.outs = msg.Ins, msg.Outs
		if m.values[fieldMIDIIn] == "" && len(m.ins) > 0 {
			m.values[fieldMIDIIn] = m.ins[0]
		}
		if m.values[fieldMIDIOut] == "" && len(m.outs) > 0 {
			m.values[fieldMIDIOut] = m.outs[0]
		}
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		if m.sess != nil {
			return m, tea.Sequence(StopSession(m.Controller), tea.Quit)
		}
		return m, tea.Quit

	case "enter":
		if m.stopping {
			return m, nil
		}
		if m.sess != nil {
			m.stopping = true
			m.setStatus("stopping...", true)
			return m, StopSession(m.Controller)
		}
		return m.start()

	case "ctrl+r":
		return m, ScanDevices(m.Controller.Ports())

	case "up", "shift+tab":
		m.focus--
		if m.focus < fieldListenPort {
			m.focus = numFields - 1
		}

	case "down", "tab":
		m.focus++
		if m.focus >= numFields {
			m.focus = fieldListenPort
		}

	case "left":
		m.cycle(-1)

	case "right":
		m.cycle(1)

	case "backspace":
		if m.editable() {
			v := []rune(m.values[m.focus])
			if len(v) > 0 {
				m.values[m.focus] = string(v[:len(v)-1])
			}
		}

	default:
		if msg.Type == tea.KeyRunes && m.editable() {
			for _, r := range msg.Runes {
				if m.accepts(r) {
					m.values[m.focus] += string(r)
				}
			}
		}
	}
	return m, nil
}

func (m Model) editable() bool {
	if m.sess != nil {
		return false
	}
	switch m.focus {
	case fieldListenPort, fieldTargetIP, fieldTargetPort:
		return true
	}
	return false
}

func (m Model) accepts(r rune) bool {
	if m.focus == fieldTargetIP {
		return r > ' ' && r != 0x7f
	}
	return r >= '0' && r <= '9'
}

// cycle moves a device picker through the scanned names.
func (m *Model) cycle(dir int) {
	if m.sess != nil {
		return
	}
	var names []string
	switch m.focus {
	case fieldMIDIIn:
		names = m.ins
	case fieldMIDIOut:
		names = m.outs
	default:
		return
	}
	if len(names) == 0 {
		return
	}

	i := -1
	for n, name := range names {
		if name == m.values[m.focus] {
			i = n
			break
		}
	}
	switch {
	case i < 0 && dir > 0:
		i = 0
	case i < 0:
		i = len(names) - 1
	default:
		i = (i + dir + len(names)) % len(names)
	}
	m.values[m.focus] = names[i]
}

func (m *Model) setStatus(s string, ok bool) {
	m.status = s
	m.statusOK = ok
}

func (m Model) start() (tea.Model, tea.Cmd) {
	cfg := *m.Config
	cfg.MIDIInputPort = m.values[fieldMIDIIn]
	cfg.MIDIOutputPort = m.values[fieldMIDIOut]
	cfg.OSCOutIP = m.values[fieldTargetIP]

	for _, f := range []field{fieldListenPort, fieldTargetPort} {
		p := 0
		if v := m.values[f]; v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				m.setStatus(fmt.Sprintf("%s %q is not a number", strings.ToLower(fieldLabels[f]), v), false)
				return m, nil
			}
			p = n
		}
		if f == fieldListenPort {
			cfg.OSCInPort = config.Port(p)
		} else {
			cfg.OSCOutPort = config.Port(p)
		}
	}

	sc, err := cfg.SessionConfig(m.values[fieldListenIP])
	if err != nil {
		m.setStatus(err.Error(), false)
		return m, nil
	}

	s, err := m.Controller.Start(sc)
	if err != nil {
		m.Log.WithError(err).Error("start failed")
		m.setStatus(err.Error(), false)
		return m, nil
	}

	m.sess = s
	m.Config.Remember(sc)
	if m.Save != nil {
		if err := m.Save(m.Config); err != nil {
			m.Log.WithError(err).Warn("could not save config")
		}
	}
	m.setStatus(fmt.Sprintf("listening on %s, sending to %s:%d", s.ListenAddr(), sc.TargetIP, sc.TargetPort), true)
	return m, WaitForSession(s)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	th := m.Theme

	// Styles
	headerStyle := lipgloss.NewStyle().Foreground(th.Accent()).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(th.Muted())
	okStyle := lipgloss.NewStyle().Foreground(th.Active())
	errStyle := lipgloss.NewStyle().Foreground(th.Error())

	state := dimStyle.Render(string(th.Symbols.Stopped) + " stopped")
	if m.sess != nil {
		state = okStyle.Render(string(th.Symbols.Running) + " running")
	}
	header := headerStyle.Render("osc2midi") + "  " + state

	fieldStyle := widgets.FieldStyle{
		Label:  th.Muted(),
		Value:  th.FG(),
		Cursor: th.Cursor(),
		Marker: th.Symbols.Cursor,
	}
	var rows []string
	for f := field(0); f < numFields; f++ {
		value := m.values[f]
		if (f == fieldMIDIIn || f == fieldMIDIOut) && m.sess == nil {
			value = fmt.Sprintf("%c %s %c", th.Symbols.ChoiceL, value, th.Symbols.ChoiceR)
		}
		rows = append(rows, widgets.RenderField(fieldLabels[f], value, f == m.focus, fieldStyle))
	}

	action := "start"
	if m.stopping {
		action = "stopping"
	} else if m.sess != nil {
		action = "stop"
	}
	help := widgets.RenderKeyHelp([]widgets.KeySection{
		{Title: "Form", Keys: []widgets.KeyBinding{
			{Key: "↑/↓", Desc: "field"},
			{Key: "←/→", Desc: "device"},
		}},
		{Title: "Session", Keys: []widgets.KeyBinding{
			{Key: "enter", Desc: action},
			{Key: "ctrl+r", Desc: "rescan"},
			{Key: "esc", Desc: "quit"},
		}},
	}, widgets.HelpStyle{Title: th.Muted(), Key: th.Accent(), Desc: th.FG()})

	status := ""
	if m.status != "" {
		if m.statusOK {
			status = okStyle.Render(m.status)
		} else {
			status = errStyle.Render(m.status)
		}
	}

	// header, blank, fields, blank, help, status, log border
	logHeight := m.height - (len(rows) + 5 + lipgloss.Height(help))
	if logHeight < 3 {
		logHeight = 3
	}
	logView := widgets.RenderLog(m.lines, m.width-4, logHeight, th.Surface())

	var out strings.Builder
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(strings.Join(rows, "\n"))
	out.WriteString("\n\n")
	out.WriteString(help)
	out.WriteString("\n")
	out.WriteString(status)
	out.WriteString("\n")
	out.WriteString(logView)
	return out.String()
}
