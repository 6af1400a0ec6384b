// Package tui is the interactive terminal client: appointment tabs with paging
// and a fuzzy filter, plus a notifications view fed by the polled unread badge.
package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/medbook/internal/appointment"
	"github.com/mmcdole/medbook/internal/domain"
	"github.com/mmcdole/medbook/internal/notification"
	"github.com/mmcdole/medbook/internal/query"
	"github.com/mmcdole/medbook/internal/tui/styles"
)

// ApplicationState represents the current screen
type ApplicationState int

const (
	StateAppointments ApplicationState = iota
	StateNotifications
	StateConfirmCancel
	StateSessionExpired
)

const sessionExpiredHint = "Session expired, run 'medbook login'"

const notificationsLimit = 20

// Model is the main Bubble Tea model for the application
type Model struct {
	State ApplicationState
	Ready bool

	// Services
	AppointmentSvc  *appointment.Service
	NotificationSvc *notification.Service

	tabs   *appointment.Tabs
	unread *query.Observer[int]

	// Data
	Items         []domain.Appointment
	Pagination    domain.Pagination
	Counts        map[domain.AppointmentStatus]int
	Notifications []domain.Notification
	UnreadCount   int

	// Selection
	cursor int

	// Filter state
	filterActive bool
	filterInput  textinput.Model
	filteredIdx  []int

	// Dimensions
	Width  int
	Height int

	// UI state
	StatusMsg   string
	StatusIsErr bool
	Loading     bool
	spinner     spinner.Model
	help        help.Model
	keys        KeyMap
}

// NewModel creates a new application model
func NewModel(appointmentSvc *appointment.Service, notificationSvc *notification.Service, pageLimit int) Model {
	ti := textinput.New()
	ti.Placeholder = "type to filter..."
	ti.Prompt = "/ "
	ti.PromptStyle = styles.FilterPromptStyle
	ti.TextStyle = styles.FilterStyle

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.SpinnerStyle

	return Model{
		State:           StateAppointments,
		Loading:         true,
		AppointmentSvc:  appointmentSvc,
		NotificationSvc: notificationSvc,
		tabs:            appointment.NewTabs(pageLimit),
		Counts:          make(map[domain.AppointmentStatus]int),
		filterInput:     ti,
		spinner:         sp,
		help:            help.New(),
		keys:            DefaultKeyMap(),
	}
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, m.loadCurrentTab(), LoadCountsCmd(m.AppointmentSvc)}
	if m.unread != nil {
		cmds = append(cmds, WaitForUnreadCmd(m.unread))
	}
	return tea.Batch(cmds...)
}

// WatchUnread subscribes the model to the polled unread badge. The caller
// closes the observer after the program exits.
func (m *Model) WatchUnread() *query.Observer[int] {
	m.unread = m.NotificationSvc.ObserveUnread()
	return m.unread
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case TabLoadedMsg:
		tab, page, _ := m.tabs.Current()
		if msg.Tab != tab || msg.Page != page {
			// superseded by a later tab or page switch
			return m, nil
		}
		m.Loading = false
		m.Items = msg.Data.Items
		m.Pagination = msg.Data.Pagination
		m.filteredIdx = filterAppointments(m.filterInput.Value(), m.Items)
		m.clampCursor()
		return m, nil

	case CountsLoadedMsg:
		m.Counts = msg.Counts
		return m, nil

	case NotificationsLoadedMsg:
		m.Loading = false
		m.Notifications = msg.Data.Items
		return m, nil

	case UnreadChangedMsg:
		if m.State == StateSessionExpired {
			return m, nil
		}
		if errors.Is(msg.State.Err, domain.ErrUnauthorized) {
			m.expireSession()
			return m, nil
		}
		if msg.State.HasData {
			m.UnreadCount = msg.State.Data
		}
		if m.unread == nil {
			return m, nil
		}
		return m, WaitForUnreadCmd(m.unread)

	case SessionExpiredMsg:
		m.expireSession()
		return m, nil

	case ActionDoneMsg:
		if m.State == StateSessionExpired {
			return m, nil
		}
		m.setStatus(msg.Status, false)
		cmd := m.refresh()
		return m, cmd

	case ErrMsg:
		m.Loading = false
		if errors.Is(msg.Err, domain.ErrUnauthorized) {
			m.expireSession()
			return m, nil
		}
		m.setStatus(msg.Error(), true)
		return m, nil
	}

	return m, nil
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filterActive {
		return m.handleFilterKey(msg)
	}

	if m.State == StateSessionExpired {
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		return m, nil
	}

	if m.State == StateConfirmCancel {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			m.State = StateAppointments
			if a, ok := m.Selected(); ok {
				m.setStatus("Cancelling...", false)
				return m, CancelAppointmentCmd(m.AppointmentSvc, a.ID)
			}
		case key.Matches(msg, m.keys.Deny):
			m.State = StateAppointments
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Notifications):
		if m.State == StateNotifications {
			m.State = StateAppointments
			return m, nil
		}
		m.State = StateNotifications
		m.Loading = true
		return m, LoadNotificationsCmd(m.NotificationSvc, notificationsLimit)

	case key.Matches(msg, m.keys.Refresh):
		cmd := m.refresh()
		return m, cmd
	}

	if m.State == StateNotifications {
		switch {
		case key.Matches(msg, m.keys.MarkAllRead):
			return m, MarkAllReadCmd(m.NotificationSvc)
		case key.Matches(msg, m.keys.Escape):
			m.State = StateAppointments
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < m.visibleLen()-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.NextTab):
		cmd := m.selectTab(1)
		return m, cmd
	case key.Matches(msg, m.keys.PrevTab):
		cmd := m.selectTab(-1)
		return m, cmd
	case key.Matches(msg, m.keys.NextPage):
		if m.tabs.Next(m.Pagination.Pages) {
			cmd := m.loadCurrentTab()
			return m, cmd
		}
	case key.Matches(msg, m.keys.PrevPage):
		if m.tabs.Prev() {
			cmd := m.loadCurrentTab()
			return m, cmd
		}
	case key.Matches(msg, m.keys.Filter):
		m.filterActive = true
		cmd := m.filterInput.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Escape):
		m.clearFilter()
	case key.Matches(msg, m.keys.Cancel):
		if a, ok := m.Selected(); ok && cancellable(a.Status) {
			m.State = StateConfirmCancel
		}
	}
	return m, nil
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.clearFilter()
		return m, nil
	case key.Matches(msg, m.keys.Enter):
		m.filterActive = false
		m.filterInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	m.filteredIdx = filterAppointments(m.filterInput.Value(), m.Items)
	m.cursor = 0
	return m, cmd
}

func (m *Model) clearFilter() {
	m.filterActive = false
	m.filterInput.SetValue("")
	m.filterInput.Blur()
	m.filteredIdx = nil
	m.clampCursor()
}

func (m *Model) selectTab(delta int) tea.Cmd {
	tab, _, _ := m.tabs.Current()
	n := len(appointment.AllTabs)
	next := appointment.AllTabs[(int(tab)+delta+n)%n]
	m.tabs.Select(next)
	m.cursor = 0
	return m.loadCurrentTab()
}

func (m *Model) loadCurrentTab() tea.Cmd {
	tab, page, limit := m.tabs.Current()
	m.Loading = true
	return LoadTabCmd(m.AppointmentSvc, tab, page, limit)
}

func (m *Model) refresh() tea.Cmd {
	cmds := []tea.Cmd{m.loadCurrentTab(), LoadCountsCmd(m.AppointmentSvc)}
	if m.State == StateNotifications {
		cmds = append(cmds, LoadNotificationsCmd(m.NotificationSvc, notificationsLimit))
	}
	return tea.Batch(cmds...)
}

// expireSession switches to the sign-in hint and stops polling with the dead token
func (m *Model) expireSession() {
	m.State = StateSessionExpired
	m.Loading = false
	m.filterActive = false
	m.setStatus(sessionExpiredHint, true)
	if m.unread != nil {
		m.unread.SetOptions(query.Enabled(false))
	}
}

func (m *Model) setStatus(msg string, isErr bool) {
	m.StatusMsg = msg
	m.StatusIsErr = isErr
}

// Tab returns the selected tab and page
func (m Model) Tab() (appointment.Tab, int) {
	tab, page, _ := m.tabs.Current()
	return tab, page
}

// Visible returns the appointments currently listed, after filtering
func (m Model) Visible() []domain.Appointment {
	if m.filterInput.Value() == "" {
		return m.Items
	}
	out := make([]domain.Appointment, len(m.filteredIdx))
	for i, idx := range m.filteredIdx {
		out[i] = m.Items[idx]
	}
	return out
}

// Selected returns the appointment under the cursor
func (m Model) Selected() (domain.Appointment, bool) {
	visible := m.Visible()
	if m.cursor < 0 || m.cursor >= len(visible) {
		return domain.Appointment{}, false
	}
	return visible[m.cursor], true
}

func (m Model) visibleLen() int {
	return len(m.Visible())
}

func (m *Model) clampCursor() {
	if n := m.visibleLen(); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
}

func cancellable(s domain.AppointmentStatus) bool {
	return s == domain.StatusPending || s == domain.StatusConfirmed
}

// View renders the application
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	switch m.State {
	case StateSessionExpired:
		b.WriteString(styles.BrowserStyle.Render(styles.ErrorStyle.Render(sessionExpiredHint)))
	case StateNotifications:
		b.WriteString(m.renderNotifications())
	default:
		b.WriteString(m.renderAppointments())
	}

	if m.State == StateConfirmCancel {
		if a, ok := m.Selected(); ok {
			b.WriteString("\n")
			b.WriteString(styles.ConfirmStyle.Render(fmt.Sprintf("Cancel appointment on %s? (y/n)", appointmentTitle(a))))
		}
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	current, _ := m.Tab()
	tabs := make([]string, 0, len(appointment.AllTabs)+1)
	for _, tab := range appointment.AllTabs {
		total := 0
		for _, s := range tab.Statuses() {
			total += m.Counts[s]
		}
		label := fmt.Sprintf("%s (%d)", tab, total)
		if tab == current && m.State != StateNotifications {
			tabs = append(tabs, styles.ActiveTabStyle.Render(label))
		} else {
			tabs = append(tabs, styles.InactiveTabStyle.Render(label))
		}
	}
	tabs = append(tabs, styles.RenderBadge("Notifications", m.UnreadCount))
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderAppointments() string {
	var lines []string
	if m.filterActive || m.filterInput.Value() != "" {
		lines = append(lines, m.filterInput.View())
	}

	visible := m.Visible()
	if len(visible) == 0 && !m.Loading {
		lines = append(lines, styles.DimStyle.Render("No appointments"))
	}

	width := m.Width - 20
	if width < 20 {
		width = 60
	}
	for i, a := range visible {
		line := fmt.Sprintf("%-40s %s", styles.Truncate(appointmentTitle(a), width), styles.RenderStatus(a.Status))
		if i == m.cursor {
			lines = append(lines, styles.SelectedItemStyle.Render(line))
		} else {
			lines = append(lines, styles.NormalItemStyle.Render(line))
		}
	}

	_, page := m.Tab()
	pages := max(m.Pagination.Pages, 1)
	lines = append(lines, styles.DimStyle.Render(fmt.Sprintf("page %d of %d, %d total", page, pages, m.Pagination.Total)))
	return styles.BrowserStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) renderNotifications() string {
	if len(m.Notifications) == 0 && !m.Loading {
		return styles.BrowserStyle.Render(styles.DimStyle.Render("No notifications"))
	}
	lines := make([]string, 0, len(m.Notifications))
	for _, n := range m.Notifications {
		marker := styles.AccentStyle.Render("●")
		if n.Read {
			marker = " "
		}
		lines = append(lines, fmt.Sprintf("%s %s %s", marker, styles.TitleStyle.Render(n.Title), styles.SubtitleStyle.Render(n.Message)))
	}
	return styles.BrowserStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) renderFooter() string {
	var left string
	switch {
	case m.Loading:
		left = m.spinner.View() + " loading"
	case m.StatusIsErr:
		left = styles.ErrorStyle.Render(m.StatusMsg)
	case m.StatusMsg != "":
		left = styles.SuccessStyle.Render(m.StatusMsg)
	}
	return left + "\n" + m.help.View(m.keys)
}
