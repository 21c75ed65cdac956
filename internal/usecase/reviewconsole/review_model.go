package reviewconsole

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"bridgee/internal/bootstrap/logging"
	"bridgee/internal/domain/application"
	"bridgee/internal/usecase/review"
)

const maxAuditLines = 8

// ConversationID keys the console's session in review.Sessions. Chat ids
// are never negative for private chats, so it cannot collide with the bot.
const ConversationID int64 = -1

type Options struct {
	Actor    application.Actor
	Status   application.Status
	JobTitle string
}

// StoreChangedMsg tells the model that the applications file was written
// by another process. The model only flags it; the operator reloads.
type StoreChangedMsg struct{}

type reviewModel struct {
	ctx     context.Context
	service *review.Service
	actor   application.Actor
	now     func() time.Time

	tabs     []application.Status
	tabIndex int
	jobTitle string

	session       *review.Session
	selectedIndex int

	filter    textinput.Model
	filtering bool

	storeChanged bool
	status       string
	auditLogs    []string
}

type sessionLoadedMsg struct {
	session *review.Session
	err     error
}

type actionDoneMsg struct {
	action        application.Action
	correlationID string
	result        review.ActResult
	err           error
}

func NewReviewModel(ctx context.Context, service *review.Service, options Options) tea.Model {
	filter := textinput.New()
	filter.Placeholder = "job title (empty = all)"
	filter.CharLimit = 120
	filter.SetValue(strings.TrimSpace(options.JobTitle))

	m := &reviewModel{
		ctx:      ctx,
		service:  service,
		actor:    options.Actor,
		now:      time.Now,
		tabs:     application.AllStatuses(),
		jobTitle: strings.TrimSpace(options.JobTitle),
		filter:   filter,
		status:   "loading",
	}
	if m.actor.Name == "" {
		m.actor.Name = "console"
	}
	for i, s := range m.tabs {
		if s == options.Status {
			m.tabIndex = i
		}
	}
	return m
}

func (m *reviewModel) Init() tea.Cmd {
	return m.loadSessionCmd()
}

func (m *reviewModel) currentStatus() application.Status {
	return m.tabs[m.tabIndex]
}

func (m *reviewModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := message.(type) {
	case StoreChangedMsg:
		m.storeChanged = true
		return m, nil
	case sessionLoadedMsg:
		m.selectedIndex = 0
		if msg.err != nil {
			m.session = nil
			if errors.Is(msg.err, application.ErrNothingToReview) {
				m.status = fmt.Sprintf("No applications with status %s%s.", m.currentStatus().DisplayName(), m.jobSuffix())
			} else {
				m.status = "load failed: " + msg.err.Error()
			}
			return m, nil
		}
		m.session = msg.session
		m.status = m.summary()
		return m, nil
	case actionDoneMsg:
		return m.handleActionDone(msg)
	case tea.KeyMsg:
		if m.filtering {
			return m.updateFilter(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *reviewModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "q", "ctrl+c":
		m.service.EndSession(ConversationID)
		return m, tea.Quit
	case "tab", "right", "l":
		m.tabIndex = (m.tabIndex + 1) % len(m.tabs)
		return m, m.loadSessionCmd()
	case "shift+tab", "left", "h":
		m.tabIndex = (m.tabIndex - 1 + len(m.tabs)) % len(m.tabs)
		return m, m.loadSessionCmd()
	case "g":
		m.status = "reloading"
		return m, m.loadSessionCmd()
	case "/":
		m.filtering = true
		m.filter.Focus()
		return m, textinput.Blink
	case "up", "k":
		if m.selectedIndex > 0 {
			m.selectedIndex--
		}
		return m, nil
	case "down", "j":
		if m.session != nil && m.selectedIndex < len(m.session.CurrentPage())-1 {
			m.selectedIndex++
		}
		return m, nil
	case "n", "pgdown":
		if m.session == nil {
			return m, nil
		}
		if !m.session.NextPage() {
			m.status = "You are already on the last page."
			return m, nil
		}
		m.selectedIndex = 0
		m.status = m.summary()
		return m, nil
	case "p", "pgup":
		if m.session == nil {
			return m, nil
		}
		if !m.session.PreviousPage() {
			m.status = "You are already on the first page."
			return m, nil
		}
		m.selectedIndex = 0
		m.status = m.summary()
		return m, nil
	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			return m, m.actCmd(int(key[0] - '1'))
		}
	}
	return m, nil
}

func (m *reviewModel) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.filtering = false
		m.filter.Blur()
		m.jobTitle = strings.TrimSpace(m.filter.Value())
		return m, m.loadSessionCmd()
	case tea.KeyEsc:
		m.filtering = false
		m.filter.Blur()
		m.filter.SetValue(m.jobTitle)
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	return m, cmd
}

func (m *reviewModel) handleActionDone(msg actionDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.status = fmt.Sprintf("%s failed: %s", msg.action.Label(), describeError(msg.err))
		m.appendAuditLog(msg.action, msg.correlationID, "", msg.err)
		return m, nil
	}

	record := msg.result.Record
	outcome := fmt.Sprintf("%s -> %s", msg.result.From.DisplayName(), record.Status.DisplayName())
	m.appendAuditLog(msg.action, msg.correlationID, outcome, nil)
	m.status = fmt.Sprintf("%s is now %s.", record.FullName, record.Status.DisplayName())

	if msg.result.SessionExhausted {
		m.service.EndSession(ConversationID)
		m.session = nil
		m.selectedIndex = 0
		m.status += " No more applications in this view."
		return m, nil
	}
	if m.session != nil {
		if last := len(m.session.CurrentPage()) - 1; m.selectedIndex > last {
			m.selectedIndex = max(last, 0)
		}
	}
	return m, nil
}

func (m *reviewModel) selectedRecord() (application.Record, bool) {
	if m.session == nil {
		return application.Record{}, false
	}
	page := m.session.CurrentPage()
	if m.selectedIndex < 0 || m.selectedIndex >= len(page) {
		return application.Record{}, false
	}
	return page[m.selectedIndex], true
}

func (m *reviewModel) loadSessionCmd() tea.Cmd {
	status := m.currentStatus()
	jobTitle := m.jobTitle
	m.storeChanged = false
	return func() tea.Msg {
		session, err := m.service.List(m.ctx, ConversationID, status, jobTitle)
		return sessionLoadedMsg{session: session, err: err}
	}
}

func (m *reviewModel) actCmd(choice int) tea.Cmd {
	record, ok := m.selectedRecord()
	if !ok {
		m.status = "no application selected"
		return nil
	}
	actions := application.AvailableActions(record.Status)
	if choice >= len(actions) {
		m.status = fmt.Sprintf("no action %d for %s", choice+1, record.Status.DisplayName())
		return nil
	}

	action := actions[choice].Action
	correlationID := m.service.Identifiers().CorrelationID(record.ArtifactName)
	actor := m.actor
	m.status = fmt.Sprintf("%s %s...", action.Label(), correlationID)
	return func() tea.Msg {
		result, err := m.service.Act(m.ctx, ConversationID, correlationID, action, actor)
		return actionDoneMsg{action: action, correlationID: correlationID, result: result, err: err}
	}
}

func (m *reviewModel) summary() string {
	if m.session == nil {
		return "ready"
	}
	first, last, total := m.session.Bounds()
	return fmt.Sprintf("Displaying page %d of %d for %s%s (%d-%d of %d total)",
		m.session.PageIndex+1, m.session.PageCount(),
		m.session.FilterStatus.DisplayName(), m.jobSuffix(),
		first, last, total,
	)
}

func (m *reviewModel) jobSuffix() string {
	if m.jobTitle == "" {
		return ""
	}
	return fmt.Sprintf(" (job: %s)", m.jobTitle)
}

func (m *reviewModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true)
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("62"))
	activeTab := lipgloss.NewStyle().Bold(true).Underline(true)
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	var builder strings.Builder
	builder.WriteString(titleStyle.Render("Application Review"))
	builder.WriteString("\n")

	tabs := make([]string, 0, len(m.tabs))
	for i, s := range m.tabs {
		if i == m.tabIndex {
			tabs = append(tabs, activeTab.Render(s.DisplayName()))
		} else {
			tabs = append(tabs, dimStyle.Render(s.DisplayName()))
		}
	}
	builder.WriteString(strings.Join(tabs, " | "))
	builder.WriteString("\n")

	if m.filtering {
		builder.WriteString("Filter: " + m.filter.View())
	} else {
		builder.WriteString(dimStyle.Render("job filter: " + firstNonEmpty(m.jobTitle, "all")))
	}
	builder.WriteString("\n")
	if m.storeChanged {
		builder.WriteString(warnStyle.Render("applications changed on disk, press g to reload"))
		builder.WriteString("\n")
	}
	builder.WriteString("\n")

	builder.WriteString(sectionStyle.Render("Applications"))
	builder.WriteString("\n")
	var page []application.Record
	if m.session != nil {
		page = m.session.CurrentPage()
	}
	if len(page) == 0 {
		builder.WriteString(dimStyle.Render("- none"))
		builder.WriteString("\n")
	}
	for index, record := range page {
		line := fmt.Sprintf("%s  %s  %s  %s",
			m.service.Identifiers().CorrelationID(record.ArtifactName),
			record.FullName,
			record.JobTitle,
			record.SubmittedAt.UTC().Format("2006-01-02 15:04"),
		)
		if index == m.selectedIndex {
			builder.WriteString(selectedStyle.Render("> " + line))
		} else {
			builder.WriteString("  " + line)
		}
		builder.WriteString("\n")
	}
	builder.WriteString("\n")

	if record, ok := m.selectedRecord(); ok {
		builder.WriteString(sectionStyle.Render("Detail"))
		builder.WriteString("\n")
		builder.WriteString(review.Card(record, m.service.Identifiers()))
		builder.WriteString("\n\n")

		builder.WriteString(sectionStyle.Render("Actions"))
		builder.WriteString("\n")
		for i, t := range application.AvailableActions(record.Status) {
			builder.WriteString(fmt.Sprintf("- %d %s\n", i+1, t.Action.Label()))
		}
		builder.WriteString("\n")
	}

	builder.WriteString(sectionStyle.Render("Status"))
	builder.WriteString("\n")
	builder.WriteString("- " + firstNonEmpty(m.status, "ready"))
	builder.WriteString("\n\n")

	builder.WriteString(sectionStyle.Render("Audit Log"))
	builder.WriteString("\n")
	if len(m.auditLogs) == 0 {
		builder.WriteString(dimStyle.Render("- no actions"))
		builder.WriteString("\n")
	}
	for _, line := range m.auditLogs {
		builder.WriteString("- " + line)
		builder.WriteString("\n")
	}
	builder.WriteString("\n")

	builder.WriteString(dimStyle.Render("Keys: tab/h/l status  j/k move  n/p page  1-9 act  / filter  g reload  q quit"))
	return builder.String()
}

func (m *reviewModel) appendAuditLog(action application.Action, correlationID string, result string, opErr error) {
	outcome := strings.TrimSpace(result)
	if opErr != nil {
		outcome = "error: " + describeError(opErr)
	}
	if outcome == "" {
		outcome = "ok"
	}

	timestamp := m.now().UTC().Format(time.RFC3339)
	line := fmt.Sprintf("%s actor=%s id=%s action=%s result=%s", timestamp, m.actor.Name, correlationID, action, outcome)
	m.auditLogs = append([]string{line}, m.auditLogs...)
	if len(m.auditLogs) > maxAuditLines {
		m.auditLogs = m.auditLogs[:maxAuditLines]
	}

	logging.Info(logging.WithAttrs(m.ctx, slog.String("component", "reviewconsole")), "review console action",
		slog.String("actor", m.actor.Name),
		slog.String("correlation_id", correlationID),
		slog.String("action", string(action)),
		slog.String("result", outcome),
	)
}

func describeError(err error) string {
	switch {
	case errors.Is(err, application.ErrRecordNotFound):
		return "application not found"
	case errors.Is(err, application.ErrInvalidAction):
		return "action not allowed from the current status"
	case errors.Is(err, application.ErrPersistenceFailure):
		return "changes were not saved"
	default:
		return err.Error()
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if v := strings.TrimSpace(value); v != "" {
			return v
		}
	}
	return ""
}
