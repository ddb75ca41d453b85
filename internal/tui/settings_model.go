package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/nannyclock/internal/models"
)

// SettingsSaver persists the notification settings (db.Store).
type SettingsSaver interface {
	UpdateSettings(ctx context.Context, fn func(*models.Settings)) (models.Settings, error)
}

const (
	fieldName = iota
	fieldPhone
	fieldEmail
	fieldMethod
	fieldCount
)

var fieldLabels = [fieldCount]string{"Your name", "Recipient phone", "Recipient email", "Send method"}

// SettingsModel is the notification settings form
type SettingsModel struct {
	ctx     context.Context
	saver   SettingsSaver
	initial models.Settings

	inputs  []textinput.Model
	focused int
	width   int
	height  int

	validationErr string
	modal         confirm

	saved     bool
	cancelled bool
	err       error
}

type settingsSavedMsg struct {
	settings models.Settings
	err      error
}

func NewSettingsModel(ctx context.Context, saver SettingsSaver, current models.Settings) SettingsModel {
	inputs := make([]textinput.Model, fieldCount)
	for i := range inputs {
		inputs[i] = textinput.New()
		inputs[i].Width = 40
		inputs[i].TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPrimaryText))
		inputs[i].PlaceholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPlaceholder))
		inputs[i].Cursor.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentBright))
	}

	inputs[fieldName].Placeholder = "Shown in session summaries"
	inputs[fieldName].CharLimit = 80
	inputs[fieldName].SetValue(current.UserName)

	inputs[fieldPhone].Placeholder = "+33612345678"
	inputs[fieldPhone].CharLimit = 32
	inputs[fieldPhone].SetValue(current.RecipientPhone)

	inputs[fieldEmail].Placeholder = "parent@example.com"
	inputs[fieldEmail].CharLimit = 120
	inputs[fieldEmail].SetValue(current.RecipientEmail)

	inputs[fieldMethod].Placeholder = "sms or email"
	inputs[fieldMethod].CharLimit = 5
	inputs[fieldMethod].SetValue(current.SendMethod)

	inputs[fieldName].Focus()

	return SettingsModel{
		ctx:     ctx,
		saver:   saver,
		initial: current,
		inputs:  inputs,
	}
}

func (m SettingsModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m SettingsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case settingsSavedMsg:
		if msg.err != nil {
			m.validationErr = msg.err.Error()
			m.err = msg.err
			return m, nil
		}
		m.saved = true
		return m, tea.Quit

	case tea.KeyMsg:
		if m.modal.shown {
			decided, _ := m.modal.key(msg.String())
			if !decided {
				return m, nil
			}
			if m.modal.choice {
				return m.save()
			}
			m.cancelled = true
			return m, tea.Quit
		}

		switch msg.String() {
		case "ctrl+c":
			m.cancelled = true
			return m, tea.Quit
		case "esc":
			if !m.hasChanges() {
				m.cancelled = true
				return m, tea.Quit
			}
			m.modal.open("Save changes?", true)
			return m, nil
		case "ctrl+s":
			return m.save()
		case "enter":
			if m.focused == fieldMethod {
				return m.save()
			}
			return m.focus(m.focused + 1), nil
		case "tab", "down":
			return m.focus(m.focused + 1), nil
		case "shift+tab", "up":
			return m.focus(m.focused - 1), nil
		}
		m.validationErr = ""
	}

	var cmd tea.Cmd
	m.inputs[m.focused], cmd = m.inputs[m.focused].Update(msg)
	return m, cmd
}

func (m SettingsModel) focus(i int) SettingsModel {
	i = (i + fieldCount) % fieldCount
	m.inputs[m.focused].Blur()
	m.focused = i
	m.inputs[i].Focus()
	return m
}

func (m SettingsModel) value(field int) string {
	return strings.TrimSpace(m.inputs[field].Value())
}

func (m SettingsModel) hasChanges() bool {
	return m.value(fieldName) != m.initial.UserName ||
		m.value(fieldPhone) != m.initial.RecipientPhone ||
		m.value(fieldEmail) != m.initial.RecipientEmail ||
		m.value(fieldMethod) != m.initial.SendMethod
}

func (m SettingsModel) save() (SettingsModel, tea.Cmd) {
	method := strings.ToLower(m.value(fieldMethod))
	if method != models.SendMethodSMS && method != models.SendMethodEmail {
		m.validationErr = "Send method must be sms or email"
		return m.focus(fieldMethod), nil
	}

	name, phone, email := m.value(fieldName), m.value(fieldPhone), m.value(fieldEmail)
	saver, ctx := m.saver, m.ctx
	return m, func() tea.Msg {
		settings, err := saver.UpdateSettings(ctx, func(s *models.Settings) {
			s.UserName = name
			s.RecipientPhone = phone
			s.RecipientEmail = email
			s.SendMethod = method
		})
		return settingsSavedMsg{settings: settings, err: err}
	}
}

// destinationWarning flags a send method without its recipient. Saving is
// still allowed; the notification fails at clock-out instead.
func (m SettingsModel) destinationWarning() string {
	switch strings.ToLower(m.value(fieldMethod)) {
	case models.SendMethodSMS:
		if m.value(fieldPhone) == "" {
			return "No phone number: SMS summaries will not be sent"
		}
	case models.SendMethodEmail:
		if m.value(fieldEmail) == "" {
			return "No email address: email summaries will not be sent"
		}
	}
	return ""
}

func (m SettingsModel) View() string {
	if m.saved || m.cancelled {
		return ""
	}
	if m.modal.shown {
		return m.modal.render(m.width, m.height)
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorAccentBright)).
		Render("Notification settings"))
	b.WriteString("\n\n")

	for i, label := range fieldLabels {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText))
		marker := "  "
		if i == m.focused {
			style = style.Foreground(lipgloss.Color(ColorAccentBright)).Bold(true)
			marker = "▶ "
		}
		b.WriteString(style.Render(marker + label))
		b.WriteString("\n")
		b.WriteString("  " + m.inputs[i].View())
		b.WriteString("\n\n")
	}

	if m.validationErr != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError)).Render("✗ " + m.validationErr))
		b.WriteString("\n")
	} else if warning := m.destinationWarning(); warning != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(ColorWarning)).Render("! " + warning))
		b.WriteString("\n")
	}

	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorBorder)).
		Padding(1, 2).
		Render(b.String())

	return lipgloss.JoinVertical(
		lipgloss.Left,
		panel,
		helpBar(lipgloss.Width(panel), "tab/↑↓ move · enter next · ctrl+s save · esc close"),
	)
}
