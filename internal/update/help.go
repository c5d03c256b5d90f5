package update

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/sandeepkv93/taskcal/internal/views"
)

type KeyBinding struct {
	Key    string
	Action string
}

func (m Model) renderHelpIfVisible() string {
	if !m.HelpVisible {
		return ""
	}
	return "\n\n" + m.renderHelpView()
}

func (m Model) renderHelpView() string {
	global := m.keyBindings(m.globalBindings())
	contextual := m.keyBindings(m.viewBindings())
	var plain []string
	for _, kb := range m.viewBindings() {
		plain = append(plain, fmt.Sprintf("- %s: %s", displayKey(kb.Key), kb.Action))
	}
	return views.RenderHelpPanel(views.HelpPanelData{
		CurrentView: string(m.CurrentView),
		Bindings:    plain,
		HelpView: m.helpModel.FullHelpView([][]key.Binding{
			global,
			contextual,
		}),
	})
}

func (m Model) globalBindings() []KeyBinding {
	return []KeyBinding{
		{Key: m.Keys.Palette, Action: "command palette"},
		{Key: m.Keys.Help, Action: "toggle help"},
		{Key: m.Keys.Quit, Action: "quit"},
	}
}

func (m Model) viewBindings() []KeyBinding {
	switch m.CurrentView {
	case ViewForm:
		return []KeyBinding{
			{Key: "tab", Action: "next field"},
			{Key: "shift+tab", Action: "previous field"},
			{Key: "ctrl+s", Action: "save task"},
			{Key: "esc", Action: "cancel"},
		}
	default:
		return []KeyBinding{
			{Key: m.Keys.Day + "/" + m.Keys.Week + "/" + m.Keys.Month, Action: "day/week/month view"},
			{Key: m.Keys.Prev + "/" + m.Keys.Next, Action: "previous/next period"},
			{Key: m.Keys.Today, Action: "jump to today"},
			{Key: m.Keys.Down + "/" + m.Keys.Up, Action: "move agenda cursor"},
			{Key: m.Keys.Toggle, Action: "toggle complete"},
			{Key: m.Keys.Add, Action: "add task"},
			{Key: m.Keys.Edit, Action: "edit task"},
			{Key: m.Keys.Delete, Action: "delete task"},
		}
	}
}

func (m Model) keyBindings(kbs []KeyBinding) []key.Binding {
	out := make([]key.Binding, 0, len(kbs))
	for _, kb := range kbs {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(displayKey(kb.Key), kb.Action)))
	}
	return out
}

func displayKey(k string) string {
	if k == " " {
		return "space"
	}
	return k
}
