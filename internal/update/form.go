package update

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/taskcal/internal/model"
	"github.com/sandeepkv93/taskcal/internal/views"
)

const (
	fieldTitle = iota
	fieldDate
	fieldTime
	fieldPriority
	fieldRepeat
	fieldReminder
	fieldNote
	fieldCount
)

const reminderLayout = "2006-01-02 15:04"

var fieldLabels = [fieldCount]string{"title", "date", "time", "priority", "repeat", "reminder", "note"}

// FormState backs the add/edit form. EditID is empty when adding. Inputs are
// held in an array so copies of the model do not share them.
type FormState struct {
	EditID string
	Focus  int
	Err    string

	inputs [fieldNote]textinput.Model
	note   textarea.Model
}

func newFormState() FormState {
	placeholders := [fieldNote]string{
		"what needs doing",
		model.DateLayout,
		"HH:MM (optional)",
		"low | medium | high",
		"none | daily | weekly | monthly",
		"HH:MM or YYYY-MM-DD HH:MM",
	}
	var f FormState
	for i := range f.inputs {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 256
		in.Width = 36
		in.Placeholder = placeholders[i]
		f.inputs[i] = in
	}
	f.note = textarea.New()
	f.note.SetWidth(40)
	f.note.SetHeight(4)
	f.note.ShowLineNumbers = false
	f.note.Placeholder = "Notes (markdown)"
	return f
}

func (f *FormState) reset() {
	for i := range f.inputs {
		f.inputs[i].SetValue("")
	}
	f.note.SetValue("")
	f.EditID = ""
	f.Err = ""
}

func (f *FormState) focusField(i int) {
	if i < 0 {
		i = fieldCount - 1
	}
	f.Focus = i % fieldCount
	for j := range f.inputs {
		if j == f.Focus {
			f.inputs[j].Focus()
		} else {
			f.inputs[j].Blur()
		}
	}
	if f.Focus == fieldNote {
		f.note.Focus()
	} else {
		f.note.Blur()
	}
}

func (f FormState) value(i int) string {
	if i == fieldNote {
		return f.note.Value()
	}
	return strings.TrimSpace(f.inputs[i].Value())
}

func (f *FormState) setValue(i int, v string) {
	if i == fieldNote {
		f.note.SetValue(v)
		return
	}
	f.inputs[i].SetValue(v)
}

// draft parses the form into a validated draft. Reminder times are read in loc.
func (f FormState) draft(loc *time.Location) (model.Draft, error) {
	date, err := model.ParseDate(f.value(fieldDate))
	if err != nil {
		return model.Draft{}, err
	}
	var tm *model.TimeOfDay
	if raw := f.value(fieldTime); raw != "" {
		parsed, err := model.ParseTimeOfDay(raw)
		if err != nil {
			return model.Draft{}, err
		}
		tm = &parsed
	}
	prio := model.PriorityMedium
	if raw := f.value(fieldPriority); raw != "" {
		prio, err = model.ParsePriority(raw)
		if err != nil {
			return model.Draft{}, err
		}
	}
	repeat, err := model.ParseRepeat(f.value(fieldRepeat))
	if err != nil {
		return model.Draft{}, err
	}
	reminderAt, err := parseReminder(f.value(fieldReminder), date, loc)
	if err != nil {
		return model.Draft{}, err
	}
	d := model.Draft{
		Title:    f.value(fieldTitle),
		Date:     date,
		Time:     tm,
		Priority: prio,
		Repeat:   repeat,
		Note:     f.value(fieldNote),
		Reminder: reminderAt,
	}.Normalize()
	return d, d.Validate()
}

// parseReminder accepts "HH:MM" on the task date or a full "YYYY-MM-DD HH:MM".
func parseReminder(raw string, date model.Date, loc *time.Location) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if tm, err := model.ParseTimeOfDay(raw); err == nil {
		at := date.In(loc).Add(time.Duration(tm.Hour)*time.Hour + time.Duration(tm.Minute)*time.Minute).UTC()
		return &at, nil
	}
	at, err := time.ParseInLocation(reminderLayout, raw, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid reminder %q: use HH:MM or YYYY-MM-DD HH:MM", raw)
	}
	at = at.UTC()
	return &at, nil
}

// patchFromDraft replaces every editable field of a task with d.
func patchFromDraft(d model.Draft) model.Patch {
	p := model.Patch{
		Title:    &d.Title,
		Date:     &d.Date,
		Priority: &d.Priority,
		Repeat:   &d.Repeat,
		Note:     &d.Note,
	}
	if d.Time == nil {
		p.ClearTime = true
	} else {
		p.Time = d.Time
	}
	if d.Reminder == nil {
		p.ClearReminder = true
	} else {
		p.Reminder = d.Reminder
	}
	return p
}

func (m Model) openAddForm() Model {
	m.Form.reset()
	m.Form.setValue(fieldDate, m.Focus.String())
	m.Form.setValue(fieldPriority, string(model.PriorityMedium))
	m.Form.setValue(fieldRepeat, string(model.RepeatNone))
	m.Form.focusField(fieldTitle)
	m.CurrentView = ViewForm
	m.Status = StatusBar{Text: "new task"}
	return m
}

func (m Model) openEditForm(t model.Task) Model {
	m.Form.reset()
	m.Form.EditID = t.ID
	m.Form.setValue(fieldTitle, t.Title)
	m.Form.setValue(fieldDate, t.Date.String())
	if t.Time != nil {
		m.Form.setValue(fieldTime, t.Time.String())
	}
	m.Form.setValue(fieldPriority, string(t.Priority))
	m.Form.setValue(fieldRepeat, string(t.Repeat))
	if t.Reminder != nil {
		m.Form.setValue(fieldReminder, t.Reminder.In(m.service.Location()).Format(reminderLayout))
	}
	m.Form.setValue(fieldNote, t.Note)
	m.Form.focusField(fieldTitle)
	m.CurrentView = ViewForm
	m.Status = StatusBar{Text: fmt.Sprintf("editing %s", t.Title)}
	return m
}

func (m Model) closeForm(status string) Model {
	m.Form.focusField(fieldTitle)
	m.Form.inputs[fieldTitle].Blur()
	m.CurrentView = ViewCalendar
	m.Status = StatusBar{Text: status}
	return m
}

func (m Model) handleFormKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m.closeForm("edit cancelled"), nil
	case "ctrl+s":
		return m.submitForm(), nil
	case "tab":
		m.Form.focusField(m.Form.Focus + 1)
		return m, nil
	case "shift+tab":
		m.Form.focusField(m.Form.Focus - 1)
		return m, nil
	case "enter":
		if m.Form.Focus != fieldNote {
			m.Form.focusField(m.Form.Focus + 1)
			return m, nil
		}
	}

	var cmd tea.Cmd
	if m.Form.Focus == fieldNote {
		m.Form.note, cmd = m.Form.note.Update(msg)
	} else {
		m.Form.inputs[m.Form.Focus], cmd = m.Form.inputs[m.Form.Focus].Update(msg)
	}
	return m, cmd
}

func (m Model) submitForm() Model {
	d, err := m.Form.draft(m.service.Location())
	if err != nil {
		m.Form.Err = err.Error()
		return m
	}
	if m.Form.EditID == "" {
		t, err := m.service.Add(m.ctx(), d)
		if err != nil {
			m.Form.Err = err.Error()
			return m
		}
		m.setFocus(t.Date)
		return m.closeForm(fmt.Sprintf("added: %s", t.Title))
	}
	t, ok, err := m.service.Update(m.ctx(), m.Form.EditID, patchFromDraft(d))
	if err != nil {
		m.Form.Err = err.Error()
		return m
	}
	if !ok {
		return m.closeForm("task no longer exists")
	}
	m.setFocus(t.Date)
	return m.closeForm(fmt.Sprintf("updated: %s", t.Title))
}

func (m Model) renderFormView() string {
	title := "New task"
	if m.Form.EditID != "" {
		title = "Edit task"
	}
	fields := make([]views.FormFieldData, 0, fieldCount)
	for i := 0; i < fieldNote; i++ {
		fields = append(fields, views.FormFieldData{
			Label:   fieldLabels[i],
			View:    m.Form.inputs[i].View(),
			Focused: m.Form.Focus == i,
		})
	}
	fields = append(fields, views.FormFieldData{
		Label:   fieldLabels[fieldNote],
		View:    "\n" + m.Form.note.View(),
		Focused: m.Form.Focus == fieldNote,
	})
	return views.RenderFormPanel(views.FormPanelData{Title: title, Fields: fields, ErrorText: m.Form.Err})
}
