package views

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/taskmate/internal/models"
	"github.com/tgienger/taskmate/internal/task"
	"github.com/tgienger/taskmate/internal/ui/keys"
	"github.com/tgienger/taskmate/internal/ui/styles"
)

// FocusArea represents which part of the UI has focus
type FocusArea int

const (
	FocusSearchInput FocusArea = iota
	FocusPriorityFilter
	FocusCategoryFilter
	FocusTaskList
)

const focusAreas = 4

// Edit form fields
const (
	fieldTitle = iota
	fieldDesc
	fieldPriority
	fieldCategory
	fieldDue
	fieldCompleted
	fieldSave
)

// Status lines for failed store calls
const (
	msgSaveFailed     = "Couldn't save task, try again."
	msgDeleteFailed   = "Couldn't delete task, try again."
	msgCompleteFailed = "Couldn't complete task, try again."
)

var (
	priorityOptions = filterOptions(models.Priorities)
	categoryOptions = filterOptions(models.Categories)
)

func filterOptions[T ~string](values []T) []string {
	opts := []string{task.All}
	for _, v := range values {
		opts = append(opts, string(v))
	}
	return opts
}

type taskSavedMsg struct {
	task    models.Task
	created bool
}

type taskSaveFailedMsg struct {
	err error
}

type taskOpDoneMsg struct {
	deletedID string
}

type taskOpFailedMsg struct {
	status string
	err    error
}

// TaskListView shows the filtered task list, the edit form and task details
type TaskListView struct {
	ctx    context.Context
	svc    TaskService
	mirror *task.Mirror
	clock  task.Clock
	tasks  []models.Task
	styles *styles.Styles
	keys   keys.KeyMap

	width  int
	height int

	// UI state
	focus            FocusArea
	cursor           int
	scrollY          int
	searchInput      textinput.Model
	priorityIdx      int
	categoryIdx      int
	showingCompleted bool

	// Filter dropdown state
	dropdownOpen   bool
	dropdown       FocusArea
	dropdownCursor int

	// Task creation/editing
	editing       bool
	editingNew    bool
	editID        string
	editTitle     textinput.Model
	editDesc      textarea.Model
	editDue       textinput.Model
	editPriority  int // index into models.Priorities, -1 = unset
	editCategory  int // index into models.Categories, -1 = unset
	editCompleted bool
	editFocusIdx  int // index into formFields()
	fieldErrs     *task.ValidationError
	saving        bool
	flash         string

	// Task view mode (read-only detail view)
	viewingTask bool
	viewID      string
	mdRenderer  *glamour.TermRenderer
	mdKey       string

	// Delete confirmation
	confirmingDelete bool
	deleteTargetID   string
	deleteTargetName string

	status        string
	showHelpPopup bool
}

// NewTaskListView creates a new task list view
func NewTaskListView(ctx context.Context, svc TaskService, mirror *task.Mirror, s *styles.Styles, clock task.Clock) *TaskListView {
	search := textinput.New()
	search.Placeholder = "Search..."
	search.CharLimit = 100

	editTitle := textinput.New()
	editTitle.Placeholder = "Task title"
	editTitle.CharLimit = task.TitleLimit

	editDesc := textarea.New()
	editDesc.Placeholder = "Description"
	editDesc.CharLimit = task.DescriptionLimit
	editDesc.SetWidth(50)
	editDesc.SetHeight(3)
	editDesc.ShowLineNumbers = false

	editDue := textinput.New()
	editDue.Placeholder = task.DueLayout
	editDue.CharLimit = 25

	return &TaskListView{
		ctx:          ctx,
		svc:          svc,
		mirror:       mirror,
		clock:        clock,
		styles:       s,
		keys:         keys.DefaultKeyMap(),
		focus:        FocusTaskList,
		searchInput:  search,
		editTitle:    editTitle,
		editDesc:     editDesc,
		editDue:      editDue,
		editPriority: -1,
		editCategory: -1,
	}
}

// Init initializes the view
func (v *TaskListView) Init() tea.Cmd {
	return nil
}

// Filter returns the predicate built from the header controls
func (v *TaskListView) Filter() task.Filter {
	return task.Filter{
		Priority:  priorityOptions[v.priorityIdx],
		Category:  categoryOptions[v.categoryIdx],
		Completed: v.showingCompleted,
		Search:    v.searchInput.Value(),
	}
}

// Refresh re-derives the visible tasks from the mirror, keeping the cursor
// on the same task when it is still visible.
func (v *TaskListView) Refresh() {
	var selectedID string
	if v.cursor < len(v.tasks) {
		selectedID = v.tasks[v.cursor].ID
	}

	v.tasks = v.mirror.View(v.Filter())

	v.cursor = min(v.cursor, max(0, len(v.tasks)-1))
	for i, t := range v.tasks {
		if t.ID == selectedID {
			v.cursor = i
			break
		}
	}
	v.ensureVisible()

	if v.viewingTask {
		if _, ok := v.mirror.Find(v.viewID); !ok {
			v.viewingTask = false
		}
	}
}

// Tasks returns the currently visible tasks
func (v *TaskListView) Tasks() []models.Task {
	return v.tasks
}

// Capturing reports whether keystrokes belong to a text field or dialog
func (v *TaskListView) Capturing() bool {
	return v.editing || v.confirmingDelete || v.focus == FocusSearchInput
}

// StartNew opens the form for a new task
func (v *TaskListView) StartNew() tea.Cmd {
	v.viewingTask = false
	v.startNewTask()
	return textinput.Blink
}

// Open shows the detail view for a task, resetting filters that hide it
func (v *TaskListView) Open(id string) {
	t, ok := v.mirror.Find(id)
	if !ok {
		return
	}
	if !task.Matches(t, v.Filter()) {
		v.priorityIdx = 0
		v.categoryIdx = 0
		v.searchInput.SetValue("")
		v.showingCompleted = t.Completed
	}
	v.Refresh()
	for i, vt := range v.tasks {
		if vt.ID == id {
			v.cursor = i
		}
	}
	v.ensureVisible()
	v.focus = FocusTaskList
	v.viewingTask = true
	v.viewID = id
}

// Update handles messages
func (v *TaskListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(v.width)
		inputWidth := clamp(contentWidth-10, 20, 50)
		v.editDesc.SetWidth(inputWidth)
		v.ensureVisible()
		return v, nil

	case taskSavedMsg:
		v.saving = false
		v.status = ""
		v.fieldErrs = nil
		if msg.created {
			v.flash = "Task added!"
		} else {
			v.flash = "Task updated!"
		}
		v.editID = msg.task.ID
		return v, flashDone()

	case flashDoneMsg:
		if v.flash != "" {
			v.flash = ""
			v.editing = false
		}
		return v, nil

	case taskSaveFailedMsg:
		v.saving = false
		var verr *task.ValidationError
		if errors.As(msg.err, &verr) {
			v.fieldErrs = verr
			return v, nil
		}
		v.status = msgSaveFailed
		if errors.Is(msg.err, task.ErrNotFound) {
			v.editing = false
			v.status = "Task no longer exists."
		}
		return v, nil

	case taskOpDoneMsg:
		v.status = ""
		if msg.deletedID != "" && msg.deletedID == v.viewID {
			v.viewingTask = false
		}
		return v, nil

	case taskOpFailedMsg:
		v.status = msg.status
		return v, nil

	case tea.KeyMsg:
		// Handle help popup first - any key closes it
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}

		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}

		if v.editing {
			return v.updateEditing(msg)
		}

		if v.viewingTask {
			return v.updateViewingTask(msg)
		}

		if v.dropdownOpen {
			return v.updateDropdown(msg)
		}

		return v.updateNormal(msg)
	}

	return v, nil
}

func (v *TaskListView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle search input typing first - don't process hotkeys while typing
	if v.focus == FocusSearchInput {
		switch {
		case key.Matches(msg, v.keys.Back), key.Matches(msg, v.keys.Enter):
			v.searchInput.Blur()
			v.focus = FocusTaskList
			return v, nil
		case key.Matches(msg, v.keys.Tab):
			v.cycleFocus(1)
			return v, nil
		default:
			var cmd tea.Cmd
			v.searchInput, cmd = v.searchInput.Update(msg)
			v.Refresh()
			return v, cmd
		}
	}

	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Back):
		return v, func() tea.Msg { return BackToHome{} }

	case key.Matches(msg, v.keys.Tab):
		v.cycleFocus(1)
		return v, nil

	case key.Matches(msg, v.keys.ShiftTab):
		v.cycleFocus(-1)
		return v, nil

	case key.Matches(msg, v.keys.Up):
		if v.focus == FocusTaskList && v.cursor > 0 {
			v.cursor--
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.focus == FocusTaskList && v.cursor < len(v.tasks)-1 {
			v.cursor++
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		switch v.focus {
		case FocusPriorityFilter, FocusCategoryFilter:
			v.openDropdown(v.focus)
		case FocusTaskList:
			if len(v.tasks) > 0 {
				v.viewingTask = true
				v.viewID = v.tasks[v.cursor].ID
			}
		}
		return v, nil

	case key.Matches(msg, v.keys.Edit):
		if v.focus == FocusTaskList && len(v.tasks) > 0 {
			v.startEditTask(v.tasks[v.cursor])
			return v, textinput.Blink
		}
		return v, nil

	case key.Matches(msg, v.keys.New):
		v.startNewTask()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Delete):
		if v.focus == FocusTaskList && len(v.tasks) > 0 {
			v.askDelete(v.tasks[v.cursor])
		}
		return v, nil

	case key.Matches(msg, v.keys.Complete):
		if v.focus == FocusTaskList && len(v.tasks) > 0 {
			return v, v.completeTask(v.tasks[v.cursor])
		}
		return v, nil

	case key.Matches(msg, v.keys.Search):
		v.focus = FocusSearchInput
		v.searchInput.Focus()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Priority):
		v.focus = FocusPriorityFilter
		v.openDropdown(FocusPriorityFilter)
		return v, nil

	case key.Matches(msg, v.keys.Category):
		v.focus = FocusCategoryFilter
		v.openDropdown(FocusCategoryFilter)
		return v, nil

	case key.Matches(msg, v.keys.ShowCompleted):
		v.showingCompleted = !v.showingCompleted
		v.cursor = 0
		v.scrollY = 0
		v.Refresh()
		return v, nil

	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
		return v, nil
	}

	return v, nil
}

func (v *TaskListView) openDropdown(which FocusArea) {
	v.dropdownOpen = true
	v.dropdown = which
	v.dropdownCursor = v.priorityIdx
	if which == FocusCategoryFilter {
		v.dropdownCursor = v.categoryIdx
	}
}

func (v *TaskListView) dropdownOptions() []string {
	if v.dropdown == FocusCategoryFilter {
		return categoryOptions
	}
	return priorityOptions
}

func (v *TaskListView) updateDropdown(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.dropdownOpen = false
		return v, nil

	case key.Matches(msg, v.keys.Up):
		if v.dropdownCursor > 0 {
			v.dropdownCursor--
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.dropdownCursor < len(v.dropdownOptions())-1 {
			v.dropdownCursor++
		}
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		if v.dropdown == FocusCategoryFilter {
			v.categoryIdx = v.dropdownCursor
		} else {
			v.priorityIdx = v.dropdownCursor
		}
		v.dropdownOpen = false
		v.cursor = 0
		v.scrollY = 0
		v.Refresh()
		return v, nil
	}

	return v, nil
}

func (v *TaskListView) askDelete(t models.Task) {
	v.confirmingDelete = true
	v.deleteTargetID = t.ID
	v.deleteTargetName = t.Title
}

func (v *TaskListView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingDelete = false
		id := v.deleteTargetID
		return v, func() tea.Msg {
			// The dialog already asked.
			if _, err := v.svc.Delete(v.ctx, id, task.AlwaysConfirm); err != nil {
				return taskOpFailedMsg{status: msgDeleteFailed, err: err}
			}
			return taskOpDoneMsg{deletedID: id}
		}
	case "n", "N", "esc":
		v.confirmingDelete = false
		return v, nil
	}
	return v, nil
}

func (v *TaskListView) completeTask(t models.Task) tea.Cmd {
	if t.Completed {
		return nil
	}
	return func() tea.Msg {
		if _, err := v.svc.Complete(v.ctx, t); err != nil {
			return taskOpFailedMsg{status: msgCompleteFailed, err: err}
		}
		return taskOpDoneMsg{}
	}
}

func (v *TaskListView) viewedTask() (models.Task, bool) {
	return v.mirror.Find(v.viewID)
}

func (v *TaskListView) updateViewingTask(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	t, ok := v.viewedTask()
	if !ok {
		v.viewingTask = false
		return v, nil
	}

	switch {
	case key.Matches(msg, v.keys.Back):
		v.viewingTask = false
		return v, nil
	case key.Matches(msg, v.keys.Edit):
		v.viewingTask = false
		v.startEditTask(t)
		return v, textinput.Blink
	case key.Matches(msg, v.keys.Delete):
		v.askDelete(t)
		return v, nil
	case key.Matches(msg, v.keys.Complete):
		return v, v.completeTask(t)
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit
	}
	return v, nil
}

// formFields lists the focusable form fields. The completed switch only
// exists when editing an existing task.
func (v *TaskListView) formFields() []int {
	if v.editingNew {
		return []int{fieldTitle, fieldDesc, fieldPriority, fieldCategory, fieldDue, fieldSave}
	}
	return []int{fieldTitle, fieldDesc, fieldPriority, fieldCategory, fieldDue, fieldCompleted, fieldSave}
}

func (v *TaskListView) focusedField() int {
	return v.formFields()[v.editFocusIdx]
}

func (v *TaskListView) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if v.saving || v.flash != "" {
		return v, nil
	}

	fields := v.formFields()

	switch {
	case key.Matches(msg, v.keys.Back):
		v.editing = false
		v.fieldErrs = nil
		return v, nil

	case key.Matches(msg, v.keys.Save):
		return v, v.saveTask()

	case key.Matches(msg, v.keys.Tab):
		v.editFocusIdx = (v.editFocusIdx + 1) % len(fields)
		v.updateEditFocus()
		return v, nil

	case key.Matches(msg, v.keys.ShiftTab):
		v.editFocusIdx = (v.editFocusIdx + len(fields) - 1) % len(fields)
		v.updateEditFocus()
		return v, nil

	case key.Matches(msg, v.keys.Left), key.Matches(msg, v.keys.Right):
		step := 1
		if key.Matches(msg, v.keys.Left) {
			step = -1
		}
		switch v.focusedField() {
		case fieldPriority:
			v.editPriority = cycle(v.editPriority, step, len(models.Priorities))
			return v, nil
		case fieldCategory:
			v.editCategory = cycle(v.editCategory, step, len(models.Categories))
			return v, nil
		}

	case key.Matches(msg, v.keys.Enter):
		switch v.focusedField() {
		case fieldTitle, fieldPriority, fieldCategory, fieldDue:
			v.editFocusIdx++
			v.updateEditFocus()
			return v, nil
		case fieldCompleted:
			v.editCompleted = !v.editCompleted
			return v, nil
		case fieldSave:
			return v, v.saveTask()
		}
		// Enter in the description adds a newline

	case msg.String() == " ":
		if v.focusedField() == fieldCompleted {
			v.editCompleted = !v.editCompleted
			return v, nil
		}
	}

	var cmd tea.Cmd
	switch v.focusedField() {
	case fieldTitle:
		v.editTitle, cmd = v.editTitle.Update(msg)
	case fieldDesc:
		v.editDesc, cmd = v.editDesc.Update(msg)
	case fieldDue:
		v.editDue, cmd = v.editDue.Update(msg)
	}
	return v, cmd
}

// cycle steps through n options; from unset (-1) it lands on the first
// or last option.
func cycle(idx, step, n int) int {
	if idx < 0 {
		if step > 0 {
			return 0
		}
		return n - 1
	}
	return (idx + step + n) % n
}

func (v *TaskListView) cycleFocus(dir int) {
	v.searchInput.Blur()
	v.focus = FocusArea((int(v.focus) + dir + focusAreas) % focusAreas)
	if v.focus == FocusSearchInput {
		v.searchInput.Focus()
	}
}

func (v *TaskListView) visibleItems() int {
	// Each task item is 2 lines + 1 margin = 3 lines
	availableHeight := max(v.height-12, 3)
	return max(availableHeight/3, 1)
}

func (v *TaskListView) ensureVisible() {
	visible := v.visibleItems()
	if v.cursor < v.scrollY {
		v.scrollY = v.cursor
	} else if v.cursor >= v.scrollY+visible {
		v.scrollY = v.cursor - visible + 1
	}
}

func (v *TaskListView) startNewTask() {
	v.editing = true
	v.editingNew = true
	v.editID = ""
	v.editFocusIdx = 0
	v.fieldErrs = nil
	v.flash = ""
	v.editTitle.Reset()
	v.editDesc.Reset()
	v.editDue.Reset()
	v.editPriority = -1
	v.editCategory = -1
	v.editCompleted = false
	v.updateEditFocus()
}

func (v *TaskListView) startEditTask(t models.Task) {
	v.editing = true
	v.editingNew = false
	v.editID = t.ID
	v.editFocusIdx = 0
	v.fieldErrs = nil
	v.flash = ""
	v.editTitle.SetValue(t.Title)
	v.editDesc.SetValue(t.Description)
	v.editDue.Reset()
	if t.DueDate != nil {
		v.editDue.SetValue(t.DueDate.Local().Format(task.DueLayout))
	}
	v.editPriority = indexOf(models.Priorities, t.Priority)
	v.editCategory = indexOf(models.Categories, t.Category)
	v.editCompleted = t.Completed
	v.updateEditFocus()
}

func indexOf[T comparable](values []T, v T) int {
	for i, x := range values {
		if x == v {
			return i
		}
	}
	return -1
}

func (v *TaskListView) updateEditFocus() {
	v.editTitle.Blur()
	v.editDesc.Blur()
	v.editDue.Blur()

	switch v.focusedField() {
	case fieldTitle:
		v.editTitle.Focus()
	case fieldDesc:
		v.editDesc.Focus()
	case fieldDue:
		v.editDue.Focus()
	}
}

// draft collects the form values. A due date that doesn't parse is reported
// as a field error.
func (v *TaskListView) draft() (models.Draft, *task.ValidationError) {
	d := models.Draft{
		Title:       v.editTitle.Value(),
		Description: v.editDesc.Value(),
	}
	if v.editPriority >= 0 {
		d.Priority = models.Priorities[v.editPriority]
	}
	if v.editCategory >= 0 {
		d.Category = models.Categories[v.editCategory]
	}

	due, err := task.ParseDue(v.editDue.Value(), time.Local)
	if err != nil {
		_, verr := task.Validate(d, models.SchemaCurrent)
		if verr == nil {
			verr = &task.ValidationError{Fields: map[task.Field]string{}}
		}
		verr.Fields[task.FieldDueDate] = "Due date must look like " + task.DueLayout
		return d, verr
	}
	d.DueDate = due
	return d, nil
}

func (v *TaskListView) saveTask() tea.Cmd {
	d, verr := v.draft()
	if verr != nil {
		v.fieldErrs = verr
		return nil
	}

	v.saving = true
	v.status = ""
	isNew, id, completed := v.editingNew, v.editID, v.editCompleted
	return func() tea.Msg {
		var (
			t   *models.Task
			err error
		)
		if isNew {
			t, err = v.svc.Create(v.ctx, d)
		} else {
			t, err = v.svc.Update(v.ctx, id, d, completed)
		}
		if err != nil {
			return taskSaveFailedMsg{err: err}
		}
		return taskSavedMsg{task: *t, created: isNew}
	}
}

// View renders the view
func (v *TaskListView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}

	if v.confirmingDelete {
		return v.renderDeleteConfirm()
	}

	if v.editing {
		return v.renderEditForm()
	}

	if v.viewingTask {
		return v.renderTaskView()
	}

	var b strings.Builder

	b.WriteString(v.renderHeader())
	b.WriteString("\n\n")

	b.WriteString(v.renderTaskList())

	if v.status != "" {
		b.WriteString("\n")
		b.WriteString(v.styles.FieldError.Render(v.status))
	}

	b.WriteString("\n")
	b.WriteString(v.renderHelp())

	return styles.CenterView(b.String(), v.width, v.height)
}

func (v *TaskListView) renderHeader() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	isNarrow := contentWidth < 60

	searchStyle := s.Input
	if v.focus == FocusSearchInput {
		searchStyle = s.InputFocused
	}
	searchWidth := clamp(contentWidth-8, 10, 24)
	searchBox := searchStyle.Width(searchWidth).Render(v.searchInput.View())

	filterButton := func(area FocusArea, label, value string) string {
		st := s.FilterButton
		if v.focus == area {
			st = s.ButtonFocused
		}
		if !isNarrow {
			value = label + ": " + value
		}
		return st.Render(value + " ▼")
	}
	priorityBtn := filterButton(FocusPriorityFilter, "Priority", priorityOptions[v.priorityIdx])
	categoryBtn := filterButton(FocusCategoryFilter, "Category", categoryOptions[v.categoryIdx])

	titleText := "TaskMate"
	if v.showingCompleted {
		titleText = "TaskMate (Completed)"
	}
	title := s.Title.Render(titleText)

	var header string
	if isNarrow {
		header = lipgloss.JoinVertical(lipgloss.Left, searchBox, priorityBtn, categoryBtn)
	} else {
		header = lipgloss.JoinHorizontal(lipgloss.Center, searchBox, " ", priorityBtn, " ", categoryBtn)
	}

	dropdown := ""
	if v.dropdownOpen {
		dropdown = "\n" + v.renderDropdown()
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, header+dropdown)
}

func (v *TaskListView) renderDropdown() string {
	s := v.styles
	var items []string
	for i, opt := range v.dropdownOptions() {
		itemStyle := s.ListItem
		if v.dropdownCursor == i {
			itemStyle = s.ListSelected
		}
		items = append(items, itemStyle.Render(opt))
	}
	return s.FilterBar.Render(lipgloss.JoinVertical(lipgloss.Left, items...))
}

func (v *TaskListView) renderTaskList() string {
	s := v.styles

	if len(v.tasks) == 0 {
		if strings.TrimSpace(v.searchInput.Value()) != "" {
			return s.TitleMuted.Render("Task not found")
		}
		return s.TitleMuted.Render("No tasks yet")
	}

	var items []string
	endIdx := min(v.scrollY+v.visibleItems(), len(v.tasks))

	for i := v.scrollY; i < endIdx; i++ {
		items = append(items, v.renderTaskItem(v.tasks[i], i == v.cursor && v.focus == FocusTaskList))
	}

	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

func (v *TaskListView) renderTaskItem(t models.Task, selected bool) string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	width := max(contentWidth-4, 20)

	var lineStyle lipgloss.Style
	if selected {
		lineStyle = s.ListSelected.Width(width)
	} else {
		lineStyle = s.ListItem.Width(width)
	}

	title := lineStyle.Render(taskHeadline(s, t, v.clock))
	sub := lineStyle.Render(taskSubline(s, t))

	// Return two-line item with margin
	return lipgloss.JoinVertical(lipgloss.Left, title, sub) + "\n"
}

func (v *TaskListView) renderEditForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	formTitle := "New Task"
	if !v.editingNew {
		formTitle = "Edit Task"
	}

	focused := v.focusedField()
	inputStyle := func(f int) lipgloss.Style {
		if f == focused {
			return s.InputFocused
		}
		return s.Input
	}
	btnStyle := s.Button
	if focused == fieldSave {
		btnStyle = s.ButtonFocused
	}

	inputWidth := clamp(contentWidth-6, 20, 50)

	rows := []string{
		s.Title.Render(formTitle),
		"",
		"Title:",
		inputStyle(fieldTitle).Width(inputWidth).Render(v.editTitle.View()),
		v.renderFieldError(task.FieldTitle),
		"Description:",
		inputStyle(fieldDesc).Render(v.editDesc.View()),
		v.renderFieldError(task.FieldDescription),
		"Priority:",
		inputStyle(fieldPriority).Width(inputWidth).Render(renderChoices(s, models.Priorities, v.editPriority)),
		v.renderFieldError(task.FieldPriority),
		"Category:",
		inputStyle(fieldCategory).Width(inputWidth).Render(renderChoices(s, models.Categories, v.editCategory)),
		v.renderFieldError(task.FieldCategory),
		"Due (" + task.DueLayout + "):",
		inputStyle(fieldDue).Width(inputWidth).Render(v.editDue.View()),
		v.renderFieldError(task.FieldDueDate),
	}

	if !v.editingNew {
		check := "[ ]"
		if v.editCompleted {
			check = "[x]"
		}
		rows = append(rows, inputStyle(fieldCompleted).Render(check+" Completed"), "")
	}

	footer := s.TitleMuted.Render("Tab: next • ←→: choose • Ctrl+S: save • Esc: cancel")
	switch {
	case v.flash != "":
		footer = s.Flash.Render(v.flash)
	case v.saving:
		footer = s.TitleMuted.Render("Saving...")
	case v.status != "":
		footer = s.FieldError.Render(v.status)
	}

	rows = append(rows, btnStyle.Render(" Save "), "", footer)
	form := lipgloss.JoinVertical(lipgloss.Left, rows...)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TaskListView) renderFieldError(f task.Field) string {
	msg := v.fieldErrs.Message(f)
	if msg == "" {
		return ""
	}
	return v.styles.FieldError.Render(msg)
}

func renderChoices[T ~string](s *styles.Styles, values []T, selected int) string {
	parts := make([]string, len(values))
	for i, val := range values {
		if i == selected {
			parts[i] = s.ListSelected.Render(string(val))
		} else {
			parts[i] = s.TitleMuted.Render(string(val))
		}
	}
	return strings.Join(parts, " ")
}

func (v *TaskListView) renderHelp() string {
	contentWidth := styles.ContentWidth(v.width)
	// At narrow widths, show hint to press ? for help
	if contentWidth > 0 && contentWidth < 50 {
		return v.styles.Help.Render(v.styles.HelpKey.Render("?") + " help")
	}

	completedLabel := "done"
	if v.showingCompleted {
		completedLabel = "open"
	}

	return v.styles.Help.Render(
		fmt.Sprintf("%s view • %s edit • %s new • %s del • %s complete • %s search • %s priority • %s category • %s %s • %s back",
			v.styles.HelpKey.Render("↵"),
			v.styles.HelpKey.Render("e"),
			v.styles.HelpKey.Render("n"),
			v.styles.HelpKey.Render("d"),
			v.styles.HelpKey.Render("x"),
			v.styles.HelpKey.Render("/"),
			v.styles.HelpKey.Render("p"),
			v.styles.HelpKey.Render("g"),
			v.styles.HelpKey.Render("c"),
			completedLabel,
			v.styles.HelpKey.Render("esc"),
		),
	)
}

func (v *TaskListView) renderHelpPopup() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	completedLabel := "show completed"
	if v.showingCompleted {
		completedLabel = "show open"
	}

	helpItems := []string{
		s.HelpKey.Render("↵") + "      view task",
		s.HelpKey.Render("e") + "      edit task",
		s.HelpKey.Render("n") + "      new task",
		s.HelpKey.Render("d") + "      delete task",
		s.HelpKey.Render("x") + "      mark complete",
		s.HelpKey.Render("/") + "      search",
		s.HelpKey.Render("p") + "      filter by priority",
		s.HelpKey.Render("g") + "      filter by category",
		s.HelpKey.Render("c") + "      " + completedLabel,
		s.HelpKey.Render("esc") + "    back",
		s.HelpKey.Render("q") + "      quit",
		"",
		s.TitleMuted.Render("Press any key to close"),
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{s.Title.Render("Keyboard Shortcuts"), ""}, helpItems...)...,
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		s.FilterBar.Render(content),
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TaskListView) renderDeleteConfirm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render("Delete Task?"),
		"",
		s.TitleMuted.Render(fmt.Sprintf("Are you sure you want to delete %q?", v.deleteTargetName)),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - Yes "),
			"  ",
			s.Button.Render(" N - No "),
		),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, v.width, v.height)
}

// renderMarkdown renders a description with glamour, falling back to plain
// wrapped text.
func (v *TaskListView) renderMarkdown(text string, width int) string {
	cacheKey := fmt.Sprintf("%s/%d", styles.Current.Glamour, width)
	if v.mdRenderer == nil || v.mdKey != cacheKey {
		r, err := glamour.NewTermRenderer(
			glamour.WithStylePath(styles.Current.Glamour),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return lipgloss.NewStyle().Width(width).Render(text)
		}
		v.mdRenderer, v.mdKey = r, cacheKey
	}
	out, err := v.mdRenderer.Render(text)
	if err != nil {
		return lipgloss.NewStyle().Width(width).Render(text)
	}
	return strings.Trim(out, "\n")
}

func (v *TaskListView) renderTaskView() string {
	t, ok := v.viewedTask()
	if !ok {
		return ""
	}

	s := v.styles
	maxContentWidth := styles.ContentWidth(v.width)
	textWidth := clamp(maxContentWidth-10, 20, 70)
	labelStyle := s.TitleMuted

	category := string(t.Category)
	if category == "" {
		category = "None"
	}

	due := "None"
	dueStyle := lipgloss.NewStyle()
	if t.DueDate != nil {
		due = formatWhen(*t.DueDate)
		if task.IsOverdue(t, v.clock.Now()) {
			due += " (overdue)"
			dueStyle = s.Overdue
		}
	}

	var desc string
	if t.Description == "" {
		desc = s.TitleMuted.Render("No description")
	} else {
		desc = v.renderMarkdown(t.Description, textWidth)
	}

	rows := []string{
		s.Title.MarginBottom(1).Render(t.Title),
		labelStyle.Render("Priority"),
		s.ForPriority(t.Priority).Render(string(t.Priority)),
		"",
		labelStyle.Render("Category"),
		s.Category.Render(category),
		"",
		labelStyle.Render("Due"),
		dueStyle.Render(due),
		"",
		labelStyle.Render("Created"),
		formatWhen(t.CreatedAt),
	}
	if t.Edited() {
		rows = append(rows, "", labelStyle.Render("Modified"), formatWhen(t.ModifiedAt))
	}
	if t.Completed && t.CompletedAt != nil {
		rows = append(rows, "", labelStyle.Render("Completed"), s.Flash.Render(formatWhen(*t.CompletedAt)))
	}
	rows = append(rows,
		"",
		labelStyle.Render("Description"),
		desc,
		"",
	)
	if v.status != "" {
		rows = append(rows, s.FieldError.Render(v.status))
	}
	rows = append(rows, s.Help.Render(
		fmt.Sprintf("%s edit • %s complete • %s delete • %s back",
			s.HelpKey.Render("e"),
			s.HelpKey.Render("x"),
			s.HelpKey.Render("d"),
			s.HelpKey.Render("esc"),
		),
	))

	content := lipgloss.JoinVertical(lipgloss.Left, rows...)

	padded := lipgloss.NewStyle().Padding(1, 2).Render(content)
	return styles.CenterView(padded, v.width, v.height)
}
