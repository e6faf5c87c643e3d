package browsecmder

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/infinitecontext/infctx/pkg/cliui"
	"github.com/infinitecontext/infctx/pkg/config"
	"github.com/infinitecontext/infctx/pkg/store"
	"github.com/infinitecontext/infctx/pkg/utils"
)

func init() {
	// Force TrueColor profile to fix lipgloss color detection issue
	// See: https://github.com/charmbracelet/lipgloss/issues/439
	renderer := lipgloss.NewRenderer(os.Stdout, termenv.WithProfile(termenv.TrueColor))
	renderer.SetColorProfile(termenv.TrueColor)
	lipgloss.SetDefaultRenderer(renderer)
}

type browseView int

const (
	viewList browseView = iota
	viewDetail
)

// browsePageSize matches the store's listing cap, so one load fills a page.
const browsePageSize = 200

var (
	browseTitleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	browseMutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	browseAccentStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("215"))
	browseSectionStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	browseDividerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("237"))
	browseHighlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("235")).Background(lipgloss.Color("214")).Bold(true)
	browseWarnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
)

// browseSorts are the store listing sort keys, cycled with "s".
var browseSorts = []string{"created", "score", "accessed", "access_count"}

// browseCategories cycle with "c"; empty means all.
var browseCategories = []string{
	"",
	config.CategoryArchitecture,
	config.CategoryDecision,
	config.CategoryError,
	config.CategoryFinding,
	config.CategoryFileChange,
	config.CategoryNote,
}

type browseKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Enter    key.Binding
	Back     key.Binding
	Filter   key.Binding
	Sort     key.Binding
	Category key.Binding
	Delete   key.Binding
	Page     key.Binding
	Quit     key.Binding
}

func (k browseKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.Up, k.Enter, k.Back, k.Filter, k.Sort, k.Category, k.Delete, k.Quit}
}

func (k browseKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Down, k.Up, k.Enter, k.Back, k.Page}, {k.Filter, k.Sort, k.Category, k.Delete, k.Quit}}
}

func defaultKeyMap() browseKeyMap {
	return browseKeyMap{
		Up:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k", "up")),
		Down:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j", "down")),
		Enter:    key.NewBinding(key.WithKeys("enter", "l"), key.WithHelp("enter", "read")),
		Back:     key.NewBinding(key.WithKeys("h", "esc"), key.WithHelp("esc", "back")),
		Filter:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		Sort:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
		Category: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "category")),
		Delete:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Page:     key.NewBinding(key.WithKeys("n", "p", "right", "left"), key.WithHelp("n/p", "page")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

type memoriesLoadedMsg struct {
	result *store.ListResult
	err    error
}

type memoryDeletedMsg struct {
	id  int64
	err error
}

type browseModel struct {
	store         *store.Store
	project       string
	memories      []store.Memory
	total         int
	page          int
	view          browseView
	cursor        int
	width         int
	height        int
	sortIndex     int
	categoryIndex int
	filter        string
	filtering     bool
	confirming    bool
	detail        string
	status        string
	keys          browseKeyMap
	help          help.Model
}

func runBrowseTUI(ctx context.Context, st *store.Store, project string) error {
	model := newBrowseModel(st, project)

	result, err := st.ListMemories(model.listOptions())
	if err != nil {
		return err
	}
	model.memories = result.Memories
	model.total = result.Total

	program := bubbletea.NewProgram(model,
		bubbletea.WithContext(ctx),
		bubbletea.WithAltScreen(),
	)
	_, err = program.Run()
	return err
}

func newBrowseModel(st *store.Store, project string) browseModel {
	return browseModel{
		store:   st,
		project: project,
		page:    1,
		keys:    defaultKeyMap(),
		help:    help.New(),
	}
}

func (m browseModel) Init() bubbletea.Cmd {
	return nil
}

func (m browseModel) Update(msg bubbletea.Msg) (bubbletea.Model, bubbletea.Cmd) {
	switch msg := msg.(type) {
	case bubbletea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case memoriesLoadedMsg:
		if msg.err != nil {
			m.status = "load failed: " + msg.err.Error()
			return m, nil
		}
		m.memories = msg.result.Memories
		m.total = msg.result.Total
		m.page = msg.result.Page
		if len(m.memories) == 0 && m.page > 1 {
			m.page--
			return m, m.reload()
		}
		if len(m.memories) == 0 {
			m.cursor = 0
		} else {
			m.cursor = clamp(m.cursor, len(m.memories)-1)
		}
		return m, nil
	case memoryDeletedMsg:
		if msg.err != nil {
			m.status = "delete failed: " + msg.err.Error()
			return m, nil
		}
		m.status = fmt.Sprintf("deleted memory #%d", msg.id)
		m.view = viewList
		return m, m.reload()
	case bubbletea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m browseModel) View() string {
	switch m.view {
	case viewList:
		return m.viewList()
	case viewDetail:
		return m.viewDetail()
	}
	return m.viewList()
}

func (m browseModel) handleKey(msg bubbletea.KeyMsg) (bubbletea.Model, bubbletea.Cmd) {
	if m.filtering {
		return m.handleFilterKey(msg)
	}
	if m.confirming {
		return m.handleConfirmKey(msg)
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, bubbletea.Quit
	case "j", "down":
		return m.moveCursor(1)
	case "k", "up":
		return m.moveCursor(-1)
	case "l", "enter":
		if m.view == viewList {
			return m.enterDetail()
		}
	case "h", "esc":
		if m.view == viewDetail {
			m.view = viewList
			return m, nil
		}
		if m.filter != "" {
			m.filter = ""
			m.page = 1
			return m, m.reload()
		}
	case "/":
		if m.view == viewList {
			m.filtering = true
			m.status = ""
		}
	case "s":
		if m.view == viewList {
			return m.cycleSort()
		}
	case "c":
		if m.view == viewList {
			return m.cycleCategory()
		}
	case "d":
		if len(m.memories) > 0 {
			m.confirming = true
		}
	case "n", "right":
		if m.view == viewList {
			return m.nextPage()
		}
	case "p", "left":
		if m.view == viewList {
			return m.prevPage()
		}
	}

	return m, nil
}

func (m browseModel) handleFilterKey(msg bubbletea.KeyMsg) (bubbletea.Model, bubbletea.Cmd) {
	switch msg.Type {
	case bubbletea.KeyCtrlC:
		return m, bubbletea.Quit
	case bubbletea.KeyEnter:
		m.filtering = false
		return m, nil
	case bubbletea.KeyEsc:
		m.filtering = false
		m.filter = ""
		m.page = 1
		return m, m.reload()
	case bubbletea.KeyBackspace:
		if m.filter != "" {
			runes := []rune(m.filter)
			m.filter = string(runes[:len(runes)-1])
		}
		m.page = 1
		return m, m.reload()
	case bubbletea.KeySpace:
		m.filter += " "
		return m, nil
	case bubbletea.KeyRunes:
		m.filter += string(msg.Runes)
		m.page = 1
		return m, m.reload()
	}
	return m, nil
}

func (m browseModel) handleConfirmKey(msg bubbletea.KeyMsg) (bubbletea.Model, bubbletea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, bubbletea.Quit
	case "y", "Y":
		m.confirming = false
		if mem, ok := m.selected(); ok {
			return m, deleteMemoryCmd(m.store, mem.ID)
		}
	default:
		m.confirming = false
	}
	return m, nil
}

func (m browseModel) moveCursor(delta int) (bubbletea.Model, bubbletea.Cmd) {
	if len(m.memories) == 0 {
		return m, nil
	}
	m.cursor = clamp(m.cursor+delta, len(m.memories)-1)
	if m.view == viewDetail {
		if mem, ok := m.selected(); ok {
			m.detail = renderMemoryDetail(mem)
		}
	}
	return m, nil
}

func (m browseModel) enterDetail() (bubbletea.Model, bubbletea.Cmd) {
	mem, ok := m.selected()
	if !ok {
		return m, nil
	}
	m.detail = renderMemoryDetail(mem)
	m.view = viewDetail
	return m, nil
}

func (m browseModel) cycleSort() (bubbletea.Model, bubbletea.Cmd) {
	m.sortIndex = (m.sortIndex + 1) % len(browseSorts)
	m.page = 1
	return m, m.reload()
}

func (m browseModel) cycleCategory() (bubbletea.Model, bubbletea.Cmd) {
	m.categoryIndex = (m.categoryIndex + 1) % len(browseCategories)
	m.page = 1
	return m, m.reload()
}

func (m browseModel) nextPage() (bubbletea.Model, bubbletea.Cmd) {
	if m.page*browsePageSize >= m.total {
		return m, nil
	}
	m.page++
	m.cursor = 0
	return m, m.reload()
}

func (m browseModel) prevPage() (bubbletea.Model, bubbletea.Cmd) {
	if m.page <= 1 {
		return m, nil
	}
	m.page--
	m.cursor = 0
	return m, m.reload()
}

func (m browseModel) selected() (store.Memory, bool) {
	if len(m.memories) == 0 || m.cursor < 0 || m.cursor >= len(m.memories) {
		return store.Memory{}, false
	}
	return m.memories[m.cursor], true
}

func (m browseModel) listOptions() store.ListOptions {
	return store.ListOptions{
		Project:  m.project,
		Category: browseCategories[m.categoryIndex],
		Search:   m.filter,
		Sort:     browseSorts[m.sortIndex],
		Page:     m.page,
		Limit:    browsePageSize,
	}
}

func (m browseModel) reload() bubbletea.Cmd {
	return loadMemoriesCmd(m.store, m.listOptions())
}

func loadMemoriesCmd(st *store.Store, opts store.ListOptions) bubbletea.Cmd {
	return func() bubbletea.Msg {
		result, err := st.ListMemories(opts)
		return memoriesLoadedMsg{result: result, err: err}
	}
}

func deleteMemoryCmd(st *store.Store, id int64) bubbletea.Cmd {
	return func() bubbletea.Msg {
		return memoryDeletedMsg{id: id, err: st.DeleteMemory(id)}
	}
}

func (m browseModel) viewList() string {
	headerLeft := browseTitleStyle.Render("infctx browse")
	scope := "all projects"
	if m.project != "" {
		scope = cliui.ProjectLabel(m.project)
	}
	totalPages := max((m.total+browsePageSize-1)/browsePageSize, 1)
	headerRight := browseMutedStyle.Render(fmt.Sprintf("%s · %d memories · page %d/%d", scope, m.total, m.page, totalPages))

	lines := make([]string, 0, 12)
	lines = append(lines, renderHeaderLine(m.width, headerLeft, headerRight), renderRule(m.width), "")

	category := browseCategories[m.categoryIndex]
	if category == "" {
		category = "all"
	}
	lines = append(lines, browseSectionStyle.Render(fmt.Sprintf("memories (sort: %s, category: %s)", browseSorts[m.sortIndex], category)))
	if m.filtering || m.filter != "" {
		lines = append(lines, m.viewFilterLine())
	}
	lines = append(lines, browseMutedStyle.Render("    score  category        created     accessed  content"))

	if len(m.memories) == 0 {
		lines = append(lines, browseMutedStyle.Render("  no memories"))
	} else {
		lines = append(lines, m.viewMemoryRows()...)
	}

	lines = append(lines, "", m.viewStatusLine(), m.viewFooter())
	return strings.Join(lines, "\n")
}

func (m browseModel) viewMemoryRows() []string {
	screenHeight := m.height
	if screenHeight <= 0 {
		screenHeight = 40
	}
	chrome := 8
	if m.filtering || m.filter != "" {
		chrome++
	}
	maxVisible := max(screenHeight-chrome, 5)

	contentWidth := max(m.width-48, 20)
	rows := make([]string, 0, maxVisible)
	start, end := visibleRange(len(m.memories), m.cursor, maxVisible)
	for i := start; i < end; i++ {
		mem := m.memories[i]
		created := mem.CreatedAt.Format("2006-01-02")
		content := strings.ReplaceAll(utils.Truncate(mem.Content, contentWidth), "\n", " ")

		if i == m.cursor {
			// Plain cells under the highlight; nested ANSI resets would
			// break the background mid-line.
			row := fmt.Sprintf(">  %.2f  [%-12s]  %s  %5d×  %s",
				mem.Score, mem.Category, created, mem.AccessCount, content)
			rows = append(rows, browseHighlightStyle.Render(row))
			continue
		}

		rows = append(rows, fmt.Sprintf("   %s  %s  %s  %s  %s",
			cliui.FormatScore(mem.Score),
			cliui.CategoryBadge(mem.Category),
			browseMutedStyle.Render(created),
			browseMutedStyle.Render(fmt.Sprintf("%5d×", mem.AccessCount)),
			cliui.ValueStyle.Render(content),
		))
	}

	return rows
}

func (m browseModel) viewDetail() string {
	headerLeft := browseTitleStyle.Render("infctx browse › memory")
	headerRight := browseMutedStyle.Render(fmt.Sprintf("%d/%d on page %d", m.cursor+1, len(m.memories), m.page))

	lines := make([]string, 0, 20)
	lines = append(lines, renderHeaderLine(m.width, headerLeft, headerRight), renderRule(m.width), "")
	lines = append(lines, m.detail)
	lines = append(lines, "", m.viewStatusLine(), m.viewFooter())
	return strings.Join(lines, "\n")
}

func (m browseModel) viewFilterLine() string {
	line := cliui.KeyStyle.Render("/") + cliui.ValueStyle.Render(m.filter)
	if m.filtering {
		return line + browseAccentStyle.Render("█")
	}
	return line + "  " + browseMutedStyle.Render("(esc clears)")
}

func (m browseModel) viewStatusLine() string {
	if m.confirming {
		if mem, ok := m.selected(); ok {
			return browseWarnStyle.Render(fmt.Sprintf("delete memory #%d? y/N", mem.ID))
		}
	}
	if m.status != "" {
		return browseMutedStyle.Render(m.status)
	}
	return ""
}

func (m browseModel) viewFooter() string {
	return browseMutedStyle.Render(m.help.View(m.keys))
}

// renderMemoryDetail lays out one memory in full: glamour-rendered content
// above the raw record fields.
func renderMemoryDetail(mem store.Memory) string {
	body, err := cliui.RenderMarkdown(mem.Content)
	if err != nil || strings.TrimSpace(body) == "" {
		body = "  " + mem.Content
	}

	lines := []string{
		fmt.Sprintf("%s %s %s", cliui.FormatScore(mem.Score), cliui.CategoryBadge(mem.Category), browseTitleStyle.Render(fmt.Sprintf("#%d", mem.ID))),
		"",
		strings.TrimRight(body, "\n"),
		"",
		metaRow("project", mem.Project),
		metaRow("session", mem.SessionID),
		metaRow("keywords", mem.Keywords),
		metaRow("created", mem.CreatedAt.Format("2006-01-02 15:04")),
		metaRow("accessed", fmt.Sprintf("%d× · last %s", mem.AccessCount, cliui.FormatRelativeTime(mem.LastAccessed, time.Now()))),
	}
	if mem.SourceHash != "" {
		lines = append(lines, metaRow("source", mem.SourceHash))
	}

	return strings.Join(lines, "\n")
}

func metaRow(name, value string) string {
	if value == "" {
		value = "—"
	}
	return fmt.Sprintf("%s %s", cliui.KeyStyle.Render(fmt.Sprintf("%-9s", name)), cliui.ValueStyle.Render(value))
}

func clamp(value, upper int) int {
	if value < 0 {
		return 0
	}
	if value > upper {
		return upper
	}
	return value
}

func renderHeaderLine(width int, left, right string) string {
	lineWidth := width
	if lineWidth <= 0 {
		lineWidth = 80
	}
	leftWidth := lipgloss.Width(left)
	rightWidth := lipgloss.Width(right)
	if leftWidth+rightWidth+1 >= lineWidth {
		return strings.TrimSpace(left + " " + right)
	}
	return left + strings.Repeat(" ", lineWidth-leftWidth-rightWidth) + right
}

func renderRule(width int) string {
	lineWidth := width
	if lineWidth <= 0 {
		lineWidth = 80
	}
	return browseDividerStyle.Render(strings.Repeat("─", lineWidth))
}

func visibleRange(total, cursor, size int) (int, int) {
	if total <= 0 || size <= 0 {
		return 0, 0
	}
	if total <= size {
		return 0, total
	}
	if cursor < 0 {
		cursor = 0
	}
	if cursor >= total {
		cursor = total - 1
	}
	start := max(cursor-(size/2), 0)
	end := start + size
	if end > total {
		end = total
		start = max(end-size, 0)
	}
	return start, end
}
