package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"charm.land/bubbles/v2/filepicker"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/bankchat/internal/chat"
	"github.com/raphaelgruber/bankchat/internal/config"
	"github.com/raphaelgruber/bankchat/internal/conversation"
	"github.com/raphaelgruber/bankchat/internal/extract"
	"github.com/raphaelgruber/bankchat/internal/metrics"
	"github.com/raphaelgruber/bankchat/internal/models"
	"github.com/raphaelgruber/bankchat/internal/render"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	maxBubbleWidth = 88
	inputCharLimit = 4000
	// rows below the conversation viewport
	chromeHeight = 3
)

var (
	chatOrdering string
	chatDir      string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the interactive chat view",
	Long: `Open the interactive chat view.

Type a complaint and press Enter to send it, or press ctrl+o to pick a PDF or
text document. Several requests may be in flight at once; --ordering decides
whether replies appear as they arrive or in the order they were sent.

Keys:
  enter          send
  ctrl+o         upload a document (esc to cancel)
  up/down/pgup   scroll the conversation
  ctrl+c         quit`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func addChatFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&chatOrdering, "ordering", "", "reply ordering: arrival or submission (default from config)")
	cmd.Flags().StringVar(&chatDir, "dir", "", "start directory for the document picker (default: working directory)")
}

func init() {
	addChatFlags(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) || !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("chat needs an interactive terminal; use 'bankchat analyze' for scripts")
	}

	ordering := cfg.Ordering
	if chatOrdering != "" {
		ordering = strings.ToLower(chatOrdering)
	}
	if err := config.ValidateOrdering(ordering); err != nil {
		return err
	}

	dir := chatDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("working directory: %w", err)
		}
		dir = wd
	}

	svc := newServices()
	logger.Info("chat session started", "server_url", cfg.ServerURL, "ordering", ordering)

	return RunChat(cmd.Context(), svc.chat, svc.metrics, conversation.ParseOrdering(ordering), dir)
}

// outcomeMsg carries a settled exchange back to Update.
type outcomeMsg struct {
	out chat.Outcome
}

// chatModel is the bubbletea model for the chat view.
type chatModel struct {
	ctx     context.Context
	svc     *chat.Service
	metrics *metrics.Collector
	state   conversation.State

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	picker   filepicker.Model

	theme    Theme
	picking  bool
	ready    bool
	width    int
	height   int
	quitting bool
}

// newChatModel creates the chat view with the welcome message in place.
func newChatModel(ctx context.Context, svc *chat.Service, m *metrics.Collector, ordering conversation.Ordering, dir string) chatModel {
	input := textinput.New()
	input.Prompt = "› "
	input.Placeholder = "Describe your banking issue…"
	input.CharLimit = inputCharLimit
	input.Focus()

	picker := filepicker.New()
	picker.AllowedTypes = extract.SupportedExtensions
	picker.CurrentDirectory = dir
	picker.AutoHeight = false

	state := conversation.AppendNotice(conversation.New(ordering), conversation.WelcomeText)

	return chatModel{
		ctx:      ctx,
		svc:      svc,
		metrics:  m,
		state:    state,
		input:    input,
		viewport: viewport.New(),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		picker:   picker,
		theme:    defaultTheme,
	}
}

// Init returns the initial command.
func (m chatModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and returns the updated model.
func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.viewport.SetWidth(msg.Width)
		m.viewport.SetHeight(max(msg.Height-chromeHeight, 1))
		m.input.SetWidth(max(msg.Width-4, 10))
		m.picker.SetHeight(max(msg.Height-chromeHeight, 3))
		m.refresh()
		return m, nil

	case tea.KeyPressMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		if m.picking {
			return m.updatePicker(msg)
		}
		return m.handleKey(msg)

	case outcomeMsg:
		m.state = chat.Apply(m.state, msg.out)
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		// Let the tick loop die once nothing is in flight.
		if !m.state.Loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	// Directory listings and other internal messages of the picker and input.
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	cmds = append(cmds, cmd)
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m chatModel) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return m.submitText()
	case "ctrl+o":
		m.picking = true
		return m, m.picker.Init()
	case "up", "down", "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m chatModel) updatePicker(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.picking = false
		return m, nil
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	if ok, path := m.picker.DidSelectFile(msg); ok {
		m.picking = false
		return m.submitFile(path)
	}
	if ok, path := m.picker.DidSelectDisabledFile(msg); ok {
		m.picking = false
		m.state = conversation.AppendNotice(m.state,
			fmt.Sprintf("⚠️ %s is not a supported document. Choose a .pdf or .txt file.", baseName(path)))
		m.refresh()
		return m, nil
	}
	return m, cmd
}

// submitText appends the user message and clears the input before the
// request is sent. Blank input does nothing.
func (m chatModel) submitText() (tea.Model, tea.Cmd) {
	next, ex, ok := conversation.SubmitText(m.state, m.input.Value())
	if !ok {
		return m, nil
	}
	m.input.Reset()
	return m.start(next, ex)
}

func (m chatModel) submitFile(path string) (tea.Model, tea.Cmd) {
	next, ex := conversation.SubmitFile(m.state, path)
	return m.start(next, ex)
}

func (m chatModel) start(next conversation.State, ex conversation.Exchange) (tea.Model, tea.Cmd) {
	wasLoading := m.state.Loading()
	m.state = next
	m.refresh()

	cmd := m.runExchange(ex)
	if !wasLoading {
		cmd = tea.Batch(cmd, m.spinner.Tick)
	}
	return m, cmd
}

// runExchange performs the exchange off the update loop.
func (m chatModel) runExchange(ex conversation.Exchange) tea.Cmd {
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		return outcomeMsg{out: svc.Run(ctx, ex)}
	}
}

// refresh re-renders the conversation into the viewport and scrolls to the end.
func (m *chatModel) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderConversation())
	m.viewport.GotoBottom()
}

// View renders the chat view.
func (m chatModel) View() tea.View {
	v := tea.NewView(m.renderContent())
	v.AltScreen = true
	return v
}

// renderContent builds the display string.
func (m chatModel) renderContent() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Starting…\n"
	}

	if m.picking {
		header := m.theme.statusStyle().Render("Select a document (.pdf, .txt)") + "  " +
			m.theme.hintStyle().Render("enter select · esc cancel")
		return header + "\n\n" + m.picker.View()
	}

	var b strings.Builder
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.footer())
	return b.String()
}

func (m chatModel) statusLine() string {
	if !m.state.Loading() {
		return ""
	}
	text := "Analyzing…"
	if n := m.state.InFlight(); n > 1 {
		text = fmt.Sprintf("Analyzing %d requests…", n)
	}
	return m.theme.statusStyle().Render(m.spinner.View() + " " + text)
}

func (m chatModel) footer() string {
	parts := []string{"enter send", "ctrl+o upload", "ctrl+c quit"}
	if m.metrics != nil {
		if a := m.metrics.Snapshot().Analyze; a != nil {
			parts = append(parts, fmt.Sprintf("%d analyzed · avg %.0fms", a.Count-a.Failures, a.AvgTimeMs))
		}
	}
	return m.theme.hintStyle().Render(strings.Join(parts, " · "))
}

func (m chatModel) bubbleWidth() int {
	return max(min(m.width-2, maxBubbleWidth), 20)
}

func (m chatModel) renderConversation() string {
	var blocks []string
	for _, msg := range m.state.Messages() {
		blocks = append(blocks, m.renderMessage(msg))
	}
	return strings.Join(blocks, "\n")
}

func (m chatModel) renderMessage(msg models.Message) string {
	width := m.bubbleWidth()

	if msg.Sender == models.SenderUser {
		label := m.theme.senderStyle(m.theme.User).Render("You")
		bubble := m.theme.userBubble(width - 2).Render(msg.Text)
		return lipgloss.JoinVertical(lipgloss.Right, label, bubble)
	}

	label := m.theme.senderStyle(m.theme.Bot).Render("Banking AI")
	body := msg.Text
	if msg.IsAnalysis() {
		body = m.renderAnalysis(msg.Analysis)
	} else if strings.HasPrefix(body, "❌") {
		body = m.theme.errorStyle().Render(body)
	}
	return lipgloss.JoinVertical(lipgloss.Left, label, m.theme.botBubble(width-2).Render(body))
}

// renderAnalysis lays out the present fields of a result; absent fields are omitted.
func (m chatModel) renderAnalysis(r *models.AnalysisResult) string {
	if !render.HasContent(r) {
		return m.theme.hintStyle().Render(render.EmptyText)
	}

	var lines []string
	fields := render.Fields(r)
	for _, f := range fields {
		if f.Label == "Ticket" {
			lines = append(lines, m.theme.titleStyle().Render("🎫 "+f.Value))
			continue
		}
		lines = append(lines, m.theme.labelStyle().Render(f.Label+": ")+f.Value)
	}

	section := func(title string) {
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, m.theme.labelStyle().Bold(true).Render(title))
	}

	if s := render.Summary(r); s != "" {
		section("Summary")
		lines = append(lines, s)
	}
	if steps := render.Steps(r); len(steps) > 0 {
		section("Resolution steps")
		for i, s := range steps {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, s))
		}
	}
	if s := render.Reply(r); s != "" {
		section("Agent reply")
		lines = append(lines, s)
	}
	if t := render.Timing(r); t != "" {
		lines = append(lines, m.theme.hintStyle().Render("engine time "+t))
	}

	return strings.Join(lines, "\n")
}

// RunChat runs the interactive chat view until the user quits or ctx is cancelled.
func RunChat(ctx context.Context, svc *chat.Service, m *metrics.Collector, ordering conversation.Ordering, dir string) error {
	model := newChatModel(ctx, svc, m, ordering, dir)
	p := tea.NewProgram(model, tea.WithContext(ctx))

	finalModel, err := p.Run()
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("chat UI error: %w", err)
	}

	if fm, ok := finalModel.(chatModel); ok {
		fmt.Println(fm.theme.hintStyle().Render(sessionSummary(fm.state, m)))
	}
	return nil
}

func sessionSummary(st conversation.State, m *metrics.Collector) string {
	summary := fmt.Sprintf("Session ended: %d messages", st.Len())
	if m == nil {
		return summary
	}
	if a := m.Snapshot().Analyze; a != nil {
		summary += fmt.Sprintf(", %d requests (%d failed, avg %.0fms)", a.Count, a.Failures, a.AvgTimeMs)
	}
	return summary
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}
