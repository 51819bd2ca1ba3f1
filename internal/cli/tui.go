package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/jsonflow/pkg/controller"
	"github.com/matzehuels/jsonflow/pkg/graph"
)

// Table styles
var (
	tableHeaderStyle  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	tableSpecialStyle = lipgloss.NewStyle().Foreground(colorCyan)
	tableValueStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	tableDimStyle     = lipgloss.NewStyle().Foreground(colorDim)
)

// chrome is the number of lines around the node table: header, blank,
// table borders and header row, blank, footer.
const chrome = 8

// =============================================================================
// Surface - controller.Surface backed by a bubbletea program
// =============================================================================

type (
	frameMsg   struct{ Frame graph.Frame }
	fitMsg     struct{}
	postErrMsg struct{ err error }
)

// teaSurface forwards frames into the program's update loop.
type teaSurface struct {
	send func(tea.Msg)
}

func (s teaSurface) Publish(_ context.Context, f graph.Frame) error {
	s.send(frameMsg{Frame: f})
	return nil
}

func (s teaSurface) FitView(context.Context) error {
	s.send(fitMsg{})
	return nil
}

// poster returns a post function whose commands queue events on c. Events
// are posted from command goroutines so the update loop never blocks on a
// full queue.
func poster(ctx context.Context, c *controller.Controller) func(controller.Event) tea.Cmd {
	return func(ev controller.Event) tea.Cmd {
		return func() tea.Msg {
			if err := c.Post(ctx, ev); err != nil {
				return postErrMsg{err: err}
			}
			return nil
		}
	}
}

// =============================================================================
// WatchModel - terminal rendering of the current frame
// =============================================================================

// WatchModel shows the latest frame as a node table.
type WatchModel struct {
	title string
	post  func(controller.Event) tea.Cmd

	frame   graph.Frame
	mounted bool // a non-empty frame is on screen and readiness was signalled
	sized   bool
	width   int
	height  int
	offset  int
	fits    int
	err     error
}

// NewWatchModel creates the model. post turns controller events into
// commands.
func NewWatchModel(title string, post func(controller.Event) tea.Cmd) WatchModel {
	return WatchModel{title: title, post: post, height: 24}
}

func (m WatchModel) Init() tea.Cmd {
	return nil
}

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.sized = true
		m.clampOffset()
		return m, m.mount()

	case frameMsg:
		m.frame = msg.Frame
		m.err = nil
		if m.frame.Empty() {
			m.mounted = false
			m.offset = 0
			return m, nil
		}
		if m.frame.State == controller.ValidUnlaid.String() {
			// a fresh graph: remount and ask for a layout
			m.mounted = false
		}
		if m.frame.Fit {
			m.offset = 0
		}
		m.clampOffset()
		return m, m.mount()

	case fitMsg:
		m.offset = 0
		m.fits++

	case postErrMsg:
		m.err = msg.err

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "s":
			if m.frame.Empty() {
				return m, nil
			}
			return m, m.post(controller.Relayout())
		case "f":
			m.offset = 0
		case "up", "k":
			if m.offset > 0 {
				m.offset--
			}
		case "down", "j":
			m.offset++
			m.clampOffset()
		case "pgdown", " ":
			m.offset += m.rows()
			m.clampOffset()
		case "pgup":
			m.offset = max(0, m.offset-m.rows())
		}
	}
	return m, nil
}

// mount signals readiness once a non-empty frame can be shown.
func (m *WatchModel) mount() tea.Cmd {
	if !m.sized || m.mounted || m.frame.Empty() {
		return nil
	}
	m.mounted = true
	return m.post(controller.Ready())
}

func (m WatchModel) rows() int {
	return max(3, m.height-chrome)
}

func (m *WatchModel) clampOffset() {
	limit := max(0, len(m.frame.Elements.Nodes)-m.rows())
	m.offset = min(max(m.offset, 0), limit)
}

func (m WatchModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(appName))
	b.WriteString("  ")
	b.WriteString(stateStyle(m.frame.State).Render(stateLabel(m.frame.State)))
	if m.title != "" {
		b.WriteString(StyleDim.Render("  " + m.title))
	}
	if m.frame.Direction != "" {
		b.WriteString(StyleDim.Render(fmt.Sprintf("  %s · rev %d", m.frame.Direction, m.frame.Revision)))
	}
	b.WriteString("\n\n")

	if m.frame.Empty() {
		b.WriteString(StyleDim.Render("  No diagram"))
		b.WriteString("\n")
	} else {
		b.WriteString(m.renderTable())
		b.WriteString("\n")
		b.WriteString(StyleDim.Render(fmt.Sprintf("  %d nodes · %d edges  [%d-%d]",
			len(m.frame.Elements.Nodes), len(m.frame.Elements.Edges),
			m.offset+1, min(m.offset+m.rows(), len(m.frame.Elements.Nodes)))))
	}
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(styleIconError.Render(iconError) + " " + m.err.Error() + "\n")
	}
	b.WriteString(StyleDim.Render("s style  f fit  ↑/↓ scroll  q quit"))
	return b.String()
}

func (m WatchModel) renderTable() string {
	nodes := m.frame.Elements.Nodes
	end := min(m.offset+m.rows(), len(nodes))
	visible := nodes[m.offset:end]

	rows := make([][]string, 0, len(visible))
	for _, n := range visible {
		x, y := "-", "-"
		if n.Position != nil {
			x = fmt.Sprintf("%.0f", n.Position.X)
			y = fmt.Sprintf("%.0f", n.Position.Y)
		}
		rows = append(rows, []string{
			truncateCell(n.Data.Path, 28),
			truncateCell(n.Data.Label, 32),
			n.Data.Kind,
			x, y,
			connectors(n),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Path", "Label", "Kind", "X", "Y", "Edges").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return tableHeaderStyle
			}
			if row < 0 || row >= len(visible) {
				return lipgloss.NewStyle()
			}
			switch {
			case col >= 3:
				return tableDimStyle
			case visible[row].Type == graph.TypeSpecial:
				return tableSpecialStyle
			default:
				return tableValueStyle
			}
		})
	return t.Render()
}

func connectors(n graph.Node) string {
	if n.SourcePosition == "" {
		return "-"
	}
	return string(n.TargetPosition) + "→" + string(n.SourcePosition)
}

func truncateCell(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func stateLabel(state string) string {
	if state == "" {
		return controller.Uninitialized.String()
	}
	return strings.ReplaceAll(state, "_", " ")
}
