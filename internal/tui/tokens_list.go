package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ensigniasec/tiered-sto/internal/sdk"
)

// tokenItem is the list item backing an owned security token.
type tokenItem struct {
	Index  int
	Token  sdk.Token
	Active bool
}

// List item interface methods.
func (it tokenItem) Title() string       { return it.Token.Symbol }
func (it tokenItem) Description() string { return it.Token.Name }
func (it tokenItem) FilterValue() string { return it.Token.Symbol + " " + it.Token.Name }

// tokensDelegate renders one token per line with the active token marked.
type tokensDelegate struct{}

func (d tokensDelegate) Height() int                             { return 1 }
func (d tokensDelegate) Spacing() int                            { return 0 }
func (d tokensDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d tokensDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	it, ok := listItem.(tokenItem)
	if !ok {
		return
	}
	prefix := "  "
	lineStyle := lipgloss.NewStyle()
	if index == m.Index() {
		prefix = "> "
		lineStyle = lineStyle.Foreground(lipgloss.Color("69")).Bold(true)
	}
	marker := " "
	if it.Active {
		marker = lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Render("●")
	}

	left := fmt.Sprintf("%s%s %s", prefix, marker, it.Token.Symbol)
	right := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render(it.Token.Name)

	padding := m.Width() - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		// Not enough room for the name.
		_, _ = fmt.Fprint(w, lineStyle.Render(left))
		return
	}
	_, _ = fmt.Fprint(w, lineStyle.Render(left)+spaces(padding)+right)
}

func spaces(n int) string {
	if n <= 0 {
		return ""
	}
	return lipgloss.NewStyle().Width(n).Render("")
}
