package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/ensigniasec/tiered-sto/internal/offering"
	"github.com/ensigniasec/tiered-sto/internal/sdk"
	"github.com/ensigniasec/tiered-sto/internal/uistate"
	"github.com/ensigniasec/tiered-sto/internal/validate"
)

//nolint:gochecknoglobals // shared styles.
var (
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("69")).Bold(true)
)

func (m Model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}
	s := m.store.State()

	var b strings.Builder
	b.WriteString(renderHeader(m))
	b.WriteString("\n\n")
	if m.helpVisible {
		b.WriteString(renderHelp(m))
		b.WriteString("\n\n")
	}

	if m.formOpen {
		b.WriteString(renderForm(m, s))
	} else {
		left := m.tokensList.View()
		right := renderDetail(s, m.detailWidth())
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			lipgloss.NewStyle().Width(sidebarWidth).Render(left),
			lipgloss.NewStyle().MarginLeft(panelGap).Width(m.detailWidth()).Render(right),
		))
	}
	b.WriteString("\n\n")
	if status := renderStatus(m, s); status != "" {
		b.WriteString(status)
		b.WriteString("\n")
	}
	b.WriteString(renderFooter(m))
	return b.String()
}

func (m Model) detailWidth() int {
	w := detailMax
	if m.width > 0 {
		w = min(w, m.width-sidebarWidth-panelGap)
	}
	return max(w, 1)
}

func renderHeader(m Model) string {
	wallet := "no wallet"
	if m.opts.Wallet != "" {
		wallet = validate.ChecksumAddress(m.opts.Wallet)
	}
	left := titleStyle.Render("Tiered STO") + dimStyle.Render(fmt.Sprintf("  %s • network %d", wallet, m.opts.NetworkID))
	return left + "  " + modeBadge(m)
}

func modeBadge(m Model) string {
	style := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	switch {
	case m.opts.Offline:
		return style.Foreground(lipgloss.Color("208")).Render("OFFLINE")
	case m.opts.Wallet == "":
		return style.Foreground(lipgloss.Color("196")).Render("NO WALLET")
	default:
		return style.Foreground(lipgloss.Color("46")).Render("ONLINE")
	}
}

// renderDetail shows the Tiered offerings of the selected token.
func renderDetail(s uistate.State, width int) string {
	tok, ok := selectedToken(s)
	if !ok {
		if tokens := uistate.FieldOr[[]sdk.Token](s, uistate.KeyTokens, nil); s.IsSet(uistate.KeyTokens) && len(tokens) == 0 {
			return dimStyle.Render("This wallet owns no security tokens.")
		}
		return dimStyle.Render("Select a token and press enter.")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(tok.Symbol))
	if tok.Name != "" {
		b.WriteString(dimStyle.Render("  " + tok.Name))
	}
	b.WriteString("\n\n")

	if r, ok := uistate.Field[sdk.LaunchReceipt](s, uistate.KeyLastLaunch); ok && r.Symbol == tok.Symbol {
		b.WriteString(fmt.Sprintf("Launched %s\n\n", validate.ChecksumAddress(r.Address)))
	}

	if !s.IsSet(uistate.KeyOfferings) {
		return b.String()
	}
	stos := uistate.FieldOr[[]offering.Offering](s, uistate.KeyOfferings, nil)
	if len(stos) == 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("No Tiered STOs for %s yet. Press n to launch one.", tok.Symbol)))
		return b.String()
	}
	now := time.Now()
	for i, o := range stos {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(renderOffering(o, now, width))
	}
	return b.String()
}

func renderOffering(o offering.Offering, now time.Time, width int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Tiered STO " + o.Status(now)))
	b.WriteString("\n")
	label := dimStyle.Width(formLabelWidth)
	for _, f := range offering.Describe(o) {
		b.WriteString(label.Render(f.Label))
		b.WriteString(f.Value)
		b.WriteString("\n")
	}
	if len(o.Tiers) > 0 {
		b.WriteString("\n")
		b.WriteString(renderTiers(o, width))
		b.WriteString("\n")
	}
	return b.String()
}

func renderTiers(o offering.Offering, width int) string {
	cols := offering.TierColumns()
	columns := make([]table.Column, 0, len(cols))
	for _, c := range cols {
		columns = append(columns, table.Column{Title: c.Title, Width: c.Width})
	}
	rows := make([]table.Row, 0, len(o.Tiers))
	for _, r := range offering.TierRows(o) {
		rows = append(rows, table.Row(r))
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(len(rows)+1),
		table.WithWidth(width),
		table.WithFocused(false),
	)
	return t.View()
}

func renderForm(m Model, s uistate.State) string {
	var b strings.Builder
	title := "Launch Tiered STO"
	if tok, ok := selectedToken(s); ok {
		title += " for " + tok.Symbol
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")
	rows := m.height - headerLines - footerLines - 4
	if m.height == 0 {
		rows = len(m.form.fields)
	}
	b.WriteString(m.form.view(rows))
	return b.String()
}

func renderStatus(m Model, s uistate.State) string {
	switch {
	case s.Loading:
		return m.spinner.View() + " " + s.LoadingMessage
	case s.HasError():
		return errorStyle.Render("✗ "+s.Error) + dimStyle.Render("  x: dismiss • r: retry")
	default:
		return ""
	}
}

func renderFooter(m Model) string {
	if m.formOpen {
		return dimStyle.Render("tab/↓ shift+tab/↑: move • ctrl+a/ctrl+d: add/remove tier • ctrl+s: launch • esc: cancel")
	}
	return dimStyle.Render("q: quit • enter: offerings • n: launch • r: reload • /: filter • h/?: help")
}

func renderHelp(m Model) string {
	border := lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1).Foreground(lipgloss.Color("69"))
	bindings := []struct{ keys, desc string }{
		{m.keys.Select.Help().Key, m.keys.Select.Help().Desc},
		{m.keys.Launch.Help().Key, m.keys.Launch.Help().Desc},
		{m.keys.Reload.Help().Key, m.keys.Reload.Help().Desc},
		{m.keys.Dismiss.Help().Key, m.keys.Dismiss.Help().Desc},
		{m.keys.Help.Help().Key, m.keys.Help.Help().Desc},
		{m.keys.Quit.Help().Key, m.keys.Quit.Help().Desc},
	}
	lines := []string{"Help", ""}
	for _, kb := range bindings {
		lines = append(lines, fmt.Sprintf("%-8s %s", kb.keys, kb.desc))
	}
	return border.Render(strings.Join(lines, "\n"))
}
