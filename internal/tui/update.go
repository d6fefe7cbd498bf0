package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/ensigniasec/tiered-sto/internal/sdk"
	"github.com/ensigniasec/tiered-sto/internal/uistate"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) { // nolint:ireturn
	switch x := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = x.Width, x.Height
		m.resize()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(x)
		return m, cmd

	case actionMsg:
		return m.applyAction(x)

	case tea.KeyMsg:
		if m.formOpen {
			return m.handleFormKey(x)
		}
		return m.handleKey(x)
	}

	return m, nil
}

// applyAction dispatches a settled operation and chains whatever it unlocks.
func (m Model) applyAction(x actionMsg) (Model, tea.Cmd) {
	stale := uistate.IsStale(m.store.State(), x.Action)
	s := m.store.Dispatch(x.Action)
	logrus.WithFields(logrus.Fields{"op": x.Op.String(), "stale": stale}).Debug("operation settled")
	if stale {
		return m, nil
	}

	if _, ok := x.Action.(uistate.AsyncComplete); ok {
		switch x.Op {
		case opTokens:
			if !s.IsSet(uistate.KeyTokenIndex) {
				if idx, ok := m.initialIndex(s); ok {
					m.selectToken(idx)
				}
			}
		case opLaunch:
			if r, ok := uistate.Field[sdk.LaunchReceipt](s, uistate.KeyLastLaunch); ok && m.opts.OnLaunch != nil {
				m.opts.OnLaunch(r)
			}
			m.hasLastForm = false
			// Reselecting the token drops the cached offerings so they reload.
			if idx, ok := uistate.Field[int](m.store.State(), uistate.KeyTokenIndex); ok {
				m.store.Dispatch(uistate.TokenSelected{TokenIndex: idx})
			}
		}
	}

	m.syncTokens()
	return m, m.maybeLoadOfferings()
}

func (m *Model) resize() {
	h := m.height - headerLines - footerLines
	if h < listMinHeight {
		h = listMinHeight
	}
	m.tokensList.SetSize(sidebarWidth, h)
}
