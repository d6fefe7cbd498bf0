package tui

import (
	"errors"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ensigniasec/tiered-sto/internal/offering"
	"github.com/ensigniasec/tiered-sto/internal/sdk"
	"github.com/ensigniasec/tiered-sto/internal/uistate"
)

// handleKey processes key bindings of the token/offering view.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) { // nolint:ireturn
	// While the list filter is being typed every key belongs to it.
	if m.tokensList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.tokensList, cmd = m.tokensList.Update(msg)
		return m, cmd
	}

	s := m.store.State()
	switch {
	case key.Matches(msg, m.keys.Quit), key.Matches(msg, m.keys.ForceQuit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.helpVisible = !m.helpVisible
		return m, nil

	case key.Matches(msg, m.keys.Dismiss):
		if s.HasError() && !s.Loading {
			m.store.Dispatch(uistate.Error{Err: ""})
			return m, m.maybeLoadOfferings()
		}
		return m, nil

	case key.Matches(msg, m.keys.Reload):
		if s.Loading {
			return m, nil
		}
		if !s.IsSet(uistate.KeyTokens) {
			return m, m.loadTokens()
		}
		if idx, ok := uistate.Field[int](s, uistate.KeyTokenIndex); ok {
			m.store.Dispatch(uistate.TokenSelected{TokenIndex: idx})
		}
		return m, m.maybeLoadOfferings()

	case key.Matches(msg, m.keys.Select):
		it, ok := m.tokensList.SelectedItem().(tokenItem)
		if !ok || s.Loading {
			return m, nil
		}
		m.selectToken(it.Index)
		return m, m.maybeLoadOfferings()

	case key.Matches(msg, m.keys.Launch):
		if _, ok := selectedToken(s); !ok || s.Loading {
			return m, nil
		}
		f := offering.NewForm(m.opts.Wallet, m.opts.Tiers)
		if m.hasLastForm {
			f = m.lastForm
		}
		m.form = newLaunchForm(f)
		m.formOpen = true
		return m, m.form.focusCmd()
	}

	var cmd tea.Cmd
	m.tokensList, cmd = m.tokensList.Update(msg)
	return m, cmd
}

// handleFormKey processes key bindings while the launch form is open.
func (m Model) handleFormKey(msg tea.KeyMsg) (Model, tea.Cmd) { // nolint:ireturn
	switch {
	case key.Matches(msg, m.keys.ForceQuit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Cancel):
		m.formOpen = false
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		return m.submitForm()
	case key.Matches(msg, m.keys.NextField):
		return m, m.form.move(1)
	case key.Matches(msg, m.keys.PrevField):
		return m, m.form.move(-1)
	case key.Matches(msg, m.keys.AddTier):
		m.form = m.form.withTiers(1)
		return m, m.form.focusCmd()
	case key.Matches(msg, m.keys.RemoveTier):
		m.form = m.form.withTiers(-1)
		return m, m.form.focusCmd()
	}
	return m, m.form.update(msg)
}

// submitForm validates the form and, when it is clean, starts the launch.
func (m Model) submitForm() (Model, tea.Cmd) {
	s := m.store.State()
	tok, ok := selectedToken(s)
	if !ok || s.Loading {
		return m, nil
	}

	f, errs := m.form.value()
	params, err := f.Build(m.opts.Defaults)
	if err != nil {
		var fe offering.FieldErrors
		if !errors.As(err, &fe) {
			fe = offering.FieldErrors{{Field: "form", Message: err.Error()}}
		}
		errs = append(errs, fe...)
	}
	if len(errs) > 0 {
		m.form.setErrors(errs)
		return m, nil
	}

	m.formOpen = false
	m.lastForm, m.hasLastForm = offering.FormFromParams(params), true
	return m, m.launch(tok.Symbol, params)
}

// selectToken makes the token at idx current, dropping its cached offerings.
func (m *Model) selectToken(idx int) {
	s := m.store.Dispatch(uistate.TokenSelected{TokenIndex: idx})
	m.hasLastForm = false
	if tok, ok := selectedToken(s); ok && m.opts.OnSelect != nil {
		m.opts.OnSelect(tok.Symbol)
	}
	m.syncTokens()
}

// maybeLoadOfferings loads the offerings of the selected token unless they are
// cached, something is in flight, or an error awaits dismissal.
func (m Model) maybeLoadOfferings() tea.Cmd {
	s := m.store.State()
	if s.Loading || s.HasError() || s.IsSet(uistate.KeyOfferings) {
		return nil
	}
	tok, ok := selectedToken(s)
	if !ok {
		return nil
	}
	return m.loadOfferings(tok.Symbol)
}

// initialIndex prefers the remembered symbol and falls back to the first token.
func (m Model) initialIndex(s uistate.State) (int, bool) {
	tokens := uistate.FieldOr[[]sdk.Token](s, uistate.KeyTokens, nil)
	if len(tokens) == 0 {
		return 0, false
	}
	for i, t := range tokens {
		if t.Symbol == m.opts.InitialSymbol {
			return i, true
		}
	}
	return 0, true
}

// syncTokens rebuilds the list items from the store.
func (m *Model) syncTokens() {
	s := m.store.State()
	tokens := uistate.FieldOr[[]sdk.Token](s, uistate.KeyTokens, nil)
	active := uistate.FieldOr(s, uistate.KeyTokenIndex, -1)
	items := make([]list.Item, 0, len(tokens))
	for i, t := range tokens {
		items = append(items, tokenItem{Index: i, Token: t, Active: i == active})
	}
	_ = m.tokensList.SetItems(items)
}

// selectedToken returns the token at the stored index, if it is in range.
func selectedToken(s uistate.State) (sdk.Token, bool) {
	tokens := uistate.FieldOr[[]sdk.Token](s, uistate.KeyTokens, nil)
	idx, ok := uistate.Field[int](s, uistate.KeyTokenIndex)
	if !ok || idx < 0 || idx >= len(tokens) {
		return sdk.Token{}, false
	}
	return tokens[idx], true
}
