package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ensigniasec/tiered-sto/internal/offering"
	"github.com/ensigniasec/tiered-sto/internal/sdk"
	"github.com/ensigniasec/tiered-sto/internal/uistate"
)

// Options configures the console.
type Options struct {
	Client     sdk.Client
	Store      *uistate.Store
	Wallet     string
	NetworkID  int
	ClientUUID string
	Offline    bool
	Defaults   offering.Defaults
	// Tiers is the number of empty tier rows of a fresh launch form.
	Tiers int
	// InitialSymbol is selected once tokens are loaded, when owned.
	InitialSymbol string

	// OnSelect and OnLaunch let the caller persist choices; either may be nil.
	OnSelect func(symbol string)
	OnLaunch func(r sdk.LaunchReceipt)
}

// Model is the root Bubble Tea model. All screen data lives in the store; the
// model only keeps widget state.
type Model struct {
	ctx   context.Context
	opts  Options
	store *uistate.Store

	tokensList list.Model
	spinner    spinner.Model

	form     launchForm
	formOpen bool
	// lastForm reopens a launch that failed.
	lastForm    offering.Form
	hasLastForm bool

	width       int
	height      int
	helpVisible bool
	quitting    bool

	keys keyMap
}

// NewModel constructs a Model in the idle state.
func NewModel(ctx context.Context, opts Options) Model {
	if opts.Store == nil {
		opts.Store = uistate.NewStore(nil)
	}
	if opts.Tiers < 1 {
		opts.Tiers = 1
	}

	lst := list.New([]list.Item{}, tokensDelegate{}, sidebarWidth, listMinHeight)
	lst.Title = "Tokens"
	lst.SetShowStatusBar(false)
	lst.SetFilteringEnabled(true)
	lst.SetShowHelp(false)
	lst.SetShowPagination(true)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:        ctx,
		opts:       opts,
		store:      opts.Store,
		tokensList: lst,
		spinner:    sp,
		keys:       newKeyMap(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadTokens())
}

// loadTokens starts fetching the tokens of the connected wallet.
func (m Model) loadTokens() tea.Cmd {
	client, wallet := m.opts.Client, m.opts.Wallet
	settle := uistate.Begin(m.store, func(ctx context.Context) (uistate.Payload, error) {
		tokens, err := client.Tokens(ctx, wallet)
		if err != nil {
			return nil, err
		}
		return uistate.Payload{uistate.KeyTokens: tokens}, nil
	}, "Loading tokens")
	return m.settle(opTokens, settle)
}

// loadOfferings starts fetching the Tiered offerings of symbol.
func (m Model) loadOfferings(symbol string) tea.Cmd {
	client := m.opts.Client
	settle := uistate.Begin(m.store, func(ctx context.Context) (uistate.Payload, error) {
		all, err := client.Offerings(ctx, symbol)
		if err != nil {
			return nil, err
		}
		return uistate.Payload{uistate.KeyOfferings: offering.FilterTiered(all)}, nil
	}, "Loading offerings for "+symbol)
	return m.settle(opOfferings, settle)
}

// launch starts a Tiered offering launch for symbol.
func (m Model) launch(symbol string, params offering.LaunchParams) tea.Cmd {
	client := m.opts.Client
	settle := uistate.Begin(m.store, func(ctx context.Context) (uistate.Payload, error) {
		receipt, err := client.LaunchTieredSTO(ctx, symbol, params)
		if err != nil {
			return nil, err
		}
		return uistate.Payload{uistate.KeyLastLaunch: receipt}, nil
	}, "Launching Tiered STO for "+symbol)
	return m.settle(opLaunch, settle)
}

// settle runs a started operation off the event loop and reports its terminal action.
func (m Model) settle(op opKind, s uistate.Settle) tea.Cmd {
	parent := m.ctx
	session := sdk.Session{WalletAddress: m.opts.Wallet, NetworkID: m.opts.NetworkID, ClientUUID: m.opts.ClientUUID}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(sdk.WithSession(parent, session), operationTimeout)
		defer cancel()
		return actionMsg{Op: op, Action: s(ctx)}
	}
}
