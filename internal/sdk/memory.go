package sdk

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ensigniasec/tiered-sto/internal/offering"
)

// Memory is an in-process Client used for --offline demos and tests.
type Memory struct {
	mu        sync.Mutex
	tokens    map[string][]Token // lower-cased wallet -> tokens
	offerings map[string][]offering.Offering

	// Fail, when set, is returned by every call; tests use it to inject failures.
	Fail error
}

var _ Client = (*Memory)(nil)

// NewMemory returns an empty in-memory client.
func NewMemory() *Memory {
	return &Memory{
		tokens:    make(map[string][]Token),
		offerings: make(map[string][]offering.Offering),
	}
}

// NewDemo returns an in-memory client where wallet owns two tokens, one with a
// running Tiered offering.
func NewDemo(wallet string) *Memory {
	m := NewMemory()
	m.AddToken(wallet, Token{Symbol: "ZXCV", Name: "ZXCV Security Token", Address: "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"})
	m.AddToken(wallet, Token{Symbol: "ACME", Name: "Acme Preferred", Address: "0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359"})

	start := time.Date(2020, 1, 10, 8, 30, 0, 0, time.UTC)
	m.AddOffering("ZXCV", offering.Offering{
		Address:             "0xdbf03b407c01e7cd3cbea99509d93f8dddc8c6fb",
		SecurityTokenSymbol: "ZXCV",
		StoType:             offering.TypeTiered,
		StartDate:           start,
		EndDate:             start.Add(14 * 24 * time.Hour),
		RaisedFundsWallet:   wallet,
		UnsoldTokensWallet:  wallet,
		RaisedAmount:        big.NewFloat(1250),
		SoldTokensAmount:    big.NewFloat(12.5),
		InvestorCount:       3,
		FundraiseCurrencies: []offering.Currency{offering.ETH, offering.POLY},
		CurrentTier:         0,
		Tiers: []offering.Tier{{
			TokensOnSale:         big.NewFloat(100),
			TokensSold:           big.NewFloat(12.5),
			Price:                big.NewFloat(100),
			TokensWithDiscount:   big.NewFloat(0),
			TokensSoldAtDiscount: big.NewFloat(0),
			DiscountedPrice:      big.NewFloat(0),
		}},
	})
	m.AddOffering("ZXCV", offering.Offering{
		Address:             "0xd1220a0cf47c7b9be7a2e6ba89f429762e7b9adb",
		SecurityTokenSymbol: "ZXCV",
		StoType:             "Simple",
		StartDate:           start,
		EndDate:             start.Add(7 * 24 * time.Hour),
	})
	return m
}

// AddToken gives wallet a token.
func (m *Memory) AddToken(wallet string, t Token) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(wallet)
	m.tokens[key] = append(m.tokens[key], t)
}

// AddOffering attaches an offering to a token symbol.
func (m *Memory) AddOffering(symbol string, o offering.Offering) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offerings[symbol] = append(m.offerings[symbol], o)
}

// Tokens implements Client.
func (m *Memory) Tokens(ctx context.Context, wallet string) ([]Token, error) {
	if err := m.check(ctx); err != nil {
		return nil, err
	}
	if wallet == "" {
		return nil, ErrNoWallet
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := slices.Clone(m.tokens[strings.ToLower(wallet)])
	if out == nil {
		out = []Token{}
	}
	return out, nil
}

// Offerings implements Client.
func (m *Memory) Offerings(ctx context.Context, symbol string) ([]offering.Offering, error) {
	if err := m.check(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.knownSymbolLocked(symbol) {
		return nil, fmt.Errorf("%w: token %s", ErrNotFound, symbol)
	}
	out := slices.Clone(m.offerings[symbol])
	if out == nil {
		out = []offering.Offering{}
	}
	return out, nil
}

// LaunchTieredSTO implements Client by recording a new Tiered offering.
func (m *Memory) LaunchTieredSTO(ctx context.Context, symbol string, params offering.LaunchParams) (LaunchReceipt, error) {
	if err := m.check(ctx); err != nil {
		return LaunchReceipt{}, err
	}
	if err := params.Validate(); err != nil {
		return LaunchReceipt{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.knownSymbolLocked(symbol) {
		return LaunchReceipt{}, fmt.Errorf("%w: token %s", ErrNotFound, symbol)
	}

	addr, err := randomAddress()
	if err != nil {
		return LaunchReceipt{}, err
	}
	tiers := make([]offering.Tier, 0, len(params.Tiers))
	for _, t := range params.Tiers {
		tiers = append(tiers, offering.Tier{
			TokensOnSale:         t.TokensOnSale,
			TokensSold:           new(big.Float),
			Price:                t.Price,
			TokensWithDiscount:   t.TokensWithDiscount,
			TokensSoldAtDiscount: new(big.Float),
			DiscountedPrice:      t.DiscountedPrice,
		})
	}
	m.offerings[symbol] = append(m.offerings[symbol], offering.Offering{
		Address:             addr,
		SecurityTokenSymbol: symbol,
		StoType:             offering.TypeTiered,
		StartDate:           params.StartDate,
		EndDate:             params.EndDate,
		RaisedFundsWallet:   params.RaisedFundsWallet,
		UnsoldTokensWallet:  params.UnsoldTokensWallet,
		RaisedAmount:        new(big.Float),
		SoldTokensAmount:    new(big.Float),
		FundraiseCurrencies: slices.Clone(params.Currencies),
		PreIssueAllowed:     params.AllowPreIssuance,
		Tiers:               tiers,
	})
	return LaunchReceipt{Symbol: symbol, Address: addr}, nil
}

func (m *Memory) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.Fail
}

func (m *Memory) knownSymbolLocked(symbol string) bool {
	for _, ts := range m.tokens {
		for _, t := range ts {
			if t.Symbol == symbol {
				return true
			}
		}
	}
	_, ok := m.offerings[symbol]
	return ok
}

func randomAddress() (string, error) {
	var b [common.AddressLength]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return common.BytesToAddress(b[:]).Hex(), nil
}
