package offering

import (
	"errors"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ensigniasec/tiered-sto/internal/validate"
)

// Fund-raise choices offered by the launch form, by index.
const (
	ChoiceETH = iota
	ChoicePOLY
	ChoiceUSDStablecoin
	ChoiceNonUSDStablecoin
)

//nolint:gochecknoglobals // display names indexed by form choice.
var fundraiseChoices = []string{"ETH", "POLY", "USD Stablecoin", "Non-USD Stablecoin"}

// FundraiseChoices returns the currency options of the launch form.
func FundraiseChoices() []string {
	return append([]string(nil), fundraiseChoices...)
}

// TierForm is the raw text of one tier row.
type TierForm struct {
	TokensOnSale       string `yaml:"tokens_on_sale"`
	Price              string `yaml:"price"`
	TokensWithDiscount string `yaml:"tokens_with_discount"`
	DiscountedPrice    string `yaml:"discounted_price"`
}

// Form is the raw input of the launch form, as typed by a user or read from YAML.
type Form struct {
	StartDate                    string     `yaml:"start_date"`
	EndDate                      string     `yaml:"end_date"`
	NonAccreditedInvestmentLimit string     `yaml:"non_accredited_investment_limit"`
	MinimumInvestment            string     `yaml:"minimum_investment"`
	Currency                     string     `yaml:"currency"`
	Denomination                 string     `yaml:"denomination"`
	StablecoinAddress            string     `yaml:"stablecoin_address"`
	RaisedFundsWallet            string     `yaml:"raised_funds_wallet"`
	UnsoldTokensWallet           string     `yaml:"unsold_tokens_wallet"`
	AllowPreIssuance             bool       `yaml:"allow_pre_issuance"`
	Tiers                        []TierForm `yaml:"tiers"`
}

// Defaults supplies the values a form does not carry itself.
type Defaults struct {
	// USDStablecoins are used when raising in a USD stablecoin.
	USDStablecoins []string
}

// NewForm returns a form with both wallets set to wallet and tiers empty rows.
func NewForm(wallet string, tiers int) Form {
	if tiers < 1 {
		tiers = 1
	}
	if tiers > MaxTiers {
		tiers = MaxTiers
	}
	return Form{
		RaisedFundsWallet:  wallet,
		UnsoldTokensWallet: wallet,
		Tiers:              make([]TierForm, tiers),
	}
}

// LoadForm reads a YAML encoded form from path.
func LoadForm(path string) (Form, error) {
	var f Form
	data, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("read form: %w", err)
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("parse form %s: %w", path, err)
	}
	return f, nil
}

// IsNonUSD reports whether the form raises funds pegged to a non-USD stablecoin.
func (f Form) IsNonUSD() bool {
	choice, err := parseChoice(f.Currency)
	return err == nil && choice == ChoiceNonUSDStablecoin
}

// Build converts the form into launch parameters. All invalid fields are reported
// together as FieldErrors.
func (f Form) Build(d Defaults) (LaunchParams, error) {
	var (
		p    LaunchParams
		errs FieldErrors
	)
	fail := func(field, msg string) {
		errs = append(errs, FieldError{Field: field, Message: msg})
	}

	var err error
	if p.StartDate, err = parseDate(f.StartDate); err != nil {
		fail("startDate", err.Error())
	}
	if p.EndDate, err = parseDate(f.EndDate); err != nil {
		fail("endDate", err.Error())
	}
	if p.NonAccreditedInvestmentLimit, err = parseAmount(f.NonAccreditedInvestmentLimit, true); err != nil {
		fail("nonAccreditedInvestmentLimit", err.Error())
	}
	if p.MinimumInvestment, err = parseAmount(f.MinimumInvestment, true); err != nil {
		fail("minimumInvestment", err.Error())
	}

	choice, err := parseChoice(f.Currency)
	if err != nil {
		fail("currency", err.Error())
	}
	switch choice {
	case ChoiceNonUSDStablecoin:
		p.Currencies = []Currency{StableCoin}
		p.StableCoinAddresses = []string{strings.TrimSpace(f.StablecoinAddress)}
		p.CustomCurrency = &CustomCurrency{CurrencySymbol: strings.ToUpper(strings.TrimSpace(f.Denomination))}
		if f.StablecoinAddress == "" {
			fail("stablecoinAddress", "is required")
		}
	default:
		p.Currencies = []Currency{Currency(choice)}
		p.StableCoinAddresses = append([]string(nil), d.USDStablecoins...)
	}

	p.RaisedFundsWallet = strings.TrimSpace(f.RaisedFundsWallet)
	p.UnsoldTokensWallet = strings.TrimSpace(f.UnsoldTokensWallet)
	p.AllowPreIssuance = f.AllowPreIssuance

	if len(f.Tiers) > MaxTiers {
		fail("tiers", fmt.Sprintf("allows at most %d", MaxTiers))
	}
	for i, tf := range f.Tiers {
		var tp TierParams
		field := func(name string) string { return fmt.Sprintf("tiers[%d].%s", i, name) }
		if tp.TokensOnSale, err = parseAmount(tf.TokensOnSale, true); err != nil {
			fail(field("tokensOnSale"), err.Error())
		}
		if tp.Price, err = parseAmount(tf.Price, true); err != nil {
			fail(field("price"), err.Error())
		}
		if tp.TokensWithDiscount, err = parseAmount(tf.TokensWithDiscount, false); err != nil {
			fail(field("tokensWithDiscount"), err.Error())
		}
		if tp.DiscountedPrice, err = parseAmount(tf.DiscountedPrice, false); err != nil {
			fail(field("discountedPrice"), err.Error())
		}
		p.Tiers = append(p.Tiers, tp)
	}

	if len(errs) > 0 {
		return p, errs
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

func parseChoice(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("is required")
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < ChoiceETH || n > ChoiceNonUSDStablecoin {
			return 0, fmt.Errorf("unknown choice %d", n)
		}
		return n, nil
	}
	for i, name := range fundraiseChoices {
		if strings.EqualFold(name, s) {
			return i, nil
		}
	}
	if strings.EqualFold(s, "DAI") {
		return ChoiceUSDStablecoin, nil
	}
	return 0, fmt.Errorf("unknown currency %q", s)
}

//nolint:gochecknoglobals // accepted date layouts, most specific first.
var dateLayouts = []string{DateLayout, "2006-01-02 15:04", "2006-01-02"}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("is required")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("expected %s", DateLayout)
}

// parseAmount parses a decimal amount. Optional empty amounts are zero.
func parseAmount(s string, required bool) (*big.Float, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		if required {
			return nil, errors.New("is required")
		}
		return new(big.Float), nil
	}
	v, ok := new(big.Float).SetString(s)
	if !ok {
		return nil, fmt.Errorf("%q is not a number", s)
	}
	return v, nil
}

// FormFromParams renders launch parameters back into form text, e.g. to prefill a retry.
func FormFromParams(p LaunchParams) Form {
	f := Form{
		StartDate:                    FormatDate(p.StartDate),
		EndDate:                      FormatDate(p.EndDate),
		NonAccreditedInvestmentLimit: amountText(p.NonAccreditedInvestmentLimit),
		MinimumInvestment:            amountText(p.MinimumInvestment),
		RaisedFundsWallet:            p.RaisedFundsWallet,
		UnsoldTokensWallet:           p.UnsoldTokensWallet,
		AllowPreIssuance:             p.AllowPreIssuance,
	}
	switch {
	case p.CustomCurrency != nil:
		f.Currency = strconv.Itoa(ChoiceNonUSDStablecoin)
		f.Denomination = p.CustomCurrency.CurrencySymbol
		if len(p.StableCoinAddresses) > 0 {
			f.StablecoinAddress = validate.ChecksumAddress(p.StableCoinAddresses[0])
		}
	case len(p.Currencies) > 0:
		f.Currency = strconv.Itoa(int(p.Currencies[0]))
	}
	for _, t := range p.Tiers {
		f.Tiers = append(f.Tiers, TierForm{
			TokensOnSale:       amountText(t.TokensOnSale),
			Price:              amountText(t.Price),
			TokensWithDiscount: amountText(t.TokensWithDiscount),
			DiscountedPrice:    amountText(t.DiscountedPrice),
		})
	}
	return f
}

func amountText(v *big.Float) string {
	if v == nil {
		return ""
	}
	return v.Text('f', -1)
}
