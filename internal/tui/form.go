package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ensigniasec/tiered-sto/internal/offering"
)

// Validation paths that are shown next to a differently named input.
//
//nolint:gochecknoglobals // fixed mapping.
var fieldAliases = map[string]string{
	"customCurrency.currencySymbol": "denomination",
	"stableCoinAddresses[0]":        "stablecoinAddress",
	"currencies":                    "currency",
}

const (
	keyPreIssuance = "allowPreIssuance"
	tierKeyFormat  = "tiers[%d].%s"
)

type formField struct {
	key   string
	label string
	input textinput.Model
}

// launchForm edits an offering.Form as a column of text inputs.
type launchForm struct {
	fields []formField
	focus  int
	errs   map[string]string
	// other holds errors that belong to no single input.
	other []string
}

func newLaunchForm(f offering.Form) launchForm {
	var lf launchForm
	add := func(key, label, value, placeholder string) {
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = placeholder
		in.SetValue(value)
		lf.fields = append(lf.fields, formField{key: key, label: label, input: in})
	}

	choices := offering.FundraiseChoices()
	hints := make([]string, 0, len(choices))
	for i, c := range choices {
		hints = append(hints, fmt.Sprintf("%d=%s", i, c))
	}

	add("startDate", "Start Date", f.StartDate, offering.DateLayout)
	add("endDate", "End Date", f.EndDate, offering.DateLayout)
	add("nonAccreditedInvestmentLimit", "Non-accredited Investment Limit", f.NonAccreditedInvestmentLimit, "amount")
	add("minimumInvestment", "Minimum Investment", f.MinimumInvestment, "amount")
	add("currency", "Fund-raise Currency", f.Currency, strings.Join(hints, " "))
	add("denomination", "Denomination (non-USD only)", f.Denomination, "EUR")
	add("stablecoinAddress", "Stablecoin Address (non-USD only)", f.StablecoinAddress, "0x…")
	add("raisedFundsWallet", "Raised Funds Wallet", f.RaisedFundsWallet, "0x…")
	add("unsoldTokensWallet", "Unsold Tokens Wallet", f.UnsoldTokensWallet, "0x…")
	add(keyPreIssuance, "Allow Pre-issuance", strconv.FormatBool(f.AllowPreIssuance), "true/false")
	for i, t := range f.Tiers {
		n := i + 1
		add(fmt.Sprintf(tierKeyFormat, i, "tokensOnSale"), fmt.Sprintf("Tier %d Tokens on Sale", n), t.TokensOnSale, "amount")
		add(fmt.Sprintf(tierKeyFormat, i, "price"), fmt.Sprintf("Tier %d Price", n), t.Price, "amount")
		add(fmt.Sprintf(tierKeyFormat, i, "tokensWithDiscount"), fmt.Sprintf("Tier %d Tokens with Discount", n), t.TokensWithDiscount, "0")
		add(fmt.Sprintf(tierKeyFormat, i, "discountedPrice"), fmt.Sprintf("Tier %d Discounted Price", n), t.DiscountedPrice, "0")
	}
	_ = lf.setFocus(0)
	return lf
}

// value reads the inputs back into a form. Inputs that cannot be represented in
// offering.Form are reported as errors.
func (lf launchForm) value() (offering.Form, offering.FieldErrors) {
	var (
		f    offering.Form
		errs offering.FieldErrors
	)
	get := func(key string) string {
		for _, fld := range lf.fields {
			if fld.key == key {
				return strings.TrimSpace(fld.input.Value())
			}
		}
		return ""
	}

	f.StartDate = get("startDate")
	f.EndDate = get("endDate")
	f.NonAccreditedInvestmentLimit = get("nonAccreditedInvestmentLimit")
	f.MinimumInvestment = get("minimumInvestment")
	f.Currency = get("currency")
	f.Denomination = get("denomination")
	f.StablecoinAddress = get("stablecoinAddress")
	f.RaisedFundsWallet = get("raisedFundsWallet")
	f.UnsoldTokensWallet = get("unsoldTokensWallet")
	if v := get(keyPreIssuance); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, offering.FieldError{Field: keyPreIssuance, Message: "must be true or false"})
		}
		f.AllowPreIssuance = b
	}
	for i := 0; i < lf.tierCount(); i++ {
		f.Tiers = append(f.Tiers, offering.TierForm{
			TokensOnSale:       get(fmt.Sprintf(tierKeyFormat, i, "tokensOnSale")),
			Price:              get(fmt.Sprintf(tierKeyFormat, i, "price")),
			TokensWithDiscount: get(fmt.Sprintf(tierKeyFormat, i, "tokensWithDiscount")),
			DiscountedPrice:    get(fmt.Sprintf(tierKeyFormat, i, "discountedPrice")),
		})
	}
	return f, errs
}

func (lf launchForm) tierCount() int {
	n := 0
	for _, fld := range lf.fields {
		if strings.HasPrefix(fld.key, "tiers[") && strings.HasSuffix(fld.key, ".tokensOnSale") {
			n++
		}
	}
	return n
}

// withTiers returns the form with delta tier rows added or removed, keeping
// between one and offering.MaxTiers rows.
func (lf launchForm) withTiers(delta int) launchForm {
	f, _ := lf.value()
	switch {
	case delta > 0 && len(f.Tiers) < offering.MaxTiers:
		f.Tiers = append(f.Tiers, offering.TierForm{})
	case delta < 0 && len(f.Tiers) > 1:
		f.Tiers = f.Tiers[:len(f.Tiers)-1]
	default:
		return lf
	}
	next := newLaunchForm(f)
	focus := lf.focus
	if focus >= len(next.fields) {
		focus = len(next.fields) - 1
	}
	_ = next.setFocus(focus)
	return next
}

func (lf *launchForm) setErrors(errs offering.FieldErrors) {
	lf.errs = make(map[string]string, len(errs))
	lf.other = nil
	known := make(map[string]bool, len(lf.fields))
	for _, fld := range lf.fields {
		known[fld.key] = true
	}
	for _, fe := range errs {
		k := fe.Field
		if alias, ok := fieldAliases[k]; ok {
			k = alias
		}
		if !known[k] {
			lf.other = append(lf.other, fe.Field+": "+fe.Message)
			continue
		}
		if _, dup := lf.errs[k]; !dup {
			lf.errs[k] = fe.Message
		}
	}
}

func (lf *launchForm) setFocus(i int) tea.Cmd {
	if len(lf.fields) == 0 {
		return nil
	}
	lf.fields[lf.focus].input.Blur()
	lf.focus = i
	return lf.fields[i].input.Focus()
}

func (lf *launchForm) move(delta int) tea.Cmd {
	n := len(lf.fields)
	if n == 0 {
		return nil
	}
	return lf.setFocus(((lf.focus+delta)%n + n) % n)
}

func (lf *launchForm) focusCmd() tea.Cmd {
	if len(lf.fields) == 0 {
		return nil
	}
	return lf.fields[lf.focus].input.Focus()
}

func (lf *launchForm) update(msg tea.Msg) tea.Cmd {
	if len(lf.fields) == 0 {
		return nil
	}
	var cmd tea.Cmd
	lf.fields[lf.focus].input, cmd = lf.fields[lf.focus].input.Update(msg)
	return cmd
}

// view renders at most rows inputs, scrolled to keep the focused one visible.
func (lf launchForm) view(rows int) string {
	if rows < formMinRows {
		rows = formMinRows
	}
	start := 0
	if lf.focus >= rows {
		start = lf.focus - rows + 1
	}
	end := min(start+rows, len(lf.fields))

	labelStyle := lipgloss.NewStyle().Width(formLabelWidth).Foreground(lipgloss.Color("241"))
	focusStyle := labelStyle.Foreground(lipgloss.Color("69")).Bold(true)
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	var b strings.Builder
	for i := start; i < end; i++ {
		fld := lf.fields[i]
		style := labelStyle
		if i == lf.focus {
			style = focusStyle
		}
		b.WriteString(style.Render(fld.label))
		b.WriteString(fld.input.View())
		if msg, ok := lf.errs[fld.key]; ok {
			b.WriteString("  ")
			b.WriteString(errStyle.Render(msg))
		}
		b.WriteString("\n")
	}
	for _, o := range lf.other {
		b.WriteString(errStyle.Render(o))
		b.WriteString("\n")
	}
	return b.String()
}
