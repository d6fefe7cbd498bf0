package offering

import (
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ensigniasec/tiered-sto/internal/validate"
)

// DateLayout is used both for display and for parsing form dates.
const DateLayout = "2006-01-02 15:04:05"

// Field is a labelled, formatted value of an offering.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Column describes one column of the tier table.
type Column struct {
	Title string
	Width int
}

//nolint:gochecknoglobals // fixed table layout.
var tierColumns = []Column{
	{Title: "Tokens on Sale", Width: 16},
	{Title: "Tokens Sold", Width: 14},
	{Title: "Price", Width: 10},
	{Title: "Tokens on Discount", Width: 20},
	{Title: "Tokens Sold on Discount", Width: 24},
	{Title: "Discounted Price", Width: 18},
}

// TierColumns returns the tier table columns in display order.
func TierColumns() []Column {
	return append([]Column(nil), tierColumns...)
}

// TierRows formats every tier of o as a row matching TierColumns.
func TierRows(o Offering) [][]string {
	rows := make([][]string, 0, len(o.Tiers))
	for _, t := range o.Tiers {
		rows = append(rows, []string{
			FormatAmount(t.TokensOnSale),
			FormatAmount(t.TokensSold),
			FormatAmount(t.Price),
			FormatAmount(t.TokensWithDiscount),
			FormatAmount(t.TokensSoldAtDiscount),
			FormatAmount(t.DiscountedPrice),
		})
	}
	return rows
}

// Describe returns the labelled summary of o in display order.
func Describe(o Offering) []Field {
	return []Field{
		{Label: "Address", Value: FormatAddress(o.Address)},
		{Label: "Start Date", Value: FormatDate(o.StartDate)},
		{Label: "End Date", Value: FormatDate(o.EndDate)},
		{Label: "Raised Funds Wallet", Value: FormatAddress(o.RaisedFundsWallet)},
		{Label: "Unsold Tokens Wallet", Value: FormatAddress(o.UnsoldTokensWallet)},
		{Label: "Raised Amount", Value: FormatAmount(o.RaisedAmount)},
		{Label: "Sold Tokens Amount", Value: FormatAmount(o.SoldTokensAmount)},
		{Label: "Investor Count", Value: humanize.Comma(o.InvestorCount)},
		{Label: "Fund-raise Currencies", Value: FormatCurrencies(o.FundraiseCurrencies)},
		{Label: "Is Paused", Value: FormatBool(o.IsPaused)},
		{Label: "Cap Reached", Value: FormatBool(o.CapReached)},
		{Label: "Is Finalized", Value: FormatBool(o.IsFinalized)},
		{Label: "Pre-issuance Allowed", Value: FormatBool(o.PreIssueAllowed)},
		{Label: "Beneficial Investments Allowed", Value: FormatBool(o.BeneficialInvestmentsAllowed)},
		{Label: "Current Tier", Value: strconv.Itoa(o.CurrentTier)},
	}
}

// FormatAmount renders a decimal amount with thousands separators; nil renders as 0.
func FormatAmount(v *big.Float) string {
	if v == nil {
		return "0"
	}
	// BigCommaf takes the absolute value in place.
	return humanize.BigCommaf(new(big.Float).Copy(v))
}

// FormatDate renders t in local time, or "-" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(DateLayout)
}

// FormatAddress renders an EIP-55 checksummed address.
func FormatAddress(addr string) string {
	return validate.ChecksumAddress(addr)
}

// FormatBool renders True or False.
func FormatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// FormatCurrencies joins currency names with a comma.
func FormatCurrencies(cs []Currency) string {
	names := make([]string, 0, len(cs))
	for _, c := range cs {
		names = append(names, c.String())
	}
	return strings.Join(names, ", ")
}
