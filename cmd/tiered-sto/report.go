package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ensigniasec/tiered-sto/internal/offering"
	"github.com/ensigniasec/tiered-sto/internal/sdk"
	"github.com/ensigniasec/tiered-sto/internal/validate"
)

const reportWidth = 80

// offeringReport is the JSON shape of one offering: its labelled summary plus tiers.
type offeringReport struct {
	Status string           `json:"status"`
	Fields []offering.Field `json:"fields"`
	Tiers  [][]string       `json:"tiers"`
}

func printJSON(w io.Writer, v any) {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintln(w, err)
		return
	}
	fmt.Fprintln(w, string(output))
}

func printRule(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("=", reportWidth))
}

// printTokens lists tokens, one per line.
func printTokens(w io.Writer, tokens []sdk.Token, jsonOutput bool) {
	if jsonOutput {
		printJSON(w, tokens)
		return
	}
	if len(tokens) == 0 {
		fmt.Fprintln(w, "This wallet owns no security tokens.")
		return
	}
	for i, t := range tokens {
		fmt.Fprintf(w, "%2d. %-8s %-32s %s\n", i+1, t.Symbol, t.Name, validate.ChecksumAddress(t.Address))
	}
}

// printOfferings prints the Tiered offerings of each symbol in order.
func printOfferings(w io.Writer, symbols []string, all map[string][]offering.Offering, now time.Time, jsonOutput bool) {
	if jsonOutput {
		out := make(map[string][]offeringReport, len(all))
		for _, symbol := range symbols {
			reports := make([]offeringReport, 0, len(all[symbol]))
			for _, o := range all[symbol] {
				reports = append(reports, offeringReport{
					Status: o.Status(now),
					Fields: offering.Describe(o),
					Tiers:  offering.TierRows(o),
				})
			}
			out[symbol] = reports
		}
		printJSON(w, out)
		return
	}

	for _, symbol := range symbols {
		printRule(w)
		fmt.Fprintf(w, "%s TIERED STOs\n", symbol)
		printRule(w)
		stos := all[symbol]
		if len(stos) == 0 {
			fmt.Fprintf(w, "No Tiered STOs for %s yet.\n\n", symbol)
			continue
		}
		for i, o := range stos {
			fmt.Fprintf(w, "\n[%d] %s\n", i+1, strings.ToUpper(o.Status(now)))
			for _, f := range offering.Describe(o) {
				fmt.Fprintf(w, "    %-32s %s\n", f.Label+":", f.Value)
			}
			if len(o.Tiers) > 0 {
				fmt.Fprintln(w)
				printTierTable(w, o)
			}
		}
		fmt.Fprintln(w)
	}
}

func printTierTable(w io.Writer, o offering.Offering) {
	cols := offering.TierColumns()
	var b strings.Builder
	b.WriteString("    ")
	for _, c := range cols {
		fmt.Fprintf(&b, "%-*s", c.Width, c.Title)
	}
	fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	for _, row := range offering.TierRows(o) {
		b.Reset()
		b.WriteString("    ")
		for i, cell := range row {
			fmt.Fprintf(&b, "%-*s", cols[i].Width, cell)
		}
		fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	}
}

// printFieldErrors reports every invalid form field on its own line.
func printFieldErrors(w io.Writer, err error) {
	var fe offering.FieldErrors
	if !errors.As(err, &fe) {
		fmt.Fprintln(w, err)
		return
	}
	for _, e := range fe {
		fmt.Fprintf(w, "  ✗ %s: %s\n", e.Field, e.Message)
	}
}

// printParams shows the parameters a launch would send.
func printParams(w io.Writer, symbol string, p offering.LaunchParams, jsonOutput bool) {
	if jsonOutput {
		printJSON(w, p)
		return
	}
	fmt.Fprintf(w, "Launch form for %s is valid.\n", symbol)
	fmt.Fprintf(w, "    %-32s %s\n", "Start Date:", offering.FormatDate(p.StartDate))
	fmt.Fprintf(w, "    %-32s %s\n", "End Date:", offering.FormatDate(p.EndDate))
	fmt.Fprintf(w, "    %-32s %s\n", "Fund-raise Currencies:", offering.FormatCurrencies(p.Currencies))
	if p.CustomCurrency != nil {
		fmt.Fprintf(w, "    %-32s %s\n", "Denomination:", p.CustomCurrency.CurrencySymbol)
	}
	fmt.Fprintf(w, "    %-32s %s\n", "Minimum Investment:", offering.FormatAmount(p.MinimumInvestment))
	fmt.Fprintf(w, "    %-32s %s\n", "Non-accredited Limit:", offering.FormatAmount(p.NonAccreditedInvestmentLimit))
	fmt.Fprintf(w, "    %-32s %s\n", "Raised Funds Wallet:", offering.FormatAddress(p.RaisedFundsWallet))
	fmt.Fprintf(w, "    %-32s %s\n", "Unsold Tokens Wallet:", offering.FormatAddress(p.UnsoldTokensWallet))
	fmt.Fprintf(w, "    %-32s %s\n", "Pre-issuance Allowed:", offering.FormatBool(p.AllowPreIssuance))
	for i, t := range p.Tiers {
		fmt.Fprintf(w, "    Tier %d: %s tokens at %s (%s discounted at %s)\n", i+1,
			offering.FormatAmount(t.TokensOnSale), offering.FormatAmount(t.Price),
			offering.FormatAmount(t.TokensWithDiscount), offering.FormatAmount(t.DiscountedPrice))
	}
}

func printReceipt(w io.Writer, r sdk.LaunchReceipt, jsonOutput bool) {
	if jsonOutput {
		printJSON(w, r)
		return
	}
	fmt.Fprintf(w, "Launched Tiered STO for %s at %s\n", r.Symbol, validate.ChecksumAddress(r.Address))
	if r.TxHash != "" {
		fmt.Fprintf(w, "Transaction: %s\n", r.TxHash)
	}
}
