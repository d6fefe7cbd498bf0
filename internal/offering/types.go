// Package offering models Tiered security token offerings: their on-chain state,
// the parameters used to launch one, and the launch form that produces them.
package offering

import (
	"fmt"
	"math/big"
	"strings"
	"time"
)

// TypeTiered is the StoType of offerings handled by this tool.
const TypeTiered = "Tiered"

// Currency is a fund-raise currency as encoded by the offering contracts.
type Currency int

const (
	ETH Currency = iota
	POLY
	StableCoin
)

//nolint:gochecknoglobals // display names indexed by Currency.
var currencyNames = []string{"ETH", "POLY", "DAI"}

func (c Currency) String() string {
	if c < 0 || int(c) >= len(currencyNames) {
		return fmt.Sprintf("Currency(%d)", int(c))
	}
	return currencyNames[c]
}

// Tier is one pricing tier of an offering. Amounts are decimal token quantities.
type Tier struct {
	TokensOnSale         *big.Float `json:"tokensOnSale"`
	TokensSold           *big.Float `json:"tokensSold"`
	Price                *big.Float `json:"price"`
	TokensWithDiscount   *big.Float `json:"tokensWithDiscount"`
	TokensSoldAtDiscount *big.Float `json:"tokensSoldAtDiscount"`
	DiscountedPrice      *big.Float `json:"discountedPrice"`
}

// Offering is the on-chain state of a security token offering.
type Offering struct {
	Address                      string     `json:"address"`
	SecurityTokenSymbol          string     `json:"securityTokenSymbol"`
	SecurityTokenID              string     `json:"securityTokenId,omitempty"`
	StoType                      string     `json:"stoType"`
	StartDate                    time.Time  `json:"startDate"`
	EndDate                      time.Time  `json:"endDate"`
	RaisedFundsWallet            string     `json:"raisedFundsWallet"`
	UnsoldTokensWallet           string     `json:"unsoldTokensWallet"`
	RaisedAmount                 *big.Float `json:"raisedAmount"`
	SoldTokensAmount             *big.Float `json:"soldTokensAmount"`
	InvestorCount                int64      `json:"investorCount"`
	FundraiseCurrencies          []Currency `json:"fundraiseCurrencies"`
	IsPaused                     bool       `json:"isPaused"`
	CapReached                   bool       `json:"capReached"`
	IsFinalized                  bool       `json:"isFinalized"`
	PreIssueAllowed              bool       `json:"preIssueAllowed"`
	BeneficialInvestmentsAllowed bool       `json:"beneficialInvestmentsAllowed"`
	CurrentTier                  int        `json:"currentTier"`
	Tiers                        []Tier     `json:"tiers"`
}

// FilterTiered keeps only Tiered offerings. The result is never nil.
func FilterTiered(all []Offering) []Offering {
	out := make([]Offering, 0, len(all))
	for _, o := range all {
		if strings.EqualFold(o.StoType, TypeTiered) {
			out = append(out, o)
		}
	}
	return out
}

// Status summarises the lifecycle of o at now.
func (o Offering) Status(now time.Time) string {
	switch {
	case o.IsFinalized:
		return "finalized"
	case o.IsPaused:
		return "paused"
	case o.CapReached:
		return "cap reached"
	case now.Before(o.StartDate):
		return "scheduled"
	case now.After(o.EndDate):
		return "ended"
	default:
		return "live"
	}
}
