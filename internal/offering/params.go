package offering

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ensigniasec/tiered-sto/internal/validate"
)

// MaxTiers is the number of tiers a launch may define.
const MaxTiers = 5

// TierParams prices one tier of a new offering.
type TierParams struct {
	// TokensOnSale is the amount of tokens sold on this tier.
	TokensOnSale *big.Float `json:"tokensOnSale" validate:"required"`
	// Price of each token on this tier.
	Price *big.Float `json:"price" validate:"required"`
	// TokensWithDiscount is sold at DiscountedPrice when paid in POLY; at most TokensOnSale.
	TokensWithDiscount *big.Float `json:"tokensWithDiscount" validate:"required"`
	DiscountedPrice    *big.Float `json:"discountedPrice" validate:"required"`
}

// CustomCurrency pegs the offering to a currency other than USD.
type CustomCurrency struct {
	CurrencySymbol    string `json:"currencySymbol" validate:"required,currency_symbol"`
	EthOracleAddress  string `json:"ethOracleAddress,omitempty" validate:"omitempty,eth_address"`
	PolyOracleAddress string `json:"polyOracleAddress,omitempty" validate:"omitempty,eth_address"`
}

// LaunchParams is the request sent to the SDK to launch a Tiered offering.
type LaunchParams struct {
	StartDate                    time.Time       `json:"startDate" validate:"required"`
	EndDate                      time.Time       `json:"endDate" validate:"required,gtfield=StartDate"`
	Tiers                        []TierParams    `json:"tiers" validate:"required,min=1,max=5,dive"`
	NonAccreditedInvestmentLimit *big.Float      `json:"nonAccreditedInvestmentLimit" validate:"required"`
	MinimumInvestment            *big.Float      `json:"minimumInvestment" validate:"required"`
	Currencies                   []Currency      `json:"currencies" validate:"required,min=1,dive,gte=0,lte=2"`
	RaisedFundsWallet            string          `json:"raisedFundsWallet" validate:"required,eth_address"`
	UnsoldTokensWallet           string          `json:"unsoldTokensWallet" validate:"required,eth_address"`
	StableCoinAddresses          []string        `json:"stableCoinAddresses" validate:"dive,eth_address"`
	CustomCurrency               *CustomCurrency `json:"customCurrency,omitempty"`
	AllowPreIssuance             bool            `json:"allowPreIssuance"`
}

// FieldError is a single invalid input.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors aggregates every invalid input of a form or request.
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return strings.Join(parts, "; ")
}

// Validate checks p for structural and cross-field consistency.
func (p LaunchParams) Validate() error {
	var errs FieldErrors
	if err := validate.Struct(p); err != nil {
		errs = append(errs, fromValidator(err)...)
	}
	for i, t := range p.Tiers {
		for _, amt := range []struct {
			name string
			v    *big.Float
		}{
			{"tokensOnSale", t.TokensOnSale},
			{"price", t.Price},
			{"tokensWithDiscount", t.TokensWithDiscount},
			{"discountedPrice", t.DiscountedPrice},
		} {
			if amt.v != nil && amt.v.Sign() < 0 {
				errs = append(errs, FieldError{Field: fmt.Sprintf("tiers[%d].%s", i, amt.name), Message: "must not be negative"})
			}
		}
		if t.TokensOnSale != nil && t.TokensWithDiscount != nil && t.TokensWithDiscount.Cmp(t.TokensOnSale) > 0 {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("tiers[%d].tokensWithDiscount", i),
				Message: "must not exceed tokens on sale",
			})
		}
	}
	if p.MinimumInvestment != nil && p.NonAccreditedInvestmentLimit != nil &&
		p.MinimumInvestment.Cmp(p.NonAccreditedInvestmentLimit) > 0 {
		errs = append(errs, FieldError{Field: "minimumInvestment", Message: "must not exceed the non-accredited investment limit"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// fromValidator converts validator errors into FieldErrors.
func fromValidator(err error) FieldErrors {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{{Field: "request", Message: err.Error()}}
	}
	out := make(FieldErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fieldPath(fe.Namespace()), Message: describeTag(fe)})
	}
	return out
}

// fieldPath strips the top-level struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "eth_address":
		return "Address is invalid"
	case "currency_symbol":
		return "Please enter a valid three character currency symbol."
	case "gtfield":
		return "must be after " + fe.Param()
	case "min":
		return "needs at least " + fe.Param()
	case "max":
		return "allows at most " + fe.Param()
	case "gte", "lte":
		return "is not a supported value"
	default:
		return "failed " + fe.Tag()
	}
}
