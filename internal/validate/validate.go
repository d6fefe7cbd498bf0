package validate

// This package adds struct and field validation as a thin wrapper around the go-playground/validator package.
//
// e.g. internal/offering/params.go
//   type LaunchParams struct {
// 		 ...
//       RaisedFundsWallet  string `json:"raisedFundsWallet" validate:"required,eth_address"`
//       UnsoldTokensWallet string `json:"unsoldTokensWallet" validate:"required,eth_address"`
//   }
//
// Custom tags registered here:
//   eth_address      hex encoded 20 byte address, with or without 0x prefix
//   currency_symbol  three letter currency symbol (USD, CAD, EUR, ...)

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
)

//nolint:gochecknoglobals // Shared validator singleton.
var (
	validatorOnce sync.Once
	validatorInst *validator.Validate

	currencySymbolRe = regexp.MustCompile(`^[a-zA-Z]{3}$`)
)

// get returns a process-wide singleton of the validator.
func get() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		// Report json/yaml names in errors instead of Go field names.
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "yaml"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0] //nolint:mnd // name part only
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return f.Name
		})
		_ = v.RegisterValidation("eth_address", func(fl validator.FieldLevel) bool {
			return IsAddress(fl.Field().String())
		})
		_ = v.RegisterValidation("currency_symbol", func(fl validator.FieldLevel) bool {
			return currencySymbolRe.MatchString(fl.Field().String())
		})
		validatorInst = v
	})
	return validatorInst
}

// Struct validates a struct using the shared validator instance.
func Struct(v any) error {
	return get().Struct(v)
}

// Var validates a single variable against the provided tag constraints.
func Var(field any, tag string) error {
	return get().Var(field, tag)
}

// IsAddress reports whether s is a hex encoded account address.
func IsAddress(s string) bool {
	return common.IsHexAddress(s)
}

// ChecksumAddress returns the EIP-55 form of s, or s unchanged when it is not an address.
func ChecksumAddress(s string) string {
	if !IsAddress(s) {
		return s
	}
	return common.HexToAddress(s).Hex()
}
