package sdk

import (
	"context"

	"github.com/ensigniasec/tiered-sto/internal/offering"
)

// Token is a security token owned by the connected wallet.
type Token struct {
	Symbol  string `json:"symbol"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

// LaunchReceipt identifies a newly launched offering.
type LaunchReceipt struct {
	Symbol  string `json:"symbol"`
	Address string `json:"address"`
	TxHash  string `json:"txHash,omitempty"`
}

// Client is the offering SDK surface used by the console.
type Client interface {
	// Tokens lists the security tokens owned by wallet.
	Tokens(ctx context.Context, wallet string) ([]Token, error)
	// Offerings lists every offering of the token, of any type.
	Offerings(ctx context.Context, symbol string) ([]offering.Offering, error)
	// LaunchTieredSTO launches a Tiered offering and waits for the transaction queue to run.
	LaunchTieredSTO(ctx context.Context, symbol string, params offering.LaunchParams) (LaunchReceipt, error)
}

type tokensResponse struct {
	Tokens []Token `json:"tokens"`
}

type offeringsResponse struct {
	Offerings []offering.Offering `json:"offerings"`
}
