package sdk

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ensigniasec/tiered-sto/internal/offering"
)

const testWallet = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

func newTestClient(t *testing.T, handler http.Handler) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	u.Path = "/api/v1"

	// Health probe is disabled for tests that don't expose a /health endpoint.
	c, err := NewHTTPClient(WithBaseURL(u.String()), withSkipHealthProbe())
	require.NoError(t, err)
	return c
}

func validParams() offering.LaunchParams {
	start := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	return offering.LaunchParams{
		StartDate: start,
		EndDate:   start.Add(24 * time.Hour),
		Tiers: []offering.TierParams{{
			TokensOnSale:       big.NewFloat(100),
			Price:              big.NewFloat(2),
			TokensWithDiscount: big.NewFloat(0),
			DiscountedPrice:    big.NewFloat(0),
		}},
		NonAccreditedInvestmentLimit: big.NewFloat(1000),
		MinimumInvestment:            big.NewFloat(10),
		Currencies:                   []offering.Currency{offering.ETH},
		RaisedFundsWallet:            testWallet,
		UnsoldTokensWallet:           testWallet,
	}
}

func TestHealthProbe_Healthy(t *testing.T) {
	var hits atomic.Int32
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/health" {
			hits.Add(1)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewHTTPClient(WithBaseURL(srv.URL + "/api/v1"))
	require.NoError(t, err)

	ok, err := c.checkHealth(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int32(1), hits.Load(), "probe result is cached")
}

func TestHealthProbe_UnhealthyForcesOffline(t *testing.T) {
	var apiHits atomic.Int32
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/health" {
			apiHits.Add(1)
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewHTTPClient(WithBaseURL(srv.URL + "/api/v1"))
	require.ErrorIs(t, err, ErrOffline)
	require.NotNil(t, c)

	_, err = c.Tokens(context.Background(), testWallet)
	require.ErrorIs(t, err, ErrOffline)
	assert.Equal(t, int32(0), apiHits.Load())
}

func TestHealthProbe_Parallel_Once(t *testing.T) {
	var hits atomic.Int32
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewHTTPClient(WithBaseURL(srv.URL + "/api/v1"))
	require.NoError(t, err)

	const goroutines = 25
	done := make(chan struct{}, goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			_, _ = c.checkHealth(context.Background())
			done <- struct{}{}
		}()
	}
	for i := 0; i < goroutines; i++ {
		<-done
	}
	assert.Equal(t, int32(1), hits.Load())
}

func TestSessionHeaders(t *testing.T) {
	var got http.Header
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(tokensResponse{})
	})
	c := newTestClient(t, h)
	c.defaultSession = Session{WalletAddress: "0xdefault", NetworkID: 42}

	_, err := c.Tokens(context.Background(), testWallet)
	require.NoError(t, err)
	assert.Equal(t, "0xdefault", got.Get("X-Wallet-Address"))
	assert.Equal(t, "42", got.Get("X-Network-Id"))
	assert.Empty(t, got.Get("X-Client-Uuid"))
	assert.Contains(t, got.Get("User-Agent"), "tiered-sto/")

	// Context session overrides the default.
	ctx := WithSession(context.Background(), Session{WalletAddress: testWallet, NetworkID: 1, ClientUUID: "abc"})
	_, err = c.Tokens(ctx, testWallet)
	require.NoError(t, err)
	assert.Equal(t, testWallet, got.Get("X-Wallet-Address"))
	assert.Equal(t, "1", got.Get("X-Network-Id"))
	assert.Equal(t, "abc", got.Get("X-Client-Uuid"))
}

func TestTokens_200(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/wallets/"+testWallet+"/tokens", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(tokensResponse{Tokens: []Token{{Symbol: "ZXCV", Name: "Z"}}})
	})
	c := newTestClient(t, h)

	tokens, err := c.Tokens(context.Background(), testWallet)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "ZXCV", tokens[0].Symbol)
}

func TestTokens_EmptyIsNotNil(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"tokens":null}`))
	})
	c := newTestClient(t, h)

	tokens, err := c.Tokens(context.Background(), testWallet)
	require.NoError(t, err)
	assert.NotNil(t, tokens)
	assert.Empty(t, tokens)
}

func TestTokens_NoWallet(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler())
	_, err := c.Tokens(context.Background(), "")
	require.ErrorIs(t, err, ErrNoWallet)
}

func TestOfferings_DecodesAmounts(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/tokens/ZXCV/offerings", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"offerings":[{"address":"0x1","stoType":"Tiered","raisedAmount":"1234.5","tiers":[{"price":"0.25"}]},{"address":"0x2","stoType":"Capped"}]}`))
	})
	c := newTestClient(t, h)

	all, err := c.Offerings(context.Background(), "ZXCV")
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.NotNil(t, all[0].RaisedAmount)
	assert.Equal(t, "1234.5", all[0].RaisedAmount.Text('f', 1))
	require.Len(t, all[0].Tiers, 1)
	assert.Equal(t, "0.25", all[0].Tiers[0].Price.Text('f', 2))

	tiered := offering.FilterTiered(all)
	require.Len(t, tiered, 1)
	assert.Equal(t, "0x1", tiered[0].Address)
}

func TestLaunchTieredSTO_Posts(t *testing.T) {
	var body map[string]any
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/tokens/ZXCV/offerings/tiered", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"address":"0xabc","txHash":"0xdef"}`))
	})
	c := newTestClient(t, h)

	receipt, err := c.LaunchTieredSTO(context.Background(), "ZXCV", validParams())
	require.NoError(t, err)
	assert.Equal(t, LaunchReceipt{Symbol: "ZXCV", Address: "0xabc", TxHash: "0xdef"}, receipt)
	assert.Equal(t, testWallet, body["raisedFundsWallet"])
	assert.Len(t, body["tiers"], 1)
}

func TestLaunchTieredSTO_InvalidParamsNotSent(t *testing.T) {
	var hits atomic.Int32
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	})
	c := newTestClient(t, h)

	p := validParams()
	p.EndDate = p.StartDate
	_, err := c.LaunchTieredSTO(context.Background(), "ZXCV", p)
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, int32(0), hits.Load())
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized},
		{"forbidden", http.StatusForbidden, ErrUnauthorized},
		{"not found", http.StatusNotFound, ErrNotFound},
		{"bad request", http.StatusBadRequest, ErrValidation},
		{"unprocessable", http.StatusUnprocessableEntity, ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_ = json.NewEncoder(w).Encode(ErrorBody{Error: "E", Message: "boom"})
			})
			c := newTestClient(t, h)
			_, err := c.Offerings(context.Background(), "ZXCV")
			require.ErrorIs(t, err, tc.want)
			assert.Contains(t, err.Error(), "boom")
		})
	}
}

func TestErrorMapping_RemoteError(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(ErrorBody{Error: "UPSTREAM", Message: "node down", RequestID: "r-1"})
	})
	c := newTestClient(t, h)

	_, err := c.Tokens(context.Background(), testWallet)
	var re RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusBadGateway, re.StatusCode)
	assert.Equal(t, "remote error 502 (UPSTREAM): node down [request_id=r-1]", err.Error())
}

func TestJoinURLPath(t *testing.T) {
	assert.Equal(t, "/x", joinURLPath("", "/x"))
	assert.Equal(t, "/a/x", joinURLPath("/a/", "/x"))
	assert.Equal(t, "/a/x", joinURLPath("/a", "x"))
	assert.Equal(t, "/a/x", joinURLPath("/a", "/x"))
	assert.Equal(t, "/a", joinURLPath("/a", ""))
}
