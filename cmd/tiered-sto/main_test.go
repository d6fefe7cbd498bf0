package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//nolint:gochecknoglobals // test binary path is set in TestMain
var testBinaryPath string

const testWallet = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

// TestMain builds the CLI binary once for the entire package and reuses it.
func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "tiered-sto-test-")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create temp dir: %v\n", err)
		os.Exit(1) //nolint:gocritic // Mkdir failed, nothing to cleanup
	}

	bin := filepath.Join(dir, "tiered-sto-test")
	cmd := exec.Command("go", "build", "-o", bin, ".")
	if out, err := cmd.CombinedOutput(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to build test binary: %v\nOutput: %s\n", err, string(out))
		os.RemoveAll(dir)
		os.Exit(1)
	}
	testBinaryPath = bin

	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

// newCmd runs the binary offline against a throwaway home and session file.
func newCmd(t *testing.T, home string, args ...string) *exec.Cmd {
	t.Helper()
	require.NotEmpty(t, testBinaryPath, "test binary not built")
	full := append([]string{"--offline", "--session-file", sessionPath(home)}, args...)
	cmd := exec.Command(testBinaryPath, full...)
	cmd.Env = append(os.Environ(), "HOME="+home, "XDG_CONFIG_HOME="+filepath.Join(home, ".config"))
	return cmd
}

func sessionPath(home string) string {
	return filepath.Join(home, "session.json")
}

func readSession(t *testing.T, home string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(sessionPath(home))
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestCLI_HelpOutput(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		contains []string
	}{
		{
			name:     "root help",
			args:     []string{"--help"},
			contains: []string{"tiered-sto", "Tiered STOs", "tokens", "offerings", "launch", "wallet", "--sdk-url", "--offline"},
		},
		{
			name:     "launch help",
			args:     []string{"launch", "--help"},
			contains: []string{"SYMBOL", "--file", "--dry-run", "--json"},
		},
		{
			name:     "wallet help",
			args:     []string{"wallet", "--help"},
			contains: []string{"set", "show", "clear"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := newCmd(t, t.TempDir(), tt.args...).CombinedOutput()
			require.NoError(t, err)
			for _, expected := range tt.contains {
				assert.Contains(t, string(output), expected)
			}
		})
	}
}

func TestCLI_Version(t *testing.T) {
	output, err := newCmd(t, t.TempDir(), "--version").CombinedOutput()
	require.NoError(t, err)
	assert.Contains(t, string(output), "tiered-sto dev")
	assert.Contains(t, string(output), "commit: none")
}

func TestCLI_Wallet(t *testing.T) {
	home := t.TempDir()

	output, err := newCmd(t, home, "wallet", "show").CombinedOutput()
	require.NoError(t, err)
	assert.Contains(t, string(output), "No wallet set")

	output, err = newCmd(t, home, "wallet", "set", "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed").CombinedOutput()
	require.NoError(t, err, string(output))
	assert.Contains(t, string(output), "Wallet set to "+testWallet)
	assert.Equal(t, testWallet, readSession(t, home)["wallet_address"])

	output, err = newCmd(t, home, "wallet", "show").CombinedOutput()
	require.NoError(t, err)
	assert.Contains(t, string(output), testWallet)

	output, err = newCmd(t, home, "wallet", "clear").CombinedOutput()
	require.NoError(t, err)
	assert.Contains(t, string(output), "Wallet cleared")
	assert.Nil(t, readSession(t, home)["wallet_address"])
}

func TestCLI_WalletSetRejectsInvalid(t *testing.T) {
	output, err := newCmd(t, t.TempDir(), "wallet", "set", "0x1234").CombinedOutput()
	require.Error(t, err)
	assert.Contains(t, string(output), "Invalid wallet address")
}

func TestCLI_TokensJSON(t *testing.T) {
	cmd := newCmd(t, t.TempDir(), "--wallet", testWallet, "--json", "tokens")
	output, err := cmd.Output()
	require.NoError(t, err)

	var tokens []map[string]any
	require.NoError(t, json.Unmarshal(output, &tokens))
	require.Len(t, tokens, 2)
	assert.Equal(t, "ZXCV", tokens[0]["symbol"])
}

func TestCLI_TokensWithoutWallet(t *testing.T) {
	output, err := newCmd(t, t.TempDir(), "tokens").CombinedOutput()
	require.Error(t, err)
	assert.Contains(t, string(output), "no wallet connected")
}

func TestCLI_Offerings(t *testing.T) {
	output, err := newCmd(t, t.TempDir(), "--wallet", testWallet, "offerings").CombinedOutput()
	require.NoError(t, err, string(output))

	out := string(output)
	assert.Contains(t, out, "ZXCV TIERED STOs")
	assert.Contains(t, out, "Unsold Tokens Wallet:")
	assert.Contains(t, out, "Tokens on Sale")
	assert.Contains(t, out, "No Tiered STOs for ACME yet.")
}

func TestCLI_OfferingsJSON(t *testing.T) {
	cmd := newCmd(t, t.TempDir(), "--wallet", testWallet, "--json", "offerings", "ZXCV")
	output, err := cmd.Output()
	require.NoError(t, err)

	var got map[string][]struct {
		Status string              `json:"status"`
		Fields []map[string]string `json:"fields"`
		Tiers  [][]string          `json:"tiers"`
	}
	require.NoError(t, json.Unmarshal(output, &got))
	require.Len(t, got["ZXCV"], 1, "non-Tiered offerings are filtered out")
	assert.Len(t, got["ZXCV"][0].Fields, 15)
	require.Len(t, got["ZXCV"][0].Tiers, 1)
	assert.Equal(t, "12.5", got["ZXCV"][0].Tiers[0][1])
}

func TestCLI_OfferingsUnknownSymbol(t *testing.T) {
	output, err := newCmd(t, t.TempDir(), "--wallet", testWallet, "offerings", "NOPE").CombinedOutput()
	require.Error(t, err)
	assert.Contains(t, string(output), "offerings of NOPE")
}

func writeForm(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "form.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const validFormYAML = `
start_date: "2030-01-01"
end_date: "2030-02-01 12:00"
non_accredited_investment_limit: "10,000"
minimum_investment: "100"
currency: ETH
tiers:
  - tokens_on_sale: "1000"
    price: "0.5"
`

func TestCLI_LaunchDryRun(t *testing.T) {
	home := t.TempDir()
	form := writeForm(t, home, validFormYAML)

	output, err := newCmd(t, home, "--wallet", testWallet, "launch", "ZXCV", "--file", form, "--dry-run").CombinedOutput()
	require.NoError(t, err, string(output))
	out := string(output)
	assert.Contains(t, out, "Launch form for ZXCV is valid.")
	assert.Contains(t, out, "10,000")
	assert.Contains(t, out, testWallet)
}

func TestCLI_Launch(t *testing.T) {
	home := t.TempDir()
	form := writeForm(t, home, validFormYAML)

	output, err := newCmd(t, home, "--wallet", testWallet, "launch", "ZXCV", "-f", form).CombinedOutput()
	require.NoError(t, err, string(output))
	assert.Contains(t, string(output), "Launched Tiered STO for ZXCV at 0x")

	launches, ok := readSession(t, home)["recent_launches"].([]any)
	require.True(t, ok)
	require.Len(t, launches, 1)
	assert.Equal(t, "ZXCV", launches[0].(map[string]any)["symbol"])
}

func TestCLI_LaunchInvalidForm(t *testing.T) {
	home := t.TempDir()
	form := writeForm(t, home, "currency: \"7\"\ntiers:\n  - price: abc\n")

	output, err := newCmd(t, home, "--wallet", testWallet, "launch", "ZXCV", "--file", form).CombinedOutput()
	require.Error(t, err)
	out := string(output)
	assert.Contains(t, out, "startDate: is required")
	assert.Contains(t, out, "currency: unknown choice 7")
	assert.Contains(t, out, "tiers[0].tokensOnSale: is required")
	assert.Contains(t, out, "Launch form is invalid")
}

func TestCLI_MetricsFile(t *testing.T) {
	home := t.TempDir()
	metricsPath := filepath.Join(home, "metrics.prom")

	output, err := newCmd(t, home, "--wallet", testWallet, "--metrics-file", metricsPath, "tokens").CombinedOutput()
	require.NoError(t, err, string(output))

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `tiered_sto_ui_actions_total{type="ASYNC_START"} 1`)
	assert.Contains(t, string(data), `tiered_sto_ui_actions_total{type="ASYNC_COMPLETE"} 1`)
	assert.Contains(t, string(data), "tiered_sto_operation_duration_seconds")
}
