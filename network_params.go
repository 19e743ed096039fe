package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"

	"blockforge/blockcore"
)

var (
	chainParamsMu sync.RWMutex
	chainParams   *chaincfg.Params = &chaincfg.MainNetParams
)

// SetChainParams selects the active Bitcoin network parameters used for local
// address validation. It should be called once during startup, after CLI
// flags / config are resolved. Unknown names default to mainnet.
func SetChainParams(network string) {
	chainParamsMu.Lock()
	defer chainParamsMu.Unlock()

	switch network {
	case "mainnet", "", "bitcoin":
		chainParams = &chaincfg.MainNetParams
	case "testnet", "testnet3":
		chainParams = &chaincfg.TestNet3Params
	case "signet":
		chainParams = &chaincfg.SigNetParams
	case "regtest", "regressiontest":
		chainParams = &chaincfg.RegressionNetParams
	default:
		chainParams = &chaincfg.MainNetParams
	}
}

// ChainParams returns the currently selected network parameters. Call
// SetChainParams during startup to ensure this reflects the actual network.
func ChainParams() *chaincfg.Params {
	chainParamsMu.RLock()
	defer chainParamsMu.RUnlock()
	return chainParams
}

// fetchPayoutScript resolves a payout address into its scriptPubKey. rpc is
// accepted for callers that may later prefer a node-side
// deriveaddresses/validateaddress round trip, but decoding is always done
// locally against the configured network parameters.
func fetchPayoutScript(rpc *RPCClient, address string) ([]byte, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, fmt.Errorf("payout address is empty")
	}
	return scriptPubKeyForAddress(address, ChainParams())
}

// scriptPubKeyForAddress builds the standard scriptPubKey for a decoded
// base58Check or bech32/bech32m address, covering P2PKH, P2SH, P2WPKH, and
// P2WSH outputs.
func scriptPubKeyForAddress(address string, params *chaincfg.Params) ([]byte, error) {
	addr, err := btcutil.DecodeAddress(address, params)
	if err != nil {
		return nil, fmt.Errorf("decode address %s: %w", address, err)
	}
	if !addr.IsForNet(params) {
		return nil, fmt.Errorf("address %s is not valid for network %s", address, params.Name)
	}

	switch a := addr.(type) {
	case *btcutil.AddressPubKeyHash:
		hash := a.ScriptAddress()
		script := make([]byte, 0, 25)
		script = append(script, blockcore.OpDup, blockcore.OpHash160, byte(len(hash)))
		script = append(script, hash...)
		script = append(script, blockcore.OpEqualVerify, blockcore.OpCheckSig)
		return script, nil
	case *btcutil.AddressScriptHash:
		hash := a.ScriptAddress()
		script := make([]byte, 0, 23)
		script = append(script, blockcore.OpHash160, byte(len(hash)))
		script = append(script, hash...)
		script = append(script, blockcore.OpEqual)
		return script, nil
	case *btcutil.AddressWitnessPubKeyHash:
		if err := checkSegwitEncoding(address, params); err != nil {
			return nil, err
		}
		hash := a.ScriptAddress()
		script := make([]byte, 0, 22)
		script = append(script, 0x00, byte(len(hash)))
		return append(script, hash...), nil
	case *btcutil.AddressWitnessScriptHash:
		if err := checkSegwitEncoding(address, params); err != nil {
			return nil, err
		}
		hash := a.ScriptAddress()
		script := make([]byte, 0, 34)
		script = append(script, 0x00, byte(len(hash)))
		return append(script, hash...), nil
	default:
		return nil, fmt.Errorf("unsupported address type for %s", address)
	}
}

// checkSegwitEncoding re-derives a witness address's human-readable part via
// bech32Decode, catching the BIP350 case btcutil.DecodeAddress otherwise lets
// through silently: a v0 witness program encoded with bech32m, or v1+ encoded
// with plain bech32.
func checkSegwitEncoding(address string, params *chaincfg.Params) error {
	hrp, _, err := bech32Decode(address)
	if err != nil {
		return fmt.Errorf("decode address %s: %w", address, err)
	}
	if !strings.EqualFold(hrp, params.Bech32HRPSegwit) {
		return fmt.Errorf("address %s human-readable part %q does not match network %s", address, hrp, params.Name)
	}
	return nil
}
