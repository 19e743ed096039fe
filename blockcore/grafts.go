package blockcore

// CoinbaseDevReward is getblocktemplate's optional "coinbasedevreward"
// field (FCH), carrying a literal dev-reward output value and script
// rather than a pool-configured fraction.
type CoinbaseDevReward struct {
	Value        int64
	ScriptPubKey Script
}

// MinerFund is getblocktemplate's optional "minerfund" field (BCHA),
// carrying the consensus-mandated minimum fund value and the first
// destination address's script.
type MinerFund struct {
	MinimumValue int64
	ScriptPubKey Script
}

// ProcessCoinbaseDevReward implements btcLike.h's processCoinbaseDevReward:
// when the template carries a coinbasedevreward field, DevFee/DevScriptPubKey
// are set directly from its literal value and scriptPubKey. blockReward is
// untouched — the dev reward is paid alongside it, not carved out of it.
func ProcessCoinbaseDevReward(reward *CoinbaseDevReward) (devFee int64, scriptPubKey Script) {
	if reward == nil {
		return 0, nil
	}
	return reward.Value, reward.ScriptPubKey
}

// ProcessMinerFund implements btcLike.h's processMinerFund: when the
// template carries a minerfund field, DevFee/DevScriptPubKey are set from
// its minimum value and address, and blockReward is decremented by that
// amount, sharing the same coinbase output slot processCoinbaseDevReward
// would otherwise fill (the two grafts are mutually exclusive across real
// chains, but both write into DevFee/DevScriptPubKey rather than a
// fund-specific field).
func ProcessMinerFund(blockReward *int64, fund *MinerFund) (devFee int64, scriptPubKey Script) {
	if fund == nil {
		return 0, nil
	}
	devFee = fund.MinimumValue
	*blockReward -= devFee
	return devFee, fund.ScriptPubKey
}
