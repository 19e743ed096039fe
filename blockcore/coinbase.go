package blockcore

// MiningConfig carries the per-pool coinbase layout parameters that
// getblocktemplate itself doesn't supply: how much extranonce space to
// reserve and what message to stamp into the scriptSig. Grounded on the
// teacher's Config fields (Extranonce2Size, TemplateExtraNonce2Size,
// CoinbaseMsg, CoinbaseScriptSigMaxBytes) and on btcLike.h's MiningCfg_.
// MiningAddressScript is the payout's full scriptPubKey, not just a
// hash160 payload -- the teacher's pool resolves P2PKH, P2SH, P2WPKH, and
// P2WSH payout addresses alike, so the coinbase output must accept
// whichever one the operator configured.
type MiningConfig struct {
	MiningAddressScript   Script
	CoinbaseMessage       []byte
	FixedExtraNonceSize   int
	MutableExtraNonceSize int
	TxNumLimit            int
}

// CoinbaseTx is the built coinbase transaction in both serialization
// forms, plus the scriptSig offsets callers need to patch in extranonce
// and extra data without re-serializing the transaction. Mirrors
// btcLike.h's CoinbaseTx{Data, ExtraDataOffset, ExtraNonceOffset}, split
// into legacy/witness variants since each serialization places the first
// input's scriptSig at a different absolute offset.
type CoinbaseTx struct {
	Data             []byte
	ExtraDataOffset  int
	ExtraNonceOffset int
}

// BuildCoinbaseTx assembles the pool's coinbase transaction for the given
// height, block reward, and selected transaction set, following
// btcLike.h's WorkTy::buildCoinbaseTx:
//
//   - scriptSig = BIP34 height push, then extraData (caller-supplied,
//     usually empty), then the coinbase message, then a zero-filled
//     extranonce region sized FixedExtraNonceSize+MutableExtraNonceSize.
//   - output 1: payout of blockReward to cfg.MiningAddressScript, used
//     verbatim as the output's scriptPubKey.
//   - output 2 (if devFee > 0): the raw dev-reward/miner-fund scriptPubKey
//     (FCH's coinbasedevreward and BCHA's minerfund share this one slot).
//   - output 3 (if segwit): zero-value witness commitment output.
//
// It returns both the legacy and witness serializations, each with its own
// ExtraDataOffset/ExtraNonceOffset translated into transaction-absolute
// byte positions via Transaction.FirstScriptSigOffset.
func BuildCoinbaseTx(
	height int64,
	blockReward int64,
	devFee int64, devScriptPubKey Script,
	segwit bool, witnessCommitment Script,
	extraData []byte,
	cfg MiningConfig,
) (legacy, witness CoinbaseTx) {
	scriptSig := SerializeForCoinbase(height)
	extraDataOffsetLocal := len(scriptSig)

	scriptSig = append(scriptSig, extraData...)
	scriptSig = append(scriptSig, cfg.CoinbaseMessage...)

	extraNonceOffsetLocal := len(scriptSig)
	extraNonceSize := cfg.FixedExtraNonceSize + cfg.MutableExtraNonceSize
	scriptSig = append(scriptSig, make([]byte, extraNonceSize)...)

	tx := &Transaction{
		Version: 1,
		TxIn: []TxIn{
			{
				PreviousOutputHash:  Hash256{},
				PreviousOutputIndex: 0xffffffff,
				ScriptSig:           scriptSig,
				Sequence:            0xffffffff,
			},
		},
	}
	if segwit {
		tx.Version = 2
		tx.TxIn[0].WitnessStack = [][]byte{make([]byte, 32)}
	}

	tx.TxOut = append(tx.TxOut, TxOut{
		Value:    blockReward,
		PkScript: cfg.MiningAddressScript,
	})
	if devFee > 0 {
		tx.TxOut = append(tx.TxOut, TxOut{Value: devFee, PkScript: devScriptPubKey})
	}
	if segwit {
		tx.TxOut = append(tx.TxOut, TxOut{Value: 0, PkScript: witnessCommitment})
	}

	legacyBase := tx.FirstScriptSigOffset(false)
	legacy = CoinbaseTx{
		Data:             tx.Serialize(false),
		ExtraDataOffset:  legacyBase + extraDataOffsetLocal,
		ExtraNonceOffset: legacyBase + extraNonceOffsetLocal,
	}

	witnessBase := tx.FirstScriptSigOffset(true)
	witness = CoinbaseTx{
		Data:             tx.Serialize(true),
		ExtraDataOffset:  witnessBase + extraDataOffsetLocal,
		ExtraNonceOffset: witnessBase + extraNonceOffsetLocal,
	}

	return legacy, witness
}
