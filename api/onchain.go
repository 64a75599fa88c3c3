package api

import (
	"github.com/vocdoni/zkvote-node/log"
	"github.com/vocdoni/zkvote-node/web3"
)

// mirror queues a transaction to the voting contract, if one is configured.
// The local ledger has already accepted the change, so failures are only
// logged.
func (a *API) mirror(method string, submit func(txs *web3.TxManager) error) {
	if a.txs == nil {
		return
	}
	if err := submit(a.txs); err != nil {
		log.Warnw("failed to queue on-chain transaction", "method", method, "error", err)
	}
}

func logMirrorResult(res web3.TxResult) {
	if res.Err != nil {
		log.Warnw("failed to mirror on-chain", "method", res.Method, "error", res.Err)
		return
	}
	log.Debugw("mirrored on-chain", "method", res.Method, "tx", res.Tx.Hash().Hex(), "nonce", res.Tx.Nonce())
}
