package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	defaultRPCTimeout         = 10 * time.Second
	defaultRPCLongPollTimeout = 65 * time.Second
)

// rpcRequest is a JSON-RPC 1.0 request envelope, the dialect bitcoind's
// getblocktemplate/getblockheader/getbestblockhash endpoints speak.
type rpcRequest struct {
	JSONRPC string `json:"jsonrpc,omitempty"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
	ID     int             `json:"id"`
}

// RPCClient talks to a single bitcoind-family node over JSON-RPC. It keeps
// two *http.Client instances: one for normal short-lived calls and one
// (longer-timeout) for getblocktemplate's long-poll form, matching the node's
// own split between its default request timeout and its blocking longpoll
// behavior.
type RPCClient struct {
	url      string
	user     string
	password string
	client   *http.Client
	lp       *http.Client

	reqID int

	metrics *PoolMetrics
}

// NewRPCClient builds an RPCClient from the pool's resolved configuration.
func NewRPCClient(cfg Config, metrics *PoolMetrics) *RPCClient {
	return &RPCClient{
		url:      cfg.RPCURL,
		user:     cfg.RPCUser,
		password: cfg.RPCPass,
		client:   &http.Client{Timeout: defaultRPCTimeout},
		lp:       &http.Client{Timeout: defaultRPCLongPollTimeout},
		metrics:  metrics,
	}
}

// EndpointLabel identifies this client's node for logging, without leaking
// credentials.
func (c *RPCClient) EndpointLabel() string {
	if c == nil || c.url == "" {
		return "(unconfigured)"
	}
	return c.url
}

func (c *RPCClient) do(ctx context.Context, hc *http.Client, longPoll bool, method string, params any, out any) error {
	c.reqID++
	body, err := json.Marshal(rpcRequest{JSONRPC: "1.0", ID: c.reqID, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("rpc: encode %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("rpc: build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.user != "" || c.password != "" {
		req.SetBasicAuth(c.user, c.password)
	}

	start := time.Now()
	resp, err := hc.Do(req)
	c.metrics.ObserveRPCLatency(method, longPoll, time.Since(start))
	if err != nil {
		return fmt.Errorf("rpc: %s: %w", method, err)
	}
	defer resp.Body.Close()

	var envelope rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("rpc: decode %s response: %w", method, err)
	}
	if envelope.Error != nil {
		return fmt.Errorf("rpc: %s: %w", method, envelope.Error)
	}
	if out == nil {
		return nil
	}
	if len(envelope.Result) == 0 {
		return fmt.Errorf("rpc: %s: empty result", method)
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("rpc: decode %s result: %w", method, err)
	}
	return nil
}

// callCtx issues a single normal-timeout JSON-RPC call.
func (c *RPCClient) callCtx(ctx context.Context, method string, params any, out any) error {
	return c.do(ctx, c.client, false, method, params, out)
}

// callLongPollCtx issues a JSON-RPC call on the long-timeout client, for
// getblocktemplate's longpollid blocking form.
func (c *RPCClient) callLongPollCtx(ctx context.Context, method string, params any, out any) error {
	return c.do(ctx, c.lp, true, method, params, out)
}

// rpcBlockHeader mirrors bitcoind's getblockheader verbose response, trimmed
// to the fields the block-timer and template-freshness checks need.
type rpcBlockHeader struct {
	Hash              string  `json:"hash"`
	Height            int64   `json:"height"`
	Time              int64   `json:"time"`
	Bits              string  `json:"bits"`
	Difficulty        float64 `json:"difficulty"`
	PreviousBlockHash string  `json:"previousblockhash"`
}

// GetBestBlockHash wraps getbestblockhash.
func (c *RPCClient) GetBestBlockHash(ctx context.Context) (string, error) {
	var hash string
	if err := c.callCtx(ctx, "getbestblockhash", nil, &hash); err != nil {
		return "", err
	}
	return hash, nil
}

// GetBlockHeader wraps getblockheader in its verbose (JSON) form.
func (c *RPCClient) GetBlockHeader(ctx context.Context, hash string) (rpcBlockHeader, error) {
	var header rpcBlockHeader
	if err := c.callCtx(ctx, "getblockheader", []any{hash, true}, &header); err != nil {
		return rpcBlockHeader{}, err
	}
	return header, nil
}

// rpcBlockchainInfo mirrors the subset of getblockchaininfo used to gate
// Stratum service while the node is still catching up.
type rpcBlockchainInfo struct {
	Blocks               int64 `json:"blocks"`
	Headers              int64 `json:"headers"`
	InitialBlockDownload bool  `json:"initialblockdownload"`
}

// refreshNodeSyncInfo polls getblockchaininfo and caches the IBD/sync-height
// snapshot stratumHealthStatus reads. A failure is only surfaced as a job
// feed error when there is no current job to fall back on, so a single
// transient RPC hiccup does not interrupt an otherwise healthy pool.
func (jm *JobManager) refreshNodeSyncInfo(ctx context.Context) {
	if jm.rpc == nil {
		return
	}
	var info rpcBlockchainInfo
	err := jm.rpc.callCtx(ctx, "getblockchaininfo", nil, &info)

	jm.mu.RLock()
	hasJob := jm.curJob != nil
	jm.mu.RUnlock()

	if err != nil {
		if !hasJob {
			jm.recordJobError(fmt.Errorf("getblockchaininfo: %w", err))
		}
		return
	}

	jm.nodeSyncMu.Lock()
	jm.nodeSyncIBD = info.InitialBlockDownload
	jm.nodeSyncBlocks = info.Blocks
	jm.nodeSyncHeaders = info.Headers
	jm.nodeSyncFetchedAt = time.Now()
	jm.nodeSyncMu.Unlock()
}

// nodeSyncSnapshot returns the most recently cached getblockchaininfo
// snapshot, and when it was fetched.
func (jm *JobManager) nodeSyncSnapshot() (ibd bool, blocks, headers int64, fetchedAt time.Time) {
	jm.nodeSyncMu.RLock()
	defer jm.nodeSyncMu.RUnlock()
	return jm.nodeSyncIBD, jm.nodeSyncBlocks, jm.nodeSyncHeaders, jm.nodeSyncFetchedAt
}
