package core

// Runtime wires state, mempool, chain, nonces, the contract registry,
// and persistence into the two block-producing paths of §4.5 and §4.6,
// plus the PoA slot loop of §4.7. It is the node's single point of
// lock-ordering discipline (§5): chain_lock, then mempool_lock, then
// state_lock/nonces_lock per Tx, then chain_lock again to append —
// each held only for its own short critical section and never across
// I/O.
//
// Grounded on the Rust original's runtime.rs (produce_block,
// apply_external_block, the slot-timer task) and the teacher's
// consensus_start.go goroutine-plus-ticker shape for background loops.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Mode selects between the PoA slot loop and the local fallback timer.
type Mode string

const (
	ModeLocal Mode = "local"
	ModePoA   Mode = "poa"
)

// Runtime is the node's core: every HTTP handler and background loop
// operates through this struct.
type Runtime struct {
	Hasher      *Hasher
	Chain       *Chain
	Mempool     *Mempool
	Nonces      *Nonces
	State       *State
	Registry    *Registry
	Persist     *Persistence
	logger      *logrus.Logger

	ChainID        string
	SigAlgsAllowed map[string]struct{}
	MinterAddr     Address
	MaxTxPerBlock  int

	ValidatorPKHex string
	validatorSK    []byte

	Mode Mode
	PoA  *PoAConfig

	Health *Health

	httpClient *http.Client
}

// RuntimeConfig gathers the constructor arguments for NewRuntime.
type RuntimeConfig struct {
	Hasher         *Hasher
	ChainID        string
	SigAlgsAllowed []string
	MinterAddr     Address
	TokenMaxSupply uint64
	MaxTxPerBlock  int
	MaxPendingPerAddr int
	ValidatorPKHex string
	ValidatorSK    []byte
	Mode           Mode
	PoA            *PoAConfig
	DataDir        string
	GenesisTimestampMs int64
	Logger         *logrus.Logger
}

// NewRuntime constructs a fully wired Runtime with a freshly minted
// genesis block and an open persistence journal.
func NewRuntime(cfg RuntimeConfig) (*Runtime, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
	}
	persist, err := NewPersistence(cfg.DataDir, logger)
	if err != nil {
		return nil, err
	}
	chain, err := NewChain(cfg.Hasher, cfg.GenesisTimestampMs, cfg.ValidatorPKHex, func(msg []byte) (string, error) {
		sig, err := SignMLDSA3(msg, cfg.ValidatorSK)
		if err != nil {
			return "", err
		}
		return hexEncode(sig), nil
	})
	if err != nil {
		return nil, err
	}

	allowed := make(map[string]struct{}, len(cfg.SigAlgsAllowed))
	for _, a := range cfg.SigAlgsAllowed {
		allowed[lower(a)] = struct{}{}
	}

	state := NewState(logger)
	registry := NewRegistry(state, logger)
	registry.Register(NewTokenContract(cfg.MinterAddr, cfg.TokenMaxSupply))

	rt := &Runtime{
		Hasher:         cfg.Hasher,
		Chain:          chain,
		Mempool:        NewMempool(cfg.MaxPendingPerAddr, logger),
		Nonces:         NewNonces(),
		State:          state,
		Registry:       registry,
		Persist:        persist,
		logger:         logger,
		ChainID:        cfg.ChainID,
		SigAlgsAllowed: allowed,
		MinterAddr:     cfg.MinterAddr,
		MaxTxPerBlock:  cfg.MaxTxPerBlock,
		ValidatorPKHex: cfg.ValidatorPKHex,
		validatorSK:    cfg.ValidatorSK,
		Mode:           cfg.Mode,
		PoA:            cfg.PoA,
		httpClient:     &http.Client{},
	}

	rt.persistGenesisParams()

	health := NewHealth()
	rt.Health = health
	rt.Mempool.OnDrop(func(Tx) { health.TxDropped.Inc() })

	return rt, nil
}

func (rt *Runtime) persistGenesisParams() {
	head := rt.Chain.Head()
	rt.Persist.AppendBlock(head)
	rt.Persist.WriteStateSnapshot(rt.State.Snapshot())
	rt.writeParams(head.Height)
}

func (rt *Runtime) writeParams(height uint64) {
	algs := make([]string, 0, len(rt.SigAlgsAllowed))
	for a := range rt.SigAlgsAllowed {
		algs = append(algs, a)
	}
	rt.Persist.WriteParamsSnapshot(Params{
		HashAlg:        string(rt.Hasher.Alg()),
		SigAlgsAllowed: algs,
		ChainID:        rt.ChainID,
		Height:         height,
	})
}

// NextNonce reports addr's next expected nonce.
func (rt *Runtime) NextNonce(addr Address) uint64 {
	return rt.Nonces.Next(addr)
}

// applyTx dispatches one Tx mutably and advances its sender's nonce
// regardless of dispatch outcome (§4.5 step 3, §4.6 step 4, §7,
// §9 open question 1): a failed dispatch is logged, never surfaced,
// and the Tx still consumes a nonce slot and is recorded in the block.
func (rt *Runtime) applyTx(tx Tx) {
	_, err := rt.Registry.DispatchMut(tx.Call.From, tx.Call.Contract, tx.Call.Method, tx.Call.Args)
	if err != nil {
		rt.logger.WithFields(logrus.Fields{
			"from":     tx.Call.From,
			"contract": tx.Call.Contract,
			"method":   tx.Call.Method,
			"tx_hash":  tx.TxHash,
		}).WithError(err).Warn("runtime: tx dispatch failed, included anyway")
	}
	rt.Nonces.Advance(tx.Call.From)
	if rt.Health != nil {
		rt.Health.TxApplied.Inc()
	}
}

// ProduceBlock implements §4.5: drain the mempool, apply each Tx,
// hash-link, sign, append, and persist. Returns the new block for
// gossip.
func (rt *Runtime) ProduceBlock() (Block, error) {
	parent := rt.Chain.Head()
	txs := rt.Mempool.Drain(rt.MaxTxPerBlock)

	for _, tx := range txs {
		rt.applyTx(tx)
	}

	nowMs := time.Now().UnixMilli()
	height := parent.Height + 1
	hash := rt.Hasher.Hex([]byte(BlockHeaderString(parent.Hash, height, len(txs), nowMs)))
	sig, err := SignMLDSA3([]byte(hash), rt.validatorSK)
	if err != nil {
		return Block{}, fmt.Errorf("runtime: sign block: %w", err)
	}

	b := Block{
		Height:       height,
		Parent:       parent.Hash,
		Hash:         hash,
		TimestampMs:  nowMs,
		ValidatorPK:  rt.ValidatorPKHex,
		ValidatorSig: hexEncode(sig),
		Txs:          txs,
	}
	if err := rt.Chain.Append(b); err != nil {
		return Block{}, err
	}
	rt.persistCommit(b)
	if rt.Health != nil {
		rt.Health.BlocksProduced.Inc()
		rt.Health.Observe(rt)
	}
	return b, nil
}

// ApplyExternalBlock implements §4.6: validate linkage and leader/
// signature, apply every included Tx, append, persist, and drop any
// now-applied Tx from the local mempool. Per-Tx signature
// re-verification is intentionally not performed here (§4.6, §9 open
// question 2). The PoA check is unconditional: a node with no PoA
// config has no validator set to check a leader/signature against, so
// it rejects every external block outright rather than applying one
// unverified (mirrors the Rust original's consensus_commit, which
// requires PoAConfig::from_env() before ever calling this).
func (rt *Runtime) ApplyExternalBlock(b Block) error {
	if rt.PoA == nil {
		return fmt.Errorf("no PoA config")
	}
	head := rt.Chain.Head()
	if b.Parent != head.Hash {
		return fmt.Errorf("parent mismatch")
	}
	if b.Height != head.Height+1 {
		return fmt.Errorf("height mismatch")
	}
	if err := VerifyBlockPoA(rt.PoA, head.Hash, b); err != nil {
		return err
	}

	for _, tx := range b.Txs {
		rt.applyTx(tx)
	}

	if err := rt.Chain.Append(b); err != nil {
		return err
	}
	rt.persistCommit(b)
	if rt.Health != nil {
		rt.Health.Observe(rt)
	}

	applied := make(map[string]struct{}, len(b.Txs))
	for _, tx := range b.Txs {
		applied[tx.TxHash] = struct{}{}
	}
	rt.Mempool.RemoveByHash(applied)
	return nil
}

func (rt *Runtime) persistCommit(b Block) {
	rt.Persist.AppendBlock(b)
	rt.Persist.WriteStateSnapshot(rt.State.Snapshot())
	rt.writeParams(b.Height)
}

// Start launches the background block-production loop and blocks until
// ctx is cancelled. In ModePoA it runs the slot timer of §4.7; in
// ModeLocal it runs an unconditional 3-second fallback producer (§9
// supplement: single-node development mode with no leader schedule).
func (rt *Runtime) Start(ctx context.Context) {
	if rt.Mode == ModePoA && rt.PoA != nil && len(rt.PoA.Validators) > 0 {
		rt.runPoALoop(ctx)
		return
	}
	rt.runLocalLoop(ctx)
}

func (rt *Runtime) runLocalLoop(ctx context.Context) {
	ticker := time.NewTicker(3 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := rt.ProduceBlock(); err != nil {
				rt.logger.WithError(err).Warn("runtime: local block production failed")
			}
		}
	}
}

func (rt *Runtime) runPoALoop(ctx context.Context) {
	slotMs := rt.PoA.SlotMs
	if slotMs <= 0 {
		slotMs = 3000
	}
	ticker := time.NewTicker(time.Duration(slotMs) * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rt.poaTick()
		}
	}
}

func (rt *Runtime) poaTick() {
	head := rt.Chain.Head()
	nextHeight := head.Height + 1
	leader := rt.PoA.ExpectedLeader(nextHeight)
	if !equalFoldStr(leader.PK, rt.ValidatorPKHex) || len(rt.validatorSK) == 0 {
		return
	}
	b, err := rt.ProduceBlock()
	if err != nil {
		rt.logger.WithError(err).Warn("runtime: poa block production failed")
		return
	}
	rt.gossip(b)
}

// gossip POSTs b to every other validator's /consensus/commit. Delivery
// failures are ignored (§4.7): a stale peer catches up on its own next
// production cycle; this node does not implement backfill.
func (rt *Runtime) gossip(b Block) {
	body, err := json.Marshal(b)
	if err != nil {
		rt.logger.WithError(err).Warn("runtime: marshal block for gossip")
		return
	}
	for _, v := range rt.PoA.Validators {
		if equalFoldStr(v.PK, rt.ValidatorPKHex) {
			continue
		}
		url := v.URL + "/consensus/commit"
		resp, err := rt.httpClient.Post(url, "application/json", bytes.NewReader(body))
		if err != nil {
			rt.logger.WithError(err).WithField("peer", v.ID).Warn("runtime: gossip post failed")
			continue
		}
		resp.Body.Close()
	}
}
