package main

// HTTP handlers implementing the external interface of §6. Thin by
// design (§1: "HTTP transport framing" is out of scope for the core):
// each handler decodes/encodes JSON and forwards to a *core.Runtime
// method.
//
// Grounded on the teacher's cmd/xchainserver/server/handlers.go
// (decode body -> call core helper -> writeJSON/http.Error) and
// walletserver/controllers (struct-bound handler methods).

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"qscnode/core"
)

var errNoConsensusConfig = errors.New("node is not running in poa consensus mode")

// api bundles the runtime the handlers operate against.
type api struct {
	rt *core.Runtime
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// GET /head
func (a *api) head(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.rt.Chain.Head())
}

// GET /block/{n}
func (a *api) block(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["n"]
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	b, ok := a.rt.Chain.At(n)
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// GET /validator
func (a *api) validator(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"alg":          core.SigAlgMLDSA3,
		"validator_pk": a.rt.ValidatorPKHex,
	})
}

// GET /chain
func (a *api) chainInfo(w http.ResponseWriter, _ *http.Request) {
	algs := make([]string, 0, len(a.rt.SigAlgsAllowed))
	for alg := range a.rt.SigAlgsAllowed {
		algs = append(algs, alg)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"chain_id":         a.rt.ChainID,
		"hash_alg":         a.rt.Hasher.Alg(),
		"sig_algs_allowed": algs,
		"validator": map[string]string{
			"alg":          core.SigAlgMLDSA3,
			"validator_pk": a.rt.ValidatorPKHex,
		},
	})
}

// GET /nonce/{addr}
func (a *api) nonce(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["addr"]
	addr, err := core.ParseAddress(raw)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"next_nonce": a.rt.NextNonce(addr)})
}

// canonicalRequest is the RpcCall-lite body accepted by POST /canonical.
type canonicalRequest struct {
	From     string          `json:"from"`
	Nonce    uint64          `json:"nonce"`
	ChainID  string          `json:"chain_id"`
	Contract string          `json:"contract"`
	Method   string          `json:"method"`
	Args     json.RawMessage `json:"args"`
}

// POST /canonical
func (a *api) canonical(w http.ResponseWriter, r *http.Request) {
	var req canonicalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	payload, err := a.rt.Canonical(req.From, req.Nonce, req.ChainID, req.Contract, req.Method, req.Args)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

// POST /call
func (a *api) call(w http.ResponseWriter, r *http.Request) {
	var req core.RpcCall
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	tx, err := a.rt.SubmitCall(req, time.Now().UnixMilli())
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "enqueued, will apply in next block",
		"tx_hash": tx.TxHash,
	})
}

// GET /query?contract=...&method=...&args=...
func (a *api) query(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	contract := q.Get("contract")
	method := q.Get("method")
	args := json.RawMessage(q.Get("args"))
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	result, err := a.rt.Registry.DispatchQuery(contract, method, args)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result)
}

// GET /consensus/config
func (a *api) consensusConfig(w http.ResponseWriter, _ *http.Request) {
	if a.rt.PoA == nil {
		writeErr(w, http.StatusBadRequest, errNoConsensusConfig)
		return
	}
	writeJSON(w, http.StatusOK, a.rt.PoA)
}

// POST /consensus/commit. Rejects with "no PoA config" on a node with
// no PoA validator set (core.Runtime.ApplyExternalBlock enforces this
// unconditionally; there is no mode in which an external block is
// applied without a leader/signature check).
func (a *api) consensusCommit(w http.ResponseWriter, r *http.Request) {
	var b core.Block
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	if err := a.rt.ApplyExternalBlock(b); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// metricsHandler exposes the node's Prometheus registry at /metrics.
func (a *api) metricsHandler() http.Handler {
	return promhttp.HandlerFor(a.rt.Health.Registry, promhttp.HandlerOpts{})
}
