package main

// qscnode is the node binary: loads the QSC_* environment surface,
// wires a *core.Runtime, starts the PoA slot loop or local fallback
// producer in the background, and serves the HTTP surface of §6.
//
// Grounded on the teacher's cmd/explorer/main.go + server.go (Server
// struct wrapping a *mux.Router and *http.Server, NewServer/Start) and
// cmd/xchainserver for the godotenv/viper env load at startup.

import (
	"context"
	"encoding/hex"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"qscnode/core"
	"qscnode/pkg/config"
)

func hexEncodeHelper(b []byte) string           { return hex.EncodeToString(b) }
func hexDecodeHelper(s string) ([]byte, error) { return hex.DecodeString(s) }

func main() {
	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("load config")
	}

	validatorSK, validatorPK := loadOrGenerateValidatorKeys(cfg, logger)

	minter := core.Address(cfg.MinterAddr)
	if minter == "" {
		minter = core.AddressOf(validatorPK, core.NewHasher(cfg.HashAlg))
	}

	var poaCfg *core.PoAConfig
	if cfg.Consensus == string(core.ModePoA) {
		if len(cfg.Validators) == 0 {
			logger.Warn("QSC_CONSENSUS=poa but QSC_VALIDATORS_JSON is empty; consensus loop disabled")
		} else {
			validators := make([]core.Validator, 0, len(cfg.Validators))
			for _, v := range cfg.Validators {
				validators = append(validators, core.Validator{ID: v.ID, URL: v.URL, PK: v.PK})
			}
			poaCfg = &core.PoAConfig{Validators: validators, SlotMs: cfg.SlotMs}
		}
	}

	mode := core.ModeLocal
	if cfg.Consensus == string(core.ModePoA) && poaCfg != nil {
		mode = core.ModePoA
	}

	rt, err := core.NewRuntime(core.RuntimeConfig{
		Hasher:            core.NewHasher(cfg.HashAlg),
		ChainID:           cfg.ChainID,
		SigAlgsAllowed:    cfg.SigAlgs,
		MinterAddr:        minter,
		TokenMaxSupply:    cfg.TokenMaxSupply,
		MaxTxPerBlock:     cfg.MaxTxPerBlock,
		MaxPendingPerAddr: cfg.MaxPendingPerAddr,
		ValidatorPKHex:    hexEncodeHelper(validatorPK),
		ValidatorSK:       validatorSK,
		Mode:              mode,
		PoA:               poaCfg,
		DataDir:           cfg.DataDir,
		GenesisTimestampMs: cfg.GenesisMs,
		Logger:            logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("init runtime")
	}

	ctx, cancel := context.WithCancel(context.Background())
	go rt.Start(ctx)

	a := &api{rt: rt}
	router := a.routes(logger)

	addr := envOr("QSC_BIND_ADDR", ":8545")
	srv := &http.Server{Addr: addr, Handler: router}

	go func() {
		logger.WithField("addr", addr).Info("qscnode listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("http server")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	_ = rt.Persist.Close()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// loadOrGenerateValidatorKeys decodes QSC_VALIDATOR_SK/QSC_VALIDATOR_PK
// if both are set, else mints a fresh keypair (§6 default: "fresh
// keypair"). §7: providing only one falls back to an empty keypair and
// the node will fail its first signature attempt — operators must
// supply both or neither.
func loadOrGenerateValidatorKeys(cfg *config.Config, logger *logrus.Logger) (sk, pk []byte) {
	if cfg.ValidatorSKHex != "" && cfg.ValidatorPKHex != "" {
		skBytes, err1 := hexDecodeHelper(cfg.ValidatorSKHex)
		pkBytes, err2 := hexDecodeHelper(cfg.ValidatorPKHex)
		if err1 == nil && err2 == nil {
			return skBytes, pkBytes
		}
		logger.Warn("malformed QSC_VALIDATOR_SK/QSC_VALIDATOR_PK, falling back to an empty keypair")
		return nil, nil
	}
	if cfg.ValidatorSKHex != "" || cfg.ValidatorPKHex != "" {
		logger.Warn("only one of QSC_VALIDATOR_SK/QSC_VALIDATOR_PK set, falling back to an empty keypair")
		return nil, nil
	}
	sk, pk, err := core.KeygenMLDSA3()
	if err != nil {
		logger.WithError(err).Fatal("generate validator keypair")
	}
	return sk, pk
}
