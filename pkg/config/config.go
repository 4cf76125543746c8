package config

// Package config loads the node's QSC_* environment surface (§6) into
// a typed Config, the environment-driven analogue of the teacher's
// godotenv.Load + viper.AutomaticEnv cascade — narrowed to pure
// environment variables since this node ships no YAML config files,
// only the env surface the spec names as public.
//
// Version: v0.1.0

import (
	"encoding/json"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"qscnode/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// ValidatorEntry mirrors one element of QSC_VALIDATORS_JSON.
type ValidatorEntry struct {
	ID  string `json:"id"`
	URL string `json:"url"`
	PK  string `json:"pk"`
}

// Config is the unified node configuration, one field per QSC_* variable.
type Config struct {
	ChainID           string
	HashAlg           string
	SigAlgs           []string
	Consensus         string
	Validators        []ValidatorEntry
	SlotMs            int
	ValidatorSKHex    string
	ValidatorPKHex    string
	MinterAddr        string
	TokenMaxSupply    uint64
	MaxTxPerBlock     int
	MaxPendingPerAddr int
	GenesisMs         int64
	DataDir           string
}

// AppConfig holds the configuration loaded via Load.
var AppConfig Config

// Load reads a cascade of .env files (if present, ignored otherwise)
// then binds the QSC_* environment surface via viper.AutomaticEnv,
// mirroring the teacher's godotenv.Load + viper.AutomaticEnv pattern.
func Load() (*Config, error) {
	for _, f := range []string{".env.local", ".env"} {
		_ = godotenv.Load(f)
	}

	v := viper.New()
	v.SetEnvPrefix("QSC")
	v.AutomaticEnv()

	v.SetDefault("chain_id", "qsc-local")
	v.SetDefault("hash_alg", "sha3-512")
	v.SetDefault("sig_algs", "mldsa3")
	v.SetDefault("consensus", "local")
	v.SetDefault("slot_ms", 3000)
	v.SetDefault("token_max_supply", uint64(0)) // 0 => math.MaxUint64 in core
	v.SetDefault("max_tx_per_block", 100)
	v.SetDefault("max_pending_per_addr", 100)
	v.SetDefault("genesis_ms", int64(0))
	v.SetDefault("data_dir", "./data")

	cfg := Config{
		ChainID:           v.GetString("chain_id"),
		HashAlg:           v.GetString("hash_alg"),
		SigAlgs:           splitCSV(v.GetString("sig_algs")),
		Consensus:         v.GetString("consensus"),
		SlotMs:            v.GetInt("slot_ms"),
		ValidatorSKHex:    v.GetString("validator_sk"),
		ValidatorPKHex:    v.GetString("validator_pk"),
		MinterAddr:        v.GetString("minter_addr"),
		TokenMaxSupply:    v.GetUint64("token_max_supply"),
		MaxTxPerBlock:     v.GetInt("max_tx_per_block"),
		MaxPendingPerAddr: v.GetInt("max_pending_per_addr"),
		GenesisMs:         v.GetInt64("genesis_ms"),
		DataDir:           v.GetString("data_dir"),
	}

	if raw := v.GetString("validators_json"); raw != "" {
		var entries []ValidatorEntry
		if err := json.Unmarshal([]byte(raw), &entries); err != nil {
			return nil, utils.Wrap(err, "parse QSC_VALIDATORS_JSON")
		}
		cfg.Validators = entries
	}

	AppConfig = cfg
	return &AppConfig, nil
}

func splitCSV(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	if len(out) == 0 {
		return []string{"mldsa3"}
	}
	return out
}
