package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	GasPerAction    uint64 `yaml:"gas_per_action"`
	DefaultGasLimit uint64 `yaml:"default_gas_limit"`

	BlockIntervalMs     int `yaml:"block_interval_ms"`
	MaxTxPerBlock       int `yaml:"max_tx_per_block"`
	SnapshotEveryBlocks int `yaml:"snapshot_every_blocks"`
	// KeepSnapshots bounds the snapshots kept in the data dir; 0 keeps all.
	KeepSnapshots int `yaml:"keep_snapshots"`
	// ArchiveEveryBlocks marks epoch snapshots that are copied to the
	// archive before pruning; 0 disables archiving.
	ArchiveEveryBlocks int64 `yaml:"archive_every_blocks"`

	Battle    Battle    `yaml:"battle"`
	Admission Admission `yaml:"admission"`
}

type Battle struct {
	MaxTurn int `yaml:"max_turn"`
	// ArenaHPModifier multiplies both sides' HP in arena fights.
	ArenaHPModifier int64 `yaml:"arena_hp_modifier"`
	// CriticalPermyriad is the damage multiplier of a critical hit, in ten-thousandths.
	CriticalPermyriad int64 `yaml:"critical_permyriad"`
	RaidMaxTurn       int   `yaml:"raid_max_turn"`
}

type Admission struct {
	QuotaPerSigner   int     `yaml:"quota_per_signer"`
	BanSeconds       int     `yaml:"ban_seconds"`
	MaxBans          int     `yaml:"max_bans"`
	SignerRatePerSec float64 `yaml:"signer_rate_per_sec"`
	SignerBurst      int     `yaml:"signer_burst"`
	ObsoleteGrace    int64   `yaml:"obsolete_grace"`
	// TxLifetimeSeconds drops staged transactions not taken in time; 0 keeps them.
	TxLifetimeSeconds int `yaml:"tx_lifetime_seconds"`
}

// Default is used when no tuning file is given and by tests.
func Default() Tuning {
	return Tuning{
		ProtocolVersion:     "1.0",
		GasPerAction:        1,
		DefaultGasLimit:     4,
		BlockIntervalMs:     1000,
		MaxTxPerBlock:       256,
		SnapshotEveryBlocks: 100,
		KeepSnapshots:       5,
		ArchiveEveryBlocks:  10000,
		Battle: Battle{
			MaxTurn:           20,
			ArenaHPModifier:   5,
			CriticalPermyriad: 15000,
			RaidMaxTurn:       150,
		},
		Admission: Admission{
			QuotaPerSigner:    8,
			BanSeconds:        900,
			MaxBans:           10000,
			SignerRatePerSec:  5,
			SignerBurst:       10,
			ObsoleteGrace:     2,
			TxLifetimeSeconds: 180,
		},
	}
}

// Load reads path over Default, so omitted keys keep their defaults.
func Load(path string) (Tuning, error) {
	t := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if t.GasPerAction == 0 {
		return t, fmt.Errorf("tuning.yaml: gas_per_action must be positive")
	}
	if t.Battle.MaxTurn <= 0 || t.Battle.RaidMaxTurn <= 0 {
		return t, fmt.Errorf("tuning.yaml: battle turn caps must be positive")
	}
	return t, nil
}
