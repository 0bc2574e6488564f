// Package genesis builds the first world of a fresh chain from
// configs/genesis.yaml.
package genesis

import (
	"os"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"

	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/sim/calc"
	"chronicles.ai/internal/sim/model"
	"chronicles.ai/internal/sim/state"
)

type Config struct {
	Admin           string    `yaml:"admin"`
	AdminValidUntil int64     `yaml:"admin_valid_until"`
	Gold            Gold      `yaml:"gold"`
	Accounts        []Account `yaml:"accounts"`
}

type Gold struct {
	Ticker   string   `yaml:"ticker"`
	Decimals uint8    `yaml:"decimals"`
	Minters  []string `yaml:"minters"`
}

// Account balances are in major units.
type Account struct {
	Address string `yaml:"address"`
	Gold    int64  `yaml:"gold"`
	Crystal int64  `yaml:"crystal"`
	Mead    int64  `yaml:"mead"`
}

func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, oops.Wrapf(err, "read genesis %s", path)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, oops.Wrapf(err, "parse genesis %s", path)
	}
	return cfg, nil
}

// Build returns the genesis world. Balances are installed directly, so the
// gold minters need not sign anything.
func Build(cfg Config) (*state.World, error) {
	g := state.NewGenesis()
	if cfg.Admin != "" {
		admin, err := address.Parse(cfg.Admin)
		if err != nil {
			return nil, oops.Wrapf(err, "genesis admin")
		}
		g.SetState(address.Admin, model.AdminState{Admin: admin, ValidUntil: cfg.AdminValidUntil}.ToValue())
	}

	if cfg.Gold.Ticker == "" {
		return nil, oops.Errorf("genesis: gold ticker is required")
	}
	minters := make([]address.Address, 0, len(cfg.Gold.Minters))
	for _, m := range cfg.Gold.Minters {
		a, err := address.Parse(m)
		if err != nil {
			return nil, oops.Wrapf(err, "genesis gold minter")
		}
		minters = append(minters, a)
	}
	gold := state.NewCurrency(cfg.Gold.Ticker, cfg.Gold.Decimals, minters...)
	g.SetState(address.GoldCurrency, gold.ToValue())

	seen := make(map[address.Address]bool, len(cfg.Accounts))
	for _, acct := range cfg.Accounts {
		a, err := address.Parse(acct.Address)
		if err != nil {
			return nil, oops.Wrapf(err, "genesis account")
		}
		if seen[a] {
			return nil, oops.Errorf("genesis: duplicate account %s", a.Hex())
		}
		seen[a] = true
		if acct.Gold < 0 || acct.Crystal < 0 || acct.Mead < 0 {
			return nil, oops.Errorf("genesis: negative balance for %s", a.Hex())
		}
		if acct.Gold > 0 {
			g.Credit(a, gold.Major(acct.Gold))
		}
		if acct.Crystal > 0 {
			g.Credit(a, calc.Crystal.Major(acct.Crystal))
		}
		if acct.Mead > 0 {
			g.Credit(a, calc.Mead.Major(acct.Mead))
		}
	}
	return g.Build(), nil
}
