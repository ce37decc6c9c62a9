package config

// Sale is the on-disk configuration of a token sale. Amounts are decimal
// strings in base units: USD values use the 18-decimal internal unit, token
// amounts use the token's own precision. Addresses are either 0x-prefixed hex
// or account names resolved with AccountAddress.
type Sale struct {
	Owner            string       `toml:"Owner"`
	UnitPrice        string       `toml:"UnitPrice"`
	HardCap          string       `toml:"HardCap"`
	Start            uint64       `toml:"Start"`
	End              uint64       `toml:"End"`
	ReferralBps      uint64       `toml:"ReferralBps"`
	StalenessSeconds uint64       `toml:"StalenessSeconds"`
	Version          uint64       `toml:"Version"`
	Wallets          Wallets      `toml:"wallets"`
	Feed             Feed         `toml:"feed"`
	SoldAsset        Asset        `toml:"sold_asset"`
	Instruments      []Instrument `toml:"instruments"`
	Logging          Logging      `toml:"logging"`
}

// Wallets configures the payout destinations and their basis-point shares.
type Wallets struct {
	WalletA       string `toml:"WalletA"`
	WalletB       string `toml:"WalletB"`
	Treasury      string `toml:"Treasury"`
	ShareA        uint64 `toml:"ShareA"`
	ShareB        uint64 `toml:"ShareB"`
	ShareTreasury uint64 `toml:"ShareTreasury"`
}

// Feed configures the native-asset price reference.
type Feed struct {
	Decimals uint8  `toml:"Decimals"`
	Answer   string `toml:"Answer"`
}

// Asset describes the token being sold. Supply is minted to the ledger.
type Asset struct {
	Symbol   string `toml:"Symbol"`
	Decimals uint8  `toml:"Decimals"`
	Supply   string `toml:"Supply"`
}

// Instrument describes an accepted payment token.
type Instrument struct {
	Symbol     string `toml:"Symbol"`
	Decimals   uint8  `toml:"Decimals"`
	NoDecimals bool   `toml:"NoDecimals"`
	FeeBps     uint64 `toml:"FeeBps"`
	Primary    bool   `toml:"Primary"`
}

type Logging struct {
	Service string `toml:"Service"`
	Env     string `toml:"Env"`
}
