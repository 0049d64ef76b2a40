// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/validate"
)

// Genesis represents the genesis file.
type Genesis struct {
	Difficulty   uint   `json:"difficulty" validate:"min=1,max=255"` // Number of leading zero bits a block hash needs.
	CoinbaseData string `json:"coinbase_data"`                       // Note carried by the genesis coinbase input.
}

// Default returns the genesis settings used when no file is provided.
func Default() Genesis {
	return Genesis{
		Difficulty: database.DefaultDifficulty,
	}
}

// =============================================================================

// Load opens and consumes the genesis file. Fields missing from the file keep
// their default values.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, fmt.Errorf("reading genesis file: %w", err)
	}

	genesis := Default()
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, fmt.Errorf("decoding genesis file: %w", err)
	}

	if err := genesis.Validate(); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}

// Validate checks the genesis values are usable.
func (g Genesis) Validate() error {
	if err := validate.Check(g); err != nil {
		return fmt.Errorf("validating genesis: %w", err)
	}

	return nil
}
