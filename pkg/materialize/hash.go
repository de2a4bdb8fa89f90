package materialize

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/rlake-data/ingest-engine/pkg/models"
)

// HashRow computes the content hash of one row: SHA-256 over the
// canonical JSON form of the data, which encoding/json emits with map
// keys sorted. Two rows with the same values, nulls included, hash
// identically regardless of column iteration order.
func HashRow(data map[string]models.Value) (string, error) {
	canonical, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal row data: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
