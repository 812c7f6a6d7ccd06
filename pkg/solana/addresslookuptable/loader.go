package address_lookup_table

import (
	"crypto/ed25519"

	"github.com/nina-protocol/nina-go/pkg/cache"
	"github.com/nina-protocol/nina-go/pkg/solana"
)

// DefaultLoaderBudget is the number of cached table addresses a Loader holds.
const DefaultLoaderBudget = 16 * maxAddresses

// Loader fetches lookup tables and caches them, weighted by address count.
//
// Cached tables are not refreshed, so tables that are extended after being
// loaded must be evicted with Invalidate.
type Loader struct {
	client     solana.Client
	commitment solana.Commitment
	tables     cache.Cache[solana.AddressLookupTable]
}

func NewLoader(client solana.Client, commitment solana.Commitment, budget int) *Loader {
	return &Loader{
		client:     client,
		commitment: commitment,
		tables:     cache.NewCache[solana.AddressLookupTable](budget),
	}
}

// Load returns the tables at addresses, in order.
func (l *Loader) Load(addresses ...ed25519.PublicKey) ([]solana.AddressLookupTable, error) {
	tables := make([]solana.AddressLookupTable, len(addresses))
	for i, address := range addresses {
		if table, ok := l.tables.Retrieve(string(address)); ok {
			tables[i] = table
			continue
		}

		table, err := Fetch(l.client, address, l.commitment)
		if err != nil {
			return nil, err
		}

		// Tables larger than the whole budget are served uncached.
		_ = l.tables.Insert(string(address), table, len(table.Addresses)+1)
		tables[i] = table
	}
	return tables, nil
}

// Invalidate drops any cached copy of the table at address.
func (l *Loader) Invalidate(address ed25519.PublicKey) {
	l.tables.Delete(string(address))
}
