package solana

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

const (
	// MaxTransactionSize is the largest serialized transaction a validator
	// will accept in a single packet.
	MaxTransactionSize = 1232
)

var (
	ErrUnknownSigner = errors.New("signer is not a required signer of the transaction")
)

type Signature [ed25519.SignatureSize]byte
type Blockhash [sha256.Size]byte

type MessageVersion uint8

const (
	MessageVersionLegacy MessageVersion = iota
	MessageVersion0
)

type Header struct {
	NumSignatures     byte
	NumReadonlySigned byte
	NumReadOnly       byte
}

// MessageAddressTableLookup references the accounts a v0 message loads from
// a single address lookup table.
type MessageAddressTableLookup struct {
	PublicKey       ed25519.PublicKey
	WritableIndexes []byte
	ReadonlyIndexes []byte
}

type Message struct {
	Version             MessageVersion
	Header              Header
	Accounts            []ed25519.PublicKey
	RecentBlockhash     Blockhash
	Instructions        []CompiledInstruction
	AddressTableLookups []MessageAddressTableLookup
}

type Transaction struct {
	Signatures []Signature
	Message    Message
}

// NewLegacyTransaction compiles instructions into a legacy transaction where
// every account is listed statically.
func NewLegacyTransaction(payer ed25519.PublicKey, instructions ...Instruction) Transaction {
	return compile(MessageVersionLegacy, payer, nil, instructions)
}

// NewV0Transaction compiles instructions into a v0 transaction. Accounts that
// are neither signers nor invoked programs are loaded from the first lookup
// table, in key order, that contains them.
func NewV0Transaction(payer ed25519.PublicKey, lookupTables []AddressLookupTable, instructions []Instruction) Transaction {
	return compile(MessageVersion0, payer, lookupTables, instructions)
}

func compile(version MessageVersion, payer ed25519.PublicKey, lookupTables []AddressLookupTable, instructions []Instruction) Transaction {
	accounts := []AccountMeta{
		{
			PublicKey:  payer,
			IsSigner:   true,
			IsWritable: true,
			isPayer:    true,
		},
	}
	for _, ixn := range instructions {
		accounts = append(accounts, AccountMeta{
			PublicKey: ixn.Program,
			isProgram: true,
		})
		accounts = append(accounts, ixn.Accounts...)
	}

	// Payer first, then signers, then writable accounts, with programs last.
	accounts = mergeAccountMetas(accounts)
	sort.Sort(SortableAccountMeta(accounts))

	tables := make([]AddressLookupTable, len(lookupTables))
	copy(tables, lookupTables)
	sort.Sort(SortableAddressLookupTables(tables))

	lookups := make([]MessageAddressTableLookup, len(tables))
	for i, table := range tables {
		lookups[i].PublicKey = table.PublicKey
	}

	m := Message{Version: version}
	for _, account := range accounts {
		if version == MessageVersion0 && account.isLoadable() {
			if tableIndex, addressIndex, ok := findInTables(tables, account.PublicKey); ok {
				if account.IsWritable {
					lookups[tableIndex].WritableIndexes = append(lookups[tableIndex].WritableIndexes, addressIndex)
				} else {
					lookups[tableIndex].ReadonlyIndexes = append(lookups[tableIndex].ReadonlyIndexes, addressIndex)
				}
				continue
			}
		}

		m.Accounts = append(m.Accounts, account.PublicKey)

		switch {
		case account.IsSigner:
			m.Header.NumSignatures++
			if !account.IsWritable {
				m.Header.NumReadonlySigned++
			}
		case !account.IsWritable:
			m.Header.NumReadOnly++
		}
	}

	for _, lookup := range lookups {
		if len(lookup.WritableIndexes) > 0 || len(lookup.ReadonlyIndexes) > 0 {
			m.AddressTableLookups = append(m.AddressTableLookups, lookup)
		}
	}

	// Instruction indexes address static accounts, then every table's
	// writable loads, then every table's readonly loads.
	positions := make(map[string]byte)
	next := 0
	assign := func(key ed25519.PublicKey) {
		if _, ok := positions[string(key)]; !ok {
			positions[string(key)] = byte(next)
		}
		next++
	}
	for _, key := range m.Accounts {
		assign(key)
	}
	for _, lookup := range m.AddressTableLookups {
		table := tables[tableIndexOf(tables, lookup.PublicKey)]
		for _, index := range lookup.WritableIndexes {
			assign(table.Addresses[index])
		}
	}
	for _, lookup := range m.AddressTableLookups {
		table := tables[tableIndexOf(tables, lookup.PublicKey)]
		for _, index := range lookup.ReadonlyIndexes {
			assign(table.Addresses[index])
		}
	}

	for _, ixn := range instructions {
		compiled := CompiledInstruction{
			ProgramIndex: positions[string(ixn.Program)],
			Data:         ixn.Data,
			Accounts:     make([]byte, len(ixn.Accounts)),
		}
		for i, account := range ixn.Accounts {
			compiled.Accounts[i] = positions[string(account.PublicKey)]
		}
		m.Instructions = append(m.Instructions, compiled)
	}

	for i := range m.Accounts {
		if len(m.Accounts[i]) == 0 {
			m.Accounts[i] = make([]byte, ed25519.PublicKeySize)
		}
	}

	return Transaction{
		Signatures: make([]Signature, m.Header.NumSignatures),
		Message:    m,
	}
}

// mergeAccountMetas collapses repeated keys into a single meta carrying the
// union of their permissions, preserving first-seen order.
func mergeAccountMetas(accounts []AccountMeta) []AccountMeta {
	merged := make([]AccountMeta, 0, len(accounts))
	seen := make(map[string]int, len(accounts))

	for _, account := range accounts {
		i, ok := seen[string(account.PublicKey)]
		if !ok {
			seen[string(account.PublicKey)] = len(merged)
			merged = append(merged, account)
			continue
		}

		merged[i].IsSigner = merged[i].IsSigner || account.IsSigner
		merged[i].IsWritable = merged[i].IsWritable || account.IsWritable
		merged[i].isPayer = merged[i].isPayer || account.isPayer
		merged[i].isProgram = merged[i].isProgram || account.isProgram
	}

	return merged
}

func findInTables(tables []AddressLookupTable, key ed25519.PublicKey) (int, byte, bool) {
	for i, table := range tables {
		for j, address := range table.Addresses {
			if bytes.Equal(address, key) {
				return i, byte(j), true
			}
		}
	}
	return 0, 0, false
}

func tableIndexOf(tables []AddressLookupTable, key ed25519.PublicKey) int {
	for i, table := range tables {
		if bytes.Equal(table.PublicKey, key) {
			return i
		}
	}
	return -1
}

func (t *Transaction) Signature() []byte {
	return t.Signatures[0][:]
}

func (t *Transaction) SetBlockhash(bh Blockhash) {
	t.Message.RecentBlockhash = bh
}

// Sign signs the current message with each signer, placing every signature
// at the position of its key in the static account list. Signers may be
// provided in any order.
func (t *Transaction) Sign(signers ...ed25519.PrivateKey) error {
	message := t.Message.Marshal()

	for _, signer := range signers {
		pub := signer.Public().(ed25519.PublicKey)

		index := indexOf(t.Message.Accounts, pub)
		if index < 0 || index >= len(t.Signatures) {
			return errors.Wrap(ErrUnknownSigner, base58.Encode(pub))
		}

		copy(t.Signatures[index][:], ed25519.Sign(signer, message))
	}

	return nil
}

func (t *Transaction) String() string {
	var sb strings.Builder
	sb.WriteString("Signatures:\n")
	for i, s := range t.Signatures {
		fmt.Fprintf(&sb, "  %d: %s\n", i, base58.Encode(s[:]))
	}

	m := t.Message
	sb.WriteString("Message:\n")
	fmt.Fprintf(&sb, "  Version: %s\n", m.Version)
	fmt.Fprintf(&sb, "  Header: %d/%d/%d\n", m.Header.NumSignatures, m.Header.NumReadonlySigned, m.Header.NumReadOnly)
	fmt.Fprintf(&sb, "  Blockhash: %s\n", base58.Encode(m.RecentBlockhash[:]))
	sb.WriteString("  Static Accounts:\n")
	for i, a := range m.Accounts {
		fmt.Fprintf(&sb, "    %d: %s\n", i, base58.Encode(a))
	}
	sb.WriteString("  Instructions:\n")
	for i, ixn := range m.Instructions {
		fmt.Fprintf(&sb, "    %d: program=%d accounts=%v data=%x\n", i, ixn.ProgramIndex, ixn.Accounts, ixn.Data)
	}
	if len(m.AddressTableLookups) > 0 {
		sb.WriteString("  Address Table Lookups:\n")
		for _, lookup := range m.AddressTableLookups {
			fmt.Fprintf(&sb, "    %s: writable=%v readonly=%v\n", base58.Encode(lookup.PublicKey), lookup.WritableIndexes, lookup.ReadonlyIndexes)
		}
	}
	return sb.String()
}

func indexOf(slice []ed25519.PublicKey, item ed25519.PublicKey) int {
	for i, val := range slice {
		if bytes.Equal(val, item) {
			return i
		}
	}

	return -1
}

func (v MessageVersion) String() string {
	switch v {
	case MessageVersionLegacy:
		return "legacy"
	case MessageVersion0:
		return "v0"
	}
	return "unknown"
}
