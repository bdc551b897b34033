// Package archive defines the enriched transaction record and writes the
// per-address archive file.
package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// EnrichedTransaction is a single record of the output archive. Input and
// Output carry the decoded method call and execution receipt exactly as the
// service returned them; nil serializes as null.
type EnrichedTransaction struct {
	From        string          `json:"from"`
	To          string          `json:"to"`
	Hash        string          `json:"hash"`
	BlockNumber uint64          `json:"blockNumber"`
	Input       json.RawMessage `json:"input"`
	Output      json.RawMessage `json:"output"`
}

// Write serializes transactions as an indented JSON array to <address>.json
// inside dir, overwriting any existing file. A run with no transactions still
// produces a file holding an empty array.
func Write(dir, address string, transactions []EnrichedTransaction) (string, error) {
	if transactions == nil {
		transactions = []EnrichedTransaction{}
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(dir, address+".json")
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create archive file: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(transactions); err != nil {
		return "", fmt.Errorf("failed to encode archive: %w", err)
	}

	return path, nil
}

// Read loads an archive file written by Write.
func Read(path string) ([]EnrichedTransaction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive file: %w", err)
	}

	var transactions []EnrichedTransaction
	if err := json.Unmarshal(data, &transactions); err != nil {
		return nil, fmt.Errorf("failed to parse archive: %w", err)
	}
	return transactions, nil
}
