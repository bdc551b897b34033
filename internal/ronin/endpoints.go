package ronin

import (
	"context"
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
)

// TransactionList is the wire shape of the archive list endpoints.
type TransactionList struct {
	Transactions []string `json:"transactions"`
}

// TransactionSummary is the wire shape of getTransaction. Addresses are kept
// as the raw strings the service returned.
type TransactionSummary struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Hash        string `json:"hash"`
	BlockNumber uint64 `json:"blockNumber"`
}

// IsSelfTransfer reports whether the transaction sends to its own sender.
// Addresses are compared in parsed form when both sides parse, so casing
// differences don't hide a self transfer; otherwise the raw strings decide.
func (s *TransactionSummary) IsSelfTransfer() bool {
	if common.IsHexAddress(s.From) && common.IsHexAddress(s.To) {
		return common.HexToAddress(s.From) == common.HexToAddress(s.To)
	}
	return s.From == s.To
}

// ListSentTransactions returns the hashes of all transactions sent by address.
func (c *Client) ListSentTransactions(ctx context.Context, address string) ([]string, error) {
	var list TransactionList
	if err := c.get(ctx, "listSentTransactions", "/archive/listSentTransactions/"+address, &list); err != nil {
		return nil, err
	}
	return list.Transactions, nil
}

// ListReceivedTransactions returns the hashes of all transactions received by address.
func (c *Client) ListReceivedTransactions(ctx context.Context, address string) ([]string, error) {
	var list TransactionList
	if err := c.get(ctx, "listReceivedTransactions", "/archive/listReceivedTransactions/"+address, &list); err != nil {
		return nil, err
	}
	return list.Transactions, nil
}

// GetTransaction fetches the summary for a transaction hash.
func (c *Client) GetTransaction(ctx context.Context, hash string) (*TransactionSummary, error) {
	var summary TransactionSummary
	if err := c.get(ctx, "getTransaction", "/ronin/getTransaction/"+hash, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// DecodeTransaction returns the decoded method call for a transaction hash.
// The payload schema varies per contract, so it stays opaque.
func (c *Client) DecodeTransaction(ctx context.Context, hash string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.get(ctx, "decodeTransaction", "/ronin/decodeTransaction/"+hash, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// DecodeTransactionReceipt returns the decoded execution receipt for a
// transaction hash, kept opaque like DecodeTransaction.
func (c *Client) DecodeTransactionReceipt(ctx context.Context, hash string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.get(ctx, "decodeTransactionReceipt", "/ronin/decodeTransactionReceipt/"+hash, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
