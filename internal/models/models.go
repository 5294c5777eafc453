package models

import (
	"github.com/shopspring/decimal"
)

// Metadata holds the account details found on one statement page. Every
// field is optional; the extraction model emits null for anything it could
// not find.
type Metadata struct {
	AccountHolder   *string `json:"account_holder"`
	AccountNumber   *string `json:"account_number"`
	StatementPeriod *string `json:"statement_period"`
	BankName        *string `json:"bank_name"`
}

// Transaction is one line item from a statement page, in the order it
// appears on the page. Amounts are kept as the exact decimal strings the
// extraction produced; negative means spending, positive means a credit.
type Transaction struct {
	Date           string  `json:"date"` // MM/DD, no year on statements
	Merchant       string  `json:"merchant"`
	Amount         string  `json:"amount"`
	Type           string  `json:"type"`
	RunningBalance *string `json:"running_balance"`
}

// AmountDecimal parses the amount string without float rounding.
func (t Transaction) AmountDecimal() (decimal.Decimal, error) {
	return decimal.NewFromString(t.Amount)
}

// RunningBalanceDecimal parses the running balance. The bool is false when
// the page had no determinable balance for this row.
func (t Transaction) RunningBalanceDecimal() (decimal.Decimal, bool, error) {
	if t.RunningBalance == nil {
		return decimal.Decimal{}, false, nil
	}
	d, err := decimal.NewFromString(*t.RunningBalance)
	if err != nil {
		return decimal.Decimal{}, false, err
	}
	return d, true, nil
}

// ExtractionResult is the structured form of one statement page as produced
// by the language-model extraction step.
type ExtractionResult struct {
	Metadata     Metadata      `json:"metadata"`
	Transactions []Transaction `json:"transactions"`
}

// Total sums the parseable transaction amounts on the page. Unparseable
// amounts are skipped; the model is trusted for content accuracy and this
// figure is only used for logging.
func (r ExtractionResult) Total() decimal.Decimal {
	total := decimal.Zero
	for _, tx := range r.Transactions {
		d, err := tx.AmountDecimal()
		if err != nil {
			continue
		}
		total = total.Add(d)
	}
	return total
}

// PageRecord is the unit of storage: one statement page with its raw text,
// structured extraction, embedding vector and owning user.
type PageRecord struct {
	ID          string
	RawText     string
	Extraction  ExtractionResult
	RawJSON     string // the structured JSON string the embedding was computed over
	Embedding   []float32
	OwnerID     string
	ContentHash string
	PageNumber  int
}

// MatchedRecord is a PageRecord returned from similarity search together
// with its similarity score.
type MatchedRecord struct {
	PageRecord
	Similarity float64
}

// PageFailure records why one page of a document was not stored.
type PageFailure struct {
	Page   int
	Reason string
}

// IngestSummary reports the outcome of ingesting one document. Partial
// ingestion is a normal outcome, not an error: stored + skipped + duplicates
// always equals processed.
type IngestSummary struct {
	Processed  int // non-blank pages examined
	Blank      int
	Skipped    int
	Stored     int
	Duplicates int
	Failures   []PageFailure
}
