package extractor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validPageJSON = `{
  "metadata": {
    "account_holder": "Rohit Narwal",
    "account_number": "1234",
    "statement_period": "01/01 - 01/31",
    "bank_name": "Chase"
  },
  "transactions": [
    {"date": "01/05", "merchant": "Winco Foods", "amount": "-42.17", "type": "spending", "running_balance": "512.83"},
    {"date": "01/07", "merchant": "Payroll", "amount": "1500.00", "type": "deposit", "running_balance": null}
  ]
}`

// fakeCompleter returns a canned response and records what it was asked.
type fakeCompleter struct {
	response string
	err      error
	system   string
	user     string
	calls    int
}

func (f *fakeCompleter) Complete(_ context.Context, system, user string) (string, error) {
	f.calls++
	f.system = system
	f.user = user
	return f.response, f.err
}

func TestExtract_ValidJSON(t *testing.T) {
	llm := &fakeCompleter{response: validPageJSON}
	ex := New(llm)

	result, rawJSON, err := ex.Extract(context.Background(), "raw statement page text", 0)
	require.NoError(t, err)

	require.NotNil(t, result.Metadata.AccountHolder)
	assert.Equal(t, "Rohit Narwal", *result.Metadata.AccountHolder)
	require.Len(t, result.Transactions, 2)
	assert.Equal(t, "-42.17", result.Transactions[0].Amount)
	assert.Equal(t, "Winco Foods", result.Transactions[0].Merchant)
	assert.Nil(t, result.Transactions[1].RunningBalance)

	// The JSON string is what gets embedded; it must parse back to the result.
	assert.True(t, strings.HasPrefix(rawJSON, "{"))
	assert.Contains(t, rawJSON, "Winco Foods")

	assert.Contains(t, llm.user, "raw statement page text")
	assert.Contains(t, llm.system, "valid JSON")
}

func TestExtract_FencedJSON(t *testing.T) {
	llm := &fakeCompleter{response: "```json\n" + validPageJSON + "\n```"}
	ex := New(llm)

	result, rawJSON, err := ex.Extract(context.Background(), "page", 0)
	require.NoError(t, err)
	assert.Len(t, result.Transactions, 2)
	assert.False(t, strings.Contains(rawJSON, "```"))
}

func TestExtract_Failures(t *testing.T) {
	tests := []struct {
		name     string
		response string
		reason   string
	}{
		{"malformed json", `{"metadata": {`, "malformed JSON"},
		{"empty response", "   ", "empty response"},
		{"prose instead of json", "I could not find any transactions, sorry.", "malformed JSON"},
		{"missing transactions", `{"metadata": {}}`, "missing transactions key"},
		{"missing metadata", `{"transactions": []}`, "missing metadata key"},
		{"wrong transaction shape", `{"metadata": {}, "transactions": [{"amount": 12}]}`, "schema mismatch"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := New(&fakeCompleter{response: tt.response})
			_, _, err := ex.Extract(context.Background(), "page", 3)

			var failure *Failure
			require.ErrorAs(t, err, &failure)
			assert.Equal(t, 3, failure.PageIndex)
			assert.Equal(t, tt.reason, failure.Reason)
		})
	}
}

func TestExtract_TransportErrorIsNotAFailure(t *testing.T) {
	transportErr := errors.New("connection refused")
	ex := New(&fakeCompleter{err: transportErr})

	_, _, err := ex.Extract(context.Background(), "page", 0)
	require.Error(t, err)

	var failure *Failure
	assert.False(t, errors.As(err, &failure), "transport errors must propagate, not skip the page")
	assert.ErrorIs(t, err, transportErr)
}

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fence without language", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"chatter around object", "Here you go:\n{\"a\":1}\nHope that helps!", `{"a":1}`},
		{"whitespace", "  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanModelJSON(tt.in))
		})
	}
}
