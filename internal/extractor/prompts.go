package extractor

// The extraction model is asked for exactly one JSON object with the
// metadata and transactions keys; everything else on the page is discarded.
const systemPrompt = "You are a helpful financial assistant. Output valid JSON."

const promptTemplate = `Analyze the text from a bank statement page and output a JSON object containing both account details and transactions.

JSON STRUCTURE:
{
    "metadata": {
        "account_holder": "Name found (or null)",
        "account_number": "Account number found (or null)",
        "statement_period": "Dates found (or null)",
        "bank_name": "Bank Name (or null)"
    },
    "transactions": [
        {
            "date": "MM/DD",
            "merchant": "Name",
            "amount": "-50.00",
            "type": "spending",
            "running_balance": "450.00"
        }
    ]
}

RULES:
1. TRANSACTIONS: Extract every line item, in the order it appears on the page.
2. AMOUNT vs BALANCE:
   - The transaction amount is usually the smaller number (negative for spending).
   - The running balance is usually the larger number at the end of the row.
   - STORE THEM IN SEPARATE FIELDS. Do not confuse them.
3. SPENDING: Ensure spending amounts are negative (e.g., -4.10).
4. IF NO BALANCE FOUND: Set "running_balance" to null for that row.
5. Output STRICT JSON only. Do not wrap the response in code fences.

RAW PAGE TEXT:
%s`
