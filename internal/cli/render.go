package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/roach88/tally/internal/ledger"
	"github.com/roach88/tally/internal/query"
)

// accountView is the JSON/text projection of an account.
type accountView struct {
	ID        string `json:"id"`
	Owner     string `json:"owner"`
	Balance   string `json:"balance"`
	Version   int64  `json:"version"`
	CreatedAt string `json:"created_at"`
	Archived  bool   `json:"archived,omitempty"`
}

func viewAccount(acc ledger.Account) accountView {
	return accountView{
		ID:        acc.ID,
		Owner:     acc.Owner,
		Balance:   ledger.FormatAmount(acc.Balance),
		Version:   acc.Version,
		CreatedAt: acc.CreatedAt.Format(time.RFC3339),
		Archived:  acc.Archived(),
	}
}

func (v accountView) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n", v.Owner, v.ID)
	fmt.Fprintf(&b, "  balance: %s\n", v.Balance)
	fmt.Fprintf(&b, "  version: %d", v.Version)
	if v.Archived {
		b.WriteString("\n  archived: true")
	}
	return b.String()
}

// recordView is the JSON/text projection of a transaction record.
type recordView struct {
	ID            int64  `json:"id,omitempty"`
	Kind          string `json:"kind"`
	Amount        string `json:"amount"`
	Signed        string `json:"signed_amount"`
	Timestamp     string `json:"timestamp"`
	Seq           int64  `json:"seq"`
	CorrelationID string `json:"correlation_id"`
	Note          string `json:"note,omitempty"`
}

func viewRecord(rec ledger.TransactionRecord) recordView {
	signed := ledger.FormatAmount(rec.SignedAmount())
	if rec.Kind.Credits() {
		signed = "+" + signed
	}
	return recordView{
		ID:            rec.ID,
		Kind:          string(rec.Kind),
		Amount:        ledger.FormatAmount(rec.Amount),
		Signed:        signed,
		Timestamp:     rec.Timestamp.Format(time.RFC3339Nano),
		Seq:           rec.Seq,
		CorrelationID: rec.CorrelationID,
		Note:          rec.Note,
	}
}

func (v recordView) String() string {
	line := fmt.Sprintf("%-12s %12s  %s  seq=%d", v.Kind, v.Signed, v.Timestamp, v.Seq)
	if v.Note != "" {
		line += "  " + v.Note
	}
	return line
}

// historyView is one page of history.
type historyView struct {
	AccountID  string       `json:"account_id"`
	Records    []recordView `json:"records"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

func viewHistory(accountID string, page query.Page) historyView {
	return historyView{
		AccountID:  accountID,
		Records:    lo.Map(page.Records, func(rec ledger.TransactionRecord, _ int) recordView { return viewRecord(rec) }),
		NextCursor: page.NextCursor.Encode(),
	}
}

func (v historyView) String() string {
	if len(v.Records) == 0 {
		return "no transactions"
	}
	lines := lo.Map(v.Records, func(r recordView, _ int) string { return r.String() })
	out := strings.Join(lines, "\n")
	if v.NextCursor != "" {
		out += fmt.Sprintf("\nmore: --cursor %s", v.NextCursor)
	}
	return out
}

// transferView is the result of a transfer.
type transferView struct {
	CorrelationID string      `json:"correlation_id"`
	From          accountView `json:"from"`
	To            accountView `json:"to"`
	Amount        string      `json:"amount"`
	LogPending    bool        `json:"log_pending,omitempty"`
}

func (v transferView) String() string {
	out := fmt.Sprintf("transferred %s: %s -> %s\n  %s balance: %s\n  %s balance: %s",
		v.Amount, v.From.Owner, v.To.Owner,
		v.From.Owner, v.From.Balance, v.To.Owner, v.To.Balance)
	if v.LogPending {
		out += "\n  note: transaction log append pending"
	}
	return out
}

// mutationView is the result of a deposit or withdrawal.
type mutationView struct {
	Account    accountView `json:"account"`
	Record     recordView  `json:"record"`
	LogPending bool        `json:"log_pending,omitempty"`
}

func (v mutationView) String() string {
	out := fmt.Sprintf("%s %s for %s\n  balance: %s", v.Record.Kind, v.Record.Amount, v.Account.Owner, v.Account.Balance)
	if v.LogPending {
		out += "\n  note: transaction log append pending"
	}
	return out
}
