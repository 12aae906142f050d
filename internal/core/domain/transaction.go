package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/apperrors"
	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/hashchain"
)

// EntityTypeTransaction is the entity type used by approvals and activity records.
const EntityTypeTransaction = "transaction"

// DateLayout is the textual form of a transaction date.
const DateLayout = "2006-01-02"

// TransactionStatus is the lifecycle state of a transaction.
type TransactionStatus string

const (
	StatusDraft  TransactionStatus = "DRAFT"
	StatusPosted TransactionStatus = "POSTED"
	StatusVoided TransactionStatus = "VOIDED"
)

// Business rule identifiers raised by the transaction aggregate.
const (
	RuleTransactionNotDraft     = "transaction.not_draft"
	RuleTransactionNotPosted    = "transaction.not_posted"
	RuleTransactionMinLines     = "transaction.min_lines"
	RuleTransactionBothSides    = "transaction.both_sides"
	RuleTransactionUnbalanced   = "transaction.unbalanced"
	RuleTransactionCurrency     = "transaction.currency"
	RuleTransactionVoidReason   = "transaction.void_reason"
	RuleTransactionActor        = "transaction.actor"
	RuleTransactionLineInvalid  = "transaction.line_invalid"
	RuleTransactionFieldMissing = "transaction.field_missing"
)

// TransactionLine is one debit or credit. It is a value: once built it never changes.
type TransactionLine struct {
	LineID    string `json:"lineID"`
	AccountID string `json:"accountID"`
	Side      Side   `json:"side"`
	Amount    Money  `json:"amount"`
	Memo      string `json:"memo,omitempty"`
}

// NewTransactionLine validates and builds a line. The amount must be positive.
func NewTransactionLine(lineID, accountID string, side Side, amount Money, memo string) (TransactionLine, error) {
	if strings.TrimSpace(accountID) == "" {
		return TransactionLine{}, apperrors.NewBusinessRuleError(RuleTransactionLineInvalid, "line account reference is required")
	}
	if !side.IsValid() {
		return TransactionLine{}, apperrors.NewBusinessRuleError(RuleTransactionLineInvalid, fmt.Sprintf("line side %q must be DEBIT or CREDIT", side))
	}
	if !amount.IsPositive() {
		return TransactionLine{}, apperrors.NewBusinessRuleError(RuleTransactionLineInvalid, "line amount must be positive")
	}
	return TransactionLine{LineID: lineID, AccountID: accountID, Side: side, Amount: amount, Memo: memo}, nil
}

func (l TransactionLine) canonical() map[string]any {
	return map[string]any{
		"accountId":   l.AccountID,
		"side":        string(l.Side),
		"amountCents": l.Amount.Cents,
		"memo":        l.Memo,
	}
}

// Transaction is the aggregate root of the posting pipeline.
type Transaction struct {
	TransactionID string            `json:"transactionID"`
	CompanyID     string            `json:"companyID"`
	Date          time.Time         `json:"date"`
	Description   string            `json:"description"`
	CurrencyCode  string            `json:"currencyCode"`
	Status        TransactionStatus `json:"status"`
	PostedAt      *time.Time        `json:"postedAt,omitempty"`
	PostedBy      string            `json:"postedBy,omitempty"`
	VoidedAt      *time.Time        `json:"voidedAt,omitempty"`
	VoidedBy      string            `json:"voidedBy,omitempty"`
	VoidReason    string            `json:"voidReason,omitempty"`
	AuditFields

	lines []TransactionLine
	eventRecorder
}

// NewTransactionParams carries what is needed to open a draft.
type NewTransactionParams struct {
	TransactionID string
	CompanyID     string
	Date          time.Time
	Description   string
	CurrencyCode  string
	CreatedBy     string
	Now           time.Time
}

// NewTransaction opens a DRAFT transaction and records TransactionCreated.
func NewTransaction(p NewTransactionParams) (*Transaction, error) {
	switch {
	case p.TransactionID == "":
		return nil, apperrors.NewBusinessRuleError(RuleTransactionFieldMissing, "transaction id is required")
	case p.CompanyID == "":
		return nil, apperrors.NewBusinessRuleError(RuleTransactionFieldMissing, "company is required")
	case p.CurrencyCode == "":
		return nil, apperrors.NewBusinessRuleError(RuleTransactionFieldMissing, "currency is required")
	case p.CreatedBy == "":
		return nil, apperrors.NewBusinessRuleError(RuleTransactionActor, "creator is required")
	}

	t := &Transaction{
		TransactionID: p.TransactionID,
		CompanyID:     p.CompanyID,
		Date:          TruncateToDate(p.Date),
		Description:   strings.TrimSpace(p.Description),
		CurrencyCode:  p.CurrencyCode,
		Status:        StatusDraft,
		AuditFields:   NewAuditFields(p.CreatedBy, p.Now),
	}
	t.record(NewDomainEvent(EventTransactionCreated, p.Now, t.CompanyID, p.CreatedBy, EntityTypeTransaction, t.TransactionID, map[string]any{
		"transactionId": t.TransactionID,
		"date":          t.Date.Format(DateLayout),
		"currency":      t.CurrencyCode,
	}))
	return t, nil
}

// RehydrateTransaction rebuilds an aggregate from storage without raising events.
func RehydrateTransaction(state Transaction, lines []TransactionLine) *Transaction {
	t := state
	t.lines = append([]TransactionLine(nil), lines...)
	t.eventRecorder = eventRecorder{}
	return &t
}

// TruncateToDate drops the time of day, keeping the calendar date in UTC.
func TruncateToDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Lines returns a copy of the ordered line list.
func (t *Transaction) Lines() []TransactionLine {
	out := make([]TransactionLine, len(t.lines))
	copy(out, t.lines)
	return out
}

// AccountIDs returns the distinct accounts referenced by the lines, in first-seen order.
func (t *Transaction) AccountIDs() []string {
	seen := make(map[string]bool, len(t.lines))
	ids := make([]string, 0, len(t.lines))
	for _, l := range t.lines {
		if !seen[l.AccountID] {
			seen[l.AccountID] = true
			ids = append(ids, l.AccountID)
		}
	}
	return ids
}

func (t *Transaction) IsDraft() bool  { return t.Status == StatusDraft }
func (t *Transaction) IsPosted() bool { return t.Status == StatusPosted }
func (t *Transaction) IsVoided() bool { return t.Status == StatusVoided }

// AddLine appends a line. Only DRAFT transactions accept lines.
func (t *Transaction) AddLine(line TransactionLine) error {
	if t.Status != StatusDraft {
		return apperrors.NewBusinessRuleError(RuleTransactionNotDraft, fmt.Sprintf("cannot add lines to a %s transaction", t.Status))
	}
	if line.Amount.Currency != t.CurrencyCode {
		return apperrors.NewBusinessRuleError(RuleTransactionCurrency, fmt.Sprintf("line currency %s does not match transaction currency %s", line.Amount.Currency, t.CurrencyCode))
	}
	t.lines = append(t.lines, line)
	return nil
}

// Totals returns the summed debit and credit cents.
func (t *Transaction) Totals() (debits, credits int64) {
	for _, l := range t.lines {
		if l.Side == Debit {
			debits += l.Amount.Cents
		} else {
			credits += l.Amount.Cents
		}
	}
	return debits, credits
}

// Amount is the economic value of the transaction: the debit total.
func (t *Transaction) Amount() Money {
	debits, _ := t.Totals()
	return Money{Cents: debits, Currency: t.CurrencyCode}
}

// CheckDoubleEntry enforces the posting invariant: at least two lines, both sides present,
// and debits equal to credits to the cent.
func (t *Transaction) CheckDoubleEntry() error {
	if len(t.lines) < 2 {
		return apperrors.NewBusinessRuleError(RuleTransactionMinLines, "a transaction needs at least two lines")
	}
	var hasDebit, hasCredit bool
	for _, l := range t.lines {
		switch l.Side {
		case Debit:
			hasDebit = true
		case Credit:
			hasCredit = true
		}
	}
	if !hasDebit || !hasCredit {
		return apperrors.NewBusinessRuleError(RuleTransactionBothSides, "a transaction needs at least one debit and one credit line")
	}
	debits, credits := t.Totals()
	if debits != credits {
		return apperrors.NewBusinessRuleError(RuleTransactionUnbalanced, fmt.Sprintf("transaction is unbalanced: debits %d != credits %d", debits, credits))
	}
	return nil
}

// Post moves a DRAFT transaction to POSTED after the double-entry check.
func (t *Transaction) Post(actor string, now time.Time) error {
	if t.Status != StatusDraft {
		return apperrors.NewBusinessRuleError(RuleTransactionNotDraft, fmt.Sprintf("cannot post a %s transaction", t.Status))
	}
	if actor == "" {
		return apperrors.NewBusinessRuleError(RuleTransactionActor, "posting requires an actor")
	}
	if err := t.CheckDoubleEntry(); err != nil {
		return err
	}

	postedAt := now.UTC()
	t.Status = StatusPosted
	t.PostedAt = &postedAt
	t.PostedBy = actor
	t.touch(actor, postedAt)

	debits, _ := t.Totals()
	t.record(NewDomainEvent(EventTransactionPosted, postedAt, t.CompanyID, actor, EntityTypeTransaction, t.TransactionID, map[string]any{
		"transactionId": t.TransactionID,
		"postedAt":      postedAt.Format(time.RFC3339Nano),
		"amountCents":   debits,
		"currency":      t.CurrencyCode,
		"lineCount":     len(t.lines),
	}))
	return nil
}

// Void moves a POSTED transaction to VOIDED. VOIDED is terminal.
func (t *Transaction) Void(reason, actor string, now time.Time) error {
	if t.Status != StatusPosted {
		return apperrors.NewBusinessRuleError(RuleTransactionNotPosted, fmt.Sprintf("cannot void a %s transaction", t.Status))
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return apperrors.NewBusinessRuleError(RuleTransactionVoidReason, "a void reason is required")
	}
	if actor == "" {
		return apperrors.NewBusinessRuleError(RuleTransactionActor, "voiding requires an actor")
	}

	voidedAt := now.UTC()
	t.Status = StatusVoided
	t.VoidedAt = &voidedAt
	t.VoidedBy = actor
	t.VoidReason = reason
	t.touch(actor, voidedAt)

	t.record(NewDomainEvent(EventTransactionVoided, voidedAt, t.CompanyID, actor, EntityTypeTransaction, t.TransactionID, map[string]any{
		"transactionId": t.TransactionID,
		"voidedAt":      voidedAt.Format(time.RFC3339Nano),
		"reason":        reason,
	}))
	return nil
}

// CanonicalContent is the business content covered by content hashes and approval proofs.
// Status and audit stamps are excluded so the hash is stable across the lifecycle.
func (t *Transaction) CanonicalContent() map[string]any {
	lines := make([]any, len(t.lines))
	for i, l := range t.lines {
		lines[i] = l.canonical()
	}
	return map[string]any{
		"transactionId": t.TransactionID,
		"companyId":     t.CompanyID,
		"date":          t.Date.Format(DateLayout),
		"description":   t.Description,
		"currency":      t.CurrencyCode,
		"lines":         lines,
	}
}

// ContentHash hashes CanonicalContent.
func (t *Transaction) ContentHash() string {
	return hashchain.MustContentHash(t.CanonicalContent())
}
