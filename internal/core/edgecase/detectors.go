package edgecase

import (
	"fmt"
	"sort"
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
)

const day = 24 * 60 * 60 // seconds

// DetectTiming flags dates beyond the future-dating window or before the backdating window.
func DetectTiming(in Input, th domain.EdgeCaseThresholds) []domain.EdgeCaseFlag {
	if in.Date.IsZero() || in.Now.IsZero() {
		return nil
	}
	date := domain.TruncateToDate(in.Date)
	today := domain.TruncateToDate(in.Now)
	days := int((date.Unix() - today.Unix()) / day)

	switch {
	case days > th.FutureDatingWindowDays:
		return []domain.EdgeCaseFlag{{
			Type:        domain.FlagFutureDated,
			Description: fmt.Sprintf("Transaction is dated %d day(s) in the future", days),
			Details: map[string]any{
				"transactionDate": date.Format(domain.DateLayout),
				"daysAhead":       days,
				"windowDays":      th.FutureDatingWindowDays,
			},
		}}
	case -days > th.BackdatingWindowDays:
		return []domain.EdgeCaseFlag{{
			Type:        domain.FlagBackdated,
			Description: fmt.Sprintf("Transaction is backdated by %d day(s)", -days),
			Details: map[string]any{
				"transactionDate": date.Format(domain.DateLayout),
				"daysBehind":      -days,
				"windowDays":      th.BackdatingWindowDays,
			},
		}}
	}
	return nil
}

// DetectAmount flags totals above the large amount ceiling.
func DetectAmount(in Input, th domain.EdgeCaseThresholds) []domain.EdgeCaseFlag {
	total := totalDebits(in.Lines)
	if th.LargeAmountCents <= 0 || total <= th.LargeAmountCents {
		return nil
	}
	return []domain.EdgeCaseFlag{{
		Type:        domain.FlagLargeAmount,
		Description: fmt.Sprintf("Transaction amount %d exceeds the large amount threshold %d", total, th.LargeAmountCents),
		Details: map[string]any{
			"amountCents":    total,
			"thresholdCents": th.LargeAmountCents,
		},
	}}
}

// DetectAccountType flags entries that run against an account's usual direction:
// write-downs of non-cash assets, debits to revenue and credits to expense.
func DetectAccountType(in Input, _ domain.EdgeCaseThresholds) []domain.EdgeCaseFlag {
	expenseDebited := false
	for _, l := range in.Lines {
		if acc, ok := in.Accounts[l.AccountID]; ok && l.Side == domain.Debit && acc.AccountType == domain.Expense {
			expenseDebited = true
			break
		}
	}

	var flags []domain.EdgeCaseFlag
	for _, l := range in.Lines {
		acc, ok := in.Accounts[l.AccountID]
		if !ok {
			continue
		}
		details := map[string]any{
			"accountId":   acc.AccountID,
			"accountCode": acc.Code,
			"amountCents": l.Amount.Cents,
		}
		switch {
		case acc.AccountType == domain.Asset && l.Side == domain.Credit && !acc.IsCashLike() && expenseDebited:
			flags = append(flags, domain.EdgeCaseFlag{
				Type:        domain.FlagAssetWritedown,
				Description: fmt.Sprintf("Asset %s is written down against an expense", acc.Name),
				Details:     details,
			})
		case acc.AccountType == domain.Revenue && l.Side == domain.Debit:
			flags = append(flags, domain.EdgeCaseFlag{
				Type:        domain.FlagContraRevenue,
				Description: fmt.Sprintf("Revenue account %s is debited", acc.Name),
				Details:     details,
			})
		case acc.AccountType == domain.Expense && l.Side == domain.Credit:
			flags = append(flags, domain.EdgeCaseFlag{
				Type:        domain.FlagContraExpense,
				Description: fmt.Sprintf("Expense account %s is credited", acc.Name),
				Details:     details,
			})
		}
	}
	return flags
}

// vagueWords are descriptions that say nothing about the underlying event.
var vagueWords = []string{
	"misc",
	"miscellaneous",
	"adjustment",
	"correction",
	"other",
	"various",
	"sundry",
	"general",
	"entry",
	"fix",
	"test",
}

// VagueSimilarity is the levenshtein ratio at or above which a description counts as vague.
const VagueSimilarity = 0.8

// DetectDocumentation flags missing, short or generic descriptions.
func DetectDocumentation(in Input, th domain.EdgeCaseThresholds) []domain.EdgeCaseFlag {
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		return []domain.EdgeCaseFlag{{
			Type:        domain.FlagMissingDescription,
			Description: "Transaction has no description",
		}}
	}

	var flags []domain.EdgeCaseFlag
	if n := len([]rune(desc)); n < th.MinDescriptionLength {
		flags = append(flags, domain.EdgeCaseFlag{
			Type:        domain.FlagShortDescription,
			Description: fmt.Sprintf("Description is %d character(s), minimum is %d", n, th.MinDescriptionLength),
			Details:     map[string]any{"length": n, "minLength": th.MinDescriptionLength},
		})
	}
	if word, ratio, ok := closestVagueWord(desc); ok {
		flags = append(flags, domain.EdgeCaseFlag{
			Type:        domain.FlagVagueDescription,
			Description: fmt.Sprintf("Description %q is too generic", desc),
			Details:     map[string]any{"matched": word, "similarity": ratio},
		})
	}
	return flags
}

func closestVagueWord(desc string) (string, float64, bool) {
	normalized := []rune(strings.ToLower(strings.Trim(desc, " .!-_")))
	best, bestRatio := "", 0.0
	for _, w := range vagueWords {
		r := levenshtein.RatioForStrings(normalized, []rune(w), levenshtein.DefaultOptions)
		if r > bestRatio {
			best, bestRatio = w, r
		}
	}
	return best, bestRatio, bestRatio >= VagueSimilarity
}

// DetectBalanceImpact flags accounts whose projected balance drops below zero.
func DetectBalanceImpact(in Input, _ domain.EdgeCaseThresholds) []domain.EdgeCaseFlag {
	ids := make([]string, 0, len(in.Projected))
	for id := range in.Projected {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var flags []domain.EdgeCaseFlag
	for _, id := range ids {
		projected := in.Projected[id]
		if projected >= 0 {
			continue
		}
		name := id
		if acc, ok := in.Accounts[id]; ok {
			name = acc.Name
		}
		flags = append(flags, domain.EdgeCaseFlag{
			Type:        domain.FlagNegativeBalance,
			Description: fmt.Sprintf("Account %s would have a negative balance of %d", name, projected),
			Details:     map[string]any{"accountId": id, "projectedBalanceCents": projected},
		})
	}
	return flags
}
