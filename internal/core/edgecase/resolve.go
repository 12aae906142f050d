package edgecase

import (
	"fmt"
	"strings"

	"github.com/Rust-Frog/Accounting-System-sub002/internal/core/domain"
)

// approvalPriority maps flags to approval types, most important first.
var approvalPriority = []struct {
	flags []domain.EdgeCaseType
	typ   domain.ApprovalType
}{
	{[]domain.EdgeCaseType{domain.FlagNegativeBalance}, domain.ApprovalNegativeBalance},
	{[]domain.EdgeCaseType{domain.FlagAssetWritedown}, domain.ApprovalAssetWritedown},
	{[]domain.EdgeCaseType{domain.FlagLargeAmount}, domain.ApprovalHighValue},
	{[]domain.EdgeCaseType{domain.FlagFutureDated}, domain.ApprovalFutureDated},
	{[]domain.EdgeCaseType{domain.FlagBackdated}, domain.ApprovalBackdated},
	{[]domain.EdgeCaseType{domain.FlagContraRevenue, domain.FlagContraExpense}, domain.ApprovalContraEntry},
}

// NeedsApproval reports whether posting must wait for a reviewer.
func NeedsApproval(result domain.EdgeCaseDetectionResult, exceedsThreshold bool) bool {
	return exceedsThreshold || result.HasFlags()
}

// ResolveApproval picks the approval type for a detection result. The first matching category
// names the type; every flag is carried in the reason for audit. The second return is false
// when nothing requires approval.
func ResolveApproval(result domain.EdgeCaseDetectionResult, exceedsThreshold bool) (domain.ApprovalReason, bool) {
	if !NeedsApproval(result, exceedsThreshold) {
		return domain.ApprovalReason{}, false
	}

	typ := domain.ApprovalEdgeCase
	matched := false
	for _, p := range approvalPriority {
		for _, f := range p.flags {
			if result.Has(f) {
				typ, matched = p.typ, true
				break
			}
		}
		if matched {
			break
		}
	}
	if !matched && exceedsThreshold {
		typ = domain.ApprovalHighValue
	}

	descriptions := make([]string, 0, len(result.Flags)+1)
	for _, f := range result.Flags {
		descriptions = append(descriptions, f.Description)
	}
	if exceedsThreshold {
		descriptions = append(descriptions, "Amount exceeds the company approval threshold")
	}

	flagNames := make([]string, len(result.Flags))
	for i, f := range result.Flags {
		flagNames[i] = string(f.Type)
	}

	return domain.ApprovalReason{
		Type:    typ,
		Summary: fmt.Sprintf("%s: %s", typ, strings.Join(descriptions, "; ")),
		Flags:   append([]domain.EdgeCaseFlag(nil), result.Flags...),
		Details: map[string]any{
			"flagTypes":        flagNames,
			"exceedsThreshold": exceedsThreshold,
		},
	}, true
}
