package dto

// UpdateThresholdsRequest replaces a company's edge-case thresholds.
type UpdateThresholdsRequest struct {
	LargeAmountCents       int64 `json:"largeAmountCents" binding:"required,min=1"`
	ApprovalThresholdCents int64 `json:"approvalThresholdCents" binding:"min=0"`
	BackdatingWindowDays   int   `json:"backdatingWindowDays" binding:"min=0"`
	FutureDatingWindowDays int   `json:"futureDatingWindowDays" binding:"min=0"`
	MinDescriptionLength   int   `json:"minDescriptionLength" binding:"min=0"`
	RequireVoidApproval    bool  `json:"requireVoidApproval"`
}
