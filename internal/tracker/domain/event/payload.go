package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain"
)

// UnitRegisteredPayload is the payload of TypeUnitRegistered.
type UnitRegisteredPayload struct {
	Serial  string `json:"serial"`
	ModelID string `json:"model_id"`
}

// UnitDispatchedPayload is the payload of TypeUnitDispatched.
type UnitDispatchedPayload struct {
	Dealer domain.HolderRef `json:"dealer"`
}

// UnitTransferredPayload is the payload of TypeUnitTransferred.
type UnitTransferredPayload struct {
	FromDealer  domain.HolderRef `json:"from_dealer"`
	ToSubDealer domain.HolderRef `json:"to_subdealer"`
}

// UnitSoldPayload is the payload of TypeUnitSold. SaleDate starts the
// warranty clock.
type UnitSoldPayload struct {
	Customer domain.HolderRef `json:"customer"`
	SaleDate time.Time        `json:"sale_date"`
}

// PartsDispatchedPayload is the payload of TypePartsDispatched.
type PartsDispatchedPayload struct {
	Center domain.HolderRef  `json:"center"`
	Lines  []domain.PartLine `json:"lines"`
}

// Line returns the dispatch line for a part code, if present.
func (p PartsDispatchedPayload) Line(code string) (domain.PartLine, bool) {
	for _, line := range p.Lines {
		if line.Code == code {
			return line, true
		}
	}
	return domain.PartLine{}, false
}

// VisitOpenedPayload is the payload of TypeVisitOpened. The snapshot is
// frozen here and never re-evaluated.
type VisitOpenedPayload struct {
	VisitID       string                  `json:"visit_id"`
	Serial        string                  `json:"serial"`
	Center        domain.HolderRef        `json:"center"`
	ReportedIssue string                  `json:"reported_issue,omitempty"`
	Snapshot      domain.WarrantySnapshot `json:"snapshot"`
}

// PartReplacedPayload is the payload of TypePartReplaced. CostLiability,
// ClaimEligible, and TotalCost are derived, never caller-supplied.
type PartReplacedPayload struct {
	VisitID         string                 `json:"visit_id"`
	Serial          string                 `json:"serial"`
	Center          domain.HolderRef       `json:"center"`
	DispatchEventID string                 `json:"dispatch_event_id"`
	Code            string                 `json:"code"`
	Name            string                 `json:"name"`
	Qty             int                    `json:"qty"`
	Kind            domain.ReplacementKind `json:"kind"`
	CostLiability   domain.CostLiability   `json:"cost_liability"`
	ClaimEligible   bool                   `json:"claim_eligible"`
	UnitCost        decimal.Decimal        `json:"unit_cost"`
	TotalCost       decimal.Decimal        `json:"total_cost"`
}

// MarshalPayload encodes a typed payload for the journal.
func MarshalPayload(payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal event payload: %w", err)
	}
	return raw, nil
}

// DecodePayload decodes an event's payload into target.
func DecodePayload[T any](evt Event) (T, error) {
	var payload T
	if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
		return payload, fmt.Errorf("decode %s payload: %w", evt.Type, err)
	}
	return payload, nil
}
