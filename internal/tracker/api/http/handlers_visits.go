package httpapi

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/qjcoder/sunlife-lab-system-sub003/internal/auth"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/service"
)

type visitResponse struct {
	ID            string        `json:"id"`
	Serial        string        `json:"serial"`
	Center        holderRefBody `json:"center"`
	OpenedAt      time.Time     `json:"opened_at"`
	ReportedIssue string        `json:"reported_issue,omitempty"`
	PartsValid    bool          `json:"parts_valid"`
	ServiceValid  bool          `json:"service_valid"`
}

func visitResponseFromDomain(visit domain.ServiceVisit) visitResponse {
	return visitResponse{
		ID:            visit.ID,
		Serial:        visit.Serial,
		Center:        holderRefFromDomain(visit.Center),
		OpenedAt:      visit.OpenedAt,
		ReportedIssue: visit.ReportedIssue,
		PartsValid:    visit.Snapshot.PartsValid,
		ServiceValid:  visit.Snapshot.ServiceValid,
	}
}

type replacementResponse struct {
	EventID       string          `json:"event_id"`
	VisitID       string          `json:"visit_id"`
	Serial        string          `json:"serial"`
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Qty           int             `json:"qty"`
	Kind          string          `json:"kind"`
	CostLiability string          `json:"cost_liability"`
	ClaimEligible bool            `json:"claim_eligible"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	TotalCost     decimal.Decimal `json:"total_cost"`
}

func (a *App) postVisitsHandler(w http.ResponseWriter, r *http.Request) {
	if !a.requireRole(w, r, auth.RoleServiceCenter) {
		return
	}
	var body struct {
		Serial        string `json:"serial"`
		CenterID      string `json:"center_id"`
		ReportedIssue string `json:"reported_issue"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	center := domain.HolderRef{Kind: domain.HolderServiceCenter, ID: body.CenterID}
	// Service center actors open visits at their own center unless they
	// name one explicitly.
	if body.CenterID == "" {
		if actor, ok := auth.ActorFromContext(r.Context()); ok && actor.Role == auth.RoleServiceCenter {
			center = actor.Party
		}
	}
	visit, err := a.service.OpenVisit(r.Context(), service.OpenVisitInput{
		Serial:        body.Serial,
		Center:        center,
		ReportedIssue: body.ReportedIssue,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, visitResponseFromDomain(visit))
}

func (a *App) getVisitHandler(w http.ResponseWriter, r *http.Request) {
	visit, err := a.service.GetVisit(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, visitResponseFromDomain(visit))
}

func (a *App) postReplacementHandler(w http.ResponseWriter, r *http.Request) {
	if !a.requireRole(w, r, auth.RoleServiceCenter) {
		return
	}
	var body struct {
		DispatchEventID string `json:"dispatch_event_id"`
		Code            string `json:"code"`
		Qty             int    `json:"qty"`
		Kind            string `json:"kind"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	replacement, err := a.service.AuthorizeReplacement(r.Context(), service.ReplacementInput{
		VisitID:         r.PathValue("id"),
		DispatchEventID: body.DispatchEventID,
		Code:            body.Code,
		Qty:             body.Qty,
		Kind:            body.Kind,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, replacementResponse{
		EventID:       replacement.EventID,
		VisitID:       replacement.VisitID,
		Serial:        replacement.Serial,
		Code:          replacement.Code,
		Name:          replacement.Name,
		Qty:           replacement.Qty,
		Kind:          string(replacement.Kind),
		CostLiability: string(replacement.CostLiability),
		ClaimEligible: replacement.ClaimEligible,
		UnitCost:      replacement.UnitCost,
		TotalCost:     replacement.TotalCost,
	})
}
