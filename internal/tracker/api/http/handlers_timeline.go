package httpapi

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/timeline"
)

type timelineMovementBody struct {
	Type string        `json:"type"`
	From holderRefBody `json:"from"`
	To   holderRefBody `json:"to"`
	At   time.Time     `json:"at"`
}

type timelineReplacementBody struct {
	EventID       string          `json:"event_id"`
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Qty           int             `json:"qty"`
	Kind          string          `json:"kind"`
	CostLiability string          `json:"cost_liability"`
	ClaimEligible bool            `json:"claim_eligible"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	At            time.Time       `json:"at"`
}

type timelineVisitBody struct {
	Visit        visitResponse             `json:"visit"`
	Replacements []timelineReplacementBody `json:"replacements"`
}

type timelineWarrantyBody struct {
	PartsMonths   int        `json:"parts_months"`
	ServiceMonths int        `json:"service_months"`
	SaleDate      *time.Time `json:"sale_date,omitempty"`
	MonthsElapsed int        `json:"months_elapsed"`
	PartsValid    bool       `json:"parts_valid"`
	ServiceValid  bool       `json:"service_valid"`
}

type timelineResponse struct {
	Unit         unitResponse         `json:"unit"`
	Registration struct {
		ModelID   string    `json:"model_id"`
		ModelName string    `json:"model_name,omitempty"`
		At        time.Time `json:"at"`
	} `json:"registration"`
	Movements []timelineMovementBody `json:"movements"`
	Warranty  timelineWarrantyBody   `json:"warranty"`
	Visits    []timelineVisitBody    `json:"visits"`
}

func timelineResponseFromDomain(tl timeline.Timeline) timelineResponse {
	resp := timelineResponse{
		Unit:      unitResponseFromDomain(tl.Unit),
		Movements: make([]timelineMovementBody, 0, len(tl.Movements)),
		Warranty: timelineWarrantyBody{
			PartsMonths:   tl.Warranty.Window.PartsMonths,
			ServiceMonths: tl.Warranty.Window.ServiceMonths,
			SaleDate:      tl.Warranty.SaleDate,
			MonthsElapsed: tl.Warranty.MonthsElapsed,
			PartsValid:    tl.Warranty.PartsValid,
			ServiceValid:  tl.Warranty.ServiceValid,
		},
		Visits: make([]timelineVisitBody, 0, len(tl.Visits)),
	}
	resp.Registration.ModelID = tl.Registration.ModelID
	resp.Registration.ModelName = tl.Registration.ModelName
	resp.Registration.At = tl.Registration.At
	for _, movement := range tl.Movements {
		resp.Movements = append(resp.Movements, timelineMovementBody{
			Type: string(movement.Type),
			From: holderRefFromDomain(movement.From),
			To:   holderRefFromDomain(movement.To),
			At:   movement.At,
		})
	}
	for _, entry := range tl.Visits {
		visit := timelineVisitBody{
			Visit:        visitResponseFromDomain(entry.Visit),
			Replacements: make([]timelineReplacementBody, 0, len(entry.Replacements)),
		}
		for _, replacement := range entry.Replacements {
			visit.Replacements = append(visit.Replacements, timelineReplacementBody{
				EventID:       replacement.EventID,
				Code:          replacement.Code,
				Name:          replacement.Name,
				Qty:           replacement.Qty,
				Kind:          string(replacement.Kind),
				CostLiability: string(replacement.CostLiability),
				ClaimEligible: replacement.ClaimEligible,
				TotalCost:     replacement.TotalCost,
				At:            replacement.At,
			})
		}
		resp.Visits = append(resp.Visits, visit)
	}
	return resp
}

func (a *App) getTimelineHandler(w http.ResponseWriter, r *http.Request) {
	tl, err := a.timeline.Build(r.Context(), r.PathValue("serial"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, timelineResponseFromDomain(tl))
}
