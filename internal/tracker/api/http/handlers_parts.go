package httpapi

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/qjcoder/sunlife-lab-system-sub003/internal/auth"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/service"
)

type partLineBody struct {
	Code     string          `json:"code"`
	Name     string          `json:"name"`
	Qty      int             `json:"qty"`
	UnitCost decimal.Decimal `json:"unit_cost"`
}

func (b partLineBody) toDomain() domain.PartLine {
	return domain.PartLine{Code: b.Code, Name: b.Name, Qty: b.Qty, UnitCost: b.UnitCost}
}

type partDispatchResponse struct {
	EventID string         `json:"event_id"`
	Center  holderRefBody  `json:"center"`
	Lines   []partLineBody `json:"lines"`
}

func (a *App) postPartDispatchHandler(w http.ResponseWriter, r *http.Request) {
	if !a.requireRole(w, r, auth.RoleFactory) {
		return
	}
	var body struct {
		CenterID string         `json:"center_id"`
		Lines    []partLineBody `json:"lines"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	lines := make([]domain.PartLine, 0, len(body.Lines))
	for _, line := range body.Lines {
		lines = append(lines, line.toDomain())
	}
	receipt, err := a.service.DispatchParts(r.Context(), service.DispatchPartsInput{
		Center: domain.HolderRef{Kind: domain.HolderServiceCenter, ID: body.CenterID},
		Lines:  lines,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	resp := partDispatchResponse{
		EventID: receipt.EventID,
		Center:  holderRefFromDomain(receipt.Center),
		Lines:   make([]partLineBody, 0, len(receipt.Lines)),
	}
	for _, line := range receipt.Lines {
		resp.Lines = append(resp.Lines, partLineBody{
			Code:     line.Code,
			Name:     line.Name,
			Qty:      line.Qty,
			UnitCost: line.UnitCost,
		})
	}
	writeJSON(w, http.StatusCreated, resp)
}
