package httpapi

import (
	"net/http"

	apperrors "github.com/qjcoder/sunlife-lab-system-sub003/internal/platform/errors"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain"
)

func (a *App) getUnitStockHandler(w http.ResponseWriter, r *http.Request) {
	holder := domain.HolderRef{
		Kind: domain.HolderKind(r.URL.Query().Get("holder_kind")),
		ID:   r.URL.Query().Get("holder_id"),
	}
	count, err := a.service.UnitStockAtHolder(r.Context(), holder)
	if err != nil {
		writeError(w, err)
		return
	}
	units, err := a.service.UnitsAtHolder(r.Context(), holder)
	if err != nil {
		writeError(w, err)
		return
	}
	serials := make([]string, 0, len(units))
	for _, unit := range units {
		serials = append(serials, unit.Serial)
	}
	writeJSON(w, http.StatusOK, struct {
		Holder  holderRefBody `json:"holder"`
		Count   int           `json:"count"`
		Serials []string      `json:"serials"`
	}{
		Holder:  holderRefFromDomain(holder),
		Count:   count,
		Serials: serials,
	})
}

func (a *App) getPartStockHandler(w http.ResponseWriter, r *http.Request) {
	centerID := r.URL.Query().Get("center_id")
	code := r.URL.Query().Get("code")
	if centerID == "" || code == "" {
		writeError(w, apperrors.New(apperrors.CodeRequestInvalid, "center_id and code query parameters are required"))
		return
	}
	available, err := a.service.PartStockAtCenter(r.Context(), centerID, code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		CenterID  string `json:"center_id"`
		Code      string `json:"code"`
		Available int    `json:"available"`
	}{
		CenterID:  centerID,
		Code:      code,
		Available: available,
	})
}
