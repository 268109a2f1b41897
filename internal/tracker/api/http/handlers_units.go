package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	apperrors "github.com/qjcoder/sunlife-lab-system-sub003/internal/platform/errors"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/auth"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/domain"
	"github.com/qjcoder/sunlife-lab-system-sub003/internal/tracker/service"
)

type holderRefBody struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

func (b holderRefBody) toDomain() domain.HolderRef {
	return domain.HolderRef{Kind: domain.HolderKind(b.Kind), ID: b.ID}
}

func holderRefFromDomain(ref domain.HolderRef) holderRefBody {
	return holderRefBody{Kind: string(ref.Kind), ID: ref.ID}
}

type unitResponse struct {
	Serial       string        `json:"serial"`
	ModelID      string        `json:"model_id"`
	Status       string        `json:"status"`
	Holder       holderRefBody `json:"holder"`
	Sold         bool          `json:"sold"`
	SaleDate     *time.Time    `json:"sale_date,omitempty"`
	RegisteredAt time.Time     `json:"registered_at"`
}

func unitResponseFromDomain(unit domain.Unit) unitResponse {
	return unitResponse{
		Serial:       unit.Serial,
		ModelID:      unit.ModelID,
		Status:       string(unit.Status),
		Holder:       holderRefFromDomain(unit.Holder),
		Sold:         unit.Sold,
		SaleDate:     unit.SaleDate,
		RegisteredAt: unit.RegisteredAt,
	}
}

// decodeBody decodes a JSON request body, rejecting unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, target any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		writeError(w, apperrors.WithMetadata(apperrors.CodeRequestInvalid, "request body is not valid JSON",
			map[string]string{"detail": err.Error()}))
		return false
	}
	return true
}

// requireRole rejects actors outside the allowed roles. Anonymous requests
// pass when auth is disabled.
func (a *App) requireRole(w http.ResponseWriter, r *http.Request, roles ...auth.Role) bool {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		if a.authEnabled {
			writeError(w, apperrors.New(apperrors.CodeActorMissing, "request has no authenticated actor"))
			return false
		}
		return true
	}
	if actor.Role == auth.RoleAdmin {
		return true
	}
	for _, role := range roles {
		if actor.Role == role {
			return true
		}
	}
	writeError(w, apperrors.WithMetadata(apperrors.CodeActorForbidden, "actor role cannot perform this operation",
		map[string]string{"role": string(actor.Role)}))
	return false
}

func (a *App) postUnitsHandler(w http.ResponseWriter, r *http.Request) {
	if !a.requireRole(w, r, auth.RoleFactory) {
		return
	}
	var body struct {
		Serial  string `json:"serial"`
		ModelID string `json:"model_id"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	unit, err := a.service.RegisterUnit(r.Context(), service.RegisterUnitInput{
		Serial:  body.Serial,
		ModelID: body.ModelID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, unitResponseFromDomain(unit))
}

func (a *App) postDispatchHandler(w http.ResponseWriter, r *http.Request) {
	if !a.requireRole(w, r, auth.RoleFactory) {
		return
	}
	var body struct {
		Dealer holderRefBody `json:"dealer"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	unit, err := a.service.DispatchUnit(r.Context(), service.DispatchUnitInput{
		Serial: r.PathValue("serial"),
		Dealer: body.Dealer.toDomain(),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, unitResponseFromDomain(unit))
}

func (a *App) postTransferHandler(w http.ResponseWriter, r *http.Request) {
	if !a.requireRole(w, r, auth.RoleDealer) {
		return
	}
	var body struct {
		FromDealer  holderRefBody `json:"from_dealer"`
		ToSubDealer holderRefBody `json:"to_subdealer"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	unit, err := a.service.TransferUnit(r.Context(), service.TransferUnitInput{
		Serial:      r.PathValue("serial"),
		FromDealer:  body.FromDealer.toDomain(),
		ToSubDealer: body.ToSubDealer.toDomain(),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, unitResponseFromDomain(unit))
}

func (a *App) postSaleHandler(w http.ResponseWriter, r *http.Request) {
	if !a.requireRole(w, r, auth.RoleDealer, auth.RoleSubDealer) {
		return
	}
	var body struct {
		Customer holderRefBody `json:"customer"`
		SaleDate string        `json:"sale_date"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	saleDate, err := parseDate(body.SaleDate)
	if err != nil {
		writeError(w, err)
		return
	}
	unit, err := a.service.SellUnit(r.Context(), service.SellUnitInput{
		Serial:   r.PathValue("serial"),
		Customer: body.Customer.toDomain(),
		SaleDate: saleDate,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, unitResponseFromDomain(unit))
}

// parseDate accepts RFC 3339 timestamps and bare dates; empty means zero.
func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, nil
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, apperrors.WithMetadata(apperrors.CodeRequestInvalid, "date must be RFC 3339 or YYYY-MM-DD",
			map[string]string{"value": value})
	}
	return parsed, nil
}

func (a *App) getUnitHandler(w http.ResponseWriter, r *http.Request) {
	unit, err := a.service.GetUnit(r.Context(), r.PathValue("serial"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, unitResponseFromDomain(unit))
}

func (a *App) getWarrantyHandler(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseDate(r.URL.Query().Get("as_of"))
	if err != nil {
		writeError(w, err)
		return
	}
	status, err := a.service.WarrantyAt(r.Context(), r.PathValue("serial"), asOf)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Serial        string     `json:"serial"`
		Sold          bool       `json:"sold"`
		SaleDate      *time.Time `json:"sale_date,omitempty"`
		MonthsElapsed int        `json:"months_elapsed"`
		PartsMonths   int        `json:"parts_months"`
		ServiceMonths int        `json:"service_months"`
		PartsValid    bool       `json:"parts_valid"`
		ServiceValid  bool       `json:"service_valid"`
	}{
		Serial:        status.Serial,
		Sold:          status.Sold,
		SaleDate:      status.SaleDate,
		MonthsElapsed: status.MonthsElapsed,
		PartsMonths:   status.Window.PartsMonths,
		ServiceMonths: status.Window.ServiceMonths,
		PartsValid:    status.PartsValid,
		ServiceValid:  status.ServiceValid,
	})
}

func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
		Uptime string `json:"uptime"`
	}{
		Status: "ok",
		Uptime: time.Since(a.started).Round(time.Second).String(),
	})
}
