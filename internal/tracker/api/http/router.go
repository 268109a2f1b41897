package httpapi

import "net/http"

// NewRouter registers HTTP routes and returns the handler with middleware.
func NewRouter(app *App) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/units", app.postUnitsHandler)
	mux.HandleFunc("POST /v1/units/{serial}/dispatch", app.postDispatchHandler)
	mux.HandleFunc("POST /v1/units/{serial}/transfer", app.postTransferHandler)
	mux.HandleFunc("POST /v1/units/{serial}/sale", app.postSaleHandler)
	mux.HandleFunc("GET /v1/units/{serial}", app.getUnitHandler)
	mux.HandleFunc("GET /v1/units/{serial}/timeline", app.getTimelineHandler)
	mux.HandleFunc("GET /v1/units/{serial}/warranty", app.getWarrantyHandler)

	mux.HandleFunc("POST /v1/part-dispatches", app.postPartDispatchHandler)

	mux.HandleFunc("POST /v1/visits", app.postVisitsHandler)
	mux.HandleFunc("GET /v1/visits/{id}", app.getVisitHandler)
	mux.HandleFunc("POST /v1/visits/{id}/replacements", app.postReplacementHandler)

	mux.HandleFunc("GET /v1/stock/units", app.getUnitStockHandler)
	mux.HandleFunc("GET /v1/stock/parts", app.getPartStockHandler)

	mux.HandleFunc("GET /healthz", app.healthHandler)

	return withRequestID(withLogging(app.logger, app.withAuth(mux)))
}
