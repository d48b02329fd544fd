package httpapi

import (
	_ "embed"
	"net/http"
)

//go:embed seed.json
var seedData []byte

// handleSeed serves the bundled demo dataset used by frontend prototypes.
func (a *API) handleSeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write(seedData)
}
