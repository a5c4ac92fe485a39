// SPDX-FileCopyrightText: Copyright 2026 WardenSync Authors
// SPDX-License-Identifier: Apache-2.0

package v1

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wardensync/wardensync/pkg/ledger"
	"github.com/wardensync/wardensync/pkg/logger"
)

// RecordsRoutes defines the ledger inspection routes.
type RecordsRoutes struct {
	store ledger.Store
}

// RecordsRouter creates a new router for ledger inspection.
func RecordsRouter(store ledger.Store) http.Handler {
	routes := RecordsRoutes{store: store}
	r := chi.NewRouter()
	r.Get("/", routes.listRecords)
	return r
}

// recordList is the response of the records endpoint.
type recordList struct {
	Records []ledger.Record `json:"records"`
	Total   int             `json:"total"`
}

// listRecords
//
//	@Summary		List managed secret records
//	@Description	List every ledger record, optionally filtered by namespace or status.
//	@Tags			records
//	@Produce		json
//	@Success		200	{object}	recordList
//	@Router			/api/v1/records [get]
func (rr *RecordsRoutes) listRecords(w http.ResponseWriter, r *http.Request) {
	records, err := rr.store.ListAll(r.Context())
	if err != nil {
		logger.Errorw("failed to list ledger records", "error", err)
		http.Error(w, "Failed to list records", http.StatusInternalServerError)
		return
	}

	namespace := r.URL.Query().Get("namespace")
	status := r.URL.Query().Get("status")
	filtered := make([]ledger.Record, 0, len(records))
	for _, record := range records {
		if namespace != "" && record.Namespace != namespace {
			continue
		}
		if status != "" && string(record.Status) != status {
			continue
		}
		filtered = append(filtered, record)
	}

	if err := json.NewEncoder(w).Encode(recordList{Records: filtered, Total: len(filtered)}); err != nil {
		http.Error(w, "Failed to encode record list", http.StatusInternalServerError)
	}
}
