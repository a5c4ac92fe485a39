// SPDX-FileCopyrightText: Copyright 2026 WardenSync Authors
// SPDX-License-Identifier: Apache-2.0

package v1

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wardensync/wardensync/pkg/gateway"
	"github.com/wardensync/wardensync/pkg/logger"
	"github.com/wardensync/wardensync/pkg/reconciler"
	"github.com/wardensync/wardensync/pkg/webhook"
)

// maxWebhookBody bounds inbound webhook payloads.
const maxWebhookBody = 1 << 20

// WebhookRoutes defines the inbound change-notification route.
type WebhookRoutes struct {
	syncer   gateway.Syncer
	secret   []byte
	baseOpts reconciler.Options
}

// WebhookRouter creates a new router for inbound change notifications.
func WebhookRouter(syncer gateway.Syncer, secret []byte, baseOpts reconciler.Options) http.Handler {
	routes := WebhookRoutes{syncer: syncer, secret: secret, baseOpts: baseOpts}
	r := chi.NewRouter()
	r.Post("/", routes.handleWebhook)
	return r
}

// handleWebhook
//
//	@Summary		Receive a vault change notification
//	@Description	HMAC-authenticated webhook. The signature covers "timestamp.payload"; stale timestamps are rejected.
//	@Tags			webhook
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	gateway.ProcessingResult
//	@Failure		400	{object}	gateway.ProcessingResult
//	@Failure		401	{string}	string	"invalid signature"
//	@Failure		503	{object}	gateway.ProcessingResult	"engine busy, retry later"
//	@Router			/api/v1/webhook [post]
func (wr *WebhookRoutes) handleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	timestampRaw := r.Header.Get(webhook.TimestampHeader)
	timestamp, err := strconv.ParseInt(timestampRaw, 10, 64)
	if err != nil {
		http.Error(w, "Missing or malformed timestamp header", http.StatusBadRequest)
		return
	}
	if !webhook.ValidateTimestamp(timestamp, time.Now(), webhook.MaxTimestampSkew) {
		http.Error(w, "Timestamp outside allowed skew", http.StatusBadRequest)
		return
	}

	signature := r.Header.Get(webhook.SignatureHeader)
	if !webhook.VerifySignature(wr.secret, timestamp, payload, signature) {
		logger.Warnw("webhook rejected, bad signature", "remote", r.RemoteAddr)
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	var event gateway.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		http.Error(w, "Invalid event payload", http.StatusBadRequest)
		return
	}

	result := gateway.ProcessEvent(r.Context(), wr.syncer, event, wr.baseOpts)
	switch {
	case result.Busy:
		w.Header().Set("Retry-After", retryAfterSeconds)
		w.WriteHeader(http.StatusServiceUnavailable)
	case !result.Accepted:
		w.WriteHeader(http.StatusBadRequest)
	}
	if err := json.NewEncoder(w).Encode(result); err != nil {
		logger.Errorw("failed to encode webhook result", "error", err)
	}
}
