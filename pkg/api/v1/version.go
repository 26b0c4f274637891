// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package v1

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/hello-otel/pkg/logger"
	"github.com/stacklok/hello-otel/pkg/versions"
)

// VersionRouter sets up the version route.
func VersionRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/", getVersion)
	return r
}

type versionResponse versions.VersionInfo

//	 getVersion
//		@Summary		Get server version
//		@Description	Returns the build information of the server
//		@Tags			system
//		@Produce		json
//		@Success		200	{object}	versionResponse
//		@Router			/version [get]
func getVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(versionResponse(versions.GetVersionInfo())); err != nil {
		logger.Errorf("failed to encode version response: %v", err)
	}
}
