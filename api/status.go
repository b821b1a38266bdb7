package api

import (
	"net/http"
	"sort"
)

type getStatusResponse struct {
	Version      string   `json:"version"`
	Connectivity string   `json:"connectivity"`
	Methods      []string `json:"methods"`
}

func (a *Api) handleGetStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		methods := a.dispatcher.Methods()
		sort.Strings(methods)

		res := &getStatusResponse{
			Version:      a.version,
			Connectivity: a.reporter.CurrentState(r.Context()).String(),
			Methods:      methods,
		}

		a.jsonResponse(w, res, http.StatusOK)
	}
}
