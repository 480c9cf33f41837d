// Package v1 defines the serve-mode HTTP API types. The wire shapes are
// decoupled from the internal models so the API can stay stable while the
// collectors evolve.
package v1

type Error struct {
	Error string `json:"error"`
}

type Status struct {
	State        string  `json:"state"`
	LastRunID    string  `json:"last_run_id,omitempty"`
	Completeness float64 `json:"completeness"`
	Error        string  `json:"error,omitempty"`
}

type Run struct {
	Id           string  `json:"id"`
	Cluster      string  `json:"cluster"`
	ApiRevision  string  `json:"api_revision"`
	Firmware     string  `json:"firmware"`
	Completeness float64 `json:"completeness"`
	CreatedAt    string  `json:"created_at"`
}

type RunListResponse struct {
	Page      int   `json:"page"`
	PageCount int   `json:"page_count"`
	Total     int   `json:"total"`
	Runs      []Run `json:"runs"`
}

type TriggerResponse struct {
	RunId string `json:"run_id"`
}
