package handler

import "net/http"

const apiVersion = "0.1.0"

type aboutResponse struct {
	APIVersion string   `json:"api_version"`
	Servername string   `json:"servername"`
	Hostname   string   `json:"hostname"`
	Software   []string `json:"software"`
}

// About reports what this server is, mirroring what the real sync service
// answers on its about endpoint.
func (h *Handler) About(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, aboutResponse{
		APIVersion: apiVersion,
		Servername: "rmcloud",
		Hostname:   h.cfg.API.URL,
		Software:   []string{"go", "chi", "rmcloud"},
	})
}
