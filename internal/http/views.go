package httpx

import (
	"net/http"

	domainauth "github.com/Nachiket-Roy/LMS-sub000/internal/domain/auth"
)

// View is the payload of every page response: which view to render, the
// authentication state it was rendered against, and its data.
type View struct {
	Name  string           `json:"view"`
	State domainauth.State `json:"state"`
	Data  any              `json:"data,omitempty"`
}

func writeView(w http.ResponseWriter, status int, v View) {
	WriteJSON(w, status, v)
}

func writeLoading(w http.ResponseWriter, st domainauth.State) {
	w.Header().Set("Cache-Control", "no-store")
	writeView(w, http.StatusOK, View{Name: ViewLoading, State: st})
}
