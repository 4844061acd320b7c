package e2e

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
)

// ValidCaptchaToken is the only token the stub siteverify endpoint accepts.
const ValidCaptchaToken = "e2e-valid-captcha"

// Upstream stands in for the CAPTCHA provider, the health service, the CRM
// and the voice platform.
type Upstream struct {
	server *httptest.Server

	mu           sync.Mutex
	healthResult string
	crmFailing   bool
	contacts     int
	calls        []map[string]any
}

func NewUpstream() *Upstream {
	u := &Upstream{healthResult: "ok"}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /siteverify", u.siteverify)
	mux.HandleFunc("GET /health", u.health)
	mux.HandleFunc("GET /crm/contacts/search", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("POST /crm/contacts", u.createContact)
	mux.HandleFunc("POST /voice/calls", u.placeCall)
	u.server = httptest.NewServer(mux)
	return u
}

func (u *Upstream) URL() string { return u.server.URL }

func (u *Upstream) Close() { u.server.Close() }

func (u *Upstream) SetHealth(result string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.healthResult = result
}

func (u *Upstream) SetCRMFailing(failing bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.crmFailing = failing
}

func (u *Upstream) Contacts() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.contacts
}

func (u *Upstream) Calls() []map[string]any {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]map[string]any(nil), u.calls...)
}

func (u *Upstream) siteverify(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if r.PostForm.Get("response") == ValidCaptchaToken {
		writeJSON(w, map[string]any{"success": true})
		return
	}
	writeJSON(w, map[string]any{"success": false, "error-codes": []string{"invalid-input-response"}})
}

func (u *Upstream) health(w http.ResponseWriter, _ *http.Request) {
	u.mu.Lock()
	result := u.healthResult
	u.mu.Unlock()
	writeJSON(w, map[string]any{"result": result})
}

func (u *Upstream) createContact(w http.ResponseWriter, _ *http.Request) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.crmFailing {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	u.contacts++
	writeJSONStatus(w, http.StatusCreated, map[string]any{"id": "contact-e2e"})
}

func (u *Upstream) placeCall(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	u.mu.Lock()
	u.calls = append(u.calls, body)
	u.mu.Unlock()
	writeJSON(w, map[string]any{"call_id": "call-e2e", "call_status": "registered"})
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
