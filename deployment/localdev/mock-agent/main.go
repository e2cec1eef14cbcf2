// mock-agent is a local stand-in for the browser-automation provider. It
// simulates a well-behaved store: every action succeeds and extracts return
// canned observations, so a full funnel run completes end to end without a
// real browser.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
)

type session struct {
	id  string
	url string
}

type mockAgent struct {
	mu       sync.Mutex
	sessions map[string]*session
	counter  int64
}

func main() {
	agent := &mockAgent{sessions: make(map[string]*session)}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/sessions", agent.createSession)
	mux.HandleFunc("POST /v1/sessions/{id}/act", agent.act)
	mux.HandleFunc("POST /v1/sessions/{id}/extract", agent.extract)
	mux.HandleFunc("GET /v1/sessions/{id}/url", agent.currentURL)
	mux.HandleFunc("DELETE /v1/sessions/{id}", agent.closeSession)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	addr := ":7700"
	log.Printf("mock-agent listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, mux))
}

func (a *mockAgent) createSession(w http.ResponseWriter, _ *http.Request) {
	id := fmt.Sprintf("mock-%d", atomic.AddInt64(&a.counter, 1))
	a.mu.Lock()
	a.sessions[id] = &session{id: id, url: "about:blank"}
	a.mu.Unlock()

	writeJSON(w, map[string]string{
		"session_id": id,
		"replay_url": "http://localhost:7700/replay/" + id,
	})
}

func (a *mockAgent) act(w http.ResponseWriter, r *http.Request) {
	s := a.session(w, r)
	if s == nil {
		return
	}
	var req struct {
		Instruction string `json:"instruction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	instruction := strings.ToLower(req.Instruction)
	a.mu.Lock()
	switch {
	case strings.HasPrefix(instruction, "go to"):
		s.url = "https://mock-store.local/"
	case strings.Contains(instruction, "product"):
		s.url = "https://mock-store.local/products/classic-tee"
	case strings.Contains(instruction, "cart icon") || strings.Contains(instruction, "view cart"):
		s.url = "https://mock-store.local/cart"
	case strings.Contains(instruction, "checkout"):
		s.url = "https://mock-store.local/checkout"
	}
	a.mu.Unlock()

	writeJSON(w, map[string]any{"success": true, "message": ""})
}

func (a *mockAgent) extract(w http.ResponseWriter, r *http.Request) {
	s := a.session(w, r)
	if s == nil {
		return
	}
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	writeJSON(w, map[string]string{"observation": observe(req.Prompt)})
}

// observe returns a canned, friction-free answer for each kind of prompt the
// orchestrator sends.
func observe(prompt string) string {
	p := strings.ToLower(prompt)
	switch {
	case strings.Contains(p, "describe this checkout page"):
		return "Guest checkout available, shipping cost is clear, payment button is clear, " +
			"trust badges visible, short form, no validation errors, step indicator shows progress."
	case strings.Contains(p, "guest checkout option"):
		return "Guest checkout is offered prominently next to the login form."
	case strings.Contains(p, "address form"):
		return "An address form with input fields is visible."
	case strings.Contains(p, "address modal"):
		return "No dialog is open."
	case strings.Contains(p, "cart experience"):
		return "Clear confirmation shown, qualify for free shipping message, " +
			"related products recommended, checkout button is obvious."
	case strings.Contains(p, "cart icon or badge"):
		return "Cart icon shows 1 item, product added successfully."
	case strings.Contains(p, "what page is this now"):
		return "This is the cart page with an order summary."
	case strings.Contains(p, "single-product detail page"):
		return "Yes, this is a single product page with an add-to-cart button."
	case strings.Contains(p, "describe this product page"):
		return "Price is clearly displayed, high quality images, prominent add-to-cart button, " +
			"detailed description, in stock, reviews with ratings shown, simple variant controls, " +
			"free shipping noted, trust badges are shown near the buy box."
	case strings.Contains(p, "purchasable products"):
		return "Several purchasable products with prices are visible right away."
	case strings.Contains(p, "describe the homepage"):
		return "A search bar is visible in the header, navigation is clear, " +
			"featured products shown with prices, clean layout."
	case strings.Contains(p, "size, color, or variant"):
		return "Nothing unusual on the page."
	default:
		return "The page looks normal."
	}
}

func (a *mockAgent) currentURL(w http.ResponseWriter, r *http.Request) {
	s := a.session(w, r)
	if s == nil {
		return
	}
	a.mu.Lock()
	url := s.url
	a.mu.Unlock()
	writeJSON(w, map[string]string{"url": url})
}

func (a *mockAgent) closeSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	a.mu.Lock()
	delete(a.sessions, id)
	a.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (a *mockAgent) session(w http.ResponseWriter, r *http.Request) *session {
	id := r.PathValue("id")
	a.mu.Lock()
	s, ok := a.sessions[id]
	a.mu.Unlock()
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return nil
	}
	return s
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode response: %v", err)
	}
}
