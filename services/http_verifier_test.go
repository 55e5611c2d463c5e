package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPVerifier_Verify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req verifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Bad request body: %v", err)
		}
		if req.Amount != 5.00 || len(req.Addresses) != 1 || req.Addresses[0] != "addr1" {
			t.Errorf("Unexpected verify request: %+v", req)
		}
		json.NewEncoder(w).Encode(verifyResponse{Found: true})
	}))
	defer srv.Close()

	verifier := NewHTTPVerifier(srv.URL)
	found, err := verifier.Verify(context.Background(), 5.00, []string{"addr1"})
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !found {
		t.Error("Expected the payment to be found")
	}
}

func TestHTTPVerifier_EndpointFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	verifier := NewHTTPVerifier(srv.URL)
	if _, err := verifier.Verify(context.Background(), 1.00, nil); err == nil {
		t.Fatal("A non-200 verifier response must surface as an error")
	}
}
