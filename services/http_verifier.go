// services/http_verifier.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPVerifier asks an external verification endpoint whether a matching
// payment exists. The chain lookup itself lives behind that endpoint;
// this is only the client side of the collaborator.
type HTTPVerifier struct {
	url    string
	client *http.Client
}

func NewHTTPVerifier(url string) *HTTPVerifier {
	return &HTTPVerifier{
		url: url,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type verifyRequest struct {
	Amount    float64  `json:"amount"`
	Addresses []string `json:"addresses"`
}

type verifyResponse struct {
	Found bool `json:"found"`
}

func (v *HTTPVerifier) Verify(ctx context.Context, amount float64, candidateAddresses []string) (bool, error) {
	body, err := json.Marshal(verifyRequest{
		Amount:    amount,
		Addresses: candidateAddresses,
	})
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url, bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("verifier endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("verifier endpoint returned status %d", resp.StatusCode)
	}

	var result verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("decode verifier response: %w", err)
	}
	return result.Found, nil
}
