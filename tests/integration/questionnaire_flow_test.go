//go:build integration

package integration_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

func baseURL() string {
	if v := os.Getenv("ADVISOR_TEST_BASE_URL"); strings.TrimSpace(v) != "" {
		return strings.TrimRight(v, "/")
	}
	return "http://127.0.0.1:8080"
}

func adminPassword() string {
	if v := os.Getenv("ADVISOR_ADMIN_PASSWORD"); v != "" {
		return v
	}
	return "change-me-now"
}

// TestQuestionnaireJourneyIntegration exercises a running server end to end:
// admin login, client creation, link generation, link redemption, submission
// and history readback.
func TestQuestionnaireJourneyIntegration(t *testing.T) {
	client := &http.Client{Timeout: 5 * time.Second}
	base := baseURL()

	var login struct {
		Token string `json:"token"`
	}
	doPost(t, client, base+"/api/login/admin", "", map[string]string{
		"username": "admin",
		"password": adminPassword(),
	}, &login)
	if login.Token == "" {
		t.Fatalf("admin login did not return token")
	}

	// A unique 7-digit client number per run.
	number := fmt.Sprintf("%07d", time.Now().UnixNano()%10000000)
	var created struct {
		ID int `json:"id"`
	}
	doPost(t, client, base+"/api/clients", login.Token, map[string]any{
		"client_number": number,
		"first_name":    "Integration",
	}, &created)
	if created.ID == 0 {
		t.Fatalf("expected client id, got %+v", created)
	}

	var link struct {
		Link  string `json:"link"`
		Token string `json:"token"`
	}
	doPost(t, client, base+"/api/generate-link", login.Token, map[string]any{
		"client_id": created.ID,
		"section":   "riskTolerance",
	}, &link)
	if link.Token == "" {
		t.Fatalf("expected link token")
	}

	var verified struct {
		Token   string `json:"token"`
		Section string `json:"section"`
	}
	doPost(t, client, base+"/api/verify-token", "", map[string]string{"token": link.Token}, &verified)
	if verified.Token == "" || verified.Section != "riskTolerance" {
		t.Fatalf("unexpected verify response: %+v", verified)
	}

	var submitted struct {
		Completed   bool   `json:"completed"`
		Score       *int   `json:"score"`
		RiskProfile string `json:"risk_profile"`
	}
	doPost(t, client, base+"/api/questionnaire/riskTolerance", verified.Token, map[string]any{
		"data": map[string]any{"question1": "answer-1-1"},
	}, &submitted)
	if !submitted.Completed {
		t.Fatalf("expected completed submission: %+v", submitted)
	}
	if submitted.Score == nil || submitted.RiskProfile == "" {
		t.Fatalf("expected score and profile: %+v", submitted)
	}

	historyURL := fmt.Sprintf("%s/api/questionnaire/riskTolerance/history?clientId=%d", base, created.ID)
	req, err := http.NewRequest(http.MethodGet, historyURL, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+login.Token)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("history request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("history status %d body %s", resp.StatusCode, string(body))
	}
	var history struct {
		Questionnaires []struct {
			Completed bool `json:"completed"`
		} `json:"questionnaires"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history.Questionnaires) == 0 || !history.Questionnaires[0].Completed {
		t.Fatalf("expected the submission at the head of history: %+v", history)
	}
}

func doPost(t *testing.T, client *http.Client, url, token string, body any, out any) {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("http post %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		t.Fatalf("unexpected status %d for %s: %s", resp.StatusCode, url, string(bodyBytes))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			t.Fatalf("decode response from %s: %v", url, err)
		}
	}
}
