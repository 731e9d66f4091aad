package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

const baseURL = "http://localhost:8080"

func main() {
	// Wait for server to start
	time.Sleep(2 * time.Second)

	// 1. Health Check
	checkEndpoint("GET", "/health", nil, 200)

	// 2. Record a mutual-fund purchase
	userID := "e2e-user"
	txnID := createTransaction(userID)
	fmt.Printf("Created Transaction ID: %s\n", txnID)

	// 3. Transactions and portfolio
	checkEndpoint("GET", "/transactions/"+userID, nil, 200)
	checkEndpoint("GET", "/portfolio/"+userID, nil, 200)

	// 4. Goal round trip
	goalID := createGoal(userID)
	fmt.Printf("Created Goal ID: %s\n", goalID)
	checkEndpoint("POST", "/goals/"+goalID+"/schemes", map[string]interface{}{"scheme_code": "120503"}, 201)
	checkEndpoint("GET", "/goals/"+goalID+"/progress", nil, 200)

	// 5. Simulation
	checkEndpoint("POST", "/simulate", map[string]interface{}{
		"monthly_sip":       "10000",
		"annual_return_pct": 12,
		"step_up_pct":       10,
		"years":             15,
	}, 200)
	checkEndpoint("POST", "/simulate/required-sip", map[string]interface{}{
		"target_amount":     "10000000",
		"annual_return_pct": 12,
		"years":             15,
	}, 200)

	fmt.Println("ALL TESTS PASSED")
}

func checkEndpoint(method, path string, body interface{}, expectedStatus int) {
	fmt.Printf("Testing %s %s...\n", method, path)
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, _ := http.NewRequest(method, baseURL+path, bodyReader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != expectedStatus {
		log.Fatalf("Expected status %d, got %d. Body: %s", expectedStatus, resp.StatusCode, string(respBody))
	}
	fmt.Printf("Response: %s\n", string(respBody))
}

func createTransaction(userID string) string {
	fmt.Println("Creating transaction...")
	reqBody := map[string]interface{}{
		"user_id":         userID,
		"scheme_code":     "120503",
		"scheme_name":     "E2E Index Fund",
		"txn_type":        "BUY",
		"units":           "45.5",
		"nav":             "110.25",
		"txn_date":        time.Now().Format(time.RFC3339),
		"idempotency_key": fmt.Sprintf("e2e-key-%d", time.Now().UnixNano()),
	}
	jsonBody, _ := json.Marshal(reqBody)
	resp, err := http.Post(baseURL+"/transactions", "application/json", bytes.NewBuffer(jsonBody))
	if err != nil {
		log.Fatalf("Create transaction failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 201 {
		body, _ := io.ReadAll(resp.Body)
		log.Fatalf("Create transaction failed with status %d: %s", resp.StatusCode, string(body))
	}

	var res map[string]string
	json.NewDecoder(resp.Body).Decode(&res)
	return res["transaction_id"]
}

func createGoal(userID string) string {
	fmt.Println("Creating goal...")
	reqBody := map[string]interface{}{
		"user_id":       userID,
		"name":          "E2E Goal",
		"target_amount": "1000000",
		"target_date":   time.Now().AddDate(10, 0, 0).Format(time.RFC3339),
	}
	jsonBody, _ := json.Marshal(reqBody)
	resp, err := http.Post(baseURL+"/goals", "application/json", bytes.NewBuffer(jsonBody))
	if err != nil {
		log.Fatalf("Create goal failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 201 {
		body, _ := io.ReadAll(resp.Body)
		log.Fatalf("Create goal failed with status %d: %s", resp.StatusCode, string(body))
	}

	var res map[string]string
	json.NewDecoder(resp.Body).Decode(&res)
	return res["goal_id"]
}
