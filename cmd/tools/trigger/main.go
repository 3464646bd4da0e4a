package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
)

func main() {
	resort := flag.String("resort", "", "limit the scrape to a single resort id")
	base := flag.String("base", "http://localhost:8081", "server base URL")
	flag.Parse()

	adminSecret := strings.TrimSpace(os.Getenv("ADMIN_SECRET"))
	if adminSecret == "" {
		fmt.Println("Missing ADMIN_SECRET environment variable")
		os.Exit(1)
	}

	endpoint := *base + "/api/v1/admin/scrape"
	if *resort != "" {
		endpoint += "?resort=" + url.QueryEscape(*resort)
	}

	req, err := http.NewRequest("POST", endpoint, nil)
	if err != nil {
		fmt.Printf("Error creating request: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("X-Admin-Secret", adminSecret)

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error sending request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("Response Status: %s\n", resp.Status)
	if resp.StatusCode != http.StatusAccepted {
		fmt.Println(string(body))
		os.Exit(1)
	}

	var payload struct {
		JobID string `json:"job_id"`
		Poll  string `json:"poll"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		fmt.Println(string(body))
		return
	}
	fmt.Printf("Job ID: %s\n", payload.JobID)
	fmt.Printf("Poll:   %s%s\n", *base, payload.Poll)
}
