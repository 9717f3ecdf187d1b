// Package main provides a minimal HTTP healthcheck binary for the SIGEL
// container image. It performs a GET request and exits with code 0 on a
// 2xx response or code 1 otherwise.
// Usage: healthcheck [url]
// The URL defaults to $SIGEL_HEALTHCHECK_URL, then http://localhost:8080/readyz.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"
)

const defaultURL = "http://localhost:8080/readyz"

func main() {
	url := targetURL(os.Args[1:])
	client := &http.Client{Timeout: 5 * time.Second}

	if err := check(client, url); err != nil {
		fmt.Fprintf(os.Stderr, "healthcheck failed: %v\n", err)
		os.Exit(1)
	}
}

func targetURL(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	if v := os.Getenv("SIGEL_HEALTHCHECK_URL"); v != "" {
		return v
	}
	return defaultURL
}

func check(client *http.Client, url string) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return fmt.Errorf("status %d", resp.StatusCode)
}
