package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

func runSearch(apiURL, query string, limit int, out io.Writer) error {
	if query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(limit))

	resp, err := http.Get(apiURL + "/api/search?" + q.Encode())
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("http %d: %s", resp.StatusCode, string(data))
	}
	_, err = io.Copy(out, resp.Body)
	return err
}
