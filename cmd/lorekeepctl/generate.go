package main

import (
	"fmt"
	"io"
	"net/http"
)

func runGenerate(apiURL, entityType, entityID string, out io.Writer) error {
	resp, err := http.Post(apiURL+"/api/generate/summary/"+entityType+"/"+entityID, "application/json", nil)
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

func runStatus(apiURL, entityType, entityID string, out io.Writer) error {
	resp, err := http.Get(apiURL + "/api/generate/summary/" + entityType + "/" + entityID)
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
