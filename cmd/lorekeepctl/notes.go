package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// subjectPaths maps subject types to their REST collection segment.
var subjectPaths = map[string]string{
	"character": "characters",
	"location":  "locations",
	"episode":   "episodes",
}

func runAddNote(apiURL, subjectType, subjectID, text string, out io.Writer) error {
	segment, ok := subjectPaths[subjectType]
	if !ok {
		return fmt.Errorf("unknown subject type %q (want character, location or episode)", subjectType)
	}
	if text == "" {
		return fmt.Errorf("note text cannot be empty")
	}
	body, _ := json.Marshal(map[string]string{"noteText": text})

	resp, err := http.Post(apiURL+"/api/"+segment+"/"+subjectID+"/notes", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusCreated {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("http %d: %s", resp.StatusCode, string(data))
	}
	_, err = io.Copy(out, resp.Body)
	return err
}
