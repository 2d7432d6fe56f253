package client

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rivetq/rivet/pkg/client"
)

// BaseURLFunc provides the base HTTP API URL (e.g., from env or flag).
type BaseURLFunc func() string

// HTTPURLFromEnv returns the REST endpoint from RIVET_HTTP or a default.
func HTTPURLFromEnv() string {
	if url := os.Getenv("RIVET_HTTP"); url != "" {
		return url
	}
	return "http://127.0.0.1:8080"
}

func newAPIClient(baseURL BaseURLFunc) *client.Client {
	return client.New(baseURL())
}

// printJSON writes v to the command's stdout as indented JSON.
func printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

// parseJSONFlag decodes a JSON flag value, tolerating an empty string.
func parseJSONFlag(flag, value string) (interface{}, error) {
	if value == "" {
		return nil, nil
	}
	var v interface{}
	if err := json.Unmarshal([]byte(value), &v); err != nil {
		return nil, fmt.Errorf("--%s must be valid JSON: %w", flag, err)
	}
	return v, nil
}
