package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/bankapi/internal/flagx"
	"github.com/dmitrijs2005/bankapi/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
	ServerURL      string         `json:"server_url"`
	RequestTimeout timex.Duration `json:"request_timeout"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c or -config. Missing fields keep their current values. It panics on read
// or unmarshal errors.
func parseJson(cfg *Config) {
	file := flagx.ConfigFile()
	if file == "" {
		return
	}

	data, err := os.ReadFile(file)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerURL != "" {
		cfg.ServerURL = jc.ServerURL
	}
	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
}
