package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/brightfield/sitesurvey/internal/flagx"
	"github.com/brightfield/sitesurvey/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "3s"
// or as integer nanoseconds. After parsing, values are copied into the
// runtime Config (which uses time.Duration).
type JsonConfig struct {
	ServerAddr           string         `json:"server_addr"`
	DatabasePath         string         `json:"database_path"`
	OnlineCheckInterval  timex.Duration `json:"online_check_interval"`
	QualityCheckInterval timex.Duration `json:"quality_check_interval"`
	AutoSaveDebounce     timex.Duration `json:"auto_save_debounce"`
}

// parseJson overlays Config with values loaded from a JSON file. The file
// path comes from the -c/-config flags via flagx.JsonConfigFlags; when no
// path is given nothing is loaded. Panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	cfg.ServerAddr = jc.ServerAddr
	cfg.DatabasePath = jc.DatabasePath
	cfg.OnlineCheckInterval = time.Duration(jc.OnlineCheckInterval.Duration)
	cfg.QualityCheckInterval = time.Duration(jc.QualityCheckInterval.Duration)
	cfg.AutoSaveDebounce = time.Duration(jc.AutoSaveDebounce.Duration)
}
