package am

import (
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/teranos/marksync/errors"
)

// CheckFile decodes path against Config and returns keys no field accepts.
// A typo such as `optimisitc = true` is otherwise silently ignored by viper.
func CheckFile(path string) ([]string, error) {
	var raw struct {
		Database struct {
			Path string `toml:"path"`
		} `toml:"database"`
		Sync struct {
			Category           string `toml:"category"`
			ExpectMobileFolder bool   `toml:"expect_mobile_folder"`
			Optimistic         bool   `toml:"optimistic"`
			FlushDelayMs       int    `toml:"flush_delay_ms"`
			IntervalSeconds    int    `toml:"interval_seconds"`
		} `toml:"sync"`
		Log struct {
			JSON bool `toml:"json"`
		} `toml:"log"`
		Tracing struct {
			Enabled  bool   `toml:"enabled"`
			Exporter string `toml:"exporter"`
		} `toml:"tracing"`
	}

	md, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s", path)
	}

	var unknown []string
	for _, key := range md.Undecoded() {
		unknown = append(unknown, key.String())
	}
	sort.Strings(unknown)
	return unknown, nil
}
