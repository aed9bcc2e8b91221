package shipper

import "time"

// Duration decodes a TOML string like "30s" into a time.Duration, the same
// pattern telegraf's config.Duration uses for every interval/timeout field.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler, the hook
// github.com/BurntSushi/toml uses for scalar string values.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Duration() time.Duration { return time.Duration(d) }
