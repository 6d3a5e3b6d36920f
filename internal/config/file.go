package config

import "time"

// Flag names shared by the CLI and File.Apply. A file value is only applied
// when the flag of the same setting was not given on the command line.
const (
	FlagWorkers         = "workers"
	FlagDelay           = "delay"
	FlagMinTokens       = "min-tokens"
	FlagMaxTokens       = "max-tokens"
	FlagThreshold       = "threshold"
	FlagNGram           = "ngram"
	FlagBits            = "bits"
	FlagTimeout         = "timeout"
	FlagMaxBodySize     = "max-body-size"
	FlagUserAgent       = "user-agent"
	FlagProxy           = "proxy"
	FlagDBDir           = "db-dir"
	FlagResults         = "results"
	FlagCheckpointEvery = "checkpoint-every"
	FlagMetricsAddr     = "metrics-addr"
	FlagDomain          = "domain"
	FlagTop             = "top"
)

// File represents the structure of the YAML configuration file.
// Every field is optional; pointer fields distinguish "absent" from zero.
type File struct {
	Seeds            []string       `yaml:"seeds,omitempty"`
	Workers          *int           `yaml:"workers,omitempty"`
	Delay            *time.Duration `yaml:"delay,omitempty"`
	MinTokens        *int           `yaml:"min_tokens,omitempty"`
	MaxTokens        *int           `yaml:"max_tokens,omitempty"`
	Threshold        *int           `yaml:"threshold,omitempty"`
	NGram            *int           `yaml:"ngram,omitempty"`
	Bits             *int           `yaml:"bits,omitempty"`
	Timeout          *time.Duration `yaml:"timeout,omitempty"`
	MaxBodySize      *int64         `yaml:"max_body_size,omitempty"`
	UserAgent        string         `yaml:"user_agent,omitempty"`
	Proxy            string         `yaml:"proxy,omitempty"`
	AllowedDomains   []string       `yaml:"allowed_domains,omitempty"`
	DeniedExtensions []string       `yaml:"denied_extensions,omitempty"`
	DBDir            string         `yaml:"db_dir,omitempty"`
	ResultsFile      string         `yaml:"results,omitempty"`
	CheckpointEvery  *int           `yaml:"checkpoint_every,omitempty"`
	MetricsAddr      string         `yaml:"metrics_addr,omitempty"`

	// Report holds the defaults of the report command.
	Report ReportFile `yaml:"report,omitempty"`
}

// ReportFile is the report section of the configuration file.
type ReportFile struct {
	Domain   string `yaml:"domain,omitempty"`
	TopWords *int   `yaml:"top,omitempty"`
}

// Apply copies the values present in f into cfg, skipping every setting
// whose flag changed reports as explicitly set. A nil changed applies all.
//
// Seeds from the file are used only when cfg has no seeds from the command
// line; callers reset cfg.Seeds to nil when no positional seeds were given.
func (f *File) Apply(cfg *Config, changed func(flag string) bool) {
	if f == nil {
		return
	}
	if changed == nil {
		changed = func(string) bool { return false }
	}

	if len(cfg.Seeds) == 0 && len(f.Seeds) > 0 {
		cfg.Seeds = append([]string(nil), f.Seeds...)
	}
	if len(f.AllowedDomains) > 0 {
		cfg.AllowedDomains = append([]string(nil), f.AllowedDomains...)
	}
	if len(f.DeniedExtensions) > 0 {
		cfg.DeniedExtensions = append([]string(nil), f.DeniedExtensions...)
	}

	setInt(&cfg.Workers, f.Workers, changed(FlagWorkers))
	setInt(&cfg.MinUniqueTokens, f.MinTokens, changed(FlagMinTokens))
	setInt(&cfg.MaxUniqueTokens, f.MaxTokens, changed(FlagMaxTokens))
	setInt(&cfg.HammingThreshold, f.Threshold, changed(FlagThreshold))
	setInt(&cfg.NGram, f.NGram, changed(FlagNGram))
	setInt(&cfg.FingerprintBits, f.Bits, changed(FlagBits))
	setInt(&cfg.CheckpointEvery, f.CheckpointEvery, changed(FlagCheckpointEvery))
	setInt(&cfg.TopWords, f.Report.TopWords, changed(FlagTop))

	if f.Delay != nil && !changed(FlagDelay) {
		cfg.DefaultDelay = *f.Delay
	}
	if f.Timeout != nil && !changed(FlagTimeout) {
		cfg.Timeout = *f.Timeout
	}
	if f.MaxBodySize != nil && !changed(FlagMaxBodySize) {
		cfg.MaxBodySize = *f.MaxBodySize
	}

	setString(&cfg.UserAgent, f.UserAgent, changed(FlagUserAgent))
	setString(&cfg.Proxy, f.Proxy, changed(FlagProxy))
	setString(&cfg.DBDir, f.DBDir, changed(FlagDBDir))
	setString(&cfg.ResultsFile, f.ResultsFile, changed(FlagResults))
	setString(&cfg.MetricsAddr, f.MetricsAddr, changed(FlagMetricsAddr))
	setString(&cfg.ReportDomain, f.Report.Domain, changed(FlagDomain))
}

func setInt(dst *int, v *int, explicit bool) {
	if v != nil && !explicit {
		*dst = *v
	}
}

func setString(dst *string, v string, explicit bool) {
	if v != "" && !explicit {
		*dst = v
	}
}
