// Package config loads the YAML configuration shared by the CLI and the HTTP service.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"reconciliation-service/internal/core/discovery"
	"reconciliation-service/internal/core/reconciliation"
	"reconciliation-service/internal/domain"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// DefaultOutputName names the report of one company and period.
const DefaultOutputName = "Conciliacao_{company}_{period}.xlsx"

// Config holds the whole application configuration.
type Config struct {
	// Period no formato MM-AAAA.
	Period string `yaml:"period"`
	// BaseDirs são modelos de pasta base com {year} e {period}; vale o primeiro existente.
	BaseDirs   []string `yaml:"base_dirs"`
	CompanyDir string   `yaml:"company_dir"`
	Companies  []string `yaml:"companies"`
	OutputDir  string   `yaml:"output_dir"`
	OutputName string   `yaml:"output_name"`

	Sources       Sources       `yaml:"sources"`
	AmountCeiling AmountCeiling `yaml:"amount_ceiling"`
	// FillDown repete para baixo valores de células mescladas; nil significa ligado.
	FillDown *bool `yaml:"fill_down"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	Server Server `yaml:"server"`
}

// Sources configures how each source is found and read.
type Sources struct {
	A Source `yaml:"a"`
	B Source `yaml:"b"`
}

// Source configures one side of the reconciliation.
type Source struct {
	Keyword string `yaml:"keyword"`
	Pattern string `yaml:"pattern"`
	Layout  string `yaml:"layout"`
}

// AmountCeiling is the optional guard against corrupt amounts.
type AmountCeiling struct {
	Enabled bool   `yaml:"enabled"`
	Value   string `yaml:"value"`
}

// Server configures the HTTP service.
type Server struct {
	Port      string `yaml:"port"`
	QueueSize int    `yaml:"queue_size"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads, defaults and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("erro ao ler configuração: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML document, then applies defaults and validation.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("erro ao interpretar configuração: %w", err)
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuração inválida: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.CompanyDir == "" {
		cfg.CompanyDir = discovery.DefaultCompanyDir
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./saida"
	}
	if cfg.OutputName == "" {
		cfg.OutputName = DefaultOutputName
	}
	if cfg.Sources.A.Keyword == "" {
		cfg.Sources.A.Keyword = "DOMINIO"
	}
	if cfg.Sources.B.Keyword == "" {
		cfg.Sources.B.Keyword = "EMPRESA"
	}
	if cfg.Sources.A.Layout == "" {
		cfg.Sources.A.Layout = reconciliation.DefaultLayoutA
	}
	if cfg.Sources.B.Layout == "" {
		cfg.Sources.B.Layout = reconciliation.DefaultLayoutB
	}
	if cfg.AmountCeiling.Value == "" {
		cfg.AmountCeiling.Value = reconciliation.DefaultAmountCeiling.String()
	}
	if cfg.FillDown == nil {
		on := true
		cfg.FillDown = &on
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "json"
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.QueueSize == 0 {
		cfg.Server.QueueSize = 16
	}
}

var periodRegex = regexp.MustCompile(`^(0[1-9]|1[0-2])-\d{4}$`)

// ValidPeriod reports whether p is a MM-YYYY period.
func ValidPeriod(p string) bool {
	return periodRegex.MatchString(p)
}

// Validate checks the values that defaults cannot fix.
func (c *Config) Validate() error {
	if c.Period != "" && !ValidPeriod(c.Period) {
		return fmt.Errorf("período %q fora do formato MM-AAAA", c.Period)
	}
	a, b, err := c.Layouts()
	if err != nil {
		return err
	}
	if a.Source != domain.SourceA {
		return fmt.Errorf("layout %q não é da fonte A", a.Name)
	}
	if b.Source != domain.SourceB {
		return fmt.Errorf("layout %q não é da fonte B", b.Name)
	}
	ceiling, err := decimal.NewFromString(c.AmountCeiling.Value)
	if err != nil {
		return fmt.Errorf("teto de valor inválido %q: %w", c.AmountCeiling.Value, err)
	}
	if !ceiling.IsPositive() {
		return fmt.Errorf("teto de valor deve ser positivo, recebido %s", ceiling)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("nível de log desconhecido: %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("formato de log desconhecido: %q", c.LogFormat)
	}
	if c.Server.QueueSize < 0 {
		return fmt.Errorf("server.queue_size negativo: %d", c.Server.QueueSize)
	}
	return nil
}

// Normalizer returns the value normalizer configured by amount_ceiling.
func (c *Config) Normalizer() reconciliation.Normalizer {
	ceiling, err := decimal.NewFromString(c.AmountCeiling.Value)
	if err != nil {
		ceiling = reconciliation.DefaultAmountCeiling
	}
	return reconciliation.Normalizer{CeilingEnabled: c.AmountCeiling.Enabled, Ceiling: ceiling}
}

// Layouts returns the configured layouts of both sources.
func (c *Config) Layouts() (a, b reconciliation.Layout, err error) {
	if a, err = reconciliation.LookupLayout(c.Sources.A.Layout); err != nil {
		return a, b, err
	}
	b, err = reconciliation.LookupLayout(c.Sources.B.Layout)
	return a, b, err
}

// Finder returns the discovery rules of the configuration.
func (c *Config) Finder() discovery.Finder {
	return discovery.Finder{
		CompanyDir: c.CompanyDir,
		A:          discovery.SourceRule{Keyword: c.Sources.A.Keyword, Pattern: c.Sources.A.Pattern},
		B:          discovery.SourceRule{Keyword: c.Sources.B.Keyword, Pattern: c.Sources.B.Pattern},
	}
}

// FillDownEnabled reports whether loaded grids are forward-filled.
func (c *Config) FillDownEnabled() bool {
	return c.FillDown == nil || *c.FillDown
}

// OutputFile names the report of a company; spaces in the company become underscores.
func (c *Config) OutputFile(company, period string) string {
	r := strings.NewReplacer("{company}", strings.ReplaceAll(company, " ", "_"), "{period}", period)
	return r.Replace(c.OutputName)
}
