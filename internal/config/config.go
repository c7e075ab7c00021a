// Package config loads the immutable run configuration: delivery identity
// from the environment and search criteria from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"licitahunter/internal/match"
	"licitahunter/internal/pncp"
)

// Configuration errors. All of them are reported before any network call.
var (
	ErrMissingSenderEmail      = errors.New("SENDER_EMAIL is required")
	ErrMissingSenderCredential = errors.New("SENDER_CREDENTIAL is required")
	ErrMissingRecipientEmail   = errors.New("RECIPIENT_EMAIL is required")
	ErrInvalidSMTPPort         = errors.New("SMTP_PORT must be a positive number")
	ErrNoKeywords              = errors.New("criteria: at least one keyword is required")
	ErrInvalidDaysBack         = errors.New("criteria: days_back must be at least 1")
	ErrValueRangeInverted      = errors.New("criteria: min_value cannot exceed max_value")
	ErrUnknownModalidade       = errors.New("criteria: unknown modalidade code")
	ErrInvalidPageSize         = errors.New("criteria: page_size must be between 1 and 500")
	ErrInvalidMaxPages         = errors.New("criteria: max_pages must be at least 1")
)

// Config is built once per invocation and never mutated afterwards.
type Config struct {
	SenderEmail      string
	SenderCredential string
	RecipientEmail   string
	SMTPHost         string
	SMTPPort         int
	PNCPBaseURL      string
	Criteria         Criteria
}

// Criteria is the YAML-sourced search filter.
type Criteria struct {
	Keywords    []string    `yaml:"keywords"`
	DaysBack    int         `yaml:"days_back"`
	MinValue    *float64    `yaml:"min_value"`
	MaxValue    *float64    `yaml:"max_value"`
	Modalidades []int       `yaml:"modalidades"`
	Organ       OrganFilter `yaml:"organ"`
	PageSize    int         `yaml:"page_size"`
	MaxPages    int         `yaml:"max_pages"`
}

// OrganFilter narrows results to specific publishing organs, e.g. one
// state's municipalities by CNPJ prefix plus name terms.
type OrganFilter struct {
	CNPJPrefixes []string `yaml:"cnpj_prefixes"`
	NameTerms    []string `yaml:"name_terms"`
}

// DefaultCriteria is the built-in filter used when no criteria file exists:
// construction and engineering works published in the last week.
func DefaultCriteria() Criteria {
	return Criteria{
		Keywords: []string{
			"obra", "engenharia", "construção", "reforma", "pavimentação",
			"edificação", "infraestrutura", "saneamento",
		},
		DaysBack: 7,
		PageSize: 100,
		MaxPages: 20,
	}
}

// Load assembles the configuration from the environment. getenv is injected
// so tests can run without touching the process environment; pass os.Getenv
// in production.
func Load(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		SenderEmail:      getenv("SENDER_EMAIL"),
		SenderCredential: getenv("SENDER_CREDENTIAL"),
		RecipientEmail:   getenv("RECIPIENT_EMAIL"),
		SMTPHost:         getenv("SMTP_HOST"),
		PNCPBaseURL:      getenv("PNCP_BASE_URL"),
		SMTPPort:         465,
	}
	if cfg.SenderEmail == "" {
		return nil, ErrMissingSenderEmail
	}
	if cfg.SenderCredential == "" {
		return nil, ErrMissingSenderCredential
	}
	if cfg.RecipientEmail == "" {
		return nil, ErrMissingRecipientEmail
	}
	if cfg.SMTPHost == "" {
		cfg.SMTPHost = "smtp.gmail.com"
	}
	if raw := getenv("SMTP_PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port <= 0 {
			return nil, ErrInvalidSMTPPort
		}
		cfg.SMTPPort = port
	}

	criteria, err := LoadCriteria(getenv("CRITERIA_FILE"))
	if err != nil {
		return nil, err
	}
	cfg.Criteria = criteria
	return cfg, nil
}

// LoadCriteria reads the criteria file. An unset path falls back to
// criteria.yaml next to the binary, and to the built-in defaults when that
// file does not exist either; an explicitly configured path must exist.
func LoadCriteria(path string) (Criteria, error) {
	explicit := path != ""
	if !explicit {
		path = "criteria.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return DefaultCriteria(), nil
		}
		return Criteria{}, fmt.Errorf("failed to read criteria file: %w", err)
	}
	return ParseCriteria(data)
}

// ParseCriteria decodes and validates a YAML criteria document.
func ParseCriteria(data []byte) (Criteria, error) {
	var c Criteria
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Criteria{}, fmt.Errorf("failed to parse criteria YAML: %w", err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return Criteria{}, err
	}
	return c, nil
}

func (c *Criteria) applyDefaults() {
	if c.DaysBack == 0 {
		c.DaysBack = 7
	}
	if c.PageSize == 0 {
		c.PageSize = 100
	}
	if c.MaxPages == 0 {
		c.MaxPages = 20
	}
}

// Validate checks the criteria before any network call is made.
func (c Criteria) Validate() error {
	keywords := 0
	for _, kw := range c.Keywords {
		if kw != "" {
			keywords++
		}
	}
	if keywords == 0 {
		return ErrNoKeywords
	}
	if c.DaysBack < 1 {
		return ErrInvalidDaysBack
	}
	if c.MinValue != nil && c.MaxValue != nil && *c.MinValue > *c.MaxValue {
		return ErrValueRangeInverted
	}
	for _, code := range c.Modalidades {
		if !pncp.KnownModalidade(code) {
			return fmt.Errorf("%w: %d", ErrUnknownModalidade, code)
		}
	}
	if c.PageSize < 1 || c.PageSize > 500 {
		return ErrInvalidPageSize
	}
	if c.MaxPages < 1 {
		return ErrInvalidMaxPages
	}
	return nil
}

// Query translates the criteria into the portal query for a run anchored
// at now.
func (c Criteria) Query(now time.Time) pncp.Query {
	return pncp.Query{
		From:        now.AddDate(0, 0, -c.DaysBack),
		To:          now,
		Modalidades: c.Modalidades,
		PageSize:    c.PageSize,
		MaxPages:    c.MaxPages,
	}
}

// MatchCriteria translates the criteria into the matcher's filter set.
func (c Criteria) MatchCriteria() match.Criteria {
	return match.Criteria{
		Keywords:          c.Keywords,
		MinValue:          c.MinValue,
		MaxValue:          c.MaxValue,
		Modalidades:       c.Modalidades,
		OrganCNPJPrefixes: c.Organ.CNPJPrefixes,
		OrganTerms:        c.Organ.NameTerms,
	}
}
