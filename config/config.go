package config

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	KeyReaderFormat     = "reader.format"
	KeyReaderSheet      = "reader.sheet"
	KeyReaderFieldNames = "reader.fieldnames"
	KeyReaderRestKey    = "reader.restkey"
	KeyReaderRestValue  = "reader.restval"
	KeyCSVDelimiter     = "csv.delimiter"
	KeyCSVLazyQuotes    = "csv.lazy_quotes"
	KeyCSVEncoding      = "csv.encoding"
	KeyStorageDB        = "storage.db"
	KeyServePort        = "serve.port"
	KeyLogLevel         = "log.level"
	KeyRules            = "rules"

	EnvPrefix = "XLDICT"
)

type Config struct {
	Reader  ReaderConfig  `mapstructure:"reader"`
	CSV     CSVConfig     `mapstructure:"csv"`
	Storage StorageConfig `mapstructure:"storage"`
	Serve   ServeConfig   `mapstructure:"serve"`
	Log     LogConfig     `mapstructure:"log"`
	Rules   []Rule        `mapstructure:"rules"`
}

type ReaderConfig struct {
	Format     string   `mapstructure:"format" validate:"omitempty,oneof=csv tsv txt excel xlsx xlsm xltx xltm xls"`
	Sheet      string   `mapstructure:"sheet"`
	FieldNames []string `mapstructure:"fieldnames"`
	// RestKey and RestValue are unset unless present in the file.
	RestKey   *string `mapstructure:"restkey"`
	RestValue *string `mapstructure:"restval"`
}

type CSVConfig struct {
	Delimiter  string `mapstructure:"delimiter"`
	LazyQuotes bool   `mapstructure:"lazy_quotes"`
	Encoding   string `mapstructure:"encoding" validate:"omitempty,oneof=utf-8 utf8 utf-16 utf-16le utf-16be latin1 iso-8859-1 windows-1252 cp1252"`
}

type StorageConfig struct {
	DB string `mapstructure:"db" validate:"required"`
}

type ServeConfig struct {
	Port int `mapstructure:"port" validate:"min=1,max=65535"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=trace debug info warn warning error fatal panic"`
}

// Rule overrides reader settings for files whose name matches FileTemplate.
type Rule struct {
	Name         string   `mapstructure:"name"`
	FileTemplate string   `mapstructure:"file_template"`
	Sheet        string   `mapstructure:"sheet"`
	FieldNames   []string `mapstructure:"fieldnames"`
	RestKey      *string  `mapstructure:"restkey"`
}

// Delimiter returns the configured CSV delimiter, or 0 for the reader default.
func (c CSVConfig) DelimiterRune() (rune, error) {
	return ParseDelimiter(c.Delimiter)
}

// ParseDelimiter accepts a single character or the escape `\t`.
func ParseDelimiter(value string) (rune, error) {
	switch value {
	case "":
		return 0, nil
	case `\t`, "tab":
		return '\t', nil
	}
	if utf8.RuneCountInString(value) != 1 {
		return 0, fmt.Errorf("delimiter %q must be a single character", value)
	}
	r, _ := utf8.DecodeRuneInString(value)
	return r, nil
}

// SetDefaults sets default values if not provided
func SetDefaults() {
	setDefaults(viper.GetViper())
}

// LoadAndValidate loads config from Viper and validates it
func LoadAndValidate() (*Config, error) {
	return loadAndValidateFromViper(viper.GetViper())
}

// ValidateYAMLContent validates configuration from raw YAML content.
func ValidateYAMLContent(content []byte) (*Config, error) {
	local := viper.New()
	setDefaults(local)
	local.SetConfigType("yaml")
	if err := local.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("read config content: %w", err)
	}
	return loadAndValidateFromViper(local)
}

// ExampleYAML returns the default configuration template.
func ExampleYAML() string {
	return `# xldict configuration
reader:
  # csv|tsv|excel|xls, inferred from the file extension when empty
  format: ""
  # empty selects the active sheet
  sheet: ""
  # fieldnames: ["id", "name"]
  # restkey: "_rest"
  # restval: ""

csv:
  delimiter: ","
  lazy_quotes: false
  encoding: "utf-8"

storage:
  db: "./xldict.db"

serve:
  port: 8080

log:
  level: "info"

rules: []
`
}

func loadAndValidateFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if _, err := cfg.CSV.DelimiterRune(); err != nil {
		return nil, fmt.Errorf("validation failed: csv.%w", err)
	}
	if err := validateFieldNames("reader.fieldnames", cfg.Reader.FieldNames); err != nil {
		return nil, err
	}
	if err := validateRules(cfg.Rules); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyReaderFormat, "")
	v.SetDefault(KeyReaderSheet, "")
	v.SetDefault(KeyCSVDelimiter, ",")
	v.SetDefault(KeyCSVLazyQuotes, false)
	v.SetDefault(KeyCSVEncoding, "utf-8")
	v.SetDefault(KeyStorageDB, "./xldict.db")
	v.SetDefault(KeyServePort, 8080)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyRules, []map[string]any{})
}

func validateFieldNames(key string, names []string) error {
	for i, name := range names {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("validation failed: %s[%d] must not be blank", key, i)
		}
	}
	return nil
}

func validateRules(rules []Rule) error {
	seen := make(map[string]struct{}, len(rules))
	for i, rule := range rules {
		name := strings.TrimSpace(rule.Name)
		if name == "" {
			return fmt.Errorf("validation failed: rules[%d].name is required", i)
		}
		key := strings.ToLower(name)
		if _, exists := seen[key]; exists {
			return fmt.Errorf("validation failed: duplicate rule name %q", name)
		}
		seen[key] = struct{}{}
		template := strings.TrimSpace(rule.FileTemplate)
		if template == "" {
			return fmt.Errorf("validation failed: rules[%d].file_template is required", i)
		}
		if _, err := filepath.Match(template, ""); err != nil {
			return fmt.Errorf("validation failed: rules[%d].file_template %q: %w", i, template, err)
		}
		if err := validateFieldNames(fmt.Sprintf("rules[%d].fieldnames", i), rule.FieldNames); err != nil {
			return err
		}
	}
	return nil
}
