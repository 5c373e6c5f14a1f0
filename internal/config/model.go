package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/aristath/ratecast/internal/domain"
)

var validate = validator.New()

// ModelConfig is the YAML configuration of the pipeline stages.
type ModelConfig struct {
	Acquire  AcquireConfig  `yaml:"acquire_rates"`
	Model    ModelSection   `yaml:"model"`
	Schedule ScheduleConfig `yaml:"schedule"`
}

// AcquireConfig controls the history download and its archive.
type AcquireConfig struct {
	BaseURL           string            `yaml:"base_url" validate:"required,url"`
	BaseCurrency      domain.Currency   `yaml:"base_currency" validate:"required,len=3"`
	Symbols           []domain.Currency `yaml:"symbols" validate:"dive,len=3"`
	StartDate         string            `yaml:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate           string            `yaml:"end_date" validate:"omitempty,datetime=2006-01-02"`
	RawDataLocation   string            `yaml:"raw_data_location" validate:"required"`
	S3Bucket          string            `yaml:"s3_location"`
	S3FileName        string            `yaml:"s3_file_name" validate:"required_with=S3Bucket"`
	RequestsPerSecond float64           `yaml:"requests_per_second" validate:"gte=0"`
	Timeout           time.Duration     `yaml:"timeout" validate:"gte=0"`
}

// ModelSection controls training and scoring.
type ModelSection struct {
	Horizon       int                  `yaml:"forecast_period" validate:"gt=0"`
	LookbackYears int                  `yaml:"num_look_back_yrs" validate:"gt=0"`
	EndDate       string               `yaml:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Live          bool                 `yaml:"live"`
	Currencies    []domain.Currency    `yaml:"currencies" validate:"min=1,unique,dive,len=3"`
	Grid          []domain.ModelConfig `yaml:"grid" validate:"dive"`
}

// ScheduleConfig holds six-field cron expressions for the pipeline and
// database jobs. An empty expression disables the job. Backup only runs when
// an S3 bucket is configured.
type ScheduleConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Acquire     string `yaml:"acquire"`
	Train       string `yaml:"train"`
	Score       string `yaml:"score"`
	Backup      string `yaml:"backup"`
	Maintenance string `yaml:"maintenance"`
}

// DefaultModelConfig returns the configuration used when the YAML omits a value.
func DefaultModelConfig() *ModelConfig {
	settings := domain.DefaultSettings()
	return &ModelConfig{
		Acquire: AcquireConfig{
			BaseURL:           "https://api.exchangeratesapi.io/history",
			BaseCurrency:      domain.CurrencyUSD,
			Symbols:           append([]domain.Currency(nil), settings.Currencies...),
			StartDate:         "2016-06-06",
			RawDataLocation:   "raw/rates.json",
			S3FileName:        "raw/rates.json",
			RequestsPerSecond: 1,
			Timeout:           10 * time.Second,
		},
		Model: ModelSection{
			Horizon:       settings.Horizon,
			LookbackYears: settings.LookbackYears,
			Currencies:    settings.Currencies,
			Grid:          settings.Grid,
		},
		Schedule: ScheduleConfig{
			Acquire:     "0 0 17 * * 1-5",
			Train:       "0 30 17 * * 5",
			Score:       "0 0 18 * * 1-5",
			Backup:      "0 0 19 * * 5",
			Maintenance: "0 0 3 * * 0",
		},
	}
}

// LoadModelConfig reads, defaults and validates the YAML model config.
func LoadModelConfig(path string) (*ModelConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model config: %w", err)
	}
	return ParseModelConfig(b)
}

// ParseModelConfig decodes YAML over the defaults and validates the result.
func ParseModelConfig(b []byte) (*ModelConfig, error) {
	c := DefaultModelConfig()
	// Lists replace the defaults instead of merging into them
	c.Acquire.Symbols, c.Model.Currencies, c.Model.Grid = nil, nil, nil

	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse model config: %w", err)
	}

	defaults := DefaultModelConfig()
	if len(c.Model.Currencies) == 0 {
		c.Model.Currencies = defaults.Model.Currencies
	}
	upper(c.Model.Currencies)
	if len(c.Acquire.Symbols) == 0 {
		c.Acquire.Symbols = append([]domain.Currency(nil), c.Model.Currencies...)
	}
	upper(c.Acquire.Symbols)
	c.Acquire.BaseCurrency = domain.Currency(strings.ToUpper(string(c.Acquire.BaseCurrency)))
	if c.Model.Grid == nil {
		c.Model.Grid = defaults.Model.Grid
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate model config: %w", err)
	}
	return c, nil
}

// Validate checks field rules and cross-field constraints.
func (c *ModelConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}

	if c.Acquire.EndDate != "" && c.Acquire.EndDate < c.Acquire.StartDate {
		return fmt.Errorf("acquire_rates.end_date %s is before start_date %s", c.Acquire.EndDate, c.Acquire.StartDate)
	}
	symbols := make(map[domain.Currency]bool, len(c.Acquire.Symbols))
	for _, s := range c.Acquire.Symbols {
		symbols[s] = true
	}
	for _, cur := range c.Model.Currencies {
		if !symbols[cur] {
			return fmt.Errorf("model currency %s is not among the acquired symbols", cur)
		}
	}
	return nil
}

// Settings returns the model section as domain settings.
func (c *ModelConfig) Settings() domain.Settings {
	return domain.Settings{
		Horizon:       c.Model.Horizon,
		LookbackYears: c.Model.LookbackYears,
		Currencies:    append([]domain.Currency(nil), c.Model.Currencies...),
		Grid:          append([]domain.ModelConfig(nil), c.Model.Grid...),
	}
}

// AcquireWindow returns the download range. A missing end date means today.
func (c *ModelConfig) AcquireWindow(now time.Time) (time.Time, time.Time, error) {
	start, err := domain.ParseDay(c.Acquire.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end := domain.Day(now)
	if c.Acquire.EndDate != "" {
		if end, err = domain.ParseDay(c.Acquire.EndDate); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	return start, end, nil
}

// ModelEndDate returns the last date used for training and scoring. Live
// configs and configs without an end date use today.
func (c *ModelConfig) ModelEndDate(now time.Time) (time.Time, error) {
	if c.Model.Live || c.Model.EndDate == "" {
		return domain.Day(now), nil
	}
	return domain.ParseDay(c.Model.EndDate)
}

func upper(codes []domain.Currency) {
	for i, c := range codes {
		codes[i] = domain.Currency(strings.ToUpper(string(c)))
	}
}
