package engine

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/xwinwin/SimTradeLab/internal/blotter"
	"github.com/xwinwin/SimTradeLab/internal/blotter/commission_fee"
	"github.com/xwinwin/SimTradeLab/pkg/errors"
)

type SimulationEngineV1Config struct {
	StartingCash float64               `yaml:"starting_cash" json:"starting_cash" validate:"gt=0" jsonschema:"title=Starting Cash,description=Initial cash of the simulated account,minimum=0"`
	Broker       commission_fee.Broker `yaml:"broker" json:"broker" jsonschema:"title=Broker,description=The broker to use for commission calculations"`

	SlippageRatio float64           `yaml:"slippage_ratio" json:"slippage_ratio" validate:"gte=0" jsonschema:"title=Slippage Ratio,description=Relative slippage applied around the execution price,minimum=0"`
	VolumeRatio   float64           `yaml:"volume_ratio" json:"volume_ratio" validate:"gt=0,lte=1" jsonschema:"title=Volume Ratio,description=Fraction of daily volume a single fill may take,minimum=0,maximum=1"`
	LimitMode     blotter.LimitMode `yaml:"limit_mode" json:"limit_mode" jsonschema:"title=Limit Mode,description=Whether fills are capped by traded volume"`

	StartTime optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional first day of the simulated period"`
	EndTime   optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional last day of the simulated period"`

	MarketDataPath string                  `yaml:"market_data_path" json:"market_data_path" jsonschema:"title=Market Data Path,description=Parquet file with daily bars"`
	DividendsPath  optional.Option[string] `yaml:"dividends_path" json:"dividends_path" jsonschema:"title=Dividends Path,description=Optional parquet file with dividend events"`
	Benchmark      optional.Option[string] `yaml:"benchmark" json:"benchmark" jsonschema:"title=Benchmark,description=Optional benchmark symbol"`
}

// UnmarshalYAML implements custom unmarshaling for SimulationEngineV1Config.
func (c *SimulationEngineV1Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type Config struct {
		StartingCash   float64               `yaml:"starting_cash"`
		Broker         commission_fee.Broker `yaml:"broker"`
		SlippageRatio  *float64              `yaml:"slippage_ratio"`
		VolumeRatio    *float64              `yaml:"volume_ratio"`
		LimitMode      blotter.LimitMode     `yaml:"limit_mode"`
		StartTime      *time.Time            `yaml:"start_time"`
		EndTime        *time.Time            `yaml:"end_time"`
		MarketDataPath string                `yaml:"market_data_path"`
		DividendsPath  *string               `yaml:"dividends_path"`
		Benchmark      *string               `yaml:"benchmark"`
	}

	config := Config{}
	if err := unmarshal(&config); err != nil {
		return err
	}

	defaults := EmptyConfig()

	c.StartingCash = config.StartingCash
	c.MarketDataPath = config.MarketDataPath

	c.Broker = config.Broker
	if c.Broker == "" {
		c.Broker = defaults.Broker
	}

	c.SlippageRatio = defaults.SlippageRatio
	if config.SlippageRatio != nil {
		c.SlippageRatio = *config.SlippageRatio
	}

	c.VolumeRatio = defaults.VolumeRatio
	if config.VolumeRatio != nil {
		c.VolumeRatio = *config.VolumeRatio
	}

	c.LimitMode = config.LimitMode
	if c.LimitMode == "" {
		c.LimitMode = defaults.LimitMode
	}

	if config.StartTime != nil {
		c.StartTime = optional.Some(*config.StartTime)
	}

	if config.EndTime != nil {
		c.EndTime = optional.Some(*config.EndTime)
	}

	if config.DividendsPath != nil {
		c.DividendsPath = optional.Some(*config.DividendsPath)
	}

	if config.Benchmark != nil {
		c.Benchmark = optional.Some(*config.Benchmark)
	}

	return nil
}

// Validate checks the config for a runnable simulation.
func (c *SimulationEngineV1Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeEngineConfigError, "invalid engine config", err)
	}

	switch c.LimitMode {
	case blotter.LimitModeLimit, blotter.LimitModeUnlimited:
	default:
		return errors.Newf(errors.ErrCodeEngineConfigError, "unknown limit mode %q", c.LimitMode)
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && c.EndTime.Unwrap().Before(c.StartTime.Unwrap()) {
		return errors.New(errors.ErrCodeEngineConfigError, "end_time must not be before start_time")
	}

	return nil
}

// GenerateSchema generates a JSON schema for the SimulationEngineV1Config.
func (c *SimulationEngineV1Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}
			if t.String() == "optional.Option[string]" {
				return &jsonschema.Schema{
					Type: "string",
				}
			}
			if strings.Contains(t.String(), "commission_fee.Broker") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: commission_fee.AllBrokers,
				}
			}
			if strings.Contains(t.String(), "blotter.LimitMode") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: []any{blotter.LimitModeLimit, blotter.LimitModeUnlimited},
				}
			}
			return nil
		},
	}

	schema := reflector.Reflect(c)

	schema.Title = "simulation-engine-v1-config"
	schema.Description = "Configuration schema for SimulationEngineV1"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the
// SimulationEngineV1Config.
func (c *SimulationEngineV1Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

// TestConfig returns a config for tests over the given period.
func TestConfig(startTime time.Time, endTime time.Time, broker commission_fee.Broker) SimulationEngineV1Config {
	config := EmptyConfig()
	config.StartingCash = 100000
	config.Broker = broker
	config.StartTime = optional.Some(startTime)
	config.EndTime = optional.Some(endTime)

	return config
}

// EmptyConfig returns a SimulationEngineV1Config with default values.
func EmptyConfig() SimulationEngineV1Config {
	return SimulationEngineV1Config{
		StartingCash:   0,
		Broker:         commission_fee.BrokerChinaAShare,
		SlippageRatio:  blotter.DefaultSlippageRatio,
		VolumeRatio:    blotter.DefaultVolumeRatio,
		LimitMode:      blotter.LimitModeLimit,
		StartTime:      optional.None[time.Time](),
		EndTime:        optional.None[time.Time](),
		MarketDataPath: "",
		DividendsPath:  optional.None[string](),
		Benchmark:      optional.None[string](),
	}
}
