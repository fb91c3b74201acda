package asap3

import (
	"os"
	"reflect"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	yml "gopkg.in/yaml.v2"

	"github.com/nasa-jpl/asap3/wire"
)

// ConfigFileName is the default on-disk config file a client looks for
// next to its working directory, matching the *-http.yml convention
// the rest of this codebase's command-line tools use.
const ConfigFileName = "asap3.yml"

// ParameterConfig is the YAML-facing shape of an A3Parameter: plain
// strings/numbers so the file stays hand-editable, converted into the
// richer A3Parameter by Config.ToParameters.
type ParameterConfig struct {
	Name        string  `yaml:"Name"`
	Unit        string  `yaml:"Unit"`
	Description string  `yaml:"Description"`
	Device      string  `yaml:"Device"`
	Signal      string  `yaml:"Signal"`
	SetPoint    bool    `yaml:"SetPoint"`
	NofDecimals uint8   `yaml:"NofDecimals"`
	CycleTime   int     `yaml:"CycleTime"`
	Min         float64 `yaml:"Min"`
	Max         float64 `yaml:"Max"`
	LUN         uint16  `yaml:"LUN"`
	Type        string  `yaml:"Type"`
}

// Config is the complete on-disk configuration for an ASAP3 client:
// connection target, logging verbosity, subscription cadence, and the
// parameter list to subscribe to.
type Config struct {
	Host     string `yaml:"Host"`
	Port     uint16 `yaml:"Port"`
	LogLevel int    `yaml:"LogLevel"`

	// ScanRate is the subscription sample period in milliseconds.
	ScanRate uint16 `yaml:"ScanRate"`

	Parameters []ParameterConfig `yaml:"Parameters"`
}

// DefaultConfig returns the configuration used when no file is present,
// matching this client's documented defaults (SPEC_FULL.md §4.8).
func DefaultConfig() Config {
	return Config{
		Host:     DefaultHost,
		Port:     DefaultPort,
		LogLevel: 0,
		ScanRate: 1000,
	}
}

// load builds a fresh koanf instance on every call, populated from
// DefaultConfig() and then overlaid with the config file present at
// path, matching the load-defaults-then-overlay-file
// pattern used by this codebase's other command-line tools.
func load(path string) (*koanf.Koanf, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(DefaultConfig(), "yaml"), nil); err != nil {
		return nil, errors.Wrap(err, "load config defaults")
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if !strings.Contains(err.Error(), "no such file") {
			return nil, errors.Wrapf(err, "load config file %s", path)
		}
	}
	return k, nil
}

// LoadConfig reads and merges path over the defaults, decoding into a
// Config. A missing file is not an error: the defaults are used as-is.
func LoadConfig(path string) (Config, error) {
	k, err := load(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	decodeHook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		StringToDataTypeHookFunc(),
	)
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "yaml",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook:       decodeHook,
			WeaklyTypedInput: true,
			Result:           &cfg,
		},
	}); err != nil {
		return Config{}, errors.Wrap(err, "unmarshal config")
	}
	return cfg, nil
}

// WriteDefault writes the default configuration to path in YAML form,
// the mkconf-equivalent tool this codebase's other command-line
// utilities expose for generating a starting config file.
func WriteDefault(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer f.Close()
	if err := yml.NewEncoder(f).Encode(DefaultConfig()); err != nil {
		return errors.Wrap(err, "encode default config")
	}
	return nil
}

// dataTypeNames maps the human-readable Type strings a config file may
// use to their wire.DataType values.
var dataTypeNames = map[string]wire.DataType{
	"FLOAT32": wire.Float32,
	"FLOAT64": wire.Float64,
	"STRING":  wire.String,
	"INT16":   wire.Int16,
	"UINT16":  wire.Uint16,
	"INT32":   wire.Int32,
	"UINT32":  wire.Uint32,
	"INT64":   wire.Int64,
	"UINT64":  wire.Uint64,
}

// StringToDataTypeHookFunc is a mapstructure decode hook translating a
// config file's Type: "FLOAT32" style strings into wire.DataType. Unlike
// the parameter list itself, which koanf decodes generically via
// ParameterConfig, the DataType conversion needs this hook because
// wire.DataType is a defined numeric type with no natural string form
// mapstructure understands on its own.
func StringToDataTypeHookFunc() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to != reflect.TypeOf(wire.DataType(0)) {
			return data, nil
		}
		s, _ := data.(string)
		if t, ok := dataTypeNames[strings.ToUpper(s)]; ok {
			return t, nil
		}
		return wire.Float32, nil
	}
}

// ToParameters converts the config file's plain ParameterConfig entries
// into A3Parameters, mapping Type through the same name table
// StringToDataTypeHookFunc uses (an unknown name keeps FLOAT32) and
// keeping the Exist=true default NewA3Parameter documents.
func (c Config) ToParameters() []A3Parameter {
	out := make([]A3Parameter, len(c.Parameters))
	for i, pc := range c.Parameters {
		p := NewA3Parameter(pc.Name)
		p.Unit = pc.Unit
		p.Description = pc.Description
		p.Device = pc.Device
		p.Signal = pc.Signal
		p.SetPoint = pc.SetPoint
		if pc.NofDecimals != 0 {
			p.NofDecimals = pc.NofDecimals
		}
		p.CycleTime = pc.CycleTime
		p.Limits.Min = pc.Min
		p.Limits.Max = pc.Max
		p.LUN = pc.LUN
		if t, ok := dataTypeNames[strings.ToUpper(pc.Type)]; ok {
			p.Type = t
		}
		out[i] = p
	}
	return out
}
