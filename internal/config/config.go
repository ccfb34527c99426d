package config

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Years     []int           `yaml:"years" mapstructure:"years"`
	Paths     PathsConfig     `yaml:"paths" mapstructure:"paths"`
	LULC      LULCConfig      `yaml:"lulc" mapstructure:"lulc"`
	Vector    VectorConfig    `yaml:"vector" mapstructure:"vector"`
	OSM       OSMConfig       `yaml:"osm" mapstructure:"osm"`
	WDPA      WDPAConfig      `yaml:"wdpa" mapstructure:"wdpa"`
	Impedance ImpedanceConfig `yaml:"impedance" mapstructure:"impedance"`
	Tools     ToolsConfig     `yaml:"tools" mapstructure:"tools"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// PathsConfig lays out the on-disk working directories.
type PathsConfig struct {
	InputDir     string `yaml:"input_dir" mapstructure:"input_dir"`
	OutputDir    string `yaml:"output_dir" mapstructure:"output_dir"`
	LULCDir      string `yaml:"lulc_dir" mapstructure:"lulc_dir"`
	VectorDir    string `yaml:"vector_dir" mapstructure:"vector_dir"`
	ImpedanceDir string `yaml:"impedance_dir" mapstructure:"impedance_dir"`
}

// LULCConfig describes the land-use/land-cover inputs.
// Template and ImpedanceTIF carry a {year} placeholder.
type LULCConfig struct {
	Template     string         `yaml:"template" mapstructure:"template"`
	ImpedanceTIF string         `yaml:"impedance_tif" mapstructure:"impedance_tif"`
	ReclassTable string         `yaml:"reclass_table" mapstructure:"reclass_table"`
	UserMatching string         `yaml:"user_matching" mapstructure:"user_matching"`
	Codes        map[string]int `yaml:"codes" mapstructure:"codes"`
}

// MappingCodes resolves the LULC mapping strategy. "true" uses the
// user-defined lulc.codes table; "false" asks for the text-matching tool,
// which is not supported here; anything else means no strategy was chosen.
// Both of the latter abort the run: without a mapping every downstream
// stressor is meaningless.
func (c LULCConfig) MappingCodes() (map[string]int, error) {
	switch strings.ToLower(c.UserMatching) {
	case "true":
		return c.Codes, nil
	case "false":
		return nil, eris.New("config: text-matching of LULC codes is not supported; set lulc.user_matching to true and define lulc.codes")
	default:
		return nil, eris.New("config: no mapping between OSM features and LULC types; set lulc.user_matching")
	}
}

// VectorConfig configures the vector enrichment stage. OSMData takes priority
// over UserVector when both are set; both carry a {year} placeholder.
type VectorConfig struct {
	OSMData      string   `yaml:"osm_data" mapstructure:"osm_data"`
	UserVector   string   `yaml:"user_vector" mapstructure:"user_vector"`
	BufferLayers []string `yaml:"buffer_layers" mapstructure:"buffer_layers"`
	BufferEPSG   int      `yaml:"buffer_epsg" mapstructure:"buffer_epsg"`
}

// OSMConfig configures the Overpass fetch stage.
type OSMConfig struct {
	OverpassURL string  `yaml:"overpass_url" mapstructure:"overpass_url"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxSize     int64   `yaml:"max_size" mapstructure:"max_size"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// WDPAConfig configures the protected-area API fetch.
type WDPAConfig struct {
	APIURL           string `yaml:"api_url" mapstructure:"api_url"`
	Token            string `yaml:"token" mapstructure:"token"`
	Marine           bool   `yaml:"marine" mapstructure:"marine"`
	CountryShapefile string `yaml:"country_shapefile" mapstructure:"country_shapefile"`
	PerPage          int    `yaml:"per_page" mapstructure:"per_page"`
	Concurrency      int    `yaml:"concurrency" mapstructure:"concurrency"`
}

// ImpedanceConfig configures the impedance stage file locations and the
// default decay parameters seeded into new stressor entries.
type ImpedanceConfig struct {
	ConfigPath    string  `yaml:"config_path" mapstructure:"config_path"`
	StressorsPath string  `yaml:"stressors_path" mapstructure:"stressors_path"`
	DeclineType   string  `yaml:"decline_type" mapstructure:"decline_type"`
	LambdaDecay   float64 `yaml:"lambda_decay" mapstructure:"lambda_decay"`
	KValue        float64 `yaml:"k_value" mapstructure:"k_value"`
}

// ToolsConfig holds paths to the external GDAL/OGR binaries. Empty values
// fall back to the bare command name resolved through PATH.
type ToolsConfig struct {
	Ogr2Ogr       string `yaml:"ogr2ogr" mapstructure:"ogr2ogr"`
	GdalRasterize string `yaml:"gdal_rasterize" mapstructure:"gdal_rasterize"`
	GdalTranslate string `yaml:"gdal_translate" mapstructure:"gdal_translate"`
	GdalProximity string `yaml:"gdal_proximity" mapstructure:"gdal_proximity"`
	GdalTransform string `yaml:"gdaltransform" mapstructure:"gdaltransform"`
	GdalInfo      string `yaml:"gdalinfo" mapstructure:"gdalinfo"`
	OsmToGeoJSON  string `yaml:"osmtogeojson" mapstructure:"osmtogeojson"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LANDPREP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("paths.input_dir", "data/input")
	v.SetDefault("paths.output_dir", "data/output")
	v.SetDefault("paths.lulc_dir", "data/input/lulc")
	v.SetDefault("paths.vector_dir", "data/input/vector")
	v.SetDefault("paths.impedance_dir", "data/input/impedance")
	v.SetDefault("lulc.template", "lulc_{year}.tif")
	v.SetDefault("lulc.impedance_tif", "impedance_{year}.tif")
	v.SetDefault("lulc.reclass_table", "reclassification.csv")
	v.SetDefault("vector.buffer_layers", []string{"roads", "railways"})
	v.SetDefault("vector.buffer_epsg", 27700)
	v.SetDefault("osm.overpass_url", "https://overpass-api.de/api/interpreter")
	v.SetDefault("osm.timeout_secs", 9000)
	v.SetDefault("osm.max_size", int64(1073741824))
	v.SetDefault("osm.rate_per_sec", 0.5)
	v.SetDefault("wdpa.api_url", "https://api.protectedplanet.net")
	v.SetDefault("wdpa.per_page", 50)
	v.SetDefault("wdpa.concurrency", 3)
	v.SetDefault("impedance.config_path", "config_impedance.yaml")
	v.SetDefault("impedance.stressors_path", "stressors.yaml")
	v.SetDefault("impedance.decline_type", "exp_decline")
	v.SetDefault("impedance.lambda_decay", 500.0)
	v.SetDefault("impedance.k_value", 500.0)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	// The years key accepts a single integer or a list, so normalize from the
	// raw value rather than relying on the struct unmarshal.
	years, err := NormalizeYears(v.Get("years"))
	if err != nil {
		return nil, err
	}
	cfg.Years = years

	return &cfg, nil
}

// DefaultYear is used when the configuration carries no usable years value.
const DefaultYear = 2018

// NormalizeYears accepts the raw years config value (a single integer, a
// string, or a list of either) and returns a []int in input order. A nil or
// empty value yields DefaultYear with a warning.
func NormalizeYears(raw any) ([]int, error) {
	if raw == nil {
		zap.L().Warn("years not set in configuration, using default",
			zap.Int("year", DefaultYear))
		return []int{DefaultYear}, nil
	}

	switch v := raw.(type) {
	case []any:
		if len(v) == 0 {
			zap.L().Warn("years list empty in configuration, using default",
				zap.Int("year", DefaultYear))
			return []int{DefaultYear}, nil
		}
		years := make([]int, 0, len(v))
		for _, e := range v {
			y, err := yearValue(e)
			if err != nil {
				return nil, err
			}
			years = append(years, y)
		}
		return years, nil
	case []int:
		if len(v) == 0 {
			zap.L().Warn("years list empty in configuration, using default",
				zap.Int("year", DefaultYear))
			return []int{DefaultYear}, nil
		}
		return v, nil
	default:
		y, err := yearValue(raw)
		if err != nil {
			return nil, err
		}
		return []int{y}, nil
	}
}

func yearValue(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, eris.Wrapf(err, "config: invalid year %q", n)
		}
		return i, nil
	default:
		return 0, eris.Errorf("config: invalid year value %v", v)
	}
}

// ExpandYear substitutes the {year} placeholder in a filename template.
func ExpandYear(tmpl string, year int) string {
	return strings.ReplaceAll(tmpl, "{year}", strconv.Itoa(year))
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
