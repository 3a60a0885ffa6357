package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/tipdensity/internal/analysis"
	"github.com/KaramelBytes/tipdensity/internal/table"
	"github.com/KaramelBytes/tipdensity/internal/utils"
)

// EnvPrefix prefixes every environment override, e.g. TIPDENSITY_DPI or
// TIPDENSITY_COLUMNS_TIP.
const EnvPrefix = "TIPDENSITY"

// Columns names the dataset columns the pipeline reads.
type Columns struct {
	Bill   string `mapstructure:"bill" yaml:"bill"`
	Tip    string `mapstructure:"tip" yaml:"tip"`
	Sex    string `mapstructure:"sex" yaml:"sex"`
	Smoker string `mapstructure:"smoker" yaml:"smoker"`
	Day    string `mapstructure:"day" yaml:"day"`
	Time   string `mapstructure:"time" yaml:"time"`
	Size   string `mapstructure:"size" yaml:"size"`
}

// Required lists the columns that must exist in the source.
func (c Columns) Required() []string {
	return []string{c.Bill, c.Tip, c.Sex, c.Smoker, c.Day, c.Time, c.Size}
}

// Labels holds user-facing text.
type Labels struct {
	XAxis       string `mapstructure:"x_axis" yaml:"x_axis"`
	YAxis       string `mapstructure:"y_axis" yaml:"y_axis"`
	TitleSex    string `mapstructure:"title_sex" yaml:"title_sex"`
	TitleSize   string `mapstructure:"title_size" yaml:"title_size"`
	TitleDay    string `mapstructure:"title_day" yaml:"title_day"`
	SectionSex  string `mapstructure:"section_sex" yaml:"section_sex"`
	SectionSize string `mapstructure:"section_size" yaml:"section_size"`
	SectionDay  string `mapstructure:"section_day" yaml:"section_day"`
	Done        string `mapstructure:"done" yaml:"done"`
}

// Order holds the group order policy per dimension (sorted or appearance).
type Order struct {
	Sex  string `mapstructure:"sex" yaml:"sex"`
	Size string `mapstructure:"size" yaml:"size"`
	Day  string `mapstructure:"day" yaml:"day"`
}

// Global configuration structure.
type Global struct {
	InputPath        string  `mapstructure:"input_path" yaml:"input_path"`
	OutputDir        string  `mapstructure:"output_dir" yaml:"output_dir"`
	DPI              int     `mapstructure:"dpi" yaml:"dpi"`
	FigureWidthIn    float64 `mapstructure:"figure_width_in" yaml:"figure_width_in"`
	FigureHeightIn   float64 `mapstructure:"figure_height_in" yaml:"figure_height_in"`
	DefaultDelimiter string  `mapstructure:"default_delimiter" yaml:"default_delimiter"`
	SniffSampleBytes int     `mapstructure:"sniff_sample_bytes" yaml:"sniff_sample_bytes"`
	DecimalSeparator string  `mapstructure:"decimal_separator" yaml:"decimal_separator"`
	SummaryEnabled   bool    `mapstructure:"summary_enabled" yaml:"summary_enabled"`
	SummaryFile      string  `mapstructure:"summary_file" yaml:"summary_file"`
	ReportDelimiter  string  `mapstructure:"report_delimiter" yaml:"report_delimiter"`
	GridSize         int     `mapstructure:"grid_size" yaml:"grid_size"`

	Columns Columns           `mapstructure:"columns" yaml:"columns"`
	Labels  Labels            `mapstructure:"labels" yaml:"labels"`
	Order   Order             `mapstructure:"order" yaml:"order"`
	Palette map[string]string `mapstructure:"palette" yaml:"palette"`
}

var defaults = map[string]any{
	"input_path":         filepath.Join("data", "Gorjetas.csv"),
	"output_dir":         "out",
	"dpi":                200,
	"figure_width_in":    10.0,
	"figure_height_in":   6.0,
	"default_delimiter":  ";",
	"sniff_sample_bytes": 4096,
	"decimal_separator":  ".",
	"summary_enabled":    true,
	"summary_file":       "resumo_estatistico.csv",
	"report_delimiter":   ",",
	"grid_size":          200,

	"columns.bill":   "total_conta",
	"columns.tip":    "gorjeta",
	"columns.sex":    "sexo",
	"columns.smoker": "fumante",
	"columns.day":    "dia",
	"columns.time":   "tempo",
	"columns.size":   "quantidade",

	"labels.x_axis":       "Gorjeta (unidade monetária)",
	"labels.y_axis":       "Densidade",
	"labels.title_sex":    "Densidade do valor de gorjetas por sexo",
	"labels.title_size":   "Densidade do valor de gorjetas por quantidade de pessoas na mesa",
	"labels.title_day":    "Densidade do valor de gorjetas por dia da semana",
	"labels.section_sex":  "Resumo de gorjetas por sexo",
	"labels.section_size": "Resumo de gorjetas por quantidade",
	"labels.section_day":  "Resumo de gorjetas por dia",
	"labels.done":         "Concluído! As imagens e o resumo foram salvos em:",

	"order.sex":  string(analysis.OrderSorted),
	"order.size": string(analysis.OrderSorted),
	"order.day":  string(analysis.OrderAppearance),

	"palette": map[string]any{"Homem": "blue", "Mulher": "purple"},
}

// Keys lists every settable key in sorted order. Palette entries are set
// as palette.<group>.
func Keys() []string {
	out := make([]string, 0, len(defaults))
	for k := range defaults {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	return v
}

// DefaultPath returns ~/.tipdensity/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".tipdensity", "config.yaml"), nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults; flags are applied by the caller.
// A missing config file is not an error.
func Load(cfgFile string) (*Global, error) {
	v := newViper()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		path, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		v.SetConfigFile(path)
	}
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.tipdensity/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := c.YAML()
	if err != nil {
		return err
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// YAML renders the configuration as it would be saved.
func (c *Global) YAML() ([]byte, error) {
	b, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}
	return b, nil
}

// Set assigns value to a dotted key, converting it to the key's type, and
// validates the result. c is left unchanged on error.
func (c *Global) Set(key, value string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	if _, ok := defaults[key]; !ok && !strings.HasPrefix(key, "palette.") {
		return fmt.Errorf("unknown key: %s", key)
	}
	if key == "palette" {
		return fmt.Errorf("set palette entries as palette.<group>")
	}
	b, err := c.YAML()
	if err != nil {
		return err
	}
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(b)); err != nil {
		return fmt.Errorf("reload config: %w", err)
	}
	v.Set(key, value)
	var next Global
	if err := v.Unmarshal(&next); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// Validate checks value ranges and enumerations.
func (c *Global) Validate() error {
	if c.DPI <= 0 {
		return fmt.Errorf("invalid dpi: %d", c.DPI)
	}
	if c.FigureWidthIn <= 0 || c.FigureHeightIn <= 0 {
		return fmt.Errorf("invalid figure size: %gx%g", c.FigureWidthIn, c.FigureHeightIn)
	}
	if c.SniffSampleBytes <= 0 {
		return fmt.Errorf("invalid sniff_sample_bytes: %d", c.SniffSampleBytes)
	}
	if c.GridSize < 2 {
		return fmt.Errorf("invalid grid_size: %d", c.GridSize)
	}
	if _, err := ParseDelimiter(c.DefaultDelimiter); err != nil {
		return fmt.Errorf("default_delimiter: %w", err)
	}
	if _, err := ParseDelimiter(c.ReportDelimiter); err != nil {
		return fmt.Errorf("report_delimiter: %w", err)
	}
	if _, err := table.ParseDecimalSeparator(c.DecimalSeparator); err != nil {
		return fmt.Errorf("decimal_separator: %w", err)
	}
	for name, o := range map[string]string{"order.sex": c.Order.Sex, "order.size": c.Order.Size, "order.day": c.Order.Day} {
		if _, err := analysis.ParseOrder(o); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	for name, col := range map[string]string{
		"bill": c.Columns.Bill, "tip": c.Columns.Tip, "sex": c.Columns.Sex, "smoker": c.Columns.Smoker,
		"day": c.Columns.Day, "time": c.Columns.Time, "size": c.Columns.Size,
	} {
		if strings.TrimSpace(col) == "" {
			return fmt.Errorf("columns.%s must not be empty", name)
		}
	}
	return nil
}

// ParseDelimiter accepts a single character or the names comma, semicolon,
// tab and pipe.
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "comma":
		return ',', nil
	case "semicolon":
		return ';', nil
	case "tab", `\t`:
		return '\t', nil
	case "pipe":
		return '|', nil
	}
	r := []rune(s)
	if len(r) != 1 || r[0] == '"' || r[0] == '\n' || r[0] == '\r' {
		return 0, fmt.Errorf("unsupported delimiter %q", s)
	}
	return r[0], nil
}
