package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"versereel/internal/dirs"
	"versereel/internal/library"
	"versereel/internal/model"
)

// EnvPrefix is prepended to every environment override, e.g. VERSEREEL_REDIS_ADDR.
const EnvPrefix = "VERSEREEL"

// Settings is the fully resolved configuration.
type Settings struct {
	BaseDir      string          `mapstructure:"base_dir"`
	OutDir       string          `mapstructure:"out_dir"`
	FFmpeg       string          `mapstructure:"ffmpeg"`
	Verbose      bool            `mapstructure:"verbose"`
	EstimateFile string          `mapstructure:"estimate_file"`
	Library      LibrarySettings `mapstructure:"library"`
	Redis        RedisSettings   `mapstructure:"redis"`
	Server       ServerSettings  `mapstructure:"server"`
	Worker       WorkerSettings  `mapstructure:"worker"`
	S3           S3Settings      `mapstructure:"s3"`
}

// LibrarySettings locates the media library. Relative paths are resolved
// against BaseDir.
type LibrarySettings struct {
	Clips         string              `mapstructure:"clips"`
	Audio         string              `mapstructure:"audio"`
	Quotes        string              `mapstructure:"quotes"`
	Logo          string              `mapstructure:"logo"`
	ReferenceFont string              `mapstructure:"reference_font"`
	FallbackFont  string              `mapstructure:"fallback_font"`
	Fonts         []model.FontProfile `mapstructure:"fonts"`
}

// RedisSettings is shared by the queue and the estimate store.
type RedisSettings struct {
	Addr        string `mapstructure:"addr"`
	Password    string `mapstructure:"password"`
	DB          int    `mapstructure:"db"`
	EstimateKey string `mapstructure:"estimate_key"`
}

type ServerSettings struct {
	Addr string `mapstructure:"addr"`
}

type WorkerSettings struct {
	Concurrency int `mapstructure:"concurrency"`
}

// S3Settings enables publishing when Bucket is set.
type S3Settings struct {
	Bucket       string `mapstructure:"bucket"`
	Prefix       string `mapstructure:"prefix"`
	Region       string `mapstructure:"region"`
	Profile      string `mapstructure:"profile"`
	UsePathStyle bool   `mapstructure:"use_path_style"`
	SkipExisting bool   `mapstructure:"skip_existing"`
}

var defaultFontFiles = []string{
	"CoffeeJellyUmai.ttf",
	"CourierprimecodeRegular.ttf",
	"PineappleDays.ttf",
	"GreenTeaJelly.ttf",
	"HeyMarch.ttf",
	"LetsCoffee.ttf",
	"LikeSlim.ttf",
	"SunnySpellsBasicRegular.ttf",
	"TakeCoffee.ttf",
	"WantCoffee.ttf",
}

var (
	defaultFontSizes    = []int{95, 70, 65, 85, 75, 50, 75, 87, 50, 65}
	defaultFontMaxChars = []int{34, 25, 30, 45, 33, 34, 35, 32, 35, 35}
)

// DefaultFonts returns the stock font profiles, relative to the base dir.
func DefaultFonts() []model.FontProfile {
	out := make([]model.FontProfile, len(defaultFontFiles))
	for i, f := range defaultFontFiles {
		out[i] = model.FontProfile{
			Path:     filepath.Join("sources", "fonts", f),
			Size:     defaultFontSizes[i],
			MaxChars: defaultFontMaxChars[i],
		}
	}
	return out
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("base_dir", ".")
	v.SetDefault("out_dir", "customers")
	v.SetDefault("ffmpeg", "")
	v.SetDefault("verbose", false)
	v.SetDefault("estimate_file", "")

	v.SetDefault("library.clips", "videos")
	v.SetDefault("library.audio", "audio")
	v.SetDefault("library.quotes", filepath.Join("sources", "verses_data", "motivation_data.json"))
	v.SetDefault("library.logo", filepath.Join("sources", "logo.png"))
	v.SetDefault("library.reference_font", filepath.Join("sources", "MouldyCheeseRegular-WyMWG.ttf"))
	v.SetDefault("library.fallback_font", filepath.Join("sources", "fonts", "PermanentMarker-Regular.ttf"))
	v.SetDefault("library.fonts", DefaultFonts())

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.estimate_key", "versereel:estimate")

	v.SetDefault("server.addr", ":8000")
	v.SetDefault("worker.concurrency", 1)

	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.prefix", "")
	v.SetDefault("s3.region", "")
	v.SetDefault("s3.profile", "")
	v.SetDefault("s3.use_path_style", false)
	v.SetDefault("s3.skip_existing", false)
}

// Init wires Viper with config paths, env, defaults, and flag bindings.
// It is non-fatal: any errors are returned for optional handling by caller.
func Init(root *cobra.Command) error {
	// Ensure base directories exist
	_ = dirs.EnsureAll()

	v := viper.GetViper()
	SetDefaults(v)

	if cfgFile, _ := root.PersistentFlags().GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if cfgDir, err := dirs.ConfigDir(); err == nil {
			_ = dirs.Ensure(cfgDir)
			v.AddConfigPath(cfgDir)
		}
		v.AddConfigPath(".")
		v.SetConfigName("config") // supports config.{yaml|yml|json|toml}
	}

	// Environment variables: VERSEREEL_*
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(envReplacer())
	v.AutomaticEnv()

	// Bind root persistent flags to Viper keys
	_ = v.BindPFlag("base_dir", root.PersistentFlags().Lookup("base-dir"))
	_ = v.BindPFlag("out_dir", root.PersistentFlags().Lookup("out-dir"))
	_ = v.BindPFlag("verbose", root.PersistentFlags().Lookup("verbose"))
	_ = v.BindPFlag("ffmpeg", root.PersistentFlags().Lookup("ffmpeg"))

	// Read config file if present; only an explicit --config must exist.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// LoadDotEnv loads a .env file into the process environment when one exists.
// Server and worker modes call it before Init so the file can feed VERSEREEL_* keys.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

func envReplacer() *strings.Replacer {
	return strings.NewReplacer("-", "_", ".", "_")
}

// Load unmarshals the global Viper instance.
func Load() (Settings, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom unmarshals v into Settings and resolves relative paths.
func LoadFrom(v *viper.Viper) (Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decode config: %w", err)
	}
	if s.BaseDir == "" {
		s.BaseDir = "."
	}
	s.OutDir = s.resolve(s.OutDir)
	if s.EstimateFile == "" {
		if p, err := dirs.EstimateFile(); err == nil {
			s.EstimateFile = p
		}
	}
	if s.Worker.Concurrency <= 0 {
		s.Worker.Concurrency = 1
	}
	if len(s.Library.Fonts) == 0 {
		return Settings{}, errors.New("config: library.fonts must list at least one font")
	}
	return s, nil
}

// LibrarySource returns the on-disk library locations with paths resolved.
func (s Settings) LibrarySource() library.Source {
	fonts := make([]model.FontProfile, len(s.Library.Fonts))
	for i, f := range s.Library.Fonts {
		f.Path = s.resolve(f.Path)
		fonts[i] = f
	}
	return library.Source{
		ClipsDir:      s.resolve(s.Library.Clips),
		AudioDir:      s.resolve(s.Library.Audio),
		QuotesFile:    s.resolve(s.Library.Quotes),
		LogoImage:     s.resolve(s.Library.Logo),
		ReferenceFont: s.resolve(s.Library.ReferenceFont),
		FallbackFont:  s.resolve(s.Library.FallbackFont),
		Fonts:         fonts,
	}
}

func (s Settings) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.BaseDir, p)
}
