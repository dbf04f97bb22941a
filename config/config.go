package config

import (
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Application config structure
type AppConfig struct {
	Name     string `mapstructure:"service_name" validate:"required"`
	Version  string `mapstructure:"version" validate:"required"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	LogPath  string `mapstructure:"log_path" validate:"required"`
	Locale   string `mapstructure:"locale" validate:"required"`

	// recorder (client) side
	SubmitURL        string        `mapstructure:"submit_url" validate:"required,url"`
	FallbackRedirect string        `mapstructure:"fallback_redirect" validate:"required"`
	RedirectDelay    time.Duration `mapstructure:"redirect_delay" validate:"gte=0"`
	UploadTimeout    time.Duration `mapstructure:"upload_timeout" validate:"gte=0"`
	MaxFileSize      int64         `mapstructure:"max_file_size" validate:"required,gt=0"`
	SegmentInterval  time.Duration `mapstructure:"segment_interval" validate:"required,gt=0"`

	// receiver (reference server) side
	Host           string `mapstructure:"host" validate:"required"`
	Port           int    `mapstructure:"port" validate:"required,gt=0,lte=65535"`
	UploadFolder   string `mapstructure:"upload_folder" validate:"required"`
	CSRFToken      string `mapstructure:"csrf_token"`
	AllowedOrigins string `mapstructure:"allowed_origins"`
}

// reading config and intializing configs for application
func InitConfig() (*viper.Viper, error) {
	vConfig := viper.NewWithOptions(viper.KeyDelimiter("__"))

	vConfig.AddConfigPath(".")
	vConfig.SetConfigName(".env")
	path := os.Getenv("ENV_PATH")
	if path != "" {
		log.Printf("env path %v", path)
		vConfig.SetConfigFile(path)
	}
	vConfig.SetConfigType("env")
	vConfig.AutomaticEnv()

	setDefault(vConfig)
	if err := vConfig.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, err
		}
		log.Printf("Reading from env varaibles.")
	}
	return vConfig, nil
}

func setDefault(v *viper.Viper) {
	// keeping watch on https://github.com/spf13/viper/issues/188
	v.SetDefault("SERVICE_NAME", "ramsalab-recorder")
	v.SetDefault("VERSION", "0.0.1")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PATH", "logs")
	v.SetDefault("LOCALE", "ar")

	v.SetDefault("SUBMIT_URL", "http://localhost:5000/submit_audio")
	v.SetDefault("FALLBACK_REDIRECT", "/thanks")
	v.SetDefault("REDIRECT_DELAY", "1500ms")
	// zero keeps uploads unbounded
	v.SetDefault("UPLOAD_TIMEOUT", "0s")
	v.SetDefault("MAX_FILE_SIZE", 16<<20)
	v.SetDefault("SEGMENT_INTERVAL", "1s")

	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("PORT", 5000)
	v.SetDefault("UPLOAD_FOLDER", "_uploads")
	v.SetDefault("CSRF_TOKEN", "")
	v.SetDefault("ALLOWED_ORIGINS", "")
}

// Getting application config from viper
func GetApplicationConfig(v *viper.Viper) (*AppConfig, error) {
	var config AppConfig
	// durations accept "1500ms" style strings and plain nanosecond counts
	err := v.Unmarshal(&config, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		log.Printf("%+v\n", err)
		return nil, err
	}

	// valdating the app config
	validate := validator.New()
	err = validate.Struct(&config)
	if err != nil {
		log.Printf("%+v\n", err)
		return nil, err
	}
	return &config, nil
}
