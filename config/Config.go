package config

import (
	"strings"
	"time"

	"face-attendance/model"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	EnvPrefix  = "FACE_ATTENDANCE"
	ConfigName = "face-attendance"
)

type AppConfig struct {
	DataDir     string              `mapstructure:"dataDir"`
	ModelsDir   string              `mapstructure:"modelsDir"`
	OutputDir   string              `mapstructure:"outputDir"`
	Roster      string              `mapstructure:"roster"`
	People      []model.Person      `mapstructure:"people"`
	Camera      CameraSettings      `mapstructure:"camera"`
	Recognition RecognitionSettings `mapstructure:"recognition"`
	Attendance  AttendanceSettings  `mapstructure:"attendance"`
	Convert     ConvertSettings     `mapstructure:"convert"`
	MQTT        MQTTSettings        `mapstructure:"mqtt"`
	Log         LogSettings         `mapstructure:"log"`
}

type CameraSettings struct {
	Device          string        `mapstructure:"device"`
	Scale           float64       `mapstructure:"scale"`
	RetryDelay      time.Duration `mapstructure:"retryDelay"`
	MaxReadFailures int           `mapstructure:"maxReadFailures"`
	Headless        bool          `mapstructure:"headless"`
}

type RecognitionSettings struct {
	// Tolerance is the largest Euclidean distance still counted as a match.
	Tolerance float64 `mapstructure:"tolerance"`
}

type AttendanceSettings struct {
	Append           bool `mapstructure:"append"`
	StopWhenComplete bool `mapstructure:"stopWhenComplete"`
}

type ConvertSettings struct {
	Quality int    `mapstructure:"quality"`
	Suffix  string `mapstructure:"suffix"`
}

type MQTTSettings struct {
	Broker   string `mapstructure:"broker"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Topic    string `mapstructure:"topic"`
}

type LogSettings struct {
	Level string `mapstructure:"level"`
}

var (
	appConfig = Default()
	log       = logrus.WithField("component", "CONFIG")
)

// Default returns the built-in settings: the two-person roster read from the
// working directory and the default camera.
func Default() *AppConfig {
	return &AppConfig{
		DataDir:   ".",
		ModelsDir: "models",
		OutputDir: ".",
		People: []model.Person{
			{Name: "monu", Image: "monu_fixed.jpg"},
			{Name: "rohan", Image: "rohan_fixed.jpg"},
		},
		Camera: CameraSettings{
			Device:     "0",
			Scale:      0.25,
			RetryDelay: 100 * time.Millisecond,
		},
		Recognition: RecognitionSettings{Tolerance: 0.6},
		Convert:     ConvertSettings{Quality: 95, Suffix: "_reprocessed"},
		MQTT:        MQTTSettings{Topic: "/attendance"},
		Log:         LogSettings{Level: "info"},
	}
}

// SetDefaults registers every key on v so that environment variables are
// picked up by Unmarshal even when no config file mentions them.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("dataDir", d.DataDir)
	v.SetDefault("modelsDir", d.ModelsDir)
	v.SetDefault("outputDir", d.OutputDir)
	v.SetDefault("roster", d.Roster)
	v.SetDefault("people", d.People)
	v.SetDefault("camera.device", d.Camera.Device)
	v.SetDefault("camera.scale", d.Camera.Scale)
	v.SetDefault("camera.retryDelay", d.Camera.RetryDelay)
	v.SetDefault("camera.maxReadFailures", d.Camera.MaxReadFailures)
	v.SetDefault("camera.headless", d.Camera.Headless)
	v.SetDefault("recognition.tolerance", d.Recognition.Tolerance)
	v.SetDefault("attendance.append", d.Attendance.Append)
	v.SetDefault("attendance.stopWhenComplete", d.Attendance.StopWhenComplete)
	v.SetDefault("convert.quality", d.Convert.Quality)
	v.SetDefault("convert.suffix", d.Convert.Suffix)
	v.SetDefault("mqtt.broker", d.MQTT.Broker)
	v.SetDefault("mqtt.username", d.MQTT.Username)
	v.SetDefault("mqtt.password", d.MQTT.Password)
	v.SetDefault("mqtt.topic", d.MQTT.Topic)
	v.SetDefault("log.level", d.Log.Level)
}

// BindEnv makes FACE_ATTENDANCE_CAMERA_DEVICE override camera.device and so on.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load decodes v into an AppConfig, validates it and makes it the value
// returned by Config.
func Load(v *viper.Viper) (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "fail to decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	appConfig = cfg
	log.Debugln("Config loaded successfully")
	return cfg, nil
}

func (c *AppConfig) Validate() error {
	if c.Camera.Scale <= 0 || c.Camera.Scale > 1 {
		return errors.Errorf("camera.scale must be in (0, 1], got %v", c.Camera.Scale)
	}
	if c.Recognition.Tolerance <= 0 {
		return errors.Errorf("recognition.tolerance must be positive, got %v", c.Recognition.Tolerance)
	}
	if c.Convert.Quality < 1 || c.Convert.Quality > 100 {
		return errors.Errorf("convert.quality must be in [1, 100], got %d", c.Convert.Quality)
	}
	if c.Camera.MaxReadFailures < 0 {
		return errors.Errorf("camera.maxReadFailures must not be negative, got %d", c.Camera.MaxReadFailures)
	}
	return nil
}

func Config() *AppConfig {
	return appConfig
}
