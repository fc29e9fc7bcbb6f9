package config

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/viper"
)

type Config struct {
	App         App           `yaml:"app"`
	Server      Server        `yaml:"server"`
	Transcode   Transcode     `yaml:"transcode"`
	Blob        Blob          `yaml:"blob"`
	Watch       Watch         `yaml:"watch"`
	MinIOBucket string        `yaml:"minio_bucket"`
	DB          *sql.DB       `yaml:"db"`
	Queue       *RabbitMQ     `yaml:"rabbitmq"`
	Storage     *minio.Client `yaml:"storage"`
}

type App struct {
	Environment string `yaml:"environment"`
	Host        string `yaml:"host"`
	Protocol    string `yaml:"protocol"`
}

// PublicBaseURL is the externally reachable root of this node; manifest
// entries are rendered against it so they stay valid after the manifest
// is relocated into the blob store.
func (a App) PublicBaseURL() string {
	return fmt.Sprintf("%s://%s", a.Protocol, a.Host)
}

type Server struct {
	HttpPort string `yaml:"http_port"`
	Workers  int    `yaml:"workers"`
}

type Transcode struct {
	StagingRoot    string        `yaml:"staging_root"`
	SegmentSeconds int           `yaml:"segment_seconds"`
	VariantTimeout time.Duration `yaml:"variant_timeout"`
	Variants       []Variant     `yaml:"variants"`
}

// Variant is one rung of the encode ladder. Bitrate is the video target
// in kbit/s; AudioRate the audio target in kbit/s.
type Variant struct {
	Name      string `yaml:"name"`
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	Bitrate   int    `yaml:"bitrate"`
	AudioRate int    `yaml:"audio_rate"`
}

func (v Variant) Resolution() string {
	return fmt.Sprintf("%dx%d", v.Width, v.Height)
}

type Blob struct {
	Backend string `yaml:"backend"`
	FSRoot  string `yaml:"fs_root"`
}

type Watch struct {
	Dir             string        `yaml:"dir"`
	DebounceTimeout time.Duration `yaml:"debounce_timeout"`
}

type RabbitMQ struct {
	Host string `json:"host"`
	Port int    `json:"port"`
	User string `json:"user"`
	Pass string `json:"pass"`
	Kind string `json:"kind"`
}

// DefaultVariants is the built-in three-tier ladder used when the
// config file does not override transcode.variants.
func DefaultVariants() []Variant {
	return []Variant{
		{Name: "1080p", Width: 1920, Height: 1080, Bitrate: 5000, AudioRate: 192},
		{Name: "720p", Width: 1280, Height: 720, Bitrate: 3000, AudioRate: 128},
		{Name: "480p", Width: 854, Height: 480, Bitrate: 1500, AudioRate: 96},
	}
}

func Load(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("app.environment", "develop")
	viper.SetDefault("app.protocol", "http")
	viper.SetDefault("app.host", "localhost:8080")
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.workers", 3)
	viper.SetDefault("transcode.staging_root", "./staging")
	viper.SetDefault("transcode.segment_seconds", 4)
	viper.SetDefault("transcode.variant_timeout_seconds", 600)
	viper.SetDefault("blob.backend", "fs")
	viper.SetDefault("blob.fs_root", "./blobs")
	viper.SetDefault("watch.debounce_seconds", 5)
	viper.SetDefault("rabbitmq_kind", "direct")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := &Config{
		App: App{
			Environment: viper.GetString("app.environment"),
			Host:        viper.GetString("app.host"),
			Protocol:    viper.GetString("app.protocol"),
		},
		Server: Server{
			HttpPort: viper.GetString("server.port"),
			Workers:  viper.GetInt("server.workers"),
		},
		Transcode: Transcode{
			StagingRoot:    viper.GetString("transcode.staging_root"),
			SegmentSeconds: viper.GetInt("transcode.segment_seconds"),
			VariantTimeout: time.Duration(viper.GetInt("transcode.variant_timeout_seconds")) * time.Second,
			Variants:       loadVariants(),
		},
		Blob: Blob{
			Backend: viper.GetString("blob.backend"),
			FSRoot:  viper.GetString("blob.fs_root"),
		},
		Watch: Watch{
			Dir:             viper.GetString("watch.dir"),
			DebounceTimeout: time.Duration(viper.GetInt("watch.debounce_seconds")) * time.Second,
		},
	}

	if dsn := viper.GetString("postgresql_host"); dsn != "" {
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, err
		}
		cfg.DB = db
	}

	if viper.GetString("rabbitmq_host") != "" {
		cfg.Queue = &RabbitMQ{
			Host: viper.GetString("rabbitmq_host"),
			Port: viper.GetInt("rabbitmq_port"),
			User: viper.GetString("rabbitmq_user"),
			Pass: viper.GetString("rabbitmq_pass"),
			Kind: viper.GetString("rabbitmq_kind"),
		}
	}

	if cfg.Blob.Backend == "minio" {
		minioClient, err := minio.New(viper.GetString("minio.url"), &minio.Options{
			Creds:  credentials.NewStaticV4(viper.GetString("minio.access_id"), viper.GetString("minio.secret_access_key"), ""),
			Secure: viper.GetBool("minio.secure"),
		})
		if err != nil {
			return nil, err
		}
		cfg.Storage = minioClient
		cfg.MinIOBucket = viper.GetString("minio.bucket")
	}

	return cfg, nil
}

func loadVariants() []Variant {
	var variants []Variant
	if err := viper.UnmarshalKey("transcode.variants", &variants); err != nil || len(variants) == 0 {
		return DefaultVariants()
	}
	return variants
}
