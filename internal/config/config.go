package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	App          App          `mapstructure:",squash"`
	Server       Server       `mapstructure:",squash"`
	Database     Database     `mapstructure:",squash"`
	Render       Render       `mapstructure:",squash"`
	Metrics      Metrics      `mapstructure:",squash"`
	SnapshotSync SnapshotSync `mapstructure:",squash"`
	SecretKey    string       `mapstructure:"secret_key"`
}

type Server struct {
	Host        string   `mapstructure:"host"`
	Port        string   `mapstructure:"port"`
	CorsOrigins []string `mapstructure:"cors_origins"`
}

type Database struct {
	DSN      string `mapstructure:"-"`
	Driver   string `mapstructure:"database_driver"`
	Password string `mapstructure:"database_password"`
	URL      string `mapstructure:"database_url"`
	User     string `mapstructure:"database_user"`
	// Pool de conexões
	MaxOpenConns    int           `mapstructure:"database_max_open_conns"`
	MaxIdleConns    int           `mapstructure:"database_max_idle_conns"`
	ConnMaxIdleTime time.Duration `mapstructure:"database_conn_max_idle_time"`
}

type Render struct {
	APIKey    string `mapstructure:"render_api_key"`
	ServiceID string `mapstructure:"render_service_id"`
}

type App struct {
	LogLevel    string `mapstructure:"log_level"`
	Environment string `mapstructure:"app_env"`
}

// Metrics configura o motor de agregação
type Metrics struct {
	Timezone             string        `mapstructure:"metrics_timezone"`
	DefaultDateField     string        `mapstructure:"metrics_default_date_field"`
	MaxConcurrentFetches int           `mapstructure:"metrics_max_concurrent_fetches"`
	Timeout              time.Duration `mapstructure:"metrics_timeout"`
	Locale               string        `mapstructure:"metrics_locale"`
	NumberFormat         string        `mapstructure:"metrics_number_format"`
	// Datasets no formato "nome=tabela", ex: "orders=orders,payments=payment_transactions"
	Datasets []string `mapstructure:"metrics_datasets"`
	// Datasets remotos no formato "nome=url", ex: "sales=https://erp.example.com/api/sales"
	HTTPDatasets []string      `mapstructure:"metrics_http_datasets"`
	HTTPToken    string        `mapstructure:"metrics_http_token"`
	HTTPTimeout  time.Duration `mapstructure:"metrics_http_timeout"`
}

// SnapshotSync configura o job que persiste métricas diárias
type SnapshotSync struct {
	CronSchedule string `mapstructure:"snapshot_sync_cron"`
	LookbackDays int    `mapstructure:"snapshot_sync_lookback_days"`
	Enabled      bool   `mapstructure:"snapshot_sync_enabled"`
	// Definições no formato "dataset:campo:função", ex: "orders:amount:sum,orders::count"
	Definitions []string `mapstructure:"snapshot_sync_definitions"`
}

func SetDefaults() {
	viper.SetDefault("HOST", "localhost")
	viper.SetDefault("PORT", 8000)
	viper.SetDefault("CORS_ORIGINS", "*")

	viper.SetDefault("DATABASE_DRIVER", "postgres")
	viper.SetDefault("DATABASE_URL", "localhost:5432/metrics")
	viper.SetDefault("DATABASE_USER", "postgres")
	viper.SetDefault("DATABASE_PASSWORD", "root")
	viper.SetDefault("DATABASE_MAX_OPEN_CONNS", 20)
	viper.SetDefault("DATABASE_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DATABASE_CONN_MAX_IDLE_TIME", "5m")

	viper.SetDefault("SECRET_KEY", "your_secret_key")

	viper.SetDefault("RENDER_API_KEY", "")
	viper.SetDefault("RENDER_SERVICE_ID", "")

	// Defaults do motor de métricas
	viper.SetDefault("METRICS_TIMEZONE", "UTC")
	viper.SetDefault("METRICS_DEFAULT_DATE_FIELD", "created_at")
	viper.SetDefault("METRICS_MAX_CONCURRENT_FETCHES", 4) // 4 buscas simultâneas por fonte
	viper.SetDefault("METRICS_TIMEOUT", "30s")
	viper.SetDefault("METRICS_LOCALE", "en-IN")
	viper.SetDefault("METRICS_NUMBER_FORMAT", "indian") // indian, short ou locale
	viper.SetDefault("METRICS_DATASETS", "")
	viper.SetDefault("METRICS_HTTP_DATASETS", "")
	viper.SetDefault("METRICS_HTTP_TOKEN", "")
	viper.SetDefault("METRICS_HTTP_TIMEOUT", "30s")

	// Defaults para sincronização de snapshots
	viper.SetDefault("SNAPSHOT_SYNC_CRON", "0 2 * * *") // Todos os dias às 2h da manhã
	viper.SetDefault("SNAPSHOT_SYNC_LOOKBACK_DAYS", 7)  // 7 dias recalculados a cada execução
	viper.SetDefault("SNAPSHOT_SYNC_ENABLED", false)
	viper.SetDefault("SNAPSHOT_SYNC_DEFINITIONS", "")

	viper.SetDefault("LOG_LEVEL", "debug")
	viper.SetDefault("APP_ENV", "development")
}

func NewConfig() (*Config, error) {
	// Primeiro carregar o arquivo .env usando godotenv
	loadEnvFile() // ONLY LOCAL

	config := &Config{}

	// Configurar valores padrão
	SetDefaults()

	// Configurar o Viper
	viper.SetConfigType("env")
	viper.SetConfigFile(".env")
	viper.AutomaticEnv() // Isso permite que o Viper leia variáveis de ambiente

	// Tentar ler o arquivo .env com o Viper (opcional, já que usamos godotenv)
	if err := viper.ReadInConfig(); err != nil {
		logrus.Info("Usando variáveis carregadas pelo godotenv (viper não conseguiu ler .env):", err)
	} else {
		logrus.Info("Arquivo .env lido pelo Viper com sucesso")
	}

	err := viper.Unmarshal(&config, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return nil, err
	}

	// Secrets do Render sobrescrevem os valores locais quando o serviço está configurado
	if config.Render.ServiceID != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := config.LoadSecrets(ctx, NewRenderClient(config)); err != nil {
			logrus.Error("Erro ao obter secrets do Render:", err)
			return nil, err
		}
	}

	config.Database.DSN = fmt.Sprintf(
		"%s://%s:%s@%s",
		config.Database.Driver,
		config.Database.User,
		config.Database.Password,
		config.Database.URL,
	)

	return config, nil
}

// ApplySecrets sobrescreve chaves sensíveis com os valores vindos do armazenamento de secrets
func (c *Config) ApplySecrets(secrets map[string]string) {
	if v, ok := secrets["secret_key"]; ok && v != "" {
		c.SecretKey = v
	}
	if v, ok := secrets["database_password"]; ok && v != "" {
		c.Database.Password = v
	}
	if v, ok := secrets["metrics_http_token"]; ok && v != "" {
		c.Metrics.HTTPToken = v
	}
}

// Função auxiliar para carregar o arquivo .env usando godotenv
func loadEnvFile() {
	// Obter diretório atual
	cwd, err := os.Getwd()
	if err != nil {
		logrus.Warn("Não foi possível obter o diretório atual:", err)
		return
	}

	// Tentar várias localizações possíveis para o arquivo .env
	locations := []string{
		filepath.Join(cwd, ".env"),               // Diretório atual
		filepath.Join(filepath.Dir(cwd), ".env"), // Diretório pai
		filepath.Join(cwd, "../../.env"),         // Dois diretórios acima
	}

	for _, location := range locations {
		if err := godotenv.Load(location); err == nil {
			logrus.Info("Arquivo .env carregado com sucesso de:", location)
			return
		}
	}

	logrus.Warn("Não foi possível carregar o arquivo .env de nenhuma localização conhecida")
}
