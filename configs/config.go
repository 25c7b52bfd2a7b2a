package configs

import (
	"fmt"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"log"
	"os"
)

type Config struct {
	AppName                string `envconfig:"APP_NAME" default:"ai-task-runner"`
	AppVersion             string `envconfig:"APP_VERSION" default:"0.1.0"`
	ServerPort             string `envconfig:"SERVER_PORT" default:"8080"`
	ServerTimeOutInSeconds int64  `envconfig:"SERVER_TIME_OUT_IN_SECONDS" default:"5"`
	// WorkerTimeOutInSeconds bounds one whole job. The default must stay above
	// the worst case of the fail policy (4 provider calls of 60s plus 3 backoff
	// waits of 60s, 420s in total), otherwise retries are cut short.
	WorkerTimeOutInSeconds int64 `envconfig:"WORKER_TIME_OUT_IN_SECONDS" default:"480"`
	// WorkerFailurePolicy selects what the worker does when a provider call
	// fails: "fail" retries and then persists FAILED, "fallback" substitutes
	// canned text and persists COMPLETED.
	WorkerFailurePolicy string `envconfig:"WORKER_FAILURE_POLICY" default:"fail"`
	// Declared but not enforced anywhere in the request path.
	RateLimitPerMinute int `envconfig:"RATE_LIMIT_PER_MINUTE" default:"60"`
	Database           DatabaseConfig
	RabbitMQ           RabbitMQConfig
	RedisConfig        RedisConfig
	AI                 AIConfig
}

type DatabaseConfig struct {
	Username     string `envconfig:"DB_USERNAME"`
	Password     string `envconfig:"DB_PASSWORD"`
	Host         string `envconfig:"DB_HOST"`
	Port         string `envconfig:"DB_PORT"`
	Database     string `envconfig:"DB_DATABASE"`
	DatabaseTest string `envconfig:"DB_DATABASE_TEST"`
	SSLMode      string `envconfig:"DB_SSL_MODE" default:"require"`
	PoolMaxConns int    `envconfig:"DB_POOL_MAX_CONNS" default:"1"`
}

type RabbitMQConfig struct {
	Username          string `envconfig:"RABBIT_USERNAME"`
	Password          string `envconfig:"RABBIT_PASSWORD"`
	Host              string `envconfig:"RABBIT_HOST"`
	Port              string `envconfig:"RABBIT_PORT"`
	AIJobsQueueName   string `envconfig:"AI_JOBS_QUEUE_NAME" default:"ai_generation"`
	TestJobsQueueName string `envconfig:"TEST_JOBS_QUEUE_NAME" default:"ai_generation_test"`
}

type RedisConfig struct {
	Username string `envconfig:"REDIS_USERNAME"`
	Password string `envconfig:"REDIS_PASSWORD"`
	Host     string `envconfig:"REDIS_HOST"`
	Port     string `envconfig:"REDIS_PORT"`
	DBIndex  int32  `envconfig:"REDIS_DB_INDEX"`
}

// AIConfig carries provider credentials and generation defaults. A provider is
// considered configured when its API key is non-empty.
type AIConfig struct {
	OpenAIAPIKey     string  `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL    string  `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com"`
	DeepSeekAPIKey   string  `envconfig:"DEEPSEEK_API_KEY"`
	DeepSeekBaseURL  string  `envconfig:"DEEPSEEK_BASE_URL" default:"https://api.deepseek.com"`
	AnthropicAPIKey  string  `envconfig:"ANTHROPIC_API_KEY"`
	AnthropicBaseURL string  `envconfig:"ANTHROPIC_BASE_URL" default:"https://api.anthropic.com"`
	DefaultModel     string  `envconfig:"DEFAULT_AI_MODEL" default:"gpt-3.5-turbo"`
	Temperature      float64 `envconfig:"AI_TEMPERATURE" default:"0.7"`
	MaxTokens        int     `envconfig:"AI_MAX_TOKENS" default:"1000"`
}

// ToMigrationUri returns a string specifically for the migration package with the right prefix
func (d DatabaseConfig) ToMigrationUri() string {
	return fmt.Sprintf("pgx5://%s:%s@%s:%s/%s?sslmode=%s",
		d.Username,
		d.Password,
		d.Host,
		d.Port,
		d.Database,
		d.SSLMode,
	)
}

// ToTestMigrationUri returns a string specifically for the migration package with the right prefix for test database
func (d DatabaseConfig) ToTestMigrationUri() string {
	return fmt.Sprintf("pgx5://%s:%s@%s:%s/%s?sslmode=%s",
		d.Username,
		d.Password,
		d.Host,
		d.Port,
		d.DatabaseTest,
		d.SSLMode,
	)
}

// ToDbConnectionUri returns a connection URI to be used with the pgx package
func (d DatabaseConfig) ToDbConnectionUri() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s&pool_max_conns=%d",
		d.Username,
		d.Password,
		d.Host,
		d.Port,
		d.Database,
		d.SSLMode,
		d.PoolMaxConns,
	)
}

// ToTestDBConnectionUri returns a string specifically for running the integration tests
func (d DatabaseConfig) ToTestDBConnectionUri() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s&pool_max_conns=%d",
		d.Username,
		d.Password,
		d.Host,
		d.Port,
		d.DatabaseTest,
		d.SSLMode,
		d.PoolMaxConns,
	)
}

// ToRabbitConnectionUri returns a connection URI to be used with the rabbitmq/amqp091-go package
func (d RabbitMQConfig) ToRabbitConnectionUri() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/",
		d.Username,
		d.Password,
		d.Host,
		d.Port,
	)
}

// GetMainQueueNames returns the queue names which must be declared before running workers
func (d RabbitMQConfig) GetMainQueueNames() []string {
	return []string{d.AIJobsQueueName}
}

// GetMainQueueNamesForTest returns the queue names used by the integration tests
func (d RabbitMQConfig) GetMainQueueNamesForTest() []string {
	return []string{d.TestJobsQueueName}
}

// ToRedisConnectionUri returns a connection URI to be used with the redis/go-redis/v9 package
func (d RedisConfig) ToRedisConnectionUri() string {
	return fmt.Sprintf("redis://%s:%s@%s:%s/%d",
		d.Username,
		d.Password,
		d.Host,
		d.Port,
		d.DBIndex,
	)
}

func InitConfig() *Config {
	err := godotenv.Load()

	if err != nil && !os.IsNotExist(err) {
		log.Fatalf("Unable to load .env %v", err)
	}

	var cfg Config
	err = envconfig.Process("", &cfg)
	if err != nil {
		fmt.Print("Cannot load env")
	}

	return &cfg
}
