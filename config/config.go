/*
Copyright 2024 Reclaim Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_PORT = "5001"

	// DefaultMatchBatchSize bounds how many unmatched chargebacks one
	// matching run processes.
	DefaultMatchBatchSize = 500

	// DefaultOrderScanLimit bounds the candidate order set loaded per run.
	DefaultOrderScanLimit = 5000
)

var ConfigStore atomic.Value

type ServerConfig struct {
	SSL       bool   `json:"ssl" envconfig:"RECLAIM_SERVER_SSL"`
	Secure    bool   `json:"secure" envconfig:"RECLAIM_SERVER_SECURE"`
	SecretKey string `json:"secret_key" envconfig:"RECLAIM_SERVER_SECRET_KEY"`
	Domain    string `json:"domain" envconfig:"RECLAIM_SERVER_SSL_DOMAIN"`
	Email     string `json:"ssl_email" envconfig:"RECLAIM_SERVER_SSL_EMAIL"`
	Port      string `json:"port" envconfig:"RECLAIM_SERVER_PORT"`
}

type DataSourceConfig struct {
	Dns string `json:"dns" envconfig:"RECLAIM_DATA_SOURCE_DNS"`
}

type RedisConfig struct {
	Dns           string `json:"dns" envconfig:"RECLAIM_REDIS_DNS"`
	SkipTLSVerify bool   `json:"skip_tls_verify" envconfig:"RECLAIM_REDIS_SKIP_TLS_VERIFY"`
}

// MatchingConfig tunes the chargeback matching engine. Zero values fall
// back to the package defaults at load time.
type MatchingConfig struct {
	BatchSize      int `json:"batch_size" envconfig:"RECLAIM_MATCHING_BATCH_SIZE"`
	OrderScanLimit int `json:"order_scan_limit" envconfig:"RECLAIM_MATCHING_ORDER_SCAN_LIMIT"`
	LockTTLSec     int `json:"lock_ttl_sec" envconfig:"RECLAIM_MATCHING_LOCK_TTL_SEC"`
}

// OutreachConfig configures the customer outreach dispatcher. When the
// API key is empty, dispatch is a logged no-op.
type OutreachConfig struct {
	KlaviyoAPIKey string `json:"klaviyo_api_key" envconfig:"RECLAIM_OUTREACH_KLAVIYO_API_KEY"`
	Endpoint      string `json:"endpoint" envconfig:"RECLAIM_OUTREACH_ENDPOINT"`
	TimeoutSec    int    `json:"timeout_sec" envconfig:"RECLAIM_OUTREACH_TIMEOUT_SEC"`
	DiscountCode  string `json:"discount_code" envconfig:"RECLAIM_OUTREACH_DISCOUNT_CODE"`
}

type RateLimitConfig struct {
	RequestsPerSecond  *float64 `json:"requests_per_second" envconfig:"RECLAIM_RATE_LIMIT_RPS"`
	Burst              *int     `json:"burst" envconfig:"RECLAIM_RATE_LIMIT_BURST"`
	CleanupIntervalSec *int     `json:"cleanup_interval_sec" envconfig:"RECLAIM_RATE_LIMIT_CLEANUP_INTERVAL_SEC"`
}

type SlackWebhook struct {
	WebhookUrl string `json:"webhook_url"`
}

type Notification struct {
	Slack   SlackWebhook `json:"slack"`
	Webhook struct {
		Url     string            `json:"url"`
		Headers map[string]string `json:"headers"`
	} `json:"webhook"`
}

type Configuration struct {
	ProjectName        string           `json:"project_name" envconfig:"RECLAIM_PROJECT_NAME"`
	EnableTelemetry    bool             `json:"enable_telemetry" envconfig:"RECLAIM_ENABLE_TELEMETRY"`
	BackupDir          string           `json:"backup_dir" envconfig:"RECLAIM_BACKUP_DIR"`
	AwsAccessKeyId     string           `json:"aws_access_key_id"`
	AwsSecretAccessKey string           `json:"aws_secret_access_key"`
	S3Endpoint         string           `json:"s3_endpoint"`
	S3BucketName       string           `json:"s3_bucket_name"`
	S3Region           string           `json:"s3_region"`
	Server             ServerConfig     `json:"server"`
	DataSource         DataSourceConfig `json:"data_source"`
	Redis              RedisConfig      `json:"redis"`
	Matching           MatchingConfig   `json:"matching"`
	Outreach           OutreachConfig   `json:"outreach"`
	Notification       Notification     `json:"notification"`
	RateLimit          RateLimitConfig  `json:"rate_limit"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		defer f.Close()
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}
	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("reclaim", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return err
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called reclaim.json with your config")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "Reclaim Server"
	}

	if cnf.DataSource.Dns == "" {
		log.Println("Error: Data source DNS is empty. It's a required field.")
		return errors.New("data source DNS is required")
	}

	if cnf.Redis.Dns == "" {
		log.Println("Error: Redis DNS is empty. It's a required field.")
		return errors.New("redis DNS is required")
	}

	// Trim white spaces from fields
	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.DataSource.Dns = strings.TrimSpace(cnf.DataSource.Dns)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)

	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	if cnf.Matching.BatchSize <= 0 {
		cnf.Matching.BatchSize = DefaultMatchBatchSize
	}
	if cnf.Matching.OrderScanLimit <= 0 {
		cnf.Matching.OrderScanLimit = DefaultOrderScanLimit
	}
	if cnf.Matching.LockTTLSec <= 0 {
		cnf.Matching.LockTTLSec = 300
	}

	if cnf.Outreach.Endpoint == "" {
		cnf.Outreach.Endpoint = "https://a.klaviyo.com/api/events/"
	}
	if cnf.Outreach.TimeoutSec <= 0 {
		cnf.Outreach.TimeoutSec = 10
	}
	if cnf.Outreach.DiscountCode == "" {
		cnf.Outreach.DiscountCode = "COMEBACK30"
	}

	// Rate limiting is disabled by default (when both RPS and Burst are nil)
	if cnf.RateLimit.RequestsPerSecond != nil && cnf.RateLimit.Burst == nil {
		defaultBurst := 2 * int(*cnf.RateLimit.RequestsPerSecond)
		cnf.RateLimit.Burst = &defaultBurst
		log.Printf("Warning: Rate limit burst not specified. Setting default value: %d", defaultBurst)
	}
	if cnf.RateLimit.RequestsPerSecond == nil && cnf.RateLimit.Burst != nil {
		defaultRPS := float64(*cnf.RateLimit.Burst) / 2
		cnf.RateLimit.RequestsPerSecond = &defaultRPS
		log.Printf("Warning: Rate limit RPS not specified. Setting default value: %.2f", defaultRPS)
	}
	if cnf.RateLimit.CleanupIntervalSec == nil {
		defaultCleanup := 10800 // 3 hours in seconds
		cnf.RateLimit.CleanupIntervalSec = &defaultCleanup
	}

	return nil
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	if mockConfig.Matching.BatchSize <= 0 {
		mockConfig.Matching.BatchSize = DefaultMatchBatchSize
	}
	if mockConfig.Matching.OrderScanLimit <= 0 {
		mockConfig.Matching.OrderScanLimit = DefaultOrderScanLimit
	}
	ConfigStore.Store(mockConfig)
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
