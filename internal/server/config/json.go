package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/stakeledger/internal/flagx"
	"github.com/dmitrijs2005/stakeledger/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so both "1s" and integer nanoseconds are accepted. Absent
// keys leave the current value untouched.
type JsonConfig struct {
	EndpointAddrGRPC            string            `json:"endpoint_addr_grpc"`
	EndpointAddrMetrics         string            `json:"endpoint_addr_metrics"`
	DatabaseDSN                 string            `json:"database_dsn"`
	SecretKey                   string            `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration    `json:"access_token_validity_duration"`
	LogLevel                    string            `json:"log_level"`
	VaultAccount                string            `json:"vault_account"`
	OperatingAccount            string            `json:"operating_account"`
	RewardRatePerDay            string            `json:"reward_rate_per_day"`
	CustodyEndpoint             string            `json:"custody_endpoint"`
	TreasuryEndpoint            string            `json:"treasury_endpoint"`
	JournalPath                 string            `json:"journal_path"`
	KafkaBrokers                []string          `json:"kafka_brokers"`
	KafkaTopic                  string            `json:"kafka_topic"`
	RedisAddr                   string            `json:"redis_addr"`
	LockTTL                     timex.Duration    `json:"lock_ttl"`
	S3RootUser                  string            `json:"s3_root_user"`
	S3RootPassword              string            `json:"s3_root_password"`
	S3Bucket                    string            `json:"s3_bucket"`
	S3Region                    string            `json:"s3_region"`
	S3BaseEndpoint              string            `json:"s3_base_endpoint"`
	DevItems                    map[string]string `json:"dev_items"`
	DevTreasuryFunds            string            `json:"dev_treasury_funds"`
}

// parseJson overlays values from the JSON file named by -c / -config, or by
// STAKELEDGER_CONFIG. Unreadable or malformed files panic.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigPath(EnvConfigPath)
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.EndpointAddrMetrics, c.EndpointAddrMetrics)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.VaultAccount, c.VaultAccount)
	setString(&config.OperatingAccount, c.OperatingAccount)
	setString(&config.RewardRatePerDay, c.RewardRatePerDay)
	setString(&config.CustodyEndpoint, c.CustodyEndpoint)
	setString(&config.TreasuryEndpoint, c.TreasuryEndpoint)
	setString(&config.JournalPath, c.JournalPath)
	setString(&config.KafkaTopic, c.KafkaTopic)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	setString(&config.DevTreasuryFunds, c.DevTreasuryFunds)

	if len(c.KafkaBrokers) > 0 {
		config.KafkaBrokers = c.KafkaBrokers
	}
	if len(c.DevItems) > 0 {
		config.DevItems = c.DevItems
	}
	if c.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.LockTTL.Duration > 0 {
		config.LockTTL = c.LockTTL.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
