package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// 配置键，统一在这里声明，避免在各处手写字符串
const (
	KeyStorageType = "storage.type"
	KeyStoragePath = "storage.path"
	KeyRedisURL    = "redis.url"
	KeyRedisPrefix = "redis.prefix"

	KeyS3Endpoint  = "s3.endpoint"
	KeyS3Region    = "s3.region"
	KeyS3Bucket    = "s3.bucket"
	KeyS3AccessKey = "s3.access_key"
	KeyS3SecretKey = "s3.secret_key"

	KeySQLDriver = "sql.driver"
	KeySQLDSN    = "sql.dsn"
	KeySQLDebug  = "sql.debug"

	KeyBlockSize        = "fs.block_size"
	KeyHashAlgorithm    = "fs.hash"
	KeyFetchConcurrency = "fs.fetch_concurrency"
	KeyMaxFileSize      = "fs.max_file_size"

	KeyServerAddr     = "server.addr"
	KeyRemoteAddr     = "remote.addr"
	KeyMetricsEnabled = "metrics.enabled"
	KeyMetricsAddr    = "metrics.addr"
	KeyLogLevel       = "log.level"
)

// Load 初始化 Viper 配置
// cfgFile: 可选，用户显式指定的配置文件路径
func Load(cfgFile string) error {
	// 1. 默认值
	setDefaults()

	// 2. 配置搜索路径
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}

		// 当前目录 > ./.kvfs > ~/.kvfs
		viper.AddConfigPath(".")
		viper.AddConfigPath(".kvfs")
		viper.AddConfigPath(filepath.Join(home, ".kvfs"))

		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// 3. 环境变量 (KVFS_STORAGE_TYPE 等)
	viper.SetEnvPrefix("KVFS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// 4. 读取配置文件；找不到文件不算错，格式错误才算
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("fatal error config file: %w", err)
		}
		slog.Debug("no config file found, using defaults/env vars")
	} else {
		slog.Debug("using config file", "path", viper.ConfigFileUsed())
	}

	return nil
}

func setDefaults() {
	wd, _ := os.Getwd()

	// 存储默认值: 本地目录，和 git 一样放在隐藏目录里
	viper.SetDefault(KeyStorageType, "disk")
	viper.SetDefault(KeyStoragePath, filepath.Join(wd, ".kvfs", "data"))

	viper.SetDefault(KeyRedisURL, "redis://localhost:6379/0")
	viper.SetDefault(KeyRedisPrefix, "kvfs:")

	viper.SetDefault(KeyS3Region, "us-east-1")

	viper.SetDefault(KeySQLDriver, "sqlite")
	viper.SetDefault(KeySQLDSN, filepath.Join(wd, ".kvfs", "kvfs.db"))

	viper.SetDefault(KeyBlockSize, 4096)
	viper.SetDefault(KeyHashAlgorithm, "sha256")
	viper.SetDefault(KeyFetchConcurrency, 8)
	viper.SetDefault(KeyMaxFileSize, uint64(4<<30))

	viper.SetDefault(KeyServerAddr, ":8080")
	viper.SetDefault(KeyMetricsAddr, ":9090")
	viper.SetDefault(KeyLogLevel, "info")
}

// LogLevel 把 log.level 解析为 slog.Level，无法识别时返回 Info
func LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(viper.GetString(KeyLogLevel))); err != nil {
		return slog.LevelInfo
	}
	return level
}
