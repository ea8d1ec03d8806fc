package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/evrwallet/evrwallet-daemon/internal/core/application"

	"github.com/spf13/viper"
)

const (
	// HTTPListeningPortKey is the port where the REST and websocket API will
	// listen on
	HTTPListeningPortKey = "HTTP_LISTENING_PORT"
	// DatadirKey is the local data directory to store the internal state of daemon
	DatadirKey = "DATADIR"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// DBTypeKey is used to switch database type between those supported
	DBTypeKey = "DB_TYPE"
	// IntensivePollingIntervalKey is the polling interval of the subscriptions
	// while at least one client is attached to the event stream
	IntensivePollingIntervalKey = "INTENSIVE_POLLING_INTERVAL"
	// BackgroundPollingIntervalKey is the polling interval of the subscriptions
	// when no client is attached
	BackgroundPollingIntervalKey = "BACKGROUND_POLLING_INTERVAL"
	// ClockEndpointKey is the url returning the server time used to correct the
	// local clock
	ClockEndpointKey = "CLOCK_ENDPOINT"
	// ConnectionTestTimeoutKey is the timeout of the test of a new connection
	ConnectionTestTimeoutKey = "CONNECTION_TEST_TIMEOUT"
	// InitialSyncAttemptsKey is the number of attempts of the first connection
	InitialSyncAttemptsKey = "INITIAL_SYNC_ATTEMPTS"
	// InitialSyncRetryDelayKey is the delay between attempts of the first
	// connection
	InitialSyncRetryDelayKey = "INITIAL_SYNC_RETRY_DELAY"
	// EngineAddrKey is the base url of the wallet engine
	EngineAddrKey = "ENGINE_ADDR"
	// RequestsPerSecondKey limits the outgoing requests of every http client
	RequestsPerSecondKey = "REQUESTS_PER_SECOND"
	// WebhookEndpointsKey is the list of urls notified for new transactions
	WebhookEndpointsKey = "WEBHOOK_ENDPOINTS"
	// WebhookSecretKey is the secret used to sign the webhook bearer tokens
	WebhookSecretKey = "WEBHOOK_SECRET"
	// EnableProfilerKey enables profiler that can be used to investigate performance issues
	EnableProfilerKey = "ENABLE_PROFILER"
	// StatsIntervalKey defines interval for printing basic statistics
	StatsIntervalKey = "STATS_INTERVAL"

	DbLocation       = "db"
	ProfilerLocation = "stats"

	defaultClockEndpoint = "https://extension-api.broxus.com"
)

var vip *viper.Viper
var defaultDatadir = btcutil.AppDataDir("evrwallet-daemon", false)

func InitConfig() error {
	vip = viper.New()
	vip.SetEnvPrefix("EVRWALLET")
	vip.AutomaticEnv()

	vip.SetDefault(HTTPListeningPortKey, 7070)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(DBTypeKey, application.DBBadger)
	vip.SetDefault(IntensivePollingIntervalKey, application.DefaultIntensivePollingInterval)
	vip.SetDefault(BackgroundPollingIntervalKey, application.DefaultBackgroundPollingInterval)
	vip.SetDefault(ClockEndpointKey, defaultClockEndpoint)
	vip.SetDefault(ConnectionTestTimeoutKey, application.DefaultConnectionTestTimeout)
	vip.SetDefault(InitialSyncAttemptsKey, application.DefaultInitialSyncAttempts)
	vip.SetDefault(InitialSyncRetryDelayKey, application.DefaultInitialSyncRetryDelay)
	vip.SetDefault(RequestsPerSecondKey, 20)
	vip.SetDefault(EnableProfilerKey, false)
	vip.SetDefault(StatsIntervalKey, 600)

	if err := validate(); err != nil {
		return fmt.Errorf("error while validating config: %s", err)
	}

	if err := initDatadir(); err != nil {
		return fmt.Errorf("error while creating datadir: %s", err)
	}

	return nil
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetFloat(key string) float64 {
	return vip.GetFloat64(key)
}

func GetStringSlice(key string) []string {
	return vip.GetStringSlice(key)
}

func GetDuration(key string) time.Duration {
	return vip.GetDuration(key)
}

func GetBool(key string) bool {
	return vip.GetBool(key)
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

// GetDbDir returns the directory of the badger stores, or an empty string if
// the stores must be kept in memory.
func GetDbDir() string {
	if GetString(DBTypeKey) == application.DBInMemory {
		return ""
	}
	return filepath.Join(GetDatadir(), DbLocation)
}

// GetPollingConfig returns the polling tiers of the subscriptions.
func GetPollingConfig() application.PollingConfig {
	return application.PollingConfig{
		Intensive:  GetDuration(IntensivePollingIntervalKey),
		Background: GetDuration(BackgroundPollingIntervalKey),
	}
}

// GetConnectionConfig returns the config of the connection service.
func GetConnectionConfig() application.ConnectionConfig {
	return application.ConnectionConfig{
		TestTimeout:           GetDuration(ConnectionTestTimeoutKey),
		InitialSyncAttempts:   uint(GetInt(InitialSyncAttemptsKey)),
		InitialSyncRetryDelay: GetDuration(InitialSyncRetryDelayKey),
	}
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("missing datadir")
	}

	dbType := GetString(DBTypeKey)
	if dbType != application.DBBadger && dbType != application.DBInMemory {
		return fmt.Errorf(
			"%s must be one of %s, %s", DBTypeKey,
			application.DBBadger, application.DBInMemory,
		)
	}

	if !vip.IsSet(EngineAddrKey) {
		return fmt.Errorf("missing wallet engine address")
	}
	if _, err := url.ParseRequestURI(GetString(EngineAddrKey)); err != nil {
		return fmt.Errorf("%s must be a valid url", EngineAddrKey)
	}

	intensive := GetDuration(IntensivePollingIntervalKey)
	background := GetDuration(BackgroundPollingIntervalKey)
	if intensive <= 0 || background <= 0 {
		return fmt.Errorf("polling intervals must be positive")
	}
	if intensive > background {
		return fmt.Errorf(
			"%s must not be greater than %s",
			IntensivePollingIntervalKey, BackgroundPollingIntervalKey,
		)
	}

	if GetInt(InitialSyncAttemptsKey) < 1 {
		return fmt.Errorf("%s must be at least 1", InitialSyncAttemptsKey)
	}

	if GetInt(RequestsPerSecondKey) < 0 {
		return fmt.Errorf("%s must not be negative", RequestsPerSecondKey)
	}

	for _, endpoint := range GetStringSlice(WebhookEndpointsKey) {
		if _, err := url.ParseRequestURI(endpoint); err != nil {
			return fmt.Errorf("invalid webhook endpoint %s", endpoint)
		}
	}

	return nil
}

func initDatadir() error {
	datadir := GetDatadir()
	if err := makeDirectoryIfNotExists(datadir); err != nil {
		return err
	}

	if GetString(DBTypeKey) == application.DBBadger {
		if err := makeDirectoryIfNotExists(filepath.Join(datadir, DbLocation)); err != nil {
			return err
		}
	}

	profilerEnabled := GetBool(EnableProfilerKey)
	if profilerEnabled {
		if err := makeDirectoryIfNotExists(filepath.Join(datadir, ProfilerLocation)); err != nil {
			return err
		}
	}
	return nil
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
