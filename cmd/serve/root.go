package serve

import (
	"context"
	"fmt"
	"strings"
	"time"

	cmdUtil "github.com/ValentinKolb/dLock/cmd/util"
	"github.com/ValentinKolb/dLock/lib/lockmgr"
	"github.com/ValentinKolb/dLock/lib/logger"
	"github.com/ValentinKolb/dLock/lib/store"
	"github.com/ValentinKolb/dLock/lib/store/memstore"
	"github.com/ValentinKolb/dLock/lib/store/mongostore"
	"github.com/ValentinKolb/dLock/lib/store/redisstore"
	"github.com/ValentinKolb/dLock/rpc/common"
	"github.com/ValentinKolb/dLock/rpc/serializer"
	"github.com/ValentinKolb/dLock/rpc/server"
	"github.com/ValentinKolb/dLock/rpc/transport"
	"github.com/ValentinKolb/dLock/rpc/transport/http"
	"github.com/ValentinKolb/dLock/rpc/transport/tcp"
	"github.com/ValentinKolb/dLock/rpc/transport/unix"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the dLock server",
		Long:    `Start the dLock server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is DLOCK_<flag> (e.g. DLOCK_TIMEOUT=15)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(initConfig)

	// add flags
	key := "backend"
	ServeCmd.PersistentFlags().String(key, "mem", cmdUtil.WrapString("Lease store backend to serve. One of: mem, redis, mongo"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, 5, cmdUtil.WrapString("Timeout in seconds for reads and writes on a single connection"))

	key = "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:8080", cmdUtil.WrapString("The address on which the API will listen (e.g. localhost:8080, /tmp/dlock.sock, ...)"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))

	key = "sweep-interval"
	ServeCmd.PersistentFlags().Duration(key, 0, cmdUtil.WrapString("Interval at which expired leases are swept in the background (0 disables sweeping, lazy expiry still applies)"))

	key = "redis-url"
	ServeCmd.PersistentFlags().String(key, "redis://localhost:6379/0", cmdUtil.WrapString("(redis backend) Connection URL of the Redis server"))

	key = "redis-prefix"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("(redis backend) Key prefix for lease entries, empty for the default"))

	key = "mongo-uri"
	ServeCmd.PersistentFlags().String(key, "mongodb://localhost:27017", cmdUtil.WrapString("(mongo backend) Connection URI of the MongoDB server"))

	key = "mongo-database"
	ServeCmd.PersistentFlags().String(key, "dlock", cmdUtil.WrapString("(mongo backend) Database holding the lease collection"))

	key = "mongo-collection"
	ServeCmd.PersistentFlags().String(key, "leases", cmdUtil.WrapString("(mongo backend) Collection holding the lease documents"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// read the configuration from the command line flags and environment variables
	serveCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	serveCmdConfig.Endpoint = viper.GetString("endpoint")
	serveCmdConfig.LogLevel = viper.GetString("log-level")

	return nil
}

// createBackend creates the configured lease store backend
func createBackend(log logger.ILogger) (store.ILeaseStore, error) {
	switch viper.GetString("backend") {
	case "mem":
		return memstore.New(&memstore.Options{Logger: log}), nil

	case "redis":
		opts, err := redis.ParseURL(viper.GetString("redis-url"))
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %v", err)
		}
		return redisstore.New(redis.NewClient(opts), viper.GetString("redis-prefix")), nil

	case "mongo":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(viper.GetString("mongo-uri")))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mongodb: %v", err)
		}
		coll := mongoClient.Database(viper.GetString("mongo-database")).Collection(viper.GetString("mongo-collection"))
		if err := mongostore.EnsureIndexes(ctx, coll); err != nil {
			return nil, fmt.Errorf("failed to create lease indexes: %v", err)
		}
		return mongostore.New(coll), nil

	default:
		return nil, fmt.Errorf("invalid backend %s (expected one of: mem, redis, mongo)", viper.GetString("backend"))
	}
}

// run starts the dLock server
func run(_ *cobra.Command, _ []string) error {

	// parse the serializer
	var s serializer.IRPCSerializer
	switch viper.GetString("serializer") {
	case "json":
		s = serializer.NewJSONSerializer()
	case "gob":
		s = serializer.NewGOBSerializer()
	case "binary":
		s = serializer.NewBinarySerializer()
	default:
		return fmt.Errorf("invalid serializer %s", viper.GetString("serializer"))
	}

	// Parse the transport
	var t transport.IRPCServerTransport
	switch viper.GetString("transport") {
	case "http":
		t = http.NewHttpServerTransport()
	case "tcp":
		t = tcp.NewTCPServerTransport()
	case "unix":
		t = unix.NewUnixServerTransport()
	default:
		return fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}

	// Create the backend store
	log := logger.NewStdLogger("serve", logger.ParseLevel(serveCmdConfig.LogLevel))
	backend, err := createBackend(log)
	if err != nil {
		return err
	}

	// Start the background sweeper if configured
	if interval := viper.GetDuration("sweep-interval"); interval > 0 {
		sweeper := lockmgr.NewSweeper(backend, interval, log)
		go sweeper.Run(context.Background())
	}

	serv := server.NewRPCServer(
		*serveCmdConfig,
		backend,
		t,
		s,
	)

	return serv.Serve()
}

// initConfig reads in serveCmdConfig file and ENV variables if set.
func initConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("dlock")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}
