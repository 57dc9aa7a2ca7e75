package settings

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Satyamdhote/appointment-scheduling-backend/libs/config"
	"github.com/Satyamdhote/appointment-scheduling-backend/services/scheduling-service/internal/availability"
	"github.com/Satyamdhote/appointment-scheduling-backend/services/scheduling-service/internal/storage"
	"github.com/Satyamdhote/appointment-scheduling-backend/services/scheduling-service/internal/timezone"
)

var defaultCORSOrigins = []string{
	"http://localhost:5173",
	"https://appointment-scheduling-app-0507.netlify.app",
}

// Settings is the typed configuration of the scheduling service.
type Settings struct {
	ServiceName string
	HTTPPort    string
	GRPCPort    string
	LogLevel    string

	Window          availability.WorkingWindow
	SlotMinutes     int
	DefaultTimezone string
	DSTPolicy       timezone.Policy

	StoreDriver           string
	Collection            string
	DatabaseURL           string
	DBMaxConns            int
	MongoURI              string
	MongoDatabase         string
	FirebaseProjectID     string
	FirebaseCredentials   string
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	KafkaBrokers          string
	OutboxPollEvery       time.Duration
	LockTTL               time.Duration
	CORSOrigins           []string
	RateLimitPerMinute    int
	RateLimitRedisEnabled bool
	BodyLimitBytes        int64
	RequestTimeout        time.Duration
}

// Load reads the settings from the environment (and .env / config.yaml
// already merged by config.Load). Every problem is reported at once.
func Load() (Settings, error) {
	var errs []error
	intVal := func(key string, fallback int) int {
		n, err := config.Int(key, fallback)
		if err != nil {
			errs = append(errs, err)
		}
		return n
	}

	s := Settings{
		ServiceName:         config.String("SERVICE_NAME", "scheduling-service"),
		LogLevel:            config.String("LOG_LEVEL", "info"),
		DefaultTimezone:     config.String("DEFAULT_TIMEZONE", "US/Eastern"),
		StoreDriver:         strings.ToLower(config.String("STORE_DRIVER", storage.DriverMemory)),
		Collection:          config.String("COLLECTION_NAME", "events"),
		DatabaseURL:         config.String("DATABASE_URL", ""),
		MongoURI:            config.String("MONGO_URI", ""),
		MongoDatabase:       config.String("MONGO_DATABASE", "scheduling"),
		FirebaseProjectID:   config.String("FIREBASE_PROJECT_ID", ""),
		FirebaseCredentials: config.String("FIREBASE_CREDENTIALS_FILE", ""),
		RedisAddr:           config.String("REDIS_ADDR", ""),
		RedisPassword:       config.String("REDIS_PASSWORD", ""),
		KafkaBrokers:        config.String("KAFKA_BROKERS", ""),
		CORSOrigins:         config.List("CORS_ORIGINS", defaultCORSOrigins),
	}

	var err error
	if s.HTTPPort, err = config.Port("PORT", "3000"); err != nil {
		errs = append(errs, err)
	}
	if s.GRPCPort, err = config.Port("GRPC_PORT", "9093"); err != nil {
		errs = append(errs, err)
	}
	if s.DSTPolicy, err = timezone.ParsePolicy(config.String("DST_POLICY", "")); err != nil {
		errs = append(errs, err)
	}

	s.Window = availability.WorkingWindow{
		StartHour: intVal("START_HOUR", 10),
		EndHour:   intVal("END_HOUR", 17),
	}
	s.SlotMinutes = intVal("SLOT_DURATION", 30)
	s.DBMaxConns = intVal("DB_MAX_CONNS", 10)
	s.RedisDB = intVal("REDIS_DB", 0)
	s.RateLimitPerMinute = intVal("RATE_LIMIT_PER_MINUTE", 120)
	s.BodyLimitBytes = int64(intVal("BODY_LIMIT_BYTES", 1<<20))
	s.OutboxPollEvery = time.Duration(intVal("OUTBOX_POLL_MS", 2000)) * time.Millisecond
	s.LockTTL = time.Duration(intVal("CREATE_LOCK_TTL_MS", 10000)) * time.Millisecond
	s.RequestTimeout = time.Duration(intVal("REQUEST_TIMEOUT_MS", 15000)) * time.Millisecond
	s.RateLimitRedisEnabled = config.Bool("RATE_LIMIT_REDIS", s.RedisAddr != "")

	if !s.Window.Valid() {
		errs = append(errs, fmt.Errorf("START_HOUR and END_HOUR must be within 0..24 (got %d and %d)", s.Window.StartHour, s.Window.EndHour))
	}
	if s.SlotMinutes <= 0 {
		errs = append(errs, fmt.Errorf("SLOT_DURATION must be positive (got %d)", s.SlotMinutes))
	}
	if err := s.checkStore(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return Settings{}, errors.Join(errs...)
	}
	return s, nil
}

func (s Settings) checkStore() error {
	switch s.StoreDriver {
	case storage.DriverMemory, storage.DriverFirestore:
		return nil
	case storage.DriverPostgres:
		if s.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for STORE_DRIVER=postgres")
		}
	case storage.DriverMongo:
		if s.MongoURI == "" {
			return errors.New("MONGO_URI is required for STORE_DRIVER=mongo")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", s.StoreDriver)
	}
	return nil
}
