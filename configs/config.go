package config

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/gofrs/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/joho/godotenv"
)

var InstanceId string

// Setup loads .env first so LOG_LEVEL and LOG_STDOUT from the file reach
// the logger, then starts logging to logName.
func Setup(service, logName string) {
	LoadEnv(service)
	Logging(logName)
}

// LoadEnv reads ./.env into the process environment. A missing file is
// fine: the services can run on plain env vars.
func LoadEnv(service string) {
	log.Infof("%s service configuration and env variables loading started ...", service)
	err := godotenv.Load("./.env")
	if err != nil {
		log.Warnf("no .env file loaded (%s), using process environment", err)
		return
	}

	log.Info(".env file loaded.")
}

func CreateUniqueInstance(service string) string {
	id, err := uuid.NewV4() // instance identifier
	if err != nil {
		log.Errorf("error generating instanceId: %s", err)
		os.Exit(0)
	}
	InstanceId = id.String()
	log.Infof(service+" service with Instance ID: %s is ready", id)
	return id.String()
}

func GetInstanceId() string {
	return InstanceId
}

func CORS() *cors.Cors {
	origins := []string{"http://localhost:5173"}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		origins = origins[:0]
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	corsOptions := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	})

	return corsOptions
}

// Logging sends logrus output to .l_g/<service>.log. LOG_STDOUT=true
// mirrors it to stdout, LOG_LEVEL overrides the info default.
func Logging(service string) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(logLevel(os.Getenv("LOG_LEVEL")))

	logFolder := ".l_g"

	_, err := os.Stat(logFolder)
	if os.IsNotExist(err) {
		err = os.Mkdir(logFolder, 0755)
		if err != nil {
			log.Warnf("unable to create folder for log %s", err)
			return
		}
	}

	logFilePath := filepath.Join(logFolder, service+".log")

	file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log.Fatal("Failed to open log file:", err)
	}

	if os.Getenv("LOG_STDOUT") == "true" {
		log.SetOutput(io.MultiWriter(file, os.Stdout))
	} else {
		log.SetOutput(file)
	}

	log.Infof("log to file started for service: %s", service)
}

func logLevel(v string) log.Level {
	if v == "" {
		return log.InfoLevel
	}
	lvl, err := log.ParseLevel(v)
	if err != nil {
		log.Warnf("unknown LOG_LEVEL %q, using info", v)
		return log.InfoLevel
	}
	return lvl
}

func CustomLoggerMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				log.WithFields(log.Fields{
					"request_id": middleware.GetReqID(r.Context()),
					"status":     ww.Status(),
					"duration":   time.Since(start).String(),
				}).Infof("%s %s %s %s", r.Method, r.RequestURI, r.RemoteAddr, http.StatusText(ww.Status()))
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
