package config

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultAppEnv        = "local"
	defaultAppPort       = "8080"
	defaultMongoURI      = "mongodb://localhost:27017"
	defaultMongoDatabase = "storefront"
	defaultJWTSecret     = "change-me-in-production"
	defaultTokenTTL      = 7 * 24 * time.Hour
)

var (
	loadOnce sync.Once
	loadErr  error

	mu     sync.RWMutex
	values = defaultValues()
)

// Load merges config/app.json, then .env, then the process environment into
// the value table. Later sources win. Safe to call many times.
func Load() error {
	loadOnce.Do(func() {
		loadErr = loadFromFiles("config/app.json", ".env")
	})
	return loadErr
}

func defaultValues() map[string]string {
	return map[string]string{
		"APP_ENV":              defaultAppEnv,
		"APP_PORT":             defaultAppPort,
		"MONGO_URI":            defaultMongoURI,
		"MONGO_DATABASE":       defaultMongoDatabase,
		"JWT_SECRET":           "",
		"TOKEN_TTL":            defaultTokenTTL.String(),
		"COOKIE_SECURE":        "false",
		"CORS_ALLOWED_ORIGINS": "*",
		"CATALOG_REQUIRE_AUTH": "false",
		"LOG_MONGO_COLLECTION": "",
		"STORAGE_DISK":         "local",
		"STORAGE_LOCAL_ROOT":   "storage",
		"STORAGE_URL":          "http://localhost:8080/storage",
	}
}

func AppEnv() string {
	_ = Load()
	return get("APP_ENV", defaultAppEnv)
}

func AppPort() string {
	_ = Load()
	return get("APP_PORT", defaultAppPort)
}

func MongoURI() string {
	_ = Load()
	return get("MONGO_URI", defaultMongoURI)
}

func MongoDatabase() string {
	_ = Load()
	return get("MONGO_DATABASE", defaultMongoDatabase)
}

// JWTSecret returns the token signing secret. Empty when unset.
func JWTSecret() string {
	_ = Load()
	return get("JWT_SECRET", "")
}

func TokenTTL() time.Duration {
	_ = Load()
	d, err := time.ParseDuration(get("TOKEN_TTL", ""))
	if err != nil || d <= 0 {
		return defaultTokenTTL
	}
	return d
}

func CookieSecure() bool {
	_ = Load()
	return getBool("COOKIE_SECURE")
}

func CORSAllowedOrigins() []string {
	_ = Load()
	var out []string
	for _, o := range strings.Split(get("CORS_ALLOWED_ORIGINS", "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func CatalogRequireAuth() bool {
	_ = Load()
	return getBool("CATALOG_REQUIRE_AUTH")
}

func LogMongoCollection() string {
	_ = Load()
	return get("LOG_MONGO_COLLECTION", "")
}

// ── Storage ──────────────────────────────────────────────────────────────────

func StorageDisk() string {
	_ = Load()
	return get("STORAGE_DISK", "local")
}

func StorageLocalRoot() string {
	_ = Load()
	return get("STORAGE_LOCAL_ROOT", "storage")
}

func StorageURL() string {
	_ = Load()
	return get("STORAGE_URL", "http://localhost:8080/storage")
}

func StorageS3Bucket() string   { _ = Load(); return get("S3_BUCKET", "") }
func StorageS3Region() string   { _ = Load(); return get("S3_REGION", "us-east-1") }
func StorageS3Key() string      { _ = Load(); return get("S3_KEY", "") }
func StorageS3Secret() string   { _ = Load(); return get("S3_SECRET", "") }
func StorageS3Endpoint() string { _ = Load(); return get("S3_ENDPOINT", "") }
func StorageS3URL() string      { _ = Load(); return get("S3_URL", "") }

func loadFromFiles(configPath, envPath string) error {
	loaded := defaultValues()

	if err := mergeJSONConfig(configPath, loaded); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	}

	if err := mergeDotEnv(envPath, loaded); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	}

	mergeProcessEnv(loaded)

	mu.Lock()
	values = loaded
	mu.Unlock()

	return nil
}

func mergeJSONConfig(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var raw map[string]interface{}
	if err := json.NewDecoder(file).Decode(&raw); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	for key, val := range raw {
		var s string
		switch v := val.(type) {
		case string:
			s = v
		case bool:
			s = strconv.FormatBool(v)
		case float64:
			s = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			continue
		}

		k := strings.ToUpper(strings.TrimSpace(key))
		if k == "" {
			continue
		}
		out[k] = strings.TrimSpace(s)
	}

	return nil
}

func mergeDotEnv(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		idx := strings.IndexByte(line, '=')
		if idx <= 0 {
			continue
		}

		key := strings.ToUpper(strings.TrimSpace(line[:idx]))
		value := strings.TrimSpace(line[idx+1:])
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}
		out[key] = value
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	return nil
}

// mergeProcessEnv overlays any known or S3_* key present in the environment.
func mergeProcessEnv(out map[string]string) {
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if _, known := out[key]; known || strings.HasPrefix(key, "S3_") || key == "MAX_BODY_BYTES" {
			out[key] = value
		}
	}
}

func get(key, fallback string) string {
	mu.RLock()
	defer mu.RUnlock()

	if value := strings.TrimSpace(values[key]); value != "" {
		return value
	}

	return fallback
}

func getBool(key string) bool {
	b, err := strconv.ParseBool(get(key, "false"))
	return err == nil && b
}

// Get reads any config key by name with an optional fallback.
func Get(key, fallback string) string {
	_ = Load()
	return get(key, fallback)
}

// Set overrides a single key at runtime. Intended for tests and CLI flags.
func Set(key, value string) {
	_ = Load()
	mu.Lock()
	values[strings.ToUpper(key)] = value
	mu.Unlock()
}
