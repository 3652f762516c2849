package app

import (
	"os"
	"strings"
	"time"
)

// envPrefix namespaces every environment variable the application reads.
const envPrefix = "READINGLIST_"

func getenv(key string) string {
	return strings.TrimSpace(os.Getenv(envPrefix + key))
}

// splitList parses a comma separated env value.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ApplyEnvOverrides overrides cfg fields with READINGLIST_* environment
// variables when they are set. Env takes precedence over the config file;
// flags remain highest precedence.
func ApplyEnvOverrides(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	setStr := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	setStr(&cfg.InputPath, "INPUT")
	setStr(&cfg.OutputPath, "OUTPUT")
	setStr(&cfg.OutputDir, "OUTPUT_DIR")
	setStr(&cfg.CorrectionsPath, "CORRECTIONS")
	setStr(&cfg.UserAgent, "USER_AGENT")
	setStr(&cfg.RedirectsPath, "REDIRECTS")
	setStr(&cfg.AuthUser, "AUTH_USER")
	setStr(&cfg.BrowserURL, "BROWSER_URL")
	setStr(&cfg.CacheDir, "CACHE_DIR")
	// Passwords may legitimately carry surrounding spaces.
	if v := os.Getenv(envPrefix + "AUTH_PASSWORD"); v != "" {
		cfg.AuthPassword = v
	}

	setList := func(dst *[]string, key string) {
		if v := getenv(key); v != "" {
			*dst = splitList(v)
		}
	}
	setList(&cfg.ExcludeTopics, "EXCLUDE_TOPICS")
	setList(&cfg.ExcludeHosts, "EXCLUDE_HOSTS")
	setList(&cfg.AuthHosts, "AUTH_HOSTS")
	if v := getenv("CONTENT_TYPES"); v != "" {
		cts, err := parseContentTypes(splitList(v))
		if err != nil {
			return err
		}
		cfg.ContentTypes = cts
	}

	var durErr error
	setDur := func(dst *time.Duration, key string) {
		if s := getenv(key); s != "" {
			d, err := time.ParseDuration(s)
			if err != nil {
				if durErr == nil {
					durErr = err
				}
				return
			}
			*dst = d
		}
	}
	setDur(&cfg.Delay, "DELAY")
	setDur(&cfg.HTMLTimeout, "HTML_TIMEOUT")
	setDur(&cfg.PDFTimeout, "PDF_TIMEOUT")
	setDur(&cfg.CacheMaxAge, "CACHE_MAX_AGE")
	if durErr != nil {
		return durErr
	}

	// Booleans override when env present and truthy/falsey
	setBool := func(dst *bool, key string) {
		switch strings.ToLower(getenv(key)) {
		case "1", "true", "yes", "on":
			*dst = true
		case "0", "false", "no", "off":
			*dst = false
		}
	}
	setBool(&cfg.UseAuth, "USE_AUTH")
	setBool(&cfg.PDFVerifyTLS, "PDF_VERIFY_TLS")
	setBool(&cfg.PDFStrict, "PDF_STRICT")
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
	setBool(&cfg.Verbose, "VERBOSE")
	return nil
}
