// Command genconfig writes a sample config.yaml for the contact relay. Values
// come from the built-in defaults overlaid with the current environment (and
// .env, when present); secrets are replaced with placeholders unless
// --include-secrets is set.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/devfolio/portfolio-backend/config"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const secretPlaceholder = "CHANGE_ME"

func main() {
	output := flag.String("o", "config.yaml", "output file, - for stdout")
	includeSecrets := flag.Bool("include-secrets", false, "write secret values from the environment")
	flag.Parse()

	_ = godotenv.Load()

	cfg := sampleConfig(os.Getenv, *includeSecrets)

	var w io.Writer = os.Stdout
	if *output != "-" {
		f, err := os.OpenFile(*output, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", *output, err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}

	if err := writeConfig(w, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing config: %v\n", err)
		os.Exit(1)
	}
	if *output != "-" {
		fmt.Printf("Configuration written to %s\n", *output)
	}
}

// sampleConfig overlays getenv onto the defaults.
func sampleConfig(getenv func(string) string, includeSecrets bool) config.Config {
	cfg := config.Defaults()

	setString := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(dst *int, key string) {
		if n, err := strconv.Atoi(getenv(key)); err == nil {
			*dst = n
		}
	}
	setSecret := func(dst *string, key string) {
		if includeSecrets {
			setString(dst, key)
		}
		if *dst == "" || !includeSecrets {
			*dst = secretPlaceholder
		}
	}

	if v := getenv("SERVER_ENVIRONMENT"); v != "" {
		cfg.Server.Environment = config.Environment(v)
	}
	setString(&cfg.Server.Port, "PORT")
	if v := getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = strings.Split(v, ",")
	}

	setString(&cfg.Email.FromAddress, "EMAIL_FROM_ADDRESS")
	setString(&cfg.Email.FromName, "EMAIL_FROM_NAME")
	setString(&cfg.Email.OwnerAddress, "EMAIL_OWNER_ADDRESS")
	setString(&cfg.Email.SubjectPrefix, "EMAIL_SUBJECT_PREFIX")
	setSecret(&cfg.Email.ResendAPIKey, "RESEND_API_KEY")

	setString(&cfg.Redis.Address, "REDIS_ADDRESS")
	setSecret(&cfg.Redis.Password, "REDIS_PASSWORD")

	cfg.Database.Enabled = getenv("DB_ENABLED") == "true"
	setString(&cfg.Database.Host, "DB_HOST")
	setInt(&cfg.Database.Port, "DB_PORT")
	setString(&cfg.Database.User, "DB_USER")
	setString(&cfg.Database.Name, "DB_NAME")
	setSecret(&cfg.Database.Password, "DB_PASSWORD")

	setInt(&cfg.RateLimit.ContactRequests, "RATE_LIMIT_CONTACT_REQUESTS")
	setInt(&cfg.RateLimit.WindowSeconds, "RATE_LIMIT_WINDOW_SECONDS")

	return cfg
}

func writeConfig(w io.Writer, cfg config.Config) error {
	fmt.Fprintln(w, "# Contact relay configuration. Environment variables override these values.")
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}
