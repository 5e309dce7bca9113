package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-refdata/store"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// settings is the resolved configuration of one invocation.
type settings struct {
	Store      store.Config
	CodeColumn string
	LogLevel   string
	LogFormat  string
}

// loadSettings layers defaults, refdata.yaml, REFDATA_* variables and flags,
// in increasing precedence.
func loadSettings(v *viper.Viper, flags *pflag.FlagSet) (settings, error) {
	defaults := store.DefaultConfig()
	v.SetDefault("driver", defaults.Driver)
	v.SetDefault("dsn", defaults.DSN)
	v.SetDefault("max-open-conns", defaults.MaxOpenConns)
	v.SetDefault("max-idle-conns", defaults.MaxIdleConns)
	v.SetDefault("conn-max-lifetime", defaults.ConnMaxLifetime)
	v.SetDefault("query-debug", false)
	v.SetDefault("code-column", "code")
	v.SetDefault("log-level", "warn")
	v.SetDefault("log-format", "text")

	v.SetEnvPrefix("REFDATA")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := bindChanged(v, flags); err != nil {
		return settings{}, err
	}

	if path, _ := flags.GetString("config"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("refdata")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	s := settings{
		Store: store.Config{
			Driver:          v.GetString("driver"),
			DSN:             v.GetString("dsn"),
			MaxOpenConns:    v.GetInt("max-open-conns"),
			MaxIdleConns:    v.GetInt("max-idle-conns"),
			ConnMaxLifetime: v.GetDuration("conn-max-lifetime"),
			QueryDebug:      v.GetBool("query-debug"),
		},
		CodeColumn: v.GetString("code-column"),
		LogLevel:   v.GetString("log-level"),
		LogFormat:  v.GetString("log-format"),
	}
	if err := s.Store.Validate(); err != nil {
		return settings{}, fmt.Errorf("invalid database config: %w", err)
	}
	return s, nil
}

// bindChanged binds only flags set on the command line, so unset flags do
// not mask config file values with their zero defaults.
func bindChanged(v *viper.Viper, flags *pflag.FlagSet) error {
	var err error
	flags.Visit(func(f *pflag.Flag) {
		if f.Name == "config" || err != nil {
			return
		}
		err = v.BindPFlag(f.Name, f)
	})
	return err
}

// synonymsFor merges the synonyms configured for table with ALT=CODE pairs
// given on the command line.
func synonymsFor(v *viper.Viper, table string, pairs []string) (map[string]string, error) {
	synonyms := make(map[string]string)
	for alt, code := range v.GetStringMapString("synonyms." + strings.ToLower(table)) {
		synonyms[alt] = code
	}
	for _, pair := range pairs {
		alt, code, ok := strings.Cut(pair, "=")
		if !ok || alt == "" || code == "" {
			return nil, fmt.Errorf("invalid synonym %q: want ALT=CODE", pair)
		}
		synonyms[alt] = code
	}
	return synonyms, nil
}
