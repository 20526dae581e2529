package main

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/bobinette/teams/errors"
	"github.com/bobinette/teams/mysql"
	"github.com/bobinette/teams/services"
)

type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

type Configuration struct {
	Store struct {
		// Driver is one of bolt, mysql or memory
		Driver string `toml:"driver"`
	} `toml:"store"`
	Bolt struct {
		Store string `toml:"store"`
	} `toml:"bolt"`
	MySQL mysql.Config `toml:"mysql"`
	Teams struct {
		Blacklist   []string `toml:"blacklist"`
		InviteGrace duration `toml:"invite_grace"`
	} `toml:"teams"`
	Notify struct {
		Async bool `toml:"async"`
	} `toml:"notify"`
	Sweep struct {
		Schedule string `toml:"schedule"`
	} `toml:"sweep"`
}

func defaultConfiguration() Configuration {
	var cfg Configuration
	cfg.Store.Driver = "bolt"
	cfg.Bolt.Store = "data/teams.db"
	cfg.MySQL.Host = "localhost"
	cfg.MySQL.Port = "3306"
	cfg.Teams.InviteGrace = duration{services.DefaultInviteGrace}
	cfg.Sweep.Schedule = "@hourly"
	return cfg
}

// loadConfiguration reads the toml file at path, then applies the
// TEAMS_* environment variables, read from .env as well when it exists.
func loadConfiguration(path string) (Configuration, error) {
	cfg := defaultConfiguration()

	data, err := os.ReadFile(path)
	if err != nil {
		return Configuration{}, errors.New("could not read configuration file", errors.WithCause(err))
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Configuration{}, errors.New("error unmarshalling configuration", errors.WithCause(err))
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Configuration{}, errors.New("could not read .env", errors.WithCause(err))
	}

	overrides := map[string]*string{
		"TEAMS_STORE_DRIVER":   &cfg.Store.Driver,
		"TEAMS_BOLT_STORE":     &cfg.Bolt.Store,
		"TEAMS_MYSQL_HOST":     &cfg.MySQL.Host,
		"TEAMS_MYSQL_PORT":     &cfg.MySQL.Port,
		"TEAMS_MYSQL_USER":     &cfg.MySQL.Username,
		"TEAMS_MYSQL_PASSWORD": &cfg.MySQL.Password,
		"TEAMS_MYSQL_DATABASE": &cfg.MySQL.Database,
		"TEAMS_SWEEP_SCHEDULE": &cfg.Sweep.Schedule,
	}
	for key, field := range overrides {
		if value, ok := os.LookupEnv(key); ok {
			*field = value
		}
	}

	if value, ok := os.LookupEnv("TEAMS_INVITE_GRACE"); ok {
		if err := cfg.Teams.InviteGrace.UnmarshalText([]byte(value)); err != nil {
			return Configuration{}, errors.New("invalid TEAMS_INVITE_GRACE", errors.WithCause(err))
		}
	}

	return cfg, nil
}
