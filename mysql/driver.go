package mysql

import (
	"context"
	"net"
	"time"

	trmgorm "github.com/avito-tech/go-transaction-manager/drivers/gorm/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	driver_mysql "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bobinette/teams/log"
)

type Config struct {
	Host     string `toml:"host"`
	Port     string `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	Database string `toml:"database"`
}

// DSN builds the data source name of the configuration. Times are read
// and written in UTC.
func (c Config) DSN() string {
	cfg := driver_mysql.NewConfig()
	cfg.User = c.Username
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(c.Host, c.Port)
	cfg.DBName = c.Database
	cfg.Loc = time.UTC
	cfg.ParseTime = true
	cfg.MultiStatements = true
	cfg.AllowNativePasswords = true
	return cfg.FormatDSN()
}

// Driver holds the connection to MySQL and the transaction manager the
// repositories share.
type Driver struct {
	db      *gorm.DB
	manager *manager.Manager
	getter  *trmgorm.CtxGetter
}

func NewDriver(cfg Config, l log.Logger) (*Driver, error) {
	return Open(cfg.DSN(), l)
}

// Open connects to the database described by dsn. The dsn is completed
// with the options the repositories rely on.
func Open(dsn string, l log.Logger) (*Driver, error) {
	cfg, err := driver_mysql.ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	cfg.Loc = time.UTC
	cfg.ParseTime = true
	cfg.MultiStatements = true

	db, err := gorm.Open(mysql.Open(cfg.FormatDSN()), &gorm.Config{
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC().Truncate(time.Microsecond)
		},
		Logger: logger.New(l, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			Colorful:                  false,
			IgnoreRecordNotFoundError: true,
			LogLevel:                  logger.Warn,
		}),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetConnMaxLifetime(1 * time.Minute)

	m, err := manager.New(trmgorm.NewDefaultFactory(db))
	if err != nil {
		return nil, err
	}

	return &Driver{
		db:      db,
		manager: m,
		getter:  trmgorm.DefaultCtxGetter,
	}, nil
}

// Do runs fn in a transaction. Repositories called with the context fn
// receives take part in it.
func (d *Driver) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return d.manager.Do(ctx, fn)
}

// conn returns the transaction of ctx, or the database.
func (d *Driver) conn(ctx context.Context) *gorm.DB {
	return d.getter.DefaultTrOrDB(ctx, d.db).WithContext(ctx)
}

func (d *Driver) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
