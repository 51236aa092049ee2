package db

import (
	"alertflow/conf"
	"fmt"
	"net/url"
	"sync"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	DB   *gorm.DB
	once sync.Once
)

type Config struct {
	Driver    string // mysql / postgres
	User      string
	Password  string
	Host      string
	Port      string
	DBName    string
	Charset   string // optional, mysql
	Loc       string // optional, mysql
	ParseTime bool   // optional, mysql
	SSLMode   string // optional, postgres
}

func NewConfig(c conf.Db) Config {
	return Config{
		Driver:    c.Driver,
		User:      c.Username,
		Password:  c.Password,
		Host:      c.Host,
		Port:      c.Port,
		DBName:    c.DbName,
		Charset:   "utf8mb4",
		Loc:       "Local",
		ParseTime: true,
		SSLMode:   "disable",
	}
}

func (cfg Config) addr(defaultPort string) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == "" {
		port = defaultPort
	}
	return fmt.Sprintf("%s:%s", host, port)
}

// DSN 按驱动生成连接串
func (cfg Config) DSN() (string, error) {
	switch cfg.Driver {
	case "mysql":
		charset := cfg.Charset
		if charset == "" {
			charset = "utf8mb4"
		}
		loc := cfg.Loc
		if loc == "" {
			loc = "Local"
		}
		return fmt.Sprintf(
			"%s:%s@tcp(%s)/%s?charset=%s&parseTime=%t&loc=%s",
			cfg.User, cfg.Password, cfg.addr("3306"), cfg.DBName, charset, cfg.ParseTime, url.QueryEscape(loc),
		), nil
	case "postgres", "":
		sslMode := cfg.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		u := &url.URL{Scheme: "postgres", Host: cfg.addr("5432")}
		if cfg.User != "" {
			if cfg.Password != "" {
				u.User = url.UserPassword(cfg.User, cfg.Password)
			} else {
				u.User = url.User(cfg.User)
			}
		}
		if cfg.DBName != "" {
			u.Path = "/" + cfg.DBName
		}
		u.RawQuery = url.Values{"sslmode": {sslMode}}.Encode()
		return u.String(), nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func (cfg Config) dialector() (gorm.Dialector, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}
	if cfg.Driver == "mysql" {
		return mysql.Open(dsn), nil
	}
	return postgres.Open(dsn), nil
}

// Open 建立连接并设置连接池
func Open(cfg Config) (*gorm.DB, error) {
	dialector, err := cfg.dialector()
	if err != nil {
		return nil, err
	}
	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)
	return gdb, nil
}

// Init 初始化全局 DB，只执行一次
func Init(cfg Config) (*gorm.DB, error) {
	var err error
	once.Do(func() {
		DB, err = Open(cfg)
	})
	return DB, err
}

// Migrate 自动建表
func Migrate(gdb *gorm.DB, models ...any) error {
	if err := gdb.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func Close(gdb *gorm.DB) error {
	if gdb == nil {
		return nil
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
