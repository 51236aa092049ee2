package db

import (
	"alertflow/conf"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	base := conf.Db{DbName: "alertflow", Host: "db", Username: "u", Password: "p@ss"}

	tests := []struct {
		name   string
		driver string
		want   string
	}{
		{"postgres", "postgres", "postgres://u:p%40ss@db:5432/alertflow?sslmode=disable"},
		{"mysql", "mysql", "u:p@ss@tcp(db:3306)/alertflow?charset=utf8mb4&parseTime=true&loc=Local"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			c.Driver = tt.driver
			dsn, err := NewConfig(c).DSN()
			require.NoError(t, err)
			assert.Equal(t, tt.want, dsn)
		})
	}

	_, err := NewConfig(conf.Db{Driver: "oracle"}).DSN()
	assert.Error(t, err)
}

func TestDSN_ExplicitPort(t *testing.T) {
	dsn, err := NewConfig(conf.Db{Driver: "postgres", Host: "10.0.0.2", Port: "6432", DbName: "x"}).DSN()
	require.NoError(t, err)
	assert.Equal(t, "postgres://10.0.0.2:6432/x?sslmode=disable", dsn)
}
