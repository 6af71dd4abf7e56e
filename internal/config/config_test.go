package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "db.internal",
		Port:     3306,
		Name:     "rsa_crm",
		User:     "svc",
		Password: "secret",
	}
	assert.Equal(t, "svc:secret@tcp(db.internal:3306)/rsa_crm?parseTime=true&loc=UTC", d.DSN())
}

func TestRedisAddr(t *testing.T) {
	r := RedisConfig{Host: "cache.internal", Port: 6380}
	assert.Equal(t, "cache.internal:6380", r.Addr())
}

func TestAppLocation(t *testing.T) {
	assert.Equal(t, time.UTC, AppConfig{Timezone: "not-a-zone"}.Location())
	assert.Equal(t, time.UTC, AppConfig{}.Location())

	loc := AppConfig{Timezone: "Asia/Kolkata"}.Location()
	assert.Equal(t, "Asia/Kolkata", loc.String())
}

func TestSetAndGet(t *testing.T) {
	old := Get()
	defer Set(old)

	c := &Config{App: AppConfig{Name: "test"}}
	Set(c)
	assert.Equal(t, "test", Get().App.Name)
}
