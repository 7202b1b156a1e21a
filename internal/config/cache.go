package config

import "time"

// Cache drivers accepted in CACHE_DRIVER.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverMySQL  = "mysql"
)

// CacheConfig selects the store behind the production cache. TimeMin is
// the entry lifetime in minutes; zero disables caching.
type CacheConfig struct {
	Driver  string `env:"CACHE_DRIVER" envDefault:"memory"`
	Prefix  string `env:"CACHE_PREFIX" envDefault:"tricket"`
	TimeMin int    `env:"TRICKET_CACHE_TIME" envDefault:"15"`
}

// TTL converts TimeMin to the lifetime handed to the cache.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TimeMin) * time.Minute
}
