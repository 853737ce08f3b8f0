package cache

import "time"

// MemoryOption configures MemoryCache.
type MemoryOption func(*MemoryConfig)

// MemoryConfig holds memory cache configuration.
type MemoryConfig struct {
	MaxSize         int
	CleanupInterval time.Duration
}

// WithMaxSize sets the maximum number of entries before LRU eviction.
func WithMaxSize(n int) MemoryOption {
	return func(c *MemoryConfig) {
		if n > 0 {
			c.MaxSize = n
		}
	}
}

// WithCleanupInterval sets how often expired entries are swept.
func WithCleanupInterval(d time.Duration) MemoryOption {
	return func(c *MemoryConfig) {
		if d > 0 {
			c.CleanupInterval = d
		}
	}
}

// RedisOption configures RedisCache.
type RedisOption func(*RedisConfig)

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	Prefix   string
	PoolSize int
}

// WithRedisAddr sets Redis host and port.
func WithRedisAddr(host string, port int) RedisOption {
	return func(c *RedisConfig) {
		c.Host = host
		c.Port = port
	}
}

// WithRedisAuth sets password and database number.
func WithRedisAuth(password string, db int) RedisOption {
	return func(c *RedisConfig) {
		c.Password = password
		c.DB = db
	}
}

// WithRedisPrefix sets key prefix.
func WithRedisPrefix(prefix string) RedisOption {
	return func(c *RedisConfig) {
		c.Prefix = prefix
	}
}

// WithRedisPoolSize sets connection pool size.
func WithRedisPoolSize(n int) RedisOption {
	return func(c *RedisConfig) {
		if n > 0 {
			c.PoolSize = n
		}
	}
}
