package config

// StoreKind selects the key-value backend that persists credentials.
type StoreKind string

const (
	StoreMemory StoreKind = "memory"
	StoreFile   StoreKind = "file"
	StoreRedis  StoreKind = "redis"
)

type StoreConfig interface {
	GetStoreKind() StoreKind
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetRedisKeyPrefix() string
}

type Store struct {
	Kind           string `envconfig:"CCJ_STORE" default:"file" validate:"oneof=memory file redis"`
	RedisAddr      string `envconfig:"CCJ_REDIS_ADDR" default:"localhost:6379"`
	RedisPassword  string `envconfig:"CCJ_REDIS_PASSWORD"`
	RedisDB        int    `envconfig:"CCJ_REDIS_DB" default:"0" validate:"gte=0,lte=15"`
	RedisKeyPrefix string `envconfig:"CCJ_REDIS_KEY_PREFIX" default:"ccj:"`
}

var _ StoreConfig = Store{}

func (s Store) GetStoreKind() StoreKind {
	return StoreKind(s.Kind)
}

func (s Store) GetRedisAddr() string {
	return s.RedisAddr
}

func (s Store) GetRedisPassword() string {
	return s.RedisPassword
}

func (s Store) GetRedisDB() int {
	return s.RedisDB
}

func (s Store) GetRedisKeyPrefix() string {
	return s.RedisKeyPrefix
}
