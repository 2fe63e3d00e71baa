package constants

type ContextKey string

const (
	PoolKey      ContextKey = "pool"
	TxKey        ContextKey = "tx"
	TenantIDKey  ContextKey = "tenantID"
	LoggerKey    ContextKey = "logger"
	RequestIDKey ContextKey = "requestID"
)
