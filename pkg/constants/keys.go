package constants

type ContextKey string

const (
	TxKey   ContextKey = "tx"
	PoolKey ContextKey = "pool"
)
