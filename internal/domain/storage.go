package domain

// Durable storage keys for session credentials
const (
	KeyToken        = "token"
	KeyRefreshToken = "refreshToken"
)

// CredentialStore persists session credentials outside the query cache.
// Implemented by the BoltDB store; survives process restarts.
type CredentialStore interface {
	GetCredential(key string) (string, bool)
	SetCredential(key, value string) error
	DeleteCredentials(keys ...string) error
}

// SnapshotStore persists successful query results for warm starts.
// Keys are canonical query-key hashes; prefix deletion mirrors key-prefix invalidation.
type SnapshotStore interface {
	LoadSnapshot(key string) ([]byte, int64, bool)
	SaveSnapshot(key string, data []byte, updatedAt int64) error
	DeleteSnapshots(prefix string) error
	ClearSnapshots() error
}
