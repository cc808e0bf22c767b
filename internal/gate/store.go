package gate

// Document keys for the three durable state documents. Each document is
// independently read and replaced as a whole; invariants are enforced
// per-document, so no cross-document transaction is needed.
const (
	// DocSecretCredential holds the salted secret-code hash.
	DocSecretCredential = "secret-credential"
	// DocDeviceAccess holds pending consent requests and active grants.
	DocDeviceAccess = "device-access"
	// DocBackupJobs holds the backup job list.
	DocBackupJobs = "backup-jobs"
	// DocAppSettings holds operator preferences (open-at-login flag).
	DocAppSettings = "app-settings"
)

// DocumentStore is the persistence surface for durable state documents.
// Implementations must make Write an atomic whole-document replace and
// must be safe for concurrent use; components re-read their document at
// the start of every operation rather than caching it.
type DocumentStore interface {
	// Read unmarshals the document stored under key into v. The second
	// return value is false when no document exists for the key.
	Read(key string, v any) (bool, error)

	// Write marshals v and atomically replaces the document under key.
	Write(key string, v any) error

	// Close releases the underlying storage.
	Close() error
}
