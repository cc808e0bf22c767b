package gate

import (
	"crypto/rand"
	"math/big"
	"time"

	"github.com/google/uuid"
)

// Clock abstracts time retrieval so expiry and scheduling logic is
// deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// IDGenerator abstracts unique ID generation so tests are deterministic.
type IDGenerator interface {
	New() string
}

// UUIDGenerator produces random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) New() string { return uuid.New().String() }

// CodeGenerator produces the short human-readable codes handed to a
// device owner during a consent handshake.
type CodeGenerator interface {
	Code() string
}

// RandomCodeGenerator produces 6-digit codes from crypto/rand.
type RandomCodeGenerator struct{}

func (RandomCodeGenerator) Code() string {
	// [100000, 999999]: always six digits, no leading zero.
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		// crypto/rand failing means the platform entropy source is broken;
		// there is no reasonable fallback for a consent code.
		panic(err)
	}
	return big.NewInt(0).Add(n, big.NewInt(100000)).String()
}

// Logger provides structured logging for the service layer.
// The args follow slog conventions: alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NopLogger is a Logger that discards all output. Use in tests.
type NopLogger struct{}

func NewNopLogger() *NopLogger { return &NopLogger{} }

func (*NopLogger) Debug(string, ...any) {}
func (*NopLogger) Info(string, ...any)  {}
func (*NopLogger) Warn(string, ...any)  {}
func (*NopLogger) Error(string, ...any) {}
