package mirror

import (
	"context"
	"fmt"

	"devgate/internal/config"
	"devgate/internal/gate"
)

// NewMirrorFromConfig creates a Mirror implementation based on the
// mirror config type. Type "none" returns a nil Mirror: backups are
// then kept local only.
func NewMirrorFromConfig(ctx context.Context, cfg config.MirrorConfig) (gate.Mirror, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "memory":
		return NewMemoryMirror(cfg.Name), nil
	case "s3":
		return NewS3Mirror(ctx, cfg)
	case "filesystem":
		if cfg.FSMirrorRoot == "" {
			return nil, fmt.Errorf("filesystem mirror requires fs_mirror_root to be set")
		}
		return NewFileSystemMirror(cfg.Name, cfg.FSMirrorRoot)
	default:
		return nil, fmt.Errorf("unknown mirror type: %s", cfg.Type)
	}
}
