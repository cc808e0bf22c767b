package mirror

import (
	"context"
	"testing"

	"devgate/internal/config"
)

func TestNewMirrorFromConfig(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		cfg     config.MirrorConfig
		wantErr bool
		wantNil bool
	}{
		{
			name:    "none disables mirroring",
			cfg:     config.MirrorConfig{Type: "none"},
			wantErr: false,
			wantNil: true,
		},
		{
			name:    "empty type disables mirroring",
			cfg:     config.MirrorConfig{},
			wantErr: false,
			wantNil: true,
		},
		{
			name:    "memory mirror",
			cfg:     config.MirrorConfig{Type: "memory", Name: "test-memory"},
			wantErr: false,
			wantNil: false,
		},
		{
			name:    "filesystem mirror without root",
			cfg:     config.MirrorConfig{Type: "filesystem", Name: "test-fs"},
			wantErr: true,
			wantNil: true,
		},
		{
			name:    "s3 mirror without bucket",
			cfg:     config.MirrorConfig{Type: "s3", Name: "test-s3"},
			wantErr: true,
			wantNil: true,
		},
		{
			name:    "unknown mirror type",
			cfg:     config.MirrorConfig{Type: "ftp", Name: "test-unknown"},
			wantErr: true,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewMirrorFromConfig(ctx, tt.cfg)

			if (err != nil) != tt.wantErr {
				t.Errorf("NewMirrorFromConfig() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if (got == nil) != tt.wantNil {
				t.Errorf("NewMirrorFromConfig() returned nil = %v, wantNil %v", got == nil, tt.wantNil)
			}
			if !tt.wantErr && got != nil {
				if err := got.ValidateSetup(ctx); err != nil {
					t.Errorf("ValidateSetup() error = %v", err)
				}
			}
		})
	}

	t.Run("filesystem mirror with root", func(t *testing.T) {
		got, err := NewMirrorFromConfig(ctx, config.MirrorConfig{
			Type: "filesystem", Name: "test-fs", FSMirrorRoot: t.TempDir(),
		})
		if err != nil {
			t.Fatalf("NewMirrorFromConfig() error = %v", err)
		}
		if got == nil {
			t.Fatal("NewMirrorFromConfig() returned nil")
		}
		if err := got.ValidateSetup(ctx); err != nil {
			t.Errorf("ValidateSetup() error = %v", err)
		}
	})
}
