package version

import (
	"runtime/debug"
	"testing"
)

func TestFromBuildInfo(t *testing.T) {
	tests := []struct {
		name     string
		base     Info
		settings []debug.BuildSetting
		want     Info
	}{
		{
			name: "vcs stamp",
			base: Info{Version: "dev"},
			settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "0123456789abcdef"},
				{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
				{Key: "vcs.modified", Value: "true"},
			},
			want: Info{Version: "dev", Commit: "0123456", BuildTime: "2026-01-02T03:04:05Z", GoVersion: "go1.26.0", Dirty: true},
		},
		{
			name:     "ldflags win",
			base:     Info{Version: "1.4.0", Commit: "abc1234", BuildTime: "yesterday"},
			settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "fffffffff"}, {Key: "vcs.time", Value: "today"}},
			want:     Info{Version: "1.4.0", Commit: "abc1234", BuildTime: "yesterday", GoVersion: "go1.26.0"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := tt.base
			fromBuildInfo(&info, &debug.BuildInfo{GoVersion: "go1.26.0", Settings: tt.settings})
			if info != tt.want {
				t.Errorf("got %+v, want %+v", info, tt.want)
			}
		})
	}
}

func TestInfoString(t *testing.T) {
	tests := []struct {
		info Info
		want string
	}{
		{Info{Version: "dev"}, "dev"},
		{Info{Version: "dev", Dirty: true}, "dev"},
		{Info{Version: "1.0.0", Commit: "abc1234"}, "1.0.0-abc1234"},
		{Info{Version: "1.0.0", Commit: "abc1234", Dirty: true}, "1.0.0-abc1234-dirty"},
	}
	for _, tt := range tests {
		if got := tt.info.String(); got != tt.want {
			t.Errorf("%+v.String() = %q, want %q", tt.info, got, tt.want)
		}
	}
}

func TestGet(t *testing.T) {
	if info := Get(); info.Version != Version {
		t.Errorf("Version = %q, want %q", info.Version, Version)
	}
}
