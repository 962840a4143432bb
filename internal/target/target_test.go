package target

import (
	"errors"
	"runtime"
	"testing"
)

func TestSupportedBuildPlatforms(t *testing.T) {
	got := SupportedBuildPlatforms()
	if len(got) != 2 || got[0] != PlatformWin32 || got[1] != PlatformDarwin {
		t.Errorf("SupportedBuildPlatforms() = %v", got)
	}
}

func TestSupportedTargets(t *testing.T) {
	tests := []struct {
		platform BuildPlatform
		want     []Target
	}{
		{PlatformWin32, []Target{Win32, Win10, Android}},
		{PlatformDarwin, []Target{MacOS, IOS, Android}},
	}
	for _, tt := range tests {
		got, err := SupportedTargets(tt.platform)
		if err != nil {
			t.Fatalf("SupportedTargets(%s): %v", tt.platform, err)
		}
		if len(got) != len(tt.want) {
			t.Fatalf("SupportedTargets(%s) = %v, want %v", tt.platform, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("SupportedTargets(%s)[%d] = %s, want %s", tt.platform, i, got[i], tt.want[i])
			}
		}
	}
}

func TestSupportedTargetsUnknownPlatform(t *testing.T) {
	_, err := SupportedTargets("linux")
	var upe *UnsupportedPlatformError
	if !errors.As(err, &upe) {
		t.Fatalf("expected UnsupportedPlatformError, got %v", err)
	}
	if upe.Platform != "linux" {
		t.Errorf("Platform = %q, want linux", upe.Platform)
	}
}

func TestEverySupportedPairIsBuildable(t *testing.T) {
	for _, p := range SupportedBuildPlatforms() {
		targets, err := SupportedTargets(p)
		if err != nil {
			t.Fatal(err)
		}
		for _, tg := range targets {
			if !IsSupportedOn(tg, p) {
				t.Errorf("%s should be supported on %s", tg, p)
			}
		}
	}
	if IsSupportedOn(IOS, PlatformWin32) {
		t.Error("ios must not be buildable from win32")
	}
	if IsSupportedOn(Win10, PlatformDarwin) {
		t.Error("win10 must not be buildable from darwin")
	}
}

func TestParseTarget(t *testing.T) {
	for _, want := range All {
		got, err := ParseTarget(string(want))
		if err != nil || got != want {
			t.Errorf("ParseTarget(%q) = %q, %v", want, got, err)
		}
	}
	if got, err := ParseTarget(" MacOS "); err != nil || got != MacOS {
		t.Errorf("ParseTarget should trim and lower-case, got %q, %v", got, err)
	}

	_, err := ParseTarget("bogus_target")
	var ute *UnsupportedTargetError
	if !errors.As(err, &ute) {
		t.Fatalf("expected UnsupportedTargetError, got %v", err)
	}
	if ute.Target != "bogus_target" {
		t.Errorf("Target = %q", ute.Target)
	}
}

func TestParsePlatform(t *testing.T) {
	tests := []struct {
		in      string
		want    BuildPlatform
		wantErr bool
	}{
		{"win32", PlatformWin32, false},
		{"windows", PlatformWin32, false},
		{"darwin", PlatformDarwin, false},
		{"macos", PlatformDarwin, false},
		{"linux", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParsePlatform(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePlatform(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePlatform(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHostPlatform(t *testing.T) {
	p, err := HostPlatform()
	switch runtime.GOOS {
	case "windows":
		if err != nil || p != PlatformWin32 {
			t.Errorf("HostPlatform() = %q, %v", p, err)
		}
	case "darwin":
		if err != nil || p != PlatformDarwin {
			t.Errorf("HostPlatform() = %q, %v", p, err)
		}
	default:
		if err == nil {
			t.Errorf("HostPlatform() on %s should fail, got %q", runtime.GOOS, p)
		}
	}
}
