package fetch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nativelibs/tpbuild/internal/branding"
	"github.com/nativelibs/tpbuild/internal/library"
)

// StampFileName is written into every extracted source folder.
var StampFileName = branding.SourceStampName()

// SourceStamp records what an extracted source folder was built from.
type SourceStamp struct {
	URL         string    `json:"url"`
	Version     string    `json:"version,omitempty"`
	ExtractedAt time.Time `json:"extracted_at"`
}

// LoadStamp reads the stamp in dir. Returns nil, nil if there is none.
func LoadStamp(dir string) (*SourceStamp, error) {
	data, err := os.ReadFile(filepath.Join(dir, StampFileName))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading source stamp: %w", err)
	}

	var stamp SourceStamp
	if err := json.Unmarshal(data, &stamp); err != nil {
		return nil, fmt.Errorf("parsing source stamp: %w", err)
	}
	return &stamp, nil
}

// SaveStamp writes stamp into dir.
func SaveStamp(dir string, stamp *SourceStamp) error {
	data, err := json.MarshalIndent(stamp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling source stamp: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, StampFileName), data, 0644); err != nil {
		return fmt.Errorf("writing source stamp: %w", err)
	}
	return nil
}

// compareVersions returns -1, 0 or 1 comparing a to b.
func compareVersions(a, b string) (int, error) {
	if a == "" || b == "" {
		return 0, fmt.Errorf("version unknown")
	}
	av, err := library.ParseVersion(a)
	if err != nil {
		return 0, err
	}
	bv, err := library.ParseVersion(b)
	if err != nil {
		return 0, err
	}
	return av.Compare(bv), nil
}
