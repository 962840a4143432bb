package library

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.yaml.in/yaml/v3"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed schema/library.schema.json
var schemaBytes []byte

var printer = message.NewPrinter(language.English)

// ValidationResult contains the outcome of validating a descriptor.
type ValidationResult struct {
	Valid  bool
	Issues []ValidationIssue
}

// ValidationIssue is a single problem found in a descriptor.
type ValidationIssue struct {
	Path    string // instance location, e.g. "/targets/win32/built"
	Message string
	Keyword string // schema keyword, or "path"/"filename" for layout checks
}

// Summary renders the issues as a single line suitable for an error message.
func (r *ValidationResult) Summary() string {
	if r.Valid {
		return "valid"
	}
	parts := make([]string, 0, len(r.Issues))
	for _, issue := range r.Issues {
		if issue.Path == "" {
			parts = append(parts, issue.Message)
			continue
		}
		parts = append(parts, issue.Path+": "+issue.Message)
	}
	return printer.Sprintf("%d validation issue(s): %s", len(r.Issues), strings.Join(parts, "; "))
}

var librarySchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
	if err != nil {
		return nil, fmt.Errorf("unmarshaling schema JSON: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("library.schema.json", doc); err != nil {
		return nil, fmt.Errorf("adding schema resource: %w", err)
	}
	s, err := c.Compile("library.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compiling schema: %w", err)
	}
	return s, nil
})

// Validate checks raw descriptor YAML against the library schema.
// The error return is for parse or schema compilation failures;
// schema violations are reported in the ValidationResult.
func Validate(data []byte) (*ValidationResult, error) {
	schema, err := librarySchema()
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	inst, err := yamlToJSONValue(data)
	if err != nil {
		return nil, err
	}

	err = schema.Validate(inst)
	if err == nil {
		return &ValidationResult{Valid: true}, nil
	}
	validationErr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return nil, fmt.Errorf("unexpected validation error type: %w", err)
	}

	var issues []ValidationIssue
	collectIssues(validationErr, &issues)
	if len(issues) == 0 {
		issues = []ValidationIssue{{Message: validationErr.Error()}}
	}
	return &ValidationResult{Issues: issues}, nil
}

// yamlToJSONValue decodes YAML into the value model the validator expects
// (json.Number for numbers).
func yamlToJSONValue(data []byte) (any, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	jsonData, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("converting to JSON: %w", err)
	}
	v, err := jsonschema.UnmarshalJSON(bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("preparing JSON for validation: %w", err)
	}
	return v, nil
}

// collectIssues walks the error tree and keeps leaf errors only.
func collectIssues(ve *jsonschema.ValidationError, issues *[]ValidationIssue) {
	if len(ve.Causes) > 0 {
		for _, cause := range ve.Causes {
			collectIssues(cause, issues)
		}
		return
	}
	if ve.ErrorKind == nil {
		return
	}

	kwPath := ve.ErrorKind.KeywordPath()
	if len(kwPath) == 0 {
		return
	}
	keyword := kwPath[len(kwPath)-1]
	if keyword == "allOf" || keyword == "$ref" {
		return
	}

	issue := ValidationIssue{
		Message: ve.ErrorKind.LocalizedString(printer),
		Keyword: keyword,
	}
	if len(ve.InstanceLocation) > 0 {
		issue.Path = "/" + strings.Join(ve.InstanceLocation, "/")
	}
	*issues = append(*issues, issue)
}

// Check reports layout problems the schema cannot express: directories
// must stay inside the source tree or root project, and artifact names
// must be bare file names since they are joined onto staging directories.
func (d *Descriptor) Check() *ValidationResult {
	var issues []ValidationIssue
	relDir := func(loc, p string) {
		if p == "" {
			return
		}
		clean := path.Clean(p)
		if path.IsAbs(p) || strings.HasPrefix(p, `\`) || clean == ".." || strings.HasPrefix(clean, "../") {
			issues = append(issues, ValidationIssue{Path: loc, Keyword: "path",
				Message: fmt.Sprintf("%q must be a relative path inside its root", p)})
		}
	}
	fileName := func(loc, name string) {
		if name == "" {
			return
		}
		if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
			issues = append(issues, ValidationIssue{Path: loc, Keyword: "filename",
				Message: fmt.Sprintf("%q must be a bare file name", name)})
		}
	}

	fileName("/source_folder", d.SourceFolder)
	relDir("/patch_file", d.PatchFile)
	relDir("/headers/from", d.Headers.From)
	relDir("/headers/to", d.Headers.To)

	windows := func(key string, w *WindowsOutputs) {
		if w == nil {
			return
		}
		base := "/targets/" + key
		fileName(base+"/project", w.Project)
		fileName(base+"/built/debug", w.Built.Debug)
		fileName(base+"/built/release", w.Built.Release)
		archs := make([]string, 0, len(w.Results))
		for arch := range w.Results {
			archs = append(archs, arch)
		}
		sort.Strings(archs)
		for _, arch := range archs {
			fileName(base+"/results/"+arch+"/debug", w.Results[arch].Debug)
			fileName(base+"/results/"+arch+"/release", w.Results[arch].Release)
		}
	}
	apple := func(key string, a *AppleOutputs) {
		if a == nil {
			return
		}
		base := "/targets/" + key
		fileName(base+"/project", a.Project)
		fileName(base+"/built", a.Built)
		fileName(base+"/result", a.Result)
	}

	windows("win32", d.Targets.Win32)
	windows("win10", d.Targets.Win10)
	apple("macos", d.Targets.MacOS)
	apple("ios", d.Targets.IOS)
	if a := d.Targets.Android; a != nil {
		fileName("/targets/android/built", a.Built)
		fileName("/targets/android/result", a.Result)
	}

	return &ValidationResult{Valid: len(issues) == 0, Issues: issues}
}
