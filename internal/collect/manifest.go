package collect

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Specifier is one declared dependency: name plus optional version.
type Specifier struct {
	Name    string
	Version string
}

// String renders the specifier the way it is sent to the analyzer.
func (s Specifier) String() string {
	if s.Version == "" {
		return s.Name
	}
	return s.Name + "@" + s.Version
}

// ManifestParser extracts dependency specifiers from one manifest file.
type ManifestParser interface {
	Parse(path string) ([]Specifier, error)
}

// Parser dispatches on the manifest basename. Zero value is ready to use.
type Parser struct{}

// Parse reads the manifest at path and returns its dependency specifiers.
// Unknown manifest names yield an empty result, not an error.
func (Parser) Parse(path string) ([]Specifier, error) {
	switch filepath.Base(path) {
	case "package.json":
		return parsePackageJSON(path)
	case "requirements.txt":
		return parseRequirements(path)
	case "go.mod":
		return parseGoMod(path)
	default:
		return nil, nil
	}
}

func parsePackageJSON(path string) ([]Specifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var doc struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	var out []Specifier
	for name, ver := range doc.Dependencies {
		out = append(out, Specifier{Name: name, Version: strings.TrimLeft(ver, "^~")})
	}
	for name, ver := range doc.DevDependencies {
		out = append(out, Specifier{Name: name, Version: strings.TrimLeft(ver, "^~")})
	}
	return out, nil
}

func parseRequirements(path string) ([]Specifier, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	defer f.Close()

	var out []Specifier
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		// Strip environment markers and inline comments.
		if i := strings.IndexAny(line, ";#"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		name, ver := line, ""
		for _, sep := range []string{"==", ">=", "<=", "~=", ">", "<"} {
			if i := strings.Index(line, sep); i >= 0 {
				name = strings.TrimSpace(line[:i])
				ver = strings.TrimSpace(line[i+len(sep):])
				break
			}
		}
		if name != "" {
			out = append(out, Specifier{Name: name, Version: ver})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return out, nil
}

func parseGoMod(path string) ([]Specifier, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	defer f.Close()

	var out []Specifier
	inBlock := false
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "require (":
			inBlock = true
		case inBlock && line == ")":
			inBlock = false
		case inBlock || strings.HasPrefix(line, "require "):
			line = strings.TrimPrefix(line, "require ")
			if i := strings.Index(line, "//"); i >= 0 {
				line = strings.TrimSpace(line[:i])
			}
			fields := strings.Fields(line)
			if len(fields) == 2 {
				out = append(out, Specifier{Name: fields[0], Version: fields[1]})
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return out, nil
}
