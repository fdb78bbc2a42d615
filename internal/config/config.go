package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// CoreSection is the section holding the host's own settings.
const CoreSection = "repobee"

// TokenEnv is consulted when no token is configured.
const TokenEnv = "REPOBEE_TOKEN"

// Config holds the parsed configuration. Core keys are promoted to
// typed fields; all sections (core included) remain available as raw
// string maps for argument binding.
type Config struct {
	BaseURL      string
	Token        string
	Org          string
	TemplateOrg  string
	User         string
	StudentsFile string

	// StateFile is where the persisted plugin activation list lives.
	// Defaults to ~/.repobee/plugins.json; overridable for tests.
	StateFile string

	path     string
	sections map[string]map[string]string
}

// Path returns the file the configuration was loaded from, or "" if
// no file existed.
func (c *Config) Path() string { return c.path }

// Section returns a lookup function over one configuration section.
// Missing sections yield a lookup that always misses.
func (c *Config) Section(name string) func(key string) (string, bool) {
	sec := c.sections[name]
	return func(key string) (string, bool) {
		v, ok := sec[key]
		return v, ok
	}
}

// SectionNames returns the names of all sections present in the file.
func (c *Config) SectionNames() []string {
	names := make([]string, 0, len(c.sections))
	for name := range c.sections {
		names = append(names, name)
	}
	return names
}

// DefaultPath returns ~/.config/repobee/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "repobee", "config.toml"), nil
}

// defaultStatePath returns ~/.repobee/plugins.json.
func defaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".repobee", "plugins.json")
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		StateFile: defaultStatePath(),
		sections:  make(map[string]map[string]string),
	}
}

// Load reads the configuration from path, or from DefaultPath() when
// path is empty. A missing file yields the default configuration with
// no error; a present but invalid file is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return cfg, fmt.Errorf("parse config file %s: %w", path, err)
	}

	cfg.path = path
	cfg.sections = parseSections(raw)

	core := cfg.sections[CoreSection]
	cfg.BaseURL = core["base_url"]
	cfg.Token = core["token"]
	cfg.Org = core["org"]
	cfg.TemplateOrg = core["template_org"]
	cfg.User = core["user"]
	cfg.StudentsFile = core["students_file"]
	if sf := core["state_file"]; sf != "" {
		cfg.StateFile = sf
	}

	if cfg.Token == "" {
		cfg.Token = os.Getenv(TokenEnv)
	}

	for _, field := range []struct{ name, value string }{
		{"base_url", cfg.BaseURL},
		{"students_file", cfg.StudentsFile},
	} {
		if err := ValidatePath(field.value, field.name); err != nil {
			return Default(), err
		}
	}

	if cfg.BaseURL != "" {
		expanded, err := ExpandPath(cfg.BaseURL)
		if err != nil {
			return Default(), fmt.Errorf("expand base_url: %w", err)
		}
		cfg.BaseURL = expanded
	}
	if cfg.StudentsFile != "" {
		expanded, err := ExpandPath(cfg.StudentsFile)
		if err != nil {
			return Default(), fmt.Errorf("expand students_file: %w", err)
		}
		cfg.StudentsFile = expanded
	}

	return cfg, nil
}

// parseSections flattens the raw TOML document into string-valued
// sections. Top-level scalar keys are folded into the core section so
// a sectionless file still works. Non-string scalars are stringified;
// nested tables below one level are ignored.
func parseSections(raw map[string]any) map[string]map[string]string {
	sections := make(map[string]map[string]string)
	ensure := func(name string) map[string]string {
		if sections[name] == nil {
			sections[name] = make(map[string]string)
		}
		return sections[name]
	}

	for key, value := range raw {
		switch v := value.(type) {
		case map[string]any:
			sec := ensure(key)
			for k, sv := range v {
				if s, ok := stringify(sv); ok {
					sec[k] = s
				}
			}
		default:
			if s, ok := stringify(v); ok {
				ensure(CoreSection)[key] = s
			}
		}
	}
	return sections
}

func stringify(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case bool:
		return fmt.Sprintf("%t", s), true
	case int64:
		return fmt.Sprintf("%d", s), true
	case float64:
		return fmt.Sprintf("%g", s), true
	default:
		return "", false
	}
}

// ValidatePath checks that the path is absolute or starts with ~.
// Consumers of plugin-section path keys apply it too, since the loader
// only validates the core keys it knows about.
func ValidatePath(path, fieldName string) error {
	if path == "" {
		return nil
	}
	if path[0] == '~' {
		return nil
	}
	if !filepath.IsAbs(path) {
		return fmt.Errorf("%s must be absolute or start with ~, got: %q", fieldName, path)
	}
	return nil
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if len(path) >= 2 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand ~: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}
	if path == "~" {
		return os.UserHomeDir()
	}
	return path, nil
}

const defaultConfig = `# repobee configuration

[repobee]
# Base URL of the platform to administer. For the built-in local
# platform this is a directory; platform plugins interpret it as the
# service URL.
# base_url = "~/repobee-platform"

# Organization (course) to operate on.
# org = "course-2026"

# Organization holding template repositories for "repos setup".
# template_org = "course-templates"

# Platform user acting on your behalf.
# user = "teacher"

# Access token. Prefer the REPOBEE_TOKEN environment variable over
# storing the token here.
# token = ""

# Default roster file, one team per line, members space-separated.
# students_file = "~/course/students.txt"

# Plugin sections: each activated plugin reads its own section, named
# after the plugin. Configurable command arguments look up the key
# matching their declared name.
#
# [gitlab]
# base_url = "~/repobee-gitlab"
#
# [tamanager]
# tamanager-ta = "head-ta"
`

// Init writes a commented default config file at path (DefaultPath()
// when empty). If force is true, an existing file is overwritten.
// Returns the path written.
func Init(path string, force bool) (string, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return "", err
		}
		path = p
	}

	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", errors.New("config file already exists: " + path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(defaultConfig), 0644); err != nil {
		return "", err
	}
	return path, nil
}
