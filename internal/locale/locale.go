// Package locale loads per-language translation bundles and applies them to
// catalog records before rendering.
package locale

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrUnsupportedLocale indicates a request for a language without a bundle.
var ErrUnsupportedLocale = errors.New("unsupported locale")

// Translation categories exposed by a bundle.
const (
	CategoryMuscles      = "muscles"
	CategoryExerciseName = "exercise_name"
	CategoryForceType    = "force_type"
	CategoryExerciseType = "exercise_type"
	CategoryWorkoutType  = "workout_type"
	CategoryFieldNames   = "obj_field_names"
)

// Bundle is the immutable translation set for one language. Lookups fall back
// to the original key when no translation exists.
type Bundle struct {
	Code         string
	messages     map[string]string
	muscles      map[string]string
	exerciseName map[string]string
	forceType    map[string]string
	exerciseType map[string]string
	workoutType  map[string]string
	fieldNames   map[string]string
}

// bundleFile mirrors the on-disk YAML layout of a language file.
type bundleFile struct {
	Messages     map[string]any    `yaml:"messages"`
	Muscles      map[string]string `yaml:"muscles"`
	ExerciseName map[string]string `yaml:"exercise_name"`
	ForceType    map[string]string `yaml:"force_type"`
	ExerciseType map[string]string `yaml:"exercise_type"`
	WorkoutType  map[string]string `yaml:"workout_type"`
	FieldNames   map[string]string `yaml:"obj_field_names"`
}

// Message returns the prompt string for a dot-separated key such as
// "primary.1", or the key itself when untranslated.
func (b *Bundle) Message(key string) string {
	if b == nil {
		return key
	}

	if value, ok := b.messages[key]; ok {
		return value
	}

	return key
}

// Lookup translates key within category, returning key unchanged when there is
// no entry. Unknown categories also fall back to the key.
func (b *Bundle) Lookup(category, key string) string {
	value, _ := b.lookup(category, key)
	return value
}

// Has reports whether category holds a translation entry for key.
func (b *Bundle) Has(category, key string) bool {
	_, ok := b.lookup(category, key)
	return ok
}

func (b *Bundle) lookup(category, key string) (string, bool) {
	if b == nil {
		return key, false
	}

	var entries map[string]string
	switch category {
	case CategoryMuscles:
		entries = b.muscles
	case CategoryExerciseName:
		entries = b.exerciseName
	case CategoryForceType:
		entries = b.forceType
	case CategoryExerciseType:
		entries = b.exerciseType
	case CategoryWorkoutType:
		entries = b.workoutType
	case CategoryFieldNames:
		entries = b.fieldNames
	}

	if value, ok := entries[key]; ok {
		return value, true
	}

	return key, false
}

// ExerciseNames returns the full origin-name -> translated-name map. The
// substring flow searches over these translated values.
func (b *Bundle) ExerciseNames() map[string]string {
	if b == nil {
		return nil
	}

	return b.exerciseName
}

// Manager stores all loaded bundles and hands out per-language views.
type Manager struct {
	mu          sync.RWMutex
	dir         string
	defaultLang string
	bundles     map[string]*Bundle
}

// Load reads every *.yaml file in dir; the file base name is the language
// code. The default language must be present.
func Load(dir, defaultLang string) (*Manager, error) {
	if defaultLang == "" {
		defaultLang = "ru"
	}

	m := &Manager{dir: dir, defaultLang: defaultLang}
	if err := m.Reload(); err != nil {
		return nil, err
	}

	return m, nil
}

// Reload re-parses the locale directory and atomically swaps the bundle set.
func (m *Manager) Reload() error {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return fmt.Errorf("locale: read dir %s: %w", m.dir, err)
	}

	bundles := make(map[string]*Bundle)
	for _, entry := range entries {
		if entry.IsDir() || !isYAML(entry) {
			continue
		}

		code := strings.ToLower(strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())))
		bundle, err := parseBundle(filepath.Join(m.dir, entry.Name()), code)
		if err != nil {
			return err
		}
		bundles[code] = bundle
	}

	if len(bundles) == 0 {
		return fmt.Errorf("locale: no yaml bundles found in %s", m.dir)
	}

	if _, ok := bundles[m.defaultLang]; !ok {
		return fmt.Errorf("locale: default language %q is missing", m.defaultLang)
	}

	m.mu.Lock()
	m.bundles = bundles
	m.mu.Unlock()

	return nil
}

// Bundle returns the bundle for the requested language code or
// ErrUnsupportedLocale when no such bundle is loaded.
func (m *Manager) Bundle(code string) (*Bundle, error) {
	norm := strings.ToLower(strings.TrimSpace(code))

	m.mu.RLock()
	bundle, ok := m.bundles[norm]
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLocale, code)
	}

	return bundle, nil
}

// Default returns the bundle for the configured default language.
func (m *Manager) Default() *Bundle {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bundles[m.defaultLang]
}

// DefaultLanguage returns the configured default language code.
func (m *Manager) DefaultLanguage() string {
	return m.defaultLang
}

// Languages returns all loaded language codes in sorted order.
func (m *Manager) Languages() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	languages := make([]string, 0, len(m.bundles))
	for code := range m.bundles {
		languages = append(languages, code)
	}
	sort.Strings(languages)
	return languages
}

func isYAML(entry fs.DirEntry) bool {
	name := strings.ToLower(entry.Name())
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}

func parseBundle(path, code string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("locale: read file %s: %w", path, err)
	}

	var file bundleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("locale: parse file %s: %w", path, err)
	}

	messages := make(map[string]string)
	flatten("", file.Messages, messages)

	return &Bundle{
		Code:         code,
		messages:     messages,
		muscles:      orEmpty(file.Muscles),
		exerciseName: orEmpty(file.ExerciseName),
		forceType:    orEmpty(file.ForceType),
		exerciseType: orEmpty(file.ExerciseType),
		workoutType:  orEmpty(file.WorkoutType),
		fieldNames:   orEmpty(file.FieldNames),
	}, nil
}

func orEmpty(in map[string]string) map[string]string {
	if in == nil {
		return map[string]string{}
	}
	return in
}

func flatten(prefix string, in map[string]any, out map[string]string) {
	for key, value := range in {
		if key == "" {
			continue
		}

		nextKey := key
		if prefix != "" {
			nextKey = prefix + "." + key
		}

		switch v := value.(type) {
		case string:
			out[nextKey] = v
		case map[string]any:
			flatten(nextKey, v, out)
		}
	}
}
