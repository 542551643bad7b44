package config

import (
	"os"
	"reflect"
	"testing"
)

// TestConfig represents a test configuration structure.
type TestConfig struct {
	Config string `help:"Config file path"`

	// Basic types
	StringField string   `toml:"test.string_field" env:"STRING_FIELD"`
	BoolField   bool     `toml:"test.bool_field" env:"BOOL_FIELD"`
	IntField    int      `toml:"test.int_field" env:"INT_FIELD"`
	SliceField  []string `toml:"test.slice_field" env:"SLICE_FIELD"`

	// Nested config
	NestedString string `toml:"nested.value" env:"NESTED_VALUE"`
}

func writeTempTOML(t *testing.T, content string) string {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "test_config_*.toml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	t.Cleanup(func() { os.Remove(tmpFile.Name()) })

	if _, writeErr := tmpFile.WriteString(content); writeErr != nil {
		t.Fatalf("Failed to write to temp file: %v", writeErr)
	}
	tmpFile.Close()
	return tmpFile.Name()
}

func TestLoadConfigFromTOML(t *testing.T) {
	path := writeTempTOML(t, `
[test]
string_field = "hello world"
bool_field = true
int_field = 42
slice_field = ["item1", "item2", "item3"]

[nested]
value = "nested value"
`)

	config := &TestConfig{
		Config: path,
	}

	if err := LoadConfig(config, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	// Verify values
	if config.StringField != "hello world" {
		t.Errorf("Expected StringField to be 'hello world', got '%s'", config.StringField)
	}

	if !config.BoolField {
		t.Errorf("Expected BoolField to be true, got %v", config.BoolField)
	}

	if config.IntField != 42 {
		t.Errorf("Expected IntField to be 42, got %d", config.IntField)
	}

	expectedSlice := []string{"item1", "item2", "item3"}
	if !reflect.DeepEqual(config.SliceField, expectedSlice) {
		t.Errorf("Expected SliceField to be %v, got %v", expectedSlice, config.SliceField)
	}

	if config.NestedString != "nested value" {
		t.Errorf("Expected NestedString to be 'nested value', got '%s'", config.NestedString)
	}
}

func TestLoadConfigFromEnvVars(t *testing.T) {
	// Set environment variables
	os.Setenv("CAMSTREAMER_STRING_FIELD", "env string")
	os.Setenv("CAMSTREAMER_BOOL_FIELD", "false")
	os.Setenv("CAMSTREAMER_INT_FIELD", "123")
	os.Setenv("CAMSTREAMER_SLICE_FIELD", "a,b,c")
	os.Setenv("CAMSTREAMER_NESTED_VALUE", "env nested")

	defer func() {
		os.Unsetenv("CAMSTREAMER_STRING_FIELD")
		os.Unsetenv("CAMSTREAMER_BOOL_FIELD")
		os.Unsetenv("CAMSTREAMER_INT_FIELD")
		os.Unsetenv("CAMSTREAMER_SLICE_FIELD")
		os.Unsetenv("CAMSTREAMER_NESTED_VALUE")
	}()

	config := &TestConfig{}

	if err := LoadConfig(config, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	// Verify values
	if config.StringField != "env string" {
		t.Errorf("Expected StringField to be 'env string', got '%s'", config.StringField)
	}

	if config.BoolField {
		t.Errorf("Expected BoolField to be false, got %v", config.BoolField)
	}

	if config.IntField != 123 {
		t.Errorf("Expected IntField to be 123, got %d", config.IntField)
	}

	expectedSlice := []string{"a", "b", "c"}
	if !reflect.DeepEqual(config.SliceField, expectedSlice) {
		t.Errorf("Expected SliceField to be %v, got %v", expectedSlice, config.SliceField)
	}

	if config.NestedString != "env nested" {
		t.Errorf("Expected NestedString to be 'env nested', got '%s'", config.NestedString)
	}
}

func TestLoadConfigEnvOverridesToml(t *testing.T) {
	path := writeTempTOML(t, `
[test]
string_field = "toml value"
bool_field = true
int_field = 100
slice_field = ["toml1", "toml2"]
`)

	// Set environment variables that should override TOML
	os.Setenv("CAMSTREAMER_STRING_FIELD", "env override")
	os.Setenv("CAMSTREAMER_BOOL_FIELD", "false")

	defer func() {
		os.Unsetenv("CAMSTREAMER_STRING_FIELD")
		os.Unsetenv("CAMSTREAMER_BOOL_FIELD")
	}()

	config := &TestConfig{
		Config: path,
	}

	if err := LoadConfig(config, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	// Verify env vars override TOML values
	if config.StringField != "env override" {
		t.Errorf("Expected StringField to be 'env override', got '%s'", config.StringField)
	}

	if config.BoolField {
		t.Errorf("Expected BoolField to be false (env override), got %v", config.BoolField)
	}

	// Verify TOML values are used when no env override
	if config.IntField != 100 {
		t.Errorf("Expected IntField to be 100 (from TOML), got %d", config.IntField)
	}

	expectedSlice := []string{"toml1", "toml2"}
	if !reflect.DeepEqual(config.SliceField, expectedSlice) {
		t.Errorf("Expected SliceField to be %v (from TOML), got %v", expectedSlice, config.SliceField)
	}
}

func TestGetNestedValue(t *testing.T) {
	data := map[string]any{
		"level1": map[string]any{
			"level2": map[string]any{
				"value": "nested_value",
			},
			"simple": "simple_value",
		},
		"root": "root_value",
	}

	tests := []struct {
		path     string
		expected any
	}{
		{"root", "root_value"},
		{"level1.simple", "simple_value"},
		{"level1.level2.value", "nested_value"},
		{"nonexistent", nil},
		{"level1.nonexistent", nil},
	}

	for _, test := range tests {
		result := getNestedValue(data, test.path)
		if result != test.expected {
			t.Errorf("getNestedValue(%q) = %v, expected %v", test.path, result, test.expected)
		}
	}
}

func TestFieldNameToFlag(t *testing.T) {
	tests := []struct {
		field string
		want  string
	}{
		{"Port", "port"},
		{"StreamPort", "stream-port"},
		{"Device", "device"},
		{"LoggingLevel", "logging-level"},
	}

	for _, tt := range tests {
		if got := fieldNameToFlag(tt.field); got != tt.want {
			t.Errorf("fieldNameToFlag(%q) = %q, want %q", tt.field, got, tt.want)
		}
	}
}

func TestSetFieldValue(t *testing.T) {
	type TestStruct struct {
		StringField string
		BoolField   bool
		IntField    int
		SliceField  []string
	}

	s := &TestStruct{}
	v := reflect.ValueOf(s).Elem()

	// Test string field
	setFieldValue(v.FieldByName("StringField"), "test string")
	if s.StringField != "test string" {
		t.Errorf("Expected StringField to be 'test string', got '%s'", s.StringField)
	}

	// Test bool field
	setFieldValue(v.FieldByName("BoolField"), true)
	if !s.BoolField {
		t.Errorf("Expected BoolField to be true, got %v", s.BoolField)
	}

	// Test int field
	setFieldValue(v.FieldByName("IntField"), int64(42))
	if s.IntField != 42 {
		t.Errorf("Expected IntField to be 42, got %d", s.IntField)
	}

	// Test slice field
	sliceValue := []any{"a", "b", "c"}
	setFieldValue(v.FieldByName("SliceField"), sliceValue)
	expectedSlice := []string{"a", "b", "c"}
	if !reflect.DeepEqual(s.SliceField, expectedSlice) {
		t.Errorf("Expected SliceField to be %v, got %v", expectedSlice, s.SliceField)
	}
}

func TestSetFieldValueFromString(t *testing.T) {
	type TestStruct struct {
		StringField string
		BoolField   bool
		IntField    int
		SliceField  []string
	}

	s := &TestStruct{}
	v := reflect.ValueOf(s).Elem()

	// Test string field
	setFieldValueFromString(v.FieldByName("StringField"), "test string")
	if s.StringField != "test string" {
		t.Errorf("Expected StringField to be 'test string', got '%s'", s.StringField)
	}

	// Test bool field
	setFieldValueFromString(v.FieldByName("BoolField"), "true")
	if !s.BoolField {
		t.Errorf("Expected BoolField to be true, got %v", s.BoolField)
	}

	// Test int field
	setFieldValueFromString(v.FieldByName("IntField"), "123")
	if s.IntField != 123 {
		t.Errorf("Expected IntField to be 123, got %d", s.IntField)
	}

	// Test slice field (comma-separated)
	setFieldValueFromString(v.FieldByName("SliceField"), "x,y,z")
	expectedSlice := []string{"x", "y", "z"}
	if !reflect.DeepEqual(s.SliceField, expectedSlice) {
		t.Errorf("Expected SliceField to be %v, got %v", expectedSlice, s.SliceField)
	}

	// Test slice field with spaces
	setFieldValueFromString(v.FieldByName("SliceField"), " a , b , c ")
	expectedSliceWithSpaces := []string{"a", "b", "c"}
	if !reflect.DeepEqual(s.SliceField, expectedSliceWithSpaces) {
		t.Errorf("Expected SliceField to be %v, got %v", expectedSliceWithSpaces, s.SliceField)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	config := &TestConfig{
		Config: "nonexistent_file.toml",
	}

	// Should not fail when file doesn't exist
	if err := LoadConfig(config, nil); err != nil {
		t.Fatalf("LoadConfig should not fail for missing file: %v", err)
	}
}

// LoggingOptions matches the logging fields in main.go Options struct.
type LoggingOptions struct {
	Config          string `help:"Config file path"`
	LoggingLevel    string `toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat   string `toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingCamera   string `toml:"logging.camera" env:"LOGGING_CAMERA"`
	LoggingPipeline string `toml:"logging.pipeline" env:"LOGGING_PIPELINE"`
	LoggingMJPEG    string `toml:"logging.mjpeg" env:"LOGGING_MJPEG"`
	LoggingAPI      string `toml:"logging.api" env:"LOGGING_API"`
}

func TestLoadLoggingModuleLevels(t *testing.T) {
	path := writeTempTOML(t, `
[logging]
level = "info"
format = "text"
camera = "debug"
pipeline = "debug"
mjpeg = "warn"
api = "error"
`)

	config := &LoggingOptions{
		Config:          path,
		LoggingLevel:    "info", // defaults
		LoggingFormat:   "text",
		LoggingCamera:   "info",
		LoggingPipeline: "info",
		LoggingMJPEG:    "info",
		LoggingAPI:      "info",
	}

	if err := LoadConfig(config, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	tests := []struct {
		field string
		got   string
		want  string
	}{
		{"LoggingLevel", config.LoggingLevel, "info"},
		{"LoggingFormat", config.LoggingFormat, "text"},
		{"LoggingCamera", config.LoggingCamera, "debug"},
		{"LoggingPipeline", config.LoggingPipeline, "debug"},
		{"LoggingMJPEG", config.LoggingMJPEG, "warn"},
		{"LoggingAPI", config.LoggingAPI, "error"},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.field, tt.got, tt.want)
		}
	}
}

func TestLoadConfigInvalidTOML(t *testing.T) {
	path := writeTempTOML(t, `
[test
invalid toml syntax
`)

	config := &TestConfig{
		Config: path,
	}

	// Should fail with invalid TOML
	if err := LoadConfig(config, nil); err == nil {
		t.Fatalf("LoadConfig should fail for invalid TOML")
	}
}

func TestLoadLoggingConfig(t *testing.T) {
	path := writeTempTOML(t, `
[logging]
level = "debug"
format = "json"
camera = "warn"
mjpeg = "error"
`)

	cfg := LoadLoggingConfig(path)

	if cfg.Level != "debug" {
		t.Errorf("Level = %q, want %q", cfg.Level, "debug")
	}
	if cfg.Format != "json" {
		t.Errorf("Format = %q, want %q", cfg.Format, "json")
	}
	if cfg.Modules["camera"] != "warn" {
		t.Errorf("Modules[camera] = %q, want %q", cfg.Modules["camera"], "warn")
	}
	if cfg.Modules["mjpeg"] != "error" {
		t.Errorf("Modules[mjpeg] = %q, want %q", cfg.Modules["mjpeg"], "error")
	}
}

func TestLoadLoggingConfigDefaults(t *testing.T) {
	cfg := LoadLoggingConfig("nonexistent_file.toml")

	if cfg.Level != "info" {
		t.Errorf("Level = %q, want default %q", cfg.Level, "info")
	}
	if cfg.Format != "text" {
		t.Errorf("Format = %q, want default %q", cfg.Format, "text")
	}
	if len(cfg.Modules) != 0 {
		t.Errorf("Modules = %v, want empty", cfg.Modules)
	}
}

func TestLoadRuntime(t *testing.T) {
	path := writeTempTOML(t, `
[stream]
jpeg_quality = 65

[logging]
level = "debug"
camera = "warn"
`)

	rt, err := LoadRuntime(path)
	if err != nil {
		t.Fatalf("LoadRuntime failed: %v", err)
	}

	if rt.JPEGQuality != 65 {
		t.Errorf("JPEGQuality = %d, want 65", rt.JPEGQuality)
	}
	if rt.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", rt.Logging.Level, "debug")
	}
	if rt.Logging.Modules["camera"] != "warn" {
		t.Errorf("Logging.Modules[camera] = %q, want %q", rt.Logging.Modules["camera"], "warn")
	}
}

func TestLoadRuntimeUnsetQuality(t *testing.T) {
	path := writeTempTOML(t, `
[logging]
level = "info"
`)

	rt, err := LoadRuntime(path)
	if err != nil {
		t.Fatalf("LoadRuntime failed: %v", err)
	}

	// Zero means "not set", callers keep the current quality
	if rt.JPEGQuality != 0 {
		t.Errorf("JPEGQuality = %d, want 0", rt.JPEGQuality)
	}
}

func TestLoadRuntimeMissingFile(t *testing.T) {
	if _, err := LoadRuntime("nonexistent_file.toml"); err == nil {
		t.Fatal("LoadRuntime should fail for missing file")
	}
}

func TestLoadRuntimeInvalidTOML(t *testing.T) {
	path := writeTempTOML(t, `
[stream
jpeg_quality =
`)

	if _, err := LoadRuntime(path); err == nil {
		t.Fatal("LoadRuntime should fail for invalid TOML")
	}
}
