package config

import (
	"reflect"
	"strings"

	"github.com/spf13/pflag"
)

// fieldInfo stores information about a config field for flag registration
type fieldInfo struct {
	configPath string // e.g., "store.sql.dsn"
	flagName   string // e.g., "store-sql-dsn"
	usage      string // e.g., "SQL data source name"
	fieldType  reflect.Type
	defaultVal reflect.Value // value from Default(), invalid if none
}

// buildFlagMapping walks the Config struct recursively and builds a map
// from flag names to config paths using the koanf struct tags.
// Returns a map like: {"store-redis-addr": "store.redis.addr"}
func buildFlagMapping() (map[string]string, []fieldInfo) {
	var fields []fieldInfo
	mapping := make(map[string]string)

	defaults := Default()
	walkStruct(reflect.TypeOf(defaults), reflect.ValueOf(defaults), "", &fields)

	for _, field := range fields {
		mapping[field.flagName] = field.configPath
	}

	return mapping, fields
}

// walkStruct recursively walks a struct and collects scalar fields.
// v carries default values and may be invalid.
func walkStruct(t reflect.Type, v reflect.Value, parentPath string, fields *[]fieldInfo) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
		if v.IsValid() && !v.IsNil() {
			v = v.Elem()
		} else {
			v = reflect.Value{}
		}
	}

	if t.Kind() != reflect.Struct {
		return
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		var fieldValue reflect.Value
		if v.IsValid() {
			fieldValue = v.Field(i)
		}

		koanfTag := field.Tag.Get("koanf")
		if koanfTag == "" || koanfTag == "-" {
			continue
		}

		if strings.Contains(koanfTag, "squash") {
			walkStruct(field.Type, fieldValue, parentPath, fields)
			continue
		}

		configPath := koanfTag
		if parentPath != "" {
			configPath = parentPath + "." + koanfTag
		}

		fieldType := field.Type
		if fieldType.Kind() == reflect.Pointer && isScalarType(fieldType.Elem()) {
			// Pointer to scalar - treat as optional scalar
			fieldType = fieldType.Elem()
			if fieldValue.IsValid() && !fieldValue.IsNil() {
				fieldValue = fieldValue.Elem()
			} else {
				fieldValue = reflect.Value{}
			}
		}

		switch {
		case fieldType.Kind() == reflect.Struct, fieldType.Kind() == reflect.Pointer:
			walkStruct(fieldType, fieldValue, configPath, fields)

		case isScalarType(fieldType):
			*fields = append(*fields, fieldInfo{
				configPath: configPath,
				flagName:   configPathToFlagName(configPath),
				usage:      field.Tag.Get("usage"),
				fieldType:  fieldType,
				defaultVal: fieldValue,
			})
		}
		// Slices and maps are too complex for command-line flags
	}
}

// isScalarType returns true if the type is a simple scalar (int, string, bool)
func isScalarType(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.String, reflect.Bool,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// configPathToFlagName converts a config path to a flag name
// Examples:
//   - "server.grpc_port" -> "server-grpc-port"
//   - "store.sql.dsn" -> "store-sql-dsn"
func configPathToFlagName(configPath string) string {
	flagName := strings.ReplaceAll(configPath, ".", "-")
	return strings.ReplaceAll(flagName, "_", "-")
}

// RegisterFlags registers command-line flags for all scalar config fields.
// Flag defaults show the built-in defaults; only flags that are set override
// other configuration sources.
func RegisterFlags(flagSet *pflag.FlagSet) {
	_, fields := buildFlagMapping()

	for _, field := range fields {
		registerFlag(flagSet, field)
	}
}

// registerFlag registers a single flag based on its field info
func registerFlag(flagSet *pflag.FlagSet, field fieldInfo) {
	// Check if flag already exists (avoid duplicate registration)
	if flagSet.Lookup(field.flagName) != nil {
		return
	}

	def := field.defaultVal
	hasDefault := def.IsValid()

	switch field.fieldType.Kind() {
	case reflect.String:
		var d string
		if hasDefault {
			d = def.String()
		}
		flagSet.String(field.flagName, d, field.usage)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		var d int
		if hasDefault {
			d = int(def.Int())
		}
		flagSet.Int(field.flagName, d, field.usage)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		var d uint
		if hasDefault {
			d = uint(def.Uint())
		}
		flagSet.Uint(field.flagName, d, field.usage)

	case reflect.Bool:
		var d bool
		if hasDefault {
			d = def.Bool()
		}
		flagSet.Bool(field.flagName, d, field.usage)

	case reflect.Float32, reflect.Float64:
		var d float64
		if hasDefault {
			d = def.Float()
		}
		flagSet.Float64(field.flagName, d, field.usage)
	}
}

// GetFlagMapping returns the mapping from flag names to config paths
// This is useful for the loader to know how to map flags to config keys
func GetFlagMapping() map[string]string {
	mapping, _ := buildFlagMapping()
	return mapping
}
