package config

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// lookupSetting returns the first of keys present in settings. viper lowers
// every key, so each candidate is also tried in lower case.
func lookupSetting(settings map[string]interface{}, keys ...string) (interface{}, bool) {
	for _, key := range keys {
		if val, ok := settings[key]; ok {
			return val, true
		}
		if val, ok := settings[strings.ToLower(key)]; ok {
			return val, true
		}
	}
	return nil, false
}

func asString(value interface{}) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return fmt.Sprint(v), nil
	}
}

// asInt accepts the numeric types YAML, TOML and JSON decoders produce, plus
// decimal strings from environment-style config.
func asInt(value interface{}) (int, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case uint64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, nil
		}
		return strconv.Atoi(s)
	default:
		n, err := strconv.Atoi(fmt.Sprint(v))
		if err != nil {
			return 0, fmt.Errorf("want a whole number, got %T", value)
		}
		return n, nil
	}
}

func asFloat64(value interface{}) (float64, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, nil
		}
		return strconv.ParseFloat(s, 64)
	default:
		return 0, fmt.Errorf("want a number, got %T", value)
	}
}

func asBool(value interface{}) (bool, error) {
	switch v := value.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return false, nil
		}
		return strconv.ParseBool(s)
	default:
		return false, fmt.Errorf("want true or false, got %T", value)
	}
}

// asFrameDuration reads the monitor frame. Bare numbers are seconds and may
// be fractional (0.05 is 50ms); strings use time.ParseDuration syntax.
func asFrameDuration(value interface{}) (time.Duration, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case time.Duration:
		return v, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, nil
		}
		return time.ParseDuration(s)
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	case float32:
		return time.Duration(float64(v) * float64(time.Second)), nil
	default:
		n, err := asInt(value)
		if err != nil {
			return 0, fmt.Errorf("want seconds or a duration string, got %T", value)
		}
		return time.Duration(n) * time.Second, nil
	}
}

// asStringSlice reads list settings such as lists, thresholds and
// alternate_patterns. A lone string is a one-element list.
func asStringSlice(value interface{}) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	case []string:
		return v, nil
	case []interface{}:
		out := make([]string, len(v))
		for i, item := range v {
			s, err := asString(item)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("want a list of strings, got %T", value)
	}
}

// toStringKeyMap normalizes a nested config section (pipeline, tracing) to
// lower-case string keys.
func toStringKeyMap(value interface{}) (map[string]interface{}, error) {
	out := map[string]interface{}{}
	switch v := value.(type) {
	case map[string]interface{}:
		for key, val := range v {
			out[strings.ToLower(strings.TrimSpace(key))] = val
		}
	case map[interface{}]interface{}:
		for key, val := range v {
			s, err := asString(key)
			if err != nil {
				return nil, err
			}
			out[strings.ToLower(strings.TrimSpace(s))] = val
		}
	default:
		return nil, fmt.Errorf("want a table of settings, got %T", value)
	}
	return out, nil
}

// asCommand reads a stage command, either as one shell-style string or as an
// argv list.
func asCommand(value interface{}) ([]string, error) {
	if s, ok := value.(string); ok {
		return splitCommand(s), nil
	}
	argv, err := asStringSlice(value)
	if err != nil || len(argv) == 0 {
		return nil, err
	}
	return argv, nil
}

// asEnv reads pipeline.env as either a KEY=VALUE list or a table. Table keys
// are upper-cased and sorted so stage environments are reproducible.
func asEnv(value interface{}) ([]string, error) {
	var table map[string]interface{}
	switch v := value.(type) {
	case map[string]interface{}:
		table = v
	case map[interface{}]interface{}:
		table = make(map[string]interface{}, len(v))
		for key, val := range v {
			s, err := asString(key)
			if err != nil {
				return nil, err
			}
			table[s] = val
		}
	case map[string]string:
		table = make(map[string]interface{}, len(v))
		for key, val := range v {
			table[key] = val
		}
	default:
		return asStringSlice(value)
	}

	env := make([]string, 0, len(table))
	for key, val := range table {
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("env variable name cannot be empty")
		}
		s, err := asString(val)
		if err != nil {
			return nil, err
		}
		env = append(env, strings.ToUpper(key)+"="+s)
	}
	slices.Sort(env)
	return env, nil
}
