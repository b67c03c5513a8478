package config

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	ralpherrors "github.com/cperrin88/ralph/pkg/errors"
)

// SetValue sets a configuration value by key.
// Supported keys:
//   - http_timeout: duration (e.g. "30s")
//   - max_concurrent: int
//   - output_format: string (text, json)
//   - log_level: string (panic, fatal, error, warn, info, debug, trace)
func (c *Config) SetValue(key, value string) error {
	switch key {
	case "http_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return ralpherrors.Wrap(err, ralpherrors.KindBadArgument, "parsing http_timeout")
		}
		c.Settings.HTTPTimeout = d
	case "max_concurrent":
		n, err := strconv.Atoi(value)
		if err != nil {
			return ralpherrors.Wrap(err, ralpherrors.KindBadArgument, "parsing max_concurrent")
		}
		c.Settings.MaxConcurrent = n
	case "output_format":
		c.Settings.OutputFormat = value
	case "log_level":
		c.Settings.LogLevel = value
	default:
		return ralpherrors.New(ralpherrors.KindBadArgument, "unknown configuration key: %s", key)
	}
	return nil
}

// GetValue returns the configuration value for key as a string.
func (c *Config) GetValue(key string) (string, error) {
	switch key {
	case "http_timeout":
		return c.Settings.HTTPTimeout.String(), nil
	case "max_concurrent":
		return strconv.Itoa(c.Settings.MaxConcurrent), nil
	case "output_format":
		return c.Settings.OutputFormat, nil
	case "log_level":
		return c.Settings.LogLevel, nil
	default:
		return "", ralpherrors.New(ralpherrors.KindBadArgument, "unknown configuration key: %s", key)
	}
}

// ToMap flattens Settings into a string-keyed map, useful for displaying
// the configuration.
func (c *Config) ToMap() map[string]string {
	result := make(map[string]string)

	settingsValue := reflect.ValueOf(c.Settings)
	settingsType := settingsValue.Type()

	for i := 0; i < settingsValue.NumField(); i++ {
		field := settingsType.Field(i)
		yamlTag := field.Tag.Get("yaml")
		if yamlTag == "" || yamlTag == "-" {
			continue
		}
		yamlKey := strings.Split(yamlTag, ",")[0]

		fieldValue := settingsValue.Field(i)
		var strValue string

		switch fieldValue.Kind() {
		case reflect.Bool:
			strValue = strconv.FormatBool(fieldValue.Bool())
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			strValue = strconv.FormatInt(fieldValue.Int(), 10)
		case reflect.Struct:
			strValue = fmt.Sprintf("%+v", fieldValue.Interface())
		default:
			strValue = fmt.Sprintf("%v", fieldValue.Interface())
		}

		result[yamlKey] = strValue
	}

	return result
}
