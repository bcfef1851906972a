package harnessconfig

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	yaml "gopkg.in/yaml.v3"
)

// Parse decodes a configuration document into target, which must use JSON field tags. The format is
// chosen by the file extension of path: ".toml" is TOML, and anything else is JSON or YAML.
func Parse(path string, data []byte, target interface{}) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return ParseTOML(data, target)
	}
	return ParseJSONOrYAML(data, target)
}

// ParseJSONOrYAML is used in the same way as json.Unmarshal, but if the data is YAML and not
// JSON, it will convert the YAML to JSON and then parse it as JSON.
func ParseJSONOrYAML(data []byte, target interface{}) error {
	if err := json.Unmarshal(data, target); err == nil {
		return nil
	}
	var rawStructure interface{}
	if err := yaml.Unmarshal(data, &rawStructure); err != nil {
		return err
	}
	return reparseAsJSON(rawStructure, target)
}

// ParseTOML converts TOML to JSON and then parses it as JSON, so that the same field tags and
// custom unmarshalers apply as for the other formats.
func ParseTOML(data []byte, target interface{}) error {
	var rawStructure map[string]interface{}
	if err := toml.Unmarshal(data, &rawStructure); err != nil {
		return err
	}
	return reparseAsJSON(rawStructure, target)
}

func reparseAsJSON(rawStructure interface{}, target interface{}) error {
	normalized, err := normalizeParsedDataForJSON(rawStructure)
	if err != nil {
		return err
	}
	jsonData, err := json.Marshal(normalized)
	if err != nil {
		return err
	}
	return json.Unmarshal(jsonData, target)
}

func normalizeParsedDataForJSON(data interface{}) (interface{}, error) {
	switch data := data.(type) {
	case []interface{}:
		arrayOut := make([]interface{}, 0)
		for _, v := range data {
			v1, err := normalizeParsedDataForJSON(v)
			if err != nil {
				return nil, err
			}
			arrayOut = append(arrayOut, v1)
		}
		return arrayOut, nil
	case []map[string]interface{}:
		// TOML arrays of tables
		arrayOut := make([]interface{}, 0)
		for _, v := range data {
			v1, err := normalizeParsedDataForJSON(v)
			if err != nil {
				return nil, err
			}
			arrayOut = append(arrayOut, v1)
		}
		return arrayOut, nil
	case map[string]interface{}:
		mapOut := make(map[string]interface{})
		for k, v := range data {
			v1, err := normalizeParsedDataForJSON(v)
			if err != nil {
				return nil, err
			}
			mapOut[k] = v1
		}
		return mapOut, nil
	case map[interface{}]interface{}:
		mapOut := make(map[string]interface{})
		for k, v := range data {
			switch key := k.(type) {
			case string:
				v1, err := normalizeParsedDataForJSON(v)
				if err != nil {
					return nil, err
				}
				mapOut[key] = v1
			default:
				return nil, fmt.Errorf(
					"config data contained a map key of type %T; only string keys are allowed",
					k)
			}
		}
		return mapOut, nil
	default:
		return data, nil
	}
}
