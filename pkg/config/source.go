package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/theory-cloud/sitetheory"
)

// Source supplies context values by key.
type Source interface {
	Lookup(key string) (any, bool)
}

// MapSource is a Source backed by a plain map.
type MapSource map[string]any

func (m MapSource) Lookup(key string) (any, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// ContextNode is the part of a construct node that reads CDK context.
// constructs.Node satisfies it.
type ContextNode interface {
	TryGetContext(key *string) interface{}
}

type cdkContext struct {
	node ContextNode
}

// CDKContext adapts a construct node's context (cdk.json, cdk.context.json,
// `-c key=value`) to a Source.
func CDKContext(node ContextNode) Source {
	return cdkContext{node: node}
}

func (c cdkContext) Lookup(key string) (any, bool) {
	if c.node == nil {
		return nil, false
	}
	v := c.node.TryGetContext(&key)
	if v == nil {
		return nil, false
	}
	return v, true
}

// LoadFile reads a YAML file of context keys.
func LoadFile(path string) (MapSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, sitetheory.WrapError(sitetheory.ErrorCodeConfigMissing, "read config file "+path, err)
	}
	out := MapSource{}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, sitetheory.WrapError(sitetheory.ErrorCodeConfigInvalid, "parse config file "+path, err)
	}
	return out, nil
}

type chainSource []Source

func (c chainSource) Lookup(key string) (any, bool) {
	for _, src := range c {
		if src == nil {
			continue
		}
		if v, ok := src.Lookup(key); ok {
			return v, true
		}
	}
	return nil, false
}

func lookupString(src Source, keys ...string) (string, error) {
	for _, key := range keys {
		v, ok := src.Lookup(key)
		if !ok {
			continue
		}
		s, isString := v.(string)
		if !isString {
			return "", invalidType(key, "a string", v)
		}
		return strings.TrimSpace(s), nil
	}
	return "", nil
}

func lookupBool(src Source, key string) (bool, bool, error) {
	v, ok := src.Lookup(key)
	if !ok {
		return false, false, nil
	}
	switch typed := v.(type) {
	case bool:
		return typed, true, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(typed))
		if err != nil {
			return false, false, invalidType(key, "a boolean", v)
		}
		return b, true, nil
	default:
		return false, false, invalidType(key, "a boolean", v)
	}
}

func lookupDuration(src Source, key string) (time.Duration, bool, error) {
	v, ok := src.Lookup(key)
	if !ok {
		return 0, false, nil
	}
	s, isString := v.(string)
	if !isString {
		return 0, false, invalidType(key, "a duration string", v)
	}
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, false, invalidType(key, "a duration string", v)
	}
	return d, true, nil
}

func invalidType(key, want string, got any) error {
	return sitetheory.NewError(sitetheory.ErrorCodeConfigInvalid, fmt.Sprintf("%s must be %s, got %T", key, want, got))
}

// LoadCDKContextFile reads cdk.json or cdk.context.json. For cdk.json the
// "context" section is returned; cdk.context.json is already flat.
func LoadCDKContextFile(path string) (MapSource, error) {
	m, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if section, ok := m["context"].(map[string]any); ok {
		return MapSource(section), nil
	}
	if _, hasApp := m["app"]; hasApp {
		return MapSource{}, nil
	}
	return m, nil
}
