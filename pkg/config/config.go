// Package config turns process environment and CDK context into an explicit,
// validated Config. Nothing below the entry point reads the environment.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/theory-cloud/sitetheory"
	"github.com/theory-cloud/sitetheory/pkg/naming"
	"github.com/theory-cloud/sitetheory/pkg/observability"
)

const (
	EnvAccount   = "CDK_DEFAULT_ACCOUNT"
	EnvRegion    = "CDK_DEFAULT_REGION"
	EnvLogLevel  = "SITE_LOG_LEVEL"
	EnvLogFormat = "SITE_LOG_FORMAT"
)

const (
	KeyDomainName           = "domain_name"
	KeyDomainAlias          = "domain"
	KeyBucketName           = "bucket_name"
	KeyNamespace            = "namespace"
	KeyIncludeWwwRedirect   = "include_www_redirect"
	KeyHostedZoneID         = "hosted_zone_id"
	KeyHostedZoneName       = "hosted_zone_name"
	KeyHeadersFunctionPath  = "headers_function_path"
	KeyRedirectFunctionPath = "redirect_function_path"
	KeyZoneLookupTimeout    = "zone_lookup_timeout"
	KeyDescription          = "description"
)

const (
	DefaultHeadersFunctionPath  = "edge/headers.js"
	DefaultRedirectFunctionPath = "edge/redirect.js"
	DefaultZoneLookupTimeout    = 30 * time.Second
	DefaultDescription          = "static site using S3, CloudFront and Route53"
)

var accountPattern = regexp.MustCompile(`^[0-9]{12}$`)

// Config holds every deployment parameter. It is built once by Load and
// passed by value into the graph builder.
type Config struct {
	Account   string
	Region    string
	Namespace string

	DomainName string
	// BucketName is optional; empty lets CloudFormation generate one.
	BucketName string

	IncludeWwwRedirect bool

	// HostedZoneID and HostedZoneName replace the Route 53 lookup when both
	// are set.
	HostedZoneID   string
	HostedZoneName string

	HeadersFunctionPath  string
	RedirectFunctionPath string

	ZoneLookupTimeout time.Duration
	Description       string

	Log observability.LoggerConfig
}

// Env looks up a process environment value. os.LookupEnv satisfies it.
type Env func(key string) (string, bool)

// Default returns a Config with every optional field at its default.
func Default() Config {
	return Config{
		Namespace:            naming.DefaultNamespace,
		IncludeWwwRedirect:   true,
		HeadersFunctionPath:  DefaultHeadersFunctionPath,
		RedirectFunctionPath: DefaultRedirectFunctionPath,
		ZoneLookupTimeout:    DefaultZoneLookupTimeout,
		Description:          DefaultDescription,
	}
}

// Load reads env and the given sources (earlier sources win) and validates
// the result.
func Load(env Env, sources ...Source) (Config, error) {
	if env == nil {
		env = os.LookupEnv
	}
	cfg := Default()
	cfg.Account = envValue(env, EnvAccount)
	cfg.Region = envValue(env, EnvRegion)
	cfg.Log = LogConfig(env)

	chain := chainSource(sources)
	var err error

	if cfg.DomainName, err = lookupString(chain, KeyDomainName, KeyDomainAlias); err != nil {
		return Config{}, err
	}
	if cfg.BucketName, err = lookupString(chain, KeyBucketName); err != nil {
		return Config{}, err
	}
	if cfg.HostedZoneID, err = lookupString(chain, KeyHostedZoneID); err != nil {
		return Config{}, err
	}
	if cfg.HostedZoneName, err = lookupString(chain, KeyHostedZoneName); err != nil {
		return Config{}, err
	}

	if v, err := lookupString(chain, KeyNamespace); err != nil {
		return Config{}, err
	} else if v != "" {
		cfg.Namespace = v
	}
	if v, err := lookupString(chain, KeyHeadersFunctionPath); err != nil {
		return Config{}, err
	} else if v != "" {
		cfg.HeadersFunctionPath = v
	}
	if v, err := lookupString(chain, KeyRedirectFunctionPath); err != nil {
		return Config{}, err
	} else if v != "" {
		cfg.RedirectFunctionPath = v
	}
	if v, err := lookupString(chain, KeyDescription); err != nil {
		return Config{}, err
	} else if v != "" {
		cfg.Description = v
	}
	if v, ok, err := lookupBool(chain, KeyIncludeWwwRedirect); err != nil {
		return Config{}, err
	} else if ok {
		cfg.IncludeWwwRedirect = v
	}
	if v, ok, err := lookupDuration(chain, KeyZoneLookupTimeout); err != nil {
		return Config{}, err
	} else if ok {
		cfg.ZoneLookupTimeout = v
	}

	cfg = cfg.normalized()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LogConfig reads the logging settings alone, so a logger can exist before
// the rest of the configuration is known to be valid.
func LogConfig(env Env) observability.LoggerConfig {
	if env == nil {
		env = os.LookupEnv
	}
	return observability.LoggerConfig{
		Level:  envValue(env, EnvLogLevel),
		Format: envValue(env, EnvLogFormat),
	}
}

func (c Config) normalized() Config {
	c.Account = strings.TrimSpace(c.Account)
	c.Region = strings.TrimSpace(c.Region)
	c.Namespace = naming.Namespace(c.Namespace)
	c.DomainName = naming.NormalizeDomain(c.DomainName)
	c.BucketName = strings.TrimSpace(c.BucketName)
	c.HostedZoneID = strings.TrimSpace(c.HostedZoneID)
	c.HostedZoneName = naming.NormalizeDomain(c.HostedZoneName)
	return c
}

// Validate checks required values and their shape. It never touches AWS.
func (c Config) Validate() error {
	if c.Account == "" {
		return missing(EnvAccount)
	}
	if !accountPattern.MatchString(c.Account) {
		return sitetheory.NewError(sitetheory.ErrorCodeConfigInvalid, EnvAccount+" must be a 12-digit AWS account id")
	}
	if c.Region == "" {
		return missing(EnvRegion)
	}
	if c.DomainName == "" {
		return missing(KeyDomainName)
	}
	if err := validateDomain(KeyDomainName, c.DomainName); err != nil {
		return err
	}
	if (c.HostedZoneID == "") != (c.HostedZoneName == "") {
		return sitetheory.NewError(sitetheory.ErrorCodeConfigInvalid,
			KeyHostedZoneID+" and "+KeyHostedZoneName+" must be set together")
	}
	if c.HostedZoneName != "" {
		if err := validateDomain(KeyHostedZoneName, c.HostedZoneName); err != nil {
			return err
		}
	}
	if strings.TrimSpace(c.HeadersFunctionPath) == "" {
		return missing(KeyHeadersFunctionPath)
	}
	if c.IncludeWwwRedirect && strings.TrimSpace(c.RedirectFunctionPath) == "" {
		return missing(KeyRedirectFunctionPath)
	}
	if c.ZoneLookupTimeout <= 0 {
		return sitetheory.NewError(sitetheory.ErrorCodeConfigInvalid, KeyZoneLookupTimeout+" must be positive")
	}
	return nil
}

// HasZoneOverride reports whether the hosted zone is supplied directly.
func (c Config) HasZoneOverride() bool {
	return c.HostedZoneID != "" && c.HostedZoneName != ""
}

// PayloadPaths returns the edge-function files the configuration references.
func (c Config) PayloadPaths() []string {
	paths := []string{c.HeadersFunctionPath}
	if c.IncludeWwwRedirect {
		paths = append(paths, c.RedirectFunctionPath)
	}
	return paths
}

// CheckPayloadFiles verifies the edge-function files exist so a typo fails
// before any construct is created.
func (c Config) CheckPayloadFiles() error {
	for _, path := range c.PayloadPaths() {
		info, err := os.Stat(path)
		if err != nil {
			return sitetheory.WrapError(sitetheory.ErrorCodeConfigInvalid, "edge function payload "+path, err)
		}
		if info.IsDir() {
			return sitetheory.NewError(sitetheory.ErrorCodeConfigInvalid, "edge function payload "+path+" is a directory")
		}
	}
	return nil
}

// LogFields returns the configuration as log fields.
func (c Config) LogFields() map[string]any {
	return map[string]any{
		"account":              c.Account,
		"region":               c.Region,
		"namespace":            c.Namespace,
		"domain_name":          c.DomainName,
		"bucket_name":          c.BucketName,
		"include_www_redirect": c.IncludeWwwRedirect,
		"zone_override":        c.HasZoneOverride(),
	}
}

func validateDomain(key, domain string) error {
	switch {
	case strings.Contains(domain, "://"):
		return sitetheory.NewError(sitetheory.ErrorCodeConfigInvalid, fmt.Sprintf("%s %q must not include a scheme", key, domain))
	case strings.ContainsAny(domain, "/ \t"):
		return sitetheory.NewError(sitetheory.ErrorCodeConfigInvalid, fmt.Sprintf("%s %q must be a bare host name", key, domain))
	case !strings.Contains(domain, "."):
		return sitetheory.NewError(sitetheory.ErrorCodeConfigInvalid, fmt.Sprintf("%s %q must contain a dot", key, domain))
	}
	return nil
}

func missing(key string) error {
	return sitetheory.NewError(sitetheory.ErrorCodeConfigMissing, key+" is required")
}

func envValue(env Env, key string) string {
	v, ok := env(key)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}
