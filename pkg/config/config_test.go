package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theory-cloud/sitetheory"
)

func envOf(values map[string]string) Env {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func validEnv() Env {
	return envOf(map[string]string{
		EnvAccount: "123456789012",
		EnvRegion:  "eu-west-1",
	})
}

type fakeNode map[string]interface{}

func (f fakeNode) TryGetContext(key *string) interface{} {
	return f[*key]
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(validEnv(), MapSource{KeyDomainName: "Example.com", KeyBucketName: "example-site"})
	require.NoError(t, err)

	assert.Equal(t, "123456789012", cfg.Account)
	assert.Equal(t, "eu-west-1", cfg.Region)
	assert.Equal(t, "example.com", cfg.DomainName)
	assert.Equal(t, "example-site", cfg.BucketName)
	assert.Equal(t, "blog", cfg.Namespace)
	assert.True(t, cfg.IncludeWwwRedirect)
	assert.False(t, cfg.HasZoneOverride())
	assert.Equal(t, DefaultHeadersFunctionPath, cfg.HeadersFunctionPath)
	assert.Equal(t, DefaultRedirectFunctionPath, cfg.RedirectFunctionPath)
	assert.Equal(t, DefaultZoneLookupTimeout, cfg.ZoneLookupTimeout)
	assert.Equal(t, DefaultDescription, cfg.Description)
}

func TestLoad_MissingEnvironmentIsFatal(t *testing.T) {
	_, err := Load(envOf(map[string]string{EnvRegion: "eu-west-1"}), MapSource{KeyDomainName: "example.com"})
	require.Error(t, err)
	assert.True(t, sitetheory.IsCode(err, sitetheory.ErrorCodeConfigMissing))
	assert.Contains(t, err.Error(), EnvAccount)

	_, err = Load(envOf(map[string]string{EnvAccount: "123456789012"}), MapSource{KeyDomainName: "example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvRegion)
}

func TestLoad_MissingDomainIsFatal(t *testing.T) {
	_, err := Load(validEnv())
	require.Error(t, err)
	assert.True(t, sitetheory.IsCode(err, sitetheory.ErrorCodeConfigMissing))
	assert.Contains(t, err.Error(), KeyDomainName)
}

func TestLoad_DomainAlias(t *testing.T) {
	cfg, err := Load(validEnv(), MapSource{KeyDomainAlias: "example.org"})
	require.NoError(t, err)
	assert.Equal(t, "example.org", cfg.DomainName)
}

func TestLoad_EarlierSourceWins(t *testing.T) {
	cfg, err := Load(validEnv(),
		CDKContext(fakeNode{KeyDomainName: "context.example.com"}),
		MapSource{KeyDomainName: "file.example.com", KeyNamespace: "docs"},
	)
	require.NoError(t, err)
	assert.Equal(t, "context.example.com", cfg.DomainName)
	assert.Equal(t, "docs", cfg.Namespace)
}

func TestLoad_ParsesTypedValues(t *testing.T) {
	cfg, err := Load(validEnv(), MapSource{
		KeyDomainName:         "example.com",
		KeyIncludeWwwRedirect: "false",
		KeyZoneLookupTimeout:  "5s",
	})
	require.NoError(t, err)
	assert.False(t, cfg.IncludeWwwRedirect)
	assert.Equal(t, 5*time.Second, cfg.ZoneLookupTimeout)
	assert.Equal(t, []string{DefaultHeadersFunctionPath}, cfg.PayloadPaths())

	cfg, err = Load(validEnv(), MapSource{KeyDomainName: "example.com", KeyIncludeWwwRedirect: true})
	require.NoError(t, err)
	assert.True(t, cfg.IncludeWwwRedirect)
	assert.Equal(t, []string{DefaultHeadersFunctionPath, DefaultRedirectFunctionPath}, cfg.PayloadPaths())
}

func TestLoad_RejectsMistypedValues(t *testing.T) {
	cases := []MapSource{
		{KeyDomainName: 42},
		{KeyDomainName: "example.com", KeyIncludeWwwRedirect: "maybe"},
		{KeyDomainName: "example.com", KeyIncludeWwwRedirect: 1},
		{KeyDomainName: "example.com", KeyZoneLookupTimeout: "soon"},
		{KeyDomainName: "example.com", KeyZoneLookupTimeout: 30},
	}
	for _, src := range cases {
		_, err := Load(validEnv(), src)
		require.Error(t, err, "%v", src)
		assert.True(t, sitetheory.IsCode(err, sitetheory.ErrorCodeConfigInvalid), "%v", err)
	}
}

func TestValidate_RejectsMalformedValues(t *testing.T) {
	base := Default()
	base.Account = "123456789012"
	base.Region = "eu-west-1"
	base.DomainName = "example.com"
	require.NoError(t, base.Validate())

	mutations := map[string]func(*Config){
		"short account":       func(c *Config) { c.Account = "1234" },
		"scheme in domain":    func(c *Config) { c.DomainName = "https://example.com" },
		"path in domain":      func(c *Config) { c.DomainName = "example.com/blog" },
		"single label domain": func(c *Config) { c.DomainName = "localhost" },
		"zone id only":        func(c *Config) { c.HostedZoneID = "Z123" },
		"zone name only":      func(c *Config) { c.HostedZoneName = "example.com" },
		"zero timeout":        func(c *Config) { c.ZoneLookupTimeout = 0 },
		"no headers payload":  func(c *Config) { c.HeadersFunctionPath = " " },
		"no redirect payload": func(c *Config) { c.RedirectFunctionPath = "" },
	}
	for name, mutate := range mutations {
		cfg := base
		mutate(&cfg)
		require.Error(t, cfg.Validate(), name)
	}

	noRedirect := base
	noRedirect.IncludeWwwRedirect = false
	noRedirect.RedirectFunctionPath = ""
	require.NoError(t, noRedirect.Validate())
}

func TestLoad_ZoneOverride(t *testing.T) {
	cfg, err := Load(validEnv(), MapSource{
		KeyDomainName:     "example.com",
		KeyHostedZoneID:   "Z0123456789",
		KeyHostedZoneName: "example.com.",
	})
	require.NoError(t, err)
	assert.True(t, cfg.HasZoneOverride())
	assert.Equal(t, "example.com", cfg.HostedZoneName)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "site.yaml")
	require.NoError(t, os.WriteFile(path, []byte("domain_name: example.com\nbucket_name: example-site\ninclude_www_redirect: false\n"), 0o600))

	src, err := LoadFile(path)
	require.NoError(t, err)

	cfg, err := Load(validEnv(), src)
	require.NoError(t, err)
	assert.Equal(t, "example.com", cfg.DomainName)
	assert.Equal(t, "example-site", cfg.BucketName)
	assert.False(t, cfg.IncludeWwwRedirect)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("domain_name: [unterminated"), 0o600))
	_, err = LoadFile(bad)
	require.Error(t, err)
	assert.True(t, sitetheory.IsCode(err, sitetheory.ErrorCodeConfigInvalid))
}

func TestCheckPayloadFiles(t *testing.T) {
	dir := t.TempDir()
	headers := filepath.Join(dir, "headers.js")
	require.NoError(t, os.WriteFile(headers, []byte("function handler(event) { return event.response; }"), 0o600))

	cfg := Default()
	cfg.HeadersFunctionPath = headers
	cfg.RedirectFunctionPath = filepath.Join(dir, "redirect.js")

	err := cfg.CheckPayloadFiles()
	require.Error(t, err)
	assert.True(t, sitetheory.IsCode(err, sitetheory.ErrorCodeConfigInvalid))

	cfg.IncludeWwwRedirect = false
	require.NoError(t, cfg.CheckPayloadFiles())

	cfg.HeadersFunctionPath = dir
	require.Error(t, cfg.CheckPayloadFiles())
}

func TestLogFieldsCarryConfiguration(t *testing.T) {
	cfg := Default()
	cfg.DomainName = "example.com"
	fields := cfg.LogFields()
	assert.Equal(t, "example.com", fields["domain_name"])
	assert.Equal(t, true, fields["include_www_redirect"])
}

func TestLoadCDKContextFile(t *testing.T) {
	dir := t.TempDir()

	cdkJSON := filepath.Join(dir, "cdk.json")
	require.NoError(t, os.WriteFile(cdkJSON, []byte(`{"app": "go run ./cmd/site-infra", "context": {"domain_name": "example.com", "include_www_redirect": false}}`), 0o600))
	src, err := LoadCDKContextFile(cdkJSON)
	require.NoError(t, err)
	v, ok := src.Lookup(KeyDomainName)
	require.True(t, ok)
	assert.Equal(t, "example.com", v)

	noContext := filepath.Join(dir, "bare.json")
	require.NoError(t, os.WriteFile(noContext, []byte(`{"app": "go run ./cmd/site-infra"}`), 0o600))
	src, err = LoadCDKContextFile(noContext)
	require.NoError(t, err)
	assert.Empty(t, src)

	cache := filepath.Join(dir, "cdk.context.json")
	require.NoError(t, os.WriteFile(cache, []byte(`{"hosted-zone:account=123456789012:domainName=example.com:region=eu-west-1": {"Id": "/hostedzone/Z1", "Name": "example.com."}}`), 0o600))
	src, err = LoadCDKContextFile(cache)
	require.NoError(t, err)
	_, ok = src.Lookup("hosted-zone:account=123456789012:domainName=example.com:region=eu-west-1")
	assert.True(t, ok)
}

func TestLogConfigReadsEnvironment(t *testing.T) {
	cfg := LogConfig(envOf(map[string]string{EnvLogLevel: " debug ", EnvLogFormat: "json"}))
	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
}
