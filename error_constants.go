package sitetheory

const (
	ErrorCodeConfigMissing    = "site.config_missing"
	ErrorCodeConfigInvalid    = "site.config_invalid"
	ErrorCodeZoneNotFound     = "site.zone_not_found"
	ErrorCodeZoneLookupFailed = "site.zone_lookup_failed"
	ErrorCodeSynthFailed      = "site.synth_failed"
	ErrorCodeInternal         = "site.internal"
)
