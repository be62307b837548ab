package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"
	"github.com/spf13/cobra"

	"github.com/theory-cloud/sitetheory"
	sitecdk "github.com/theory-cloud/sitetheory/pkg/cdk"
	"github.com/theory-cloud/sitetheory/pkg/config"
	"github.com/theory-cloud/sitetheory/pkg/descriptor"
	"github.com/theory-cloud/sitetheory/pkg/logger"
	"github.com/theory-cloud/sitetheory/pkg/naming"
	"github.com/theory-cloud/sitetheory/pkg/zones"
)

type resolverFactory func(ctx context.Context, cfg config.Config, cache config.Source) (zones.Resolver, error)

type cli struct {
	env    config.Env
	stdout io.Writer

	configPath       string
	cdkJSONPath      string
	contextCachePath string
	format           string

	newResolver resolverFactory
}

func newCLI(env config.Env, stdout io.Writer) *cli {
	return &cli{env: env, stdout: stdout, newResolver: defaultResolver}
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "site-infra",
		Short: "Synthesize the static site stack",
		Long: `site-infra declares an S3 bucket behind CloudFront with a us-east-1
certificate and Route 53 records for an existing hosted zone.

Configuration comes from CDK_DEFAULT_ACCOUNT, CDK_DEFAULT_REGION and CDK
context (cdk.json or -c key=value). A --config YAML file overrides context.

Without a subcommand it synthesizes, which is what cdk.json runs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.synth(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "YAML file of context values; overrides CDK context")
	root.AddCommand(newSynthCmd(c), newGraphCmd(c))
	return root
}

func newSynthCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "synth",
		Short: "Synthesize the cloud assembly",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.synth(cmd.Context())
		},
	}
}

func newGraphCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the resource dependency graph",
		Long: `Print the site's resources and their dependencies without synthesizing.

The output can be rendered with Graphviz:
    site-infra graph | dot -Tpng -o site.png

Or pasted into markdown as Mermaid:
    site-infra graph -f mermaid`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.graph(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&c.format, "format", "f", "dot", "Output format: dot or mermaid")
	cmd.Flags().StringVar(&c.cdkJSONPath, "cdk-json", "cdk.json", "cdk.json to read context from")
	cmd.Flags().StringVar(&c.contextCachePath, "context-cache", "cdk.context.json", "CDK context cache holding hosted zone lookups")
	return cmd
}

func (c *cli) synth(ctx context.Context) (err error) {
	defer jsii.Close()
	defer func() {
		if r := recover(); r != nil {
			err = sitetheory.NewError(sitetheory.ErrorCodeSynthFailed, fmt.Sprint(r))
		}
	}()

	app := awscdk.NewApp(nil)
	cdkContext := config.CDKContext(app.Node())

	cfg, err := c.loadConfig(cdkContext)
	if err != nil {
		return err
	}
	if err := cfg.CheckPayloadFiles(); err != nil {
		return err
	}

	site, err := c.buildSite(ctx, cfg, cdkContext)
	if err != nil {
		return err
	}

	stack, err := sitecdk.NewSiteStack(app, naming.StackID(cfg.Namespace), &sitecdk.SiteStackProps{
		Config: cfg,
		Site:   site,
	})
	if err != nil {
		return err
	}

	assembly := app.Synth(nil)
	logger.Logger().Info("cloud assembly synthesized", map[string]any{
		"stack":     *stack.StackName(),
		"directory": *assembly.Directory(),
	})
	return nil
}

func (c *cli) graph(ctx context.Context) error {
	format, err := descriptor.ParseFormat(c.format)
	if err != nil {
		return sitetheory.WrapError(sitetheory.ErrorCodeConfigInvalid, "graph format", err)
	}

	cdkJSON, err := loadOptional(c.cdkJSONPath)
	if err != nil {
		return err
	}
	cache, err := loadOptional(c.contextCachePath)
	if err != nil {
		return err
	}

	cfg, err := c.loadConfig(cdkJSON)
	if err != nil {
		return err
	}
	site, err := c.buildSite(ctx, cfg, cache)
	if err != nil {
		return err
	}
	return site.WriteDOT(c.stdout, format)
}

// loadConfig layers the --config file over the given context sources.
func (c *cli) loadConfig(sources ...config.Source) (config.Config, error) {
	if c.configPath != "" {
		file, err := config.LoadFile(c.configPath)
		if err != nil {
			return config.Config{}, err
		}
		sources = append([]config.Source{file}, sources...)
	}
	cfg, err := config.Load(c.env, sources...)
	if err != nil {
		return config.Config{}, err
	}
	logger.Logger().Info("configuration loaded", cfg.LogFields())
	return cfg, nil
}

func (c *cli) buildSite(ctx context.Context, cfg config.Config, cache config.Source) (*descriptor.Site, error) {
	resolver, err := c.newResolver(ctx, cfg, cache)
	if err != nil {
		return nil, err
	}
	return descriptor.Build(ctx, cfg, resolver)
}

// defaultResolver prefers an explicit zone, then the CDK context cache, then
// Route 53.
func defaultResolver(ctx context.Context, cfg config.Config, cache config.Source) (zones.Resolver, error) {
	if cfg.HasZoneOverride() {
		logger.Logger().Info("using configured hosted zone", map[string]any{
			"hosted_zone_id":   cfg.HostedZoneID,
			"hosted_zone_name": cfg.HostedZoneName,
		})
		return zones.Static(cfg.HostedZoneID, cfg.HostedZoneName), nil
	}
	route53, err := zones.NewRoute53ResolverFromConfig(ctx, cfg.Region)
	if err != nil {
		return nil, err
	}
	return &zones.ContextCache{
		Source:  cache,
		Account: cfg.Account,
		Region:  cfg.Region,
		Next:    route53,
	}, nil
}

// loadOptional reads a CDK context file, treating a missing file as empty.
func loadOptional(path string) (config.Source, error) {
	if path == "" {
		return nil, nil
	}
	src, err := config.LoadCDKContextFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return src, nil
}
