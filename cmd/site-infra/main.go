// Command site-infra synthesizes the static site stack.
//
// Usage:
//
//	site-infra [synth]                 Synthesize the cloud assembly (run by cdk.json)
//	site-infra graph [-f mermaid]      Print the resource graph
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/theory-cloud/sitetheory"
	"github.com/theory-cloud/sitetheory/pkg/config"
	"github.com/theory-cloud/sitetheory/pkg/logger"
	"github.com/theory-cloud/sitetheory/pkg/observability"
	obszap "github.com/theory-cloud/sitetheory/pkg/observability/zap"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.LookupEnv, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, env config.Env, stdout, stderr io.Writer) int {
	log, err := newLogger(ctx, env, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "site-infra: FAIL: %v\n", err)
		return 2
	}
	logger.SetLogger(log)
	defer func() {
		_ = log.Flush(ctx)
		_ = log.Close()
		logger.SetLogger(nil)
	}()

	root := newRootCmd(newCLI(env, stdout))
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		log.Error("site-infra failed", map[string]any{
			"code":  sitetheory.CodeOf(err),
			"error": err.Error(),
		})
		return 1
	}
	return 0
}

func newLogger(ctx context.Context, env config.Env, stderr io.Writer) (observability.StructuredLogger, error) {
	return obszap.NewZapLogger(config.LogConfig(env),
		obszap.WithOutput(stderr),
		obszap.WithEnvironmentErrorNotifications(ctx, obszap.DefaultEnvironmentErrorNotifications()),
	)
}
