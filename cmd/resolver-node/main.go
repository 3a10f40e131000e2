// nolint: gocritic
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/afero"

	"github.com/keboola/cluster-resolver/internal/pkg/env"
	"github.com/keboola/cluster-resolver/internal/pkg/log"
	"github.com/keboola/cluster-resolver/internal/pkg/service/common/configmap"
	"github.com/keboola/cluster-resolver/internal/pkg/service/common/httpserver"
	"github.com/keboola/cluster-resolver/internal/pkg/service/common/httpserver/middleware"
	"github.com/keboola/cluster-resolver/internal/pkg/service/common/servicectx"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/api"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/config"
	"github.com/keboola/cluster-resolver/internal/pkg/service/resolver/dependencies"
	"github.com/keboola/cluster-resolver/internal/pkg/telemetry"
	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

const (
	ServiceName = "resolver-node"
	MetricsPath = "/metrics"
)

func main() {
	if err := run(); err != nil {
		fmt.Println(errors.PrefixError(err, "fatal error").Error()) // nolint:forbidigo
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load ENVs, including the dotenv files from the working directory
	envs := env.LoadDotEnv(ctx, log.NewNopLogger(), env.FromOs(), afero.NewOsFs(), []string{"."})

	// Load configuration
	cfg := config.New()
	err := configmap.Bind(configmap.BindSpec{
		AppName:                ServiceName,
		Args:                   os.Args[1:], // nolint:forbidigo
		Envs:                   envs,
		EnvNaming:              env.NewNamingConvention(config.EnvPrefix),
		GenerateHelpFlag:       true,
		GenerateConfigFileFlag: true,
		GenerateDumpConfigFlag: true,
	}, &cfg)
	if helpErr := (configmap.HelpError{}); errors.As(err, &helpErr) {
		fmt.Print(helpErr.Help) // nolint:forbidigo
		return nil
	} else if dumpErr := (configmap.DumpError{}); errors.As(err, &dumpErr) {
		fmt.Print(string(dumpErr.Dump)) // nolint:forbidigo
		return nil
	} else if err != nil {
		return err
	}

	// Create logger
	logFormat, err := log.NewLogFormat(cfg.LogFormat)
	if err != nil {
		return err
	}
	logger := log.NewServiceLogger(os.Stdout, logFormat, cfg.DebugLog).WithComponent("resolver") // nolint:forbidigo
	if dump, err := configmap.DumpAs(cfg, "json"); err == nil {
		logger.Infof(ctx, "configuration: %s", string(dump))
	}

	// Create process abstraction
	proc, err := servicectx.New(servicectx.WithLogger(logger), servicectx.WithUniqueID(cfg.NodeID))
	if err != nil {
		return err
	}

	// Setup telemetry
	tel, err := telemetry.NewForPrometheus()
	if err != nil {
		return err
	}
	proc.OnShutdown(func(ctx context.Context) {
		if err := tel.Shutdown(ctx); err != nil {
			logger.Errorf(ctx, "cannot shutdown telemetry: %s", err)
		}
	})

	// Create dependencies, the node joins the cluster
	scope, err := dependencies.NewServiceScope(ctx, cfg, proc, logger, tel)
	if err != nil {
		return err
	}

	// Start metrics server
	metricsServer := httpserver.New(ctx, scope, httpserver.Config{
		ListenAddress:     cfg.Metrics.Listen,
		ErrorNamePrefix:   api.ErrorNamePrefix,
		ExceptionIDPrefix: api.ExceptionIDPrefix,
		MiddlewareOptions: []middleware.Option{middleware.WithFilter(middleware.PathFilter(MetricsPath))},
		Mount: func(c httpserver.Components) {
			c.Muxer.Handler(http.MethodGet, MetricsPath, tel.Handler())
		},
	})
	if err := metricsServer.Start(ctx); err != nil {
		return err
	}

	// Start API server
	apiServer := httpserver.New(ctx, scope, httpserver.Config{
		ListenAddress:     cfg.API.Listen,
		ErrorNamePrefix:   api.ErrorNamePrefix,
		ExceptionIDPrefix: api.ExceptionIDPrefix,
		MiddlewareOptions: []middleware.Option{middleware.WithFilterAccessLog(middleware.PathFilter(api.HealthCheckPath))},
		Mount:             api.Mount(scope.Resolver()),
	})
	if err := apiServer.Start(ctx); err != nil {
		return err
	}

	// Wait for the service shutdown
	proc.WaitForShutdown()
	return nil
}
