// Command metricagentd runs the StatsD ingestion core and the
// line-protocol UDP shipper core as one process: the enclosing daemon
// named out of scope in spec.md §1.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/apkerr/metricagentd/internal/agent"
	"github.com/apkerr/metricagentd/internal/config"
)

func main() {
	app := &cli.App{
		Name:  "metricagentd",
		Usage: "StatsD aggregation and line-protocol UDP shipping",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "/etc/metricagentd/metricagentd.conf",
				Usage:   "path to the TOML configuration file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "info",
				Usage: "trace, debug, info, warn, error",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("metricagentd exited with an error")
	}
}

func run(c *cli.Context) error {
	level, err := logrus.ParseLevel(c.String("log-level"))
	if err != nil {
		return err
	}
	logrus.SetLevel(level)
	log := logrus.NewEntry(logrus.StandardLogger())

	file, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	a, err := agent.New(file.ToAgentConfig(), log)
	if err != nil {
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		defer close(done)
		a.Run()
	}()

	<-sig
	log.Info("shutting down")
	if err := a.Close(); err != nil {
		log.WithError(err).Warn("shutdown reported errors")
	}
	<-done
	return nil
}
