// Host simulator of EasyGraphs telemetry device.
//
//   easygraphs-sim [-config easygraphs.hcl] cycle      wake, connect, measure, publish, deep sleep, repeat
//   easygraphs-sim [-config easygraphs.hcl] repl       interactive device console
//   easygraphs-sim [-config easygraphs.hcl] collector  local collections API endpoint
//
// Secrets are read from config, then from environment and .env file:
// EASYGRAPHS_TOKEN, EASYGRAPHS_WIFI_PASSWORD.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/easygraphs/easygraphs-device/cmd/easygraphs-sim/subcmd"
	"github.com/easygraphs/easygraphs-device/config"
	"github.com/easygraphs/easygraphs-device/log2"
	"github.com/joho/godotenv"
	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
)

var log = log2.NewStderr(log2.LDebug)

var modules = []subcmd.Mod{
	{Name: "cycle", Usage: "wake, connect, measure, publish, deep sleep, repeat", Main: cycleMain},
	{Name: "repl", Usage: "interactive device console", Main: replMain},
	{Name: "collector", Usage: "serve local collections API", Main: collectorMain},
}

type ctxKey string

const ctxKeyAlive ctxKey = "alive"

func main() {
	flagConfig := flag.String("config", "easygraphs.hcl", "")
	flagEnv := flag.String("env", ".env", "dotenv file with secrets, missing file is ok")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [options] command\n\nCommands:\n", os.Args[0])
		for _, m := range modules {
			fmt.Fprintf(flag.CommandLine.Output(), "  %-10s %s\n", m.Name, m.Usage)
		}
		fmt.Fprintf(flag.CommandLine.Output(), "\nOptions:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	mod, err := subcmd.Parse(flag.Arg(0), modules)
	if err != nil {
		log.Fatal(err)
	}

	if subcmd.SdNotify(log, "start") {
		// under systemd, assume journal logging, remove timestamp
		log.SetFlags(log2.LServiceFlags)
	} else {
		log.SetFlags(log2.LInteractiveFlags)
	}

	if err := loadDotenv(*flagEnv); err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	c := config.MustReadConfig(log, config.NewOsFullReader(), *flagConfig)
	c.ApplyEnv(os.Getenv)
	log.SetLevel(log2.DebugLevel(c.Device.Debug))

	a := alive.NewAlive()
	go stopOnSignal(a)
	ctx := context.WithValue(context.Background(), ctxKeyAlive, a)

	if err := mod.Main(ctx, log, c); err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
}

// loadDotenv does not override variables already set in environment.
func loadDotenv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return errors.Annotatef(godotenv.Load(path), "dotenv path=%s", path)
}

func stopOnSignal(a *alive.Alive) {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	s := <-signalCh
	log.Infof("signal=%v stopping", s)
	subcmd.SdNotify(log, "STOPPING=1")
	a.Stop()
}

func getAlive(ctx context.Context) *alive.Alive {
	a, ok := ctx.Value(ctxKeyAlive).(*alive.Alive)
	if !ok {
		panic("code error context without alive")
	}
	return a
}
