package main

import (
	"context"
	"net/http"
	"time"

	"github.com/easygraphs/easygraphs-device/cmd/easygraphs-sim/subcmd"
	"github.com/easygraphs/easygraphs-device/collector"
	"github.com/easygraphs/easygraphs-device/config"
	"github.com/easygraphs/easygraphs-device/log2"
	"github.com/juju/errors"
)

const defaultCollectorListen = "127.0.0.1:4020"

func collectorMain(ctx context.Context, log *log2.Log, c *config.Config) error {
	a := getAlive(ctx)
	listen := c.Collector.Listen
	if listen == "" {
		listen = defaultCollectorListen
	}
	sink := collector.NewSink(c.Collector.Keep)
	srv := &http.Server{
		Addr:              listen,
		Handler:           collector.NewRouter(log, c.Collector.Token, sink),
		ReadHeaderTimeout: 5 * time.Second,
	}
	if !a.Add(1) {
		return nil
	}
	go func() {
		defer a.Done()
		<-a.StopChan()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("collector shutdown err=%v", err)
		}
		log.Infof("collector stopped, received datasets=%d", len(sink.Datasets()))
	}()

	log.Infof("collector listen=%s", listen)
	subcmd.SdNotify(log, "READY=1")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		a.Stop()
		a.Wait()
		return errors.Annotatef(err, "collector listen=%s", listen)
	}
	a.Wait()
	return nil
}
