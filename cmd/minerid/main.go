package main

import (
	_ "net/http/pprof" //nolint:gosec // served only on profilerAddr

	"github.com/bsv-blockchain/minerid/daemon"
	"github.com/bsv-blockchain/minerid/settings"
	"github.com/bsv-blockchain/minerid/ulogger"
	"github.com/ordishs/gocore"
)

// Name used by build script for the binaries. (Please keep on single line)
const progname = "minerid"

// Version & commit strings injected at build with -ldflags -X...
var (
	version string
	commit  string
)

func main() {
	gocore.SetInfo(progname, version, commit)

	gocore.AddAppPayloadFn("CONFIG", func() interface{} {
		return gocore.Config().GetAll()
	})

	tSettings := settings.NewSettings()

	logger := ulogger.New(progname,
		ulogger.WithLevel(tSettings.LogLevel),
		ulogger.WithLoggerType(tSettings.LoggerType),
		ulogger.WithPretty(tSettings.PrettyLogs),
	)

	stats := gocore.Config().Stats()
	logger.Infof("STATS\n%s\nVERSION\n-------\n%s (%s)\n\n", stats, version, commit)

	d := daemon.New(daemon.WithLoggerFactory(func(serviceName string) ulogger.Logger {
		return ulogger.New(serviceName,
			ulogger.WithLevel(tSettings.LogLevel),
			ulogger.WithLoggerType(tSettings.LoggerType),
			ulogger.WithPretty(tSettings.PrettyLogs),
		)
	}))

	d.ServiceManager.HandleSignals()

	d.Start(logger, tSettings)
}
