// Command zusi2to3 converts a v2 route and any number of v2 timetables
// into the v3 format:
//
//	zusi2to3 <route.str> <timetable.fpl>...
//
// The dataset roots come from the ZUSI2_DATAPATH and ZUSI3_DATAPATH
// environment variables; everything is written below Temp\_z2conv of
// the target root. The exit code is non-zero on any fatal parse error.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zusikit/zusi2to3/paths"
	"github.com/zusikit/zusi2to3/route"
	"github.com/zusikit/zusi2to3/scenery"
	"github.com/zusikit/zusi2to3/timetable"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <route.str> <timetable.fpl>...\n", os.Args[0])
		os.Exit(2)
	}

	log, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck // stderr sync failure is uninteresting

	if err := run(log, os.Args[1], os.Args[2:]); err != nil {
		log.Error("conversion failed", zap.Error(err))
		os.Exit(1)
	}
}

// run converts the route, then the timetables. The timetables are
// independent of each other and run concurrently; the route conversion
// they all reference must finish first.
func run(log *zap.Logger, routePath string, timetables []string) error {
	mapper, err := paths.FromEnv()
	if err != nil {
		return err
	}

	sc := scenery.NewConverter(mapper, log)
	res, err := route.NewConverter(mapper, sc, log).Convert(routePath)
	if err != nil {
		return err
	}

	tc := timetable.NewConverter(mapper, log)
	var g errgroup.Group
	for _, path := range timetables {
		g.Go(func() error {
			return tc.Convert(path, res.OutName, res.RecursionDepth)
		})
	}

	return g.Wait()
}
