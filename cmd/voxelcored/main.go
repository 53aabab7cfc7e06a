// Command voxelcored runs the voxel-world engine server core as a
// standalone process: it wires a World, its event bus, and a worker pool
// together and drives them from a fixed-rate tick loop, the Go counterpart
// of original_source's src/server/main.cpp.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gekko3d/voxelcore"
	"github.com/gekko3d/voxelcore/eventbus"
	"github.com/gekko3d/voxelcore/logging"
	"github.com/gekko3d/voxelcore/scene"
	"github.com/gekko3d/voxelcore/wire"
	"github.com/gekko3d/voxelcore/worker"
)

// tickInterval mirrors original_source's master_t_per_tick (10Hz).
const tickInterval = 100 * time.Millisecond

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("voxelcored", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTION]...\n", "voxelcored")
		fmt.Fprintf(os.Stderr, "  -h                  Show this help\n")
		fmt.Fprintf(os.Stderr, "  -m module_path      Specify module path\n")
		fmt.Fprintf(os.Stderr, "  -r rccpp_build_path Specify runtime-compiled build path\n")
		fmt.Fprintf(os.Stderr, "  -i interface_path   Specify path to interface headers\n")
		fmt.Fprintf(os.Stderr, "  -S share_path       Specify path to share/\n")
	}

	var (
		help           bool
		modulePath     string
		rccppBuildPath string
		interfacePath  string
		sharePath      string
	)
	fs.BoolVar(&help, "h", false, "show this help")
	fs.StringVar(&modulePath, "m", "", "module path")
	fs.StringVar(&rccppBuildPath, "r", "", "runtime-compiled build path")
	fs.StringVar(&interfacePath, "i", "", "interface headers path")
	fs.StringVar(&sharePath, "S", "", "share/ path")

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if help {
		fs.Usage()
		return 1
	}
	if modulePath == "" {
		fmt.Fprintln(os.Stderr, "ERROR: module path (-m) is empty")
		fs.Usage()
		return 1
	}

	logger := logging.NewDefaultLogger("voxelcored", false)
	logger.Infof("voxelcored: module_path=%s rccpp_build_path=%s interface_path=%s share_path=%s",
		modulePath, rccppBuildPath, interfacePath, sharePath)

	store := scene.NewStore()
	bus := eventbus.NewBus(logger)
	w := voxelcore.NewWorld(voxelcore.WorldConfig{
		Store:  store,
		Bus:    bus,
		Logger: logger,
	})

	packetTypes := wire.NewRegistry()
	w.WireEvents(voxelcore.RegionConfig{
		From: voxelcore.SectionCoord{X: -1, Y: -1, Z: -1},
		To:   voxelcore.SectionCoord{X: 1, Y: 1, Z: 1},
	}, packetTypes)

	pool := worker.NewThreadPool(logger)
	pool.Start(4)
	defer pool.Join()

	bus.Emit(eventbus.Event{Name: "core:start"})

	return mainLoop(bus, pool, logger)
}

// mainLoop drives core:tick at a fixed rate until SIGINT. The first SIGINT
// starts a graceful shutdown (core:unload, pool.RequestStop) but lets the
// loop keep running until the next tick boundary, leaving a window in which
// a second SIGINT — should shutdown hang — restores the default signal
// disposition so the process can still be killed, matching
// original_source's sigint_handler.
func mainLoop(bus *eventbus.Bus, pool *worker.ThreadPool, logger logging.Logger) int {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	stopping := false
	for {
		select {
		case <-sigCh:
			if stopping {
				logger.Warnf("voxelcored: second SIGINT received, restoring default handling")
				signal.Reset(syscall.SIGINT)
				continue
			}
			fmt.Println()
			logger.Infof("voxelcored: SIGINT received, shutting down")
			stopping = true
			bus.Emit(eventbus.Event{Name: "core:unload"})
			pool.RequestStop()
		case <-ticker.C:
			if stopping {
				return 0
			}
			bus.Emit(eventbus.Event{Name: "core:tick"})
			bus.FireDeferred()
			pool.RunPost()
		}
	}
}
