package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/1broseidon/virtdisplay/internal/ipc"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		if len(os.Args) > 2 && (os.Args[2] == "help" || os.Args[2] == "-h" || os.Args[2] == "--help") {
			fmt.Fprintln(os.Stdout, "Usage: virtdisplay daemon")
			os.Exit(0)
		}
		if len(os.Args) > 2 {
			fmt.Fprintln(os.Stderr, "daemon takes no arguments")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Usage: virtdisplay daemon")
			os.Exit(2)
		}
		runDaemon()
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "adapter":
		os.Exit(runAdapter(os.Args[2:]))
	case "monitor":
		os.Exit(runMonitor(os.Args[2:]))
	case "modes":
		os.Exit(runModes(os.Args[2:]))
	case "edid":
		os.Exit(runEDID(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: virtdisplay <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the virtdisplay daemon (foreground)")
	fmt.Fprintln(w, "  status              Show daemon and monitor status")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  adapter info        Show adapter counters")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  monitor create      Plug in a virtual monitor")
	fmt.Fprintln(w, "  monitor destroy     Unplug a virtual monitor")
	fmt.Fprintln(w, "  monitor list        List live monitors")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  modes               List advertised display modes")
	fmt.Fprintln(w, "  edid                Encode an EDID block for a resolution")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'virtdisplay <command> --help' for command-specific options.")
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: virtdisplay status")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	status, err := client.GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("daemon_running: %v\n", status.DaemonRunning)
	fmt.Printf("adapter_ready:  %v\n", status.AdapterReady)
	fmt.Printf("uptime_seconds: %d\n", status.UptimeSeconds)
	fmt.Printf("monitor_count:  %d\n", len(status.Monitors))
	for _, m := range status.Monitors {
		state := "detached"
		if m.Active {
			state = "attached"
		}
		fmt.Printf("  monitor %d: %dx%d@%d (%s)\n", m.ID, m.Width, m.Height, m.RefreshHz, state)
	}
	return 0
}

func runAdapter(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stdout, "Usage: virtdisplay adapter info")
		if len(args) == 0 {
			return 2
		}
		return 0
	}
	if args[0] != "info" {
		fmt.Fprintf(os.Stderr, "Unknown adapter command: %s\n", args[0])
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Usage: virtdisplay adapter info")
		return 2
	}

	client := ipc.NewClient()
	info, err := client.GetAdapterInfo()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("ready:         %v\n", info.Ready)
	fmt.Printf("monitor_count: %d\n", info.MonitorCount)
	fmt.Printf("max_monitors:  %d\n", info.MaxMonitors)
	return 0
}

func printMonitorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  virtdisplay monitor create [--width N] [--height N] [--refresh N]")
	fmt.Fprintln(w, "  virtdisplay monitor destroy <id>")
	fmt.Fprintln(w, "  virtdisplay monitor list")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'virtdisplay monitor <command> --help' for command-specific options.")
}

func runMonitor(args []string) int {
	if len(args) == 0 {
		printMonitorUsage(os.Stderr)
		return 2
	}
	if args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printMonitorUsage(os.Stdout)
		return 0
	}

	client := ipc.NewClient()

	switch args[0] {
	case "create":
		fs := flag.NewFlagSet("create", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		fs.Usage = func() {
			fmt.Fprintln(os.Stderr, "Usage: virtdisplay monitor create [--width N] [--height N] [--refresh N]")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Plug in a virtual monitor.")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Flags:")
			fs.PrintDefaults()
		}
		width := fs.Int("width", 1920, "Horizontal resolution in pixels")
		height := fs.Int("height", 1080, "Vertical resolution in pixels")
		refresh := fs.Int("refresh", 60, "Refresh rate in Hz")
		if err := fs.Parse(args[1:]); err != nil {
			if err == flag.ErrHelp {
				return 0
			}
			return 2
		}
		if fs.NArg() != 0 {
			fmt.Fprintln(os.Stderr, "monitor create takes no arguments")
			fs.Usage()
			return 2
		}

		id, err := client.CreateMonitor(*width, *height, *refresh)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("created monitor %d (%dx%d@%d)\n", id, *width, *height, *refresh)
		return 0

	case "destroy":
		fs := flag.NewFlagSet("destroy", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		fs.Usage = func() {
			fmt.Fprintln(os.Stderr, "Usage: virtdisplay monitor destroy <id>")
		}
		if err := fs.Parse(args[1:]); err != nil {
			if err == flag.ErrHelp {
				return 0
			}
			return 2
		}
		if fs.NArg() != 1 {
			fmt.Fprintln(os.Stderr, "monitor destroy takes exactly one monitor id")
			fs.Usage()
			return 2
		}

		var id uint32
		if _, err := fmt.Sscanf(fs.Arg(0), "%d", &id); err != nil {
			fmt.Fprintf(os.Stderr, "invalid monitor id %q\n", fs.Arg(0))
			return 2
		}
		if err := client.DestroyMonitor(id); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("destroyed monitor %d\n", id)
		return 0

	case "list":
		fs := flag.NewFlagSet("list", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		fs.Usage = func() {
			fmt.Fprintln(os.Stderr, "Usage: virtdisplay monitor list")
		}
		if err := fs.Parse(args[1:]); err != nil {
			if err == flag.ErrHelp {
				return 0
			}
			return 2
		}

		status, err := client.GetStatus()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if len(status.Monitors) == 0 {
			fmt.Println("no monitors")
			return 0
		}
		for _, m := range status.Monitors {
			state := "detached"
			if m.Active {
				state = "attached"
			}
			fmt.Printf("%d\t%dx%d@%d\t%s\n", m.ID, m.Width, m.Height, m.RefreshHz, state)
		}
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown monitor command: %s\n\n", args[0])
		printMonitorUsage(os.Stderr)
		return 2
	}
}

func runModes(args []string) int {
	fs := flag.NewFlagSet("modes", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: virtdisplay modes")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "List the display modes the daemon advertises.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	client := ipc.NewClient()
	modes, err := client.ListModes()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	for _, m := range modes.Modes {
		marker := " "
		if m.Preferred {
			marker = "*"
		}
		fmt.Printf("%s %dx%d@%d\n", marker, m.Width, m.Height, m.RefreshHz)
	}
	return 0
}
