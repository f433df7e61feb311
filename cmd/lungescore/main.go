package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/ayusman/lungescore/internal/app"
	"github.com/ayusman/lungescore/internal/config"
	"github.com/ayusman/lungescore/internal/pose"
	"github.com/ayusman/lungescore/internal/server"
	"github.com/ayusman/lungescore/internal/session"
	"github.com/ayusman/lungescore/internal/store"
)

const usage = `Usage:
  lungescore [serve] [-config file] [-listen addr] [-db path] [-static dir]
  lungescore replay [-config file] [-db path] [-hooks dir] [-fps n] [-json] recording.jsonl
  lungescore replay [-config file] [-db path] [-hooks dir] [-json] -cmd "estimator args..."
`

func main() {
	args := os.Args[1:]
	cmd := "serve"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "serve":
		serve(args)
	case "replay":
		replay(args)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}

func serve(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to JSON config file")
	listen := fs.String("listen", "", "listen address (overrides config)")
	dbPath := fs.String("db", "", "SQLite database path (overrides config)")
	staticDir := fs.String("static", "", "directory of static files to serve")
	fs.Parse(args)

	fmt.Println("Lungescore - Real-time Lunge Scoring")

	cfg := loadConfig(*configPath)
	if *listen != "" {
		cfg.Listen = listen
	}
	if *dbPath != "" {
		cfg.DBPath = dbPath
	}

	st := openStore(cfg.GetDBPath())
	defer st.Close()

	defaults := sessionDefaults(cfg, st)

	webDir := *staticDir
	if webDir == "" {
		webDir = findWebDir()
	}
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		Sessions:  session.NewManager(defaults),
	})

	addr := cfg.GetListen()
	fmt.Printf("Starting server on %s\n", addr)
	if err := srv.ListenAndServe(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func replay(args []string) {
	fs := flag.NewFlagSet("replay", flag.ExitOnError)
	configPath := fs.String("config", "", "path to JSON config file")
	dbPath := fs.String("db", "", "SQLite database path, needed for a stored reference")
	estimator := fs.String("cmd", "", "pose estimator command emitting JSON lines on stdout")
	fps := fs.Int("fps", 0, "replay pace in frames per second (0 = as fast as possible)")
	asJSON := fs.Bool("json", false, "print every frame result as a JSON line")
	hookDir := fs.String("hooks", "", "directory of event hooks (overrides config)")
	fs.Parse(args)

	cfg := loadConfig(*configPath)
	if *dbPath != "" {
		cfg.DBPath = dbPath
	}
	if *hookDir != "" {
		cfg.HookDir = hookDir
	}

	var src pose.Source
	switch {
	case *estimator != "":
		parts := strings.Fields(*estimator)
		src = pose.NewCommandSource(parts[0], parts[1:]...)
	case fs.NArg() == 1:
		s, err := pose.OpenFile(fs.Arg(0))
		if err != nil {
			log.Fatalf("Failed to open recording: %v", err)
		}
		src = s
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	defer src.Close()

	sessionCfg, err := cfg.SessionConfig()
	if err != nil {
		log.Fatalf("Invalid session configuration: %v", err)
	}

	appCfg := app.Config{
		Session:   sessionCfg,
		Reference: cfg.GetReference(),
		FPS:       *fps,
		HookDir:   cfg.GetHookDir(),
	}
	if appCfg.Reference != "" {
		st := openStore(cfg.GetDBPath())
		defer st.Close()
		appCfg.Store = st
	}

	a, err := app.New(appCfg)
	if err != nil {
		log.Fatalf("Failed to create session: %v", err)
	}
	a.SetSource(src)

	enc := json.NewEncoder(os.Stdout)
	if *asJSON {
		a.OnResult(func(r session.Result) {
			if err := enc.Encode(r); err != nil {
				log.Printf("Failed to write result: %v", err)
			}
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sum, err := a.Run(ctx)
	if err != nil {
		log.Fatalf("Replay failed: %v", err)
	}

	if *asJSON {
		return
	}
	fmt.Printf("Frames: %d (present %d, scored %d, skipped %d)\n",
		sum.Frames, sum.PresentFrames, sum.ScoredFrames, sum.SkippedFrames)
	fmt.Printf("Reps: %d\n", sum.Reps)
	if sum.BestCosine != nil {
		fmt.Printf("Best cosine score: %d\n", *sum.BestCosine)
	}
	if sum.BestDTW != nil {
		fmt.Printf("Best DTW distance: %.2f\n", *sum.BestDTW)
	}
}

// loadConfig reads path, or returns an empty config (all defaults) when path is "".
func loadConfig(path string) *config.Config {
	if path == "" {
		return &config.Config{}
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func openStore(dbPath string) *store.Store {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create data directory: %v", err)
		}
	}
	st, err := store.New(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	return st
}

// sessionDefaults builds the default session configuration, swapping in the
// stored reference when the config names one.
func sessionDefaults(cfg *config.Config, st *store.Store) session.Config {
	sc, err := cfg.SessionConfig()
	if err != nil {
		log.Fatalf("Invalid session configuration: %v", err)
	}

	name := cfg.GetReference()
	if name == "" {
		return sc
	}

	ref, set, err := st.Load(name)
	if err != nil {
		log.Fatalf("Failed to load reference %q: %v", name, err)
	}
	sc.Frequency = set.Len()
	sc.References = &set
	if err := sc.Validate(); err != nil {
		log.Fatalf("Reference %q unusable: %v", ref.Name, err)
	}
	log.Printf("Default sessions score against reference %s (%d frames)", ref.Name, sc.Frequency)
	return sc
}

// findWebDir checks "web", "../web" and "../../web" and returns the first directory found.
func findWebDir() string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}
