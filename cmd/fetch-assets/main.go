// Command fetch-assets downloads the artifacts listed in an HCL asset
// manifest, skipping anything already present with a matching checksum.
//
// Manifest format:
//
//	asset "segmentation_weights" {
//	  url    = "https://example.org/net.caffemodel"
//	  sha256 = "..."
//	  target = "models/net.caffemodel"
//	}
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hashicorp/hcl/v2/hclsimple"

	"github.com/specialistvlad/launchgridgo/internal/fetch"
)

type asset struct {
	Name   string `hcl:"name,label"`
	URL    string `hcl:"url"`
	SHA256 string `hcl:"sha256"`
	Target string `hcl:"target"`
}

type manifest struct {
	Assets []*asset `hcl:"asset,block"`
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flagSet := flag.NewFlagSet("fetch-assets", flag.ContinueOnError)
	flagSet.SetOutput(os.Stderr)
	manifestFlag := flagSet.String("manifest", "assets.hcl", "Path to the asset manifest.")
	timeoutFlag := flagSet.Duration("timeout", 10*time.Minute, "Per-asset download timeout.")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	var m manifest
	if err := hclsimple.DecodeFile(*manifestFlag, nil, &m); err != nil {
		return fmt.Errorf("reading manifest: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	client := &http.Client{}

	// Targets are relative to the manifest's directory so the manifest can
	// live next to the files it describes.
	baseDir := filepath.Dir(*manifestFlag)

	var failed int
	for _, a := range m.Assets {
		target := a.Target
		if !filepath.IsAbs(target) {
			target = filepath.Join(baseDir, target)
		}

		fetchCtx, cancel := context.WithTimeout(ctx, *timeoutFlag)
		res, err := fetch.Fetch(fetchCtx, client, target, a.URL, a.SHA256)
		cancel()
		if err != nil {
			logger.Error("Asset fetch failed.", "asset", a.Name, "error", err)
			failed++
			continue
		}
		if res.Skipped {
			logger.Info("Asset already up to date.", "asset", a.Name, "sha256", res.SHA256)
		} else {
			logger.Info("Asset downloaded.", "asset", a.Name, "bytes", res.Bytes, "sha256", res.SHA256)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d assets failed", failed, len(m.Assets))
	}
	return nil
}
