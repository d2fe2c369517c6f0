package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"rpmsynth/config"
)

var workerPollInterval time.Duration

var workerCmd = &cobra.Command{
	Use:   "worker --coordinator=http://host:port",
	Short: "Poll a coordinator for packages and report build results",
	RunE:  runWorker,
}

func init() {
	workerCmd.Flags().DurationVar(&workerPollInterval, "poll-interval", 2*time.Second, "delay between empty /package/ polls")
	workerCmd.Flags().String("coordinator", "", "coordinator base URL (default from config's coordinator_addr)")
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	base, _ := cmd.Flags().GetString("coordinator")
	if base == "" {
		base = "http://localhost" + cfg.CoordinatorAddr
	}

	client := &http.Client{Timeout: 30 * time.Second}

	for {
		pkg, ok, err := fetchPackage(client, base)
		if err != nil {
			return fmt.Errorf("fetch package: %w", err)
		}
		if !ok {
			time.Sleep(workerPollInterval)
			continue
		}

		status := doBuild(pkg, cfg)
		if err := notifyBuild(client, base, pkg, status); err != nil {
			return fmt.Errorf("notify build for %s: %w", pkg, err)
		}
	}
}

func fetchPackage(client *http.Client, base string) (pkg string, ok bool, err error) {
	resp, err := client.Get(base + "/package/")
	if err != nil {
		return "", false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return "", false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", false, err
	}
	return string(body), true, nil
}

func notifyBuild(client *http.Client, base, pkg string, status int) error {
	payload, err := json.Marshal(map[string]any{"package": pkg, "status": status})
	if err != nil {
		return err
	}

	resp, err := client.Post(base+"/notifybuild/", "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("notify rejected with status %d: %s", resp.StatusCode, body)
	}
	return nil
}

// doBuild is the seam where a real worker would chroot/sandbox and invoke
// rpmbuild. Actually compiling packages is out of scope here (see
// Non-goals): this stub always reports success, standing in for whatever a
// deployment wires up in its place.
func doBuild(pkg string, cfg *config.Config) int {
	_ = cfg
	return 0
}
