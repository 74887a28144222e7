package main

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newHealthcheckCmd(load loadFunc) *cobra.Command {
	var (
		target  string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Probe /healthz of a running server (for container health checks)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if target == "" {
				cfg, _, err := load(cmd)
				if err != nil {
					return err
				}
				u, err := deriveHealthzURL(cfg.Server.Listen)
				if err != nil {
					return err
				}
				target = u
			}
			return runHealthcheck(target, timeout)
		},
	}
	cmd.Flags().StringVar(&target, "url", "", "health endpoint (default derived from the listen address)")
	cmd.Flags().DurationVar(&timeout, "timeout", 3*time.Second, "request timeout")
	return cmd
}

// deriveHealthzURL turns a listen address into a loopback /healthz URL.
// Wildcard hosts are probed on 127.0.0.1.
func deriveHealthzURL(listen string) (string, error) {
	listen = strings.TrimSpace(listen)
	if strings.HasPrefix(listen, "http://") || strings.HasPrefix(listen, "https://") {
		u, err := url.Parse(listen)
		if err != nil {
			return "", fmt.Errorf("invalid listen url %q: %w", listen, err)
		}
		u.Path = "/healthz"
		u.RawQuery = ""
		return u.String(), nil
	}
	if !strings.Contains(listen, ":") {
		listen = ":" + listen
	}
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return "", fmt.Errorf("invalid listen address %q: %w", listen, err)
	}
	if port == "" {
		return "", fmt.Errorf("invalid listen address %q: missing port", listen)
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port) + "/healthz", nil
}

func runHealthcheck(target string, timeout time.Duration) error {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(target)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}
	return nil
}
