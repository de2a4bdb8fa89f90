package config

import (
	"os"
	"strings"
	"sync"
)

var (
	detectOnce      sync.Once
	insideContainer bool
)

// IsRunningInDocker reports whether the process runs inside a container.
// It checks for /.dockerenv first and falls back to container runtime
// markers in /proc/1/cgroup. The result is computed once per process.
func IsRunningInDocker() bool {
	detectOnce.Do(func() {
		if _, err := os.Stat("/.dockerenv"); err == nil {
			insideContainer = true
			return
		}
		cgroup, err := os.ReadFile("/proc/1/cgroup")
		if err != nil {
			return
		}
		markers := string(cgroup)
		insideContainer = strings.Contains(markers, "docker") ||
			strings.Contains(markers, "containerd") ||
			strings.Contains(markers, "kubepods")
	})
	return insideContainer
}

// ResolveHostForDocker maps loopback hosts to host.docker.internal when
// running inside a container, so a database published on the host machine
// stays reachable. Any other host passes through unchanged.
func ResolveHostForDocker(host string) string {
	if host != "localhost" && host != "127.0.0.1" {
		return host
	}
	if !IsRunningInDocker() {
		return host
	}
	return "host.docker.internal"
}
