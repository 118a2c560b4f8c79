package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	initPath   string
	initFormat string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Scaffold a starter chimney.toml and sites directory",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().StringVar(&initPath, "path", ".", "directory to scaffold into")
	initCmd.Flags().StringVar(&initFormat, "format", "toml", "configuration format to scaffold (only toml is supported today)")
}

const starterRootConfig = `host = "0.0.0.0"
port = 8080
sites_directory = "sites"
log_level = "info"
host_detection = "auto"

[https]
enabled = false
port = 8443
cache_directory = "~/.chimney/certs"
acme_directory_url = "https://acme-v02.api.letsencrypt.org/directory"
`

const starterSiteConfig = `root = "."
domain_names = ["localhost"]
`

const starterIndexHTML = `<!doctype html>
<html>
<head><title>Chimney</title></head>
<body><h1>It works.</h1></body>
</html>
`

func runInit(cmd *cobra.Command, args []string) error {
	if initFormat != "toml" {
		return &exitError{ExitCode: 1, Err: fmt.Errorf("unsupported configuration format %q", initFormat)}
	}

	siteDir := filepath.Join(initPath, "sites", "default")
	if err := os.MkdirAll(siteDir, 0o755); err != nil {
		return &exitError{ExitCode: 1, Err: err}
	}

	rootConfigPath := filepath.Join(initPath, "chimney.toml")
	if err := writeIfAbsent(rootConfigPath, starterRootConfig); err != nil {
		return &exitError{ExitCode: 1, Err: err}
	}
	if err := writeIfAbsent(filepath.Join(siteDir, "chimney.toml"), starterSiteConfig); err != nil {
		return &exitError{ExitCode: 1, Err: err}
	}
	if err := writeIfAbsent(filepath.Join(siteDir, "index.html"), starterIndexHTML); err != nil {
		return &exitError{ExitCode: 1, Err: err}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "scaffolded %s and %s\n", rootConfigPath, siteDir)
	return nil
}

func writeIfAbsent(path, content string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
