// Package cmd holds the subcommands of the do tool.
package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/spf13/pflag"
)

// Command is one do subcommand. Run gets the arguments after the name.
type Command struct {
	Name  string
	Short string
	Run   func(args []string) error
}

func DevCmd() Command {
	return Command{
		Name:  "dev",
		Short: "Run air for hot-reload development",
		Run:   runDev,
	}
}

func runDev(args []string) error {
	var proxyPort, appPort string
	flagSet := pflag.NewFlagSet("dev", pflag.ContinueOnError)
	flagSet.StringVar(&proxyPort, "proxy-port", "8080", "port of the live-reload proxy")
	flagSet.StringVar(&appPort, "app-port", "8090", "port the server listens on")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	airPath, err := exec.LookPath("air")
	if err != nil {
		fmt.Println("Missing binary: air")
		fmt.Println("Install with:")
		fmt.Println("  go install github.com/air-verse/air@latest")
		return fmt.Errorf("air not found")
	}

	airArgs := []string{
		"air",
		"-c", "/dev/null",
		"-root", ".",
		"-build.cmd", "go build -o ./tmp/main ./cmd/server",
		"-build.bin", "./tmp/main",
		"-build.delay", "100",
		"-build.exclude_dir", "bin,tmp,.data,_examples",
		"-build.exclude_regex", "_test.go$",
		"-build.include_ext", "go,css,md,sql",
		"-build.kill_delay", "500ms",
		"-build.send_interrupt", "true",
		"-proxy.enabled", "true",
		"-proxy.proxy_port", proxyPort,
		"-proxy.app_port", appPort,
	}

	env := os.Environ()
	env = append(env, "PORT="+appPort)

	return syscall.Exec(airPath, airArgs, env)
}
