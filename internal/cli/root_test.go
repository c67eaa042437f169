package cli

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/donut/pkg/buildinfo"
	"github.com/matzehuels/donut/pkg/observability"
)

func testCLI() *CLI {
	return New(io.Discard, LogInfo)
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := testCLI().RootCommand()
	want := []string{"render", "inspect", "explore", "serve", "cache", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
	if root.PersistentFlags().Lookup("cache") == nil {
		t.Error("--cache should be a persistent flag")
	}
}

func TestRootCommandVersion(t *testing.T) {
	root := testCLI().RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--version"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "donut version "+buildinfo.Version) {
		t.Errorf("version output = %q", out.String())
	}
}

func TestCacheSpecFromEnv(t *testing.T) {
	t.Setenv(cacheEnv, "none")
	c := testCLI()
	c.RootCommand()
	if c.CacheSpec != "none" {
		t.Errorf("CacheSpec = %q, want the %s value", c.CacheSpec, cacheEnv)
	}
}

func TestVerboseEnablesHooks(t *testing.T) {
	t.Cleanup(observability.Reset)

	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs([]string{"cache", "path"})
	root.SetOut(io.Discard)
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if _, ok := observability.Pipeline().(*observability.LogHooks); ok {
		t.Error("hooks should stay off at info level")
	}

	c.SetLogLevel(log.DebugLevel)
	root = c.RootCommand()
	root.SetArgs([]string{"cache", "path"})
	root.SetOut(io.Discard)
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if _, ok := observability.Pipeline().(*observability.LogHooks); !ok {
		t.Error("debug level should install the log hooks")
	}
}

func TestCompletion(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			root := testCLI().RootCommand()
			var out bytes.Buffer
			root.SetOut(&out)
			root.SetArgs([]string{"completion", shell})
			if err := root.Execute(); err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(out.String(), "donut") {
				t.Errorf("%s completion does not mention the command name", shell)
			}
		})
	}

	root := testCLI().RootCommand()
	root.SetArgs([]string{"completion", "tcsh"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	if err := root.Execute(); err == nil {
		t.Error("unknown shell should fail")
	}
}
