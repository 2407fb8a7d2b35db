package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/evolve/pkg/platform"
)

const sampleConfig = `default: embedded
classes:
  Button: native
instances:
  /Shell/-1/Composite/0: native
flags:
  theme: dark
renderer:
  addr: 127.0.0.1:0
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "evolve.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	platform.SetupRecordingBridge(t.Cleanup)
	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestResolve(t *testing.T) {
	path := writeConfig(t, sampleConfig)

	out, err := run(t, "--config", path, "resolve", "Label", "Button", "Browser", "ToolBar")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Regexp(t, `^Label\s+embedded$`, lines[0])
	assert.Regexp(t, `^Button\s+native$`, lines[1])
	assert.Contains(t, lines[2], "(native only)")
	assert.Contains(t, lines[3], "group=ToolBar,ToolItem")

	out, err = run(t, "--config", path, "resolve", "Label", "--path", "/Shell/-1/Composite/0")
	require.NoError(t, err)
	assert.Regexp(t, `^Label\s+native`, out)

	_, err = run(t, "--config", path, "resolve", "Nope")
	assert.ErrorContains(t, err, `unknown class "Nope"`)
}

func TestResolveEnvironmentOverride(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	t.Setenv("EVOLVE_CLASS_Button", "embedded")

	out, err := run(t, "--config", path, "resolve", "Button")
	require.NoError(t, err)
	assert.Regexp(t, `^Button\s+embedded`, out)
}

func TestConfigPrintsEffectiveSettings(t *testing.T) {
	path := writeConfig(t, sampleConfig)

	out, err := run(t, "--config", path, "config")
	require.NoError(t, err)
	var got struct {
		Source   string `yaml:"source"`
		Settings struct {
			Default string            `yaml:"default"`
			Classes map[string]string `yaml:"classes"`
		} `yaml:"settings"`
		Flags struct {
			Theme string `yaml:"theme"`
		} `yaml:"flags"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Equal(t, path, got.Source)
	assert.Equal(t, "embedded", got.Settings.Default)
	assert.Equal(t, "native", got.Settings.Classes["Button"])
	assert.Equal(t, "dark", got.Flags.Theme)

	out, err = run(t, "--config", path, "config", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"theme": "dark"`)

	out, err = run(t, "--config", path, "config", "--format", "toml")
	require.NoError(t, err)
	assert.Contains(t, out, "[settings]")

	_, err = run(t, "--config", path, "config", "--format", "xml")
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	good := writeConfig(t, sampleConfig)
	bad := writeConfig(t, "default: sideways\n")

	out, err := run(t, "--config", good, "config", "validate", good, bad)
	assert.ErrorContains(t, err, "1 of 2 files invalid")
	assert.Contains(t, out, good+": ok")
	assert.Contains(t, out, bad+": ")
}

func TestInvalidConfigFailsEveryCommand(t *testing.T) {
	bad := writeConfig(t, "classes:\n  Button: sideways\n")
	_, err := run(t, "--config", bad, "resolve", "Button")
	assert.Error(t, err)
}

func TestDemo(t *testing.T) {
	path := writeConfig(t, "default: native\n")

	out, err := run(t, "--config", path, "demo")
	require.NoError(t, err)
	assert.Contains(t, out, "nothing sent to the renderer")

	out, err = run(t, "--config", path, "demo", "--mode", "force_embedded")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Shell/"), "one document for the embedded root: %s", out)
	assert.Contains(t, out, `"Sign in"`)
	assert.Contains(t, out, `"Advanced"`)
	assert.Equal(t, 1, strings.Count(out, "Shell/"))

	out, err = run(t, "--config", path, "demo", "--tree")
	require.NoError(t, err)
	assert.Contains(t, out, `"variant": "native"`)

	out, err = run(t, "--config", path, "demo", "--mode", "force_embedded",
		"--bounds", "0,0,640,480", "--font", "Sans,10,bold")
	require.NoError(t, err)
	assert.Contains(t, out, `"width": 640`)
	assert.Contains(t, out, `"name": "Sans"`)
	assert.Contains(t, out, `"style": 1`)

	_, err = run(t, "--config", path, "demo", "--bounds", "0,0,0,480")
	assert.ErrorContains(t, err, "no area")
	_, err = run(t, "--config", path, "demo", "--font", "Sans")
	assert.ErrorContains(t, err, "invalid font")
}

func TestClasses(t *testing.T) {
	path := writeConfig(t, "default: embedded\n")
	out, err := run(t, "--config", path, "classes")
	require.NoError(t, err)
	assert.Contains(t, out, "CLASS")
	assert.Regexp(t, `Browser\s+Control\s+false\s+native`, out)
	assert.Regexp(t, `Button\s+Control\s+true\s+embedded`, out)
	assert.NotRegexp(t, `(?m)^Scrollable\s`, out, "abstract classes are hidden")
}
