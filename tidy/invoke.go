package tidy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"tidings/config"
	"tidings/logger"
	"tidings/tracing"

	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"
)

type invoker struct {
	bin        string
	flatConfig string
	cfg        *config.Config
	limiter    *rate.Limiter
}

type compileCommand struct {
	Directory string `json:"directory"`
	Command   string `json:"command"`
	File      string `json:"file"`
}

// run lints every entry of one compilation database and returns the combined
// clang-tidy output plus the number of failed invocations. clang-tidy exits
// non-zero when it finds problems, so exit errors still contribute output.
func (inv *invoker) run(ctx context.Context, dbPath string) (string, int) {
	ctx, endTask := tracing.StartTask(ctx, "lint_package")
	tracing.Log(ctx, "database", dbPath)
	defer endTask()

	packageDir := filepath.Dir(dbPath)
	packageName := filepath.Base(packageDir)

	commands, err := loadCompilationDB(dbPath)
	if err != nil {
		logger.Warnf("Failed to read %s: %v", dbPath, err)
		return "", 1
	}

	baseArgs := []string{
		"--config=" + inv.flatConfig,
		"--header-filter", fmt.Sprintf("include/%s/.*", packageName),
		"-p", packageDir,
	}
	if inv.cfg.ExplainConfig {
		baseArgs = append(baseArgs, "--explain-config")
	}
	if inv.cfg.ExportFixes != "" {
		baseArgs = append(baseArgs, "--export-fixes", inv.cfg.ExportFixes)
	}
	if inv.cfg.Quiet {
		baseArgs = append(baseArgs, "--quiet")
	}
	if inv.cfg.SystemHeaders {
		baseArgs = append(baseArgs, "--system-headers")
	}

	var output strings.Builder
	var failed int
	for _, cmd := range commands {
		if isGtestSource(filepath.Base(cmd.File)) {
			continue
		}
		if isUnittestSource(packageName, cmd.File) {
			continue
		}
		if inv.limiter != nil {
			if err := inv.limiter.Wait(ctx); err != nil {
				break
			}
		}

		args := append(append([]string(nil), baseArgs...), cmd.File)
		endRegion := tracing.StartRegion(ctx, "clang_tidy")
		out, err := exec.CommandContext(ctx, inv.bin, args...).Output()
		endRegion()
		output.Write(out)
		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				logger.Warnf("The invocation of %q failed with error code %d: %s",
					filepath.Base(inv.bin), exitErr.ExitCode(), strings.TrimSpace(string(exitErr.Stderr)))
			} else {
				logger.Warnf("The invocation of %q failed: %v", filepath.Base(inv.bin), err)
			}
			failed++
		}
	}
	return output.String(), failed
}

func loadCompilationDB(path string) ([]compileCommand, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var commands []compileCommand
	if err := json.Unmarshal(data, &commands); err != nil {
		return nil, err
	}
	return commands, nil
}

// gtest and gmock amalgamation sources are upstream code; linting them only
// produces noise.
func isGtestSource(fileName string) bool {
	switch fileName {
	case "gtest_main.cc", "gtest-all.cc", "gmock_main.cc", "gmock-all.cc":
		return true
	}
	return false
}

// Unit test sources use gtest macros that clang-tidy cannot digest.
func isUnittestSource(packageName, filePath string) bool {
	return strings.Contains(filePath, packageName+"/test/")
}

// findExecutable resolves the first of the given names present and executable
// on PATH, preserving the caller's preference order.
func findExecutable(names []string) string {
	paths := filepath.SplitList(os.Getenv("PATH"))
	for _, name := range names {
		for _, dir := range paths {
			if dir == "" {
				continue
			}
			candidate := filepath.Join(dir, name)
			info, err := os.Stat(candidate)
			if err != nil || info.IsDir() {
				continue
			}
			if info.Mode()&0111 != 0 {
				return candidate
			}
		}
	}
	return ""
}

// flattenConfig re-renders a YAML config as a single flow-style line so it
// can be passed to clang-tidy via --config=.
func flattenConfig(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return "", err
	}
	setFlowStyle(&node)
	flat, err := yaml.Marshal(&node)
	if err != nil {
		return "", err
	}
	// The encoder wraps long flow output; rejoin it to one line.
	lines := strings.Split(strings.TrimSpace(string(flat)), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.Join(lines, " "), nil
}

func setFlowStyle(node *yaml.Node) {
	if node.Kind == yaml.MappingNode || node.Kind == yaml.SequenceNode {
		node.Style = yaml.FlowStyle
	}
	for _, child := range node.Content {
		setFlowStyle(child)
	}
}

func progressVisible() bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv("TIDINGS_DISABLE_PROGRESS")))
	return value != "1" && value != "true" && value != "yes" && value != "on"
}
