package support

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/MeKo-Tech/imgmerge/cmd/imgmerge/cmd"
	"github.com/MeKo-Tech/imgmerge/internal/queue"
	"github.com/cucumber/godog"
)

// iRunCommand executes an imgmerge command line in-process from the scratch directory.
func (testCtx *TestContext) iRunCommand(command string) error {
	testCtx.LastCommand = command
	start := time.Now()

	parts := strings.Fields(command)
	if len(parts) == 0 {
		return errors.New("empty command")
	}
	if parts[0] != "imgmerge" {
		return fmt.Errorf("only imgmerge commands can be run, got %q", parts[0])
	}

	prev, err := os.Getwd()
	if err != nil {
		return err
	}
	if err := os.Chdir(testCtx.TempDir); err != nil {
		return err
	}
	defer func() { _ = os.Chdir(prev) }()

	cmd.ResetFlags()
	root := cmd.GetRootCommand()
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(parts[1:])

	err = root.Execute()

	testCtx.LastStdout = stdout.String()
	testCtx.LastStderr = stderr.String()
	testCtx.LastOutput = testCtx.LastStdout + testCtx.LastStderr
	testCtx.LastError = err
	testCtx.LastDuration = time.Since(start)
	testCtx.LastExitCode = 0
	if err != nil {
		testCtx.LastExitCode = 1
	}
	return nil
}

// theCommandShouldSucceed verifies the command succeeded.
func (testCtx *TestContext) theCommandShouldSucceed() error {
	if testCtx.LastExitCode != 0 {
		return fmt.Errorf("command failed with exit code %d: %w\nOutput: %s",
			testCtx.LastExitCode, testCtx.LastError, testCtx.LastOutput)
	}
	return nil
}

// theCommandShouldFail verifies the command failed.
func (testCtx *TestContext) theCommandShouldFail() error {
	if testCtx.LastExitCode == 0 {
		return fmt.Errorf("command succeeded when it should have failed\nOutput: %s", testCtx.LastOutput)
	}
	return nil
}

// theOutputShouldContain verifies the output contains specific text.
func (testCtx *TestContext) theOutputShouldContain(expectedText string) error {
	if !strings.Contains(testCtx.LastOutput, expectedText) {
		return fmt.Errorf("output does not contain '%s'\nActual output: %s", expectedText, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldNotContain(text string) error {
	if strings.Contains(testCtx.LastOutput, text) {
		return fmt.Errorf("output unexpectedly contains '%s'\nActual output: %s", text, testCtx.LastOutput)
	}
	return nil
}

// theErrorShouldContain checks the error returned by the command, which the
// binary prints to stderr before exiting non-zero.
func (testCtx *TestContext) theErrorShouldContain(text string) error {
	if testCtx.LastError == nil {
		return fmt.Errorf("command did not fail\nOutput: %s", testCtx.LastOutput)
	}
	if !strings.Contains(testCtx.LastError.Error(), text) {
		return fmt.Errorf("error %q does not contain %q", testCtx.LastError.Error(), text)
	}
	return nil
}

// theOutputShouldBeValidJSON verifies stdout is a JSON document.
func (testCtx *TestContext) theOutputShouldBeValidJSON() error {
	var v any
	if err := json.Unmarshal([]byte(strings.TrimSpace(testCtx.LastStdout)), &v); err != nil {
		return fmt.Errorf("output is not valid JSON: %w\nOutput: %s", err, testCtx.LastStdout)
	}
	return nil
}

func (testCtx *TestContext) theJSONFieldShouldBe(field, want string) error {
	var doc map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(testCtx.LastStdout)), &doc); err != nil {
		return fmt.Errorf("output is not a JSON object: %w\nOutput: %s", err, testCtx.LastStdout)
	}
	return checkJSONField(doc, field, want)
}

func checkJSONField(doc map[string]any, field, want string) error {
	got, ok := doc[field]
	if !ok {
		return fmt.Errorf("JSON has no field %q: %v", field, doc)
	}
	if fmt.Sprint(got) != want {
		return fmt.Errorf("JSON field %q is %v, want %s", field, got, want)
	}
	return nil
}

func (testCtx *TestContext) theFileShouldExist(name string) error {
	if _, err := os.Stat(testCtx.Path(name)); err != nil {
		return fmt.Errorf("file %s does not exist: %w", name, err)
	}
	return nil
}

func (testCtx *TestContext) theFileShouldNotExist(name string) error {
	if _, err := os.Stat(testCtx.Path(name)); err == nil {
		return fmt.Errorf("file %s exists but should not", name)
	}
	return nil
}

func (testCtx *TestContext) theEnvironmentVariableIs(name, value string) error {
	return testCtx.SetEnvVar(name, value)
}

// theQueueShouldContain checks the default manifest in the scratch directory.
func (testCtx *TestContext) theQueueShouldContain(count int) error {
	q, err := queue.LoadManifest(testCtx.Path(".imgmerge-queue.yaml"))
	if err != nil {
		return err
	}
	if q.Len() != count {
		return fmt.Errorf("queue has %d images, want %d", q.Len(), count)
	}
	return nil
}

func (testCtx *TestContext) queueEntryShouldBe(index int, name string, rotation int) error {
	q, err := queue.LoadManifest(testCtx.Path(".imgmerge-queue.yaml"))
	if err != nil {
		return err
	}
	e, err := q.At(index)
	if err != nil {
		return err
	}
	if !strings.HasSuffix(e.Path, string(os.PathSeparator)+name) && e.Path != name {
		return fmt.Errorf("queue entry %d is %s, want %s", index, e.Path, name)
	}
	if e.Rotation != rotation {
		return fmt.Errorf("queue entry %d has rotation %d, want %d", index, e.Rotation, rotation)
	}
	return nil
}

// RegisterCommonSteps registers the command and file steps.
func (testCtx *TestContext) RegisterCommonSteps(sc *godog.ScenarioContext) {
	// Command execution
	sc.Step(`^I run "([^"]*)"$`, testCtx.iRunCommand)
	sc.Step(`^the command should succeed$`, testCtx.theCommandShouldSucceed)
	sc.Step(`^the command should fail$`, testCtx.theCommandShouldFail)
	sc.Step(`^the environment variable "([^"]*)" is "([^"]*)"$`, testCtx.theEnvironmentVariableIs)

	// Output checks
	sc.Step(`^the output should contain "([^"]*)"$`, testCtx.theOutputShouldContain)
	sc.Step(`^the output should not contain "([^"]*)"$`, testCtx.theOutputShouldNotContain)
	sc.Step(`^the error should contain "([^"]*)"$`, testCtx.theErrorShouldContain)
	sc.Step(`^the output should be valid JSON$`, testCtx.theOutputShouldBeValidJSON)
	sc.Step(`^the JSON field "([^"]*)" should be "([^"]*)"$`, testCtx.theJSONFieldShouldBe)

	// Files
	sc.Step(`^the file "([^"]*)" should exist$`, testCtx.theFileShouldExist)
	sc.Step(`^the file "([^"]*)" should not exist$`, testCtx.theFileShouldNotExist)

	// Queue manifest
	sc.Step(`^the queue should contain (\d+) images?$`, testCtx.theQueueShouldContain)
	sc.Step(`^queue entry (\d+) should be "([^"]*)" rotated (\d+) degrees$`, testCtx.queueEntryShouldBe)
}
