package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

const projectConfig = `log_level: warn
catalog: requirements.yaml
justifications: justifications.yaml
report: out/report.json
history:
  db_path: .tracematrix/history.db
sources:
  - kind: java
    root: src
  - kind: gherkin
    root: features
`

var projectFiles = map[string]string{
	".tracematrix/config.yaml": projectConfig,
	"requirements.yaml":        "REQ-1: sign in\nREQ-2: sign out\nREQ-3: audit\n",
	"justifications.yaml":      "REQ-3: checked by the security review\n",
	"src/LoginTest.java": `package auth;

public class LoginTest {
    /**
     * @testId TC-1
     * @expectedResult signed in
     * @covers REQ-1
     */
    @Test
    void signsIn() {}
}
`,
	"features/logout.feature": `Feature: Logout

  @REQ-2
  Scenario: Sign out
    Given a signed in user
    When they sign out
    Then the session ends
`,
}

// writeProject creates a project in a temp dir and returns the config path.
func writeProject(t *testing.T, overrides map[string]string) (dir, configPath string) {
	t.Helper()
	dir = t.TempDir()
	files := make(map[string]string, len(projectFiles)+len(overrides))
	for k, v := range projectFiles {
		files[k] = v
	}
	for k, v := range overrides {
		files[k] = v
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir, filepath.Join(dir, ".tracematrix", "config.yaml")
}

// execute runs the root command with args and returns stdout, stderr and
// the command error.
func execute(args ...string) (string, string, error) {
	root := NewRootCommand()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}
