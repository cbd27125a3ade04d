package main

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techieRahul17/intervuex/internal/config"
	"github.com/techieRahul17/intervuex/internal/meeting"
	"github.com/techieRahul17/intervuex/internal/types"
)

const twoSum = `function twoSum(nums, target) {
  const seen = {};
  for (let i = 0; i < nums.length; i++) {
    const need = target - nums[i];
    if (seen[need] !== undefined) return [seen[need], i];
    seen[nums[i]] = i;
  }
  return [];
}`

// execute runs the root command in process and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.FileEnv, "")
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// resetFlags restores every flag to its default between runs.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writeChallenge(t *testing.T, dir string) string {
	t.Helper()
	ch := types.Challenge{
		Title:           "Two Sum",
		Language:        types.LanguageJavaScript,
		TestCases:       []string{"[2,7,11,15], 9", "[3,2,4], 6"},
		ExpectedOutputs: []string{"[0,1]", "[1,2]"},
	}
	raw, err := json.Marshal(map[string]any{
		"title":           ch.Title,
		"language":        ch.Language,
		"testCases":       ch.TestCases,
		"expectedOutputs": ch.ExpectedOutputs,
	})
	require.NoError(t, err)
	return writeFile(t, dir, "challenge.json", string(raw))
}

func TestEvaluateCommand_RequiredFlags(t *testing.T) {
	_, err := execute(t, "evaluate", "--code", "solution.js")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required")
}

func TestEvaluateCommand_Run(t *testing.T) {
	dir := t.TempDir()
	challenge := writeChallenge(t, dir)
	code := writeFile(t, dir, "solution.js", twoSum)

	out, err := execute(t, "evaluate", "--challenge", challenge, "--code", code)
	require.NoError(t, err)

	var report types.RunReport
	require.NoError(t, json.Unmarshal([]byte(out), &report), out)
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 2, report.Passed)
	assert.Equal(t, 100, report.Score)
}

func TestEvaluateCommand_SubmitWritesWorkbook(t *testing.T) {
	dir := t.TempDir()
	challenge := writeChallenge(t, dir)
	code := writeFile(t, dir, "solution.js", twoSum)
	xlsx := filepath.Join(dir, "report")

	out, err := execute(t, "evaluate", "--challenge", challenge, "--code", code, "--xlsx", xlsx, "--candidate", "Ada")
	require.NoError(t, err)

	var report types.SubmitReport
	require.NoError(t, json.Unmarshal([]byte(out), &report), out)
	assert.Equal(t, 2, report.Passed)
	assert.NotEmpty(t, report.MemoryUsage)
	assert.FileExists(t, xlsx+".xlsx")
}

func TestEvaluateCommand_RejectsInvalidChallenge(t *testing.T) {
	dir := t.TempDir()
	challenge := writeFile(t, dir, "challenge.json", `{"title": "", "language": "javascript"}`)
	code := writeFile(t, dir, "solution.js", twoSum)

	_, err := execute(t, "evaluate", "--challenge", challenge, "--code", code)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestEvaluateCommand_UnsupportedLanguage(t *testing.T) {
	dir := t.TempDir()
	challenge := writeChallenge(t, dir)
	code := writeFile(t, dir, "solution.cob", "DISPLAY 'HI'.")

	_, err := execute(t, "evaluate", "--challenge", challenge, "--code", code, "--language", "cobol")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cobol")
}

func TestSessionCommands(t *testing.T) {
	file := filepath.Join(t.TempDir(), "session.json")
	t.Setenv("INTERVUEX_SESSION__FILE", file)

	out, err := execute(t, "session", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Not logged in")

	out, err = execute(t, "session", "login", "--email", "ada@example.com", "--user-type", "interviewer")
	require.NoError(t, err)
	var user types.User
	require.NoError(t, json.Unmarshal([]byte(out), &user), out)
	assert.Equal(t, types.UserTypeInterviewer, user.UserType)

	out, err = execute(t, "session", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "ada@example.com")

	out, err = execute(t, "session", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")

	out, err = execute(t, "session", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Not logged in")
}

func TestSessionLogin_Validation(t *testing.T) {
	t.Setenv("INTERVUEX_SESSION__FILE", filepath.Join(t.TempDir(), "session.json"))

	_, err := execute(t, "session", "login", "--email", "not-an-email")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid session request")

	_, err = execute(t, "session", "register", "--email", "ada@example.com", "--user-type", "admin")
	require.Error(t, err)
}

func TestMeetingTokenCommand(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pemKey := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})

	t.Setenv("JAAS_APP_ID", "")
	t.Setenv("JAAS_PRIVATE_KEY", "")
	_, err = execute(t, "meeting-token", "--email", "ada@example.com")
	require.Error(t, err)

	t.Setenv("JAAS_APP_ID", "vpaas-magic-cookie-test")
	t.Setenv("JAAS_PRIVATE_KEY", string(pemKey))
	out, err := execute(t, "meeting-token", "--email", "ada@example.com", "--moderator")
	require.NoError(t, err)

	var widget meeting.WidgetConfig
	require.NoError(t, json.Unmarshal([]byte(out), &widget), out)
	assert.Equal(t, "vpaas-magic-cookie-test/InterVueX", widget.RoomName)
	assert.NotEmpty(t, widget.JWT)
}

func TestEvaluateCommand_Verbose(t *testing.T) {
	dir := t.TempDir()
	challenge := writeChallenge(t, dir)
	code := writeFile(t, dir, "solution.js", "function twoSum(nums, target) { return []; }")

	var stderr bytes.Buffer
	t.Setenv(config.FileEnv, "")
	resetFlags(rootCmd)
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{"evaluate", "--challenge", challenge, "--code", code, "--verbose"})
	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, stderr.String(), "CHALLENGE")
	assert.Contains(t, stderr.String(), "Passed: 0/2")
}
