package process_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/parleylabs/parley/pkg/adapters/process"
	"github.com/parleylabs/parley/pkg/domain"
	"github.com/parleylabs/parley/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.Oracle = (*process.Oracle)(nil)

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("judge fixtures use /bin/sh")
	}
}

func sampleStep() *domain.Step {
	return &domain.Step{
		Name:       "assessment",
		Criteria:   "The student stated their comfort level.",
		ValidSteps: []string{"guided_solution"},
	}
}

func TestOracle_ParsesVerdict(t *testing.T) {
	skipWithoutShell(t)

	oracle := process.NewOracle("/bin/sh", []string{
		"-c", `cat >/dev/null; echo '{"complete": true, "target": {"context": "math", "step": "guided_solution"}}'`,
	})

	verdict, err := oracle.Evaluate(context.Background(), sampleStep(), []string{"user: I am stuck on fractions"})
	require.NoError(t, err)
	assert.True(t, verdict.Complete)
	require.NotNil(t, verdict.Target)
	assert.Equal(t, "math", verdict.Target.Context)
	assert.Equal(t, "guided_solution", verdict.Target.Step)
}

func TestOracle_IncompleteWithoutTarget(t *testing.T) {
	skipWithoutShell(t)

	oracle := process.NewOracle("/bin/sh", []string{
		"-c", `cat >/dev/null; echo '{"complete": false}'`,
	})

	verdict, err := oracle.Evaluate(context.Background(), sampleStep(), nil)
	require.NoError(t, err)
	assert.False(t, verdict.Complete)
	assert.Nil(t, verdict.Target)
}

func TestOracle_RequestReachesStdin(t *testing.T) {
	skipWithoutShell(t)

	dir := t.TempDir()
	capture := filepath.Join(dir, "request.json")
	oracle := process.NewOracle("/bin/sh", []string{
		"-c", `cat > "$1"; echo '{"complete": false}'`, "judge", capture,
	})

	_, err := oracle.Evaluate(context.Background(), sampleStep(), []string{"user: hello"})
	require.NoError(t, err)

	raw, err := os.ReadFile(capture)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "comfort level")
	assert.Contains(t, string(raw), "user: hello")
}

func TestOracle_MalformedOutput(t *testing.T) {
	skipWithoutShell(t)

	oracle := process.NewOracle("/bin/sh", []string{"-c", `cat >/dev/null; echo 'not json'`})

	_, err := oracle.Evaluate(context.Background(), sampleStep(), nil)
	assert.ErrorContains(t, err, "malformed verdict")
}

func TestOracle_FailureIncludesStderr(t *testing.T) {
	skipWithoutShell(t)

	oracle := process.NewOracle("/bin/sh", []string{"-c", `echo "judge exploded" >&2; exit 3`})

	_, err := oracle.Evaluate(context.Background(), sampleStep(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "judge exploded")
}

func TestOracle_Timeout(t *testing.T) {
	skipWithoutShell(t)

	oracle := process.NewOracle("/bin/sh", []string{"-c", "sleep 5"},
		process.WithTimeout(50*time.Millisecond))

	start := time.Now()
	_, err := oracle.Evaluate(context.Background(), sampleStep(), nil)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestLoadJudges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "judges.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
judges:
  - name: local-nlu
    command: ./bin/nlu-judge
    args: ["--strict"]
    description: On-device criteria checker
  - name: ""
    command: ignored
`), 0o644))

	judges, err := process.LoadJudges(path)
	require.NoError(t, err)
	require.Len(t, judges, 1)
	assert.Equal(t, "./bin/nlu-judge", judges["local-nlu"].Command)
	assert.Equal(t, []string{"--strict"}, judges["local-nlu"].Args)
}

func TestLoadJudges_MissingFile(t *testing.T) {
	judges, err := process.LoadJudges(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Empty(t, judges)
}
