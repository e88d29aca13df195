package main

import (
	"bytes"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/sushant-115/bptree/core/indexing/bptree"
	"github.com/sushant-115/bptree/internal/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := executeApp(t, args...)
	return out, err
}

func executeApp(t *testing.T, args ...string) (string, *app, error) {
	t.Helper()
	root, a := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := runRoot(root, a)
	return out.String(), a, err
}

func TestRender(t *testing.T) {
	out, err := execute(t, "render", "--capacity", "2", "5", "15", "20", "25")
	require.NoError(t, err)
	require.Contains(t, out, "digraph")
	require.Contains(t, out, "INode")
	require.Contains(t, out, "{Leaf | 5 | 15}")

	_, err = execute(t, "render", "five")
	require.ErrorContains(t, err, `invalid key "five"`)
}

func TestCapacityFlagValidated(t *testing.T) {
	_, err := execute(t, "render", "--capacity", "1", "5")
	require.Error(t, err)
}

func TestStress(t *testing.T) {
	dotPath := filepath.Join(t.TempDir(), "tree.dot")
	out, err := execute(t, "stress", "--capacity", "3", "-n", "500", "--key-max", "100",
		"--delete-ratio", "0.3", "--seed", "11", "--dot", dotPath)
	require.NoError(t, err)
	require.Contains(t, out, "seed=11")
	require.Contains(t, out, "tree is valid")

	require.Contains(t, out, "wrote "+dotPath)

	dot, err := os.ReadFile(dotPath)
	require.NoError(t, err)
	require.Contains(t, string(dot), "digraph")
	require.Contains(t, string(dot), "Leaf")
}

func TestStress_DotPathUnwritable(t *testing.T) {
	dotPath := filepath.Join(t.TempDir(), "missing", "tree.dot")
	out, err := execute(t, "stress", "--capacity", "3", "-n", "20", "--seed", "1", "--dot", dotPath)
	require.ErrorContains(t, err, "failed to create "+dotPath)
	require.NotContains(t, out, "wrote")
}

func TestWriteDOT(t *testing.T) {
	tree, err := bptree.NewOrdered[int64, string](2)
	require.NoError(t, err)
	for k := int64(1); k <= 5; k++ {
		tree.Insert(k, "v")
	}
	path := filepath.Join(t.TempDir(), "tree.dot")
	require.NoError(t, writeDOT(path, tree))

	dot, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(dot), "INode")

	require.Error(t, writeDOT(t.TempDir(), tree), "a directory cannot be created as a file")
}

// TestFailedCommand_StopsMetricsServer runs a command that fails after setup
// started the metrics endpoint and expects the endpoint to be gone.
func TestFailedCommand_StopsMetricsServer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bptree.yaml")
	cfg := "logger:\n  output_file: stderr\ntelemetry:\n  enabled: true\n  service_name: bptree-test\n  prometheus_port: 0\n"
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))

	_, a, err := executeApp(t, "stress", "--config", path, "--delete-ratio", "3")
	require.ErrorIs(t, err, config.ErrInvalidDeleteRatio)
	require.NotNil(t, a.tel)
	require.NotEmpty(t, a.tel.MetricsAddr)
	require.Nil(t, a.shutdown, "teardown must have run")

	client := &http.Client{Timeout: time.Second}
	resp, err := client.Get("http://" + a.tel.MetricsAddr + "/metrics")
	if err == nil {
		resp.Body.Close()
	}
	require.Error(t, err, "metrics endpoint still serving after a failed command")
}

func TestStress_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bptree.yaml")
	require.NoError(t, os.WriteFile(path, []byte("index:\n  node_capacity: 5\nstress:\n  inserts: 50\n  seed: 2\n"), 0o644))

	out, err := execute(t, "stress", "--config", path)
	require.NoError(t, err)
	require.Contains(t, out, "capacity=5")
	require.Contains(t, out, "inserts=50")

	_, err = execute(t, "stress", "--config", path, "--delete-ratio", "3")
	require.Error(t, err)
}
