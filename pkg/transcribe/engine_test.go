package transcribe

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHelper writes a shell script standing in for the Python engine,
// driven through the same stdio protocol.
func fakeHelper(t *testing.T, body string) *Engine {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	script := filepath.Join(t.TempDir(), "engine.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\n"+body), 0755))
	return NewEngine(script, WithPython("sh"))
}

func TestEngineRun(t *testing.T) {
	e := fakeHelper(t, `
read request
echo '{"stageId":"transcribing","stageProgress":0.5,"message":"halfway"}'
echo '{"success":true,"text":"amazing grace"}'
`)

	var progress []Progress
	res, err := e.Run(context.Background(), Request{FilePath: "/tmp/sermon.mp3"}, func(p Progress) {
		progress = append(progress, p)
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "amazing grace", res.Text)
	require.Len(t, progress, 1)
	assert.Equal(t, "transcribing", progress[0].StageID)
	assert.False(t, e.Busy(), "engine idle after the job")
}

func TestEngineReportsFailure(t *testing.T) {
	e := fakeHelper(t, `
read request
echo '{"success":false,"error":"unsupported codec"}'
`)

	res, err := e.Run(context.Background(), Request{FilePath: "x"}, nil)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "unsupported codec", res.Error)
}

func TestEngineRejectsConcurrentJobs(t *testing.T) {
	e := fakeHelper(t, `
read request
sleep 2
echo '{"success":true}'
`)

	started := make(chan struct{})
	go func() {
		close(started)
		_, _ = e.Run(context.Background(), Request{FilePath: "x"}, nil)
	}()
	<-started
	time.Sleep(100 * time.Millisecond)

	_, err := e.Run(context.Background(), Request{FilePath: "y"}, nil)
	assert.ErrorIs(t, err, ErrBusy)
	e.Cancel()
}

func TestEngineCancelAwaitsExit(t *testing.T) {
	e := fakeHelper(t, `
read request
echo '{"stageId":"transcribing","stageProgress":0.1}'
read command
echo '{"success":false,"cancelled":true}'
`)

	errCh := make(chan error, 1)
	gotProgress := make(chan struct{})
	go func() {
		once := false
		_, err := e.Run(context.Background(), Request{FilePath: "x"}, func(Progress) {
			if !once {
				once = true
				close(gotProgress)
			}
		})
		errCh <- err
	}()

	select {
	case <-gotProgress:
	case <-time.After(5 * time.Second):
		t.Fatal("engine never reported progress")
	}

	e.Cancel()
	assert.False(t, e.Busy(), "Cancel returns only after the engine is idle")

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrCancelled)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not finish after cancel")
	}
}

func TestEngineContextCancellationKillsHelper(t *testing.T) {
	e := fakeHelper(t, `
read request
sleep 30
`)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := e.Run(ctx, Request{FilePath: "x"}, nil)
	assert.ErrorIs(t, err, ErrCancelled)
}
