// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package supervisor_test

import (
	"bytes"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/aibor/containit/supervisor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

const terminalHelperEnv = "CONTAINIT_TEST_TERMINAL_HELPER"

// openPty returns the master and slave side of a new pseudo terminal.
func openPty(t *testing.T) (*os.File, *os.File) {
	t.Helper()

	ptmx, err := os.OpenFile("/dev/ptmx", os.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		t.Skipf("pseudo terminal not available: %v", err)
	}

	t.Cleanup(func() { _ = ptmx.Close() })

	fd := int(ptmx.Fd())

	require.NoError(t, unix.IoctlSetPointerInt(fd, unix.TIOCSPTLCK, 0), "unlock")

	num, err := unix.IoctlGetInt(fd, unix.TIOCGPTN)
	require.NoError(t, err, "pts number")

	pts, err := os.OpenFile("/dev/pts/"+strconv.Itoa(num), os.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		t.Skipf("pseudo terminal slave not available: %v", err)
	}

	return ptmx, pts
}

// syncBuffer is a [bytes.Buffer] safe for concurrent use.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

// TestSupervisor_Spawn_Terminal runs [TestForegroundTerminalHelper] in a new
// session with a pseudo terminal as controlling terminal. The service spawned
// there must be able to read from the terminal.
func TestSupervisor_Spawn_Terminal(t *testing.T) {
	ptmx, pts := openPty(t)

	helper := exec.Command(os.Args[0], "-test.run=^TestForegroundTerminalHelper$", "-test.v")
	helper.Env = append(os.Environ(), terminalHelperEnv+"=1")
	helper.Stdin = pts
	helper.Stdout = pts
	helper.Stderr = pts
	helper.SysProcAttr = &syscall.SysProcAttr{
		Setsid:  true,
		Setctty: true,
		Ctty:    0,
	}

	require.NoError(t, helper.Start())

	helperDone := make(chan error, 1)
	go func() { helperDone <- helper.Wait() }()

	require.NoError(t, pts.Close())

	var output syncBuffer

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)

		buf := make([]byte, 1024)

		for {
			n, err := ptmx.Read(buf)
			_, _ = output.Write(buf[:n])

			if err != nil {
				return
			}
		}
	}()

	_, err := ptmx.WriteString("hello\n")
	require.NoError(t, err)

	select {
	case err := <-helperDone:
		assert.NoError(t, err, "helper output:\n%s", output.String())
	case <-time.After(2 * waitTimeout):
		_ = helper.Process.Kill()
		<-helperDone
		t.Fatalf("helper did not exit, output:\n%s", output.String())
	}

	assert.Eventually(t, func() bool {
		return strings.Contains(output.String(), "got:hello")
	}, waitTimeout, 10*time.Millisecond, "output:\n%s", output.String())

	require.NoError(t, ptmx.Close())
	<-readerDone
}

func TestForegroundTerminalHelper(t *testing.T) {
	if os.Getenv(terminalHelperEnv) == "" {
		t.Skip("only run by TestSupervisor_Spawn_Terminal")
	}

	sup := startSupervisor(t, supervisor.DefaultConfig())

	// Reading from the terminal stops a process outside the foreground
	// process group with SIGTTIN.
	proc, err := sup.Spawn(shell(`read -r line && echo "got:$line"`), true)
	require.NoError(t, err)

	assert.Equal(t, 0, waitExit(t, proc))
}
