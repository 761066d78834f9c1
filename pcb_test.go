package player

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPCBSendBlocksUntilAck(t *testing.T) {
	t.Parallel()
	pc := NewPCB(Config{})

	done := make(chan struct{})
	go func() {
		pc.Play(&Song{URL: "song.mp3"})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Play returned before the command was acked")
	case <-time.After(20 * time.Millisecond):
	}

	cmd, song, _ := pc.peekCommand()
	require.Equal(t, CommandPlay, cmd)
	require.Equal(t, "song.mp3", song.URL)

	pc.ackCommand()
	<-done

	cmd, _, _ = pc.peekCommand()
	assert.Equal(t, CommandNone, cmd)
}

func TestPCBRewriteCommand(t *testing.T) {
	t.Parallel()
	pc := NewPCB(Config{})

	done := make(chan struct{})
	go func() {
		pc.Cancel()
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	pc.rewriteCommand(CommandStop)
	cmd, _, _ := pc.peekCommand()
	require.Equal(t, CommandStop, cmd)

	pc.ackCommand()
	<-done
}

func TestPCBWaitWakesOnCommand(t *testing.T) {
	t.Parallel()
	pc := NewPCB(Config{})

	woke := make(chan struct{})
	go func() {
		pc.Wait()
		close(woke)
	}()

	go pc.Play(&Song{URL: "x"})

	select {
	case <-woke:
	case <-time.After(time.Second):
		t.Fatal("Wait did not wake on a new command")
	}
	pc.ackCommand()
}

func TestPCBStatusAccessors(t *testing.T) {
	t.Parallel()
	pc := NewPCB(Config{})

	pc.setState(StatePlay)
	assert.Equal(t, StatePlay, pc.State())

	song := &Song{URL: "bad.mp3"}
	pc.setError(ErrorFile, song)
	kind, errSong := pc.Error()
	assert.Equal(t, ErrorFile, kind)
	assert.Same(t, song, errSong)

	pc.setElapsed(5 * time.Second)
	assert.Equal(t, 5*time.Second, pc.ElapsedTime())

	pc.addPlayTime(time.Second)
	pc.addPlayTime(time.Second)
	assert.Equal(t, 2*time.Second, pc.TotalPlayTime())
}

func TestPCBIdleFlags(t *testing.T) {
	t.Parallel()
	pc := NewPCB(Config{})
	pc.raiseIdle(IdlePlayer)

	select {
	case flag := <-pc.Idle():
		assert.Equal(t, IdlePlayer, flag)
	case <-time.After(time.Second):
		t.Fatal("idle flag was not delivered")
	}
}
