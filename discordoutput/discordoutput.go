// Package discordoutput adapts a discordgo voice connection, encoded
// through github.com/jonas747/dca, into a player.Output: the module's
// stock "play into a Discord voice channel" sink. It is grounded on the
// teacher's own discordvoice.Device/Writer voice-channel plumbing,
// repurposed here to sit behind the push-based Output interface instead
// of owning its own queue and playback loop.
package discordoutput

import (
	"io"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/jonas747/dca"
	"github.com/pkg/errors"

	"github.com/jkabot/soundcore"
)

var ErrInvalidVoiceChannel = errors.New("invalid voice channel")

var defaultEncodeOptions = dca.EncodeOptions{
	Volume:           256,
	Channels:         2,
	FrameRate:        48000,
	FrameDuration:    20,
	Bitrate:          128,
	Application:      dca.AudioApplicationAudio,
	CompressionLevel: 10,
	PacketLoss:       1,
	BufferedFrames:   100,
}

// Output streams PCM into a Discord voice channel: writes are piped
// through an in-memory ffmpeg/opus encode session, and a background
// goroutine drains encoded frames onto the voice connection's OpusSend
// channel.
type Output struct {
	discord     *discordgo.Session
	guildID     string
	channelID   string
	sendTimeout time.Duration

	mu     sync.Mutex
	vconn  *discordgo.VoiceConnection
	pw     *io.PipeWriter
	enc    *dca.EncodeSession
	wg     sync.WaitGroup
	closed bool
}

// New constructs an Output that joins channelID in guildID once opened.
func New(discord *discordgo.Session, guildID, channelID string, sendTimeout time.Duration) *Output {
	return &Output{
		discord:     discord,
		guildID:     guildID,
		channelID:   channelID,
		sendTimeout: sendTimeout,
	}
}

func validVoiceChannel(discord *discordgo.Session, channelID string) bool {
	channel, err := discord.State.Channel(channelID)
	if err != nil {
		channel, err = discord.Channel(channelID)
	}
	return err == nil && channel.Type == discordgo.ChannelTypeGuildVoice
}

func (o *Output) Open(f player.Format) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !validVoiceChannel(o.discord, o.channelID) {
		return ErrInvalidVoiceChannel
	}
	if o.vconn == nil || o.vconn.ChannelID != o.channelID || !o.vconn.Ready {
		vconn, err := o.discord.ChannelVoiceJoin(o.guildID, o.channelID, false, true)
		if err != nil {
			return errors.Wrap(err, "join discord channel")
		}
		o.vconn = vconn
	}

	opts := defaultEncodeOptions
	opts.Channels = int(f.Channels)
	opts.FrameRate = int(f.SampleRate)

	pr, pw := io.Pipe()
	enc, err := dca.EncodeMem(pr, &opts)
	if err != nil {
		pw.Close()
		return errors.Wrap(err, "start dca encoder")
	}
	o.pw = pw
	o.enc = enc
	o.closed = false

	o.vconn.Speaking(true)
	o.wg.Add(1)
	go o.drain(o.enc, o.vconn)
	return nil
}

// drain reads encoded Opus frames off enc and sends them to vconn,
// following the teacher's sendPayload OpusSend-with-timeout discipline.
func (o *Output) drain(enc *dca.EncodeSession, vconn *discordgo.VoiceConnection) {
	defer o.wg.Done()
	for {
		frame, err := enc.OpusFrame()
		if err != nil {
			return
		}
		select {
		case vconn.OpusSend <- frame:
		case <-time.After(o.sendTimeout):
			return
		}
	}
}

func (o *Output) Write(data []byte) error {
	o.mu.Lock()
	pw := o.pw
	o.mu.Unlock()
	if pw == nil {
		return nil
	}
	_, err := pw.Write(data)
	return errors.Wrap(err, "write pcm to encoder")
}

func (o *Output) Tag(t *player.Tag) {
	if t == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.vconn == nil {
		return
	}
	status := t.Title
	if len(status) > 32 {
		status = status[:32]
	}
	_ = o.discord.GuildMemberNickname(o.guildID, "@me", status)
}

func (o *Output) Pause(paused bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.vconn == nil {
		return nil
	}
	return o.vconn.Speaking(!paused)
}

// Cancel closes the current encode session without tearing down the
// voice connection, discarding whatever audio was in flight.
func (o *Output) Cancel() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closeEncoder()
}

func (o *Output) closeEncoder() {
	if o.closed {
		return
	}
	o.closed = true
	if o.pw != nil {
		o.pw.Close()
	}
	if o.enc != nil {
		o.enc.Cleanup()
	}
}

func (o *Output) Close() error {
	o.mu.Lock()
	o.closeEncoder()
	vconn := o.vconn
	o.vconn = nil
	o.mu.Unlock()

	o.wg.Wait()
	if vconn == nil {
		return nil
	}
	vconn.Speaking(false)
	return vconn.Disconnect()
}
