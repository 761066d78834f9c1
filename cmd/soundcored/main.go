// Command soundcored wires the playback core to a local speaker output
// and, when Discord credentials are configured, a Discord voice channel
// output at the same time, mirroring the teacher's discord and native
// examples run side by side through the same Bank.
package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jkabot/soundcore"
	"github.com/jkabot/soundcore/discordoutput"
	"github.com/jkabot/soundcore/filedecoder"
	"github.com/jkabot/soundcore/otooutput"
)

func main() {
	configPath := flag.String("config", "", "path to soundcore.toml")
	song := flag.String("song", "", "path to a local audio file to play")
	discordToken := flag.String("discord-token", os.Getenv("SOUNDCORE_DISCORD_TOKEN"), "Discord bot token")
	guildID := flag.String("guild", "", "Discord guild ID")
	channelID := flag.String("channel", "", "Discord voice channel ID")
	flag.Parse()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := player.LoadConfig(*configPath)
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}

	bank := player.NewBank()
	bank.Add("speaker", otooutput.New(1<<15))

	if *discordToken != "" && *guildID != "" && *channelID != "" {
		discord, err := discordgo.New("Bot " + *discordToken)
		if err != nil {
			log.Error("create discord session", "error", err)
			os.Exit(1)
		}
		if err := discord.Open(); err != nil {
			log.Error("open discord session", "error", err)
			os.Exit(1)
		}
		defer discord.Close()
		bank.Add("discord", discordoutput.New(discord, *guildID, *channelID, 2*time.Second))
	}

	dec := filedecoder.Decoder{PCMFormat: player.Format{SampleRate: 44100, Bits: 16, Channels: 2}}
	core := player.New(cfg, dec, bank, log)
	defer core.Close()

	if *song != "" {
		core.Play(&player.Song{URL: *song, IsFile: true})
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	<-sig
}
