package notifier

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/gdg-garage/msp-registration/internal/config"
	"github.com/gdg-garage/msp-registration/internal/models"
)

type Notifier interface {
	NotifyRegistration(registration models.Registration) error
}

type DiscordNotifier struct {
	session   *discordgo.Session
	channelID string
}

// NewDiscordNotifier builds a notifier from the bot token and channel in cfg.
// It returns an error when either is missing; callers run without notifications then.
func NewDiscordNotifier(cfg *config.Config) (*DiscordNotifier, error) {
	if cfg.DiscordBotToken == "" || cfg.DiscordNotificationsChannelID == "" {
		return nil, fmt.Errorf("discord bot token or channel ID not configured")
	}
	session, err := discordgo.New("Bot " + cfg.DiscordBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	return &DiscordNotifier{session: session, channelID: cfg.DiscordNotificationsChannelID}, nil
}

func FormatRegistration(registration models.Registration) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎉 **New Registration**\n**Name:** %s\n**Email:** %s", registration.Name, registration.Email)
	if registration.Organization != "" {
		fmt.Fprintf(&b, "\n**Organization:** %s", registration.Organization)
	}
	if registration.Role != "" {
		fmt.Fprintf(&b, "\n**Role:** %s", registration.Role)
	}
	if len(registration.Interests) > 0 {
		fmt.Fprintf(&b, "\n**Interests:** %s", strings.Join(registration.Interests, ", "))
	}
	fmt.Fprintf(&b, "\n**Submitted:** %s", registration.Timestamp)
	return b.String()
}

func (n *DiscordNotifier) NotifyRegistration(registration models.Registration) error {
	if n == nil || n.session == nil {
		return fmt.Errorf("discord session is nil")
	}
	if n.channelID == "" {
		return fmt.Errorf("discord channel ID is empty")
	}

	if _, err := n.session.ChannelMessageSend(n.channelID, FormatRegistration(registration)); err != nil {
		return fmt.Errorf("failed to send discord message: %w", err)
	}
	return nil
}
