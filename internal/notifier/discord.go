package notifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/gdg-garage/events-api/internal/models"
)

type Notifier interface {
	NotifyRegistration(ctx context.Context, user models.User, event models.Event) error
}

// messageSender is the part of *discordgo.Session the notifier needs.
type messageSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type DiscordNotifier struct {
	session   messageSender
	channelID string
}

// NewDiscordNotifier builds a REST-only bot session; no gateway connection is
// opened.
func NewDiscordNotifier(botToken, channelID string) (*DiscordNotifier, error) {
	if botToken == "" {
		return nil, fmt.Errorf("discord bot token is empty")
	}
	if channelID == "" {
		return nil, fmt.Errorf("discord channel ID is empty")
	}
	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return &DiscordNotifier{session: session, channelID: channelID}, nil
}

func (n *DiscordNotifier) NotifyRegistration(ctx context.Context, user models.User, event models.Event) error {
	if n.session == nil {
		return fmt.Errorf("discord session is nil")
	}

	name := user.Username
	if user.DisplayName != "" {
		name = fmt.Sprintf("%s (%s)", user.DisplayName, user.Username)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🎟️ **New Registration**\n**User:** %s\n**Event:** %s\n**When:** %s %s\n**Where:** %s\n**Attendees:** %d",
		name, event.Title, event.Date, event.Time, event.Location, event.Attendees)

	if _, err := n.session.ChannelMessageSend(n.channelID, b.String(), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send discord message: %w", err)
	}
	return nil
}
